package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches one watcher connection to the hub for a session.
func ServeWs(hub *Hub, c *websocket.Conn, sessionId string) {
	client := &Client{Hub: hub, Conn: c, SessionId: sessionId, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
