package controller

import (
	"io"

	"regen-advisor-be/internal/dto"
	"regen-advisor-be/internal/pkg/serverutils"
	"regen-advisor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Plan(ctx *fiber.Ctx) error
	Restart(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{
		sessionService: sessionService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/advisor/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("session", c.Create)
	h.Get("session", c.List)
	h.Post("session/:id/message", c.SendMessage)
	h.Get("session/:id/history", c.History)
	h.Get("session/:id/plan", c.Plan)
	h.Post("session/:id/restart", c.Restart)
	h.Delete("session/:id", c.Delete)
}

// Create opens a session. A multipart "document" upload, if present, runs the
// extraction pipeline immediately so one request yields session plus plan.
func (c *sessionController) Create(ctx *fiber.Ctx) error {
	res, err := c.sessionService.StartSession(ctx.Context())
	if err != nil {
		return err
	}

	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		if files := form.File["document"]; len(files) > 0 {
			file, err := files[0].Open()
			if err != nil {
				return &serverutils.BadRequestError{Message: "Unreadable document upload"}
			}
			document, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				return &serverutils.BadRequestError{Message: "Unreadable document upload"}
			}

			upload, err := c.sessionService.SendMessage(ctx.Context(), res.Id, "", document, files[0].Filename)
			if err != nil {
				return err
			}
			res.Upload = upload
		}
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	res, err := c.sessionService.ListSessions(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

// SendMessage accepts a multipart turn: an optional "chat" text field and an
// optional "document" PDF upload. Plain JSON bodies carry text-only turns.
func (c *sessionController) SendMessage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return &serverutils.BadRequestError{Message: "Invalid session id"}
	}

	var req dto.SendMessageRequest
	var document []byte
	var documentName string

	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		if values := form.Value["chat"]; len(values) > 0 {
			req.Chat = values[0]
		}
		if files := form.File["document"]; len(files) > 0 {
			file, err := files[0].Open()
			if err != nil {
				return &serverutils.BadRequestError{Message: "Unreadable document upload"}
			}
			document, err = io.ReadAll(file)
			file.Close()
			if err != nil {
				return &serverutils.BadRequestError{Message: "Unreadable document upload"}
			}
			documentName = files[0].Filename
		}
	} else if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if req.Chat == "" && len(document) == 0 {
		return &serverutils.BadRequestError{Message: "Message text or a document is required"}
	}

	res, err := c.sessionService.SendMessage(ctx.Context(), id, req.Chat, document, documentName)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *sessionController) History(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return &serverutils.BadRequestError{Message: "Invalid session id"}
	}

	res, err := c.sessionService.GetHistory(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *sessionController) Plan(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return &serverutils.BadRequestError{Message: "Invalid session id"}
	}

	res, err := c.sessionService.GetPlan(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get plan", res))
}

func (c *sessionController) Restart(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return &serverutils.BadRequestError{Message: "Invalid session id"}
	}

	res, err := c.sessionService.Restart(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success restart session", res))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return &serverutils.BadRequestError{Message: "Invalid session id"}
	}

	if err := c.sessionService.Delete(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}
