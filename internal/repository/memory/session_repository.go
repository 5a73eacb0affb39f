package memory

import (
	"regen-advisor-be/pkg/advisor/conversation"
	"regen-advisor-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// sessionState pairs the live session with its conversation log. Sessions
// never expire on their own; delete and restart are the only ways out.
type sessionState struct {
	session      *store.Session
	conversation *conversation.Manager
}

type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *SessionRepository) Save(session *store.Session, conv *conversation.Manager) {
	r.cache.Set(session.ID, &sessionState{session: session, conversation: conv}, cache.NoExpiration)
}

// Ensure stores the pair unless the session is already present, returning the
// stored pair either way. Two requests rehydrating the same session
// concurrently end up sharing one instance instead of splitting state.
func (r *SessionRepository) Ensure(session *store.Session, conv *conversation.Manager) (*store.Session, *conversation.Manager) {
	if err := r.cache.Add(session.ID, &sessionState{session: session, conversation: conv}, cache.NoExpiration); err == nil {
		return session, conv
	}
	if existing, existingConv, found := r.Get(session.ID); found {
		return existing, existingConv
	}
	r.Save(session, conv)
	return session, conv
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, *conversation.Manager, bool) {
	if x, found := r.cache.Get(sessionID); found {
		state := x.(*sessionState)
		return state.session, state.conversation, true
	}
	return nil, nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) IDs() []string {
	items := r.cache.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	return ids
}
