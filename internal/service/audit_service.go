package service

import (
	"context"

	"regen-advisor-be/internal/pkg/logger"
	"regen-advisor-be/pkg/events"
	pkgNats "regen-advisor-be/pkg/nats"
)

type IAuditService interface {
	Start() error
}

// auditService tails the event stream and writes every event to the audit
// log, so session and knowledge activity stays reviewable after the fact.
type auditService struct {
	subscriber *pkgNats.Subscriber
	auditLog   logger.ILogger
}

func NewAuditService(subscriber *pkgNats.Subscriber, auditLog logger.ILogger) IAuditService {
	return &auditService{
		subscriber: subscriber,
		auditLog:   auditLog,
	}
}

func (as *auditService) Start() error {
	return as.subscriber.Subscribe("events.>", "advisor-audit", func(ctx context.Context, event events.Event) error {
		as.auditLog.Info("AUDIT", event.EventType(), event.Payload())
		return nil
	})
}
