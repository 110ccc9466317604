package service

import (
	"context"
	"log/slog"
	"time"

	"go-auth-service/internal/event"
	"go-auth-service/internal/model"
)

// AuditSink persists audit entries and answers trail queries.
type AuditSink interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

// AuditService records authentication events from the bus. Consumption is
// asynchronous and the bus publishes without blocking, so a slow or failing
// sink never stalls a login or refresh.
type AuditService struct {
	sink        AuditSink
	bus         event.Bus
	unsubscribe func()
	done        chan struct{}
}

func NewAuditService(sink AuditSink, bus event.Bus) *AuditService {
	return &AuditService{sink: sink, bus: bus}
}

func (s *AuditService) Start() {
	events, unsubscribe := s.bus.Subscribe()
	s.unsubscribe = unsubscribe
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for e := range events {
			s.record(e)
		}
	}()
}

// Stop unsubscribes and waits for in-flight entries to be written.
func (s *AuditService) Stop() {
	if s.unsubscribe == nil {
		return
	}
	s.unsubscribe()
	<-s.done
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.sink.Query(ctx, query)
}

func (s *AuditService) record(e event.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := entryFromEvent(e)
	if err := s.sink.Log(ctx, entry); err != nil {
		slog.Warn("audit entry dropped", "action", entry.Action, "error", err)
	}
}

func entryFromEvent(e event.Event) model.AuditEntry {
	entry := model.AuditEntry{
		Action:     string(e.Type),
		OccurredAt: e.Timestamp,
		Status:     "ok",
	}
	if entry.OccurredAt == "" {
		entry.OccurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	if payload, ok := e.Payload.(event.AuthPayload); ok {
		entry.Actor = model.AuditActor{
			UserID:   payload.UserID,
			Username: payload.Username,
			IP:       payload.IP,
		}
		entry.Subject = payload.Username
		entry.Reason = payload.Reason
	}

	switch e.Type {
	case event.TypeLoginDenied, event.TypeRefreshDenied:
		entry.Status = "denied"
	}

	return entry
}
