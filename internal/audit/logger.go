package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pollogram/backend/internal/audit/domain"
	auditrepo "pollogram/backend/internal/audit/repository"
	"pollogram/backend/internal/events"
)

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// Recorder records a security event. Record is best-effort: failures are
// logged and never affect the caller.
type Recorder interface {
	Record(ctx context.Context, event events.Event)
}

// Logger implements Recorder by persisting to the audit repository and
// publishing to an event producer. Either sink may be nil.
type Logger struct {
	repo        auditrepo.Repository
	producer    events.Producer
	ipExtractor IPExtractor
	logger      *slog.Logger
	now         func() time.Time
}

// NewLogger returns a Logger. ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, producer events.Producer, ipExtractor IPExtractor, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{repo: repo, producer: producer, ipExtractor: ipExtractor, logger: logger, now: time.Now}
}

// Record fills in id, time and client IP, then writes the event to both sinks.
func (l *Logger) Record(ctx context.Context, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = l.now().UTC()
	}
	if event.IP == "" {
		event.IP = "unknown"
		if l.ipExtractor != nil {
			if ip := l.ipExtractor(ctx); ip != "" {
				event.IP = ip
			}
		}
	}

	if l.repo != nil {
		entry := &domain.AuditLog{
			ID:        event.ID,
			UserID:    event.UserID,
			Action:    string(event.Type),
			Resource:  resourceOf(event.Type),
			IP:        event.IP,
			Metadata:  metadataOf(event),
			CreatedAt: event.OccurredAt,
		}
		if err := l.repo.Create(ctx, entry); err != nil {
			l.logger.Warn("audit: failed to persist event", "type", event.Type, "error", err)
		}
	}
	if l.producer != nil {
		if err := l.producer.Emit(ctx, &event); err != nil {
			l.logger.Warn("audit: failed to publish event", "type", event.Type, "error", err)
		}
	}
}

// resourceOf maps "session.revoked" to "session".
func resourceOf(t events.Type) string {
	s := string(t)
	if i := strings.IndexByte(s, '.'); i > 0 {
		return s[:i]
	}
	return "unknown"
}

func metadataOf(event events.Event) string {
	if event.SessionID == "" && len(event.Attributes) == 0 {
		return ""
	}
	m := make(map[string]string, len(event.Attributes)+1)
	for k, v := range event.Attributes {
		m[k] = v
	}
	if event.SessionID != "" {
		m["session_id"] = event.SessionID
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
