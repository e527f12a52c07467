package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"pollogram/backend/internal/events"
)

// recordEmitter is the part of otellog.Logger used by EventProducer.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// EventProducer forwards security events to the OTel log pipeline. It
// implements events.Producer.
type EventProducer struct {
	logger recordEmitter
}

// NewEventProducer returns a producer logging through provider. A nil provider
// yields a producer that drops everything.
func NewEventProducer(provider *sdklog.LoggerProvider) *EventProducer {
	if provider == nil {
		return &EventProducer{}
	}
	return &EventProducer{logger: provider.Logger("pollogram.auth.events")}
}

func newEventProducerWithLogger(l recordEmitter) *EventProducer {
	return &EventProducer{logger: l}
}

func (p *EventProducer) Emit(ctx context.Context, event *events.Event) error {
	if p == nil || p.logger == nil || event == nil {
		return nil
	}
	var rec otellog.Record
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(severityOf(event.Type))
	rec.SetBody(otellog.StringValue(string(event.Type)))
	rec.AddAttributes(otellog.String("event_type", string(event.Type)))
	if event.ID != "" {
		rec.AddAttributes(otellog.String("event_id", event.ID))
	}
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", event.SessionID))
	}
	if event.IP != "" {
		rec.AddAttributes(otellog.String("client_ip", event.IP))
	}
	for k, v := range event.Attributes {
		rec.AddAttributes(otellog.String(k, v))
	}
	p.logger.Emit(ctx, rec)
	return nil
}

func (p *EventProducer) Close() error { return nil }

func severityOf(t events.Type) otellog.Severity {
	switch t {
	case events.TypeReuseDetected:
		return otellog.SeverityWarn
	case events.TypeSignInFailed:
		return otellog.SeverityInfo2
	default:
		return otellog.SeverityInfo
	}
}
