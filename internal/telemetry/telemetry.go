// Package telemetry is the fire-and-forget analytics side channel.
// Events are emitted as OpenTelemetry spans through whatever provider
// cmd/api configured; with tracing disabled they fall through to
// structured logs. Nothing in this package ever surfaces a failure to
// the caller.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"memoir/internal/model"
)

// ClientInfo carries the request-derived context attached to each event.
type ClientInfo struct {
	IP        string
	Country   string
	UserAgent string
}

// Tracker records frontend telemetry events.
type Tracker struct {
	tracer trace.Tracer
	logger *zap.Logger
	geo    *GeoResolver
}

// NewTracker constructs a Tracker. geo may be nil to disable IP
// geolocation enrichment.
func NewTracker(logger *zap.Logger, geo *GeoResolver) *Tracker {
	return &Tracker{
		tracer: otel.Tracer("memoir/telemetry"),
		logger: logger,
		geo:    geo,
	}
}

// Track records one event, best-effort. It enriches the client's country
// via geolocation when the edge didn't already supply one.
func (t *Tracker) Track(ctx context.Context, ev model.TelemetryEvent, client ClientInfo) {
	if client.Country == "" || client.Country == "unknown" {
		if t.geo != nil {
			client.Country = t.geo.Lookup(ctx, client.IP).Country
		} else {
			client.Country = "unknown"
		}
	}

	attrs := []attribute.KeyValue{
		attribute.String("event.type", ev.Event),
		attribute.String("session.id", ev.SessionID),
		attribute.String("client.ip", client.IP),
		attribute.String("client.country", client.Country),
		attribute.String("client.user_agent", client.UserAgent),
	}
	if ev.PhotoID != "" {
		attrs = append(attrs, attribute.String("photo.id", ev.PhotoID))
	}
	if ev.Timestamp != "" {
		attrs = append(attrs, attribute.String("event.timestamp", ev.Timestamp))
	}

	_, span := t.tracer.Start(ctx, "telemetry."+ev.Event, trace.WithAttributes(attrs...))
	span.End()

	t.logger.Info("telemetry event",
		zap.String("event", ev.Event),
		zap.String("photo_id", ev.PhotoID),
		zap.String("session_id", ev.SessionID),
		zap.String("country", client.Country))
}
