package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics mirrors the CloudWatch counters as Sentry spans/tags so the
// same events show up in trace waterfalls without requiring AWS credentials.
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client.
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{enabled: true}
}

// RecordTickDuration records one main-loop tick as a span under ctx's transaction.
func (m *SentryMetrics) RecordTickDuration(ctx context.Context, duration time.Duration) {
	if !m.enabled {
		return
	}
	span := sentry.StartSpan(ctx, "sidecar.tick")
	defer span.Finish()
	span.SetData("duration_us", duration.Microseconds())
	span.Status = sentry.SpanStatusOK
}

// RecordSessionEvent records a session lifecycle transition.
func (m *SentryMetrics) RecordSessionEvent(event, sessionToken string) {
	if !m.enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("session.event", event)
		scope.SetTag("session.token", sessionToken)
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Category: "session",
			Message:  fmt.Sprintf("session %s: %s", sessionToken, event),
			Level:    sentry.LevelInfo,
		})
	})
}

// RecordProbeDuration records a probe sweep as a span.
func (m *SentryMetrics) RecordProbeDuration(ctx context.Context, kind string, duration time.Duration) {
	if !m.enabled {
		return
	}
	span := sentry.StartSpan(ctx, "sidecar.probe")
	defer span.Finish()
	span.SetTag("probe.kind", kind)
	span.SetData("duration_ms", duration.Milliseconds())
	span.Description = fmt.Sprintf("probe: %s", kind)
	span.Status = sentry.SpanStatusOK
}

// RecordCoalescedDrop records a superseded command as a breadcrumb.
func (m *SentryMetrics) RecordCoalescedDrop(fxGUID string) {
	if !m.enabled {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "pipeline",
		Message:  fmt.Sprintf("coalesced pending set_tone for %s", fxGUID),
		Level:    sentry.LevelInfo,
	})
}

// RecordBusyRejection records a rejected second-client connection attempt.
func (m *SentryMetrics) RecordBusyRejection(remoteAddr string) {
	if !m.enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("session.event", "rejected_busy")
		scope.SetContext("connection", map[string]interface{}{"remote_addr": remoteAddr})
		sentry.CaptureMessage("rejected control connection: session already active")
	})
}
