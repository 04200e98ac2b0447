package sidecar

import (
	"context"
	"time"

	"github.com/tonebridge/reaper-sidecar/internal/metrics"
)

// metricsSink fans the bridge's operational counters out to whichever
// exporters main.go wired up; either field may be nil, in which case that
// exporter is simply skipped. Zero value is a no-op sink, so Network and
// MainLoop work unmetered until SetMetrics is called.
type metricsSink struct {
	cw     *metrics.Client
	sentry *metrics.SentryMetrics
}

func (s metricsSink) recordSessionEvent(event, sessionToken string) {
	if s.cw != nil {
		s.cw.RecordSessionEvent(event)
	}
	if s.sentry != nil {
		s.sentry.RecordSessionEvent(event, sessionToken)
	}
}

func (s metricsSink) recordBusyRejection(remoteAddr string) {
	if s.cw != nil {
		s.cw.RecordBusyRejection()
	}
	if s.sentry != nil {
		s.sentry.RecordBusyRejection(remoteAddr)
	}
}

func (s metricsSink) recordCoalescedDrop(fxGUID string) {
	if s.cw != nil {
		s.cw.RecordCoalescedDrop()
	}
	if s.sentry != nil {
		s.sentry.RecordCoalescedDrop(fxGUID)
	}
}

func (s metricsSink) recordTickDuration(d time.Duration) {
	if s.cw != nil {
		s.cw.RecordTickDuration(d)
	}
	if s.sentry != nil {
		s.sentry.RecordTickDuration(context.Background(), d)
	}
}

func (s metricsSink) recordProbeDuration(kind string, d time.Duration) {
	if s.cw != nil {
		s.cw.RecordProbeDuration(kind, d)
	}
	if s.sentry != nil {
		s.sentry.RecordProbeDuration(context.Background(), kind, d)
	}
}
