package ingest

import (
	"context"
	"log"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/cot"
	"github.com/flightpath-dev/sentrybridge/internal/fanout"
	"github.com/flightpath-dev/sentrybridge/internal/metrics"
	"github.com/flightpath-dev/sentrybridge/internal/model"
	"github.com/flightpath-dev/sentrybridge/internal/normalize"
	"github.com/flightpath-dev/sentrybridge/internal/registry"
)

// SnapshotPublisher receives the live set's contents after every tick, in
// insertion order. Satisfied by *api.Dependencies; declared here (rather
// than importing internal/api) so ingest has no dependency on the HTTP
// surface it happens to feed.
type SnapshotPublisher interface {
	PublishSnapshot(drones []model.DroneRecord)
}

// PollInterval is the bounded wait applied when neither endpoint has a
// message ready, matching dragonsync.py's poller.poll(timeout=1000).
const PollInterval = time.Second

// Loop owns the live set and drives its tick() from the two subscribe
// endpoints. It is single-threaded: Run must be called from exactly one
// goroutine, and every mutation of the registry happens on that goroutine.
type Loop struct {
	telemetry *Endpoint
	status    *Endpoint // nil if no status port was configured

	set       *registry.LiveSet
	messenger *fanout.Messenger
	idPrefix  string // prepended to status's serial_number to form its CoT uid
	publisher SnapshotPublisher // nil disables snapshot publishing

	logger *log.Logger
}

// New builds a Loop. status may be nil when no status port is configured.
// publisher may be nil when the introspection API is disabled.
func New(telemetry, status *Endpoint, set *registry.LiveSet, messenger *fanout.Messenger, sensorIDPrefix string, publisher SnapshotPublisher, logger *log.Logger) *Loop {
	return &Loop{telemetry: telemetry, status: status, set: set, messenger: messenger, idPrefix: sensorIDPrefix, publisher: publisher, logger: logger}
}

// Run drives the loop until ctx is cancelled. On cancellation it returns
// nil after the current iteration completes; it does not close the
// endpoints or the messenger — that is the caller's responsibility, per
// spec.md §5's shutdown-sequence ownership (the loop owns ticking, not
// resource lifetime).
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case raw := <-l.telemetry.Messages():
			l.handleTelemetry(raw)
			if l.status != nil {
				if sraw, ok := drainOne(l.status.Messages()); ok {
					l.handleStatus(sraw)
				}
			}
			l.tick()

		case raw := <-l.statusMessages():
			l.handleStatus(raw)
			if sraw, ok := drainOne(l.telemetry.Messages()); ok {
				l.handleTelemetry(sraw)
			}
			l.tick()

		case <-time.After(PollInterval):
			l.tick()
		}
	}
}

// statusMessages returns the status endpoint's channel, or a nil channel
// (which blocks forever in a select, never firing) when no status
// endpoint is configured.
func (l *Loop) statusMessages() <-chan []byte {
	if l.status == nil {
		return nil
	}
	return l.status.Messages()
}

func (l *Loop) handleTelemetry(raw []byte) {
	obs, ok := normalize.Parse(raw)
	if !ok {
		metrics.ObservationsDropped.Inc()
		l.logger.Printf("ingest: dropping telemetry frame with no recognizable identifier")
		return
	}
	l.set.Upsert(time.Now(), obs)
}

func (l *Loop) handleStatus(raw []byte) {
	status, err := normalize.ParseStatus(raw)
	if err != nil {
		metrics.StatusDropped.Inc()
		l.logger.Printf("ingest: dropping malformed status frame: %v", err)
		return
	}
	if status.IsPositionless() {
		return
	}
	xml := cot.RenderStatus(status, l.idPrefix, time.Now())
	metrics.CoTEmitted.WithLabelValues("status").Inc()
	l.messenger.SendCoT(xml)
}

func (l *Loop) tick() {
	start := time.Now()
	emissions := l.set.Tick(start)
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	metrics.DronesLive.Set(float64(l.set.Len()))

	for _, e := range emissions {
		metrics.CoTEmitted.WithLabelValues(e.Kind).Inc()
		l.messenger.SendCoT(e.XML)
	}

	if l.publisher != nil {
		l.publisher.PublishSnapshot(l.set.Snapshot())
	}
}
