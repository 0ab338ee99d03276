// Package api implements C8: the introspection/control HTTP surface.
//
// Grounded on the teacher's internal/server/{server.go,dependencies.go}
// (h2c-wrapped http.ServeMux, a Dependencies holder, middleware chain
// construction) and bobbydeveaux-starbucks-mugs/internal/server/rest
// (chi router layout, JWT middleware, health/list/query handler shape).
package api

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/config"
	"github.com/flightpath-dev/sentrybridge/internal/model"
)

// Snapshot is what the registry publishes after every tick for the API
// (and nothing else) to read. Per spec.md §5, the API server must never
// lock the live set; it only ever sees a point-in-time copy.
type Snapshot struct {
	Drones    []model.DroneRecord
	UpdatedAt time.Time
}

// Dependencies holds everything the HTTP handlers need, mirroring the
// teacher's Dependencies holder but swapped to the bridge's domain:
// an atomically-published registry snapshot and live config instead of a
// MAVLink client and static drone registry.
type Dependencies struct {
	live      *config.Live
	snapshot  atomic.Pointer[Snapshot]
	reloadCh  chan struct{}
	startedAt time.Time
	logger    *log.Logger
}

// NewDependencies builds a Dependencies holder. reloadCh is written to
// (non-blocking) when the POST /api/v1/reload handler fires; the caller
// (cmd/sentrybridge) is expected to select on it and re-run config.Load.
func NewDependencies(live *config.Live, logger *log.Logger) *Dependencies {
	d := &Dependencies{
		live:      live,
		reloadCh:  make(chan struct{}, 1),
		startedAt: time.Now(),
		logger:    logger,
	}
	d.snapshot.Store(&Snapshot{})
	return d
}

// PublishSnapshot is called by the ingest loop after each tick. It is the
// only write path into the API's view of the live set.
func (d *Dependencies) PublishSnapshot(drones []model.DroneRecord) {
	d.snapshot.Store(&Snapshot{Drones: drones, UpdatedAt: time.Now()})
}

// Snapshot returns the most recently published snapshot. Safe for
// concurrent use; never blocks on the ingest loop.
func (d *Dependencies) Snapshot() *Snapshot {
	return d.snapshot.Load()
}

// Config returns the currently live configuration.
func (d *Dependencies) Config() *config.Config {
	return d.live.Get()
}

// RequestReload signals that a reload was requested via the control API.
// Non-blocking: a reload already pending is not queued twice.
func (d *Dependencies) RequestReload() {
	select {
	case d.reloadCh <- struct{}{}:
	default:
	}
}

// ReloadRequests exposes the reload-request channel for cmd/sentrybridge
// to select on.
func (d *Dependencies) ReloadRequests() <-chan struct{} {
	return d.reloadCh
}

// Uptime reports how long the process has been running.
func (d *Dependencies) Uptime() time.Duration {
	return time.Since(d.startedAt)
}
