package config

import (
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/flightpath-dev/sentrybridge/internal/metrics"
)

// Live holds an atomically-swappable Config, letting readers (the API
// server) observe new values without ever taking a lock. The registry and
// ingest loop do not read it; they keep the Config they were built with.
// Grounded on 99souls-ariadne's runtime.go hot-reload pattern, generalized
// from its in-process config struct to this module's Config.
type Live struct {
	ptr atomic.Pointer[Config]
}

// NewLive wraps an initial Config for atomic access.
func NewLive(cfg *Config) *Live {
	l := &Live{}
	l.ptr.Store(cfg)
	return l
}

// Get returns the current Config. Safe for concurrent use.
func (l *Live) Get() *Config {
	return l.ptr.Load()
}

// safeReload copies only the fields that are safe to change without a
// process restart — the scheduler block, the debug flag, the sensor ID
// prefix, and the publish block — from next onto
// a copy of the current Config, leaving connection-affecting fields
// (subscribe/TAK/multicast endpoints, TLS material, API listener) exactly
// as they were at startup. Per SPEC_FULL.md §4.6, those fields require a
// restart to take effect.
func safeReload(current, next *Config) *Config {
	merged := *current
	merged.Scheduler = next.Scheduler
	merged.Debug = next.Debug
	merged.SensorIDPrefix = next.SensorIDPrefix
	merged.Publish = next.Publish
	return &merged
}

// Reload re-reads path and, on success, applies the safe subset of its
// values to live. It never restarts connections and never returns a fatal
// error to the caller — a bad edit is logged and the previous Config keeps
// serving, matching the teacher's "fatal only at startup" validation
// policy. Used by both the fsnotify watcher below and the control API's
// manual reload trigger.
func Reload(live *Live, path string, logger *log.Logger) error {
	next, err := Load(path)
	if err != nil {
		metrics.ConfigReloads.WithLabelValues("rejected").Inc()
		logger.Printf("config: reload of %s failed, keeping previous config: %v", path, err)
		return err
	}
	merged := safeReload(live.Get(), next)
	live.ptr.Store(merged)
	metrics.ConfigReloads.WithLabelValues("applied").Inc()
	logger.Printf("config: reloaded %s (rate_limit=%s keepalive=%s max_drones=%d inactivity_timeout=%s)",
		path, merged.Scheduler.RateLimit, merged.Scheduler.KeepaliveInterval,
		merged.Scheduler.MaxDrones, merged.Scheduler.InactivityTimeout)
	return nil
}

// Watch starts a goroutine that watches path for writes and, on each one,
// calls Reload. The returned stop function closes the watcher and should
// be called during shutdown.
func Watch(live *Live, path string, logger *log.Logger) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var lastReload time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				// Debounce: editors often emit several events per save.
				if time.Since(lastReload) < 200*time.Millisecond {
					continue
				}
				lastReload = time.Now()

				_ = Reload(live, path, logger)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Printf("config: watcher error: %v", werr)
			}
		}
	}()

	stop = func() {
		watcher.Close()
		<-done
	}
	return stop, nil
}
