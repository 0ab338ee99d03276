package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealthz responds to GET /healthz. No authentication required, per
// bobbydeveaux-starbucks-mugs's router layout.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus responds to GET /api/v1/status with a process-level
// summary: uptime and the scheduler settings held in the live
// configuration (after a hot reload these can differ from the values the
// registry was built with at startup).
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Config()
	snap := s.deps.Snapshot()

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":    s.deps.Uptime().Seconds(),
		"drones_live":       len(snap.Drones),
		"snapshot_age_secs": time.Since(snap.UpdatedAt).Seconds(),
		"scheduler": map[string]any{
			"rate_limit_secs":         cfg.Scheduler.RateLimit.Seconds(),
			"keepalive_interval_secs": cfg.Scheduler.KeepaliveInterval.Seconds(),
			"max_drones":              cfg.Scheduler.MaxDrones,
			"inactivity_timeout_secs": cfg.Scheduler.InactivityTimeout.Seconds(),
		},
		"debug": cfg.Debug,
	})
}

// handleDrones responds to GET /api/v1/drones with the most recently
// published live-set snapshot.
func (s *Server) handleDrones(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Snapshot()
	writeJSON(w, http.StatusOK, snap.Drones)
}

// handleReload responds to POST /api/v1/reload by queueing a reload
// request for cmd/sentrybridge, which re-reads the config file via
// config.Reload outside the fsnotify watcher's cadence. It answers 202
// without waiting for the reload's outcome. JWT-protected by the router.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.deps.RequestReload()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reload requested"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
