// Package registry implements C4: the bounded live-drone set, movement
// classification, emission cadence, and retirement.
//
// Grounded on original_source/manager.py's DroneManager (bounded
// deque+dict with silent capacity eviction and a rate-limited send loop),
// elaborated with the movement-classification and keep-alive logic
// spec.md directs implementers to add.
package registry

import (
	"container/list"
	"math"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/cot"
	"github.com/flightpath-dev/sentrybridge/internal/model"
	"github.com/flightpath-dev/sentrybridge/internal/normalize"
)

// Config bundles the scheduler's tunables. Zero values are invalid; use
// DefaultConfig as a base.
type Config struct {
	MaxDrones               int
	RateLimit                time.Duration
	KeepaliveInterval        time.Duration
	InactivityTimeout        time.Duration
	PositionThreshold        float64
	MinConsecutiveForUnique  int
}

// DefaultConfig matches the configuration surface defaults in spec.md §6.
func DefaultConfig() Config {
	return Config{
		MaxDrones:               30,
		RateLimit:               time.Second,
		KeepaliveInterval:       10 * time.Second,
		InactivityTimeout:       60 * time.Second,
		PositionThreshold:       2e-5,
		MinConsecutiveForUnique: 2,
	}
}

// LiveSet is the single-owner, insertion-ordered, capped registry of
// DroneRecords. It is not safe for concurrent use; the event loop is its
// sole owner, per spec.md §5's single-writer rule.
type LiveSet struct {
	cfg Config

	order *list.List               // of string identifiers, oldest first
	elems map[string]*list.Element // identifier -> position in order
	recs  map[string]*model.DroneRecord
}

// NewLiveSet creates an empty registry governed by cfg.
func NewLiveSet(cfg Config) *LiveSet {
	return &LiveSet{
		cfg:   cfg,
		order: list.New(),
		elems: make(map[string]*list.Element),
		recs:  make(map[string]*model.DroneRecord),
	}
}

// Len returns the current number of live records.
func (s *LiveSet) Len() int { return len(s.recs) }

// Snapshot returns a defensive copy of every live record, in insertion
// order, for the introspection API.
func (s *LiveSet) Snapshot() []model.DroneRecord {
	out := make([]model.DroneRecord, 0, s.order.Len())
	for e := s.order.Front(); e != nil; e = e.Next() {
		id := e.Value.(string)
		out = append(out, *s.recs[id])
	}
	return out
}

// Upsert implements spec.md §4.4's upsert(observation). now is supplied by
// the caller (the event loop) rather than read internally, so tests can
// drive the clock.
func (s *LiveSet) Upsert(now time.Time, obs model.DroneObservation) {
	if rec, exists := s.recs[obs.ID]; exists {
		if obs.Heading == 0 && (rec.Lat != 0 || rec.Lon != 0) && (obs.Lat != 0 || obs.Lon != 0) {
			obs.Heading = normalize.InitialBearing(rec.Lat, rec.Lon, obs.Lat, obs.Lon)
		}
		rec.Merge(obs)
		rec.LastUpdate = now
		return
	}

	if len(s.recs) >= s.cfg.MaxDrones {
		s.evictOldest()
	}

	rec := &model.DroneRecord{
		DroneObservation: obs,
		CreatedAt:        now,
		LastUpdate:       now,
		// LastEmitLat/Lon seed from the initial position (matching
		// original_source/drone.py's Drone.__init__, which sets
		// last_sent_lat/lon = lat/lon) so the first tick's movement
		// classification does not see a spurious displacement.
		LastEmitLat: obs.Lat,
		LastEmitLon: obs.Lon,
		// LastEmit is the zero time, so the first tick's due-window checks
		// treat this record as immediately due.
	}
	elem := s.order.PushBack(obs.ID)
	s.elems[obs.ID] = elem
	s.recs[obs.ID] = rec
}

// evictOldest silently drops the least-recently-inserted record. No
// retirement event is emitted, per the cap-invariant's eviction rule.
func (s *LiveSet) evictOldest() {
	front := s.order.Front()
	if front == nil {
		return
	}
	id := front.Value.(string)
	s.order.Remove(front)
	delete(s.elems, id)
	delete(s.recs, id)
}

// Emission is one rendered CoT document plus a label identifying its kind,
// for metrics and logging.
type Emission = cot.Event

// Tick implements spec.md §4.4's tick(): retirement, movement
// classification, and due-window emission for every live record. It
// returns, in LiveSet insertion order, every CoT document that should be
// sent this tick.
func (s *LiveSet) Tick(now time.Time) []Emission {
	var out []Emission

	// Walk a snapshot of the order so retirement (which mutates s.order)
	// does not disturb the iteration.
	ids := make([]string, 0, s.order.Len())
	for e := s.order.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(string))
	}

	for _, id := range ids {
		rec, ok := s.recs[id]
		if !ok {
			continue
		}

		if now.Sub(rec.LastUpdate) > s.cfg.InactivityTimeout {
			out = append(out, Emission{Kind: "retirement", XML: cot.RenderDrone(cot.DroneInput{
				Record:      *rec,
				Now:         now,
				StaleOffset: 0,
				Unique:      false,
			})})
			s.removeRecord(id)
			continue
		}

		if rec.IsPositionless() {
			continue
		}

		positionChange := math.Hypot(rec.Lat-rec.LastEmitLat, rec.Lon-rec.LastEmitLon)
		if positionChange >= s.cfg.PositionThreshold {
			rec.ConsecutiveMoves++
		} else {
			rec.ConsecutiveMoves = 0
		}

		fullDue := now.Sub(rec.LastEmit) >= s.cfg.RateLimit
		keepAliveDue := now.Sub(rec.LastEmit) >= s.cfg.KeepaliveInterval

		if !fullDue && !keepAliveDue {
			continue
		}

		unique := rec.ConsecutiveMoves >= s.cfg.MinConsecutiveForUnique
		staleOffset := s.cfg.InactivityTimeout - now.Sub(rec.LastUpdate)
		if staleOffset < 0 {
			staleOffset = 0
		}

		out = append(out, cot.RenderDroneEvents(cot.DroneInput{
			Record:      *rec,
			Now:         now,
			StaleOffset: staleOffset,
			Unique:      unique,
		})...)

		if unique {
			rec.ConsecutiveMoves = 0
		}
		rec.LastEmitLat, rec.LastEmitLon = rec.Lat, rec.Lon
		rec.LastEmit = now
	}

	return out
}

func (s *LiveSet) removeRecord(id string) {
	if elem, ok := s.elems[id]; ok {
		s.order.Remove(elem)
		delete(s.elems, id)
	}
	delete(s.recs, id)
}
