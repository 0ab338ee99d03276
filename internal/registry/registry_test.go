package registry_test

import (
	"strings"
	"testing"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/model"
	"github.com/flightpath-dev/sentrybridge/internal/registry"
)

func testConfig() registry.Config {
	cfg := registry.DefaultConfig()
	cfg.MaxDrones = 2
	cfg.RateLimit = time.Second
	cfg.KeepaliveInterval = 10 * time.Second
	cfg.InactivityTimeout = 5 * time.Second
	cfg.PositionThreshold = 2e-5
	cfg.MinConsecutiveForUnique = 2
	return cfg
}

func TestUpsert_CapInvariant(t *testing.T) {
	set := registry.NewLiveSet(testConfig())
	now := time.Unix(0, 0)

	set.Upsert(now, model.DroneObservation{ID: "drone-X", Lat: 1, Lon: 1})
	set.Upsert(now, model.DroneObservation{ID: "drone-Y", Lat: 2, Lon: 2})
	set.Upsert(now, model.DroneObservation{ID: "drone-Z", Lat: 3, Lon: 3})

	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (cap invariant)", set.Len())
	}

	ids := make(map[string]bool)
	for _, r := range set.Snapshot() {
		ids[r.ID] = true
	}
	if ids["drone-X"] {
		t.Errorf("expected drone-X to be evicted")
	}
	if !ids["drone-Y"] || !ids["drone-Z"] {
		t.Errorf("expected drone-Y and drone-Z to remain, got %v", ids)
	}
}

func TestTick_ColdStartHovering(t *testing.T) {
	set := registry.NewLiveSet(testConfig())
	now := time.Unix(1000, 0)

	set.Upsert(now, model.DroneObservation{
		ID: "drone-ABC", Lat: 40.0, Lon: -75.0, AltGeodetic: 100, Speed: 0,
	})

	emissions := set.Tick(now)
	if len(emissions) == 0 {
		t.Fatalf("expected at least one emission on first tick")
	}
	if emissions[0].Kind != "drone" {
		t.Errorf("Kind = %q, want drone", emissions[0].Kind)
	}
	if !strings.Contains(string(emissions[0].XML), `uid="drone-ABC"`) {
		t.Errorf("xml missing expected uid: %s", emissions[0].XML)
	}
}

func TestTick_MovementPromotesToUnique(t *testing.T) {
	set := registry.NewLiveSet(testConfig())
	start := time.Unix(2000, 0)

	set.Upsert(start, model.DroneObservation{ID: "drone-M", Lat: 10.0, Lon: 10.0})
	set.Tick(start) // first emission, static, ConsecutiveMoves still 0

	t1 := start.Add(2 * time.Second)
	set.Upsert(t1, model.DroneObservation{ID: "drone-M", Lat: 10.001, Lon: 10.001})
	first := set.Tick(t1)
	if len(first) == 0 || !strings.Contains(string(first[0].XML), `uid="drone-M"`) {
		t.Fatalf("expected static uid on first movement tick, got %+v", first)
	}

	t2 := t1.Add(2 * time.Second)
	set.Upsert(t2, model.DroneObservation{ID: "drone-M", Lat: 10.002, Lon: 10.002})
	second := set.Tick(t2)
	if len(second) == 0 {
		t.Fatalf("expected emission on second movement tick")
	}
	if strings.Contains(string(second[0].XML), `uid="drone-M"`) {
		t.Errorf("expected fresh timestamped uid after 2 consecutive moves, got %s", second[0].XML)
	}
}

func TestTick_RetirementRemovesAndEmitsFinal(t *testing.T) {
	set := registry.NewLiveSet(testConfig())
	start := time.Unix(3000, 0)

	set.Upsert(start, model.DroneObservation{ID: "drone-D", Lat: 5, Lon: 5})
	set.Tick(start)

	later := start.Add(6 * time.Second) // exceeds InactivityTimeout of 5s
	emissions := set.Tick(later)

	if set.Len() != 0 {
		t.Errorf("expected record to be retired, Len() = %d", set.Len())
	}

	found := false
	for _, e := range emissions {
		if e.Kind == "retirement" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a retirement emission, got %+v", emissions)
	}
}

func TestTick_PositionlessRecordSuppressesEmission(t *testing.T) {
	set := registry.NewLiveSet(testConfig())
	now := time.Unix(5000, 0)

	set.Upsert(now, model.DroneObservation{ID: "drone-NOPOS", Lat: 0, Lon: 0})

	emissions := set.Tick(now)
	if len(emissions) != 0 {
		t.Errorf("expected no emission for a positionless record, got %+v", emissions)
	}
	if set.Len() != 1 {
		t.Errorf("expected positionless record to be kept (not evicted), Len() = %d", set.Len())
	}

	later := now.Add(2 * time.Second)
	set.Upsert(later, model.DroneObservation{ID: "drone-NOPOS", Lat: 40.0, Lon: -75.0})
	emissions = set.Tick(later)
	if len(emissions) == 0 {
		t.Errorf("expected emission once the record gains a real position")
	}
}

func TestTick_CadenceInvariant(t *testing.T) {
	set := registry.NewLiveSet(testConfig())
	start := time.Unix(4000, 0)

	set.Upsert(start, model.DroneObservation{ID: "drone-C", Lat: 1, Lon: 1})
	first := set.Tick(start)
	if len(first) == 0 {
		t.Fatalf("expected emission on first tick")
	}

	tooSoon := start.Add(200 * time.Millisecond)
	again := set.Tick(tooSoon)
	if len(again) != 0 {
		t.Errorf("expected no emission before rate_limit elapses, got %+v", again)
	}
}
