package normalize_test

import (
	"testing"

	"github.com/flightpath-dev/sentrybridge/internal/normalize"
)

func TestParse_SingleObjectColdStart(t *testing.T) {
	frame := []byte(`{
		"Basic ID": {"id_type": "Serial Number (ANSI/CTA-2063-A)", "id": "ABC"},
		"Location/Vector Message": {"latitude": 40.0, "longitude": -75.0, "geodetic_altitude": 100, "speed": 0},
		"Self-ID Message": {"text": "test"}
	}`)

	obs, ok := normalize.Parse(frame)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if obs.ID != "drone-ABC" {
		t.Errorf("ID = %q, want %q", obs.ID, "drone-ABC")
	}
	if obs.Lat != 40.0 || obs.Lon != -75.0 {
		t.Errorf("position = (%v,%v)", obs.Lat, obs.Lon)
	}
	if obs.SelfIDText != "test" {
		t.Errorf("SelfIDText = %q", obs.SelfIDText)
	}
}

func TestParse_ArrayOfSubObjects(t *testing.T) {
	frame := []byte(`[
		{"AUX_ADV_IND": {"rssi": -60}},
		{"aext": {"AdvA": "AA:BB:CC:DD:EE:FF (random)"}},
		{"Basic ID": {"id_type": "Serial Number (ANSI/CTA-2063-A)", "id": "XYZ"}},
		{"Location/Vector Message": {"latitude": 1.5, "longitude": 2.5}}
	]`)

	obs, ok := normalize.Parse(frame)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if obs.MAC != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("MAC = %q", obs.MAC)
	}
	if obs.RSSI != -60 {
		t.Errorf("RSSI = %d", obs.RSSI)
	}
	if obs.ID != "drone-XYZ" {
		t.Errorf("ID = %q", obs.ID)
	}
}

func TestParse_PrefixAlreadyPresent(t *testing.T) {
	frame := []byte(`{"Basic ID": {"id_type": "Serial Number (ANSI/CTA-2063-A)", "id": "drone-ABC"}}`)
	obs, ok := normalize.Parse(frame)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if obs.ID != "drone-ABC" {
		t.Errorf("ID = %q, want no double prefix", obs.ID)
	}
}

func TestParse_MissingIdentifierDrops(t *testing.T) {
	frame := []byte(`{"Location/Vector Message": {"latitude": 1, "longitude": 2}}`)
	_, ok := normalize.Parse(frame)
	if ok {
		t.Fatalf("expected ok=false when no identifier present")
	}
}

func TestParse_FirstIdentifierWins(t *testing.T) {
	// Idempotence: repeated Basic ID sub-objects only let the first
	// accepted identifier win.
	frame := []byte(`[
		{"Basic ID": {"id_type": "Serial Number (ANSI/CTA-2063-A)", "id": "FIRST"}},
		{"Basic ID": {"id_type": "Serial Number (ANSI/CTA-2063-A)", "id": "SECOND"}}
	]`)
	obs, ok := normalize.Parse(frame)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if obs.ID != "drone-FIRST" {
		t.Errorf("ID = %q, want first sub-object to win", obs.ID)
	}
}

func TestParse_CAAFallback(t *testing.T) {
	frame := []byte(`{"Basic ID": {"id_type": "CAA Assigned Registration ID", "id": "REG1"}}`)
	obs, ok := normalize.Parse(frame)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if obs.ID != "drone-REG1" {
		t.Errorf("ID = %q", obs.ID)
	}
}

func TestParse_Idempotent(t *testing.T) {
	frame := []byte(`{"Basic ID": {"id_type": "Serial Number (ANSI/CTA-2063-A)", "id": "ABC"}, "Location/Vector Message": {"latitude": 1, "longitude": 2}}`)
	a, okA := normalize.Parse(frame)
	b, okB := normalize.Parse(frame)
	if !okA || !okB {
		t.Fatalf("expected both parses to succeed")
	}
	if a != b {
		t.Errorf("parsing twice produced different observations: %+v vs %+v", a, b)
	}
}

func TestInitialBearing_Cardinal(t *testing.T) {
	// due north
	b := normalize.InitialBearing(0, 0, 1, 0)
	if b < -1e-6 || b > 1 {
		t.Errorf("bearing due north = %v, want ~0", b)
	}
	// due east
	b = normalize.InitialBearing(0, 0, 0, 1)
	if b < 89 || b > 91 {
		t.Errorf("bearing due east = %v, want ~90", b)
	}
}
