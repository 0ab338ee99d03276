package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/config"
)

func TestDefault_Validates(t *testing.T) {
	if err := config.Default().Validate(); err != nil {
		t.Fatalf("Default() should validate cleanly: %v", err)
	}
}

func TestValidate_RejectsBadTAKProtocol(t *testing.T) {
	cfg := config.Default()
	cfg.TAK.Host = "tak.example.com"
	cfg.TAK.Port = 8089
	cfg.TAK.Protocol = "SCTP"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unrecognized tak.protocol")
	}
}

func TestValidate_TCPRequiresTLSBundle(t *testing.T) {
	cfg := config.Default()
	cfg.TAK.Host = "tak.example.com"
	cfg.TAK.Port = 8089
	cfg.TAK.Protocol = "TCP"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when TCP protocol is missing TLS bundle material")
	}
}

func TestValidate_UDPDoesNotRequireTLSBundle(t *testing.T) {
	cfg := config.Default()
	cfg.TAK.Host = "tak.example.com"
	cfg.TAK.Port = 8089
	cfg.TAK.Protocol = "UDP"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("UDP protocol should not require TLS material: %v", err)
	}
}

func TestValidate_RejectsZeroMaxDrones(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduler.MaxDrones = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive max_drones")
	}
}

func TestValidate_RejectsIncompleteMulticast(t *testing.T) {
	cfg := config.Default()
	cfg.Multicast.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for multicast enabled without address/port")
	}
}

func TestLoad_OverlaysYAMLOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
subscribe:
  host: 10.0.0.5
  telemetry_port: 5000
scheduler:
  max_drones: 64
  rate_limit: 2s
sensor_id_prefix: recon-
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Subscribe.Host != "10.0.0.5" {
		t.Errorf("Subscribe.Host = %q, want 10.0.0.5", cfg.Subscribe.Host)
	}
	if cfg.Subscribe.TelemetryPort != 5000 {
		t.Errorf("Subscribe.TelemetryPort = %d, want 5000", cfg.Subscribe.TelemetryPort)
	}
	if cfg.Scheduler.MaxDrones != 64 {
		t.Errorf("Scheduler.MaxDrones = %d, want 64", cfg.Scheduler.MaxDrones)
	}
	if cfg.Scheduler.RateLimit != 2*time.Second {
		t.Errorf("Scheduler.RateLimit = %v, want 2s", cfg.Scheduler.RateLimit)
	}
	if cfg.SensorIDPrefix != "recon-" {
		t.Errorf("SensorIDPrefix = %q, want recon-", cfg.SensorIDPrefix)
	}
	// Fields left unset in the YAML keep their defaults.
	if cfg.Scheduler.KeepaliveInterval != 10*time.Second {
		t.Errorf("Scheduler.KeepaliveInterval = %v, want default 10s", cfg.Scheduler.KeepaliveInterval)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Subscribe.TelemetryPort != config.Default().Subscribe.TelemetryPort {
		t.Errorf("expected default telemetry port when file is absent")
	}
}

func TestLoad_InvalidYAMLDurationFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "scheduler:\n  rate_limit: not-a-duration\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unparsable duration string")
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("subscribe:\n  host: 10.0.0.5\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("SENTRYBRIDGE_SUBSCRIBE_HOST", "192.168.1.1")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Subscribe.Host != "192.168.1.1" {
		t.Errorf("Subscribe.Host = %q, want env override 192.168.1.1", cfg.Subscribe.Host)
	}
}
