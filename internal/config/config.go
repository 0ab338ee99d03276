// Package config holds the bridge's configuration surface: defaults,
// validation, env+YAML loading, hot reload, and TLS bundle loading.
//
// Grounded on the teacher's internal/config/{config.go,loader.go} (a
// Default() value overlaid by environment variables, then Validate()'d)
// generalized to spec.md §6's configuration surface; validation rules are
// grounded on original_source/utils.py's validate_config.
package config

import (
	"fmt"
	"time"
)

// Config is the bridge's immutable-once-loaded configuration. Per the
// "global configuration" redesign note in spec.md §9, a *Config is built
// once at startup and passed by reference; only Reload (run by the file
// watcher and by the control API's reload trigger) ever replaces it (via an
// atomic pointer swap, never a field mutation).
type Config struct {
	Subscribe SubscribeConfig
	TAK       TAKConfig
	Multicast MulticastConfig
	Scheduler SchedulerConfig
	API       APIConfig
	Publish   PublishConfig

	Debug          bool
	SensorIDPrefix string
}

// SubscribeConfig is the upstream telemetry/status subscription surface.
type SubscribeConfig struct {
	Host          string
	TelemetryPort int
	StatusPort    int // 0 disables the status stream
}

// TAKConfig is the downstream TAK server's unicast connection surface.
type TAKConfig struct {
	Host     string // empty disables the unicast (TCP/UDP) sink
	Port     int
	Protocol string // "TCP" or "UDP"

	TLSBundlePath     string
	TLSBundlePassword string
	TLSSkipVerify     bool
}

// MulticastConfig is the downstream multicast fan-out surface.
type MulticastConfig struct {
	Enabled   bool
	Address   string
	Port      int
	Interface string
	TTL       int
}

// SchedulerConfig configures C4's emission cadence and retirement.
type SchedulerConfig struct {
	RateLimit               time.Duration
	KeepaliveInterval       time.Duration
	MaxDrones               int
	InactivityTimeout       time.Duration
	PositionThreshold       float64
	MinConsecutiveForUnique int
}

// APIConfig configures C8, the introspection/control HTTP surface.
type APIConfig struct {
	ListenAddr  string
	CORSOrigins []string
	JWTSecret   string // required to use the /api/v1/reload control endpoint
}

// PublishConfig configures C9, the optional structured entity-publish
// sink.
type PublishConfig struct {
	Enabled    bool
	URL        string
	RetryCount int
	RetryDelay time.Duration
}

// Default returns a Config populated with spec.md §6's documented
// defaults.
func Default() *Config {
	return &Config{
		Subscribe: SubscribeConfig{
			Host:          "127.0.0.1",
			TelemetryPort: 4224,
			StatusPort:    4225,
		},
		TAK: TAKConfig{
			Protocol: "TCP",
		},
		Multicast: MulticastConfig{
			TTL: 1,
		},
		Scheduler: SchedulerConfig{
			RateLimit:               time.Second,
			KeepaliveInterval:       10 * time.Second,
			MaxDrones:               30,
			InactivityTimeout:       60 * time.Second,
			PositionThreshold:       2e-5,
			MinConsecutiveForUnique: 2,
		},
		API: APIConfig{
			ListenAddr:  "0.0.0.0:8080",
			CORSOrigins: []string{"*"},
		},
		Publish: PublishConfig{
			RetryCount: 3,
			RetryDelay: time.Second,
		},
		SensorIDPrefix: "wardragon-",
	}
}

// Validate checks the configuration for internal consistency, mirroring
// original_source/utils.py's validate_config.
func (c *Config) Validate() error {
	if c.Subscribe.Host == "" {
		return fmt.Errorf("subscribe.host is required")
	}
	if !validPort(c.Subscribe.TelemetryPort) {
		return fmt.Errorf("subscribe.telemetry_port invalid: %d", c.Subscribe.TelemetryPort)
	}
	if c.Subscribe.StatusPort != 0 && !validPort(c.Subscribe.StatusPort) {
		return fmt.Errorf("subscribe.status_port invalid: %d", c.Subscribe.StatusPort)
	}

	if c.TAK.Host != "" {
		if !validPort(c.TAK.Port) {
			return fmt.Errorf("tak.port invalid: %d", c.TAK.Port)
		}
		switch c.TAK.Protocol {
		case "TCP":
			if c.TAK.TLSBundlePath == "" || c.TAK.TLSBundlePassword == "" {
				return fmt.Errorf("tak.protocol is TCP but tls_bundle_path or tls_bundle_password is missing")
			}
		case "UDP":
			// TLS material is ignored for UDP; nothing to validate.
		default:
			return fmt.Errorf("tak.protocol invalid: %q, must be TCP or UDP", c.TAK.Protocol)
		}
	}

	if c.Multicast.Enabled {
		if c.Multicast.Address == "" || c.Multicast.Port == 0 {
			return fmt.Errorf("multicast is enabled but address or port is missing")
		}
		if !validPort(c.Multicast.Port) {
			return fmt.Errorf("multicast.port invalid: %d", c.Multicast.Port)
		}
	}

	if c.Scheduler.MaxDrones <= 0 {
		return fmt.Errorf("scheduler.max_drones must be positive")
	}
	if c.Scheduler.RateLimit <= 0 || c.Scheduler.KeepaliveInterval <= 0 || c.Scheduler.InactivityTimeout <= 0 {
		return fmt.Errorf("scheduler cadence durations must be positive")
	}

	if c.Publish.Enabled && c.Publish.URL == "" {
		return fmt.Errorf("publish is enabled but url is missing")
	}

	return nil
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}
