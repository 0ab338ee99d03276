package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML-file shape loaded from disk. It mirrors Config
// but with yaml tags and string-typed durations, matching the teacher's
// drones.go pattern of a dedicated YAML-backed struct rather than tagging
// Config directly.
type fileConfig struct {
	Subscribe struct {
		Host          string `yaml:"host"`
		TelemetryPort int    `yaml:"telemetry_port"`
		StatusPort    int    `yaml:"status_port"`
	} `yaml:"subscribe"`

	TAK struct {
		Host              string `yaml:"host"`
		Port              int    `yaml:"port"`
		Protocol          string `yaml:"protocol"`
		TLSBundlePath     string `yaml:"tls_bundle_path"`
		TLSBundlePassword string `yaml:"tls_bundle_password"`
		TLSSkipVerify     bool   `yaml:"tls_skip_verify"`
	} `yaml:"tak"`

	Multicast struct {
		Enabled   bool   `yaml:"enabled"`
		Address   string `yaml:"address"`
		Port      int    `yaml:"port"`
		Interface string `yaml:"interface"`
		TTL       int    `yaml:"ttl"`
	} `yaml:"multicast"`

	Scheduler struct {
		RateLimit               string  `yaml:"rate_limit"`
		KeepaliveInterval       string  `yaml:"keepalive_interval"`
		MaxDrones               int     `yaml:"max_drones"`
		InactivityTimeout       string  `yaml:"inactivity_timeout"`
		PositionThreshold       float64 `yaml:"position_threshold"`
		MinConsecutiveForUnique int     `yaml:"min_consecutive_for_unique"`
	} `yaml:"scheduler"`

	API struct {
		ListenAddr  string   `yaml:"listen_addr"`
		CORSOrigins []string `yaml:"cors_origins"`
		JWTSecret   string   `yaml:"jwt_secret"`
	} `yaml:"api"`

	Publish struct {
		Enabled    bool   `yaml:"enabled"`
		URL        string `yaml:"url"`
		RetryCount int    `yaml:"retry_count"`
		RetryDelay string `yaml:"retry_delay"`
	} `yaml:"publish"`

	Debug          bool   `yaml:"debug"`
	SensorIDPrefix string `yaml:"sensor_id_prefix"`
}

// applyYAML overlays the parsed YAML file onto cfg, field by field, so
// zero/empty values in the file never clobber Default()'s values.
func applyYAML(cfg *Config, fc fileConfig) error {
	if fc.Subscribe.Host != "" {
		cfg.Subscribe.Host = fc.Subscribe.Host
	}
	if fc.Subscribe.TelemetryPort != 0 {
		cfg.Subscribe.TelemetryPort = fc.Subscribe.TelemetryPort
	}
	if fc.Subscribe.StatusPort != 0 {
		cfg.Subscribe.StatusPort = fc.Subscribe.StatusPort
	}

	if fc.TAK.Host != "" {
		cfg.TAK.Host = fc.TAK.Host
	}
	if fc.TAK.Port != 0 {
		cfg.TAK.Port = fc.TAK.Port
	}
	if fc.TAK.Protocol != "" {
		cfg.TAK.Protocol = strings.ToUpper(fc.TAK.Protocol)
	}
	if fc.TAK.TLSBundlePath != "" {
		cfg.TAK.TLSBundlePath = fc.TAK.TLSBundlePath
	}
	if fc.TAK.TLSBundlePassword != "" {
		cfg.TAK.TLSBundlePassword = fc.TAK.TLSBundlePassword
	}
	cfg.TAK.TLSSkipVerify = fc.TAK.TLSSkipVerify

	cfg.Multicast.Enabled = fc.Multicast.Enabled
	if fc.Multicast.Address != "" {
		cfg.Multicast.Address = fc.Multicast.Address
	}
	if fc.Multicast.Port != 0 {
		cfg.Multicast.Port = fc.Multicast.Port
	}
	if fc.Multicast.Interface != "" {
		cfg.Multicast.Interface = fc.Multicast.Interface
	}
	if fc.Multicast.TTL != 0 {
		cfg.Multicast.TTL = fc.Multicast.TTL
	}

	if fc.Scheduler.RateLimit != "" {
		d, err := time.ParseDuration(fc.Scheduler.RateLimit)
		if err != nil {
			return fmt.Errorf("scheduler.rate_limit: %w", err)
		}
		cfg.Scheduler.RateLimit = d
	}
	if fc.Scheduler.KeepaliveInterval != "" {
		d, err := time.ParseDuration(fc.Scheduler.KeepaliveInterval)
		if err != nil {
			return fmt.Errorf("scheduler.keepalive_interval: %w", err)
		}
		cfg.Scheduler.KeepaliveInterval = d
	}
	if fc.Scheduler.MaxDrones != 0 {
		cfg.Scheduler.MaxDrones = fc.Scheduler.MaxDrones
	}
	if fc.Scheduler.InactivityTimeout != "" {
		d, err := time.ParseDuration(fc.Scheduler.InactivityTimeout)
		if err != nil {
			return fmt.Errorf("scheduler.inactivity_timeout: %w", err)
		}
		cfg.Scheduler.InactivityTimeout = d
	}
	if fc.Scheduler.PositionThreshold != 0 {
		cfg.Scheduler.PositionThreshold = fc.Scheduler.PositionThreshold
	}
	if fc.Scheduler.MinConsecutiveForUnique != 0 {
		cfg.Scheduler.MinConsecutiveForUnique = fc.Scheduler.MinConsecutiveForUnique
	}

	if fc.API.ListenAddr != "" {
		cfg.API.ListenAddr = fc.API.ListenAddr
	}
	if len(fc.API.CORSOrigins) > 0 {
		cfg.API.CORSOrigins = fc.API.CORSOrigins
	}
	if fc.API.JWTSecret != "" {
		cfg.API.JWTSecret = fc.API.JWTSecret
	}

	cfg.Publish.Enabled = fc.Publish.Enabled
	if fc.Publish.URL != "" {
		cfg.Publish.URL = fc.Publish.URL
	}
	if fc.Publish.RetryCount != 0 {
		cfg.Publish.RetryCount = fc.Publish.RetryCount
	}
	if fc.Publish.RetryDelay != "" {
		d, err := time.ParseDuration(fc.Publish.RetryDelay)
		if err != nil {
			return fmt.Errorf("publish.retry_delay: %w", err)
		}
		cfg.Publish.RetryDelay = d
	}

	cfg.Debug = fc.Debug
	if fc.SensorIDPrefix != "" {
		cfg.SensorIDPrefix = fc.SensorIDPrefix
	}

	return nil
}

// loadYAMLFile reads and parses path, returning (zero-value, nil) when the
// file does not exist — the YAML layer is optional.
func loadYAMLFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return fc, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// Load builds a Config from Default(), overlaid by an optional YAML file,
// overlaid by recognized SENTRYBRIDGE_* environment variables — matching
// the teacher's env-over-defaults precedence, extended with a YAML layer
// in between.
func Load(yamlPath string) (*Config, error) {
	cfg := Default()

	fc, err := loadYAMLFile(yamlPath)
	if err != nil {
		return nil, err
	}
	if err := applyYAML(cfg, fc); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SENTRYBRIDGE_SUBSCRIBE_HOST"); v != "" {
		cfg.Subscribe.Host = v
	}
	if v := os.Getenv("SENTRYBRIDGE_TELEMETRY_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Subscribe.TelemetryPort = p
		}
	}
	if v := os.Getenv("SENTRYBRIDGE_STATUS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Subscribe.StatusPort = p
		}
	}
	if v := os.Getenv("SENTRYBRIDGE_TAK_HOST"); v != "" {
		cfg.TAK.Host = v
	}
	if v := os.Getenv("SENTRYBRIDGE_TAK_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.TAK.Port = p
		}
	}
	if v := os.Getenv("SENTRYBRIDGE_TAK_PROTOCOL"); v != "" {
		cfg.TAK.Protocol = strings.ToUpper(v)
	}
	if v := os.Getenv("SENTRYBRIDGE_TLS_BUNDLE_PATH"); v != "" {
		cfg.TAK.TLSBundlePath = v
	}
	if v := os.Getenv("SENTRYBRIDGE_TLS_BUNDLE_PASSWORD"); v != "" {
		cfg.TAK.TLSBundlePassword = v
	}
	if v := os.Getenv("SENTRYBRIDGE_API_LISTEN_ADDR"); v != "" {
		cfg.API.ListenAddr = v
	}
	if v := os.Getenv("SENTRYBRIDGE_API_JWT_SECRET"); v != "" {
		cfg.API.JWTSecret = v
	}
	if v := os.Getenv("SENTRYBRIDGE_DEBUG"); v != "" {
		cfg.Debug = v == "true" || v == "1" || v == "yes"
	}
}
