package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/flightpath-dev/sentrybridge/internal/api"
	"github.com/flightpath-dev/sentrybridge/internal/config"
	"github.com/flightpath-dev/sentrybridge/internal/fanout"
	"github.com/flightpath-dev/sentrybridge/internal/ingest"
	"github.com/flightpath-dev/sentrybridge/internal/registry"
	"github.com/flightpath-dev/sentrybridge/internal/transport"
)

func main() {
	cmd := &cli.Command{
		Name:  "sentrybridge",
		Usage: "Bridge drone Remote-ID and host-health telemetry to TAK as Cursor-on-Target",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				Sources: cli.EnvVars("SENTRYBRIDGE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "set the configuration's debug flag (reported by /api/v1/status; log output is unchanged)",
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	logger := log.New(os.Stderr, "[sentrybridge] ", log.LstdFlags)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}

	live := config.NewLive(cfg)

	if configPath := c.String("config"); configPath != "" {
		stopWatch, err := config.Watch(live, configPath, logger)
		if err != nil {
			logger.Printf("config: hot reload disabled, could not watch %s: %v", configPath, err)
		} else {
			defer stopWatch()
		}
	}

	set := registry.NewLiveSet(registry.Config{
		MaxDrones:               cfg.Scheduler.MaxDrones,
		RateLimit:               cfg.Scheduler.RateLimit,
		KeepaliveInterval:       cfg.Scheduler.KeepaliveInterval,
		InactivityTimeout:       cfg.Scheduler.InactivityTimeout,
		PositionThreshold:       cfg.Scheduler.PositionThreshold,
		MinConsecutiveForUnique: cfg.Scheduler.MinConsecutiveForUnique,
	})

	unicast, unicastKind, err := buildUnicastSink(cfg, logger)
	if err != nil {
		logger.Fatalf("TAK sink configuration error: %v", err)
	}

	var multicastSink transport.Sink
	if cfg.Multicast.Enabled {
		mc, err := transport.NewMulticastSink(transport.MulticastConfig{
			Address:   cfg.Multicast.Address,
			Port:      cfg.Multicast.Port,
			Interface: cfg.Multicast.Interface,
			TTL:       cfg.Multicast.TTL,
		})
		if err != nil {
			logger.Fatalf("multicast sink configuration error: %v", err)
		}
		multicastSink = mc
	}

	messenger := fanout.New(fanout.DefaultConfig(), unicast, unicastKind, multicastSink, logger)
	defer messenger.Close()

	telemetryAddr := net.JoinHostPort(cfg.Subscribe.Host, strconv.Itoa(cfg.Subscribe.TelemetryPort))
	telemetry, err := ingest.NewEndpoint(ctx, "telemetry", telemetryAddr, logger)
	if err != nil {
		logger.Fatalf("failed to connect to telemetry endpoint %s: %v", telemetryAddr, err)
	}
	defer telemetry.Close()

	var status *ingest.Endpoint
	if cfg.Subscribe.StatusPort != 0 {
		statusAddr := net.JoinHostPort(cfg.Subscribe.Host, strconv.Itoa(cfg.Subscribe.StatusPort))
		status, err = ingest.NewEndpoint(ctx, "status", statusAddr, logger)
		if err != nil {
			logger.Fatalf("failed to connect to status endpoint %s: %v", statusAddr, err)
		}
		defer status.Close()
	}

	deps := api.NewDependencies(live, logger)
	apiSrv := api.NewHTTPServer(cfg.API.ListenAddr, deps, cfg.API.JWTSecret, logger)
	go func() {
		if err := apiSrv.Start(); err != nil {
			logger.Printf("api: server error: %v", err)
		}
	}()

	loop := ingest.New(telemetry, status, set, messenger, cfg.SensorIDPrefix, deps, logger)

	configPath := c.String("config")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-deps.ReloadRequests():
				logger.Printf("config: manual reload requested via control API")
				if configPath == "" {
					logger.Printf("config: no config file given at startup, nothing to reload")
					continue
				}
				_ = config.Reload(live, configPath, logger)
			}
		}
	}()

	logger.Printf("sentrybridge: subscribing to telemetry=%s status_enabled=%t", telemetryAddr, status != nil)
	err = loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := apiSrv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Printf("api: shutdown error: %v", shutdownErr)
	}

	logger.Printf("sentrybridge: shut down cleanly")
	return err
}

// buildUnicastSink constructs the TAK unicast sink (TCP/TLS or UDP)
// according to cfg.TAK, or returns (nil, "") if no TAK host is configured.
func buildUnicastSink(cfg *config.Config, logger *log.Logger) (transport.Sink, string, error) {
	if cfg.TAK.Host == "" {
		return nil, "", nil
	}

	switch cfg.TAK.Protocol {
	case "UDP":
		sink, err := transport.NewUDPSink(cfg.TAK.Host, cfg.TAK.Port)
		if err != nil {
			return nil, "", err
		}
		return sink, "udp", nil

	default: // "TCP", validated by Config.Validate
		tcpCfg := transport.DefaultTCPTLSConfig(cfg.TAK.Host, cfg.TAK.Port)
		tlsConfig, err := config.LoadTLSBundle(cfg.TAK.TLSBundlePath, cfg.TAK.TLSBundlePassword, cfg.TAK.TLSSkipVerify)
		if err != nil {
			return nil, "", err
		}
		tcpCfg.TLSConfig = tlsConfig
		return transport.NewTCPTLSSink(tcpCfg, logger), "tcp", nil
	}
}
