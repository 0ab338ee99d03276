// Package publish implements C9: the optional structured entity-publishing
// sink. It conforms only to a minimal publish(entity) error contract, per
// spec.md's instruction to build this independently of the CoT-specific
// wire format — the target schema belongs to an external, unspecified
// consumer, so no library in the pack can be grounded against its exact
// shape (see DESIGN.md).
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/model"
)

// Entity is the minimal structured representation sent to the publish
// endpoint: a canonical observation plus the wall-clock time it was
// produced. This mirrors DroneObservation's field set rather than
// reinventing one, since it is the same normalized data CoT rendering
// consumes.
type Entity struct {
	Observation model.DroneObservation `json:"observation"`
	ObservedAt  time.Time              `json:"observed_at"`
}

// Config controls the publish sink's endpoint and retry budget, shaped
// like fanout.Config so the two sinks read the same way in configuration.
type Config struct {
	URL        string
	RetryCount int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// DefaultConfig matches fanout.DefaultConfig's retry shape.
func DefaultConfig() Config {
	return Config{RetryCount: 3, RetryDelay: time.Second, Timeout: 5 * time.Second}
}

// Sink posts entities to an HTTP endpoint as a JSON body.
type Sink struct {
	cfg    Config
	client *http.Client
}

// New builds a Sink. cfg.URL must be non-empty; callers should not
// construct a Sink when publishing is disabled.
func New(cfg Config) *Sink {
	return &Sink{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Publish posts entity to the configured endpoint, retrying up to
// RetryCount times with RetryDelay between attempts. Unlike fanout's
// best-effort CoT sinks, Publish returns the final error to its caller —
// the publish contract is a plain Go function signature, not a fire-and-
// forget fan-out path.
func (s *Sink) Publish(ctx context.Context, entity Entity) error {
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("publish: marshal entity: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.RetryCount; attempt++ {
		if err := s.post(ctx, body); err != nil {
			lastErr = err
			if attempt < s.cfg.RetryCount {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.cfg.RetryDelay):
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("publish: exceeded %d retries: %w", s.cfg.RetryCount, lastErr)
}

func (s *Sink) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("publish: endpoint returned %s", resp.Status)
	}
	return nil
}
