package api_test

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flightpath-dev/sentrybridge/internal/api"
	"github.com/flightpath-dev/sentrybridge/internal/config"
	"github.com/flightpath-dev/sentrybridge/internal/model"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestDeps() *api.Dependencies {
	live := config.NewLive(config.Default())
	deps := api.NewDependencies(live, quietLogger())
	deps.PublishSnapshot([]model.DroneRecord{{}})
	return deps
}

func TestHealthz(t *testing.T) {
	deps := newTestDeps()
	h := api.NewRouter(deps, "", quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestDronesSnapshot(t *testing.T) {
	deps := newTestDeps()
	h := api.NewRouter(deps, "", quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drones", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var drones []model.DroneRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &drones); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(drones) != 1 {
		t.Fatalf("len(drones) = %d, want 1", len(drones))
	}
}

func TestReload_RequiresJWT(t *testing.T) {
	deps := newTestDeps()
	h := api.NewRouter(deps, "test-secret", quietLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without a token", rec.Code)
	}
}

func TestReload_AcceptsValidToken(t *testing.T) {
	deps := newTestDeps()
	h := api.NewRouter(deps, "test-secret", quietLogger())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reload", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case <-deps.ReloadRequests():
	default:
		t.Fatalf("expected a reload request to be queued")
	}
}
