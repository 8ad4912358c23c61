package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/antibiotic-advisor/config"
	"github.com/giygas/antibiotic-advisor/data"
	"github.com/giygas/antibiotic-advisor/handlers"
	"github.com/giygas/antibiotic-advisor/health"
	"github.com/giygas/antibiotic-advisor/recommend"
	"github.com/giygas/antibiotic-advisor/validation"
)

func testConfig(env config.Environment) *config.Config {
	return &config.Config{
		Port:                 "8080",
		Address:              "127.0.0.1",
		Env:                  env,
		LogLevel:             "info",
		MaxRequestBody:       1048576,
		MaxHeaderSize:        1048576,
		SurveillanceSchedule: "06:00;18:00",
		DefaultRegion:        "global",
		RateLimitRate:        3,
		RateLimitCapacity:    1000,
	}
}

func newTestServer(env config.Environment) *Server {
	store := data.NewSnapshotContainer()
	store.SetServerStartTime(time.Now())
	cfg := testConfig(env)
	handler := handlers.NewHTTPHandler(
		store,
		validation.NewDataValidator(),
		recommend.NewEngine(recommend.Options{}),
		health.NewHealthChecker(store, cfg.SurveillanceSchedule, false),
		cfg.DefaultRegion,
	)
	return NewServer(cfg, handler)
}

func TestNewServer(t *testing.T) {
	s := newTestServer(config.EnvTest)

	if s.server.Addr != "127.0.0.1:8080" {
		t.Errorf("Expected address 127.0.0.1:8080, got %s", s.server.Addr)
	}
	if s.server.ReadTimeout != 15*time.Second || s.server.WriteTimeout != 15*time.Second {
		t.Errorf("Unexpected timeouts: %v / %v", s.server.ReadTimeout, s.server.WriteTimeout)
	}
	if s.server.MaxHeaderBytes != 1048576 {
		t.Errorf("Expected MaxHeaderBytes 1048576, got %d", s.server.MaxHeaderBytes)
	}
	if s.rateLimiter == nil {
		t.Error("Expected a rate limiter")
	}
}

func TestSetupRoutes(t *testing.T) {
	router := newTestServer(config.EnvTest).Router()

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"recommendation", http.MethodPost, "/v1/recommendations", `{"age": 40, "infectionSites": ["respiratory"]}`, http.StatusOK},
		{"scenarios", http.MethodGet, "/v1/scenarios", "", http.StatusOK},
		{"regions", http.MethodGet, "/v1/regions", "", http.StatusOK},
		{"region", http.MethodGet, "/v1/regions/oceania", "", http.StatusOK},
		{"unknown region", http.MethodGet, "/v1/regions/atlantis", "", http.StatusNotFound},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"cds discovery", http.MethodGet, "/cds-services", "", http.StatusOK},
		{"cds invoke", http.MethodPost, "/cds-services/antibiotic-advisor",
			`{"hook": "order-select", "hookInstance": "1", "context": {"patient": {"age": 40}}}`, http.StatusOK},
		{"wrong method", http.MethodGet, "/v1/recommendations", "", http.StatusMethodNotAllowed},
		{"not found", http.MethodGet, "/v1/nothing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.RemoteAddr = "127.0.0.1:4000"
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestSetupMiddleware(t *testing.T) {
	t.Run("rate limit headers and request id", func(t *testing.T) {
		router := newTestServer(config.EnvTest).Router()
		req := httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Header().Get("X-RateLimit-Limit") != "1000" {
			t.Errorf("Expected rate limit header, got %q", rr.Header().Get("X-RateLimit-Limit"))
		}
		if rr.Header().Get("X-RateLimit-Remaining") != "990" {
			t.Errorf("Expected 990 remaining, got %q", rr.Header().Get("X-RateLimit-Remaining"))
		}
	})

	t.Run("production blocks direct access", func(t *testing.T) {
		router := newTestServer(config.EnvProduction).Router()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "198.51.100.4:5000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rr.Code)
		}
	})

	t.Run("other environments allow direct access", func(t *testing.T) {
		router := newTestServer(config.EnvStaging).Router()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "198.51.100.4:5000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rr.Code)
		}
	})

	t.Run("trailing slash redirects", func(t *testing.T) {
		router := newTestServer(config.EnvTest).Router()
		req := httptest.NewRequest(http.MethodGet, "/v1/scenarios/", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusMovedPermanently {
			t.Errorf("Expected 301, got %d", rr.Code)
		}
	})
}

func TestServerLifecycle(t *testing.T) {
	s := newTestServer(config.EnvTest)
	s.server.Addr = "127.0.0.1:0"

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			t.Errorf("Expected ErrServerClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not stop")
	}
}
