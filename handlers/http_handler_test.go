package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/data"
	"github.com/giygas/antibiotic-advisor/recommend"
	"github.com/giygas/antibiotic-advisor/safety"
	"github.com/giygas/antibiotic-advisor/scenario"
	"github.com/giygas/antibiotic-advisor/validation"
)

// mockHealthChecker implements interfaces.HealthChecker for testing
type mockHealthChecker struct {
	status     string
	httpStatus int
}

func (m *mockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, map[string]any{"source": "built-in"}, m.httpStatus
}

func (m *mockHealthChecker) CalculateNextUpdate() time.Time { return time.Time{} }

func newTestRouter(health *mockHealthChecker) chi.Router {
	if health == nil {
		health = &mockHealthChecker{status: "healthy", httpStatus: http.StatusOK}
	}
	store := data.NewSnapshotContainer()
	store.SetServerStartTime(time.Now().Add(-90 * time.Second))
	h := NewHTTPHandler(store, validation.NewDataValidator(), recommend.NewEngine(recommend.Options{}), health, "europe")

	r := chi.NewRouter()
	r.Post("/v1/recommendations", h.ServeRecommendation)
	r.Get("/v1/scenarios", h.ServeScenarios)
	r.Get("/v1/regions", h.ServeRegions)
	r.Get("/v1/regions/{region}", h.ServeRegion)
	r.Get("/health", h.HealthCheck)
	r.Get("/cds-services", h.CDSDiscovery)
	r.Post("/cds-services/{id}", h.CDSInvoke)
	r.Post("/cds-services/{id}/feedback", h.CDSFeedback)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		payload      any
		expectedJSON string
	}{
		{"object", http.StatusOK, map[string]string{"message": "success"}, `{"message":"success"}`},
		{"empty list", http.StatusOK, []string{}, `[]`},
		{"created", http.StatusCreated, map[string]int{"count": 2}, `{"count":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondWithJSON(rr, tt.code, tt.payload)

			if rr.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Expected JSON content type, got %s", ct)
			}
			if rr.Body.String() != tt.expectedJSON {
				t.Errorf("Expected %s, got %s", tt.expectedJSON, rr.Body.String())
			}
		})
	}
}

func TestRespondWithJSONMarshalFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithJSON(rr, http.StatusOK, map[string]any{"bad": make(chan int)})
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
}

func TestRespondWithError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, http.StatusNotFound, "Region not found")

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["error"] != "Not Found" || body["message"] != "Region not found" || body["code"] != float64(404) {
		t.Errorf("Unexpected error body: %v", body)
	}
}

func TestServeRecommendation(t *testing.T) {
	router := newTestRouter(nil)

	t.Run("valid request", func(t *testing.T) {
		rr := do(t, router, http.MethodPost, "/v1/recommendations", `{
			"age": 30, "gender": "female", "weight": "62", "infectionSites": ["ent"],
			"region": "global", "allergies": {"penicillin": true}
		}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var rec recommend.Recommendation
		if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if rec.ID == "" || rec.Primary.Drug == "" {
			t.Errorf("Expected id and primary, got %+v", rec)
		}
		if rec.Primary.Drug == "Amoxicillin" {
			t.Error("Expected amoxicillin to be replaced for a penicillin allergy")
		}
	})

	t.Run("same input same id", func(t *testing.T) {
		body := `{"age": 55, "infectionSites": ["urinary_tract"]}`
		first := do(t, router, http.MethodPost, "/v1/recommendations", body)
		second := do(t, router, http.MethodPost, "/v1/recommendations", body)
		if first.Body.String() != second.Body.String() {
			t.Error("Expected identical responses for identical input")
		}
	})

	rejected := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"malformed JSON", `{"age": `},
		{"unknown field", `{"age": 40, "bloodType": "A"}`},
		{"trailing data", `{"age": 40} {"age": 41}`},
		{"script in symptoms", `{"symptoms": "<script>alert(1)</script>"}`},
		{"invalid region", `{"region": "../../etc"}`},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, router, http.MethodPost, "/v1/recommendations", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestServeScenarios(t *testing.T) {
	rr := do(t, newTestRouter(nil), http.MethodGet, "/v1/scenarios", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var body struct {
		Scenarios []scenario.Descriptor `json:"scenarios"`
		Count     int                   `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Count == 0 || body.Count != len(body.Scenarios) {
		t.Errorf("Expected matching non-zero count, got %d and %d", body.Count, len(body.Scenarios))
	}
	for i := 1; i < len(body.Scenarios); i++ {
		if body.Scenarios[i-1].Priority < body.Scenarios[i].Priority {
			t.Errorf("Expected scenarios in priority order at %d", i)
		}
	}
}

func TestServeRegions(t *testing.T) {
	rr := do(t, newTestRouter(nil), http.MethodGet, "/v1/regions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var body RegionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Source != "built-in" || body.DefaultRegion != "europe" {
		t.Errorf("Unexpected header fields: %+v", body)
	}
	if body.AsOf != nil {
		t.Error("Expected no date for the built-in snapshot")
	}
	found := false
	for _, region := range body.Regions {
		if region == "north_america" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected north_america in %v", body.Regions)
	}
}

func TestServeRegion(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"known region", "/v1/regions/europe", http.StatusOK},
		{"region with spaces normalized", "/v1/regions/North%20America", http.StatusOK},
		{"global", "/v1/regions/global", http.StatusOK},
		{"unknown region", "/v1/regions/atlantis", http.StatusNotFound},
		{"invalid region", "/v1/regions/eu1", http.StatusBadRequest},
	}

	router := newTestRouter(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, http.MethodGet, tt.path, "")
			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHealthCheckEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		health *mockHealthChecker
	}{
		{"healthy", &mockHealthChecker{status: "healthy", httpStatus: http.StatusOK}},
		{"unhealthy", &mockHealthChecker{status: "unhealthy", httpStatus: http.StatusServiceUnavailable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestRouter(tt.health), http.MethodGet, "/health", "")
			if rr.Code != tt.health.httpStatus {
				t.Errorf("Expected %d, got %d", tt.health.httpStatus, rr.Code)
			}

			var body HealthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}
			if body.Status != tt.health.status {
				t.Errorf("Expected %s, got %s", tt.health.status, body.Status)
			}
			if body.Uptime != "1m 30s" {
				t.Errorf("Expected uptime 1m 30s, got %s", body.Uptime)
			}
			if _, ok := body.System["goroutines"]; !ok {
				t.Error("Expected goroutines in system block")
			}
		})
	}
}

func TestFormatUptimeHuman(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{2*time.Hour + 5*time.Second, "2h 0m 5s"},
		{49*time.Hour + 30*time.Minute, "2d 1h 30m 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := formatUptimeHuman(tt.duration); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestCDSDiscovery(t *testing.T) {
	rr := do(t, newTestRouter(nil), http.MethodGet, "/cds-services", "")

	var body map[string][]CDSService
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	services := body["services"]
	if len(services) != 1 || services[0].ID != CDSServiceID || services[0].Hook != CDSHook {
		t.Errorf("Unexpected discovery response: %+v", services)
	}
}

func TestCDSInvoke(t *testing.T) {
	router := newTestRouter(nil)

	t.Run("penicillin allergic ENT patient", func(t *testing.T) {
		rr := do(t, router, http.MethodPost, "/cds-services/antibiotic-advisor", `{
			"hook": "order-select",
			"hookInstance": "d1577c69-dfbe-44ad-ba6d-3e05e953b2ea",
			"fhirServer": "https://ehr.example.org/fhir",
			"context": {"userId": "Practitioner/1", "patientId": "42",
				"patient": {"age": 30, "region": "global", "infectionSites": ["ent"], "allergies": {"penicillin": true}}},
			"prefetch": {"patient": {"resourceType": "Patient"}}
		}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp CDSHookResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if len(resp.Cards) == 0 {
			t.Fatal("Expected at least one card")
		}
		info := resp.Cards[len(resp.Cards)-1]
		if info.Indicator != "warning" {
			t.Errorf("Expected warning indicator after substitution, got %s", info.Indicator)
		}
		if len(info.Suggestions) == 0 || !info.Suggestions[0].IsRecommended {
			t.Fatalf("Expected recommended first suggestion, got %+v", info.Suggestions)
		}
		if info.Suggestions[0].Label != "Order Doxycycline" {
			t.Errorf("Expected Order Doxycycline, got %s", info.Suggestions[0].Label)
		}
		if info.UUID == "" || info.Source.Label == "" {
			t.Error("Expected card uuid and source")
		}
	})

	rejected := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
	}{
		{"unknown service", "/cds-services/other", `{}`, http.StatusNotFound},
		{"malformed body", "/cds-services/antibiotic-advisor", `{"hook":`, http.StatusBadRequest},
		{"wrong hook", "/cds-services/antibiotic-advisor", `{"hook": "patient-view", "hookInstance": "x", "context": {"patient": {}}}`, http.StatusBadRequest},
		{"missing hook instance", "/cds-services/antibiotic-advisor", `{"hook": "order-select", "context": {"patient": {}}}`, http.StatusBadRequest},
		{"missing patient", "/cds-services/antibiotic-advisor", `{"hook": "order-select", "hookInstance": "x", "context": {}}`, http.StatusBadRequest},
		{"unknown field", "/cds-services/antibiotic-advisor", `{"hook": "order-select", "hookInstance": "x", "context": {"patient": {"weightKg": 70}}}`, http.StatusBadRequest},
		{"trailing data", "/cds-services/antibiotic-advisor", `{"hook": "order-select", "hookInstance": "x", "context": {"patient": {}}} {}`, http.StatusBadRequest},
		{"dangerous patient text", "/cds-services/antibiotic-advisor", `{"hook": "order-select", "hookInstance": "x", "context": {"patient": {"symptoms": "1' or '1'='1"}}}`, http.StatusBadRequest},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, router, http.MethodPost, tc.path, tc.body)
			if rr.Code != tc.expectedStatus {
				t.Errorf("Expected %d, got %d: %s", tc.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestCDSFeedback(t *testing.T) {
	router := newTestRouter(nil)

	rr := do(t, router, http.MethodPost, "/cds-services/antibiotic-advisor/feedback",
		`{"card": "abc", "outcome": "overridden", "overrideReasons": [{"code": "benefit-outweighs-risk"}]}`)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}

	rr = do(t, router, http.MethodPost, "/cds-services/other/feedback", `{}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

func TestCardsForBlockingAlerts(t *testing.T) {
	rec := recommend.Recommendation{
		Scenario: scenario.Descriptor{ID: "test", Description: "Test scenario"},
		Primary: recommend.Therapy{
			Drug: "Clarithromycin", Dosage: "500mg", Frequency: "every 12 hours", RiskLevel: clinical.AlertCritical,
			Alerts: []safety.Alert{
				{Severity: clinical.AlertCritical, Category: safety.CategoryInteraction, Message: "Clarithromycin with simvastatin", Action: "Hold simvastatin", RequiresOverride: true},
				{Severity: clinical.AlertLow, Category: safety.CategoryMonitoring, Message: "Monitor QT", Action: "ECG"},
			},
		},
		Alternatives: []recommend.Therapy{{Drug: "Doxycycline"}},
	}

	cards := Cards(rec)
	if len(cards) != 2 {
		t.Fatalf("Expected one blocking card and one info card, got %d", len(cards))
	}
	if cards[0].Indicator != "critical" || cards[0].Detail != "Hold simvastatin" || len(cards[0].OverrideReasons) == 0 {
		t.Errorf("Unexpected blocking card: %+v", cards[0])
	}
	if cards[1].Indicator != "warning" {
		t.Errorf("Expected warning for a critical-risk primary, got %s", cards[1].Indicator)
	}
	if len(cards[1].Suggestions) != 2 || cards[1].Suggestions[1].IsRecommended {
		t.Errorf("Unexpected suggestions: %+v", cards[1].Suggestions)
	}
	if cards[0].UUID == cards[1].UUID {
		t.Error("Expected distinct card UUIDs")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Expected short, got %s", got)
	}
	if got := truncate(strings.Repeat("é", 20), 10); got != strings.Repeat("é", 7)+"..." {
		t.Errorf("Expected rune-safe truncation, got %s", got)
	}
}

func TestBodyLimit(t *testing.T) {
	router := newTestRouter(nil)
	limited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 16)
		router.ServeHTTP(w, r)
	})

	testCases := []struct {
		name string
		path string
		body string
	}{
		{"recommendation", "/v1/recommendations", `{"symptoms": "fever and productive cough"}`},
		{"cds hook", "/cds-services/antibiotic-advisor", `{"hook": "order-select", "hookInstance": "x", "context": {"patient": {}}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, limited, http.MethodPost, tc.path, tc.body)
			if rr.Code != http.StatusRequestEntityTooLarge {
				t.Errorf("Expected 413, got %d", rr.Code)
			}
		})
	}
}
