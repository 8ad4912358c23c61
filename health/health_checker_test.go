package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/giygas/antibiotic-advisor/interfaces"
	"github.com/giygas/antibiotic-advisor/resistance"
)

// MockHealthStore for testing
type MockHealthStore struct {
	snapshot    resistance.Snapshot
	report      *interfaces.SnapshotQualityReport
	lastUpdated time.Time
	isUpdating  bool
	startTime   time.Time
}

func (m *MockHealthStore) Snapshot() resistance.Snapshot { return m.snapshot }

func (m *MockHealthStore) Report() *interfaces.SnapshotQualityReport {
	if m.report == nil {
		return &interfaces.SnapshotQualityReport{}
	}
	return m.report
}

func (m *MockHealthStore) GetLastUpdated() time.Time     { return m.lastUpdated }
func (m *MockHealthStore) IsUpdating() bool              { return m.isUpdating }
func (m *MockHealthStore) GetServerStartTime() time.Time { return m.startTime }
func (m *MockHealthStore) BeginUpdate() bool             { return true }
func (m *MockHealthStore) EndUpdate()                    {}

func (m *MockHealthStore) UpdateSnapshot(resistance.Snapshot, *interfaces.SnapshotQualityReport) {
	// Not used in health tests
}

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newChecker(store *MockHealthStore, sourceConfigured bool) *HealthCheckerImpl {
	h := NewHealthChecker(store, "06:00;18:00", sourceConfigured).(*HealthCheckerImpl)
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestHealthCheck(t *testing.T) {
	loaded := resistance.DefaultSnapshot()
	loaded.Source = "who-glass"
	loaded.AsOf = fixedNow.Add(-30 * 24 * time.Hour)

	testCases := []struct {
		name             string
		store            *MockHealthStore
		sourceConfigured bool
		expectedStatus   string
		expectedHTTP     int
	}{
		{
			name:           "built-in data without source",
			store:          &MockHealthStore{snapshot: resistance.DefaultSnapshot()},
			expectedStatus: "healthy",
			expectedHTTP:   http.StatusOK,
		},
		{
			name:             "fresh loaded data",
			store:            &MockHealthStore{snapshot: loaded, lastUpdated: fixedNow.Add(-2 * time.Hour)},
			sourceConfigured: true,
			expectedStatus:   "healthy",
			expectedHTTP:     http.StatusOK,
		},
		{
			name:             "source never loaded",
			store:            &MockHealthStore{snapshot: resistance.DefaultSnapshot()},
			sourceConfigured: true,
			expectedStatus:   "degraded",
			expectedHTTP:     http.StatusOK,
		},
		{
			name:             "refresh overdue",
			store:            &MockHealthStore{snapshot: loaded, lastUpdated: fixedNow.Add(-50 * time.Hour)},
			sourceConfigured: true,
			expectedStatus:   "degraded",
			expectedHTTP:     http.StatusOK,
		},
		{
			name:             "long running update",
			store:            &MockHealthStore{snapshot: loaded, lastUpdated: fixedNow.Add(-7 * time.Hour), isUpdating: true},
			sourceConfigured: true,
			expectedStatus:   "degraded",
			expectedHTTP:     http.StatusOK,
		},
		{
			name: "surveillance data older than a year",
			store: &MockHealthStore{
				snapshot:    loaded,
				lastUpdated: fixedNow.Add(-time.Hour),
				report:      &interfaces.SnapshotQualityReport{StaleDays: 400},
			},
			sourceConfigured: true,
			expectedStatus:   "degraded",
			expectedHTTP:     http.StatusOK,
		},
		{
			name:           "empty snapshot",
			store:          &MockHealthStore{snapshot: resistance.Snapshot{}},
			expectedStatus: "unhealthy",
			expectedHTTP:   http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, data, httpStatus := newChecker(tc.store, tc.sourceConfigured).HealthCheck()
			if status != tc.expectedStatus {
				t.Errorf("Expected status %s, got %s", tc.expectedStatus, status)
			}
			if httpStatus != tc.expectedHTTP {
				t.Errorf("Expected HTTP %d, got %d", tc.expectedHTTP, httpStatus)
			}
			if data["source"] != tc.store.snapshot.Source {
				t.Errorf("Expected source %q, got %v", tc.store.snapshot.Source, data["source"])
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	loaded := resistance.DefaultSnapshot()
	loaded.Source = "who-glass"
	loaded.AsOf = fixedNow.Add(-24 * time.Hour)
	store := &MockHealthStore{
		snapshot:    loaded,
		lastUpdated: fixedNow.Add(-3 * time.Hour),
		startTime:   fixedNow.Add(-time.Minute),
	}

	_, data, _ := newChecker(store, true).HealthCheck()

	expectedKeys := []string{"source", "regions", "data_age_hours", "is_updating", "as_of", "last_update", "uptime_seconds", "next_update"}
	for _, key := range expectedKeys {
		if _, ok := data[key]; !ok {
			t.Errorf("Expected key %s in health data", key)
		}
	}
	if data["data_age_hours"] != 3.0 {
		t.Errorf("Expected data age 3.0, got %v", data["data_age_hours"])
	}
	if data["next_update"] != "2026-05-04T18:00:00Z" {
		t.Errorf("Expected next update at 18:00, got %v", data["next_update"])
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	h := newChecker(&MockHealthStore{snapshot: resistance.DefaultSnapshot()}, false)
	expected := time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)
	if got := h.CalculateNextUpdate(); !got.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
