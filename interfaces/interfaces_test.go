package interfaces

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/recommend"
	"github.com/giygas/antibiotic-advisor/resistance"
)

// MockSnapshotStore implements SnapshotStore for testing
type MockSnapshotStore struct {
	snapshot    resistance.Snapshot
	report      *SnapshotQualityReport
	lastUpdated time.Time
	updating    bool
}

func (m *MockSnapshotStore) Snapshot() resistance.Snapshot  { return m.snapshot }
func (m *MockSnapshotStore) Report() *SnapshotQualityReport { return m.report }
func (m *MockSnapshotStore) GetLastUpdated() time.Time      { return m.lastUpdated }
func (m *MockSnapshotStore) IsUpdating() bool               { return m.updating }
func (m *MockSnapshotStore) GetServerStartTime() time.Time  { return time.Time{} }
func (m *MockSnapshotStore) EndUpdate()                     { m.updating = false }
func (m *MockSnapshotStore) BeginUpdate() bool {
	if m.updating {
		return false
	}
	m.updating = true
	return true
}
func (m *MockSnapshotStore) UpdateSnapshot(s resistance.Snapshot, r *SnapshotQualityReport) {
	m.snapshot = s
	m.report = r
	m.lastUpdated = time.Now()
}

// MockSource implements SurveillanceSource for testing
type MockSource struct {
	snapshot resistance.Snapshot
	err      error
}

func (m *MockSource) Load(context.Context) (resistance.Snapshot, error) { return m.snapshot, m.err }
func (m *MockSource) Name() string                                      { return "mock" }

var (
	_ SnapshotStore      = (*MockSnapshotStore)(nil)
	_ SurveillanceSource = (*MockSource)(nil)
	_ Recommender        = (*recommend.Engine)(nil)
)

func TestSnapshotQualityReportHasIssues(t *testing.T) {
	testCases := []struct {
		name     string
		report   SnapshotQualityReport
		expected bool
	}{
		{"clean", SnapshotQualityReport{Regions: 3, StaleDays: 2}, false},
		{"out of range", SnapshotQualityReport{OutOfRange: []string{"europe.mrsa"}}, true},
		{"empty region", SnapshotQualityReport{EmptyRegions: []string{"oceania"}}, true},
		{"missing date", SnapshotQualityReport{MissingAsOf: true}, true},
		{"unknown region", SnapshotQualityReport{UnknownRegions: []string{"atlantis"}}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.report.HasIssues(); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestMockStoreRefreshFlow(t *testing.T) {
	var store SnapshotStore = &MockSnapshotStore{}
	var source SurveillanceSource = &MockSource{snapshot: resistance.Snapshot{Source: "mock"}}

	if !store.BeginUpdate() {
		t.Fatal("Expected BeginUpdate to succeed")
	}
	snapshot, err := source.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	store.UpdateSnapshot(snapshot, &SnapshotQualityReport{Regions: len(snapshot.Regions)})
	store.EndUpdate()

	if store.Snapshot().Source != "mock" || store.IsUpdating() {
		t.Errorf("Unexpected store state: %+v", store)
	}
}

func TestMockSourceError(t *testing.T) {
	source := &MockSource{err: errors.New("unreachable")}
	if _, err := source.Load(context.Background()); err == nil {
		t.Error("Expected an error")
	}
}

func TestEngineSatisfiesRecommender(t *testing.T) {
	var r Recommender = recommend.NewEngine(recommend.Options{})
	rec := r.Recommend(patient.Input{}, resistance.DefaultSnapshot())
	if rec.Primary.Drug == "" {
		t.Error("Expected a primary recommendation")
	}
	if len(r.Scenarios().Entries()) == 0 {
		t.Error("Expected scenarios")
	}
}
