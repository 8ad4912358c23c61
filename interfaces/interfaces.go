// Package interfaces defines the contracts between the advisor's service adapters
// so that each one can be tested against hand-written mocks.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/recommend"
	"github.com/giygas/antibiotic-advisor/resistance"
	"github.com/giygas/antibiotic-advisor/scenario"
)

// SnapshotQualityReport summarizes problems found in a surveillance snapshot.
type SnapshotQualityReport struct {
	Regions        int      `json:"regions"`
	OutOfRange     []string `json:"out_of_range,omitempty"`    // "region.metric" values outside 0-100
	EmptyRegions   []string `json:"empty_regions,omitempty"`   // regions with every value at zero
	MissingAsOf    bool     `json:"missing_as_of"`             // snapshot carries no date
	StaleDays      int      `json:"stale_days"`                // age of the snapshot in days
	UnknownRegions []string `json:"unknown_regions,omitempty"` // regions outside the canonical list
}

// HasIssues reports whether the report found anything worth logging.
func (r *SnapshotQualityReport) HasIssues() bool {
	return len(r.OutOfRange) > 0 || len(r.EmptyRegions) > 0 || r.MissingAsOf || len(r.UnknownRegions) > 0
}

// SnapshotStore holds the current surveillance snapshot and swaps it atomically
// for zero-downtime refreshes.
type SnapshotStore interface {
	Snapshot() resistance.Snapshot
	Report() *SnapshotQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateSnapshot(snapshot resistance.Snapshot, report *SnapshotQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// SurveillanceSource loads a regional resistance snapshot from an external source.
type SurveillanceSource interface {
	Load(ctx context.Context) (resistance.Snapshot, error)
	Name() string
}

// Scheduler refreshes the snapshot on a schedule.
type Scheduler interface {
	Start() error
	Stop()
	NextUpdate() time.Time
}

// HealthChecker reports service health from the snapshot store.
type HealthChecker interface {
	// HealthCheck returns the status, response details and matching HTTP code.
	HealthCheck() (status string, details map[string]any, httpStatus int)
	CalculateNextUpdate() time.Time
}

// Recommender runs the decision pipeline.
type Recommender interface {
	Recommend(in patient.Input, snapshot resistance.Snapshot) recommend.Recommendation
	Scenarios() *scenario.Table
}

// DataValidator checks request input at the service edge and snapshot quality on refresh.
type DataValidator interface {
	// ValidateInput checks one free-text field.
	ValidateInput(input string) error

	// ValidateRegion returns the normalized region key.
	ValidateRegion(region string) (string, error)

	// ValidatePatientInput checks every free-text field of a request.
	ValidatePatientInput(in *patient.Input) error

	// ReportSnapshotQuality generates a quality report for a snapshot.
	ReportSnapshotQuality(snapshot resistance.Snapshot) *SnapshotQualityReport
}

// HTTPHandler serves the advisor's REST endpoints.
type HTTPHandler interface {
	ServeRecommendation(w http.ResponseWriter, r *http.Request)
	ServeScenarios(w http.ResponseWriter, r *http.Request)
	ServeRegions(w http.ResponseWriter, r *http.Request)
	ServeRegion(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}
