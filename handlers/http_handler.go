package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/antibiotic-advisor/interfaces"
	"github.com/giygas/antibiotic-advisor/logging"
	"github.com/giygas/antibiotic-advisor/metrics"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/recommend"
	"github.com/giygas/antibiotic-advisor/validation"
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	store         interfaces.SnapshotStore
	validator     interfaces.DataValidator
	recommender   interfaces.Recommender
	health        interfaces.HealthChecker
	defaultRegion string
}

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// defaultRegion is used for requests that name no region.
func NewHTTPHandler(store interfaces.SnapshotStore, validator interfaces.DataValidator, recommender interfaces.Recommender, health interfaces.HealthChecker, defaultRegion string) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		store:         store,
		validator:     validator,
		recommender:   recommender,
		health:        health,
		defaultRegion: defaultRegion,
	}
}

// recommend validates a patient input and runs the pipeline on the current snapshot
func (h *HTTPHandlerImpl) recommend(in *patient.Input) (recommend.Recommendation, error) {
	if err := h.validator.ValidatePatientInput(in); err != nil {
		return recommend.Recommendation{}, err
	}
	if in.Region == "" {
		in.Region = h.defaultRegion
	}

	rec := h.recommender.Recommend(*in, h.store.Snapshot())
	metrics.ObserveRecommendation(rec)

	logging.Info("Recommendation generated",
		"id", rec.ID,
		"scenario", rec.Scenario.ID,
		"primary", rec.Primary.Drug,
		"confidence", rec.Confidence,
		"substituted", rec.Substitution != nil,
		"blocking", rec.Blocking(),
	)
	return rec, nil
}

// ServeRecommendation handles POST /v1/recommendations
func (h *HTTPHandlerImpl) ServeRecommendation(w http.ResponseWriter, r *http.Request) {
	var in patient.Input
	if !readJSON(w, r, &in) {
		return
	}

	rec, err := h.recommend(&in)
	if err != nil {
		logging.Warn("Rejected patient input", "error", err, "dangerous", errors.Is(err, validation.ErrDangerousInput))
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, rec)
}

// ServeScenarios handles GET /v1/scenarios
func (h *HTTPHandlerImpl) ServeScenarios(w http.ResponseWriter, r *http.Request) {
	entries := h.recommender.Scenarios().Entries()
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"scenarios": entries,
		"count":     len(entries),
	})
}

// RegionsResponse describes the surveillance snapshot in service
type RegionsResponse struct {
	Source        string                            `json:"source"`
	AsOf          *time.Time                        `json:"asOf,omitempty"`
	DefaultRegion string                            `json:"defaultRegion"`
	Regions       []string                          `json:"regions"`
	Quality       *interfaces.SnapshotQualityReport `json:"quality"`
}

// ServeRegions handles GET /v1/regions
func (h *HTTPHandlerImpl) ServeRegions(w http.ResponseWriter, r *http.Request) {
	snapshot := h.store.Snapshot()

	response := RegionsResponse{
		Source:        snapshot.Source,
		DefaultRegion: h.defaultRegion,
		Regions:       snapshot.RegionKeys(),
		Quality:       h.store.Report(),
	}
	if !snapshot.AsOf.IsZero() {
		asOf := snapshot.AsOf
		response.AsOf = &asOf
	}

	RespondWithJSON(w, http.StatusOK, response)
}

// ServeRegion handles GET /v1/regions/{region}
func (h *HTTPHandlerImpl) ServeRegion(w http.ResponseWriter, r *http.Request) {
	region, err := h.validator.ValidateRegion(chi.URLParam(r, "region"))
	if err != nil || region == "" {
		logging.Warn("Unusual user input", "region", chi.URLParam(r, "region"))
		RespondWithError(w, http.StatusBadRequest, "Invalid region")
		return
	}

	data, found := h.store.Snapshot().Lookup(region)
	if !found {
		RespondWithError(w, http.StatusNotFound, "Region not found")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"region": region,
		"data":   data,
	})
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// HealthCheck handles GET /health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.health.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var uptime time.Duration
	if start := h.store.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	response := HealthResponse{
		Status: status,
		Uptime: formatUptimeHuman(uptime),
		Data:   data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}

	RespondWithJSON(w, httpStatus, response)
}
