// Package health reports service health from the state of the surveillance snapshot.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/antibiotic-advisor/interfaces"
	"github.com/giygas/antibiotic-advisor/scheduler"
	"github.com/giygas/antibiotic-advisor/validation"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store            interfaces.SnapshotStore
	schedule         string
	sourceConfigured bool
	now              func() time.Time
}

// NewHealthChecker creates a health checker. sourceConfigured tells whether the
// snapshot is expected to come from an external source rather than the built-in data.
func NewHealthChecker(store interfaces.SnapshotStore, schedule string, sourceConfigured bool) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:            store,
		schedule:         schedule,
		sourceConfigured: sourceConfigured,
		now:              time.Now,
	}
}

// HealthCheck returns HTTP-specific health data.
// Recommendations keep working on old data, so only an empty snapshot is unhealthy.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	snapshot := h.store.Snapshot()
	report := h.store.Report()
	lastUpdate := h.store.GetLastUpdated()
	isUpdating := h.store.IsUpdating()
	now := h.now()

	var dataAge time.Duration
	if !lastUpdate.IsZero() {
		dataAge = now.Sub(lastUpdate)
	}

	switch {
	case len(snapshot.Regions) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case h.sourceConfigured && lastUpdate.IsZero():
		// external source never loaded, serving built-in data
		status = "degraded"
		httpStatus = http.StatusOK

	case h.sourceConfigured && dataAge > 48*time.Hour:
		status = "degraded"
		httpStatus = http.StatusOK

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusOK

	case validation.IsStale(report):
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"source":         snapshot.Source,
		"regions":        len(snapshot.Regions),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"is_updating":    isUpdating,
		"stale_days":     report.StaleDays,
		"quality_issues": report.HasIssues(),
	}
	if !snapshot.AsOf.IsZero() {
		data["as_of"] = snapshot.AsOf.Format(time.RFC3339)
	}
	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
	}
	if start := h.store.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = math.Round(now.Sub(start).Seconds())
	}
	if h.sourceConfigured {
		data["next_update"] = h.CalculateNextUpdate().Format(time.RFC3339)
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled refresh time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return scheduler.NextRun(h.now(), h.schedule)
}
