// Package data provides the thread-safe holder of the current surveillance snapshot.
// Refreshes swap the whole snapshot atomically so requests never see a partial update.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/antibiotic-advisor/interfaces"
	"github.com/giygas/antibiotic-advisor/logging"
	"github.com/giygas/antibiotic-advisor/resistance"
)

// Compile-time check to ensure SnapshotContainer implements SnapshotStore
var _ interfaces.SnapshotStore = (*SnapshotContainer)(nil)

// SnapshotContainer holds the snapshot with atomic values for zero-downtime updates
type SnapshotContainer struct {
	snapshot        atomic.Value // resistance.Snapshot
	report          atomic.Value // *interfaces.SnapshotQualityReport
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewSnapshotContainer creates a container seeded with the built-in snapshot. The
// last-updated time stays zero until the first refresh.
func NewSnapshotContainer() *SnapshotContainer {
	sc := &SnapshotContainer{}
	sc.snapshot.Store(resistance.DefaultSnapshot())
	sc.report.Store(&interfaces.SnapshotQualityReport{})
	sc.lastUpdated.Store(time.Time{})
	sc.serverStartTime.Store(time.Time{})
	return sc
}

// Snapshot returns the current snapshot
func (sc *SnapshotContainer) Snapshot() resistance.Snapshot {
	if v := sc.snapshot.Load(); v != nil {
		if snapshot, ok := v.(resistance.Snapshot); ok {
			return snapshot
		}
	}

	logging.Warn("Snapshot is missing or invalid, using built-in data")
	return resistance.DefaultSnapshot()
}

// Report returns the quality report of the current snapshot
func (sc *SnapshotContainer) Report() *interfaces.SnapshotQualityReport {
	if v := sc.report.Load(); v != nil {
		if report, ok := v.(*interfaces.SnapshotQualityReport); ok && report != nil {
			return report
		}
	}
	return &interfaces.SnapshotQualityReport{}
}

// GetLastUpdated returns the timestamp of the last snapshot update
func (sc *SnapshotContainer) GetLastUpdated() time.Time {
	if v := sc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a refresh is in progress
func (sc *SnapshotContainer) IsUpdating() bool {
	return sc.updating.Load()
}

// SetServerStartTime sets the server start time
func (sc *SnapshotContainer) SetServerStartTime(startTime time.Time) {
	sc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (sc *SnapshotContainer) GetServerStartTime() time.Time {
	if v := sc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}
	return time.Time{}
}

// UpdateSnapshot atomically replaces the snapshot and its report
func (sc *SnapshotContainer) UpdateSnapshot(snapshot resistance.Snapshot, report *interfaces.SnapshotQualityReport) {
	if report == nil {
		report = &interfaces.SnapshotQualityReport{}
	}
	sc.snapshot.Store(snapshot)
	sc.report.Store(report)
	sc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a refresh.
// Returns true if the refresh can proceed, false if another one is in progress
func (sc *SnapshotContainer) BeginUpdate() bool {
	return sc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a refresh
func (sc *SnapshotContainer) EndUpdate() {
	sc.updating.Store(false)
}
