// Package scheduler refreshes the regional surveillance snapshot on a daily schedule
// and watches how old the data in service is.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/antibiotic-advisor/interfaces"
	"github.com/giygas/antibiotic-advisor/logging"
	"github.com/giygas/antibiotic-advisor/metrics"
)

const (
	refreshTimeout = 2 * time.Minute
	staleAfter     = 25 * time.Hour
)

// Refresh outcomes, used as metric labels.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusRejected = "rejected"
	StatusSkipped  = "skipped"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler keeps the snapshot store fed from a surveillance source
type Scheduler struct {
	store     interfaces.SnapshotStore
	source    interfaces.SurveillanceSource
	validator interfaces.DataValidator
	schedule  string
	scheduler *gocron.Scheduler

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a scheduler. schedule is a list of "HH:MM" times joined by ';'.
func NewScheduler(store interfaces.SnapshotStore, source interfaces.SurveillanceSource, validator interfaces.DataValidator, schedule string) *Scheduler {
	return &Scheduler{
		store:     store,
		source:    source,
		validator: validator,
		schedule:  schedule,
		scheduler: gocron.NewScheduler(time.Local),
		stop:      make(chan struct{}),
	}
}

// Start loads the first snapshot and schedules the refreshes. A failed first load
// leaves the built-in snapshot in service.
func (s *Scheduler) Start() error {
	if err := s.Refresh(context.Background()); err != nil {
		logging.Error("Initial surveillance load failed, serving built-in snapshot",
			"source", s.source.Name(), "error", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.schedule).Do(func() {
		if err := s.Refresh(context.Background()); err != nil {
			logging.Error("Failed to refresh surveillance snapshot", "source", s.source.Name(), "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule refreshes", "schedule", s.schedule, "error", err)
		return fmt.Errorf("failed to schedule refreshes: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring(time.Hour)
	return nil
}

// Stop stops the scheduler and the monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

// NextUpdate returns the next scheduled refresh time
func (s *Scheduler) NextUpdate() time.Time {
	return NextRun(time.Now(), s.schedule)
}

// Refresh loads, checks and installs a snapshot. Snapshots with out-of-range
// prevalences are rejected and the current one stays in service.
func (s *Scheduler) Refresh(ctx context.Context) error {
	if !s.store.BeginUpdate() {
		logging.Info("Refresh already in progress, skipping...")
		metrics.ObserveRefresh(StatusSkipped, time.Time{})
		return nil
	}
	defer s.store.EndUpdate()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	snapshot, err := s.source.Load(ctx)
	if err != nil {
		metrics.ObserveRefresh(StatusFailure, time.Time{})
		return fmt.Errorf("failed to load snapshot from %s: %w", s.source.Name(), err)
	}

	report := s.validator.ReportSnapshotQuality(snapshot)
	if len(report.OutOfRange) > 0 {
		metrics.ObserveRefresh(StatusRejected, time.Time{})
		logging.Warn("Surveillance snapshot rejected", "source", snapshot.Source, "out_of_range", report.OutOfRange)
		return fmt.Errorf("snapshot from %s has %d out-of-range values", s.source.Name(), len(report.OutOfRange))
	}

	if len(report.EmptyRegions) > 0 {
		logging.Warn("Surveillance regions without data", "regions", report.EmptyRegions)
	}
	if len(report.UnknownRegions) > 0 {
		logging.Warn("Surveillance regions outside the canonical list", "regions", report.UnknownRegions)
	}
	if report.MissingAsOf {
		logging.Warn("Surveillance snapshot carries no date", "source", snapshot.Source)
	}

	s.store.UpdateSnapshot(snapshot, report)
	metrics.ObserveRefresh(StatusSuccess, snapshot.AsOf)

	logging.Info("Surveillance snapshot refreshed",
		"source", snapshot.Source,
		"as_of", snapshot.AsOf.Format(time.RFC3339),
		"regions", report.Regions,
		"duration", time.Since(start).String(),
	)
	return nil
}

// startHealthMonitoring warns when the snapshot has not been refreshed recently
func (s *Scheduler) startHealthMonitoring(every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkFreshness(time.Now())
			}
		}
	}()
}

func (s *Scheduler) checkFreshness(now time.Time) bool {
	snapshot := s.store.Snapshot()
	if !snapshot.AsOf.IsZero() {
		metrics.SurveillanceSnapshotAge.Set(now.Sub(snapshot.AsOf).Seconds())
	}

	lastUpdate := s.store.GetLastUpdated()
	if now.Sub(lastUpdate) > staleAfter {
		logging.Warn("Surveillance snapshot hasn't been refreshed in over 25 hours", "last_update", lastUpdate)
		return false
	}
	return true
}

// NextRun returns the first scheduled time strictly after now. Malformed entries
// are ignored; with none left it returns now plus a day.
func NextRun(now time.Time, schedule string) time.Time {
	var minutes []int
	for _, entry := range strings.Split(schedule, ";") {
		t, err := time.Parse("15:04", strings.TrimSpace(entry))
		if err != nil {
			continue
		}
		minutes = append(minutes, t.Hour()*60+t.Minute())
	}
	if len(minutes) == 0 {
		return now.Add(24 * time.Hour)
	}
	sort.Ints(minutes)

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, m := range minutes {
		if candidate := midnight.Add(time.Duration(m) * time.Minute); candidate.After(now) {
			return candidate
		}
	}
	return midnight.AddDate(0, 0, 1).Add(time.Duration(minutes[0]) * time.Minute)
}
