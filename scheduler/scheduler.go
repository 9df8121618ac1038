// Package scheduler loads the reference data at startup, reloads it at the configured
// times of day and warns when the data goes stale.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	defaultParseTimeout = 10 * time.Minute
	staleAfter          = 25 * time.Hour
	monitorInterval     = time.Hour
)

// ErrEmptyReference is returned when a load produced no drugs or no interactions
var ErrEmptyReference = errors.New("reference load is empty")

// Scheduler handles data updates and health monitoring using dependency injection
type Scheduler struct {
	dataStore    interfaces.DataStore
	parser       interfaces.Parser
	validator    interfaces.DataValidator
	refreshTimes string
	parseTimeout time.Duration
	scheduler    *gocron.Scheduler

	stop     chan struct{}
	stopOnce sync.Once
	monitor  sync.WaitGroup
}

// NewScheduler creates a scheduler reloading at refreshTimes ("06:00;18:00" syntax)
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, validator interfaces.DataValidator, refreshTimes string) *Scheduler {
	return &Scheduler{
		dataStore:    dataStore,
		parser:       parser,
		validator:    validator,
		refreshTimes: refreshTimes,
		parseTimeout: defaultParseTimeout,
		scheduler:    gocron.NewScheduler(time.Local),
		stop:         make(chan struct{}),
	}
}

// Start performs the initial load, schedules the reloads and starts health monitoring
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.refreshTimes).Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to update data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule updates", "error", err, "refresh_times", s.refreshTimes)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring(monitorInterval)

	logging.Info("Reference refresh scheduled", "refresh_times", s.refreshTimes)
	return nil
}

// Stop stops scheduled reloads and health monitoring
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
	s.monitor.Wait()
}

// updateData parses, reports and swaps in a new reference load. The current data is kept
// when parsing fails or yields nothing.
func (s *Scheduler) updateData() error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting reference data update", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.parseTimeout)
	defer cancel()

	data, err := s.parser.ParseAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to parse reference data: %w", err)
	}

	if len(data.Drugs) == 0 || len(data.Interactions) == 0 {
		return fmt.Errorf("%w: %d drugs, %d interactions", ErrEmptyReference, len(data.Drugs), len(data.Interactions))
	}

	invalidDrugs := 0
	for i := range data.Drugs {
		if err := s.validator.ValidateDrug(&data.Drugs[i]); err != nil {
			invalidDrugs++
			logging.Debug("Invalid drug record", "error", err)
		}
	}

	report := s.validator.ReportDataQuality(data)
	logReport(report, invalidDrugs)

	s.dataStore.UpdateData(data, report)

	logging.Info("Reference data update completed",
		"duration", time.Since(start).String(),
		"drug_count", len(data.Drugs),
		"interaction_count", len(data.Interactions))

	return nil
}

func logReport(report *interfaces.DataQualityReport, invalidDrugs int) {
	if invalidDrugs > 0 {
		logging.Warn("Invalid drug records", "count", invalidDrugs)
	}

	if report.DrugsWithoutCompositions > 0 {
		logging.Warn("Drugs without compositions",
			"count", report.DrugsWithoutCompositions,
			"code_list", report.DrugsWithoutCompositionsList,
		)
	}

	if report.OrphanCompositions > 0 {
		logging.Warn("Compositions referencing unknown drugs",
			"count", report.OrphanCompositions,
			"code_list", report.OrphanCompositionsList,
		)
	}

	if report.InteractionsWithBlankSide > 0 || report.SelfInteractions > 0 || report.DuplicateInteractions > 0 {
		logging.Warn("Interaction catalogue issues",
			"blank_side", report.InteractionsWithBlankSide,
			"self_pairs", report.SelfInteractions,
			"duplicates", report.DuplicateInteractions,
		)
	}
}

// startHealthMonitoring warns when the data has not been refreshed for over a day
func (s *Scheduler) startHealthMonitoring(interval time.Duration) {
	s.monitor.Add(1)
	go func() {
		defer s.monitor.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStaleness(time.Now())
			}
		}
	}()
}

// checkStaleness reports whether the data is stale, logging a warning when it is
func (s *Scheduler) checkStaleness(now time.Time) bool {
	lastUpdate := s.dataStore.GetLastUpdated()
	if now.Sub(lastUpdate) <= staleAfter {
		return false
	}

	logging.Warn("Reference data hasn't been updated in over 25 hours", "last_update", lastUpdate.Format(time.RFC3339))
	return true
}
