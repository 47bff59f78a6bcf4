package tracking

import (
	"context"
	"errors"
	"fmt"

	"github.com/obentoo/scanwatch/internal/common/logger"
)

// Error variables for run errors
var (
	// ErrFetch is returned when the tracking page could not be fetched
	ErrFetch = errors.New("failed to fetch tracking page")
	// ErrPersist is returned when the snapshot could not be written
	ErrPersist = errors.New("failed to save snapshot")
	// ErrNoEvents is returned when a new scan was detected but the record has no events.
	// It means the detector and the data disagree, so the run stops without saving.
	ErrNoEvents = errors.New("new scan detected but the record has no events")
)

// Notifier delivers an alert for one scan event.
// Dispatch handles and logs its own failures.
type Notifier interface {
	Dispatch(ctx context.Context, event ScanEvent)
}

// RunnerConfig holds the settings for a run.
type RunnerConfig struct {
	// URL is the tracking page to fetch
	URL string
}

// RunResult describes a completed run.
type RunResult struct {
	// Record is the freshly extracted record
	Record ShipmentRecord
	// Report tells which profile queries matched the page
	Report ExtractionReport
	// Detection is the change detector's verdict
	Detection Detection
	// Notified is the event a notification was dispatched for, nil if none
	Notified *ScanEvent
}

// Runner performs one fetch, extract, detect, notify, persist pass.
type Runner struct {
	config    RunnerConfig
	fetcher   Fetcher
	extractor *Extractor
	detector  *Detector
	notifier  Notifier
	store     *Store
	log       *logger.Logger
}

// RunnerOption is a functional option for configuring Runner
type RunnerOption func(*Runner)

// WithLogger sets the logger used for progress messages
func WithLogger(log *logger.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = log
	}
}

// NewRunner creates a runner. The detector should read from the same store the runner saves to.
func NewRunner(config RunnerConfig, fetcher Fetcher, extractor *Extractor, detector *Detector, notifier Notifier, store *Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		config:    config,
		fetcher:   fetcher,
		extractor: extractor,
		detector:  detector,
		notifier:  notifier,
		store:     store,
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one pass. Steps run strictly in order and the first error ends
// the run. The notification is awaited before the snapshot is saved, and its
// failure does not end the run.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	r.log.Info("Fetching tracking page...")
	r.log.Debug("GET %s", r.config.URL)
	content, err := r.fetcher.Fetch(ctx, r.config.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	r.log.Debug("Fetched %d bytes", len(content))

	r.log.Info("Extracting shipment info and scans...")
	record, report := r.extractor.ExtractWithReport(content)
	result := &RunResult{Record: record, Report: report}
	if !report.Complete() {
		r.log.Warn("Page did not fully match profile %q (waybill found: %t, scan table found: %t)",
			r.extractor.Profile().Name, report.WaybillFound, report.EventTableFound)
	}
	r.log.Debug("Waybill %q with %d scan(s)", record.WaybillID, len(record.Events))

	r.log.Info("Checking for new scans...")
	detection := r.detector.Detect(record)
	result.Detection = detection
	switch detection.Reason {
	case ReasonLoadFailed:
		r.log.Warn("Could not read snapshot %s (%s): %v", r.store.Path(), r.detector.Policy(), detection.Err)
	case ReasonNoBaseline:
		r.log.Debug("No snapshot at %s, treating every scan as new", r.store.Path())
	}
	r.log.Info("New scan found: %t", detection.NewScan)

	if detection.NewScan {
		latest, ok := record.Latest()
		if !ok {
			return result, ErrNoEvents
		}
		r.log.Info("Sending notification for: %s - %s", latest.Location, latest.Details)
		r.notifier.Dispatch(ctx, latest)
		result.Notified = &latest
	}

	r.log.Info("Saving snapshot to %s...", r.store.Path())
	if err := r.store.Save(record); err != nil {
		return result, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	r.log.Info("Snapshot saved.")

	return result, nil
}
