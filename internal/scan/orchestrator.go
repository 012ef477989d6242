package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/scanbridge/internal/bridge"
	"github.com/lehigh-university-libraries/scanbridge/internal/config"
	"github.com/lehigh-university-libraries/scanbridge/internal/wire"
)

// ErrNothingCaptured means the scan finished without producing pages,
// either because the user cancelled or the feeder was empty. Handlers map
// it to 204, not to a failure.
var ErrNothingCaptured = errors.New("nothing captured")

// fileModeLookback absorbs filesystem timestamp granularity when matching
// files the batch job wrote against the request start time.
const fileModeLookback = 2 * time.Second

// Orchestrator bridges a synchronous HTTP request to the asynchronous
// scan operations and hands back ownership of whatever was captured.
type Orchestrator struct {
	store  *Store
	driver bridge.Driver
	runner *bridge.Runner
	cfg    config.Provider
}

func NewOrchestrator(store *Store, driver bridge.Driver, runner *bridge.Runner, cfg config.Provider) *Orchestrator {
	return &Orchestrator{store: store, driver: driver, runner: runner, cfg: cfg}
}

// SingleScan runs the default profile and returns copies of the pages it
// added to the shared collection. The caller owns the returned pages.
func (o *Orchestrator) SingleScan(ctx context.Context) ([]*Page, error) {
	mark := o.store.Seq()

	err := o.runner.Do(ctx, func() error {
		return o.driver.TriggerScan(ctx)
	})
	if errors.Is(err, bridge.ErrCancelled) {
		return nil, ErrNothingCaptured
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	pages := o.store.Since(mark)
	if len(pages) == 0 {
		return nil, ErrNothingCaptured
	}
	slog.Info("Scan complete", "pages", len(pages))
	return pages, nil
}

// BatchResult is what one batch-scan run produced: pages to export (load
// output mode) or finished files read back from disk (file output mode).
type BatchResult struct {
	Pages     []*Page
	Files     []wire.Part
	FromFiles bool
}

// Close releases any pages the result still holds.
func (r *BatchResult) Close() {
	CloseAll(r.Pages)
	r.Pages = nil
}

// BatchScan runs the pre-configured batch job. The job's own output mode
// decides whether results come back as in-memory pages or as files the
// job already wrote to disk.
func (o *Orchestrator) BatchScan(ctx context.Context) (*BatchResult, error) {
	mark := o.store.Seq()
	start := time.Now()

	err := o.runner.Do(ctx, func() error {
		return o.driver.TriggerBatchScan(ctx)
	})
	if errors.Is(err, bridge.ErrCancelled) {
		return nil, ErrNothingCaptured
	}
	if err != nil {
		return nil, fmt.Errorf("batch scan failed: %w", err)
	}

	// Output mode is read after the job ran; the user may have changed the
	// batch configuration since the server started.
	batch := o.cfg.Batch()
	if batch.OutputMode == config.BatchOutputFile {
		files, err := o.collectBatchFiles(batch, start)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, ErrNothingCaptured
		}
		slog.Info("Batch scan complete", "files", len(files))
		return &BatchResult{Files: files, FromFiles: true}, nil
	}

	pages := o.store.Since(mark)
	if len(pages) == 0 {
		return nil, ErrNothingCaptured
	}
	slog.Info("Batch scan complete", "pages", len(pages))
	return &BatchResult{Pages: pages}, nil
}

// collectBatchFiles finds the files the batch job wrote: same base name
// and extension as the configured save path, modified at or after the
// request started (minus a lookback for coarse filesystem timestamps),
// sorted by name.
func (o *Orchestrator) collectBatchFiles(batch config.Batch, start time.Time) ([]wire.Part, error) {
	if batch.SavePath == "" {
		return nil, errors.New("batch file output mode requires a save path")
	}

	dir := filepath.Dir(batch.SavePath)
	base := strings.TrimSuffix(filepath.Base(batch.SavePath), filepath.Ext(batch.SavePath))
	ext := batch.Extension
	cutoff := start.Add(-fileModeLookback)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch output dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, base) || !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().Before(cutoff) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]wire.Part, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read batch output file: %w", err)
		}
		parts = append(parts, wire.Part{Name: name, Data: data})
	}
	return parts, nil
}
