package bridge

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// CancelExitCode is the exit status a scan command uses to report that the
// user aborted the scan rather than that it failed.
const CancelExitCode = 10

// PageSink receives pages captured by a driver. The shared image store
// implements it.
type PageSink interface {
	AddPage(img image.Image, sessionID string)
}

// CommandDriver drives the scanner by running configured external
// commands (scanimage wrappers, vendor CLIs). Each invocation gets a
// fresh output directory via SCANBRIDGE_OUTPUT_DIR; images the command
// leaves there are decoded and appended to the sink in file-name order.
type CommandDriver struct {
	Sink         PageSink
	ScanCommand  []string
	BatchCommand []string
}

func (d *CommandDriver) TriggerScan(ctx context.Context) error {
	return d.run(ctx, d.ScanCommand, "scan")
}

func (d *CommandDriver) TriggerBatchScan(ctx context.Context) error {
	return d.run(ctx, d.BatchCommand, "batch-scan")
}

func (d *CommandDriver) run(ctx context.Context, argv []string, kind string) error {
	if len(argv) == 0 {
		return fmt.Errorf("no %s command configured", kind)
	}

	outDir, err := os.MkdirTemp("", "scanbridge-*")
	if err != nil {
		return fmt.Errorf("failed to create scan output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), "SCANBRIDGE_OUTPUT_DIR="+outDir)

	slog.Info("Running scanner command", "kind", kind, "command", argv[0])
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == CancelExitCode {
			slog.Info("Scan cancelled by user", "kind", kind)
			return ErrCancelled
		}
		return fmt.Errorf("%s command failed: %w", kind, err)
	}

	return d.collect(outDir)
}

// collect decodes every image the command produced and appends it to the
// sink. One command invocation counts as one scan session.
func (d *CommandDriver) collect(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read scan output dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	sessionID := uuid.NewString()
	for _, name := range names {
		img, err := decodeImage(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("Skipping undecodable scan output", "file", name, "error", err)
			continue
		}
		d.Sink.AddPage(img, sessionID)
	}
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// CommandForegrounder raises the main window by running a configured
// command (wmctrl, xdotool). Failures are logged and swallowed.
type CommandForegrounder struct {
	Command []string
}

func (f *CommandForegrounder) BringToFront() {
	if len(f.Command) == 0 {
		return
	}
	cmd := exec.Command(f.Command[0], f.Command[1:]...)
	if err := cmd.Run(); err != nil {
		slog.Warn("Failed to bring window to foreground", "error", err)
	}
}
