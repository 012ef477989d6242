// Package bridge connects the HTTP side of scanbridge to the scanner
// collaborators: the acquisition driver, the desktop foreground hook, and
// the single-consumer runner that stands in for the UI thread the scan
// operations are bound to.
package bridge

import (
	"context"
	"errors"
)

// ErrCancelled is reported by a Driver when the user aborted the scan from
// the device or the scan dialog. Callers map it to "nothing captured"
// rather than a failure.
var ErrCancelled = errors.New("scan cancelled by user")

// Driver triggers scan operations on the physical device. TriggerScan runs
// the default profile and appends captured pages to the shared store;
// TriggerBatchScan runs the pre-configured batch job, which appends pages
// or writes files to disk depending on its output mode. Both block until
// the operation finishes or the user cancels.
type Driver interface {
	TriggerScan(ctx context.Context) error
	TriggerBatchScan(ctx context.Context) error
}

// Foregrounder raises the main application window before a scan starts.
// Failures are best-effort and never fail the request.
type Foregrounder interface {
	BringToFront()
}
