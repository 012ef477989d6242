package pdfexport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/scanbridge/internal/scan"
	"github.com/lehigh-university-libraries/scanbridge/internal/wire"
)

// DefaultBaseName is used when no save path is configured.
const DefaultBaseName = "scan"

// BaseName derives the output file base name from a configured save path.
// The configured extension is always discarded; output is PDF regardless.
// A directory-style path with a trailing separator carries no file name,
// so it falls back to the default like an empty path does.
func BaseName(savePath string) string {
	if savePath == "" || os.IsPathSeparator(savePath[len(savePath)-1]) {
		return DefaultBaseName
	}
	base := strings.TrimSuffix(filepath.Base(savePath), filepath.Ext(savePath))
	if base == "" || base == "." {
		return DefaultBaseName
	}
	return base
}

// Package exports every group through exp and returns the finished parts
// in group order. Names are <base>.pdf for a single group and
// <base>_<n>.pdf (1-based) when there are several. The first failed
// export aborts the whole set: a partial multi-file response would leave
// the client guessing which pages are missing.
func Package(ctx context.Context, groups []scan.Group, baseName string, exp Exporter) ([]wire.Part, error) {
	if baseName == "" {
		baseName = DefaultBaseName
	}

	parts := make([]wire.Part, 0, len(groups))
	for i, g := range groups {
		var buf bytes.Buffer
		if err := exp.Export(ctx, g, &buf); err != nil {
			return nil, fmt.Errorf("failed to export group %d of %d: %w", i+1, len(groups), err)
		}

		name := baseName + ".pdf"
		if len(groups) > 1 {
			name = fmt.Sprintf("%s_%d.pdf", baseName, i+1)
		}
		parts = append(parts, wire.Part{Name: name, Data: buf.Bytes()})
	}
	return parts, nil
}
