package pdfexport

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/scanbridge/internal/scan"
)

func page() *scan.Page {
	return &scan.Page{Image: image.NewRGBA(image.Rect(0, 0, 4, 6))}
}

func TestWriterProducesPDF(t *testing.T) {
	w := &Writer{}
	var buf bytes.Buffer

	err := w.Export(context.Background(), []*scan.Page{page(), page()}, &buf)
	require.NoError(t, err)

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-1.4\n")))
	assert.True(t, bytes.HasSuffix(out, []byte("%%EOF\n")))
	assert.Equal(t, 2, bytes.Count(out, []byte("/Type /Page /Parent")))
	assert.Contains(t, string(out), "/Count 2")
	assert.Contains(t, string(out), "/Filter /DCTDecode")
}

func TestWriterRejectsEmptyGroup(t *testing.T) {
	w := &Writer{}
	assert.Error(t, w.Export(context.Background(), nil, io.Discard))
}

func TestWriterRejectsReleasedPage(t *testing.T) {
	w := &Writer{}
	p := page()
	p.Close()
	assert.Error(t, w.Export(context.Background(), []*scan.Page{p}, io.Discard))
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		savePath string
		want     string
	}{
		{"", "scan"},
		{"/home/user/scans/invoice.tiff", "invoice"},
		{"receipt.pdf", "receipt"},
		{"archive", "archive"},
		{"/scans/", "scan"},
		{"/scans/nested/", "scan"},
		{"/", "scan"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseName(tt.savePath), "save path %q", tt.savePath)
	}
}

// countingExporter fails on a chosen call number.
type countingExporter struct {
	calls  int
	failOn int
}

func (e *countingExporter) Export(ctx context.Context, pages []*scan.Page, w io.Writer) error {
	e.calls++
	if e.calls == e.failOn {
		return errors.New("export rejected")
	}
	_, err := w.Write([]byte("pdf"))
	return err
}

func TestPackageNaming(t *testing.T) {
	ctx := context.Background()

	single, err := Package(ctx, []scan.Group{{page()}}, "scan", &countingExporter{})
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "scan.pdf", single[0].Name)

	multi, err := Package(ctx, []scan.Group{{page()}, {page()}, {page()}}, "scan", &countingExporter{})
	require.NoError(t, err)
	require.Len(t, multi, 3)
	assert.Equal(t, "scan_1.pdf", multi[0].Name)
	assert.Equal(t, "scan_2.pdf", multi[1].Name)
	assert.Equal(t, "scan_3.pdf", multi[2].Name)
}

func TestPackageAbortsOnExportFailure(t *testing.T) {
	exp := &countingExporter{failOn: 2}
	parts, err := Package(context.Background(), []scan.Group{{page()}, {page()}, {page()}}, "scan", exp)

	require.Error(t, err)
	assert.Nil(t, parts, "no partial part set on failure")
	assert.Equal(t, 2, exp.calls, "remaining groups are not exported after a failure")
}

func TestPackageRealWriterRoundTrip(t *testing.T) {
	parts, err := Package(context.Background(), []scan.Group{{page(), page()}}, "", &Writer{Quality: 80})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "scan.pdf", parts[0].Name)
	assert.True(t, bytes.HasPrefix(parts[0].Data, []byte("%PDF-")))
}
