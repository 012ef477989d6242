// Package pdfexport turns groups of captured pages into PDF files and
// derives the output file names.
package pdfexport

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"

	"github.com/lehigh-university-libraries/scanbridge/internal/scan"
)

// Exporter renders a group of pages into one PDF stream. A returned error
// is fatal to the whole request; partial multi-file output is never sent.
type Exporter interface {
	Export(ctx context.Context, pages []*scan.Page, w io.Writer) error
}

// Writer is a minimal PDF 1.4 generator: one JPEG-compressed image per
// page, image dimensions mapped 1:1 to point units.
type Writer struct {
	// Quality is the JPEG quality passed to the encoder; zero means the
	// encoder default.
	Quality int
}

type object struct {
	id   int
	body []byte
}

func (w *Writer) Export(ctx context.Context, pages []*scan.Page, out io.Writer) error {
	if len(pages) == 0 {
		return fmt.Errorf("cannot export an empty page group")
	}

	opts := &jpeg.Options{Quality: jpeg.DefaultQuality}
	if w.Quality > 0 {
		opts.Quality = w.Quality
	}

	// Object 1 is the catalog, 2 the page tree. Each page then takes
	// three objects: page, content stream, image XObject.
	objs := make([]object, 0, 2+3*len(pages))

	kids := &bytes.Buffer{}
	for i := range pages {
		fmt.Fprintf(kids, "%d 0 R ", 3+3*i)
	}
	objs = append(objs,
		object{1, []byte("<< /Type /Catalog /Pages 2 0 R >>")},
		object{2, []byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
			bytes.TrimSpace(kids.Bytes()), len(pages)))},
	)

	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.Image == nil {
			return fmt.Errorf("page %d already released", i+1)
		}

		var jpg bytes.Buffer
		if err := jpeg.Encode(&jpg, p.Image, opts); err != nil {
			return fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		b := p.Image.Bounds()
		width, height := b.Dx(), b.Dy()

		pageID := 3 + 3*i
		contentID := pageID + 1
		imageID := pageID + 2

		content := fmt.Sprintf("q %d 0 0 %d 0 0 cm /Im0 Do Q", width, height)

		objs = append(objs,
			object{pageID, []byte(fmt.Sprintf(
				"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /XObject << /Im0 %d 0 R >> >> /Contents %d 0 R >>",
				width, height, imageID, contentID))},
			object{contentID, []byte(fmt.Sprintf(
				"<< /Length %d >>\nstream\n%s\nendstream", len(content), content))},
			object{imageID, append([]byte(fmt.Sprintf(
				"<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n",
				width, height, jpg.Len())), append(jpg.Bytes(), []byte("\nendstream")...)...)},
		)
	}

	return writeDocument(out, objs)
}

// writeDocument lays out the body, cross-reference table, and trailer.
func writeDocument(out io.Writer, objs []object) error {
	var doc bytes.Buffer
	doc.WriteString("%PDF-1.4\n")

	offsets := make(map[int]int, len(objs))
	for _, o := range objs {
		offsets[o.id] = doc.Len()
		fmt.Fprintf(&doc, "%d 0 obj\n", o.id)
		doc.Write(o.body)
		doc.WriteString("\nendobj\n")
	}

	xref := doc.Len()
	fmt.Fprintf(&doc, "xref\n0 %d\n", len(objs)+1)
	doc.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&doc, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&doc, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objs)+1, xref)

	_, err := out.Write(doc.Bytes())
	return err
}
