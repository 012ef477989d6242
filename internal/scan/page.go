// Package scan owns the captured-page data model, the shared image
// collection, the separator logic that splits pages into output files,
// and the orchestrator that drives single and batch scans.
package scan

import (
	"image"
	"time"
)

// Page is one captured page image. The pixel data is immutable once
// captured; ownership of the Page itself passes from the store to the
// request that copied it, which must Close every copy on every exit path.
type Page struct {
	Image      image.Image
	SessionID  string
	CapturedAt time.Time

	seq Watermark
}

// Close releases the pixel data. Safe to call more than once.
func (p *Page) Close() {
	p.Image = nil
}

// CloseAll closes every page in the slice. Meant for defer.
func CloseAll(pages []*Page) {
	for _, p := range pages {
		p.Close()
	}
}
