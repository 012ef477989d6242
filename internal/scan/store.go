package scan

import (
	"image"
	"sync"
	"time"
)

// Watermark is a monotonic position in the store's append log. A request
// records the watermark before triggering a scan and later asks for
// everything appended after it, so the capture boundary is explicit
// instead of inferred from a length snapshot.
type Watermark uint64

// Store is the shared image collection. The UI and the scan driver append
// to it; requests only read. It is never truncated while the server runs,
// so watermarks stay valid for the life of the process.
type Store struct {
	mu    sync.RWMutex
	pages []*Page
	seq   Watermark
}

func NewStore() *Store {
	return &Store{}
}

// AddPage appends a freshly captured page. Implements bridge.PageSink.
func (s *Store) AddPage(img image.Image, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.pages = append(s.pages, &Page{
		Image:      img,
		SessionID:  sessionID,
		CapturedAt: time.Now(),
		seq:        s.seq,
	})
}

// Seq returns the current watermark.
func (s *Store) Seq() Watermark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Since returns independent copies of every page appended after w, in
// capture order. Callers own the copies and must close them; the live
// collection is never referenced after Since returns.
func (s *Store) Since(w Watermark) []*Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Page
	for _, p := range s.pages {
		if p.seq > w {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

// Len reports how many pages the collection holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}
