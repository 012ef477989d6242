package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/scanbridge/internal/config"
)

func pagesForSessions(sessions ...string) []*Page {
	pages := make([]*Page, len(sessions))
	for i, s := range sessions {
		pages[i] = &Page{Image: testImage(), SessionID: s}
	}
	return pages
}

// flatten re-concatenates groups for order/exhaustiveness checks.
func flatten(groups []Group) []*Page {
	var out []*Page
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestSeparate(t *testing.T) {
	tests := []struct {
		name       string
		sessions   []string
		policy     config.SeparatorPolicy
		wantGroups []int // pages per group
	}{
		{
			name:       "none keeps everything together",
			sessions:   []string{"a", "a", "b"},
			policy:     config.SeparatorNone,
			wantGroups: []int{3},
		},
		{
			name:       "per page splits each page",
			sessions:   []string{"a", "a", "a"},
			policy:     config.SeparatorPerPage,
			wantGroups: []int{1, 1, 1},
		},
		{
			name:       "per session splits on session change",
			sessions:   []string{"a", "a", "b", "c", "c", "c"},
			policy:     config.SeparatorPerSession,
			wantGroups: []int{2, 1, 3},
		},
		{
			name:       "per session with one session",
			sessions:   []string{"a", "a"},
			policy:     config.SeparatorPerSession,
			wantGroups: []int{2},
		},
		{
			name:       "unknown policy falls back to none",
			sessions:   []string{"a", "b"},
			policy:     config.SeparatorPolicy("bogus"),
			wantGroups: []int{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := pagesForSessions(tt.sessions...)
			groups := Separate(pages, tt.policy)

			require.Len(t, groups, len(tt.wantGroups))
			for i, g := range groups {
				assert.Len(t, g, tt.wantGroups[i])
				assert.NotEmpty(t, g)
			}

			// Order-preserving and exhaustive.
			assert.Equal(t, pages, flatten(groups))
		})
	}
}

func TestSeparateEmptyInput(t *testing.T) {
	for _, policy := range []config.SeparatorPolicy{
		config.SeparatorNone, config.SeparatorPerPage, config.SeparatorPerSession,
	} {
		assert.Empty(t, Separate(nil, policy))
	}
}
