package scan

import "github.com/lehigh-university-libraries/scanbridge/internal/config"

// Group is an ordered, non-empty run of pages destined for one output
// file. Groups are disjoint; concatenating them in order reproduces the
// captured sequence exactly.
type Group []*Page

// Separate splits pages into output groups according to policy. An
// unknown policy behaves like SeparatorNone.
func Separate(pages []*Page, policy config.SeparatorPolicy) []Group {
	if len(pages) == 0 {
		return nil
	}

	switch policy {
	case config.SeparatorPerPage:
		groups := make([]Group, len(pages))
		for i, p := range pages {
			groups[i] = Group{p}
		}
		return groups

	case config.SeparatorPerSession:
		var groups []Group
		var current Group
		for _, p := range pages {
			if len(current) > 0 && current[len(current)-1].SessionID != p.SessionID {
				groups = append(groups, current)
				current = nil
			}
			current = append(current, p)
		}
		return append(groups, current)

	default:
		return []Group{pages}
	}
}
