package metadata

import (
	"slices"
	"strings"

	"github.com/OrfiDev/orpheusdl-qobuz/internal/core"
)

// primaryRoles are the role tags that promote a contributor into the
// track's artist list instead of only its credits list. Order matters for
// the extraction pass.
var primaryRoles = []string{"MainArtist", "FeaturedArtist", "Artist"}

type contributor struct {
	name  string
	roles []string
}

// parseContributors splits a compact credit string of the form
// "Name1, Role1, Role2 - Name2, Role3". Contributors are separated by
// " - "; within each chunk the first comma-separated token is the name and
// the rest are roles. An empty string yields no contributors.
func parseContributors(credits string) []contributor {
	if credits == "" {
		return nil
	}

	chunks := strings.Split(credits, " - ")
	contributors := make([]contributor, 0, len(chunks))
	for _, chunk := range chunks {
		parts := strings.Split(chunk, ", ")
		contributors = append(contributors, contributor{
			name:  parts[0],
			roles: parts[1:],
		})
	}
	return contributors
}

// extractArtists appends contributors holding a primary role to the artist
// list, consuming those role tags. A name already in the list is never
// appended again, no matter how many primary roles it holds. Contributors
// left with no roles are dropped from the returned remainder.
func extractArtists(contributors []contributor, artists []string) ([]string, []contributor) {
	remaining := make([]contributor, 0, len(contributors))
	for _, c := range contributors {
		roles := slices.Clone(c.roles)
		for _, primary := range primaryRoles {
			i := slices.Index(roles, primary)
			if i < 0 {
				continue
			}
			roles = slices.Delete(roles, i, i+1)
			if !slices.Contains(artists, c.name) {
				artists = append(artists, c.name)
			}
		}
		if len(roles) > 0 {
			remaining = append(remaining, contributor{name: c.name, roles: roles})
		}
	}
	return artists, remaining
}

// aggregateCredits reduces contributors into role -> names records,
// preserving first-seen role order and per-role name order.
func aggregateCredits(contributors []contributor) []core.CreditEntry {
	var order []string
	byRole := make(map[string][]string)

	for _, c := range contributors {
		for _, role := range c.roles {
			if _, seen := byRole[role]; !seen {
				order = append(order, role)
			}
			byRole[role] = append(byRole[role], c.name)
		}
	}

	entries := make([]core.CreditEntry, 0, len(order))
	for _, role := range order {
		entries = append(entries, core.CreditEntry{Role: role, Names: byRole[role]})
	}
	return entries
}
