// Package text provides unicode normalization for free-text search queries.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize decomposes the query (NFKD), strips combining marks and
// collapses runs of whitespace, so accented and fancy-typography queries
// match the catalog's plain-ASCII metadata.
func Normalize(query string) string {
	query = norm.NFKD.String(query)

	var result strings.Builder
	for _, r := range query {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}

	query = whitespaceRegex.ReplaceAllString(result.String(), " ")
	return strings.TrimSpace(query)
}
