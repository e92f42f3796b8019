package srcset

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// maxSuggestDistance bounds how far a typo may be from a registered variant
// type and still produce a suggestion.
const maxSuggestDistance = 3

// Suggest returns the registered variant type closest to variantType by
// edit distance, or "" when nothing is close enough.
func (sc SizeCatalog) Suggest(variantType string) string {
	needle := strings.ToLower(strings.TrimSpace(variantType))
	if needle == "" {
		return ""
	}

	best, bestDistance := "", maxSuggestDistance+1
	for _, t := range sc.VariantTypes() {
		if d := levenshtein.Distance(needle, t); d < bestDistance {
			best, bestDistance = t, d
		}
	}
	return best
}
