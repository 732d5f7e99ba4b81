// Package classify maps free-text product names to brands and categories
// using ordered rule lists. Rule order defines match priority: the first rule
// whose text occurs in the product name wins.
package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is returned when no rule matches a product name.
const Fallback = "Other"

// FilamentCategory is the category rule that triggers the sub-type scan.
const FilamentCategory = "filamento"

// FilamentTypes lists filament sub-types in match priority order. "PLA+" must
// precede "PLA": every name containing "PLA+" also contains "PLA".
var FilamentTypes = []string{"PLA+", "PLA", "TPU", "PETG", "others"}

// Rules bundles the ordered brand and category lists for one run. The lists
// are owned by the reference-data catalog and treated as read-only here.
type Rules struct {
	Brands     []string
	Categories []string
}

// Labels is the classification outcome for one product name.
type Labels struct {
	Brand    string
	Category string
}

// Classify resolves both labels for a product name.
func (r Rules) Classify(name string) Labels {
	return Labels{
		Brand:    Brand(name, r.Brands),
		Category: Category(name, r.Categories),
	}
}

// Brand returns the first brand rule contained in the product name,
// case-insensitively, title-cased. No match yields Fallback.
func Brand(name string, brands []string) string {
	lowered := strings.ToLower(name)
	for _, brand := range brands {
		if brand != "" && strings.Contains(lowered, strings.ToLower(brand)) {
			return titleCase(brand)
		}
	}
	return Fallback
}

// Category returns the first category rule contained in the product name.
// Matching is case-insensitive and diacritic-insensitive, so "Impresión" and
// "impresion" are the same word. A match on the filament category triggers a
// second ordered scan over FilamentTypes; a sub-type hit yields the composite
// "<Category> <SubType>" label. No match yields Fallback.
func Category(name string, categories []string) string {
	folded := removeAccents(strings.ToLower(name))
	for _, category := range categories {
		if category == "" {
			continue
		}
		if !strings.Contains(folded, removeAccents(strings.ToLower(category))) {
			continue
		}
		label := titleCase(category)
		if strings.EqualFold(category, FilamentCategory) {
			for _, sub := range FilamentTypes {
				if strings.Contains(folded, strings.ToLower(sub)) {
					return label + " " + sub
				}
			}
		}
		return label
	}
	return Fallback
}

func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// removeAccents strips combining marks so accented and plain spellings
// compare equal. The transformer chain is built per call; a chained
// transformer is not safe for concurrent reuse.
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
