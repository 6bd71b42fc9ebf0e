package reference

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Author represents a single contributor to a bibliographic record.
type Author struct {
	Family string `json:"family"`
	Given  string `json:"given,omitempty"`
	ORCID  string `json:"orcid,omitempty"` // Bare identifier, without URL prefix
}

// DisplayName returns "Family, Given", or just the family name when no
// given name is known.
func (a Author) DisplayName() string {
	if a.Given != "" {
		return a.Family + ", " + a.Given
	}
	return a.Family
}

// asciiFold decomposes to NFD and removes combining marks, so accented
// letters reduce to their base letter.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// FamilyASCII returns the family name folded to plain ASCII: accents are
// stripped and any remaining non-ASCII runes are dropped. If folding
// removes every character, the original family name is returned unchanged.
func (a Author) FamilyASCII() string {
	folded, _, err := transform.String(asciiFold, a.Family)
	if err != nil {
		return a.Family
	}

	var b strings.Builder
	for _, r := range folded {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return a.Family
	}
	return b.String()
}
