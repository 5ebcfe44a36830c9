package matching

import "strings"

const (
	// MaxSuggestions caps the number of missing keywords reported for one match.
	MaxSuggestions = 12

	// NoMissingKeywords is stored instead of a keyword list when nothing is missing.
	// It is a marker, not data.
	NoMissingKeywords = "No missing keywords."
)

// MissingKeywords returns the keywords of reference absent from candidate, in
// alphabetical order, truncated to MaxSuggestions.
func MissingKeywords(reference, candidate TokenSet) []string {
	missing := make([]string, 0)
	for _, tok := range reference.Sorted() {
		if candidate.Contains(tok) {
			continue
		}
		missing = append(missing, tok)
		if len(missing) == MaxSuggestions {
			break
		}
	}
	return missing
}

// Suggestions renders missing keywords for storage.
func Suggestions(missing []string) string {
	if len(missing) == 0 {
		return NoMissingKeywords
	}
	return strings.Join(missing, ", ")
}

// IsSentinel reports whether a stored suggestions text means "no suggestions".
func IsSentinel(suggestions string) bool {
	s := strings.TrimSpace(suggestions)
	return s == "" || s == NoMissingKeywords
}

// SplitSuggestions turns stored suggestions text back into keywords.
func SplitSuggestions(suggestions string) []string {
	if IsSentinel(suggestions) {
		return []string{}
	}
	parts := strings.Split(suggestions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
