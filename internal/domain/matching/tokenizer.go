package matching

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// minTokenLen is the shortest keyword kept by Tokenize; shorter runs are noise ("a", "is", "to").
const minTokenLen = 3

var keywordRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:-[\p{L}\p{N}]+)*`)

// TokenSet is an unordered set of lower-cased keywords.
type TokenSet map[string]struct{}

// Tokenize lower-cases text and returns the set of its keywords: maximal runs of
// letters and digits joined by internal hyphens, at least three runes long.
func Tokenize(text string) TokenSet {
	out := TokenSet{}
	if strings.TrimSpace(text) == "" {
		return out
	}
	for _, tok := range keywordRe.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(tok) < minTokenLen {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

func (s TokenSet) Contains(tok string) bool {
	_, ok := s[tok]
	return ok
}

func (s TokenSet) Len() int {
	return len(s)
}

// Sorted returns the tokens in ascending order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
