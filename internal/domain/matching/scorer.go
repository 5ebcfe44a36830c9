package matching

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// MaxFeatures caps the TF-IDF vocabulary, keeping the most frequent terms of the corpus.
const MaxFeatures = 4000

var termRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Score compares a candidate text (resume) with a reference text (job description)
// using TF-IDF vectors over the two-document corpus and returns their cosine
// similarity scaled to 0-100, rounded to two decimals. Degenerate input scores 0.
func Score(candidate, reference string) float64 {
	docs := [2]map[string]int{analyze(candidate), analyze(reference)}
	if len(docs[0]) == 0 || len(docs[1]) == 0 {
		return 0
	}

	vocab := vocabulary(docs[:])
	if len(vocab) == 0 {
		return 0
	}

	a := weigh(docs[0], docs[:], vocab)
	b := weigh(docs[1], docs[:], vocab)

	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	if math.IsNaN(dot) || math.IsInf(dot, 0) {
		return 0
	}

	score := math.Round(dot*100*100) / 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// analyze returns the term counts of text after lower-casing and stop-word removal.
func analyze(text string) map[string]int {
	counts := map[string]int{}
	if strings.TrimSpace(text) == "" {
		return counts
	}
	for _, t := range termRe.FindAllString(strings.ToLower(text), -1) {
		if _, stop := englishStopWords[t]; stop {
			continue
		}
		counts[t]++
	}
	return counts
}

// vocabulary returns the sorted feature set, limited to MaxFeatures by total
// corpus frequency with ties broken alphabetically.
func vocabulary(docs []map[string]int) []string {
	freq := map[string]int{}
	for _, d := range docs {
		for t, n := range d {
			freq[t] += n
		}
	}

	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}

	if len(terms) > MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if freq[terms[i]] != freq[terms[j]] {
				return freq[terms[i]] > freq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:MaxFeatures]
	}

	sort.Strings(terms)
	return terms
}

// weigh builds the L2-normalised tf * smooth-idf vector of doc over vocab.
func weigh(doc map[string]int, docs []map[string]int, vocab []string) []float64 {
	n := float64(len(docs))
	vec := make([]float64, len(vocab))

	var norm float64
	for i, t := range vocab {
		tf := doc[t]
		if tf == 0 {
			continue
		}
		df := 0
		for _, d := range docs {
			if d[t] > 0 {
				df++
			}
		}
		idf := math.Log((1+n)/(1+float64(df))) + 1
		w := float64(tf) * idf
		vec[i] = w
		norm += w * w
	}

	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
