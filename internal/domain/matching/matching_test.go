package matching

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_DropsShortTokensAndLowercases(t *testing.T) {
	got := Tokenize("A Go-to Senior ENGINEER is fluent in C, Go and PostgreSQL; CI/CD pipelines.")

	for tok := range got {
		assert.GreaterOrEqual(t, utf8.RuneCountInString(tok), 3, tok)
		assert.Equal(t, strings.ToLower(tok), tok)
	}
	assert.True(t, got.Contains("go-to"))
	assert.True(t, got.Contains("engineer"))
	assert.True(t, got.Contains("postgresql"))
	assert.True(t, got.Contains("pipelines"))
	assert.False(t, got.Contains("is"))
	assert.False(t, got.Contains("ci"))
}

func TestTokenize_CollapsesDuplicates(t *testing.T) {
	got := Tokenize("Python python PYTHON")
	assert.Equal(t, []string{"python"}, got.Sorted())
}

func TestTokenize_Empty(t *testing.T) {
	assert.Equal(t, 0, Tokenize("").Len())
	assert.Equal(t, 0, Tokenize("   \n\t").Len())
}

func TestTokenize_HyphenOnlyInternal(t *testing.T) {
	got := Tokenize("-leading trailing- full-stack")
	assert.ElementsMatch(t, []string{"leading", "trailing", "full-stack"}, got.Sorted())
}

func TestScore_SelfSimilarityIsMaximal(t *testing.T) {
	text := "Senior Go engineer with PostgreSQL, Redis and Kubernetes experience"
	assert.Equal(t, 100.0, Score(text, text))
}

func TestScore_EmptyInputsScoreZero(t *testing.T) {
	assert.Equal(t, 0.0, Score("", "python developer"))
	assert.Equal(t, 0.0, Score("python developer", ""))
	assert.Equal(t, 0.0, Score("", ""))
}

func TestScore_OnlyStopWordsScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, Score("the and of", "is it a"))
	assert.Equal(t, 0.0, Score("the and of", "python developer"))
}

func TestScore_Disjoint(t *testing.T) {
	assert.Equal(t, 0.0, Score("python django", "kotlin android"))
}

func TestScore_PartialOverlap(t *testing.T) {
	s := Score("Python Django developer", "Senior Python Django Engineer")
	assert.Greater(t, s, 0.0)
	assert.Less(t, s, 100.0)
	assert.Equal(t, s, Score("Senior Python Django Engineer", "Python Django developer"))
}

func TestScore_RoundsToTwoDecimals(t *testing.T) {
	s := Score("go redis postgres docker", "go redis kafka")
	assert.InDelta(t, s, float64(int(s*100+0.5))/100, 1e-9)
}

func TestScore_LargeVocabularyIsCapped(t *testing.T) {
	var b strings.Builder
	for i := 0; i < MaxFeatures+500; i++ {
		fmt.Fprintf(&b, "term%d ", i)
	}
	text := b.String()
	assert.Equal(t, 100.0, Score(text, text))
}

func TestMissingKeywords_SubsetYieldsSentinel(t *testing.T) {
	ref := Tokenize("python django")
	cand := Tokenize("python django rest postgres")

	missing := MissingKeywords(ref, cand)
	assert.Empty(t, missing)
	assert.Equal(t, NoMissingKeywords, Suggestions(missing))
	assert.True(t, IsSentinel(Suggestions(missing)))
}

func TestMissingKeywords_AlphabeticalAndCapped(t *testing.T) {
	words := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		words = append(words, fmt.Sprintf("skill%02d", 29-i))
	}
	ref := Tokenize(strings.Join(words, " "))

	missing := MissingKeywords(ref, TokenSet{})
	require.Len(t, missing, MaxSuggestions)
	assert.Equal(t, "skill00", missing[0])
	assert.Equal(t, "skill11", missing[MaxSuggestions-1])
}

func TestSuggestions_JoinAndSplit(t *testing.T) {
	text := Suggestions([]string{"docker", "kubernetes"})
	assert.Equal(t, "docker, kubernetes", text)
	assert.False(t, IsSentinel(text))
	assert.Equal(t, []string{"docker", "kubernetes"}, SplitSuggestions(text))
	assert.Empty(t, SplitSuggestions(NoMissingKeywords))
	assert.Empty(t, SplitSuggestions(""))
}
