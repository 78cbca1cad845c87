// Package analysis implements the lightweight PT-BR text heuristics used to
// track users: sentiment, topics, question complexity and regional dialect.
package analysis

import (
	"slices"
	"strings"
	"unicode"

	"github.com/easeaico/finadvisor/internal/types"
)

const (
	complexWordCount = 20
	mediumWordCount  = 10
)

// Analyzer classifies user messages. It holds no state besides the random
// source used for region tie-breaks.
type Analyzer struct {
	rnd types.Rand
}

// NewAnalyzer returns an Analyzer drawing tie-breaks from rnd.
func NewAnalyzer(rnd types.Rand) *Analyzer {
	return &Analyzer{rnd: rnd}
}

// Analyze runs every classifier on text.
func (a *Analyzer) Analyze(text string) types.Analysis {
	return types.Analysis{
		Sentiment:  a.Sentiment(text),
		Topics:     a.Topics(text),
		Complexity: a.Complexity(text),
		Region:     a.Region(text),
	}
}

// Sentiment returns the sentiment bucket of text. Empty input is neutral.
func (a *Analyzer) Sentiment(text string) types.Sentiment {
	if strings.TrimSpace(text) == "" {
		return types.SentimentNeutral
	}
	return bucket(compoundScore(text))
}

// Topics returns the topic tags whose keywords occur in text.
func (a *Analyzer) Topics(text string) []string {
	lower := strings.ToLower(text)
	topics := []string{}
	for _, entry := range topicVocabulary {
		if containsAny(lower, entry.keywords) {
			topics = append(topics, entry.topic)
		}
	}
	return topics
}

// Complexity classifies how demanding the question is.
func (a *Analyzer) Complexity(text string) types.Complexity {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return types.ComplexitySimple
	}

	words := len(strings.Fields(lower))
	technical := TechnicalTermCount(lower)
	switch {
	case containsAny(lower, detailKeywords), technical >= 2, words > complexWordCount:
		return types.ComplexityComplex
	case technical >= 1, words > mediumWordCount:
		return types.ComplexityMedium
	default:
		return types.ComplexitySimple
	}
}

// Region returns the regional dialect with the most marker hits, or "".
// Ties are broken uniformly at random among the tied regions.
func (a *Analyzer) Region(text string) string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return ""
	}

	best := 0
	var tied []string
	for region, markers := range regionMarkers {
		hits := 0
		for _, marker := range markers {
			hits += countTokenRun(tokens, strings.Fields(marker))
		}
		switch {
		case hits == 0:
		case hits > best:
			best = hits
			tied = []string{region}
		case hits == best:
			tied = append(tied, region)
		}
	}

	switch len(tied) {
	case 0:
		return ""
	case 1:
		return tied[0]
	}
	slices.Sort(tied)
	if a.rnd == nil {
		return tied[0]
	}
	return tied[a.rnd.IntN(len(tied))]
}

// NeedsWebSearch reports whether text asks for current market data.
func NeedsWebSearch(text string) bool {
	return containsAny(strings.ToLower(text), searchKeywords)
}

// WantsDetails reports whether text explicitly asks for a detailed answer.
func WantsDetails(text string) bool {
	return containsAny(strings.ToLower(text), detailKeywords)
}

// TechnicalTermCount returns how many distinct technical terms occur in text.
func TechnicalTermCount(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}

// CountKeywords returns how many of keywords occur in text as whole words,
// case-insensitively.
func CountKeywords(text string, keywords []string) int {
	tokens := tokenize(text)
	count := 0
	for _, kw := range keywords {
		if countTokenRun(tokens, strings.Fields(kw)) > 0 {
			count++
		}
	}
	return count
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// tokenize lower-cases text and splits it on anything that is not a letter,
// digit, hyphen or slash.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '/'
	})
}

func countTokenRun(tokens, run []string) int {
	if len(run) == 0 || len(run) > len(tokens) {
		return 0
	}
	count := 0
	for i := 0; i+len(run) <= len(tokens); i++ {
		if slices.Equal(tokens[i:i+len(run)], run) {
			count++
		}
	}
	return count
}
