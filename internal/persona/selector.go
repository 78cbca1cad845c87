package persona

import (
	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/types"
)

const (
	baseFormality = 2
	minFormality  = 0
	maxFormality  = 4
)

// Selector picks the personality for a single message.
type Selector struct {
	catalog *Catalog
}

// NewSelector returns a Selector over catalog.
func NewSelector(catalog *Catalog) *Selector {
	return &Selector{catalog: catalog}
}

// Select returns the personality for text given its complexity.
// It does not look at the user's long-term affinity.
func (s *Selector) Select(text string, complexity types.Complexity) types.PersonalityID {
	technical := analysis.CountKeywords(text, s.catalog.Profile(types.PersonalityTechnical).Keywords)
	friendly := analysis.CountKeywords(text, s.catalog.Profile(types.PersonalityFriendly).Keywords)
	mentor := analysis.CountKeywords(text, s.catalog.Profile(types.PersonalityMentor).Keywords)

	switch {
	case complexity == types.ComplexityComplex || technical >= 2:
		return types.PersonalityTechnical
	case friendly >= 2 || complexity == types.ComplexitySimple:
		return types.PersonalityFriendly
	case mentor >= 2:
		return types.PersonalityMentor
	default:
		return types.PersonalityDefault
	}
}

// Formality returns the register level in [0,4]; higher is more formal.
func Formality(sentiment types.Sentiment, complexity types.Complexity) int {
	level := baseFormality
	switch {
	case sentiment.IsPositive():
		level--
	case sentiment.IsNegative():
		level++
	}
	switch complexity {
	case types.ComplexityComplex:
		level++
	case types.ComplexitySimple:
		level--
	}
	return ClampFormality(level)
}

// ClampFormality bounds level to 0-4.
func ClampFormality(level int) int {
	switch {
	case level < minFormality:
		return minFormality
	case level > maxFormality:
		return maxFormality
	default:
		return level
	}
}
