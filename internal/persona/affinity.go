package persona

import (
	"slices"

	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/types"
)

const (
	technicalIncrement = 1.0
	friendlyIncrement  = 0.5
	mentorIncrement    = 1.0
)

var mentorTopics = []string{
	analysis.TopicPlanning,
	analysis.TopicRetirement,
	analysis.TopicFinancialEducation,
}

// Affinity accumulates long-term personality scores.
type Affinity struct {
	catalog *Catalog
}

// NewAffinity returns an Affinity over catalog.
func NewAffinity(catalog *Catalog) *Affinity {
	return &Affinity{catalog: catalog}
}

// Update returns scores incremented for one analyzed message. Scores never
// decrease and unknown ids are dropped.
func (a *Affinity) Update(scores map[types.PersonalityID]float64, an types.Analysis) map[types.PersonalityID]float64 {
	next := make(map[types.PersonalityID]float64, len(scores))
	for _, id := range a.catalog.IDs() {
		next[id] = max(scores[id], 0)
	}

	if an.Complexity == types.ComplexityComplex {
		next[types.PersonalityTechnical] += technicalIncrement
	}
	if an.Sentiment.IsPositive() {
		next[types.PersonalityFriendly] += friendlyIncrement
	}
	for _, topic := range an.Topics {
		if slices.Contains(mentorTopics, topic) {
			next[types.PersonalityMentor] += mentorIncrement
			break
		}
	}
	return next
}

// Preferred returns the highest scoring personality. Ties go to the
// earliest id in catalog priority order.
func (a *Affinity) Preferred(scores map[types.PersonalityID]float64) types.PersonalityID {
	ids := a.catalog.IDs()
	best := ids[0]
	for _, id := range ids[1:] {
		if scores[id] > scores[best] {
			best = id
		}
	}
	return best
}
