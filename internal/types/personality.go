package types

// PersonalityID identifies a catalog profile.
type PersonalityID string

const (
	PersonalityTechnical PersonalityID = "technical"
	PersonalityFriendly  PersonalityID = "friendly"
	PersonalityMentor    PersonalityID = "mentor"
	PersonalityDefault   PersonalityID = "default"
)

// PersonalityProfile is an immutable speaking style.
type PersonalityProfile struct {
	ID               PersonalityID
	Name             string
	Tone             string
	Formality        int
	SignaturePhrases []string
	CasualWords      []string
	Interjections    []string
	// Keywords are the selector vocabulary that votes for this profile.
	Keywords []string
}

// SearchResult is one web result folded into the prompt.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Rand is the random source used by every stylistic decision.
type Rand interface {
	Float64() float64
	IntN(n int) int
}
