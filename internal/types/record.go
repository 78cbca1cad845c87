package types

import (
	"slices"
	"time"
)

const (
	// MaxSentimentHistory bounds UserRecord.SentimentHistory.
	MaxSentimentHistory = 20
	// MaxConversationHistory bounds UserRecord.ConversationHistory.
	MaxConversationHistory = 15
)

// Sentiment is a five-bucket polarity label.
type Sentiment string

const (
	SentimentVeryPositive Sentiment = "very_positive"
	SentimentPositive     Sentiment = "positive"
	SentimentNeutral      Sentiment = "neutral"
	SentimentNegative     Sentiment = "negative"
	SentimentVeryNegative Sentiment = "very_negative"
)

// IsPositive reports whether s is positive or very positive.
func (s Sentiment) IsPositive() bool {
	return s == SentimentPositive || s == SentimentVeryPositive
}

// IsNegative reports whether s is negative or very negative.
func (s Sentiment) IsNegative() bool {
	return s == SentimentNegative || s == SentimentVeryNegative
}

// Complexity classifies how demanding a question is.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Rank orders complexities from simple (0) to complex (2).
func (c Complexity) Rank() int {
	switch c {
	case ComplexityComplex:
		return 2
	case ComplexityMedium:
		return 1
	default:
		return 0
	}
}

// Expertise is the user's estimated financial literacy.
type Expertise string

const (
	ExpertiseBeginner     Expertise = "beginner"
	ExpertiseIntermediate Expertise = "intermediate"
	ExpertiseAdvanced     Expertise = "advanced"
)

// Next returns the level above e, or e itself at the top.
func (e Expertise) Next() Expertise {
	switch e {
	case ExpertiseBeginner:
		return ExpertiseIntermediate
	case ExpertiseIntermediate:
		return ExpertiseAdvanced
	default:
		return e
	}
}

func (e Expertise) valid() bool {
	return e == ExpertiseBeginner || e == ExpertiseIntermediate || e == ExpertiseAdvanced
}

// Analysis is the combined output of the text analyzer for one message.
type Analysis struct {
	Sentiment  Sentiment
	Topics     []string
	Complexity Complexity
	Region     string
}

// Turn is one stored exchange.
type Turn struct {
	Timestamp  time.Time  `json:"timestamp" bson:"timestamp"`
	UserText   string     `json:"user_text" bson:"user_text"`
	BotText    string     `json:"bot_text" bson:"bot_text"`
	Sentiment  Sentiment  `json:"sentiment" bson:"sentiment"`
	Topics     []string   `json:"topics" bson:"topics"`
	Complexity Complexity `json:"complexity" bson:"complexity"`
}

// SentimentEntry is one point of the sentiment history.
type SentimentEntry struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Sentiment Sentiment `json:"sentiment" bson:"sentiment"`
}

// LongTermMemory holds facts that outlive the bounded histories.
type LongTermMemory struct {
	PersonalDetails   map[string]string `json:"personal_details" bson:"personal_details"`
	Preferences       map[string]string `json:"preferences" bson:"preferences"`
	SignificantTopics []string          `json:"significant_topics" bson:"significant_topics"`
}

// SessionData is the short-lived conversational state.
type SessionData struct {
	CurrentTopic    string    `json:"current_topic" bson:"current_topic"`
	TopicContinuity bool      `json:"topic_continuity" bson:"topic_continuity"`
	LastSentiment   Sentiment `json:"last_sentiment" bson:"last_sentiment"`
}

// UserRecord is the durable per-user state.
type UserRecord struct {
	UserID               string                    `json:"user_id" bson:"_id"`
	FirstSeen            time.Time                 `json:"first_seen" bson:"first_seen"`
	LastSeen             time.Time                 `json:"last_seen" bson:"last_seen"`
	InteractionCount     int                       `json:"interaction_count" bson:"interaction_count"`
	Topics               []string                  `json:"topics" bson:"topics"`
	DetectedRegion       string                    `json:"detected_region,omitempty" bson:"detected_region,omitempty"`
	ExpertiseLevel       Expertise                 `json:"expertise_level" bson:"expertise_level"`
	SentimentHistory     []SentimentEntry          `json:"sentiment_history" bson:"sentiment_history"`
	ConversationHistory  []Turn                    `json:"conversation_history" bson:"conversation_history"`
	PersonalityAffinity  map[PersonalityID]float64 `json:"personality_affinity" bson:"personality_affinity"`
	PreferredPersonality PersonalityID             `json:"preferred_personality" bson:"preferred_personality"`
	LongTerm             LongTermMemory            `json:"long_term_memory" bson:"long_term_memory"`
	Session              SessionData               `json:"session_data" bson:"session_data"`
}

// NewUserRecord returns a zeroed record for userID.
func NewUserRecord(userID string, now time.Time, personalities []PersonalityID) *UserRecord {
	rec := &UserRecord{
		UserID:    userID,
		FirstSeen: now,
		LastSeen:  now,
	}
	rec.Normalize(personalities)
	return rec
}

// Normalize fills defaults for fields missing from a stored record and
// re-establishes the collection invariants.
func (r *UserRecord) Normalize(personalities []PersonalityID) {
	if r.Topics == nil {
		r.Topics = []string{}
	}
	r.Topics = dedup(r.Topics)
	if !r.ExpertiseLevel.valid() {
		r.ExpertiseLevel = ExpertiseBeginner
	}
	if r.SentimentHistory == nil {
		r.SentimentHistory = []SentimentEntry{}
	}
	if r.ConversationHistory == nil {
		r.ConversationHistory = []Turn{}
	}
	r.SentimentHistory = TrimFront(r.SentimentHistory, MaxSentimentHistory)
	r.ConversationHistory = TrimFront(r.ConversationHistory, MaxConversationHistory)

	affinity := make(map[PersonalityID]float64, len(personalities))
	for _, id := range personalities {
		score := r.PersonalityAffinity[id]
		if score < 0 {
			score = 0
		}
		affinity[id] = score
	}
	r.PersonalityAffinity = affinity
	if _, ok := affinity[r.PreferredPersonality]; !ok && len(personalities) > 0 {
		r.PreferredPersonality = personalities[0]
		if _, hasDefault := affinity[PersonalityDefault]; hasDefault {
			r.PreferredPersonality = PersonalityDefault
		}
	}

	if r.LongTerm.PersonalDetails == nil {
		r.LongTerm.PersonalDetails = map[string]string{}
	}
	if r.LongTerm.Preferences == nil {
		r.LongTerm.Preferences = map[string]string{}
	}
	if r.LongTerm.SignificantTopics == nil {
		r.LongTerm.SignificantTopics = []string{}
	}
	r.LongTerm.SignificantTopics = dedup(r.LongTerm.SignificantTopics)
	if r.Session.LastSentiment == "" {
		r.Session.LastSentiment = SentimentNeutral
	}
}

// Clone returns a deep copy of r.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Topics = slices.Clone(r.Topics)
	out.SentimentHistory = slices.Clone(r.SentimentHistory)
	out.ConversationHistory = make([]Turn, len(r.ConversationHistory))
	for i, t := range r.ConversationHistory {
		t.Topics = slices.Clone(t.Topics)
		out.ConversationHistory[i] = t
	}
	out.PersonalityAffinity = make(map[PersonalityID]float64, len(r.PersonalityAffinity))
	for k, v := range r.PersonalityAffinity {
		out.PersonalityAffinity[k] = v
	}
	out.LongTerm.PersonalDetails = cloneMap(r.LongTerm.PersonalDetails)
	out.LongTerm.Preferences = cloneMap(r.LongTerm.Preferences)
	out.LongTerm.SignificantTopics = slices.Clone(r.LongTerm.SignificantTopics)
	return &out
}

// LastTurn returns the most recent stored turn.
func (r *UserRecord) LastTurn() (Turn, bool) {
	if len(r.ConversationHistory) == 0 {
		return Turn{}, false
	}
	return r.ConversationHistory[len(r.ConversationHistory)-1], true
}

// TrimFront keeps at most the last limit elements of items.
func TrimFront[T any](items []T, limit int) []T {
	if len(items) <= limit {
		return items
	}
	return slices.Clone(items[len(items)-limit:])
}

// AddUnique appends values missing from set, preserving order.
func AddUnique(set []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !slices.Contains(set, v) {
			set = append(set, v)
		}
	}
	return set
}

func dedup(items []string) []string {
	return AddUnique(make([]string, 0, len(items)), items...)
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
