// Package memory keeps the durable per-user conversation record.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/persona"
	"github.com/easeaico/finadvisor/internal/types"
)

const (
	significantTopicTurns = 3
	promotionWindow       = 5
	promotionComplexTurns = 2
	promotionChance       = 0.2
)

// ErrNotFound is returned by a Backend when no record exists for a user.
var ErrNotFound = errors.New("user record not found")

// ErrUnavailable reports that the stored record could not be read. The turn
// is applied to a temporary record that is neither cached nor saved, so the
// stored one is never overwritten.
var ErrUnavailable = errors.New("user record unavailable")

// Backend persists user records. Implementations must make Save of a single
// record atomic; the Store guarantees one writer per user at a time.
type Backend interface {
	LoadAll(ctx context.Context) (map[string]*types.UserRecord, error)
	Load(ctx context.Context, userID string) (*types.UserRecord, error)
	Save(ctx context.Context, rec *types.UserRecord) error
	Close(ctx context.Context) error
}

// Store is the user memory service. Records are held in memory and written
// through to the backend after every mutation.
type Store struct {
	backend  Backend
	analyzer *analysis.Analyzer
	affinity *persona.Affinity
	catalog  *persona.Catalog
	rnd      types.Rand
	nowFunc  func() time.Time
	locks    *keyedMutex

	mu      sync.RWMutex
	records map[string]*types.UserRecord
}

// NewStore returns a Store and warms it from backend. A failing warm-up is
// logged and the store starts empty.
func NewStore(ctx context.Context, backend Backend, analyzer *analysis.Analyzer, catalog *persona.Catalog, rnd types.Rand) *Store {
	s := &Store{
		backend:  backend,
		analyzer: analyzer,
		affinity: persona.NewAffinity(catalog),
		catalog:  catalog,
		rnd:      rnd,
		nowFunc:  time.Now,
		locks:    newKeyedMutex(),
		records:  make(map[string]*types.UserRecord),
	}

	all, err := backend.LoadAll(ctx)
	if err != nil {
		slog.Error("failed to load user memory", "error", err.Error())
		return s
	}
	for id, rec := range all {
		rec.UserID = id
		rec.Normalize(catalog.IDs())
		s.records[id] = rec
	}
	slog.Info("user memory loaded", "users", len(s.records))
	return s
}

// GetOrCreate returns a copy of the user's record, creating a fresh one on
// first contact. Fresh records are not persisted until the first turn.
func (s *Store) GetOrCreate(ctx context.Context, userID string) (*types.UserRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	rec, _ := s.load(ctx, userID)
	return rec.Clone(), nil
}

// RecordTurn analyzes userText and records the exchange.
func (s *Store) RecordTurn(ctx context.Context, userID, userText, botText string) (*types.UserRecord, error) {
	return s.RecordAnalyzedTurn(ctx, userID, userText, botText, s.analyzer.Analyze(userText))
}

// RecordAnalyzedTurn applies one exchange, already analyzed by the caller, to
// the user's record and persists it. The returned record is valid even when
// err reports a storage failure.
func (s *Store) RecordAnalyzedTurn(ctx context.Context, userID, userText, botText string, an types.Analysis) (*types.UserRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	live, loadErr := s.load(ctx, userID)
	rec := live.Clone()
	now := s.now()
	prev, hadPrev := rec.LastTurn()

	rec.LastSeen = now
	rec.InteractionCount++

	rec.SentimentHistory = types.TrimFront(append(rec.SentimentHistory, types.SentimentEntry{
		Timestamp: now,
		Sentiment: an.Sentiment,
	}), types.MaxSentimentHistory)
	rec.ConversationHistory = types.TrimFront(append(rec.ConversationHistory, types.Turn{
		Timestamp:  now,
		UserText:   userText,
		BotText:    botText,
		Sentiment:  an.Sentiment,
		Topics:     slices.Clone(an.Topics),
		Complexity: an.Complexity,
	}), types.MaxConversationHistory)

	rec.Topics = types.AddUnique(rec.Topics, an.Topics...)
	rec.LongTerm.SignificantTopics = types.AddUnique(rec.LongTerm.SignificantTopics, significantTopics(rec.ConversationHistory)...)

	if an.Region != "" {
		rec.DetectedRegion = an.Region
	}

	extractLongTerm(userText, &rec.LongTerm)

	rec.PersonalityAffinity = s.affinity.Update(rec.PersonalityAffinity, an)
	rec.PreferredPersonality = s.affinity.Preferred(rec.PersonalityAffinity)

	s.maybePromote(rec, an.Complexity)

	if len(an.Topics) > 0 {
		rec.Session.CurrentTopic = an.Topics[0]
	}
	rec.Session.TopicContinuity = hadPrev && overlaps(prev.Topics, an.Topics)
	rec.Session.LastSentiment = an.Sentiment

	if loadErr != nil {
		return rec.Clone(), loadErr
	}

	s.mu.Lock()
	s.records[userID] = rec
	s.mu.Unlock()

	if err := s.backend.Save(ctx, rec); err != nil {
		slog.Error("failed to persist user record, keeping in memory", "user_id", userID, "error", err.Error())
		return rec.Clone(), fmt.Errorf("failed to save user record: %w", err)
	}
	return rec.Clone(), nil
}

// Records returns copies of every known record, ordered by user id.
func (s *Store) Records() []*types.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*types.UserRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].Clone())
	}
	return out
}

// Close releases the backend.
func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}

// load returns the live record for userID. Callers hold the user lock. When
// the backend fails the returned record is a fresh, uncached stand-in and the
// error wraps ErrUnavailable; the next call retries the backend.
func (s *Store) load(ctx context.Context, userID string) (*types.UserRecord, error) {
	s.mu.RLock()
	rec, ok := s.records[userID]
	s.mu.RUnlock()
	if ok {
		return rec, nil
	}

	rec, err := s.backend.Load(ctx, userID)
	switch {
	case err == nil && rec != nil:
		rec.UserID = userID
		rec.Normalize(s.catalog.IDs())
	case err == nil, errors.Is(err, ErrNotFound):
		rec = types.NewUserRecord(userID, s.now(), s.catalog.IDs())
	default:
		slog.Error("failed to load user record", "user_id", userID, "error", err.Error())
		return types.NewUserRecord(userID, s.now(), s.catalog.IDs()), fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.mu.Lock()
	s.records[userID] = rec
	s.mu.Unlock()
	return rec, nil
}

// now is the store clock in UTC at millisecond precision, the finest every
// backend keeps.
func (s *Store) now() time.Time {
	return s.nowFunc().UTC().Truncate(time.Millisecond)
}

// maybePromote raises expertise with a small probability when complex
// questions repeat within the recent turns.
func (s *Store) maybePromote(rec *types.UserRecord, current types.Complexity) {
	if current != types.ComplexityComplex || rec.ExpertiseLevel == types.ExpertiseAdvanced {
		return
	}
	recent := rec.ConversationHistory[max(0, len(rec.ConversationHistory)-promotionWindow):]
	complexTurns := 0
	for _, t := range recent {
		if t.Complexity == types.ComplexityComplex {
			complexTurns++
		}
	}
	if complexTurns >= promotionComplexTurns && s.rnd.Float64() < promotionChance {
		rec.ExpertiseLevel = rec.ExpertiseLevel.Next()
	}
}

// significantTopics returns topics present in at least three stored turns,
// in order of first appearance.
func significantTopics(history []types.Turn) []string {
	counts := make(map[string]int)
	var order []string
	for _, t := range history {
		for _, topic := range t.Topics {
			if counts[topic] == 0 {
				order = append(order, topic)
			}
			counts[topic]++
		}
	}
	var out []string
	for _, topic := range order {
		if counts[topic] >= significantTopicTurns {
			out = append(out, topic)
		}
	}
	return out
}

func overlaps(a, b []string) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}
