package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/persona"
	"github.com/easeaico/finadvisor/internal/types"
	"github.com/easeaico/finadvisor/internal/utils"
)

type fakeBackend struct {
	mu      sync.Mutex
	records map[string]*types.UserRecord
	saves   int
	saveErr error

	loadAllErr   error
	loadErr      error
	loadFailures int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{records: make(map[string]*types.UserRecord)}
}

func (f *fakeBackend) LoadAll(context.Context) (map[string]*types.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadAllErr != nil {
		return nil, f.loadAllErr
	}
	out := make(map[string]*types.UserRecord, len(f.records))
	for id, rec := range f.records {
		out[id] = rec.Clone()
	}
	return out, nil
}

func (f *fakeBackend) Load(_ context.Context, userID string) (*types.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadFailures > 0 {
		f.loadFailures--
		return nil, f.loadErr
	}
	rec, ok := f.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (f *fakeBackend) Save(_ context.Context, rec *types.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[rec.UserID] = rec.Clone()
	return nil
}

func (f *fakeBackend) Close(context.Context) error { return nil }

func newTestStore(t *testing.T, backend Backend, seed uint64) *Store {
	t.Helper()
	rnd := utils.NewRand(seed)
	catalog := persona.NewCatalog()
	s := NewStore(context.Background(), backend, analysis.NewAnalyzer(rnd), catalog, rnd)
	clock := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	s.nowFunc = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestGetOrCreateFreshRecord(t *testing.T) {
	s := newTestStore(t, newFakeBackend(), 1)

	rec, err := s.GetOrCreate(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", rec.UserID)
	assert.Equal(t, 0, rec.InteractionCount)
	assert.Equal(t, types.ExpertiseBeginner, rec.ExpertiseLevel)
	assert.Equal(t, types.PersonalityDefault, rec.PreferredPersonality)
	assert.Len(t, rec.PersonalityAffinity, 4)
	assert.Empty(t, rec.ConversationHistory)

	_, err = s.GetOrCreate(context.Background(), "")
	assert.Error(t, err)
}

func TestRecordTurnScenario(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend, 1)

	rec, err := s.RecordTurn(context.Background(), "42", "Eu tenho 35 anos e quero investir no longo prazo", "Ótimo! Vamos conversar.")
	require.NoError(t, err)

	assert.Equal(t, 1, rec.InteractionCount)
	assert.Equal(t, "35", rec.LongTerm.PersonalDetails[DetailAge])
	assert.Equal(t, []string{analysis.TopicInvestments}, rec.Topics)
	require.Len(t, rec.ConversationHistory, 1)
	assert.Equal(t, "Ótimo! Vamos conversar.", rec.ConversationHistory[0].BotText)
	assert.Equal(t, analysis.TopicInvestments, rec.Session.CurrentTopic)
	assert.False(t, rec.Session.TopicContinuity)
	assert.Equal(t, 1, backend.saves)
	assert.Equal(t, 1, backend.records["42"].InteractionCount)
}

func TestRecordTurnBoundsHistories(t *testing.T) {
	s := newTestStore(t, newFakeBackend(), 3)
	ctx := context.Background()

	var rec *types.UserRecord
	var err error
	for i := range 40 {
		rec, err = s.RecordTurn(ctx, "7", fmt.Sprintf("pergunta número %d sobre poupança", i), "resposta")
		require.NoError(t, err)
	}

	assert.Equal(t, 40, rec.InteractionCount)
	assert.Len(t, rec.ConversationHistory, types.MaxConversationHistory)
	assert.Len(t, rec.SentimentHistory, types.MaxSentimentHistory)
	assert.Equal(t, "pergunta número 39 sobre poupança", rec.ConversationHistory[len(rec.ConversationHistory)-1].UserText)
	assert.Equal(t, "pergunta número 25 sobre poupança", rec.ConversationHistory[0].UserText)
	assert.Equal(t, []string{analysis.TopicSavings}, rec.Topics)
	assert.True(t, rec.Session.TopicContinuity)
}

func TestSignificantTopicAfterThreeTurns(t *testing.T) {
	s := newTestStore(t, newFakeBackend(), 1)
	ctx := context.Background()

	rec, err := s.RecordTurn(ctx, "9", "como funciona a aposentadoria?", "ok")
	require.NoError(t, err)
	rec, err = s.RecordTurn(ctx, "9", "e a previdência privada?", "ok")
	require.NoError(t, err)
	assert.NotContains(t, rec.LongTerm.SignificantTopics, analysis.TopicRetirement)

	rec, err = s.RecordTurn(ctx, "9", "vale a pena um pgbl?", "ok")
	require.NoError(t, err)
	assert.Contains(t, rec.LongTerm.SignificantTopics, analysis.TopicRetirement)
}

func TestLongTermValuesAreNotOverwritten(t *testing.T) {
	s := newTestStore(t, newFakeBackend(), 1)
	ctx := context.Background()

	_, err := s.RecordTurn(ctx, "5", "tenho 35 anos", "ok")
	require.NoError(t, err)
	rec, err := s.RecordTurn(ctx, "5", "na verdade com 40 anos", "ok")
	require.NoError(t, err)
	assert.Equal(t, "35", rec.LongTerm.PersonalDetails[DetailAge])
}

func TestExtractGatedRules(t *testing.T) {
	short := types.LongTermMemory{PersonalDetails: map[string]string{}, Preferences: map[string]string{}}
	extractLongTerm("sou casado e tenho perfil conservador", &short)
	assert.Empty(t, short.PersonalDetails)
	assert.Empty(t, short.Preferences)

	long := types.LongTermMemory{PersonalDetails: map[string]string{}, Preferences: map[string]string{}}
	extractLongTerm("Sou casado, tenho dois filhos e um perfil conservador, meu objetivo é quitar o apartamento no longo prazo sem sustos", &long)
	assert.Equal(t, "casado", long.PersonalDetails[DetailMaritalStatus])
	assert.Equal(t, "dois", long.PersonalDetails[DetailChildren])
	assert.Equal(t, "conservador", long.Preferences[PreferenceRisk])
	assert.Equal(t, "longo prazo", long.Preferences[PreferenceHorizon])
	assert.Equal(t, "quitar o apartamento no longo prazo sem sustos", long.Preferences[PreferenceGoal])
}

func TestRecordTurnDeterministicWithSeed(t *testing.T) {
	messages := []string{
		"qual a diferença entre cdb e lci considerando a tributação e a liquidez para um horizonte de cinco anos com selic alta",
		"e como a duration afeta a marcação a mercado do tesouro ipca quando a curva de juros se move rapidamente",
		"faz sentido usar derivativos como hedge da carteira de investimentos em cenário de volatilidade e spread elevado",
		"uai, e fundos multimercado com taxa de performance valem a pena?",
	}
	run := func() *types.UserRecord {
		s := newTestStore(t, newFakeBackend(), 77)
		var rec *types.UserRecord
		for _, m := range messages {
			var err error
			rec, err = s.RecordTurn(context.Background(), "1", m, "ok")
			require.NoError(t, err)
		}
		return rec
	}

	a, b := run(), run()
	assert.Equal(t, a, b)
	assert.Equal(t, "minas", a.DetectedRegion)
}

func TestRecordTurnKeepsRecordWhenSaveFails(t *testing.T) {
	backend := newFakeBackend()
	backend.saveErr = errors.New("disk full")
	s := newTestStore(t, backend, 1)
	ctx := context.Background()

	rec, err := s.RecordTurn(ctx, "3", "quero investir", "ok")
	require.Error(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.InteractionCount)

	rec, err = s.RecordTurn(ctx, "3", "quero investir mais", "ok")
	require.Error(t, err)
	assert.Equal(t, 2, rec.InteractionCount)

	cached, err := s.GetOrCreate(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, 2, cached.InteractionCount)
}

func TestRecordTurnDoesNotOverwriteUnreadableRecord(t *testing.T) {
	backend := newFakeBackend()
	stored := types.NewUserRecord("u1", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), persona.NewCatalog().IDs())
	stored.InteractionCount = 42
	stored.LongTerm.PersonalDetails[DetailAge] = "35"
	backend.records["u1"] = stored
	backend.loadAllErr = errors.New("i/o timeout")
	backend.loadErr = errors.New("i/o timeout")
	backend.loadFailures = 1

	s := newTestStore(t, backend, 1)
	ctx := context.Background()
	require.Empty(t, s.Records())

	rec, err := s.RecordTurn(ctx, "u1", "quero investir", "ok")
	require.ErrorIs(t, err, ErrUnavailable)
	require.NotNil(t, rec)
	assert.Equal(t, 0, backend.saves)
	assert.Equal(t, 42, backend.records["u1"].InteractionCount)
	assert.Empty(t, s.Records(), "stand-in record is not cached")

	rec, err = s.RecordTurn(ctx, "u1", "quero investir mais", "ok")
	require.NoError(t, err)
	assert.Equal(t, 43, rec.InteractionCount)
	assert.Equal(t, "35", rec.LongTerm.PersonalDetails[DetailAge])
	assert.Equal(t, 43, backend.records["u1"].InteractionCount)
}

func TestRecordAnalyzedTurnUsesCallerAnalysis(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend, 1)

	an := types.Analysis{
		Sentiment:  types.SentimentPositive,
		Topics:     []string{analysis.TopicCrypto},
		Complexity: types.ComplexityMedium,
		Region:     "nordeste",
	}
	rec, err := s.RecordAnalyzedTurn(context.Background(), "r", "oi", "olá", an)
	require.NoError(t, err)
	assert.Equal(t, "nordeste", rec.DetectedRegion)
	assert.Equal(t, []string{analysis.TopicCrypto}, rec.Topics)
	require.Len(t, rec.ConversationHistory, 1)
	assert.Equal(t, types.SentimentPositive, rec.ConversationHistory[0].Sentiment)
}

func TestRecordTurnTimestampsAreUTCMilliseconds(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend, 1)
	local := time.FixedZone("BRT", -3*60*60)
	s.nowFunc = func() time.Time {
		return time.Date(2025, 3, 10, 11, 30, 0, 123456789, local)
	}

	rec, err := s.RecordTurn(context.Background(), "z", "quero investir", "ok")
	require.NoError(t, err)

	want := time.Date(2025, 3, 10, 14, 30, 0, 123000000, time.UTC)
	assert.Equal(t, want, rec.LastSeen)
	assert.Equal(t, time.UTC, rec.LastSeen.Location())
	require.Len(t, rec.SentimentHistory, 1)
	assert.Equal(t, want, rec.SentimentHistory[0].Timestamp)
	assert.Equal(t, want, rec.ConversationHistory[0].Timestamp)
}

func TestNewStoreWarmsFromBackend(t *testing.T) {
	backend := newFakeBackend()
	first := newTestStore(t, backend, 1)
	_, err := first.RecordTurn(context.Background(), "11", "quero investir", "ok")
	require.NoError(t, err)

	second := newTestStore(t, backend, 1)
	records := second.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "11", records[0].UserID)
	assert.Equal(t, 1, records[0].InteractionCount)
}

func TestGetOrCreateReturnsCopy(t *testing.T) {
	s := newTestStore(t, newFakeBackend(), 1)
	ctx := context.Background()
	_, err := s.RecordTurn(ctx, "8", "quero investir", "ok")
	require.NoError(t, err)

	rec, err := s.GetOrCreate(ctx, "8")
	require.NoError(t, err)
	rec.Topics = append(rec.Topics, "tampered")
	rec.LongTerm.PersonalDetails["x"] = "y"

	again, err := s.GetOrCreate(ctx, "8")
	require.NoError(t, err)
	assert.NotContains(t, again.Topics, "tampered")
	assert.NotContains(t, again.LongTerm.PersonalDetails, "x")
}

func TestConcurrentTurnsAreSerializedPerUser(t *testing.T) {
	s := newTestStore(t, newFakeBackend(), 1)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RecordTurn(ctx, "c", "quero poupar", "ok")
		}()
	}
	wg.Wait()

	rec, err := s.GetOrCreate(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 20, rec.InteractionCount)
}

func TestIntentChanged(t *testing.T) {
	s := newTestStore(t, newFakeBackend(), 1)
	ctx := context.Background()

	changed, err := s.DetectIntentChange(ctx, "u", "quero investir")
	require.NoError(t, err)
	assert.True(t, changed, "first turn")

	_, err = s.RecordTurn(ctx, "u", "quero investir em cdb pensando na minha reserva de emergência e também no longo prazo da família toda", "ok")
	require.NoError(t, err)

	changed, err = s.DetectIntentChange(ctx, "u", "e a liquidez do cdb?")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.DetectIntentChange(ctx, "u", "e bitcoin?")
	require.NoError(t, err)
	assert.True(t, changed, "disjoint topics")

	changed, err = s.DetectIntentChange(ctx, "u", "entendi")
	require.NoError(t, err)
	assert.True(t, changed, "short reply after long message")

	changed, err = s.DetectIntentChange(ctx, "u", "mudando de assunto, e o cdb?")
	require.NoError(t, err)
	assert.True(t, changed, "explicit topic shift with overlapping topics")

	changed, err = s.DetectIntentChange(ctx, "u", "something else about the cdb please")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestLongTermContext(t *testing.T) {
	s := newTestStore(t, newFakeBackend(), 1)
	ctx := context.Background()

	text, err := s.LongTermContext(ctx, "lt")
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = s.RecordTurn(ctx, "lt", "Eu tenho 35 anos e quero investir no longo prazo", "ok")
	require.NoError(t, err)

	text, err = s.LongTermContext(ctx, "lt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Perfil do usuário:"))
	assert.Contains(t, text, "idade: 35")
	assert.Contains(t, text, "Interações anteriores: 1")

	again, err := s.LongTermContext(ctx, "lt")
	require.NoError(t, err)
	assert.Equal(t, text, again)
}

func TestSummary(t *testing.T) {
	s := newTestStore(t, newFakeBackend(), 1)
	ctx := context.Background()

	text, err := s.Summary(ctx, "sum", false)
	require.NoError(t, err)
	assert.Equal(t, noHistoryMessage, text)

	long := strings.Repeat("a", 150)
	for _, q := range []string{"quero investir", "e a poupança?", "e o imposto?", "e o bitcoin?"} {
		_, err = s.RecordTurn(ctx, "sum", q, long)
		require.NoError(t, err)
	}

	text, err = s.Summary(ctx, "sum", false)
	require.NoError(t, err)
	assert.Contains(t, text, "Resumo das conversas recentes")
	assert.NotContains(t, text, "quero investir")
	assert.Contains(t, text, "e o bitcoin?")
	assert.Contains(t, text, strings.Repeat("a", 100)+"...")
	assert.Contains(t, text, "Total de interações: 4")

	detailed, err := s.Summary(ctx, "sum", true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(detailed, text))
	assert.Contains(t, detailed, "Afinidade de estilo")
}
