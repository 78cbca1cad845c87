package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/cache"
	"github.com/easeaico/finadvisor/internal/memory"
	"github.com/easeaico/finadvisor/internal/metrics"
	"github.com/easeaico/finadvisor/internal/models"
	"github.com/easeaico/finadvisor/internal/persona"
	"github.com/easeaico/finadvisor/internal/types"
	"github.com/easeaico/finadvisor/internal/utils"
)

type memBackend struct {
	mu      sync.Mutex
	records map[string]*types.UserRecord
	saveErr error
}

func (m *memBackend) LoadAll(context.Context) (map[string]*types.UserRecord, error) {
	return map[string]*types.UserRecord{}, nil
}

func (m *memBackend) Load(_ context.Context, userID string) (*types.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, memory.ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *memBackend) Save(_ context.Context, rec *types.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[rec.UserID] = rec.Clone()
	return nil
}

func (m *memBackend) Close(context.Context) error { return nil }

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	panics  bool
	calls   int
	systems []string
	users   []string
}

func (f *fakeGenerator) Generate(_ context.Context, system, user string, _ models.Params) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	if f.panics {
		panic("model exploded")
	}
	return f.reply, f.err
}

type fakeSearcher struct {
	results []types.SearchResult
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, _ string, query string, _ int) []types.SearchResult {
	f.queries = append(f.queries, query)
	return f.results
}

type fixture struct {
	advisor  *Advisor
	llm      *fakeGenerator
	searcher *fakeSearcher
	store    *memory.Store
	backend  *memBackend
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rnd := utils.NewRand(11)
	catalog := persona.NewCatalog()
	analyzer := analysis.NewAnalyzer(rnd)
	backend := &memBackend{records: make(map[string]*types.UserRecord)}
	store := memory.NewStore(context.Background(), backend, analyzer, catalog, rnd)
	llm := &fakeGenerator{reply: "A taxa Selic subiu e a renda fixa ficou mais atrativa."}
	searcher := &fakeSearcher{}
	m := metrics.New(prometheus.NewRegistry())

	a := New(Deps{
		Memory:   store,
		Cache:    cache.New(time.Hour),
		Analyzer: analyzer,
		Catalog:  catalog,
		Rand:     rnd,
		LLM:      llm,
		Search:   searcher,
		Metrics:  m,
	}, Options{})
	return &fixture{advisor: a, llm: llm, searcher: searcher, store: store, backend: backend, metrics: m}
}

func TestHandleTurnRecordsAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.advisor.HandleTurn(ctx, "42", "Quanto rende o Tesouro Selic?")
	assert.Contains(t, first, "renda fixa ficou mais atrativa")
	assert.Equal(t, 1, f.llm.calls)

	rec, err := f.store.GetOrCreate(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.InteractionCount)
	assert.Equal(t, first, rec.ConversationHistory[0].BotText)

	second := f.advisor.HandleTurn(ctx, "42", "  quanto rende o tesouro selic?  ")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.llm.calls)

	rec, err = f.store.GetOrCreate(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.InteractionCount)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Turns.WithLabelValues(metrics.OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Turns.WithLabelValues(metrics.OutcomeCached)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("hit")), 0)
}

func TestHandleTurnCacheIsPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.advisor.HandleTurn(ctx, "1", "O que é CDB?")
	f.advisor.HandleTurn(ctx, "2", "O que é CDB?")
	assert.Equal(t, 2, f.llm.calls)
}

func TestHandleTurnLLMFailure(t *testing.T) {
	f := newFixture(t)
	f.llm.err = errors.New("upstream unavailable")
	ctx := context.Background()

	got := f.advisor.HandleTurn(ctx, "42", "Vale a pena investir em ações?")
	assert.Equal(t, Apology, got)

	rec, err := f.store.GetOrCreate(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.InteractionCount)
	assert.Empty(t, f.backend.records)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Turns.WithLabelValues(metrics.OutcomeLLMError)), 0)

	// failures are not cached
	f.llm.err = nil
	got = f.advisor.HandleTurn(ctx, "42", "Vale a pena investir em ações?")
	assert.NotEqual(t, Apology, got)
	assert.Equal(t, 2, f.llm.calls)
}

func TestHandleTurnEmptyReplyIsFailure(t *testing.T) {
	f := newFixture(t)
	f.llm.reply = "   "
	assert.Equal(t, Apology, f.advisor.HandleTurn(context.Background(), "42", "Oi"))
}

func TestHandleTurnRecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.llm.panics = true

	got := f.advisor.HandleTurn(context.Background(), "42", "O que é um FII?")
	assert.Equal(t, Apology, got)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Turns.WithLabelValues(metrics.OutcomePanic)), 0)
}

func TestHandleTurnStorageFailureStillAnswers(t *testing.T) {
	f := newFixture(t)
	f.backend.saveErr = errors.New("disk full")
	ctx := context.Background()

	got := f.advisor.HandleTurn(ctx, "42", "Como montar uma reserva de emergência?")
	assert.NotEqual(t, Apology, got)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.StorageErrors), 0)

	rec, err := f.store.GetOrCreate(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.InteractionCount)
}

func TestHandleTurnWebSearchAuto(t *testing.T) {
	f := newFixture(t)
	f.searcher.results = []types.SearchResult{{Title: "Copom eleva Selic", URL: "https://example.com/selic", Summary: "A Selic foi a 14,25%."}}

	f.advisor.HandleTurn(context.Background(), "42", "Qual a taxa Selic atual hoje?")
	require.Len(t, f.searcher.queries, 1)
	assert.Equal(t, "finanças Qual a taxa Selic atual hoje? brasil atual", f.searcher.queries[0])
	assert.Contains(t, f.llm.systems[0], "Copom eleva Selic")

	f.advisor.HandleTurn(context.Background(), "42", "O que é diversificação?")
	assert.Len(t, f.searcher.queries, 1)
	assert.NotContains(t, f.llm.systems[1], "Copom eleva Selic")
}

func TestHandleTurnDetailsContext(t *testing.T) {
	f := newFixture(t)
	f.advisor.HandleTurn(context.Background(), "42", "Explique em detalhes como funciona o Tesouro IPCA")
	require.Len(t, f.llm.systems, 1)
	assert.Contains(t, f.llm.systems[0], "Contexto adicional: "+detailsContext)
}

func TestHandleTurnIncludesProfileAfterFirstTurn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.advisor.HandleTurn(ctx, "42", "Eu tenho 35 anos e quero investir no longo prazo")
	assert.NotContains(t, f.llm.systems[0], "Perfil do usuário")

	f.advisor.HandleTurn(ctx, "42", "E sobre fundos imobiliários?")
	assert.Contains(t, f.llm.systems[1], "Perfil do usuário")
	assert.Contains(t, f.llm.systems[1], "idade: 35")
}

func TestQuickActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, UnknownAction, f.advisor.HandleQuickAction(ctx, "42", "lottery"))
	assert.Equal(t, AskSearchQuery, f.advisor.HandleQuickAction(ctx, "42", ActionWebSearch))
	assert.Equal(t, 0, f.llm.calls)

	f.advisor.HandleQuickAction(ctx, "42", ActionCrypto)
	require.Equal(t, 1, f.llm.calls)
	prompt, ok := QuickActionPrompt(ActionCrypto)
	require.True(t, ok)
	assert.Equal(t, prompt, f.llm.users[0])
	assert.Contains(t, f.llm.systems[0], complexTopicContext)

	f.advisor.HandleQuickAction(ctx, "42", ActionNews)
	assert.Len(t, f.searcher.queries, 1)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.QuickActions.WithLabelValues("unknown")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.QuickActions.WithLabelValues(ActionNews)), 0)
}

func TestHandleWebSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, NoSearchResults, f.advisor.HandleWebSearch(ctx, "42", "dólar"))
	assert.Equal(t, 0, f.llm.calls)

	f.searcher.results = []types.SearchResult{{Title: "Dólar fecha em queda", URL: "https://example.com/dolar", Summary: "Moeda recuou 1%."}}
	got := f.advisor.HandleWebSearch(ctx, "42", "dólar")
	assert.NotEqual(t, Apology, got)
	assert.Equal(t, []string{"finanças dólar brasil atual", "finanças dólar brasil atual"}, f.searcher.queries)
	assert.Equal(t, "Com base nas informações recentes sobre 'dólar'", f.llm.users[0])
	assert.Contains(t, f.llm.systems[0], "Dólar fecha em queda")

	again := f.advisor.HandleWebSearch(ctx, "42", "  dólar ")
	assert.Equal(t, got, again)
	assert.Len(t, f.searcher.queries, 2, "repeated search is answered from the cache")
	assert.Equal(t, 1, f.llm.calls)
}

func TestWelcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fresh := f.advisor.Welcome(ctx, "42", "Ana")
	assert.True(t, strings.HasPrefix(fresh, "Olá, Ana! 👋\n\nSou Paulo"))

	f.advisor.HandleTurn(ctx, "42", "Quero começar a investir em renda fixa")
	back := f.advisor.Welcome(ctx, "42", "")
	assert.True(t, strings.HasPrefix(back, "Olá! 👋\n\nQue bom ter você de volta."))
	assert.Contains(t, back, "renda fixa")
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Contains(t, f.advisor.Summary(ctx, "42", false), "Não há histórico")
	f.advisor.HandleTurn(ctx, "42", "Como funciona a previdência privada?")
	got := f.advisor.Summary(ctx, "42", true)
	assert.Contains(t, got, "Total de interações: 1")
}
