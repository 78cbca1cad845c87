// Package agent runs the advisor's conversation pipeline.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/cache"
	"github.com/easeaico/finadvisor/internal/logging"
	"github.com/easeaico/finadvisor/internal/memory"
	"github.com/easeaico/finadvisor/internal/metrics"
	"github.com/easeaico/finadvisor/internal/models"
	"github.com/easeaico/finadvisor/internal/persona"
	"github.com/easeaico/finadvisor/internal/prompt"
	"github.com/easeaico/finadvisor/internal/search"
	"github.com/easeaico/finadvisor/internal/types"
	"github.com/easeaico/finadvisor/internal/utils"
)

// Apology is returned whenever a turn cannot produce an answer.
const Apology = "Ops! Tive um problema ao processar sua pergunta. Pode tentar novamente?"

const (
	detailsContext = "O usuário está solicitando uma explicação detalhada e abrangente. Forneça uma resposta completa com exemplos práticos quando possível."
	recentTurns    = 1
)

// Generator produces reply text from a system prompt and a user message.
type Generator interface {
	Generate(ctx context.Context, system, user string, p models.Params) (string, error)
}

// Searcher returns summarized web results. It fails soft.
type Searcher interface {
	Search(ctx context.Context, userID, query string, limit int) []types.SearchResult
}

// SearchPolicy controls web augmentation for one turn.
type SearchPolicy int

const (
	// SearchAuto searches when the message asks for current data.
	SearchAuto SearchPolicy = iota
	// SearchForce always searches.
	SearchForce
	// SearchNever skips search, e.g. when results are already in the context.
	SearchNever
)

// Deps are the collaborators of an Advisor. Search and Metrics may be nil.
type Deps struct {
	Memory   *memory.Store
	Cache    *cache.ResponseCache
	Analyzer *analysis.Analyzer
	Catalog  *persona.Catalog
	Rand     types.Rand
	LLM      Generator
	Search   Searcher
	Metrics  *metrics.Metrics
}

// Options tune the pipeline.
type Options struct {
	Params        models.Params
	LLMTimeout    time.Duration
	SearchResults int
}

// Advisor is the conversation orchestrator.
type Advisor struct {
	memory    *memory.Store
	cache     *cache.ResponseCache
	analyzer  *analysis.Analyzer
	catalog   *persona.Catalog
	selector  *persona.Selector
	humanizer *persona.Humanizer
	builder   *prompt.Builder
	llm       Generator
	search    Searcher
	metrics   *metrics.Metrics

	params        models.Params
	llmTimeout    time.Duration
	searchResults int
}

// New wires an Advisor.
func New(deps Deps, opts Options) *Advisor {
	if opts.Params == (models.Params{}) {
		opts.Params = models.DefaultParams()
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 60 * time.Second
	}
	if opts.SearchResults <= 0 {
		opts.SearchResults = 5
	}
	return &Advisor{
		memory:        deps.Memory,
		cache:         deps.Cache,
		analyzer:      deps.Analyzer,
		catalog:       deps.Catalog,
		selector:      persona.NewSelector(deps.Catalog),
		humanizer:     persona.NewHumanizer(deps.Catalog, deps.Rand),
		builder:       prompt.NewBuilder(recentTurns),
		llm:           deps.LLM,
		search:        deps.Search,
		metrics:       deps.Metrics,
		params:        opts.Params,
		llmTimeout:    opts.LLMTimeout,
		searchResults: opts.SearchResults,
	}
}

// HandleTurn answers a free-text message.
func (a *Advisor) HandleTurn(ctx context.Context, userID, message string) string {
	var extra string
	if analysis.WantsDetails(message) {
		extra = detailsContext
	}
	return a.HandleTurnWithContext(ctx, userID, message, extra, SearchAuto)
}

// HandleTurnWithContext runs the pipeline with caller supplied context. It
// never panics and always returns text for the user.
func (a *Advisor) HandleTurnWithContext(ctx context.Context, userID, message, extra string, policy SearchPolicy) (reply string) {
	turnID := uuid.NewString()
	log := logging.WithTurn(turnID, userID)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("turn panic", "error", r, "stack", string(debug.Stack()))
			a.countTurn(metrics.OutcomePanic)
			reply = Apology
		}
		if a.metrics != nil {
			a.metrics.TurnDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if strings.TrimSpace(message) == "" {
		return Apology
	}

	if cached, ok := a.cache.Lookup(userID, message); ok {
		log.Info("cache hit")
		a.countCache("hit")
		a.countTurn(metrics.OutcomeCached)
		return cached
	}
	a.countCache("miss")

	rec, err := a.memory.GetOrCreate(ctx, userID)
	if err != nil {
		log.Error("failed to load user record", "error", err.Error())
		return Apology
	}

	an := a.analyzer.Analyze(message)

	var web string
	if a.shouldSearch(message, policy) {
		results := a.search.Search(ctx, userID, search.Query(message), a.searchResults)
		if len(results) > 0 {
			web = search.FormatResults(results)
		}
		log.Info("web search", "results", len(results))
	}

	personality := a.selector.Select(message, an.Complexity)
	profile := a.catalog.Profile(personality)
	formality := persona.Formality(an.Sentiment, an.Complexity)

	bc := prompt.BuildContext{
		Style:   persona.StyleDirectives(profile, formality, rec.ExpertiseLevel),
		Profile: a.memory.RenderLongTermContext(rec),
		Extra:   extra,
		Web:     web,
	}
	if !a.memory.IntentChanged(rec, message) {
		bc.Recent = rec.ConversationHistory
	}
	system, err := a.builder.Build(bc)
	if err != nil {
		log.Error("failed to build prompt", "error", err.Error())
		return Apology
	}

	raw, err := a.generate(ctx, system, message)
	if err != nil {
		log.Error("llm generation failed, turn not recorded", "error", err.Error())
		a.countTurn(metrics.OutcomeLLMError)
		return Apology
	}

	region := an.Region
	if region == "" {
		region = rec.DetectedRegion
	}
	allowFillers := an.Complexity != types.ComplexityComplex
	text := a.humanizer.Humanize(raw, profile, formality, allowFillers, region)
	text = utils.EscapeMarkdown(text)

	if _, err := a.memory.RecordAnalyzedTurn(ctx, userID, message, text, an); err != nil {
		log.Warn("user record not persisted", "error", err.Error())
		if a.metrics != nil {
			a.metrics.StorageErrors.Inc()
		}
	}
	a.cache.Store(userID, message, text)

	log.Info("turn completed",
		"personality", string(personality),
		"formality", formality,
		"sentiment", string(an.Sentiment),
		"complexity", string(an.Complexity),
		"web", web != "",
		"duration", time.Since(start).String(),
	)
	a.countTurn(metrics.OutcomeOK)
	return text
}

func (a *Advisor) shouldSearch(message string, policy SearchPolicy) bool {
	if a.search == nil {
		return false
	}
	switch policy {
	case SearchForce:
		return true
	case SearchNever:
		return false
	default:
		return analysis.NeedsWebSearch(message)
	}
}

func (a *Advisor) generate(ctx context.Context, system, user string) (string, error) {
	if a.llm == nil {
		return "", fmt.Errorf("%w: no model configured", models.ErrGeneration)
	}
	ctx, cancel := context.WithTimeout(ctx, a.llmTimeout)
	defer cancel()

	start := time.Now()
	text, err := a.llm.Generate(ctx, system, user, a.params)
	if a.metrics != nil {
		a.metrics.LLMDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty reply", models.ErrGeneration)
	}
	return text, nil
}

func (a *Advisor) countTurn(outcome string) {
	if a.metrics != nil {
		a.metrics.Turns.WithLabelValues(outcome).Inc()
	}
}

func (a *Advisor) countCache(result string) {
	if a.metrics != nil {
		a.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

// Summary renders the user's conversation digest.
func (a *Advisor) Summary(ctx context.Context, userID string, detailed bool) string {
	text, err := a.memory.Summary(ctx, userID, detailed)
	if err != nil {
		slog.Error("failed to build summary", "user_id", userID, "error", err.Error())
		return summaryUnavailable
	}
	return text
}
