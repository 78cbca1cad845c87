package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/metrics"
	"github.com/easeaico/finadvisor/internal/search"
	"github.com/easeaico/finadvisor/internal/types"
)

// Quick action identifiers, shared with the keyboard layouts.
const (
	ActionInvestments    = "investments"
	ActionFixedIncome    = "fixed_income"
	ActionVariableIncome = "variable_income"
	ActionFunds          = "funds"
	ActionCrypto         = "crypto"
	ActionPlanning       = "planning"
	ActionMarketAnalysis = "market_analysis"
	ActionNews           = "news"
	ActionWebSearch      = "web_search"
	ActionHelp           = "help"
)

const (
	// UnknownAction answers an action id outside the table.
	UnknownAction = "Não entendi essa opção. Pode tentar novamente?"
	// AskSearchQuery prompts for the web search subject.
	AskSearchQuery = "Sobre o que você quer pesquisar?"
	// NoSearchResults answers a web search that found nothing.
	NoSearchResults = "Não encontrei informações sobre isso. Pode tentar outra pergunta?"

	summaryUnavailable = "Não consegui montar seu resumo agora. Pode tentar novamente?"
	complexTopicContext = "Este é um tópico complexo que exige uma explicação detalhada. Forneça uma resposta abrangente com pontos específicos e exemplos práticos."
	webSearchMessage    = "Com base nas informações recentes sobre '%s'"
)

type quickAction struct {
	prompt   string
	search   bool
	detailed bool
}

var quickActions = map[string]quickAction{
	ActionInvestments: {
		prompt: "Quais são as principais opções de investimento no Brasil hoje, considerando diferentes perfis de risco e objetivos financeiros? O que você recomenda para quem está começando?",
	},
	ActionFixedIncome: {
		prompt: "Detalhe as melhores opções de renda fixa disponíveis no Brasil atualmente, com seus rendimentos aproximados, tributação, riscos e para qual perfil de investidor cada uma é mais adequada.",
	},
	ActionVariableIncome: {
		prompt:   "Quais são as melhores estratégias para investir em renda variável no Brasil atualmente? Fale sobre ações, FIIs, ETFs e BDRs, com dicas práticas para diferentes perfis de investidor.",
		detailed: true,
	},
	ActionFunds: {
		prompt:   "Explique os principais tipos de fundos de investimento disponíveis no Brasil, suas características, vantagens e desvantagens. Como escolher o fundo mais adequado para cada objetivo?",
		detailed: true,
	},
	ActionCrypto: {
		prompt:   "Qual a melhor forma de investir em criptomoedas com segurança no Brasil? Quais são as principais criptomoedas, exchanges confiáveis e estratégias recomendadas para diferentes perfis?",
		detailed: true,
	},
	ActionPlanning: {
		prompt:   "Como elaborar um planejamento financeiro completo e eficiente? Quais são as etapas essenciais, desde o orçamento pessoal até a aposentadoria?",
		detailed: true,
	},
	ActionMarketAnalysis: {
		prompt: "Como está o cenário macroeconômico e o mercado financeiro brasileiro atualmente? Quais são as perspectivas para os próximos meses e como isso afeta as decisões de investimento?",
		search: true,
	},
	ActionNews: {
		prompt: "Quais são as principais notícias econômicas e financeiras recentes que podem impactar os investimentos no Brasil? Como os investidores devem se posicionar diante desses acontecimentos?",
		search: true,
	},
	ActionHelp: {
		prompt: "De que maneiras você pode me ajudar com planejamento financeiro, investimentos e educação financeira? Quais são seus diferenciais como consultor?",
	},
}

// HandleQuickAction answers a keyboard shortcut. The web search action only
// returns AskSearchQuery; the caller collects the subject and then calls
// HandleWebSearch.
func (a *Advisor) HandleQuickAction(ctx context.Context, userID, actionID string) string {
	if a.metrics != nil {
		a.metrics.QuickActions.WithLabelValues(actionLabel(actionID)).Inc()
	}
	if actionID == ActionWebSearch {
		return AskSearchQuery
	}
	action, ok := quickActions[actionID]
	if !ok {
		return UnknownAction
	}

	var extra string
	if action.detailed {
		extra = complexTopicContext
	}
	policy := SearchAuto
	if action.search {
		policy = SearchForce
	}
	return a.HandleTurnWithContext(ctx, userID, action.prompt, extra, policy)
}

// HandleWebSearch runs an explicit search for query and answers from the
// results.
func (a *Advisor) HandleWebSearch(ctx context.Context, userID, query string) string {
	query = strings.TrimSpace(query)
	if query == "" || a.search == nil {
		return NoSearchResults
	}
	message := fmt.Sprintf(webSearchMessage, query)
	if cached, ok := a.cache.Lookup(userID, message); ok {
		a.countCache("hit")
		a.countTurn(metrics.OutcomeCached)
		return cached
	}
	results := a.search.Search(ctx, userID, search.Query(query), a.searchResults)
	if len(results) == 0 {
		return NoSearchResults
	}
	return a.HandleTurnWithContext(ctx, userID, message, search.FormatResults(results), SearchNever)
}

// QuickActionPrompt exposes the canned question behind actionID.
func QuickActionPrompt(actionID string) (string, bool) {
	action, ok := quickActions[actionID]
	return action.prompt, ok
}

func actionLabel(id string) string {
	if _, ok := quickActions[id]; ok || id == ActionWebSearch {
		return id
	}
	return "unknown"
}

var welcomeBack = map[types.PersonalityID]string{
	types.PersonalityTechnical: "Quer retomar a análise de onde paramos?",
	types.PersonalityFriendly:  "Bora continuar nosso papo?",
	types.PersonalityMentor:    "Vamos dar o próximo passo no seu planejamento?",
	types.PersonalityDefault:   "Como posso ajudar você hoje?",
}

// Welcome renders the /start greeting. Returning users are reminded of the
// topics they discussed, in the tone they respond to best.
func (a *Advisor) Welcome(ctx context.Context, userID, firstName string) string {
	hello := "Olá! 👋"
	if name := strings.TrimSpace(firstName); name != "" {
		hello = fmt.Sprintf("Olá, %s! 👋", name)
	}

	rec, err := a.memory.GetOrCreate(ctx, userID)
	if err != nil || rec.InteractionCount == 0 {
		return hello + "\n\nSou Paulo, consultor financeiro com mais de 15 anos de experiência no mercado. " +
			"Estou aqui para ajudar com suas dúvidas sobre investimentos, planejamento financeiro e economia.\n\n" +
			"Como posso auxiliar você hoje? Escolha uma opção abaixo ou me faça uma pergunta direta sobre qualquer tema financeiro."
	}

	var b strings.Builder
	b.WriteString(hello)
	b.WriteString("\n\nQue bom ter você de volta.")
	if len(rec.Topics) > 0 {
		topics := rec.Topics
		if len(topics) > 3 {
			topics = topics[len(topics)-3:]
		}
		fmt.Fprintf(&b, " Da última vez falamos sobre %s.", strings.Join(analysis.TopicLabels(topics), ", "))
	}
	line, ok := welcomeBack[rec.PreferredPersonality]
	if !ok {
		line = welcomeBack[types.PersonalityDefault]
	}
	b.WriteString(" ")
	b.WriteString(line)
	b.WriteString("\n\nEscolha uma opção abaixo ou me faça uma pergunta direta.")
	return b.String()
}
