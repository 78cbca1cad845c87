package telegram

import "github.com/easeaico/finadvisor/internal/agent"

const (
	searchingMessage     = "Pesquisando..."
	callbackErrorMessage = "Ops! Tive um problema ao processar sua solicitação. Pode tentar novamente?"
	startErrorMessage    = "Ops! Tive um problema ao iniciar. Pode tentar novamente?"

	longReplyRunes = 300
)

var thinkingMessages = []string{
	"Analisando sua questão...",
	"Consultando os dados...",
	"Processando isso...",
	"Um momento, por favor...",
	"Elaborando uma resposta...",
	"Verificando as informações...",
	"Pensando na melhor estratégia...",
	"Avaliando as opções...",
}

var followUps = []string{
	"Essa perspectiva faz sentido para você?",
	"Isso esclareceu sua dúvida?",
	"Quer explorar mais algum aspecto desse tema?",
	"Posso detalhar melhor algum ponto específico?",
	"Esse caminho parece adequado para seu objetivo?",
	"Consegui responder completamente sua pergunta?",
	"Há algo mais que gostaria de saber sobre esse assunto?",
}

// detailedFollowUps are used after long replies.
var detailedFollowUps = []string{
	"Gostaria que eu explorasse algum desses pontos em mais detalhes?",
	"Tem alguma parte específica que você quer que eu aprofunde?",
	"Isso atendeu ao nível de detalhe que você precisava?",
	"Quer que eu dê exemplos práticos de algum desses pontos?",
}

// slowKeywords make the bot "think" longer before answering.
var slowKeywords = []string{"como", "porquê", "detalhe", "explique", "diferença"}

// MainKeyboard is the quick action menu shown with the welcome message.
func MainKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{
			{Text: "📈 Investimentos", CallbackData: agent.ActionInvestments},
			{Text: "💰 Renda Fixa", CallbackData: agent.ActionFixedIncome},
			{Text: "📊 Renda Variável", CallbackData: agent.ActionVariableIncome},
		},
		{
			{Text: "🏦 Fundos", CallbackData: agent.ActionFunds},
			{Text: "💲 Cripto", CallbackData: agent.ActionCrypto},
			{Text: "📝 Planejamento", CallbackData: agent.ActionPlanning},
		},
		{
			{Text: "📉 Análise de Mercado", CallbackData: agent.ActionMarketAnalysis},
			{Text: "📰 Notícias", CallbackData: agent.ActionNews},
		},
		{
			{Text: "🔍 Pesquisar na Web", CallbackData: agent.ActionWebSearch},
			{Text: "❓ Ajuda", CallbackData: agent.ActionHelp},
		},
	}}
}
