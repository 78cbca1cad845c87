package analysis

// Topic tags.
const (
	TopicInvestments        = "investments"
	TopicFixedIncome        = "fixed_income"
	TopicVariableIncome     = "variable_income"
	TopicFunds              = "funds"
	TopicCrypto             = "crypto"
	TopicRetirement         = "retirement"
	TopicDebt               = "debt"
	TopicSavings            = "savings"
	TopicFinancialEducation = "financial_education"
	TopicTaxes              = "taxes"
	TopicRealEstate         = "real_estate"
	TopicPlanning           = "planning"
)

type topicKeywords struct {
	topic    string
	keywords []string
}

// topicVocabulary is ordered so extraction output is stable.
var topicVocabulary = []topicKeywords{
	{TopicInvestments, []string{"investir", "investimento", "aplicar dinheiro", "carteira de investimentos", "investment"}},
	{TopicFixedIncome, []string{"renda fixa", "cdb", "tesouro direto", "tesouro selic", "tesouro ipca", "lci", "lca", "debênture", "treasury bond", "tax-exempt bond"}},
	{TopicVariableIncome, []string{"renda variável", "ações", "bolsa de valores", "fiis", "fundo imobiliário", "etfs", "bdrs", "dividendos", "stocks"}},
	{TopicFunds, []string{"fundo de investimento", "fundos de investimento", "multimercado", "fundos", "come-cotas"}},
	{TopicCrypto, []string{"cripto", "bitcoin", "ethereum", "blockchain", "exchange"}},
	{TopicRetirement, []string{"aposentadoria", "previdência", "inss", "aposentar", "pgbl", "vgbl", "retirement"}},
	{TopicDebt, []string{"dívida", "empréstimo", "crédito", "endividad", "cheque especial", "juros do cartão", "debt"}},
	{TopicSavings, []string{"economia", "poupar", "economizar", "gastos", "reserva de emergência", "poupança", "savings"}},
	{TopicFinancialEducation, []string{"educação financeira", "aprender", "finanças", "entender como"}},
	{TopicTaxes, []string{"imposto", "irpf", "declaração", "tributação", "alíquota"}},
	{TopicRealEstate, []string{"imóve", "imóvel", "casa própria", "apartamento", "financiamento imobiliário", "aluguel"}},
	{TopicPlanning, []string{"planejamento", "planejar", "orçamento", "meta financeira", "objetivo financeiro", "futuro financeiro"}},
}

// detailKeywords mark an explicit request for a thorough answer.
var detailKeywords = []string{
	"detalhe", "explique", "explica", "como funciona", "passo a passo",
	"aprofunde", "mais informações", "específico", "detalhadamente",
}

// technicalTerms count towards medium and complex questions.
var technicalTerms = []string{
	"selic", "cdi", "ipca", "igp-m", "duration", "volatilidade", "liquidez",
	"rentabilidade", "marcação a mercado", "come-cotas", "alíquota", "dividend yield",
	"tributação", "derivativos", "hedge", "benchmark", "spread", "debênture",
	"valuation", "p/vp", "ebitda", "taxa de administração", "taxa de performance",
}

// searchKeywords signal a question that needs current data.
var searchKeywords = []string{
	"atual", "hoje", "recente", "notícia", "mercado", "taxa", "cotação", "preço",
	"inflação", "selic", "dólar", "euro", "bolsa", "tendência", "projeção", "previsão",
}

// regionMarkers are matched on word boundaries; multi-word markers match token runs.
var regionMarkers = map[string][]string{
	"nordeste":  {"oxe", "oxente", "arretado", "arretada", "visse", "vixe", "painho", "mainha", "aperreado", "aperreada"},
	"sul":       {"bah", "tchê", "guri", "guria", "tri", "barbaridade", "bagual"},
	"minas":     {"uai", "trem", "sô", "nó", "cê"},
	"rio":       {"mermão", "caraca", "maneiro", "sinistro", "coé", "parada"},
	"sao_paulo": {"mano", "da hora", "trampo", "treta", "rolê"},
}
