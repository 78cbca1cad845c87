package analysis

import "github.com/easeaico/finadvisor/internal/types"

var topicLabels = map[string]string{
	TopicInvestments:        "investimentos",
	TopicFixedIncome:        "renda fixa",
	TopicVariableIncome:     "renda variável",
	TopicFunds:              "fundos",
	TopicCrypto:             "criptomoedas",
	TopicRetirement:         "aposentadoria",
	TopicDebt:               "dívidas",
	TopicSavings:            "economia doméstica",
	TopicFinancialEducation: "educação financeira",
	TopicTaxes:              "impostos",
	TopicRealEstate:         "imóveis",
	TopicPlanning:           "planejamento",
}

// TopicLabel returns the PT-BR display name of a topic tag.
func TopicLabel(topic string) string {
	if label, ok := topicLabels[topic]; ok {
		return label
	}
	return topic
}

// TopicLabels maps TopicLabel over topics.
func TopicLabels(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, TopicLabel(t))
	}
	return out
}

// SentimentLabel returns the PT-BR display name of a sentiment bucket.
func SentimentLabel(s types.Sentiment) string {
	switch s {
	case types.SentimentVeryPositive:
		return "muito positivo"
	case types.SentimentPositive:
		return "positivo"
	case types.SentimentNegative:
		return "negativo"
	case types.SentimentVeryNegative:
		return "muito negativo"
	default:
		return "neutro"
	}
}

// ExpertiseLabel returns the PT-BR display name of an expertise level.
func ExpertiseLabel(e types.Expertise) string {
	switch e {
	case types.ExpertiseAdvanced:
		return "avançado"
	case types.ExpertiseIntermediate:
		return "intermediário"
	default:
		return "iniciante"
	}
}
