package analysis

import (
	"math"
	"strings"

	"github.com/easeaico/finadvisor/internal/types"
)

const (
	normalizationAlpha = 15.0
	negationScalar     = -0.74
	boosterIncrement   = 0.293
	exclamationBoost   = 0.292
	maxExclamations    = 4
	negationWindow     = 3
)

// lexicon maps PT-BR words to a valence in roughly [-4, 4].
var lexicon = map[string]float64{
	"ótimo": 3.1, "ótima": 3.1, "excelente": 3.2, "bom": 1.9, "boa": 1.9, "legal": 1.5,
	"obrigado": 1.6, "obrigada": 1.6, "valeu": 1.5, "feliz": 2.2, "gostei": 2.0, "gosto": 1.6,
	"adoro": 2.6, "adorei": 2.6, "maravilhoso": 3.0, "perfeito": 2.8, "incrível": 2.8,
	"tranquilo": 1.2, "sucesso": 2.2, "lucro": 1.6, "ganho": 1.4, "ganhei": 1.8,
	"satisfeito": 2.0, "animado": 2.0, "animada": 2.0, "consegui": 1.5, "ajudou": 1.7,
	"top": 1.8, "show": 1.8, "bacana": 1.5, "seguro": 1.2, "melhor": 1.8, "confiante": 1.9,
	"esperança": 1.6, "realizado": 2.1, "orgulhoso": 2.0, "claro": 0.8, "útil": 1.6,
	"ruim": -2.0, "péssimo": -3.0, "péssima": -3.0, "horrível": -3.1, "triste": -2.1,
	"preocupado": -1.8, "preocupada": -1.8, "medo": -2.0, "perdi": -2.0, "perda": -1.8,
	"prejuízo": -2.2, "endividado": -2.2, "endividada": -2.2, "problema": -1.6,
	"difícil": -1.3, "caro": -1.0, "raiva": -2.5, "frustrado": -2.2, "frustrada": -2.2,
	"ansioso": -1.8, "ansiosa": -1.8, "desesperado": -2.8, "desesperada": -2.8,
	"quebrado": -2.2, "falido": -2.8, "odeio": -2.8, "crise": -1.8, "inseguro": -1.6,
	"confuso": -1.3, "confusa": -1.3, "pior": -2.2, "golpe": -2.4, "calote": -2.4,
	"arrependido": -2.0, "apertado": -1.4, "sufoco": -2.0, "errado": -1.5,
}

var negations = map[string]bool{
	"não": true, "nunca": true, "nem": true, "jamais": true, "nada": true, "sem": true,
}

var boosters = map[string]float64{
	"muito": boosterIncrement, "muita": boosterIncrement, "bastante": boosterIncrement,
	"super": boosterIncrement, "extremamente": boosterIncrement, "demais": boosterIncrement,
	"tão": boosterIncrement, "totalmente": boosterIncrement, "realmente": boosterIncrement,
	"pouco": -boosterIncrement, "meio": -boosterIncrement, "quase": -boosterIncrement,
}

// compoundScore returns a normalized polarity in [-1, 1].
func compoundScore(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	for i, tok := range tokens {
		valence, ok := lexicon[tok]
		if !ok {
			continue
		}
		for back := 1; back <= negationWindow && i-back >= 0; back++ {
			prev := tokens[i-back]
			if b, isBooster := boosters[prev]; isBooster && back == 1 {
				if valence > 0 {
					valence += b
				} else {
					valence -= b
				}
			}
			if negations[prev] {
				valence *= negationScalar
				break
			}
		}
		sum += valence
	}
	if sum == 0 {
		return 0
	}

	bangs := min(strings.Count(text, "!"), maxExclamations)
	emphasis := float64(bangs) * exclamationBoost
	if sum > 0 {
		sum += emphasis
	} else {
		sum -= emphasis
	}

	score := sum / math.Sqrt(sum*sum+normalizationAlpha)
	return math.Max(-1, math.Min(1, score))
}

// bucket maps a compound score onto the five sentiment labels.
func bucket(score float64) types.Sentiment {
	switch {
	case score >= 0.5:
		return types.SentimentVeryPositive
	case score >= 0.1:
		return types.SentimentPositive
	case score <= -0.5:
		return types.SentimentVeryNegative
	case score <= -0.1:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}
