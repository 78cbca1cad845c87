package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/types"
	"github.com/easeaico/finadvisor/internal/utils"
)

// fixedRand returns the same value for every draw.
type fixedRand struct {
	f float64
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) IntN(int) int     { return 0 }

func TestSelectDecisionTable(t *testing.T) {
	sel := NewSelector(NewCatalog())

	tests := []struct {
		name       string
		text       string
		complexity types.Complexity
		want       types.PersonalityID
	}{
		{"complex wins", "oi, valeu pela dica", types.ComplexityComplex, types.PersonalityTechnical},
		{"two technical words", "qual o retorno e o risco disso", types.ComplexityMedium, types.PersonalityTechnical},
		{"friendly words", "oi, valeu pela dica", types.ComplexityMedium, types.PersonalityFriendly},
		{"simple falls to friendly", "e agora", types.ComplexitySimple, types.PersonalityFriendly},
		{"mentor words", "quero planejar meu futuro e ensinar meus filhos a poupar dinheiro", types.ComplexityMedium, types.PersonalityMentor},
		{"nothing matches", "eu queria saber se vale a pena guardar dinheiro na conta", types.ComplexityMedium, types.PersonalityDefault},
		{"substring does not count", "foi o que eu disse", types.ComplexityMedium, types.PersonalityDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sel.Select(tt.text, tt.complexity))
		})
	}
}

func TestFormality(t *testing.T) {
	assert.Equal(t, 0, Formality(types.SentimentVeryPositive, types.ComplexitySimple))
	assert.Equal(t, 4, Formality(types.SentimentNegative, types.ComplexityComplex))
	assert.Equal(t, 2, Formality(types.SentimentNeutral, types.ComplexityMedium))
	assert.Equal(t, 3, Formality(types.SentimentNeutral, types.ComplexityComplex))
	assert.Equal(t, 0, ClampFormality(-3))
	assert.Equal(t, 4, ClampFormality(9))
}

func TestAffinityUpdateAndPreferred(t *testing.T) {
	catalog := NewCatalog()
	aff := NewAffinity(catalog)

	scores := aff.Update(nil, types.Analysis{Sentiment: types.SentimentNeutral, Complexity: types.ComplexitySimple})
	require.Len(t, scores, len(catalog.IDs()))
	assert.Equal(t, types.PersonalityDefault, aff.Preferred(scores))

	scores = aff.Update(scores, types.Analysis{
		Sentiment:  types.SentimentPositive,
		Complexity: types.ComplexityComplex,
		Topics:     []string{analysis.TopicRetirement, analysis.TopicPlanning},
	})
	assert.Equal(t, 1.0, scores[types.PersonalityTechnical])
	assert.Equal(t, 0.5, scores[types.PersonalityFriendly])
	assert.Equal(t, 1.0, scores[types.PersonalityMentor])
	// technical and mentor tie; technical comes first in priority order.
	assert.Equal(t, types.PersonalityTechnical, aff.Preferred(scores))

	scores = aff.Update(scores, types.Analysis{Topics: []string{analysis.TopicFinancialEducation}})
	assert.Equal(t, types.PersonalityMentor, aff.Preferred(scores))
}

func TestAffinityDropsUnknownIDs(t *testing.T) {
	aff := NewAffinity(NewCatalog())
	scores := aff.Update(map[types.PersonalityID]float64{"pirate": 10, types.PersonalityFriendly: -2}, types.Analysis{})
	assert.NotContains(t, scores, types.PersonalityID("pirate"))
	assert.Equal(t, 0.0, scores[types.PersonalityFriendly])
}

func TestHumanizeNoDrawsLeavesText(t *testing.T) {
	catalog := NewCatalog()
	h := NewHumanizer(catalog, fixedRand{f: 0.99})
	raw := "  Investir exige disciplina e paciência. O Tesouro Selic é uma boa porta de entrada.  "

	out := h.Humanize(raw, catalog.Profile(types.PersonalityFriendly), 0, true, "nordeste")
	assert.Equal(t, strings.TrimSpace(raw), out)
}

func TestHumanizeInterjectionAndPatterns(t *testing.T) {
	catalog := NewCatalog()
	h := NewHumanizer(catalog, fixedRand{f: 0})
	raw := "Investir exige disciplina e paciência. O Tesouro Selic é uma boa porta de entrada para quem começa. Depois diversifique."

	out := h.Humanize(raw, catalog.Profile(types.PersonalityFriendly), 4, false, "")
	want := "Olha, investir exige disciplina e paciência. Olha, o Tesouro Selic é uma boa porta de entrada para quem começa. Depois diversifique."
	assert.Equal(t, want, out)
}

func TestHumanizeFillers(t *testing.T) {
	h := NewHumanizer(NewCatalog(), fixedRand{f: 0})
	bare := types.PersonalityProfile{ID: types.PersonalityDefault}
	raw := strings.TrimSpace(strings.Repeat("palavra ", 45))

	out := h.Humanize(raw, bare, 3, true, "")
	assert.Equal(t, 2, strings.Count(out, "né"))
	assert.True(t, strings.HasPrefix(out, "palavra né né palavra"), out)

	out = h.Humanize(raw, bare, 4, true, "")
	assert.Equal(t, raw, out)
}

func TestHumanizeRegionalExpression(t *testing.T) {
	h := NewHumanizer(NewCatalog(), fixedRand{f: 0})
	bare := types.PersonalityProfile{ID: types.PersonalityDefault}

	out := h.Humanize("Primeira frase. Segunda frase aqui. Terceira.", bare, 4, false, "nordeste")
	assert.Equal(t, "Primeira frase. Visse, segunda frase aqui. Terceira.", out)

	out = h.Humanize("Primeira frase. Segunda frase aqui. Terceira.", bare, 4, false, "")
	assert.Equal(t, "Primeira frase. Segunda frase aqui. Terceira.", out)
}

func TestHumanizeReproducibleWithSeed(t *testing.T) {
	catalog := NewCatalog()
	raw := "O CDB é um título de renda fixa emitido por bancos. Ele costuma render perto do CDI. " +
		"Vale comparar a liquidez e a garantia do FGC antes de aplicar. Para começar, prefira prazos curtos."

	run := func(seed uint64) string {
		h := NewHumanizer(catalog, utils.NewRand(seed))
		return h.Humanize(raw, catalog.Profile(types.PersonalityMentor), 1, true, "minas")
	}
	assert.Equal(t, run(7), run(7))
	assert.Equal(t, run(99), run(99))
}

func TestSplitSentencesRoundTrip(t *testing.T) {
	text := "R$ 1.000 é bom. Sim! Ok"
	parts := splitSentences(text)
	assert.Equal(t, []string{"R$ 1.000 é bom. ", "Sim! ", "Ok"}, parts)
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestStyleDirectives(t *testing.T) {
	catalog := NewCatalog()
	out := StyleDirectives(catalog.Profile(types.PersonalityTechnical), 4, types.ExpertiseAdvanced)
	assert.Contains(t, out, "Paulo Analista")
	assert.Contains(t, out, "formal")
	assert.Contains(t, out, "termos técnicos")
}
