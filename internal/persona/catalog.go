// Package persona selects and applies the advisor's speaking style.
package persona

import (
	"slices"

	"github.com/easeaico/finadvisor/internal/types"
)

// Catalog is the read-only table of personality profiles and regional
// expressions. Build it once with NewCatalog and share it.
type Catalog struct {
	profiles map[types.PersonalityID]types.PersonalityProfile
	priority []types.PersonalityID
	regional map[string][]string
	fillers  []string
}

// NewCatalog returns the built-in catalog.
func NewCatalog() *Catalog {
	profiles := []types.PersonalityProfile{
		{
			ID:        types.PersonalityDefault,
			Name:      "Paulo",
			Tone:      "amigável, direto e com um toque de humor sutil",
			Formality: 2,
			SignaturePhrases: []string{
				"na minha experiência", "olha", "veja bem", "na verdade",
			},
			CasualWords:   []string{"pra", "tá"},
			Interjections: []string{"Olha,", "Bom,"},
		},
		{
			ID:        types.PersonalityTechnical,
			Name:      "Paulo Analista",
			Tone:      "técnico, preciso e apoiado em dados",
			Formality: 3,
			SignaturePhrases: []string{
				"analisando os números", "do ponto de vista técnico",
				"se olharmos os dados", "tecnicamente falando",
			},
			CasualWords:   []string{"na prática", "basicamente", "resumindo"},
			Interjections: []string{"Bom,", "Vejamos:", "Olha só:"},
			Keywords: []string{
				"rentabilidade", "taxa", "indicador", "análise", "dados", "percentual",
				"comparar", "retorno", "risco", "volatilidade", "cálculo", "rendimento",
			},
		},
		{
			ID:        types.PersonalityMentor,
			Name:      "Paulo Mentor",
			Tone:      "paciente, didático e encorajador",
			Formality: 2,
			SignaturePhrases: []string{
				"pense comigo", "um bom caminho é", "com o tempo você vai ver",
				"o importante aqui é",
			},
			CasualWords:   []string{"aos poucos", "com calma", "sem pressa"},
			Interjections: []string{"Veja bem,", "Pois é,", "Sabe,"},
			Keywords: []string{
				"aprender", "entender", "futuro", "planejar", "objetivo", "meta",
				"aposentadoria", "filhos", "disciplina", "hábito", "longo prazo", "ensinar",
			},
		},
		{
			ID:        types.PersonalityFriendly,
			Name:      "Paulo Parceiro",
			Tone:      "descontraído, acolhedor e próximo",
			Formality: 1,
			SignaturePhrases: []string{
				"olha", "na verdade", "veja bem", "cá entre nós",
			},
			CasualWords:   []string{"tá", "pra", "vamo", "beleza", "tranquilo"},
			Interjections: []string{"Olha,", "Então,", "Ah,"},
			Keywords: []string{
				"oi", "olá", "obrigado", "obrigada", "valeu", "ajuda", "dúvida",
				"começar", "simples", "rápido", "dica", "beleza",
			},
		},
	}

	c := &Catalog{
		profiles: make(map[types.PersonalityID]types.PersonalityProfile, len(profiles)),
		regional: map[string][]string{
			"nordeste":  {"visse", "oxe", "arretado"},
			"sul":       {"bah", "tchê", "tri legal"},
			"minas":     {"uai", "sô", "trem bom"},
			"rio":       {"caraca", "mermão", "maneiro"},
			"sao_paulo": {"mano", "da hora", "meu"},
		},
		fillers: []string{"né", "tipo", "enfim", "sabe"},
	}
	// Slice order is the affinity tie-break priority.
	for _, p := range profiles {
		c.profiles[p.ID] = p
		c.priority = append(c.priority, p.ID)
	}
	return c
}

// Profile returns the profile for id, falling back to the default profile.
func (c *Catalog) Profile(id types.PersonalityID) types.PersonalityProfile {
	if p, ok := c.profiles[id]; ok {
		return p
	}
	return c.profiles[types.PersonalityDefault]
}

// IDs returns the personality ids in tie-break priority order.
func (c *Catalog) IDs() []types.PersonalityID {
	return slices.Clone(c.priority)
}

// RegionalExpressions returns the expressions for region, if any.
func (c *Catalog) RegionalExpressions(region string) []string {
	return c.regional[region]
}

// Fillers returns the filler words.
func (c *Catalog) Fillers() []string {
	return c.fillers
}
