package memory

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/easeaico/finadvisor/internal/types"
	"github.com/easeaico/finadvisor/internal/utils"
)

// longMessageWords gates the looser extraction rules.
const longMessageWords = 15

const (
	DetailAge           = "age"
	DetailProfession    = "profession"
	DetailIncome        = "income"
	DetailChildren      = "children"
	DetailMaritalStatus = "marital_status"

	PreferenceRisk    = "risk_tolerance"
	PreferenceHorizon = "horizon"
	PreferenceGoal    = "goal"
)

type ruleKind int

const (
	personalDetail ruleKind = iota
	preference
)

type extractionRule struct {
	kind ruleKind
	key  string
	// gated rules only run on messages longer than longMessageWords.
	gated   bool
	pattern *regexp.Regexp
	value   func(m []string) string
}

func group(n int) func([]string) string {
	return func(m []string) string { return strings.TrimSpace(m[n]) }
}

func constant(v string) func([]string) string {
	return func([]string) string { return v }
}

// extractionRules are evaluated in order; the first match per key wins and
// stored values are never overwritten.
var extractionRules = []extractionRule{
	{
		kind:    personalDetail,
		key:     DetailAge,
		pattern: regexp.MustCompile(`\b(?:tenho|com)\s+(\d{1,3})\s+anos\b`),
		value: func(m []string) string {
			age, err := strconv.Atoi(m[1])
			if err != nil || age < 10 || age > 110 {
				return ""
			}
			return m[1]
		},
	},
	{
		kind:    personalDetail,
		key:     DetailProfession,
		gated:   true,
		pattern: regexp.MustCompile(`(?:sou|trabalho como|atuo como)\s+(?:um |uma )?(engenheir[oa]|médic[oa]|professora?|advogad[oa]|empresári[oa]|autônom[oa]|servidora? públic[oa]|estudante|programadora?|desenvolvedora?|enfermeir[oa]|contadora?|vendedora?|aposentad[oa]|comerciante|designer|analista|motorista|dentista|arquitet[oa])`),
		value:   group(1),
	},
	{
		kind:    personalDetail,
		key:     DetailIncome,
		gated:   true,
		pattern: regexp.MustCompile(`(?:ganho|recebo|salário de|renda de)\s+(?:cerca de |uns |umas |aproximadamente )?(r\$\s*[\d.,]+(?:\s*mil)?)`),
		value:   group(1),
	},
	{
		kind:    personalDetail,
		key:     DetailChildren,
		gated:   true,
		pattern: regexp.MustCompile(`tenho\s+(\d+|um|uma|dois|duas|três|quatro)\s+filh`),
		value:   group(1),
	},
	{
		kind:    personalDetail,
		key:     DetailMaritalStatus,
		gated:   true,
		pattern: regexp.MustCompile(`\bsou\s+(casad[oa]|solteir[oa]|divorciad[oa]|viúv[oa])`),
		value:   group(1),
	},
	{
		kind:    preference,
		key:     PreferenceRisk,
		gated:   true,
		pattern: regexp.MustCompile(`perfil\s+(conservador|moderado|arrojado|agressivo)`),
		value: func(m []string) string {
			if m[1] == "agressivo" {
				return "arrojado"
			}
			return m[1]
		},
	},
	{
		kind:    preference,
		key:     PreferenceRisk,
		gated:   true,
		pattern: regexp.MustCompile(`(?:não gosto de|tenho medo de|evito)\s+(?:correr\s+)?riscos?|medo de perder`),
		value:   constant("conservador"),
	},
	{
		kind:    preference,
		key:     PreferenceRisk,
		gated:   true,
		pattern: regexp.MustCompile(`(?:aceito|gosto de|topo)\s+(?:correr\s+)?(?:mais\s+)?riscos?`),
		value:   constant("arrojado"),
	},
	{
		kind:    preference,
		key:     PreferenceHorizon,
		gated:   true,
		pattern: regexp.MustCompile(`(curto|médio|longo)\s+prazo`),
		value:   func(m []string) string { return m[1] + " prazo" },
	},
	{
		kind:    preference,
		key:     PreferenceGoal,
		gated:   true,
		pattern: regexp.MustCompile(`(?:quero|pretendo|meu objetivo é|minha meta é|sonho em)\s+((?:comprar|quitar|sair|juntar|montar|fazer|abrir|viajar|me aposentar|aposentar|trocar|pagar)[^.,;!?]{0,40})`),
		value:   group(1),
	},
}

// extractLongTerm fills personal details and preferences found in text.
func extractLongTerm(text string, ltm *types.LongTermMemory) {
	lower := strings.ToLower(text)
	long := utils.WordCount(lower) > longMessageWords

	for _, rule := range extractionRules {
		if rule.gated && !long {
			continue
		}
		target := ltm.PersonalDetails
		if rule.kind == preference {
			target = ltm.Preferences
		}
		if _, exists := target[rule.key]; exists {
			continue
		}
		m := rule.pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if v := rule.value(m); v != "" {
			target[rule.key] = v
		}
	}
}
