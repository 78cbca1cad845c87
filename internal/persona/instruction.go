package persona

import (
	"fmt"
	"strings"

	"github.com/easeaico/finadvisor/internal/types"
)

// FormalityInstruction returns a short register guideline for level.
func FormalityInstruction(level int) string {
	switch ClampFormality(level) {
	case 0:
		return "Use linguagem bem descontraída, como numa conversa entre amigos."
	case 1:
		return "Use linguagem informal e próxima, sem gírias pesadas."
	case 3:
		return "Use linguagem cuidadosa e profissional, mantendo a cordialidade."
	case 4:
		return "Use linguagem formal e precisa, evitando expressões coloquiais."
	default:
		return "Use linguagem natural e equilibrada, nem formal nem informal demais."
	}
}

// ExpertiseInstruction adapts the technical depth to the user's level.
func ExpertiseInstruction(level types.Expertise) string {
	switch level {
	case types.ExpertiseAdvanced:
		return "O usuário tem bom conhecimento financeiro: pode usar termos técnicos sem explicar o básico."
	case types.ExpertiseIntermediate:
		return "O usuário conhece o básico: explique termos técnicos de forma breve."
	default:
		return "O usuário está começando: evite jargões e use analogias simples."
	}
}

// StyleDirectives renders the style block of the system prompt.
func StyleDirectives(profile types.PersonalityProfile, formality int, expertise types.Expertise) string {
	lines := []string{
		fmt.Sprintf("Personalidade desta resposta: %s (%s).", profile.Name, profile.Tone),
		FormalityInstruction(formality),
		ExpertiseInstruction(expertise),
	}
	if len(profile.SignaturePhrases) > 0 {
		lines = append(lines, fmt.Sprintf("Expressões típicas: %s.", strings.Join(profile.SignaturePhrases, ", ")))
	}
	return strings.Join(lines, "\n")
}
