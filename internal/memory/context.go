package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/types"
	"github.com/easeaico/finadvisor/internal/utils"
)

const (
	shortMessageWords  = 3
	summaryTurns       = 3
	summaryBotPreview  = 100
	summaryTimeLayout  = "02/01/2006 15:04"
	noHistoryMessage   = "Não há histórico de conversas anteriores."
	noTopicsIdentified = "Nenhum identificado ainda"
)

var topicShiftMarkers = []string{
	"outra coisa", "outro assunto", "outro tema", "mudando de assunto", "mudar de assunto",
	"falando em outra", "aproveitando", "uma pergunta diferente", "something else", "different topic",
}

var detailLabels = map[string]string{
	DetailAge:           "idade",
	DetailProfession:    "profissão",
	DetailIncome:        "renda",
	DetailChildren:      "filhos",
	DetailMaritalStatus: "estado civil",
	PreferenceRisk:      "perfil de risco",
	PreferenceHorizon:   "horizonte",
	PreferenceGoal:      "objetivo",
}

// LongTermContext renders the user's durable facts for prompt assembly.
func (s *Store) LongTermContext(ctx context.Context, userID string) (string, error) {
	rec, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.RenderLongTermContext(rec), nil
}

// RenderLongTermContext is LongTermContext for an already loaded record.
// The output depends only on rec.
func (s *Store) RenderLongTermContext(rec *types.UserRecord) string {
	if rec.InteractionCount == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Perfil do usuário:\n")
	fmt.Fprintf(&sb, "- Interações anteriores: %d\n", rec.InteractionCount)
	fmt.Fprintf(&sb, "- Nível de conhecimento: %s\n", analysis.ExpertiseLabel(rec.ExpertiseLevel))
	if rec.DetectedRegion != "" {
		fmt.Fprintf(&sb, "- Região provável: %s\n", rec.DetectedRegion)
	}
	fmt.Fprintf(&sb, "- Estilo preferido: %s\n", s.catalog.Profile(rec.PreferredPersonality).Name)
	fmt.Fprintf(&sb, "- Último sentimento: %s\n", analysis.SentimentLabel(rec.Session.LastSentiment))
	if line := renderPairs(rec.LongTerm.PersonalDetails); line != "" {
		fmt.Fprintf(&sb, "- Dados pessoais: %s\n", line)
	}
	if line := renderPairs(rec.LongTerm.Preferences); line != "" {
		fmt.Fprintf(&sb, "- Preferências: %s\n", line)
	}
	if len(rec.LongTerm.SignificantTopics) > 0 {
		fmt.Fprintf(&sb, "- Temas recorrentes: %s\n", strings.Join(analysis.TopicLabels(rec.LongTerm.SignificantTopics), ", "))
	}
	if len(rec.Topics) > 0 {
		fmt.Fprintf(&sb, "- Interesses: %s\n", strings.Join(analysis.TopicLabels(rec.Topics), ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// DetectIntentChange reports whether text starts a new line of conversation
// relative to the user's previous turn.
func (s *Store) DetectIntentChange(ctx context.Context, userID, text string) (bool, error) {
	rec, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.IntentChanged(rec, text), nil
}

// IntentChanged is DetectIntentChange for an already loaded record.
func (s *Store) IntentChanged(rec *types.UserRecord, text string) bool {
	prev, ok := rec.LastTurn()
	if !ok {
		return true
	}

	current := s.analyzer.Topics(text)
	if (len(current) > 0 || len(prev.Topics) > 0) && !overlaps(current, prev.Topics) {
		return true
	}
	if utils.WordCount(text) <= shortMessageWords && utils.WordCount(prev.UserText) > longMessageWords {
		return true
	}
	lower := strings.ToLower(text)
	for _, marker := range topicShiftMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Summary renders a Markdown digest of the user's record. The detailed form
// adds the long-term profile, sentiment trend and style affinity.
func (s *Store) Summary(ctx context.Context, userID string, detailed bool) (string, error) {
	rec, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(rec.ConversationHistory) == 0 {
		return noHistoryMessage, nil
	}

	var sb strings.Builder
	sb.WriteString("**Resumo das conversas recentes**\n\n")
	recent := rec.ConversationHistory[max(0, len(rec.ConversationHistory)-summaryTurns):]
	for i, turn := range recent {
		fmt.Fprintf(&sb, "Interação %d (%s):\n", i+1, turn.Timestamp.Local().Format(summaryTimeLayout))
		fmt.Fprintf(&sb, "Usuário: %s\n", turn.UserText)
		fmt.Fprintf(&sb, "Paulo: %s\n\n", utils.Truncate(turn.BotText, summaryBotPreview))
	}

	topics := noTopicsIdentified
	if len(rec.Topics) > 0 {
		topics = strings.Join(analysis.TopicLabels(rec.Topics), ", ")
	}
	fmt.Fprintf(&sb, "Tópicos de interesse: %s\n", topics)
	fmt.Fprintf(&sb, "Total de interações: %d", rec.InteractionCount)

	if !detailed {
		return sb.String(), nil
	}

	sb.WriteString("\n\n**Perfil**\n\n")
	sb.WriteString(s.RenderLongTermContext(rec))
	sb.WriteString("\n\n**Tendência de sentimento**\n\n")
	sb.WriteString(sentimentTrend(rec.SentimentHistory))
	sb.WriteString("\n\n**Afinidade de estilo**\n\n")
	for _, id := range s.catalog.IDs() {
		fmt.Fprintf(&sb, "- %s: %.1f\n", s.catalog.Profile(id).Name, rec.PersonalityAffinity[id])
	}
	fmt.Fprintf(&sb, "\nEstilo que mais combina com você: %s", s.catalog.Profile(rec.PreferredPersonality).Name)
	return sb.String(), nil
}

func sentimentTrend(history []types.SentimentEntry) string {
	order := []types.Sentiment{
		types.SentimentVeryPositive, types.SentimentPositive, types.SentimentNeutral,
		types.SentimentNegative, types.SentimentVeryNegative,
	}
	counts := make(map[types.Sentiment]int, len(order))
	for _, e := range history {
		counts[e.Sentiment]++
	}
	var parts []string
	for _, s := range order {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", analysis.SentimentLabel(s), counts[s]))
		}
	}
	if len(parts) == 0 {
		return "sem dados"
	}
	return strings.Join(parts, ", ")
}

func renderPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		label := detailLabels[k]
		if label == "" {
			label = k
		}
		parts = append(parts, label+": "+m[k])
	}
	return strings.Join(parts, "; ")
}
