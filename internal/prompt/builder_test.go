package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/finadvisor/internal/types"
)

func newTestBuilder(limit int) *Builder {
	b := NewBuilder(limit)
	b.nowFunc = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return b
}

func TestBuildMinimal(t *testing.T) {
	got, err := newTestBuilder(1).Build(BuildContext{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "Você é Paulo, consultor financeiro"))
	assert.Contains(t, got, "Data de hoje: 10/03/2025")
	assert.Contains(t, got, "10. HONESTIDADE")
	assert.NotContains(t, got, "Última conversa")
	assert.NotContains(t, got, "Contexto adicional")
	assert.NotContains(t, got, "ESTILO DESTA RESPOSTA")
}

func TestBuildFullContext(t *testing.T) {
	recent := []types.Turn{
		{UserText: "primeira", BotText: "antiga"},
		{UserText: "Quero investir", BotText: strings.Repeat("b", 80)},
	}
	got, err := newTestBuilder(1).Build(BuildContext{
		Style:   "Personalidade desta resposta: Paulo.",
		Profile: "Perfil do usuário:\n- idade: 35",
		Recent:  recent,
		Extra:   "O usuário está solicitando uma explicação detalhada.",
		Web:     "Resultados da pesquisa na web:\n\n1. A",
	})
	require.NoError(t, err)

	assert.Contains(t, got, "ESTILO DESTA RESPOSTA:\nPersonalidade desta resposta: Paulo.")
	assert.Contains(t, got, "Perfil do usuário:\n- idade: 35")
	assert.Contains(t, got, "Última conversa:\nUsuário: Quero investir\nVocê: "+strings.Repeat("b", 50)+"...")
	assert.NotContains(t, got, "primeira")
	assert.Contains(t, got, "Contexto adicional: O usuário está solicitando")
	assert.Contains(t, got, "Resultados da pesquisa na web:")
	assert.True(t, strings.HasSuffix(got, "questões complexas ou específicas."))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "curta", preview(" curta "))
	assert.Equal(t, strings.Repeat("é", 50)+"...", preview(strings.Repeat("é", 60)))
}
