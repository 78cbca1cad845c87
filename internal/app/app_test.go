package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/finadvisor/internal/config"
	"github.com/easeaico/finadvisor/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		LLMProvider:      "openai",
		LLMModel:         "gpt-4o",
		OpenAIAPIKey:     "sk-test",
		LLMTemperature:   0.7,
		LLMMaxTokens:     800,
		LLMTopP:          0.9,
		LLMTimeout:       time.Second,
		StorageBackend:   storage.BackendFile,
		MemoryFile:       filepath.Join(t.TempDir(), "user_memory.json"),
		SearxngURLs:      []string{"http://127.0.0.1:1"},
		SearchTimeout:    time.Second,
		SearchMaxResults: 3,
		CacheTTL:         time.Minute,
		RandomSeed:       7,
	}
}

func TestNewWiresFileBackend(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Close(ctx)) }()

	assert.Equal(t, "gpt-4o", a.Model)
	assert.NotNil(t, a.Advisor)
	assert.Empty(t, a.Store.Records())
	assert.Contains(t, a.Advisor.Welcome(ctx, "1", "Ana"), "Sou Paulo")
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = "redis"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
