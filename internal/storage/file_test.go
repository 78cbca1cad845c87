package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/finadvisor/internal/memory"
	"github.com/easeaico/finadvisor/internal/types"
)

var testPersonalities = []types.PersonalityID{
	types.PersonalityDefault, types.PersonalityTechnical, types.PersonalityMentor, types.PersonalityFriendly,
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory", "users.json")

	b, err := NewFileBackend(path)
	require.NoError(t, err)

	_, err = b.Load(ctx, "1")
	assert.ErrorIs(t, err, memory.ErrNotFound)

	rec := types.NewUserRecord("1", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), testPersonalities)
	rec.InteractionCount = 3
	rec.LongTerm.PersonalDetails["age"] = "35"
	rec.PersonalityAffinity[types.PersonalityMentor] = 2
	require.NoError(t, b.Save(ctx, rec))

	reopened, err := NewFileBackend(path)
	require.NoError(t, err)
	got, err := reopened.Load(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	all, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFileBackendMissingAndEmptyFile(t *testing.T) {
	dir := t.TempDir()

	b, err := NewFileBackend(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	all, err := b.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = NewFileBackend(empty)
	assert.NoError(t, err)
}

func TestFileBackendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileBackend(path)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestFileBackendSaveRejectsAnonymousRecord(t *testing.T) {
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	assert.ErrorIs(t, b.Save(context.Background(), &types.UserRecord{}), ErrStorage)
}

func TestFileBackendSaveIsolatesCaller(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)

	rec := types.NewUserRecord("2", time.Now().UTC(), testPersonalities)
	require.NoError(t, b.Save(ctx, rec))
	rec.Topics = append(rec.Topics, "crypto")

	got, err := b.Load(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, got.Topics)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "redis"})
	assert.Error(t, err)
}

func TestMongoDatabaseName(t *testing.T) {
	assert.Equal(t, "advisor", mongoDatabaseName("mongodb://localhost:27017/advisor?authSource=admin"))
	assert.Equal(t, "prod", mongoDatabaseName("mongodb+srv://u:p@cluster.example.net/prod"))
	assert.Equal(t, defaultMongoDatabase, mongoDatabaseName("mongodb://localhost:27017"))
}
