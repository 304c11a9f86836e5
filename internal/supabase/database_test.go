package supabase_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ugc-studio/internal/database"
	"ugc-studio/internal/models"
	"ugc-studio/internal/supabase"
)

// newTestStore connects to STUDIO_TEST_DATABASE_URL, applies migrations and
// returns the store plus a raw handle for arranging rows.
func newTestStore(t *testing.T) (*supabase.DatabaseClient, *sql.DB) {
	t.Helper()
	dbURL := os.Getenv("STUDIO_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("STUDIO_TEST_DATABASE_URL not set")
	}

	migrator, err := database.NewMigrator(dbURL, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, migrator.Run(context.Background()))
	migrator.Close()

	store, err := supabase.NewDatabaseClient(dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	raw, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	return store, raw
}

func createProject(t *testing.T, store *supabase.DatabaseClient, userID string, generating bool) *models.Project {
	t.Helper()
	p, err := store.CreateProject(context.Background(), models.Project{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProductName:    "Mug",
		AspectRatio:    models.AspectPortrait,
		UploadedImages: []string{"a.png", "b.png"},
		IsGenerating:   generating,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteProject(context.Background(), p.ID, userID) })
	return p
}

func TestDatabase_CreateAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := "user-" + uuid.NewString()
	p := createProject(t, store, user, true)

	got, err := store.GetProject(ctx, p.ID, user)
	require.NoError(t, err)
	assert.Equal(t, models.AspectPortrait, got.AspectRatio)
	assert.Equal(t, []string{"a.png", "b.png"}, got.UploadedImages)
	assert.True(t, got.IsGenerating)

	_, err = store.GetProject(ctx, p.ID, "someone-else")
	assert.ErrorIs(t, err, supabase.ErrNotFound)
}

func TestDatabase_SetGeneratedVideoRequiresImage(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := "user-" + uuid.NewString()
	p := createProject(t, store, user, true)

	assert.ErrorIs(t, store.SetGeneratedVideo(ctx, p.ID, "v.mp4"), supabase.ErrNoImage)

	require.NoError(t, store.SetGeneratedImage(ctx, p.ID, "i.png"))
	require.NoError(t, store.SetGenerating(ctx, p.ID, true))
	require.NoError(t, store.SetGeneratedVideo(ctx, p.ID, "v.mp4"))

	got, err := store.GetProject(ctx, p.ID, user)
	require.NoError(t, err)
	assert.Equal(t, "v.mp4", got.GeneratedVideo)
	assert.False(t, got.IsGenerating)
}

func TestDatabase_SetErrorClearsGenerating(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := "user-" + uuid.NewString()
	p := createProject(t, store, user, true)

	require.NoError(t, store.SetError(ctx, p.ID, "quota exceeded"))
	got, err := store.GetProject(ctx, p.ID, user)
	require.NoError(t, err)
	assert.False(t, got.IsGenerating)
	assert.Equal(t, "quota exceeded", got.Error)

	require.NoError(t, store.SetGenerating(ctx, p.ID, true))
	got, err = store.GetProject(ctx, p.ID, user)
	require.NoError(t, err)
	assert.True(t, got.IsGenerating)
	assert.Empty(t, got.Error)
}

func TestDatabase_TogglePublishedOwnerOnly(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := "user-" + uuid.NewString()
	p := createProject(t, store, user, false)

	_, err := store.TogglePublished(ctx, p.ID, "someone-else")
	assert.ErrorIs(t, err, supabase.ErrNotFound)

	published, err := store.TogglePublished(ctx, p.ID, user)
	require.NoError(t, err)
	assert.True(t, published)

	published, err = store.TogglePublished(ctx, p.ID, user)
	require.NoError(t, err)
	assert.False(t, published)

	assert.ErrorIs(t, store.DeleteProject(ctx, p.ID, "someone-else"), supabase.ErrNotFound)
}

func TestDatabase_FailStaleGenerations(t *testing.T) {
	store, raw := newTestStore(t)
	ctx := context.Background()
	user := "user-" + uuid.NewString()
	stale := createProject(t, store, user, true)
	fresh := createProject(t, store, user, true)

	_, err := raw.ExecContext(ctx, `UPDATE projects SET created_at = NOW() - INTERVAL '2 hours' WHERE id = $1`, stale.ID)
	require.NoError(t, err)

	n, err := store.FailStaleGenerations(ctx, time.Hour, "Generation timed out")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err := store.GetProject(ctx, stale.ID, user)
	require.NoError(t, err)
	assert.False(t, got.IsGenerating)
	assert.Equal(t, "Generation timed out", got.Error)

	got, err = store.GetProject(ctx, fresh.ID, user)
	require.NoError(t, err)
	assert.True(t, got.IsGenerating)
	assert.Empty(t, got.Error)
}
