package supabase_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"ugc-studio/internal/supabase"
)

func TestObjectPath(t *testing.T) {
	userID := "user_2abc"
	projectID := uuid.NewString()

	path := supabase.ObjectPath(userID, projectID, "generated.png")

	assert.Equal(t, "users/"+userID+"/projects/"+projectID+"/generated.png", path)
	assert.Contains(t, path, supabase.ProjectPrefix(userID, projectID))
}

func TestPublicURLRoundTrip(t *testing.T) {
	base := "https://xyz.supabase.co"
	path := supabase.ObjectPath("u1", "p1", "video.mp4")

	url := supabase.PublicURL(base, "generations", path)
	assert.Equal(t, "https://xyz.supabase.co/storage/v1/object/public/generations/users/u1/projects/p1/video.mp4", url)

	got, ok := supabase.PathFromPublicURL(base, "generations", url)
	assert.True(t, ok)
	assert.Equal(t, path, got)
}

func TestPathFromPublicURL_ForeignURL(t *testing.T) {
	_, ok := supabase.PathFromPublicURL("https://xyz.supabase.co", "generations", "https://cdn.example.com/a.png")
	assert.False(t, ok)

	_, ok = supabase.PathFromPublicURL("https://xyz.supabase.co", "generations", "https://xyz.supabase.co/storage/v1/object/public/generations/")
	assert.False(t, ok)
}
