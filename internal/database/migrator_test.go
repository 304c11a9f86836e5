package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ugc-studio/internal/database"
)

func TestMigrationNames(t *testing.T) {
	names, err := database.MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_create_projects.sql", names[0])
}
