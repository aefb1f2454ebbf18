package migration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/frameshop/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add stage colors", "add_stage_colors"},
		{"Add-Stage-Colors", "add_stage_colors"},
		{"ADD__STAGE__COLORS", "add_stage_colors"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create stages")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_stages.up.sql"), first.UpPath)
	assert.FileExists(t, first.DownPath)

	second, err := CreateMigration(dir, "Add stage colors")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "000002_add_stage_colors", second.BaseName())

	content, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- Migration: add_stage_colors")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!")
	assert.ErrorContains(t, err, "no usable characters")
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		files, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("repository migrations", func(t *testing.T) {
		_, filename, _, ok := runtime.Caller(0)
		require.True(t, ok)
		dir := filepath.Join(filepath.Dir(filename), "..", "..", "..", "migrations")

		files, err := ListMigrations(dir)
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.Equal(t, "create_production_tables", files[0].Name)
		assert.Equal(t, uint(3), files[2].Version)
		for _, f := range files {
			assert.FileExists(t, f.DownPath)
		}
	})
}

func TestOpen_RejectsSQLite(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "sqlite"})
	assert.ErrorContains(t, err, "require the postgres driver")
}
