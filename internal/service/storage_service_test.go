package service

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"student_risk_backend/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveKey(t *testing.T) {
	now := time.Date(2024, 3, 5, 8, 9, 10, 0, time.UTC)

	key := ArchiveKey("week1.csv", now)
	assert.Regexp(t, regexp.MustCompile(`^cohorts/20240305/080910_[0-9a-f]{8}\.csv$`), key)

	assert.True(t, strings.HasSuffix(ArchiveKey("noext", now), ".csv"))
	assert.NotEqual(t, ArchiveKey("a.csv", now), ArchiveKey("a.csv", now))
}

func TestStorageService_LocalArchive(t *testing.T) {
	root := t.TempDir()
	svc := NewStorageService(&config.StorageConfig{Type: "local", LocalPath: root})
	require.IsType(t, &LocalArchive{}, svc.Provider)

	url, err := svc.Archive(context.Background(), "week1.csv", []byte("student_id\nS1\n"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/cohorts/"))

	key := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(root, key))
	require.NoError(t, err)
	assert.Equal(t, "student_id\nS1\n", string(data))

	require.NoError(t, svc.Delete(context.Background(), key))
	_, err = os.Stat(filepath.Join(root, key))
	assert.True(t, os.IsNotExist(err))
}

func TestStorageService_UnknownTypeFallsBackToLocal(t *testing.T) {
	svc := NewStorageService(&config.StorageConfig{Type: "s3", LocalPath: t.TempDir()})
	assert.IsType(t, &LocalArchive{}, svc.Provider)
}
