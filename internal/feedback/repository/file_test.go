package repository_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cardiolens/cardiolens-backend/internal/feedback/domain"
	"github.com/cardiolens/cardiolens-backend/internal/feedback/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRecord(t *testing.T) {
	got := repository.FormatRecord(&domain.Feedback{Name: "Ada", Review: "Great tool"})
	assert.Equal(t, "Name: Ada\nReview: Great tool\n--------------------\n", got)
}

func TestFileLog_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "feedback.txt")
	log, err := repository.NewFileLog(path)
	require.NoError(t, err)
	assert.Equal(t, "file", log.Name())

	ctx := context.Background()
	require.NoError(t, log.Append(ctx, &domain.Feedback{Name: "Anonymous", Review: ""}))
	require.NoError(t, log.Append(ctx, &domain.Feedback{Name: "Bo", Review: "line one\nline two"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Name: Anonymous\nReview: \n--------------------\n"+
			"Name: Bo\nReview: line one\nline two\n--------------------\n",
		string(data))
}

func TestFileLog_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.txt")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	log, err := repository.NewFileLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(context.Background(), &domain.Feedback{Name: "C", Review: "ok"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "previous\nName: C\n"))
}

func TestFileLog_ConcurrentAppendsKeepEveryRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.txt")
	log, err := repository.NewFileLog(path)
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fb := &domain.Feedback{
				Name:   fmt.Sprintf("user-%d", i),
				Review: strings.Repeat(fmt.Sprintf("review %d ", i), 200),
			}
			assert.NoError(t, log.Append(context.Background(), fb))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	for i := 0; i < writers; i++ {
		record := repository.FormatRecord(&domain.Feedback{
			Name:   fmt.Sprintf("user-%d", i),
			Review: strings.Repeat(fmt.Sprintf("review %d ", i), 200),
		})
		assert.Contains(t, content, record, "record %d missing or interleaved", i)
	}
	assert.Equal(t, writers, strings.Count(content, "--------------------\n"))
}

func TestFileLog_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	log, err := repository.NewFileLog(dir)
	require.NoError(t, err)

	err = log.Append(context.Background(), &domain.Feedback{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open feedback log")
}

func TestFileLog_CancelledContext(t *testing.T) {
	log, err := repository.NewFileLog(filepath.Join(t.TempDir(), "feedback.txt"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, log.Append(ctx, &domain.Feedback{}), context.Canceled)
}

func TestFileLog_Health(t *testing.T) {
	dir := t.TempDir()
	log, err := repository.NewFileLog(filepath.Join(dir, "feedback.txt"))
	require.NoError(t, err)

	assert.Equal(t, "up", log.Health(context.Background())["status"])

	require.NoError(t, os.RemoveAll(dir))
	health := log.Health(context.Background())
	assert.Equal(t, "down", health["status"])
	assert.Equal(t, "file", health["driver"])
}
