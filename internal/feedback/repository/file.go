package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cardiolens/cardiolens-backend/internal/feedback/domain"
)

var recordSeparator = strings.Repeat("-", 20)

// FileLog appends human-readable records to a flat text file.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog creates the parent directory if needed. The file itself is
// created on first append.
func NewFileLog(path string) (*FileLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create feedback directory: %w", err)
		}
	}
	return &FileLog{path: path}, nil
}

func (l *FileLog) Name() string { return "file" }

// Path returns the log file location
func (l *FileLog) Path() string { return l.path }

// FormatRecord renders fb the way it appears in the log.
func FormatRecord(fb *domain.Feedback) string {
	return fmt.Sprintf("Name: %s\nReview: %s\n%s\n", fb.Name, fb.Review, recordSeparator)
}

// Append writes one record with a single write on an O_APPEND descriptor.
func (l *FileLog) Append(ctx context.Context, fb *domain.Feedback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record := []byte(FormatRecord(fb))

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}

	n, err := f.Write(record)
	if err == nil && n < len(record) {
		err = fmt.Errorf("short write: %d of %d bytes", n, len(record))
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write feedback log: %w", err)
	}
	return nil
}

// Health reports whether the log file (or its directory) is reachable
func (l *FileLog) Health(ctx context.Context) map[string]string {
	status := map[string]string{
		"status": "up",
		"driver": l.Name(),
	}
	target := l.path
	if _, err := os.Stat(target); os.IsNotExist(err) {
		target = filepath.Dir(l.path)
	}
	if _, err := os.Stat(target); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}
	return status
}
