package notification

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"go.uber.org/zap"
)

// maxLineBytes bounds one JSON line when reading the log back
const maxLineBytes = 64 * 1024

// FileLog appends delivery entries to a local file, one JSON object per line
type FileLog struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	logger *zap.Logger
}

// NewFileLog opens (creating if needed) the log file at path in append mode
func NewFileLog(path string, logger *zap.Logger) (*FileLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create delivery log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open delivery log: %w", err)
	}

	logger.Info("delivery log opened", zap.String("path", path))
	return &FileLog{path: path, file: f, logger: logger}, nil
}

// Append writes entry as a single line. Concurrent appends never interleave.
func (l *FileLog) Append(ctx context.Context, entry *models.DeliveryLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode delivery log entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("delivery log is closed")
	}
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("failed to write delivery log entry: %w", err)
	}
	return nil
}

// Recent reads the file back and returns up to limit entries, newest first.
// It reads through its own handle and never blocks appends. Lines that do not
// decode, or are longer than maxLineBytes, are skipped.
func (l *FileLog) Recent(ctx context.Context, limit int) ([]*models.DeliveryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.DeliveryLogEntry{}, nil
		}
		return nil, fmt.Errorf("failed to open delivery log: %w", err)
	}
	defer f.Close()

	// Only the last limit entries are kept
	kept := make([]*models.DeliveryLogEntry, 0, limit)
	r := bufio.NewReaderSize(f, maxLineBytes)
	for {
		line, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			l.logger.Debug("skipping oversize delivery log line")
			err = skipLine(r)
			line = nil
		}

		if len(bytes.TrimSpace(line)) > 0 {
			var e models.DeliveryLogEntry
			if jsonErr := json.Unmarshal(line, &e); jsonErr != nil {
				l.logger.Debug("skipping malformed delivery log line", zap.Error(jsonErr))
			} else {
				if len(kept) == limit {
					kept = kept[1:]
				}
				kept = append(kept, &e)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read delivery log: %w", err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	out := make([]*models.DeliveryLogEntry, 0, len(kept))
	for i := len(kept) - 1; i >= 0; i-- {
		out = append(out, kept[i])
	}
	return out, nil
}

// skipLine discards input up to and including the next newline
func skipLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

// Close closes the underlying file
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
