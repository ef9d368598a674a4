package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"NewsHarvester/internal/ports"
)

// DefaultFilePath is where the file ledger lives when no path is configured.
const DefaultFilePath = "processed_articles.txt"

// FileLedger is an append-only text file holding one processed title per line.
type FileLedger struct {
	path string
	mu   sync.Mutex
}

var _ ports.Ledger = (*FileLedger)(nil)

// NewFileLedger binds the ledger to path; the file is created on first mark.
func NewFileLedger(path string) *FileLedger {
	if strings.TrimSpace(path) == "" {
		path = DefaultFilePath
	}
	return &FileLedger{path: path}
}

// Path returns the backing file location.
func (l *FileLedger) Path() string {
	return l.path
}

// HasBeenProcessed scans the whole file for an exact line match.
// A missing file means nothing was processed yet.
func (l *FileLedger) HasBeenProcessed(_ context.Context, title string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	want := escapeLine(title)
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" && strings.TrimSuffix(line, "\n") == want {
			return true, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read ledger: %w", err)
		}
	}
}

// MarkProcessed appends title as a new line. Repeated marks produce repeated lines.
func (l *FileLedger) MarkProcessed(_ context.Context, title string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}

	if _, err := f.WriteString(escapeLine(title) + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("append ledger: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	return nil
}

var lineEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)

// escapeLine keeps one entry on one line without merging distinct titles:
// backslashes and line breaks are written as backslash escapes.
func escapeLine(title string) string {
	return lineEscaper.Replace(title)
}
