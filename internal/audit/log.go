// Package audit keeps a bounded, most-recent-first history of encrypt and
// decrypt operations in a single JSON document.
//
// Every mutation is a read-modify-write of the whole document under a
// process-wide mutex. Persistence is best-effort: append failures are logged
// and returned for accounting but never fail the operation being recorded.
package audit

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/log"
)

// Defaults
const (
	DefaultMaxEntries = 100
	DefaultListLimit  = 50
	DefaultPath       = "history/history.json"
)

// Config contains audit log configuration
type Config struct {
	// Enabled controls whether history is kept at all
	Enabled bool

	// MaxEntries caps the stored document (default: 100)
	MaxEntries int

	// Path is the JSON document location (default: history/history.json)
	Path string
}

// DefaultConfig returns the default audit configuration. History is
// disabled by default.
func DefaultConfig() Config {
	return Config{
		Enabled:    false,
		MaxEntries: DefaultMaxEntries,
		Path:       DefaultPath,
	}
}

// Log is the persisted operation history
type Log struct {
	// path is the JSON document location
	path string

	// maxEntries caps the document
	maxEntries int

	// enabled indicates if history is kept
	enabled bool

	// mu serializes every read-modify-write of the document
	mu sync.Mutex

	logger *log.Logger
	now    func() time.Time
}

// New creates an audit log. Nothing touches the disk until the first append.
func New(cfg Config, logger *log.Logger) *Log {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	return &Log{
		path:       cfg.Path,
		maxEntries: cfg.MaxEntries,
		enabled:    cfg.Enabled,
		logger:     log.OrDefault(logger).With("component", "audit"),
		now:        time.Now,
	}
}

// Enabled reports whether history is kept
func (l *Log) Enabled() bool {
	return l.enabled
}

// Append stores rec as the newest entry and prunes the oldest entries beyond
// the cap. It returns the new entry ID, or "" when history is disabled or
// the write failed. A write failure is logged and returned as an
// AUDIT-001 error that callers may count but must not propagate.
func (l *Log) Append(rec Record) (string, error) {
	if !l.enabled {
		return "", nil
	}

	entry := Entry{
		ID:        uuid.New().String(),
		Timestamp: l.now().UTC(),
		Operation: rec.Operation,
		Version:   rec.Version,
		Success:   rec.Success,
		Key:       rec.Key,
		Digest:    Digest(rec.Ciphertext),
		Error:     rec.Error,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		// Unreadable history is replaced rather than blocking new entries
		l.logger.WithError(err).Warn("discarding unreadable history document", "path", l.path)
		entries = nil
	}

	entries = append([]Entry{entry}, entries...)
	if len(entries) > l.maxEntries {
		entries = entries[:l.maxEntries]
	}

	if err := l.write(entries); err != nil {
		auditErr := errors.NewAuditUnavailableError(err)
		l.logger.WithError(auditErr).Warn("failed to save history", "path", l.path)
		return "", auditErr
	}

	return entry.ID, nil
}

// List returns at most limit entries, most recent first. A non-positive
// limit uses DefaultListLimit. It fails with AUDIT-002 when history is
// disabled; a missing or unreadable document yields an empty list.
func (l *Log) List(limit int) ([]Entry, error) {
	if !l.enabled {
		return nil, errors.NewAuditDisabledError()
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	l.mu.Lock()
	entries, err := l.read()
	l.mu.Unlock()

	if err != nil {
		l.logger.WithError(err).Warn("failed to read history", "path", l.path)
		return []Entry{}, nil
	}

	if limit > l.maxEntries {
		limit = l.maxEntries
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Clear removes all stored entries. Clearing an empty history succeeds.
func (l *Log) Clear() error {
	if !l.enabled {
		return errors.NewAuditDisabledError()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewAuditUnavailableError(err)
	}
	return nil
}

// read loads the document; a missing file is an empty history
func (l *Log) read() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return entries, nil
}

// write replaces the document atomically via a temp file in the same directory
func (l *Log) write(entries []Entry) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize history: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
