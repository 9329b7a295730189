package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/log"
)

func newTestLog(t *testing.T, maxEntries int) *Log {
	t.Helper()
	return New(Config{
		Enabled:    true,
		MaxEntries: maxEntries,
		Path:       filepath.Join(t.TempDir(), "history", "history.json"),
	}, log.Discard())
}

// TestAppendAndList tests that entries come back most recent first
func TestAppendAndList(t *testing.T) {
	l := newTestLog(t, 10)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := l.Append(Record{
			Operation:  OperationEncrypt,
			Version:    "1.8",
			Success:    true,
			Key:        fmt.Sprintf("key%d", i),
			Ciphertext: fmt.Sprintf("![AES:%d]", i),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if id == "" {
			t.Fatal("expected non-empty id")
		}
		ids = append(ids, id)
	}

	entries, err := l.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.ID != ids[2-i] {
			t.Errorf("entry %d: expected id %s, got %s", i, ids[2-i], e.ID)
		}
	}
	if entries[0].Key != "key2" || entries[0].Version != "1.8" || !entries[0].Success {
		t.Errorf("unexpected newest entry: %+v", entries[0])
	}
	if entries[0].Digest != Digest("![AES:2]") {
		t.Errorf("expected digest of ciphertext, got %q", entries[0].Digest)
	}
}

// TestListLimit tests that List honours the requested limit and the cap
func TestListLimit(t *testing.T) {
	l := newTestLog(t, 5)
	for i := 0; i < 8; i++ {
		if _, err := l.Append(Record{Operation: OperationDecrypt, Version: "17"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 2, want: 2},
		{limit: 5, want: 5},
		{limit: 100, want: 5},
		{limit: 0, want: 5},
		{limit: -1, want: 5},
	}
	for _, tt := range tests {
		entries, err := l.List(tt.limit)
		if err != nil {
			t.Fatalf("List(%d) failed: %v", tt.limit, err)
		}
		if len(entries) != tt.want {
			t.Errorf("List(%d): expected %d entries, got %d", tt.limit, tt.want, len(entries))
		}
	}
}

// TestClear tests that clear empties the history and is idempotent
func TestClear(t *testing.T) {
	l := newTestLog(t, 10)

	if err := l.Clear(); err != nil {
		t.Fatalf("Clear on empty history failed: %v", err)
	}

	if _, err := l.Append(Record{Operation: OperationEncrypt, Version: "11", Success: true}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := l.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}

	entries, err := l.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil list, got %v", entries)
	}
}

// TestDisabled tests that a disabled log is a no-op and signals distinctly
func TestDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	l := New(Config{Enabled: false, Path: path}, log.Discard())

	id, err := l.Append(Record{Operation: OperationEncrypt, Success: true})
	if err != nil || id != "" {
		t.Errorf("disabled Append should be a silent no-op, got id=%q err=%v", id, err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("disabled log must not create a document")
	}

	if _, err := l.List(10); !errors.HasCode(err, errors.ErrCodeAuditDisabled) {
		t.Errorf("expected AUDIT-002 from List, got %v", err)
	}
	if err := l.Clear(); !errors.HasCode(err, errors.ErrCodeAuditDisabled) {
		t.Errorf("expected AUDIT-002 from Clear, got %v", err)
	}
}

// TestAppendFailureIsSoft tests that persistence failures are reported, not panicked
func TestAppendFailureIsSoft(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	l := New(Config{Enabled: true, Path: filepath.Join(blocker, "history.json")}, log.Discard())

	id, err := l.Append(Record{Operation: OperationEncrypt, Success: true})
	if id != "" {
		t.Errorf("expected empty id on failure, got %q", id)
	}
	if !errors.HasCode(err, errors.ErrCodeAuditUnavailable) {
		t.Errorf("expected AUDIT-001, got %v", err)
	}
}

// TestCorruptDocumentIsReplaced tests recovery from an unreadable document
func TestCorruptDocumentIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	l := New(Config{Enabled: true, Path: path}, log.Discard())

	entries, err := l.List(10)
	if err != nil || len(entries) != 0 {
		t.Fatalf("corrupt document should list as empty, got %v %v", entries, err)
	}

	if _, err := l.Append(Record{Operation: OperationDecrypt, Version: "1.8"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	entries, _ = l.List(10)
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after recovery, got %d", len(entries))
	}
}

// TestDocumentNeverHoldsCiphertext tests the stored JSON shape
func TestDocumentNeverHoldsCiphertext(t *testing.T) {
	l := newTestLog(t, 10)
	ciphertext := "![AES:c2VjcmV0LWNpcGhlcnRleHQ=]"

	if _, err := l.Append(Record{
		Operation:  OperationEncrypt,
		Version:    "17",
		Success:    true,
		Ciphertext: ciphertext,
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if strings.Contains(string(data), "c2VjcmV0LWNpcGhlcnRleHQ") {
		t.Error("document contains the ciphertext")
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("document is not a JSON array: %v", err)
	}
	for _, field := range []string{"id", "timestamp", "operation", "javaVersion", "success", "encryptedHash"} {
		if _, ok := raw[0][field]; !ok {
			t.Errorf("missing field %q", field)
		}
	}
}

// TestConcurrentAppendsRespectCap tests that serialized writes lose nothing and never overflow
func TestConcurrentAppendsRespectCap(t *testing.T) {
	l := newTestLog(t, 20)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Append(Record{Operation: OperationEncrypt, Key: fmt.Sprintf("k%d", i), Success: true}); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	entries, err := l.List(1000)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 20 {
		t.Errorf("expected exactly 20 entries, got %d", len(entries))
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.ID] {
			t.Errorf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestDigest(t *testing.T) {
	if Digest("") != "" {
		t.Error("empty ciphertext should have no digest")
	}
	d := Digest("![AES:abc]")
	if len(d) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(d))
	}
	if d != Digest("![AES:abc]") {
		t.Error("digest should be deterministic")
	}
	if d == Digest("![AES:abd]") {
		t.Error("different ciphertexts should differ")
	}
}
