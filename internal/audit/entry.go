package audit

import (
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// Operation is the kind of logical operation recorded
type Operation string

const (
	OperationEncrypt Operation = "encrypt"
	OperationDecrypt Operation = "decrypt"
)

// Entry is one stored history record. It never holds the plaintext, the
// master password or the full ciphertext.
type Entry struct {
	// ID is a unique identifier for this entry
	ID string `json:"id"`

	// Timestamp is when the operation finished
	Timestamp time.Time `json:"timestamp"`

	// Operation is encrypt or decrypt
	Operation Operation `json:"operation"`

	// Version is the Java version key used
	Version string `json:"javaVersion"`

	// Success reports the outcome
	Success bool `json:"success"`

	// Key is the property key for batch and file items
	Key string `json:"key,omitempty"`

	// Digest identifies the ciphertext without revealing it
	Digest string `json:"encryptedHash,omitempty"`

	// Error is the failure message, if any
	Error string `json:"error,omitempty"`
}

// Record carries the fields of an operation to append. Ciphertext is reduced
// to a digest before storage.
type Record struct {
	Operation  Operation
	Version    string
	Success    bool
	Key        string
	Ciphertext string
	Error      string
}

// Digest returns the hex BLAKE3 hash of a ciphertext, or "" for an empty one.
func Digest(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}
	hasher := blake3.New()
	_, _ = hasher.Write([]byte(ciphertext))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
