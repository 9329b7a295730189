package gateway

import (
	"github.com/felixgeelhaar/secprops/internal/audit"
	"github.com/felixgeelhaar/secprops/internal/batch"
	"github.com/felixgeelhaar/secprops/internal/props"
)

// Algorithm is reported with every encryption result
const Algorithm = "AES"

// EncryptRequest encrypts one value
type EncryptRequest struct {
	PlainText      string `json:"plainText" validate:"required"`
	MasterPassword string `json:"masterPassword" validate:"required"`
	JavaVersion    string `json:"javaVersion,omitempty" validate:"omitempty,javaversion"`
}

// DecryptRequest decrypts one value
type DecryptRequest struct {
	EncryptedValue string `json:"encryptedValue" validate:"required"`
	MasterPassword string `json:"masterPassword" validate:"required"`
	JavaVersion    string `json:"javaVersion,omitempty" validate:"omitempty,javaversion"`
}

// BatchRequest encrypts or decrypts many keyed values with one password
type BatchRequest struct {
	Items          []batch.Item `json:"properties" validate:"gt=0"`
	MasterPassword string       `json:"masterPassword" validate:"required"`
	JavaVersion    string       `json:"javaVersion,omitempty" validate:"omitempty,javaversion"`

	// OnItem reports progress as items settle
	OnItem func(index int, result batch.ItemResult) `json:"-" yaml:"-"`
}

// FileRequest transforms the entries of a property file
type FileRequest struct {
	Content        string `json:"content"`
	MasterPassword string `json:"masterPassword" validate:"required"`
	JavaVersion    string `json:"javaVersion,omitempty" validate:"omitempty,javaversion"`

	// OnItem reports progress as targeted entries settle. Indexes count
	// targeted entries only.
	OnItem func(index int, result batch.ItemResult) `json:"-" yaml:"-"`
}

// EncryptResult is the outcome of Encrypt
type EncryptResult struct {
	EncryptedValue string `json:"encryptedValue" yaml:"encrypted_value"`
	JavaVersion    string `json:"javaVersion" yaml:"java_version"`
	Algorithm      string `json:"algorithm" yaml:"algorithm"`
}

// DecryptResult is the outcome of Decrypt
type DecryptResult struct {
	PlainText   string `json:"plainText" yaml:"plain_text"`
	JavaVersion string `json:"javaVersion" yaml:"java_version"`
}

// KeyError names a property that could not be transformed
type KeyError struct {
	Key   string `json:"key" yaml:"key"`
	Error string `json:"error" yaml:"error"`
}

// FileResult is the outcome of a file operation. Entries holds every parsed
// entry in order, transformed where the engine succeeded.
type FileResult struct {
	OriginalCount  int                 `json:"originalCount" yaml:"original_count"`
	TargetCount    int                 `json:"targetCount" yaml:"target_count"`
	SucceededCount int                 `json:"succeededCount" yaml:"succeeded_count"`
	FailedCount    int                 `json:"failedCount" yaml:"failed_count"`
	Content        string              `json:"results" yaml:"results"`
	Entries        []props.Entry       `json:"resultsFormatted" yaml:"results_formatted"`
	Errors         []KeyError          `json:"errors" yaml:"errors"`
	Skipped        []props.SkippedLine `json:"skippedLines,omitempty" yaml:"skipped_lines,omitempty"`
}

// VersionsInfo lists the supported Java versions
type VersionsInfo struct {
	Supported []string `json:"supportedVersions" yaml:"supported_versions"`
	Default   string   `json:"defaultVersion" yaml:"default_version"`
}

// HistoryPage is one page of audit entries
type HistoryPage struct {
	History []audit.Entry `json:"history" yaml:"history"`
	Count   int           `json:"count" yaml:"count"`
}
