package exec

import (
	"time"

	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// Operation is the engine command name
type Operation string

const (
	OpEncrypt Operation = "encrypt"
	OpDecrypt Operation = "decrypt"
)

// Valid reports whether o belongs to the closed operation set
func (o Operation) Valid() bool {
	return o == OpEncrypt || o == OpDecrypt
}

func (o Operation) String() string {
	return string(o)
}

// Request is a single engine invocation
type Request struct {
	Version   runtime.VersionKey
	Operation Operation
	Payload   string
	// Secret is passed to the engine and never logged.
	Secret string
}

// Result represents the outcome of a finished process
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Config configures process invocation
type Config struct {
	Timeout time.Duration
}

// DefaultTimeout bounds one engine process lifetime
const DefaultTimeout = 30 * time.Second

// DefaultConfig returns the default invocation config
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout}
}
