package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/secprops/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// VersionError indicates an unsupported version or a missing engine JAR
	VersionError = 3

	// EngineError indicates the Java engine could not be started or failed
	EngineError = 4

	// TimeoutError indicates the Java engine was killed after the timeout
	TimeoutError = 5

	// PartialFailure indicates a batch or file run where some items failed
	PartialFailure = 6

	// HistoryDisabled indicates a history command while history is off
	HistoryDisabled = 7

	// Interrupted indicates the run was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// ErrPartialFailure is returned by commands whose run completed with
// failed items.
var ErrPartialFailure = stderrors.New("one or more items failed")

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code, using its error code
// when it carries one.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}
	if stderrors.Is(err, ErrPartialFailure) {
		return PartialFailure
	}

	switch errors.CodeOf(err) {
	case errors.ErrCodeMissingParameter, errors.ErrCodeInvalidRequest:
		return UsageError
	case errors.ErrCodeUnsupportedVersion, errors.ErrCodeArtifactMissing:
		return VersionError
	case errors.ErrCodeEngineLaunchFailed, errors.ErrCodeEngineExecutionFailed, errors.ErrCodeEngineNoOutput:
		return EngineError
	case errors.ErrCodeEngineTimeout:
		return TimeoutError
	case errors.ErrCodeAuditDisabled:
		return HistoryDisabled
	}

	// cobra reports usage problems as plain errors
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown command") ||
		strings.Contains(errMsg, "unknown shorthand flag") || strings.Contains(errMsg, "required flag") ||
		strings.Contains(errMsg, "accepts ") || strings.Contains(errMsg, "invalid argument") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or request)"
	case VersionError:
		return "Unsupported Java version or missing engine JAR"
	case EngineError:
		return "Java engine failed"
	case TimeoutError:
		return "Java engine timed out"
	case PartialFailure:
		return "Some items failed"
	case HistoryDisabled:
		return "History is disabled"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
