// Package health reports whether the Java runtimes and engine JARs behind
// each supported version are usable.
//
// A missing runtime or JAR degrades the service rather than failing it.
// Other versions keep working, and requests for the broken version fail with
// their own error when they arrive.
package health

import (
	"context"
	"time"
)

// Checker verifies one runtime dependency, such as "java-17" or "artifact-11".
// Check must honour the context deadline.
type Checker interface {
	Name() string
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Result is what a Checker reports. The manager fills Latency when the
// checker leaves it zero.
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// WithDetail records key on r and returns r.
func (r *Result) WithDetail(key string, value any) *Result {
	if r.Details == nil {
		r.Details = make(map[string]any)
	}
	r.Details[key] = value
	return r
}

func Healthy(message string) *Result   { return &Result{Status: StatusHealthy, Message: message} }
func Degraded(message string) *Result  { return &Result{Status: StatusDegraded, Message: message} }
func Unhealthy(message string) *Result { return &Result{Status: StatusUnhealthy, Message: message} }
