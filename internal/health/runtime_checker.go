package health

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// JavaChecker checks that the Java runtime for one version can be started.
type JavaChecker struct {
	registry *runtime.Registry
	version  runtime.VersionKey
}

// NewJavaChecker creates a Java runtime checker for version.
func NewJavaChecker(registry *runtime.Registry, version runtime.VersionKey) *JavaChecker {
	return &JavaChecker{registry: registry, version: version}
}

// Name returns the name of this health check.
func (c *JavaChecker) Name() string {
	return "java-" + string(c.version)
}

// Check runs `java -version` for the configured runtime.
// Returns:
//   - Healthy if the runtime starts and reports a version
//   - Degraded if the runtime cannot be found or fails to run
func (c *JavaChecker) Check(ctx context.Context) *Result {
	exe, err := c.registry.Executable(c.version)
	if err != nil {
		return Unhealthy("version is not configured").
			WithDetail("error", errors.Message(err))
	}

	path := exe
	if !filepath.IsAbs(exe) {
		if path, err = exec.LookPath(exe); err != nil {
			return Degraded("java command not found in PATH").
				WithDetail("error", err.Error()).
				WithDetail("suggestion", "Install Java or set "+javaHomeEnv(c.version))
		}
	} else if _, err := os.Stat(exe); err != nil {
		return Degraded("java executable not found").
			WithDetail("java_path", exe).
			WithDetail("suggestion", "Check "+javaHomeEnv(c.version))
	}

	// java -version reports on stderr
	output, err := exec.CommandContext(ctx, path, "-version").CombinedOutput()
	if err != nil {
		return Degraded("java runtime failed to start").
			WithDetail("java_path", path).
			WithDetail("error", err.Error()).
			WithDetail("output", strings.TrimSpace(string(output)))
	}

	result := Healthy("java runtime available").WithDetail("java_path", path)
	if banner := firstLine(string(output)); banner != "" {
		result.WithDetail("java_version", banner)
	}
	return result
}

// ArtifactChecker checks that the engine JAR for one version exists.
type ArtifactChecker struct {
	registry *runtime.Registry
	version  runtime.VersionKey
}

// NewArtifactChecker creates an engine JAR checker for version.
func NewArtifactChecker(registry *runtime.Registry, version runtime.VersionKey) *ArtifactChecker {
	return &ArtifactChecker{registry: registry, version: version}
}

// Name returns the name of this health check.
func (c *ArtifactChecker) Name() string {
	return "artifact-" + string(c.version)
}

// Check verifies the JAR is present.
// Returns:
//   - Healthy if the JAR exists
//   - Degraded if the JAR is missing
func (c *ArtifactChecker) Check(ctx context.Context) *Result {
	artifact, err := c.registry.Artifact(c.version)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeArtifactMissing) {
			return Degraded("engine JAR not found").
				WithDetail("error", errors.Message(err)).
				WithDetail("code", string(errors.ErrCodeArtifactMissing))
		}
		return Unhealthy("version is not configured").
			WithDetail("error", errors.Message(err))
	}
	return Healthy("engine JAR present").WithDetail("artifact", artifact)
}

// RuntimeCheckers returns a Java and a JAR checker for every version of registry.
func RuntimeCheckers(registry *runtime.Registry) []Checker {
	var checkers []Checker
	for _, version := range registry.Versions() {
		checkers = append(checkers,
			NewJavaChecker(registry, version),
			NewArtifactChecker(registry, version),
		)
	}
	return checkers
}

func javaHomeEnv(version runtime.VersionKey) string {
	if version == runtime.Java8 {
		return "JAVA_HOME_8"
	}
	return "JAVA_HOME_" + string(version)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
