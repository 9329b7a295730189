package runtime

import (
	"io/fs"
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/felixgeelhaar/secprops/internal/errors"
)

// VersionKey identifies which engine artifact and Java runtime to use.
type VersionKey string

const (
	Java8  VersionKey = "1.8"
	Java11 VersionKey = "11"
	Java17 VersionKey = "17"
)

// DefaultVersion is used when a caller does not name a version.
const DefaultVersion = Java8

// Artifact file names shipped by MuleSoft.
const (
	SharedJar = "mule-secure-props-java8-11.jar"
	Java17Jar = "mule-secure-props-java17.jar"
)

// Supported lists the closed set of version keys in display order.
var Supported = []VersionKey{Java8, Java11, Java17}

// IsSupported reports whether key belongs to the closed supported set.
func IsSupported(key VersionKey) bool {
	for _, v := range Supported {
		if v == key {
			return true
		}
	}
	return false
}

// Strings returns keys as plain strings.
func Strings(keys []VersionKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

// Runtime is the configuration of one version key.
type Runtime struct {
	Version VersionKey
	// JavaHome overrides PATH lookup when non-empty.
	JavaHome string
	// Artifact is the path of the engine JAR.
	Artifact string
}

// Resolved is the launchable executable/artifact pair for a version.
type Resolved struct {
	Version    VersionKey
	Executable string
	Artifact   string
}

// DefaultRuntimes returns the stock runtime table with artifacts under jarDir.
func DefaultRuntimes(jarDir string) []Runtime {
	return []Runtime{
		{Version: Java8, Artifact: filepath.Join(jarDir, SharedJar)},
		{Version: Java11, Artifact: filepath.Join(jarDir, SharedJar)},
		{Version: Java17, Artifact: filepath.Join(jarDir, Java17Jar)},
	}
}

// Registry resolves version keys. It is immutable after construction and
// safe for concurrent use.
type Registry struct {
	runtimes map[VersionKey]Runtime
	goos     string
	stat     func(string) (fs.FileInfo, error)
}

// NewRegistry builds a registry from the given runtimes. Entries whose
// version is outside the supported set are rejected; supported versions that
// are not listed fall back to DefaultRuntimes(".") entries.
func NewRegistry(runtimes ...Runtime) (*Registry, error) {
	table := make(map[VersionKey]Runtime, len(Supported))
	for _, rt := range DefaultRuntimes(".") {
		table[rt.Version] = rt
	}
	for _, rt := range runtimes {
		if !IsSupported(rt.Version) {
			return nil, errors.NewUnsupportedVersionError(string(rt.Version), Strings(Supported))
		}
		table[rt.Version] = rt
	}
	return &Registry{
		runtimes: table,
		goos:     goruntime.GOOS,
		stat:     os.Stat,
	}, nil
}

// Versions returns the supported version keys in display order.
func (r *Registry) Versions() []VersionKey {
	out := make([]VersionKey, len(Supported))
	copy(out, Supported)
	return out
}

// Runtime returns the configuration for key.
func (r *Registry) Runtime(key VersionKey) (Runtime, error) {
	rt, ok := r.runtimes[key]
	if !ok {
		return Runtime{}, errors.NewUnsupportedVersionError(string(key), Strings(Supported))
	}
	return rt, nil
}

// Executable returns the Java executable for key: the absolute
// <JavaHome>/bin/java when an override is set, otherwise the bare command
// name for PATH lookup.
func (r *Registry) Executable(key VersionKey) (string, error) {
	rt, err := r.Runtime(key)
	if err != nil {
		return "", err
	}
	exe := "java"
	if r.goos == "windows" {
		exe = "java.exe"
	}
	if rt.JavaHome != "" {
		return absPath(filepath.Join(rt.JavaHome, "bin", exe)), nil
	}
	return exe, nil
}

// Artifact returns the absolute engine JAR path for key after checking it
// exists.
func (r *Registry) Artifact(key VersionKey) (string, error) {
	rt, err := r.Runtime(key)
	if err != nil {
		return "", err
	}
	info, err := r.stat(rt.Artifact)
	if err != nil || info.IsDir() {
		return "", errors.NewArtifactMissingError(rt.Artifact)
	}
	return absPath(rt.Artifact), nil
}

// absPath makes p absolute so it stays valid when the engine runs in the
// artifact's directory.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Resolve returns the executable and artifact for key.
func (r *Registry) Resolve(key VersionKey) (Resolved, error) {
	exe, err := r.Executable(key)
	if err != nil {
		return Resolved{}, err
	}
	artifact, err := r.Artifact(key)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Version: key, Executable: exe, Artifact: artifact}, nil
}
