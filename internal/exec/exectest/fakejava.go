// Package exectest provides a stand-in for the Java runtime so engine tests
// exercise the real command-line contract without a JVM.
package exectest

import (
	"os"
	"path/filepath"
	goruntime "runtime"
	"testing"

	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// Payloads with special meaning to the fake engine.
const (
	PayloadFail      = "fail"       // exit 1 with a stderr message
	PayloadFailQuiet = "fail-quiet" // exit 3 with empty stderr
	PayloadEmpty     = "empty"      // exit 0 with whitespace-only stdout
	PayloadSleep     = "sleep"      // never finishes on its own
	PayloadArgv      = "argv"       // echoes its arguments joined by '|'
	// WrongSecret makes any operation fail as a bad master password would.
	WrongSecret = "wrong"
	// FailStderr is the message printed for PayloadFail.
	FailStderr = "Invalid padding"
	// VersionBanner is reported by "java -version".
	VersionBanner = "17.0.2"
)

// script mimics the secure properties tool: encrypt wraps the payload in
// ![AES:...], decrypt strips the envelope.
const script = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo 'openjdk version "` + VersionBanner + `"' >&2
  exit 0
fi
if [ "$1" != "-jar" ]; then
  echo "unexpected flag $1" >&2
  exit 2
fi
case "$4" in
  fail) echo "Invalid padding" >&2; exit 1 ;;
  fail-quiet) exit 3 ;;
  empty) echo "   "; exit 0 ;;
  sleep) exec sleep 30 ;;
  argv) echo "$1|$2|$3|$4|$5"; exit 0 ;;
esac
if [ "$5" = "wrong" ]; then
  echo "Bad master password" >&2
  exit 1
fi
case "$3" in
  encrypt) echo "![AES:$4]" ;;
  decrypt)
    v=${4#"![AES:"}
    echo "${v%"]"}"
    ;;
  *) echo "unknown operation $3" >&2; exit 2 ;;
esac
`

// SkipUnlessPOSIX skips tests that need /bin/sh.
func SkipUnlessPOSIX(t testing.TB) {
	t.Helper()
	if goruntime.GOOS == "windows" {
		t.Skip("fake java runtime requires a POSIX shell")
	}
}

// Install writes a fake java executable under <dir>/jdk/bin and both engine
// JARs under <dir>/jars. It returns runtimes for every supported version
// pointing at them.
func Install(t testing.TB, dir string) []runtime.Runtime {
	t.Helper()
	SkipUnlessPOSIX(t)

	javaHome := filepath.Join(dir, "jdk")
	bin := filepath.Join(javaHome, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatalf("create java home: %v", err)
	}
	if err := os.WriteFile(filepath.Join(bin, "java"), []byte(script), 0o755); err != nil {
		t.Fatalf("write fake java: %v", err)
	}

	jarDir := filepath.Join(dir, "jars")
	if err := os.MkdirAll(jarDir, 0o755); err != nil {
		t.Fatalf("create jar dir: %v", err)
	}
	for _, name := range []string{runtime.SharedJar, runtime.Java17Jar} {
		if err := os.WriteFile(filepath.Join(jarDir, name), []byte("PK"), 0o644); err != nil {
			t.Fatalf("write jar: %v", err)
		}
	}

	runtimes := runtime.DefaultRuntimes(jarDir)
	for i := range runtimes {
		runtimes[i].JavaHome = javaHome
	}
	return runtimes
}
