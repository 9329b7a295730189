package version

import (
	"encoding/json"
	goruntime "runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBuild(t *testing.T, version, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})
	Version, Commit, Date = version, commit, date
}

func stamped(settings ...string) *debug.BuildInfo {
	bi := &debug.BuildInfo{}
	for i := 0; i+1 < len(settings); i += 2 {
		bi.Settings = append(bi.Settings, debug.BuildSetting{Key: settings[i], Value: settings[i+1]})
	}
	return bi
}

func TestResolveLinkerValues(t *testing.T) {
	setBuild(t, "1.4.0", "0123456789abcdef", "2026-01-02")

	info := resolve(stamped("vcs.revision", "ffffffff", "vcs.time", "2020-01-01T00:00:00Z"))

	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.Commit)
	assert.Equal(t, "2026-01-02", info.Date)
	assert.Equal(t, goruntime.Version(), info.GoVersion)
	assert.Equal(t, goruntime.GOOS+"/"+goruntime.GOARCH, info.Platform)
	assert.Equal(t, "1.4.0", info.Short())
}

func TestResolveFallsBackToVCSStamp(t *testing.T) {
	setBuild(t, "dev", "unknown", "unknown")

	info := resolve(stamped(
		"vcs.revision", "c0ffee1234567890",
		"vcs.time", "2026-03-04T05:06:07Z",
		"vcs.modified", "true",
	))

	assert.Equal(t, "c0ffee1234567890", info.Commit)
	assert.Equal(t, "2026-03-04T05:06:07Z", info.Date)
	assert.True(t, info.Modified)
	assert.Contains(t, info.String(), "(c0ffee12-dirty)")
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	setBuild(t, "dev", "unknown", "unknown")

	info := resolve(nil)
	assert.Equal(t, "unknown", info.Commit)
	assert.False(t, info.Modified)
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name   string
		commit string
		want   string
	}{
		{"long commit is shortened", "0123456789abcdef", "(01234567)"},
		{"short commit kept", "abc", "(abc)"},
		{"default commit", "unknown", "(unknown)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuild(t, "dev", tt.commit, "unknown")
			s := resolve(nil).String()
			assert.Contains(t, s, "secprops dev "+tt.want)
			assert.Contains(t, s, goruntime.Version())
		})
	}
}

func TestInfoJSON(t *testing.T) {
	setBuild(t, "2.0.0", "c0ffee", "today")

	raw, err := json.Marshal(GetInfo())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "2.0.0", out["version"])
	assert.Equal(t, "c0ffee", out["commit"])
	assert.NotEmpty(t, out["goVersion"])
}
