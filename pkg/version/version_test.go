package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFromBuildInfo verifies build info fills only unset fields.
func TestFromBuildInfo(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date

	t.Cleanup(func() { Version, Commit, Date = origVersion, origCommit, origDate })

	Version, Commit, Date = "dev", unknown, "2026-01-02"

	fromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-09-30T10:00:00Z"},
		},
	})

	assert.Equal(t, "v0.4.1", Version)
	assert.Equal(t, "abc123", Commit)
	assert.Equal(t, "2026-01-02", Date)
	assert.Equal(t, "lineheight v0.4.1 (commit: abc123, built: 2026-01-02)", String())
}
