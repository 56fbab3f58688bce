package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lchelper/lchelper/internal/explain"
)

func run(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestCommandsEndToEnd(t *testing.T) {
	t.Setenv("LCH_LLM_PROVIDER", "none")
	t.Setenv("LCH_LOG_LEVEL", "error")
	db := filepath.Join(t.TempDir(), "lch.db")

	require.NoError(t, run(t, "func twoSum() {}",
		"add", "two-sum", "--db", db, "-t", "Two Sum", "-d", "easy", "-l", "go", "-f", "-", "--number", "1"))
	require.NoError(t, run(t, "", "review", "two-sum", "success", "--db", db, "-c", "4"))
	require.NoError(t, run(t, "", "due", "--db", db))
	require.NoError(t, run(t, "", "calendar", "--db", db, "--days", "3"))
	require.NoError(t, run(t, "", "calendar", "--db", db, "--from", "2030-01-01", "--days", "2"))
	require.NoError(t, run(t, "", "rebalance", "--db", db, "--dry-run"))
	require.NoError(t, run(t, "", "problems", "list", "--db", db, "-d", "Easy"))
	require.NoError(t, run(t, "", "problems", "show", "two-sum", "--db", db, "--code"))
	require.NoError(t, run(t, "", "problems", "history", "two-sum", "--db", db))
	require.NoError(t, run(t, "", "note", "add", "two-sum", "hash", "the", "complement", "--db", db))
	require.NoError(t, run(t, "", "note", "list", "two-sum", "--db", db))
	require.NoError(t, run(t, "", "llm", "stats", "--db", db))

	err := run(t, "", "explain", "two-sum", "--db", db)
	assert.ErrorIs(t, err, explain.ErrDisabled)

	err = run(t, "", "review", "two-sum", "MAYBE", "--db", db)
	assert.Error(t, err)

	require.NoError(t, run(t, "", "problems", "rm", "two-sum", "--db", db))
	assert.Error(t, run(t, "", "problems", "show", "two-sum", "--db", db))
}

func TestReadCodeRequiresFile(t *testing.T) {
	_, err := readCode(addCmd, "")
	assert.Error(t, err)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
	assert.Equal(t, "$0.0012", formatCost(0.00123))
	assert.Equal(t, "$1.50", formatCost(1.5))
	assert.Equal(t, "not a time", localTime("not a time"))
}

func TestResolveVersion(t *testing.T) {
	rev := debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef0123"}
	tests := []struct {
		name   string
		linked string
		info   *debug.BuildInfo
		want   string
	}{
		{"linker flag wins", "v1.2.0", &debug.BuildInfo{Main: debug.Module{Version: "v1.1.0"}}, "v1.2.0"},
		{"no build info", "", nil, "(devel)"},
		{"module version", "", &debug.BuildInfo{Main: debug.Module{Version: "v1.1.0"}}, "v1.1.0"},
		{"vcs revision", "", &debug.BuildInfo{
			Main:     debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{rev, {Key: "vcs.modified", Value: "false"}},
		}, "devel-0123456789ab"},
		{"dirty tree", "", &debug.BuildInfo{
			Main:     debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{rev, {Key: "vcs.modified", Value: "true"}},
		}, "devel-0123456789ab-dirty"},
		{"nothing stamped", "", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, "(devel)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveVersion(tt.linked, tt.info))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	require.NoError(t, run(t, "", "version"))
	assert.True(t, strings.HasPrefix(out.String(), "lchelper "), out.String())
	assert.Contains(t, out.String(), runtime.Version())
}
