package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestExportGolden(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "export_default",
			args: []string{"export", "--source", "testdata/wiki.json"},
		},
		{
			name: "export_ops",
			args: []string{"export", "--source", "testdata/wiki.json",
				"--op", "open document:xwiki:B.WebHome",
				"--op", "deselect document:xwiki:B.E",
				"--op", "deselect document:xwiki:A.WebHome",
			},
		},
		{
			name: "export_pinned",
			args: []string{"export", "-s", "testdata/pinned.json"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			golden(t).Assert(t, tt.name, []byte(out))
		})
	}
}

func TestBuildThenExportText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "wiki.db")

	out, err := run(t, "build", "testdata/wiki.json", db)
	require.NoError(t, err)
	assert.Contains(t, out, `Wrote 9 nodes of wiki "xwiki"`)

	// Building twice replaces the database.
	_, err = run(t, "build", "testdata/wiki.json", db)
	require.NoError(t, err)

	out, err = run(t, "export", "--source", db, "--format", "text",
		"--op", "deselect-all",
		"--op", "select document:xwiki:C.WebHome",
		"--op", "open document:xwiki:C.WebHome",
		"--op", "deselect document:xwiki:C.H",
	)
	require.NoError(t, err)
	golden(t).Assert(t, "export_text_sqlite", []byte(out))
}

func TestExportWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "exporttree.hcl")
	src, err := filepath.Abs("testdata/wiki.json")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
log_level = "error"
source {
  kind = "json"
  path = "`+filepath.ToSlash(src)+`"
}
`), 0o644))

	out, err := run(t, "export", "--config", cfgPath)
	require.NoError(t, err)
	golden(t).Assert(t, "export_default", []byte(out))
}

func TestExportErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"no source", []string{"export"}, "no source configured"},
		{"bad op", []string{"export", "-s", "testdata/wiki.json", "--op", "toggle A"}, "unknown operation"},
		{"unknown node", []string{"export", "-s", "testdata/wiki.json", "--op", "select nope"}, "node not found"},
		{"bad format", []string{"export", "-s", "testdata/wiki.json", "--format", "yaml"}, "format must be"},
		{"bad kind", []string{"export", "-s", "testdata/wiki.json", "--kind", "csv"}, "source kind must be"},
		{"missing fixture", []string{"export", "-s", "testdata/missing.json"}, "missing.json"},
		{"build args", []string{"build", "testdata/wiki.json"}, "accepts 2 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
