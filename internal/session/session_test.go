package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/agentic-research/exporttree/internal/config"
	"github.com/agentic-research/exporttree/internal/source"
	"github.com/agentic-research/exporttree/internal/testutil"
	"github.com/agentic-research/exporttree/internal/tree"
)

func TestParseOp(t *testing.T) {
	tests := []struct {
		in      string
		want    Op
		wantErr string
	}{
		{in: "deselect A B", want: Op{Name: OpDeselect, IDs: []string{"A", "B"}}},
		{in: "  open   B ", want: Op{Name: OpOpen, IDs: []string{"B"}}},
		{in: "select-all", want: Op{Name: OpSelectAll, IDs: []string{}}},
		{in: "", wantErr: "empty operation"},
		{in: "select", wantErr: "needs at least one node id"},
		{in: "deselect-all A", wantErr: "takes no node ids"},
		{in: "toggle A", wantErr: "unknown operation"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOp(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newSession(t *testing.T) *Session {
	t.Helper()
	w := testutil.XWiki(testutil.FixtureOptions{})
	s, err := New(context.Background(), source.NewMemoryLoader(w), w.Name, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func apply(t *testing.T, s *Session, ops ...string) {
	t.Helper()
	for _, raw := range ops {
		op, err := ParseOp(raw)
		require.NoError(t, err)
		require.NoError(t, s.Apply(context.Background(), op))
	}
}

func TestApply(t *testing.T) {
	s := newSession(t)
	apply(t, s, "open "+testutil.B, "deselect "+testutil.E)

	r := s.Report()
	assert.Equal(t, map[string][]string{
		"xwiki:A.WebHome": {},
		"xwiki:B.%":       {"xwiki:B.E"},
		"xwiki:C.%":       {},
	}, r.Pages)
	assert.False(t, r.ExportingAll)
	assert.True(t, r.HasPages)

	apply(t, s, "deselect-all")
	r = s.Report()
	assert.Empty(t, r.Pages)
	assert.False(t, r.HasPages)

	apply(t, s, "select-all", "reload "+testutil.B)
	assert.True(t, s.Report().ExportingAll)
}

func TestApplyUnknownNode(t *testing.T) {
	s := newSession(t)
	err := s.Apply(context.Background(), Op{Name: OpOpen, IDs: []string{testutil.B, "nope"}})
	assert.ErrorIs(t, err, tree.ErrNotFound)
	assert.Contains(t, err.Error(), "open "+testutil.B+" nope")

	err = s.Apply(context.Background(), Op{Name: "toggle"})
	assert.Error(t, err)
}

func TestReportJSONHasEmptyLists(t *testing.T) {
	s := newSession(t)
	raw, err := json.Marshal(s.Report())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"pages": {"xwiki:A.WebHome": [], "xwiki:B.%": [], "xwiki:C.%": []},
		"exporting_all": true,
		"has_pages": true
	}`, string(raw))
}

func TestOpenFromConfig(t *testing.T) {
	raw, err := json.Marshal(testutil.XWiki(testutil.FixtureOptions{}))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "wiki.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	cfg := config.Default()
	cfg.Source = &config.Source{Path: path}
	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	assert.Equal(t, "xwiki", s.Tree.Wiki())
	assert.Equal(t, 3, s.Tree.Len())

	_, err = Open(context.Background(), config.Default(), nil)
	assert.ErrorIs(t, err, config.ErrNoSource)
}
