package compress

import (
	"github.com/agentic-research/exporttree/internal/reference"
	"github.com/agentic-research/exporttree/internal/tree"
	"go.uber.org/zap"
)

// Exporter answers export queries about a selection tree. It holds no state of
// its own; every call compresses the current tree.
type Exporter struct {
	tree *tree.Tree
	log  *zap.Logger
}

// NewExporter wraps t. A nil logger discards output.
func NewExporter(t *tree.Tree, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{tree: t, log: log}
}

// Tree returns the wrapped tree.
func (e *Exporter) Tree() *tree.Tree {
	return e.tree
}

// Outcome compresses the subtree rooted at id. tree.RootID is the whole wiki.
func (e *Exporter) Outcome(id string) (Outcome, error) {
	var (
		out Outcome
		err error
	)
	e.tree.View(func(v tree.View) {
		var n *tree.Node
		if n, err = v.Node(id); err != nil {
			return
		}
		out = Compress(v, n)
	})
	return out, err
}

func (e *Exporter) root() Outcome {
	var out Outcome
	e.tree.View(func(v tree.View) {
		out = Compress(v, v.Root())
	})
	return out
}

// ExportPages returns the export set for the current selection. The result is
// the caller's to modify.
func (e *Exporter) ExportPages() reference.ExportSet {
	out := e.root()
	e.log.Debug("compressed selection",
		zap.Stringer("outcome", out.Kind),
		zap.Int("inclusions", len(out.Entries)))
	return out.Entries.Clone()
}

// IsExportingAllPages reports whether every page of the wiki, listed or not,
// is selected.
func (e *Exporter) IsExportingAllPages() bool {
	return e.root().Kind == All
}

// HasExportPages reports whether anything is selected at all.
func (e *Exporter) HasExportPages() bool {
	return len(e.root().Entries) > 0
}

// IsUndetermined reports whether the node's subtree is mixed: some but not all
// of it is selected. A pinned node stays undetermined until it is selected or
// deselected directly, even when nothing under it is exported.
func (e *Exporter) IsUndetermined(id string) (bool, error) {
	var (
		u   bool
		err error
	)
	e.tree.View(func(v tree.View) {
		var n *tree.Node
		if n, err = v.Node(id); err != nil {
			return
		}
		u = n.Pinned || Compress(v, n).Kind == Partial
	})
	return u, err
}
