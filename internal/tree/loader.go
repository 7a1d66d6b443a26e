package tree

import (
	"context"
	"fmt"

	"github.com/agentic-research/exporttree/internal/reference"
)

// ChildDescriptor is what a Loader returns for each child of a node.
type ChildDescriptor struct {
	ID            string     // tree node id, unique within the tree
	Label         string     // display text, informational only
	Reference     string     // serialized entity reference; empty for pagination markers
	Type          NodeType   // TypeDocument or TypePagination
	HasChildren   bool       // false for leaves; Open is a no-op on them
	Checked       bool       // server default, only honored for top-level nodes
	Disabled      bool       // not toggled by SelectAll/DeselectAll
	Undetermined  bool       // with Disabled, seeds a pinned node
	ValidChildren []NodeType // allowed child types; empty means any
}

// Loader fetches the children of a node on demand. parentID is RootID for the
// top level. Implementations may block; the tree never holds its lock while a
// Loader runs.
type Loader interface {
	Children(ctx context.Context, parentID string) ([]ChildDescriptor, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, parentID string) ([]ChildDescriptor, error)

// Children implements Loader.
func (f LoaderFunc) Children(ctx context.Context, parentID string) ([]ChildDescriptor, error) {
	return f(ctx, parentID)
}

// validateChildren enforces the loader contract: at most one pagination
// marker, always last, unique ids, parseable references, allowed types.
func validateChildren(parent *Node, descs []ChildDescriptor) ([]reference.Reference, error) {
	refs := make([]reference.Reference, len(descs))
	seen := make(map[string]struct{}, len(descs))
	for i, d := range descs {
		if d.ID == "" {
			return nil, fmt.Errorf("%w: child %d of %q has no id", ErrMalformedChildren, i, parent.ID)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrMalformedChildren, d.ID)
		}
		seen[d.ID] = struct{}{}

		if len(parent.ValidChildren) > 0 && !hasType(parent.ValidChildren, d.Type) {
			return nil, fmt.Errorf("%w: %q may not contain a %s node", ErrMalformedChildren, parent.ID, d.Type)
		}

		switch d.Type {
		case TypePagination:
			if i != len(descs)-1 {
				return nil, fmt.Errorf("%w: pagination marker %q is not the last child", ErrMalformedChildren, d.ID)
			}
		case TypeDocument:
			ref, err := reference.Parse(d.Reference)
			if err != nil {
				return nil, fmt.Errorf("%w: node %q: %w", ErrMalformedChildren, d.ID, err)
			}
			refs[i] = ref
		default:
			return nil, fmt.Errorf("%w: node %q has unsupported type %q", ErrMalformedChildren, d.ID, d.Type)
		}
	}
	return refs, nil
}

func hasType(types []NodeType, t NodeType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
