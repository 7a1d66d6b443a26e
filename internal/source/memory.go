// Package source provides tree.Loader implementations backed by a wiki
// fixture: in memory, a JSON document queried with JSONPath, or a SQLite
// database.
package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentic-research/exporttree/api"
	"github.com/agentic-research/exporttree/internal/tree"
)

// MemoryLoader serves children straight from a decoded fixture.
type MemoryLoader struct {
	mu       sync.Mutex
	wiki     string
	roots    []api.Node
	children map[string][]api.Node // node id -> child nodes
	calls    map[string]int        // node id -> Children calls, for tests
}

// NewMemoryLoader indexes every node of w by id.
func NewMemoryLoader(w *api.Wiki) *MemoryLoader {
	l := &MemoryLoader{
		wiki:     w.Name,
		roots:    w.Nodes,
		children: make(map[string][]api.Node),
		calls:    make(map[string]int),
	}
	var index func(nodes []api.Node)
	index = func(nodes []api.Node) {
		for _, n := range nodes {
			if n.Children || len(n.Nodes) > 0 {
				l.children[n.ID] = n.Nodes
			}
			index(n.Nodes)
		}
	}
	index(w.Nodes)
	return l
}

// Wiki returns the fixture's wiki name.
func (l *MemoryLoader) Wiki() string {
	return l.wiki
}

// Calls returns how many times Children was asked for id.
func (l *MemoryLoader) Calls(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[id]
}

// Children implements tree.Loader.
func (l *MemoryLoader) Children(ctx context.Context, parentID string) ([]tree.ChildDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.calls[parentID]++
	l.mu.Unlock()

	if parentID == tree.RootID {
		return Descriptors(l.roots), nil
	}
	nodes, ok := l.children[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, parentID)
	}
	return Descriptors(nodes), nil
}

// Descriptors converts fixture nodes to loader descriptors.
func Descriptors(nodes []api.Node) []tree.ChildDescriptor {
	out := make([]tree.ChildDescriptor, len(nodes))
	for i := range nodes {
		out[i] = descriptor(&nodes[i])
	}
	return out
}

func descriptor(n *api.Node) tree.ChildDescriptor {
	d := tree.ChildDescriptor{
		ID:          n.ID,
		Label:       n.Text,
		Reference:   n.Data.ID,
		Type:        tree.NodeType(n.Data.Type),
		HasChildren: n.Children || len(n.Nodes) > 0,
		Checked:     n.IsSelected(),
	}
	if n.State != nil {
		d.Disabled = n.State.Disabled
		d.Undetermined = n.State.Undetermined
	}
	for _, t := range n.Data.ValidChildren {
		d.ValidChildren = append(d.ValidChildren, tree.NodeType(t))
	}
	return d
}
