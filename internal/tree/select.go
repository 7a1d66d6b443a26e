package tree

import (
	"go.uber.org/zap"
)

// Select checks the named nodes and every loaded descendant. Unknown ids fail
// the whole call before anything changes. Selecting a pinned node directly
// resolves it: its own page becomes selectable like any other.
func (t *Tree) Select(ids ...string) error {
	return t.toggle(true, ids)
}

// Deselect unchecks the named nodes and every loaded descendant.
func (t *Tree) Deselect(ids ...string) error {
	return t.toggle(false, ids)
}

// SelectAll checks every top-level node and its loaded descendants. Pinned
// nodes keep their pin, and disabled nodes keep their own flag.
func (t *Tree) SelectAll() {
	t.bulk(true)
}

// DeselectAll is the inverse of SelectAll.
func (t *Tree) DeselectAll() {
	t.bulk(false)
}

func (t *Tree) toggle(checked bool, ids []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if id == RootID {
			return ErrNotFound
		}
		n, err := t.lookup(id)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		n.Pinned = false
		t.cascade(n, checked)
	}
	t.log.Debug("toggled nodes", zap.Strings("ids", ids), zap.Bool("checked", checked))
	return nil
}

func (t *Tree) bulk(checked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Disabled || n.Pinned {
			n.Checked = checked
		}
		for _, c := range n.children {
			walk(t.slots[c])
		}
	}
	for _, c := range t.slots[rootSlot].children {
		walk(t.slots[c])
	}
	t.log.Debug("bulk toggle", zap.Bool("checked", checked))
}

// cascade sets checked on n and all loaded descendants. Pins below n are
// kept. Must be called with t.mu held.
func (t *Tree) cascade(n *Node, checked bool) {
	n.Checked = checked
	for _, c := range n.children {
		t.cascade(t.slots[c], checked)
	}
}

// View is a read-only window on the tree, valid only inside the callback that
// received it.
type View struct {
	t *Tree
}

// View runs fn with the tree locked against mutation.
func (t *Tree) View(fn func(v View)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(View{t: t})
}

// Root returns the implicit wiki container.
func (v View) Root() *Node {
	return v.t.slots[rootSlot]
}

// Node resolves an id; RootID resolves to the root.
func (v View) Node(id string) (*Node, error) {
	return v.t.lookup(id)
}

// Children returns the loaded children of n in order, pagination marker last.
func (v View) Children(n *Node) []*Node {
	out := make([]*Node, len(n.children))
	for i, c := range n.children {
		out[i] = v.t.slots[c]
	}
	return out
}

// Split separates n's loaded children into documents and the pagination
// marker, if any.
func (v View) Split(n *Node) (docs []*Node, pagination *Node) {
	for _, c := range n.children {
		child := v.t.slots[c]
		if child.Type == TypePagination {
			pagination = child
			continue
		}
		docs = append(docs, child)
	}
	return docs, pagination
}

// Parent returns n's parent, or nil for the root.
func (v View) Parent(n *Node) *Node {
	if n.slot == rootSlot {
		return nil
	}
	return v.t.slots[n.parent]
}
