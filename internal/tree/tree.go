package tree

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/exporttree/internal/reference"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RootID addresses the implicit wiki container when talking to a Loader and
// when calling Open or Reload. It is not a selectable node.
const RootID = ""

var (
	ErrNotFound          = errors.New("node not found")
	ErrMalformedChildren = errors.New("malformed children")
)

// NodeType tags what a node stands for.
type NodeType string

const (
	TypeDocument   NodeType = "document"
	TypePagination NodeType = "pagination"
	TypeWiki       NodeType = "wiki" // the implicit top-level container
)

// LoadStatus tracks whether a node's children have been fetched.
type LoadStatus int

const (
	NotLoaded LoadStatus = iota
	Loading
	Loaded
	LoadFailed
)

func (s LoadStatus) String() string {
	switch s {
	case NotLoaded:
		return "not-loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "load-failed"
	}
	return fmt.Sprintf("LoadStatus(%d)", int(s))
}

// Node is one entry of the selection tree. Nodes handed out through a View are
// owned by the tree and must not be modified.
type Node struct {
	ID            string
	Type          NodeType
	Ref           reference.Reference // zero for pagination markers
	Label         string
	HasChildren   bool
	ValidChildren []NodeType

	Checked  bool // own selection, independent of descendants
	Disabled bool
	// Pinned marks a node seeded as disabled+undetermined. Its own page is
	// never exported while pinned.
	Pinned bool

	Status  LoadStatus
	LoadErr error // last loader error when Status == LoadFailed

	slot     uint32
	parent   uint32
	children []uint32
}

// Expandable reports whether the node can have children at all.
func (n *Node) Expandable() bool {
	return n.Type == TypeWiki || (n.Type == TypeDocument && n.HasChildren)
}

// IsLoaded reports whether the node's children are known.
func (n *Node) IsLoaded() bool {
	return n.Status == Loaded
}

// Tree is an in-memory forest of selection nodes below an implicit wiki root.
//
// Storage is an arena: nodes live in slots, an index maps ids to slots, and
// a bitmap tracks slots freed by Reload so they can be reused.
type Tree struct {
	mu     sync.Mutex
	loader Loader
	log    *zap.Logger
	wiki   string
	flight singleflight.Group

	slots []*Node
	index map[string]uint32
	free  *roaring.Bitmap
}

const rootSlot uint32 = 0

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tree) { t.log = l }
}

// WithWiki sets the name of the wiki the root container stands for.
func WithWiki(name string) Option {
	return func(t *Tree) { t.wiki = name }
}

// New creates a tree and eagerly loads the top level from loader.
func New(ctx context.Context, loader Loader, opts ...Option) (*Tree, error) {
	t := &Tree{
		loader: loader,
		log:    zap.NewNop(),
		wiki:   "xwiki",
		index:  make(map[string]uint32),
		free:   roaring.New(),
	}
	for _, o := range opts {
		o(t)
	}
	t.slots = []*Node{{
		ID:          RootID,
		Type:        TypeWiki,
		Ref:         reference.New(t.wiki),
		HasChildren: true,
		Checked:     true,
		slot:        rootSlot,
		parent:      rootSlot,
	}}
	if err := t.Open(ctx, RootID); err != nil {
		return nil, err
	}
	return t, nil
}

// Wiki returns the wiki name of the root container.
func (t *Tree) Wiki() string {
	return t.wiki
}

// Get returns a copy of the node with the given id.
func (t *Tree) Get(id string) (Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.lookup(id)
	if err != nil {
		return Node{}, err
	}
	cp := *n
	cp.children = nil
	return cp, nil
}

// Len returns the number of live nodes, the root excluded.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.index)
}

// lookup resolves an id to its node. RootID resolves to the root.
// Must be called with t.mu held.
func (t *Tree) lookup(id string) (*Node, error) {
	if id == RootID {
		return t.slots[rootSlot], nil
	}
	slot, ok := t.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return t.slots[slot], nil
}

// alloc places n in a free slot (or a new one) and indexes it.
// Must be called with t.mu held.
func (t *Tree) alloc(n *Node) uint32 {
	var slot uint32
	if !t.free.IsEmpty() {
		slot = t.free.Minimum()
		t.free.Remove(slot)
		t.slots[slot] = n
	} else {
		slot = uint32(len(t.slots))
		t.slots = append(t.slots, n)
	}
	n.slot = slot
	t.index[n.ID] = slot
	return slot
}

// release drops every descendant of n and returns their slots to the free
// list. n itself stays. Must be called with t.mu held.
func (t *Tree) release(n *Node) int {
	dropped := 0
	for _, c := range n.children {
		child := t.slots[c]
		dropped += t.release(child)
		delete(t.index, child.ID)
		t.slots[c] = nil
		t.free.Add(c)
		dropped++
	}
	n.children = nil
	return dropped
}

// Open fetches the node's children if they are not loaded yet. It returns
// once they are attached, so code after a successful Open sees them.
// Concurrent calls for the same node share one loader call.
func (t *Tree) Open(ctx context.Context, id string) error {
	t.mu.Lock()
	n, err := t.lookup(id)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if n.Status == Loaded || !n.Expandable() {
		t.mu.Unlock()
		return nil
	}
	n.Status = Loading
	t.mu.Unlock()

	_, err, shared := t.flight.Do(id, func() (any, error) {
		return nil, t.load(ctx, id)
	})
	if shared {
		t.log.Debug("joined in-flight load", zap.String("node", id))
	}
	return err
}

// Reload discards the node's loaded subtree and fetches it again. Selection
// state below the node is lost; new children inherit the node's own state.
func (t *Tree) Reload(ctx context.Context, id string) error {
	t.mu.Lock()
	n, err := t.lookup(id)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	dropped := t.release(n)
	n.Status = NotLoaded
	n.LoadErr = nil
	t.mu.Unlock()

	t.log.Debug("reloading subtree", zap.String("node", id), zap.Int("dropped", dropped))
	return t.Open(ctx, id)
}

func (t *Tree) load(ctx context.Context, id string) error {
	t.mu.Lock()
	n, err := t.lookup(id)
	if err == nil && n.Status == Loaded {
		// A flight for this node finished between Open's check and ours.
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()
	if err != nil {
		return err
	}

	descs, loadErr := t.loader.Children(ctx, id)

	t.mu.Lock()
	defer t.mu.Unlock()

	n, err = t.lookup(id)
	if err != nil {
		// An ancestor was reloaded while we were fetching.
		return err
	}
	if n.Status == Loaded {
		return nil
	}
	fail := func(err error) error {
		n.Status = LoadFailed
		n.LoadErr = err
		t.log.Warn("load children failed", zap.String("node", id), zap.Error(err))
		return err
	}
	if loadErr != nil {
		return fail(fmt.Errorf("load children of %q: %w", id, loadErr))
	}
	refs, err := validateChildren(n, descs)
	if err != nil {
		return fail(err)
	}
	for _, d := range descs {
		if _, exists := t.index[d.ID]; exists {
			return fail(fmt.Errorf("%w: id %q already in tree", ErrMalformedChildren, d.ID))
		}
	}

	for i, d := range descs {
		child := &Node{
			ID:            d.ID,
			Type:          d.Type,
			Ref:           refs[i],
			Label:         d.Label,
			HasChildren:   d.HasChildren && d.Type == TypeDocument,
			ValidChildren: append([]NodeType(nil), d.ValidChildren...),
			Disabled:      d.Disabled,
			Pinned:        d.Disabled && d.Undetermined && d.Type == TypeDocument,
			parent:        n.slot,
		}
		// Top-level nodes take the server default; deeper ones follow the
		// parent's own state at load time.
		if n.slot == rootSlot {
			child.Checked = d.Checked
		} else {
			child.Checked = n.Checked
		}
		n.children = append(n.children, t.alloc(child))
	}
	n.Status = Loaded
	n.LoadErr = nil
	t.log.Debug("loaded children", zap.String("node", id), zap.Int("count", len(descs)))
	return nil
}
