package api

// Wiki is a selection tree fixture: the page hierarchy of one wiki, shaped
// like the node documents a tree widget fetches.
type Wiki struct {
	// Name of the wiki, the prefix of every reference ("xwiki").
	Name string `json:"wiki"`
	// Top-level nodes, a trailing pagination node included.
	Nodes []Node `json:"nodes"`
}

// Node is one tree node.
type Node struct {
	// ID of the tree node, unique in the document (e.g. "document:xwiki:A.WebHome").
	ID string `json:"id"`
	// Text shown for the node.
	Text string `json:"text,omitempty"`
	// Children is true when the node can be expanded.
	Children bool `json:"children"`
	// Data carries the entity behind the node.
	Data Data `json:"data"`
	// State carries server-side defaults (optional).
	State *State `json:"state,omitempty"`
	// Nodes are served when the node is opened.
	Nodes []Node `json:"nodes,omitempty"`
}

// Data describes the entity a node stands for.
type Data struct {
	// ID is the serialized entity reference; empty for pagination nodes.
	ID string `json:"id,omitempty"`
	// Type is "document" or "pagination".
	Type string `json:"type"`
	// ValidChildren lists the node types allowed below this node.
	ValidChildren []string `json:"validChildren,omitempty"`
}

// State holds the initial selection flags of a node.
type State struct {
	// Selected defaults to true when omitted.
	Selected     *bool `json:"selected,omitempty"`
	Disabled     bool  `json:"disabled,omitempty"`
	Undetermined bool  `json:"undetermined,omitempty"`
}

// IsSelected reports the node's initial checked flag.
func (n *Node) IsSelected() bool {
	return n.State == nil || n.State.Selected == nil || *n.State.Selected
}
