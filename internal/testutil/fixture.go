// Package testutil holds the wiki fixtures shared by package tests.
package testutil

import (
	"github.com/agentic-research/exporttree/api"
)

// Node ids of the reference fixture.
const (
	A            = "document:xwiki:A.WebHome"
	B            = "document:xwiki:B.WebHome"
	C            = "document:xwiki:C.WebHome"
	D            = "document:xwiki:B.D.WebHome"
	E            = "document:xwiki:B.E"
	F            = "document:xwiki:B.D.F.WebHome"
	G            = "document:xwiki:C.G.WebHome"
	H            = "document:xwiki:C.H"
	BMore        = "pagination:document:xwiki:B.WebHome"
	TopLevelMore = "pagination:wiki:xwiki"
)

// FixtureOptions tweaks the reference fixture.
type FixtureOptions struct {
	// TopLevelPagination appends a pagination node after C.
	TopLevelPagination bool
	// NoPagination drops the pagination node below B.
	NoPagination bool
	// Pinned lists node ids seeded as disabled+undetermined.
	Pinned []string
}

// XWiki returns the reference tree:
//
//	A            leaf
//	B            D (F), E, pagination
//	C            G, H
//
// with nested pages addressed as "Space.WebHome". Everything starts selected.
func XWiki(opts FixtureOptions) *api.Wiki {
	docTypes := []string{"document", "pagination"}
	leaf := func(id, ref, text string) api.Node {
		return api.Node{ID: id, Text: text, Data: api.Data{ID: ref, Type: "document"}}
	}
	parent := func(id, ref, text string, children ...api.Node) api.Node {
		return api.Node{
			ID:       id,
			Text:     text,
			Children: true,
			Data:     api.Data{ID: ref, Type: "document", ValidChildren: docTypes},
			Nodes:    children,
		}
	}
	more := func(id string) api.Node {
		return api.Node{ID: id, Text: "More...", Data: api.Data{Type: "pagination"}}
	}

	bChildren := []api.Node{
		parent(D, "xwiki:B.D.WebHome", "D", leaf(F, "xwiki:B.D.F.WebHome", "F")),
		leaf(E, "xwiki:B.E", "E"),
	}
	if !opts.NoPagination {
		bChildren = append(bChildren, more(BMore))
	}

	w := &api.Wiki{
		Name: "xwiki",
		Nodes: []api.Node{
			leaf(A, "xwiki:A.WebHome", "A"),
			parent(B, "xwiki:B.WebHome", "B", bChildren...),
			parent(C, "xwiki:C.WebHome", "C",
				leaf(G, "xwiki:C.G.WebHome", "G"),
				leaf(H, "xwiki:C.H", "H")),
		},
	}
	if opts.TopLevelPagination {
		w.Nodes = append(w.Nodes, more(TopLevelMore))
	}
	for _, id := range opts.Pinned {
		Pin(w, id)
	}
	return w
}

// Pin marks the node with the given id as disabled+undetermined.
func Pin(w *api.Wiki, id string) {
	var walk func(nodes []api.Node) bool
	walk = func(nodes []api.Node) bool {
		for i := range nodes {
			if nodes[i].ID == id {
				nodes[i].State = &api.State{Disabled: true, Undetermined: true}
				return true
			}
			if walk(nodes[i].Nodes) {
				return true
			}
		}
		return false
	}
	if !walk(w.Nodes) {
		panic("testutil: no node " + id)
	}
}

// Flat returns the same shape as XWiki with flat references ("wiki:B.D"),
// where a container's own page is the container reference itself. Node ids
// are the single letters.
func Flat(opts FixtureOptions) *api.Wiki {
	leaf := func(id, ref string) api.Node {
		return api.Node{ID: id, Text: id, Data: api.Data{ID: ref, Type: "document"}}
	}
	parent := func(id, ref string, children ...api.Node) api.Node {
		return api.Node{ID: id, Text: id, Children: true, Data: api.Data{ID: ref, Type: "document"}, Nodes: children}
	}
	bChildren := []api.Node{
		parent("D", "wiki:B.D", leaf("F", "wiki:B.D.F")),
		leaf("E", "wiki:B.E"),
	}
	if !opts.NoPagination {
		bChildren = append(bChildren, api.Node{ID: "B/more", Data: api.Data{Type: "pagination"}})
	}
	w := &api.Wiki{
		Name: "wiki",
		Nodes: []api.Node{
			leaf("A", "wiki:A"),
			parent("B", "wiki:B", bChildren...),
			parent("C", "wiki:C", leaf("G", "wiki:C.G"), leaf("H", "wiki:C.H")),
		},
	}
	if opts.TopLevelPagination {
		w.Nodes = append(w.Nodes, api.Node{ID: "more", Data: api.Data{Type: "pagination"}})
	}
	for _, id := range opts.Pinned {
		Pin(w, id)
	}
	return w
}
