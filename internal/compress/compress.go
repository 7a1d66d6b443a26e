// Package compress turns a partially loaded, tri-state selection tree into the
// smallest set of inclusion/exclusion patterns that denotes the same pages.
//
// The walk is bottom-up over loaded nodes only. A node that has not been
// expanded stands for its whole subtree and is assumed to share its own
// checked state; once expanded, its real children decide. Per branch the
// engine picks one of two shapes:
//
//   - wildcard: "<container>.%" minus the children that are not fully
//     selected, used when pages not listed yet (behind a checked pagination
//     marker, or the node's own unseen future) must be included;
//   - enumeration: the node's own page plus each selected child's entries,
//     used otherwise.
package compress

import (
	"fmt"

	"github.com/agentic-research/exporttree/internal/reference"
	"github.com/agentic-research/exporttree/internal/tree"
)

// Kind classifies a subtree.
type Kind int

const (
	None    Kind = iota // nothing under the node is selected
	Partial             // Entries lists exactly what is selected
	All                 // the node and everything below it, listed or not
)

func (k Kind) String() string {
	switch k {
	case None:
		return "NONE"
	case Partial:
		return "PARTIAL"
	case All:
		return "ALL"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Outcome is the compressed form of one subtree. Entries is empty for None and
// holds the node's own pattern for All.
type Outcome struct {
	Kind    Kind
	Entries reference.ExportSet
}

// Compress computes the outcome for n. The view must come from the tree that
// owns n.
func Compress(v tree.View, n *tree.Node) Outcome {
	if n.Type == tree.TypeWiki {
		return compressRoot(v, n)
	}

	own := n.Checked && !n.Pinned
	if !n.IsLoaded() {
		switch {
		case n.Pinned && n.Checked && n.Expandable():
			set := reference.ExportSet{}
			set.Add(reference.ContainerPattern(n.Ref), reference.Exact(n.Ref))
			return Outcome{Kind: Partial, Entries: set}
		case own:
			return all(n)
		default:
			return none()
		}
	}

	docs, pagination := v.Split(n)
	unseen := own
	if pagination != nil {
		unseen = pagination.Checked
	}
	results, allAll, allNone := compressChildren(v, docs)

	if own && unseen && allAll {
		return all(n)
	}
	if !own && !unseen && allNone {
		return none()
	}

	set := reference.ExportSet{}
	if unseen {
		var excludes []reference.Pattern
		if !own {
			excludes = append(excludes, reference.Exact(n.Ref))
		}
		excludes = appendExclusions(excludes, set, docs, results)
		set.Add(reference.ContainerPattern(n.Ref), excludes...)
	} else {
		if own {
			set.Add(reference.Exact(n.Ref))
		}
		mergeSelected(set, results)
	}
	return Outcome{Kind: Partial, Entries: set}
}

// compressRoot applies the same rules to the implicit wiki container, which has
// no page of its own. Without a checked top-level pagination marker every
// top-level page is known, so the top level is always enumerated.
func compressRoot(v tree.View, root *tree.Node) Outcome {
	docs, pagination := v.Split(root)
	results, allAll, _ := compressChildren(v, docs)
	rootPattern := reference.RootPattern(root.Ref.Wiki)

	set := reference.ExportSet{}
	if pagination != nil && pagination.Checked {
		if allAll {
			set.Add(rootPattern)
			return Outcome{Kind: All, Entries: set}
		}
		set.Add(rootPattern, appendExclusions(nil, set, docs, results)...)
		return Outcome{Kind: Partial, Entries: set}
	}

	mergeSelected(set, results)
	switch {
	case len(docs) > 0 && allAll && pagination == nil:
		return Outcome{Kind: All, Entries: set}
	case len(set) == 0:
		return none()
	default:
		return Outcome{Kind: Partial, Entries: set}
	}
}

func compressChildren(v tree.View, docs []*tree.Node) (results []Outcome, allAll, allNone bool) {
	results = make([]Outcome, len(docs))
	allAll, allNone = true, true
	for i, c := range docs {
		results[i] = Compress(v, c)
		allAll = allAll && results[i].Kind == All
		allNone = allNone && results[i].Kind == None
	}
	return results, allAll, allNone
}

// appendExclusions excludes every child that is not fully selected. A
// partially selected child is excluded wholesale and its own entries are
// added to set as siblings.
func appendExclusions(excludes []reference.Pattern, set reference.ExportSet, docs []*tree.Node, results []Outcome) []reference.Pattern {
	for i, c := range docs {
		switch results[i].Kind {
		case None:
			excludes = append(excludes, selfPattern(c))
		case Partial:
			excludes = append(excludes, selfPattern(c))
			set.Merge(results[i].Entries)
		}
	}
	return excludes
}

func mergeSelected(set reference.ExportSet, results []Outcome) {
	for _, r := range results {
		if r.Kind != None {
			set.Merge(r.Entries)
		}
	}
}

// selfPattern is the pattern covering n and its whole subtree.
func selfPattern(n *tree.Node) reference.Pattern {
	if n.Expandable() {
		return reference.ContainerPattern(n.Ref)
	}
	return reference.Exact(n.Ref)
}

func all(n *tree.Node) Outcome {
	set := reference.ExportSet{}
	set.Add(selfPattern(n))
	return Outcome{Kind: All, Entries: set}
}

func none() Outcome {
	return Outcome{Kind: None, Entries: reference.ExportSet{}}
}
