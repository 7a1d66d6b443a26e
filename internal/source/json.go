package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"

	"github.com/agentic-research/exporttree/api"
	"github.com/agentic-research/exporttree/internal/tree"
)

var topLevel = jp.MustParseString("$.nodes[*]")

// JSONLoader answers Children by running a JSONPath query against a fixture
// document, so nothing below the requested level is decoded into nodes.
type JSONLoader struct {
	wiki string
	doc  any
}

// NewJSONLoader reads and parses the fixture at path on fs.
func NewJSONLoader(fs billy.Filesystem, path string) (*JSONLoader, error) {
	raw, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return ParseJSON(raw)
}

// ReadWiki decodes the whole fixture at path on fs.
func ReadWiki(fs billy.Filesystem, path string) (*api.Wiki, error) {
	raw, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var w api.Wiki
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &w, nil
}

// ParseJSON builds a loader from an in-memory fixture document.
func ParseJSON(raw []byte) (*JSONLoader, error) {
	var head struct {
		Name string `json:"wiki"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &JSONLoader{wiki: head.Name, doc: doc}, nil
}

// Wiki returns the fixture's wiki name.
func (l *JSONLoader) Wiki() string {
	return l.wiki
}

// Children implements tree.Loader.
func (l *JSONLoader) Children(ctx context.Context, parentID string) ([]tree.ChildDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if parentID == tree.RootID {
		return l.decode(topLevel.Get(l.doc))
	}

	if strings.ContainsAny(parentID, `'\`) {
		return nil, fmt.Errorf("%w: unsupported character in id %q", ErrUnknownNode, parentID)
	}
	match, err := jp.ParseString(fmt.Sprintf("$..nodes[?(@.id == '%s')]", parentID))
	if err != nil {
		return nil, fmt.Errorf("build query for %q: %w", parentID, err)
	}
	parents := match.Get(l.doc)
	switch len(parents) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, parentID)
	case 1:
	default:
		return nil, fmt.Errorf("%w: id %q appears %d times", ErrUnknownNode, parentID, len(parents))
	}
	obj, ok := parents[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an object", ErrUnknownNode, parentID)
	}
	children, _ := obj["nodes"].([]any)
	return l.decode(children)
}

func (l *JSONLoader) decode(values []any) ([]tree.ChildDescriptor, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	var nodes []api.Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("decode nodes: %w", err)
	}
	return Descriptors(nodes), nil
}
