// Package session ties a source, its selection tree and an exporter together,
// the unit the command line and the MCP server operate on.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agentic-research/exporttree/internal/compress"
	"github.com/agentic-research/exporttree/internal/config"
	"github.com/agentic-research/exporttree/internal/source"
	"github.com/agentic-research/exporttree/internal/tree"
)

// Operation names accepted by ParseOp.
const (
	OpSelect      = "select"
	OpDeselect    = "deselect"
	OpSelectAll   = "select-all"
	OpDeselectAll = "deselect-all"
	OpOpen        = "open"
	OpReload      = "reload"
)

// Session is one user's selection over one wiki.
type Session struct {
	Tree     *tree.Tree
	Exporter *compress.Exporter

	src *source.Source
	log *zap.Logger
}

// Open opens the configured source and loads the top level of the tree.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src, err := source.Open(cfg.Source.Kind, cfg.Source.Path)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, src.Loader, cfg.WikiName(src.Wiki), log)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	s.src = src
	return s, nil
}

// New builds a session over an arbitrary loader.
func New(ctx context.Context, l tree.Loader, wiki string, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t, err := tree.New(ctx, l, tree.WithWiki(wiki), tree.WithLogger(log.Named("tree")))
	if err != nil {
		return nil, fmt.Errorf("load top level: %w", err)
	}
	return &Session{
		Tree:     t,
		Exporter: compress.NewExporter(t, log.Named("compress")),
		log:      log,
	}, nil
}

// Close releases the source.
func (s *Session) Close() error {
	if s.src == nil {
		return nil
	}
	return s.src.Close()
}

// Op is one selection command, e.g. "deselect A B".
type Op struct {
	Name string
	IDs  []string
}

func (o Op) String() string {
	return strings.Join(append([]string{o.Name}, o.IDs...), " ")
}

// ParseOp reads an operation written as its name followed by node ids.
func ParseOp(s string) (Op, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Op{}, errors.New("empty operation")
	}
	op := Op{Name: fields[0], IDs: fields[1:]}
	switch op.Name {
	case OpSelect, OpDeselect, OpOpen, OpReload:
		if len(op.IDs) == 0 {
			return Op{}, fmt.Errorf("%s needs at least one node id", op.Name)
		}
	case OpSelectAll, OpDeselectAll:
		if len(op.IDs) != 0 {
			return Op{}, fmt.Errorf("%s takes no node ids", op.Name)
		}
	default:
		return Op{}, fmt.Errorf("unknown operation %q", op.Name)
	}
	return op, nil
}

// Apply runs op against the tree.
func (s *Session) Apply(ctx context.Context, op Op) error {
	var err error
	switch op.Name {
	case OpSelect:
		err = s.Tree.Select(op.IDs...)
	case OpDeselect:
		err = s.Tree.Deselect(op.IDs...)
	case OpSelectAll:
		s.Tree.SelectAll()
	case OpDeselectAll:
		s.Tree.DeselectAll()
	case OpOpen:
		for _, id := range op.IDs {
			if err = s.Tree.Open(ctx, id); err != nil {
				break
			}
		}
	case OpReload:
		for _, id := range op.IDs {
			if err = s.Tree.Reload(ctx, id); err != nil {
				break
			}
		}
	default:
		err = fmt.Errorf("unknown operation %q", op.Name)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("applied operation", zap.Stringer("op", op))
	return nil
}

// Report is the answer to every export query at once.
type Report struct {
	Pages        map[string][]string `json:"pages"`
	ExportingAll bool                `json:"exporting_all"`
	HasPages     bool                `json:"has_pages"`
}

// Report snapshots the export queries.
func (s *Session) Report() Report {
	set := s.Exporter.ExportPages()
	pages := make(map[string][]string, len(set))
	for incl, excls := range set {
		out := make([]string, len(excls))
		for i, e := range excls {
			out[i] = string(e)
		}
		pages[string(incl)] = out
	}
	return Report{
		Pages:        pages,
		ExportingAll: s.Exporter.IsExportingAllPages(),
		HasPages:     s.Exporter.HasExportPages(),
	}
}
