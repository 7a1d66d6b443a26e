package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/agentic-research/exporttree/internal/tree"
)

// ErrUnknownNode is returned when a loader is asked for a node it does not
// know.
var ErrUnknownNode = errors.New("unknown node")

const (
	KindJSON   = "json"
	KindSQLite = "sqlite"
)

// Source is a loader together with the wiki it serves.
type Source struct {
	Loader tree.Loader
	Wiki   string
	close  func() error
}

// Close releases the underlying storage.
func (s *Source) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// KindOf guesses the source kind from a file extension.
func KindOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	default:
		return KindJSON
	}
}

// Open opens a fixture of the given kind. An empty kind is guessed from the
// path.
func Open(kind, path string) (*Source, error) {
	if kind == "" {
		kind = KindOf(path)
	}
	switch kind {
	case KindJSON:
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		l, err := NewJSONLoader(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
		if err != nil {
			return nil, err
		}
		return &Source{Loader: l, Wiki: l.Wiki()}, nil
	case KindSQLite:
		l, err := OpenSQLiteLoader(path)
		if err != nil {
			return nil, err
		}
		return &Source{Loader: l, Wiki: l.Wiki(), close: l.Close}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q (want %s or %s)", kind, KindJSON, KindSQLite)
	}
}
