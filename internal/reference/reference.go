package reference

import (
	"errors"
	"fmt"
	"strings"
)

// HomePage is the name of the page that stands for its parent space.
// "xwiki:B.WebHome" is the page of space "xwiki:B".
const HomePage = "WebHome"

var ErrInvalidReference = errors.New("invalid entity reference")

// Reference is a hierarchical entity reference: a wiki plus an ordered list of
// space/page segments. The zero value is the empty reference.
type Reference struct {
	Wiki     string
	Segments []string
}

// New builds a reference from a wiki name and segments.
func New(wiki string, segments ...string) Reference {
	return Reference{Wiki: wiki, Segments: append([]string(nil), segments...)}
}

// Parse reads the serialized form produced by String ("wiki:seg1.seg2").
// A backslash escapes the next character, so "a\.b" is a single segment.
func Parse(s string) (Reference, error) {
	if s == "" {
		return Reference{}, fmt.Errorf("%w: empty", ErrInvalidReference)
	}

	var (
		r        Reference
		cur      strings.Builder
		haveWiki bool
		escaped  bool
	)
	flush := func() error {
		if cur.Len() == 0 {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidReference, s)
		}
		r.Segments = append(r.Segments, cur.String())
		cur.Reset()
		return nil
	}

	for _, c := range s {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == ':' && !haveWiki:
			if cur.Len() == 0 {
				return Reference{}, fmt.Errorf("%w: empty wiki in %q", ErrInvalidReference, s)
			}
			r.Wiki = cur.String()
			cur.Reset()
			haveWiki = true
		case c == '.' && haveWiki:
			if err := flush(); err != nil {
				return Reference{}, err
			}
		default:
			cur.WriteRune(c)
		}
	}
	if escaped {
		return Reference{}, fmt.Errorf("%w: trailing escape in %q", ErrInvalidReference, s)
	}
	if !haveWiki {
		return Reference{}, fmt.Errorf("%w: missing wiki prefix in %q", ErrInvalidReference, s)
	}
	if err := flush(); err != nil {
		return Reference{}, err
	}
	return r, nil
}

// MustParse is Parse for fixtures and tests. It panics on error.
func MustParse(s string) Reference {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// IsZero reports whether r is the empty reference.
func (r Reference) IsZero() bool {
	return r.Wiki == "" && len(r.Segments) == 0
}

// IsWiki reports whether r names a whole wiki (no segments).
func (r Reference) IsWiki() bool {
	return r.Wiki != "" && len(r.Segments) == 0
}

// Name returns the last segment, or the wiki name for a wiki reference.
func (r Reference) Name() string {
	if len(r.Segments) == 0 {
		return r.Wiki
	}
	return r.Segments[len(r.Segments)-1]
}

// Child returns a new reference one level below r.
func (r Reference) Child(segment string) Reference {
	segs := make([]string, 0, len(r.Segments)+1)
	segs = append(segs, r.Segments...)
	return Reference{Wiki: r.Wiki, Segments: append(segs, segment)}
}

// Container returns the reference whose subtree r heads. A nested home page
// ("B.WebHome") stands for its space ("B"); any other reference is its own
// container.
func (r Reference) Container() Reference {
	if n := len(r.Segments); n > 1 && r.Segments[n-1] == HomePage {
		return Reference{Wiki: r.Wiki, Segments: r.Segments[:n-1 : n-1]}
	}
	return r
}

// Equal compares two references segment by segment.
func (r Reference) Equal(o Reference) bool {
	if r.Wiki != o.Wiki || len(r.Segments) != len(o.Segments) {
		return false
	}
	for i := range r.Segments {
		if r.Segments[i] != o.Segments[i] {
			return false
		}
	}
	return true
}

func (r Reference) String() string {
	if r.IsZero() {
		return ""
	}
	var b strings.Builder
	b.WriteString(escape(r.Wiki, ":\\"))
	b.WriteByte(':')
	for i, s := range r.Segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(escape(s, ".:\\"))
	}
	return b.String()
}

func escape(s, special string) string {
	if !strings.ContainsAny(s, special) {
		return s
	}
	var b strings.Builder
	for _, c := range s {
		if strings.ContainsRune(special, c) {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
