package reference

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Wildcard matches any run of characters, dots included (SQL LIKE '%').
const Wildcard = "%"

// Pattern is an SQL LIKE pattern over serialized references, with '\' as the
// escape character: '%' matches any run of characters, '_' matches exactly one,
// and "\%", "\_" and "\\" stand for the literal characters. The export service
// treats patterns as opaque; they are compared by string identity only.
type Pattern string

// Literal returns the pattern matching s and nothing else.
func Literal(s string) Pattern {
	return Pattern(escape(s, `%_\`))
}

// Exact returns the pattern matching r and nothing else.
func Exact(r Reference) Pattern {
	return Literal(r.String())
}

// ContainerPattern returns "<container>.%", everything below r's container.
// For a wiki reference this is the same as RootPattern.
func ContainerPattern(r Reference) Pattern {
	if r.IsWiki() {
		return RootPattern(r.Wiki)
	}
	return Literal(r.Container().String()+".") + Wildcard
}

// RootPattern returns "<wiki>:%.%", any space and any page of the wiki.
func RootPattern(wiki string) Pattern {
	return Literal(escape(wiki, ":\\")+":") + Wildcard + "." + Wildcard
}

// IsWildcard reports whether p contains an unescaped wildcard.
func (p Pattern) IsWildcard() bool {
	for _, t := range tokenize(string(p), true) {
		if t.kind != literal {
			return true
		}
	}
	return false
}

type tokenKind uint8

const (
	literal tokenKind = iota
	anyOne            // '_'
	anyRun            // '%'
)

type token struct {
	kind tokenKind
	r    rune
}

// tokenize splits s into tokens. With wild unset every rune is a literal.
func tokenize(s string, wild bool) []token {
	out := make([]token, 0, len(s))
	escaped := false
	for _, c := range s {
		switch {
		case !wild:
			out = append(out, token{r: c})
		case escaped:
			out = append(out, token{r: c})
			escaped = false
		case c == '\\':
			escaped = true
		case c == '%':
			out = append(out, token{kind: anyRun})
		case c == '_':
			out = append(out, token{kind: anyOne})
		default:
			out = append(out, token{r: c})
		}
	}
	if escaped {
		// A dangling escape is matched as the backslash itself.
		out = append(out, token{r: '\\'})
	}
	return out
}

// match reports whether the pattern tokens p match every sequence denoted by
// the subject tokens s. Subject wildcards are only matched by pattern
// wildcards at least as wide.
func match(p, s []token) bool {
	one := func(pt, st token) bool {
		switch pt.kind {
		case anyOne:
			return st.kind != anyRun
		case literal:
			return st.kind == literal && st.r == pt.r
		}
		return false
	}
	i, j := 0, 0
	star, mark := -1, 0
	for j < len(s) {
		switch {
		case i < len(p) && p[i].kind == anyRun:
			star, mark = i, j
			i++
		case i < len(p) && one(p[i], s[j]):
			i++
			j++
		case star >= 0:
			mark++
			i, j = star+1, mark
		default:
			return false
		}
	}
	for i < len(p) && p[i].kind == anyRun {
		i++
	}
	return i == len(p)
}

// Like reports whether s, taken literally, matches pattern.
func Like(pattern Pattern, s string) bool {
	return match(tokenize(string(pattern), true), tokenize(s, false))
}

// Subsumes reports whether every reference matched by q is also matched by p.
// The check is structural, so it can answer false for exotic pairs that are in
// fact contained; it never answers true wrongly.
func Subsumes(p, q Pattern) bool {
	return match(tokenize(string(p), true), tokenize(string(q), true))
}

// ExportSet maps an inclusion pattern to its exclusion patterns. A reference is
// selected iff it matches some inclusion and none of that inclusion's
// exclusions.
type ExportSet map[Pattern][]Pattern

// Add records an inclusion (if missing) and appends the exclusions not already
// listed for it.
func (s ExportSet) Add(include Pattern, excludes ...Pattern) {
	cur, ok := s[include]
	if !ok {
		cur = []Pattern{}
	}
	for _, e := range excludes {
		if !containsPattern(cur, e) {
			cur = append(cur, e)
		}
	}
	s[include] = cur
}

// Merge adds every entry of o to s.
func (s ExportSet) Merge(o ExportSet) {
	for _, incl := range o.Inclusions() {
		s.Add(incl, o[incl]...)
	}
}

// Clone returns a deep copy.
func (s ExportSet) Clone() ExportSet {
	out := make(ExportSet, len(s))
	for k, v := range s {
		out[k] = append([]Pattern{}, v...)
	}
	return out
}

// Inclusions returns the inclusion patterns in sorted order.
func (s ExportSet) Inclusions() []Pattern {
	keys := make([]Pattern, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Includes reports whether ref is selected by the set.
func (s ExportSet) Includes(ref string) bool {
	for incl, excls := range s {
		if !Like(incl, ref) {
			continue
		}
		excluded := false
		for _, e := range excls {
			if Like(e, ref) {
				excluded = true
				break
			}
		}
		if !excluded {
			return true
		}
	}
	return false
}

// Validate checks that every exclusion is subsumed by its inclusion.
func (s ExportSet) Validate() error {
	for _, incl := range s.Inclusions() {
		for _, e := range s[incl] {
			if !Subsumes(incl, e) {
				return fmt.Errorf("exclusion %q is not covered by inclusion %q", e, incl)
			}
		}
	}
	return nil
}

// MarshalJSON writes empty exclusion lists as [] rather than null.
func (s ExportSet) MarshalJSON() ([]byte, error) {
	m := make(map[string][]string, len(s))
	for k, v := range s {
		excl := make([]string, len(v))
		for i, p := range v {
			excl[i] = string(p)
		}
		m[string(k)] = excl
	}
	return json.Marshal(m)
}

func containsPattern(list []Pattern, p Pattern) bool {
	for _, x := range list {
		if x == p {
			return true
		}
	}
	return false
}
