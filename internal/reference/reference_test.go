package reference

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Reference
	}{
		{"xwiki:A.WebHome", New("xwiki", "A", "WebHome")},
		{"wiki:B", New("wiki", "B")},
		{"wiki:B.D.F", New("wiki", "B", "D", "F")},
		{`wiki:a\.b.c`, New("wiki", "a.b", "c")},
		{`wiki:a\\b`, New("wiki", `a\b`)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %#v", got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "nowiki", ":A", "wiki:", "wiki:A..B", `wiki:A\`} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidReference, "input %q", in)
	}
}

func TestContainer(t *testing.T) {
	assert.Equal(t, "xwiki:B", MustParse("xwiki:B.WebHome").Container().String())
	assert.Equal(t, "xwiki:B.D", MustParse("xwiki:B.D.WebHome").Container().String())
	assert.Equal(t, "xwiki:B.E", MustParse("xwiki:B.E").Container().String())
	// A top-level "WebHome" page has no space to stand for.
	assert.Equal(t, "xwiki:WebHome", MustParse("xwiki:WebHome").Container().String())
}

func TestChildDoesNotAlias(t *testing.T) {
	parent := New("wiki", "A", "B")
	c1 := parent.Container().Child("x")
	c2 := parent.Container().Child("y")
	assert.Equal(t, "wiki:A.B.x", c1.String())
	assert.Equal(t, "wiki:A.B.y", c2.String())
}

func TestPatterns(t *testing.T) {
	assert.Equal(t, Pattern("xwiki:B.WebHome"), Exact(MustParse("xwiki:B.WebHome")))
	assert.Equal(t, Pattern("xwiki:B.%"), ContainerPattern(MustParse("xwiki:B.WebHome")))
	assert.Equal(t, Pattern("wiki:B.D.%"), ContainerPattern(MustParse("wiki:B.D")))
	assert.Equal(t, Pattern("xwiki:%.%"), RootPattern("xwiki"))
	assert.Equal(t, Pattern("xwiki:%.%"), ContainerPattern(New("xwiki")))
	assert.False(t, Exact(MustParse("wiki:A")).IsWildcard())
	assert.True(t, RootPattern("wiki").IsWildcard())
}

func TestLike(t *testing.T) {
	tests := []struct {
		pattern Pattern
		s       string
		want    bool
	}{
		{"wiki:B.%", "wiki:B.E", true},
		{"wiki:B.%", "wiki:B.D.F", true},
		{"wiki:B.%", "wiki:B", false},
		{"wiki:B.%", "wiki:BC.E", false},
		{"wiki:%.%", "wiki:A", false},
		{"wiki:%.%", "wiki:A.WebHome", true},
		{"wiki:%.%", "other:A.WebHome", false},
		{"wiki:A", "wiki:A", true},
		{"wiki:A", "wiki:AB", false},
		{"%", "", true},
		{"a%b%c", "abc", true},
		{"a%b%c", "ac", false},
		{"a%bc", "abcbc", true},
		{"a_c", "abc", true},
		{"a_c", "ac", false},
		{`100\%`, "100%", true},
		{`100\%`, "1000", false},
		{`a\_b`, "a_b", true},
		{`a\_b`, "axb", false},
		{`a\\b`, `a\b`, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Like(tt.pattern, tt.s), "%q LIKE %q", tt.s, tt.pattern)
	}
}

func TestPatternsEscapeLikeMetacharacters(t *testing.T) {
	pct := New("wiki", "Sales", "100%")
	under := New("wiki", "my_page")

	assert.Equal(t, Pattern(`wiki:Sales.100\%`), Exact(pct))
	assert.Equal(t, Pattern(`wiki:my\_page`), Exact(under))
	assert.Equal(t, Pattern(`wiki:my\_page.%`), ContainerPattern(under))
	assert.Equal(t, Pattern(`wiki:a\\\\.b`), Exact(New("wiki", `a\`, "b")))
	assert.Equal(t, Pattern(`w\_x:%.%`), RootPattern("w_x"))
	assert.False(t, Exact(pct).IsWildcard())
	assert.False(t, Exact(under).IsWildcard())

	assert.True(t, Like(Exact(pct), pct.String()))
	assert.False(t, Like(Exact(pct), "wiki:Sales.1000"))
	assert.False(t, Like(Exact(under), "wiki:myXpage"))
	assert.True(t, Like(ContainerPattern(under), "wiki:my_page.Child"))
	assert.False(t, Like(ContainerPattern(under), "wiki:myXpage.Child"))

	s := ExportSet{}
	s.Add(ContainerPattern(New("wiki", "Sales")), Exact(pct))
	assert.False(t, s.Includes(pct.String()))
	assert.True(t, s.Includes("wiki:Sales.1000"))
	assert.NoError(t, s.Validate())
}

func TestSubsumes(t *testing.T) {
	assert.True(t, Subsumes("wiki:B.%", "wiki:B.D.%"))
	assert.True(t, Subsumes("wiki:B.%", "wiki:B.E"))
	assert.True(t, Subsumes("xwiki:%.%", "xwiki:C.%"))
	assert.False(t, Subsumes("wiki:B.%", "wiki:B"))
	assert.False(t, Subsumes("wiki:B.E", "wiki:B.%"))
	assert.True(t, Subsumes("wiki:B._", "wiki:B.E"))
	assert.False(t, Subsumes("wiki:B._", "wiki:B.%"))
	assert.False(t, Subsumes(`wiki:B.\%`, "wiki:B.%"))
	assert.True(t, Subsumes("wiki:B.%", `wiki:B.\%`))
}

func TestExportSetAddDedup(t *testing.T) {
	s := ExportSet{}
	s.Add("wiki:B.%", "wiki:B.E")
	s.Add("wiki:B.%", "wiki:B.E", "wiki:B.D.%")
	s.Add("wiki:A")
	assert.Equal(t, ExportSet{
		"wiki:B.%": {"wiki:B.E", "wiki:B.D.%"},
		"wiki:A":   {},
	}, s)
	assert.Equal(t, []Pattern{"wiki:A", "wiki:B.%"}, s.Inclusions())
}

func TestExportSetIncludes(t *testing.T) {
	s := ExportSet{
		"wiki:B.%":   {"wiki:B", "wiki:B.D.%"},
		"wiki:B.D.%": {"wiki:B.D"},
	}
	assert.True(t, s.Includes("wiki:B.E"))
	assert.True(t, s.Includes("wiki:B.D.F"))
	assert.False(t, s.Includes("wiki:B"))
	assert.False(t, s.Includes("wiki:B.D"))
	assert.False(t, s.Includes("wiki:C"))
	require.NoError(t, s.Validate())
}

func TestExportSetValidate(t *testing.T) {
	bad := ExportSet{"wiki:B.%": {"wiki:C.%"}}
	assert.Error(t, bad.Validate())
}

func TestExportSetJSON(t *testing.T) {
	s := ExportSet{"wiki:A": {}, "wiki:B.%": {"wiki:B.E"}}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"wiki:A":[],"wiki:B.%":["wiki:B.E"]}`, string(b))

	var back ExportSet
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back)
}

func TestExportSetCloneIsDeep(t *testing.T) {
	s := ExportSet{"wiki:B.%": {"wiki:B.E"}}
	c := s.Clone()
	c["wiki:B.%"][0] = "changed"
	assert.Equal(t, Pattern("wiki:B.E"), s["wiki:B.%"][0])
}
