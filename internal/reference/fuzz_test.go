package reference

import "testing"

func FuzzParseRoundTrip(f *testing.F) {
	f.Add("xwiki:A.WebHome")
	f.Add(`wiki:a\.b.c`)
	f.Add("wiki:B.D.F")
	f.Add(`w\:x:y`)
	f.Add("wiki:Sales.100%")
	f.Add("w_x:my_page.a%b")

	f.Fuzz(func(t *testing.T, s string) {
		r, err := Parse(s)
		if err != nil {
			return
		}
		again, err := Parse(r.String())
		if err != nil {
			t.Fatalf("re-parse of %q (from %q) failed: %v", r.String(), s, err)
		}
		if !again.Equal(r) {
			t.Fatalf("round trip changed %q: %#v != %#v", s, again, r)
		}
		if p := Exact(r); p.IsWildcard() || !Like(p, r.String()) {
			t.Fatalf("exact pattern %q does not match only %q", p, r.String())
		}
	})
}
