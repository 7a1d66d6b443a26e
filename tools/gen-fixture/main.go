// Command gen-fixture writes a random wiki fixture for load testing the
// export commands:
//
//	go run ./tools/gen-fixture -depth 4 -breadth 12 -out big.json
//	exporttree build big.json big.db
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/agentic-research/exporttree/api"
	"github.com/agentic-research/exporttree/internal/reference"
)

type generator struct {
	rng        *rand.Rand
	depth      int
	breadth    int
	pagination float64
	pinned     float64
	count      int
}

func main() {
	wiki := flag.String("wiki", "xwiki", "Wiki name")
	depth := flag.Int("depth", 3, "Levels of nested spaces")
	breadth := flag.Int("breadth", 8, "Maximum children per space")
	pagination := flag.Float64("pagination", 0.3, "Probability that a space has more children than listed")
	pinned := flag.Float64("pinned", 0.05, "Probability that a space is seeded disabled+undetermined")
	seed := flag.Uint64("seed", 1, "Random seed")
	out := flag.String("out", "", "Output file (default stdout)")
	flag.Parse()

	g := &generator{
		rng:        rand.New(rand.NewPCG(*seed, *seed)),
		depth:      *depth,
		breadth:    *breadth,
		pagination: *pagination,
		pinned:     *pinned,
	}
	w := &api.Wiki{Name: *wiki, Nodes: g.children(reference.New(*wiki), 0)}
	if g.rng.Float64() < g.pagination {
		w.Nodes = append(w.Nodes, more("pagination:wiki:"+*wiki))
	}

	raw, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		fatal(err)
	}
	raw = append(raw, '\n')
	if *out == "" {
		_, err = os.Stdout.Write(raw)
	} else {
		err = os.WriteFile(*out, raw, 0o644)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "generated %d nodes\n", g.count)
}

// children lists the pages of the space at container.
func (g *generator) children(container reference.Reference, level int) []api.Node {
	n := 1 + g.rng.IntN(g.breadth)
	nodes := make([]api.Node, 0, n+1)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Page%d", i)
		g.count++
		if level+1 >= g.depth || g.rng.IntN(3) == 0 {
			ref := container.Child(name)
			nodes = append(nodes, api.Node{
				ID:   "document:" + ref.String(),
				Text: name,
				Data: api.Data{ID: ref.String(), Type: "document"},
			})
			continue
		}

		space := container.Child(name)
		home := space.Child(reference.HomePage)
		node := api.Node{
			ID:       "document:" + home.String(),
			Text:     name,
			Children: true,
			Data: api.Data{
				ID:            home.String(),
				Type:          "document",
				ValidChildren: []string{"document", "pagination"},
			},
			Nodes: g.children(space, level+1),
		}
		if g.rng.Float64() < g.pagination {
			node.Nodes = append(node.Nodes, more("pagination:document:"+home.String()))
		}
		if g.rng.Float64() < g.pinned {
			node.State = &api.State{Disabled: true, Undetermined: true}
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func more(id string) api.Node {
	return api.Node{ID: id, Text: "More...", Data: api.Data{Type: "pagination"}}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "gen-fixture: %v\n", err)
	os.Exit(1)
}
