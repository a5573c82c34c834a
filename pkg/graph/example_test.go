package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowscope/pkg/graph"
)

func ExampleReadGraph() {
	doc := `{
		"nodes": [{"id": "s", "source": true}, {"id": "t", "sink": true}],
		"links": [
			{"id": 1, "source": "s", "target": "t", "capacity": 10},
			{"id": 2, "source": "t", "target": "s", "capacity": 4}
		],
		"frames": [{
			"label": "Initial",
			"vertices": {"s": {"alive": true, "height": 2}, "t": {"alive": true, "height": 0}},
			"edges": {
				"1": {"flow": 0, "remainingCapacity": 10, "admissible": true, "reverseAdmissible": false},
				"2": {"flow": 0, "remainingCapacity": 4, "admissible": false, "reverseAdmissible": false}
			},
			"augmentingPath": [1]
		}]
	}`

	g, err := graph.ReadGraph(strings.NewReader(doc))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Printf("Nodes: %d, Edges: %d, Frames: %d\n", g.NodeCount(), g.EdgeCount(), g.FrameCount())
	for _, e := range g.Edges {
		fmt.Printf("%s: %s -> %s (reverse partner: %v)\n", e.ID, e.Source, e.Target, e.HasReversePartner)
	}
	fmt.Println("On path:", g.Frame(0).OnPath("1"))
	// Output:
	// Nodes: 2, Edges: 2, Frames: 1
	// 1: s -> t (reverse partner: true)
	// 2: t -> s (reverse partner: true)
	// On path: true
}
