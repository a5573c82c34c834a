package io

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/render/attrs"
)

var (
	headerRe = regexp.MustCompile(`^(\d+)\s+(\d+)\s+(\d+)\s+(\d+)$`)
	arcRe    = regexp.MustCompile(`^(\d+)\s*-\(\s*([0-9]+(?:\.[0-9]+)?)\s*\)>\s*(\d+)$`)
)

// ReadNetwork parses network text into a single-frame document. Blank
// lines and lines starting with "#" are ignored.
func ReadNetwork(r io.Reader) (graph.Document, error) {
	sc := bufio.NewScanner(r)
	lineNo := 0
	next := func() (string, bool) {
		for sc.Scan() {
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			return line, true
		}
		return "", false
	}

	header, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return graph.Document{}, fmt.Errorf("read network: %w", err)
		}
		return graph.Document{}, ferrors.New(ferrors.ErrCodeInvalidFormat, "network is empty")
	}
	m := headerRe.FindStringSubmatch(header)
	if m == nil {
		return graph.Document{}, ferrors.New(ferrors.ErrCodeInvalidFormat, "line %d: want header \"n m s t\", got %q", lineNo, header)
	}
	n, _ := strconv.Atoi(m[1])
	arcs, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	t, _ := strconv.Atoi(m[4])
	if n == 0 {
		return graph.Document{}, ferrors.New(ferrors.ErrCodeInvalidFormat, "line %d: network has no vertices", lineNo)
	}
	if s >= n || t >= n {
		return graph.Document{}, ferrors.New(ferrors.ErrCodeInvalidFormat, "line %d: terminal out of range [0, %d)", lineNo, n)
	}

	doc := graph.Document{
		Nodes:  make([]graph.Node, n),
		Links:  make([]graph.Link, 0, arcs),
		Frames: []graph.Frame{{Label: "Initial", Vertices: make(map[string]graph.VertexState, n)}},
	}
	for v := range n {
		id := strconv.Itoa(v)
		doc.Nodes[v] = graph.Node{ID: graph.ID(id), Source: v == s, Sink: v == t}
		height := 0
		if v == s {
			height = n
		}
		doc.Frames[0].Vertices[id] = graph.VertexState{Alive: true, Height: height}
	}

	edges := make(map[string]graph.EdgeState, arcs)
	for {
		line, ok := next()
		if !ok {
			break
		}
		a := arcRe.FindStringSubmatch(line)
		if a == nil {
			return graph.Document{}, ferrors.New(ferrors.ErrCodeInvalidFormat, "line %d: want \"u-(c)>v\", got %q", lineNo, line)
		}
		u, _ := strconv.Atoi(a[1])
		c, _ := strconv.ParseFloat(a[2], 64)
		v, _ := strconv.Atoi(a[3])
		if u >= n || v >= n {
			return graph.Document{}, ferrors.New(ferrors.ErrCodeInvalidFormat, "line %d: vertex out of range [0, %d)", lineNo, n)
		}
		id := strconv.Itoa(len(doc.Links) + 1)
		doc.Links = append(doc.Links, graph.Link{
			ID:       graph.ID(id),
			Source:   graph.ID(a[1]),
			Target:   graph.ID(a[3]),
			Capacity: c,
		})
		edges[id] = graph.EdgeState{RemainingCapacity: c}
	}
	if err := sc.Err(); err != nil {
		return graph.Document{}, fmt.Errorf("read network: %w", err)
	}
	if len(doc.Links) != arcs {
		return graph.Document{}, ferrors.New(ferrors.ErrCodeInvalidFormat, "header announces %d edges, found %d", arcs, len(doc.Links))
	}
	doc.Frames[0].Edges = edges
	return doc, nil
}

// WriteNetwork writes the topology of doc as network text. Vertex ids must
// be the indices 0..n-1 and exactly one source and one sink must be set.
func WriteNetwork(doc graph.Document, w io.Writer) error {
	s, t := -1, -1
	for i, nd := range doc.Nodes {
		if nd.ID.String() != strconv.Itoa(i) {
			return ferrors.New(ferrors.ErrCodeUnsupported, "network text needs vertex ids 0..%d, got %q at %d", len(doc.Nodes)-1, nd.ID, i)
		}
		if nd.Source {
			s = i
		}
		if nd.Sink {
			t = i
		}
	}
	if s < 0 || t < 0 {
		return ferrors.New(ferrors.ErrCodeUnsupported, "network text needs a source and a sink")
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d %d %d\n", len(doc.Nodes), len(doc.Links), s, t)
	for _, l := range doc.Links {
		fmt.Fprintf(bw, "%s-(%s)>%s\n", l.Source, attrs.FormatNumber(l.Capacity), l.Target)
	}
	return bw.Flush()
}
