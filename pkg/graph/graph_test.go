package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/trace"
)

const sampleDoc = `{
  "name": "diamond",
  "nodes": [
    {"id": 0, "source": true},
    {"id": 1, "group": 1},
    {"id": 2, "group": 1},
    {"id": 3, "sink": true}
  ],
  "links": [
    {"id": 1, "source": 0, "target": 1, "capacity": 4},
    {"id": 2, "source": 0, "target": 2, "capacity": 2, "weight": 3},
    {"id": 3, "source": 1, "target": 3, "capacity": 3},
    {"id": 4, "source": 2, "target": 3, "capacity": 5},
    {"id": "5", "source": "2", "target": "1", "capacity": 1},
    {"id": 6, "source": 1, "target": 2, "capacity": 1}
  ],
  "frames": [
    {
      "label": "Initial",
      "vertices": {"0": {"alive": true, "height": 4}, "1": {"alive": true, "height": 0}, "2": {"alive": true, "height": 0}, "3": {"alive": true, "height": 0}},
      "edges": {
        "1": {"flow": 0, "remainingCapacity": 4, "admissible": true, "reverseAdmissible": false},
        "2": {"flow": 0, "remainingCapacity": 2, "admissible": true, "reverseAdmissible": false},
        "3": {"flow": 0, "remainingCapacity": 3, "admissible": false, "reverseAdmissible": false},
        "4": {"flow": 0, "remainingCapacity": 5, "admissible": false, "reverseAdmissible": false},
        "5": {"flow": 0, "remainingCapacity": 1, "admissible": false, "reverseAdmissible": false},
        "6": {"flow": 0, "remainingCapacity": 1, "admissible": false, "reverseAdmissible": false}
      }
    },
    {
      "label": "Traced path",
      "vertices": {"0": {"alive": true, "height": 4}, "1": {"alive": true, "height": 1}, "2": {"alive": false, "height": 0}, "3": {"alive": true, "height": 0}},
      "edges": {
        "1": {"flow": 3, "remainingCapacity": 1, "admissible": true, "reverseAdmissible": true},
        "2": {"flow": 0, "remainingCapacity": 2, "admissible": true, "reverseAdmissible": false},
        "3": {"flow": 3, "remainingCapacity": 0, "admissible": false, "reverseAdmissible": true},
        "4": {"flow": 0, "remainingCapacity": 5, "admissible": false, "reverseAdmissible": false},
        "5": {"flow": 0, "remainingCapacity": 1, "admissible": false, "reverseAdmissible": false},
        "6": {"flow": 0, "remainingCapacity": 1, "admissible": false, "reverseAdmissible": false}
      },
      "augmentingPath": [1, "3", -6]
    }
  ]
}`

func TestReadGraph(t *testing.T) {
	g, err := ReadGraph(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 6 || g.FrameCount() != 2 {
		t.Fatalf("counts = %d/%d/%d", g.NodeCount(), g.EdgeCount(), g.FrameCount())
	}

	n, ok := g.Node("1")
	if !ok || n.Group == nil || *n.Group != 1 {
		t.Errorf("node 1 = %+v", n)
	}
	e, _ := g.Edge("2")
	if e.Weight == nil || *e.Weight != 3 {
		t.Errorf("edge 2 weight = %v", e.Weight)
	}
	for id, want := range map[string]bool{"1": false, "5": true, "6": true} {
		e, _ := g.Edge(id)
		if e.HasReversePartner != want {
			t.Errorf("edge %s HasReversePartner = %v, want %v", id, e.HasReversePartner, want)
		}
	}

	path := g.Frame(1).AugmentingPath
	want := []trace.PathStep{{EdgeID: "1"}, {EdgeID: "3"}, {EdgeID: "6", Reversed: true}}
	if len(path) != len(want) {
		t.Fatalf("path = %v", path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path[%d] = %+v, want %+v", i, path[i], want[i])
		}
	}
}

func TestReadGraphRejectsInconsistentTrace(t *testing.T) {
	broken := strings.Replace(sampleDoc, `"3": {"flow": 3, "remainingCapacity": 0`, `"3": {"flow": 3, "remainingCapacity": 2`, 1)
	_, err := ReadGraph(strings.NewReader(broken))
	if !ferrors.Is(err, ferrors.ErrCodeInvariantViolation) {
		t.Fatalf("err = %v, want INVARIANT_VIOLATION", err)
	}

	missing := strings.Replace(sampleDoc, `"4": {"flow": 0, "remainingCapacity": 5, "admissible": false, "reverseAdmissible": false},
        "5"`, `"5"`, 1)
	_, err = ReadGraph(strings.NewReader(missing))
	if !ferrors.Is(err, ferrors.ErrCodeMissingFrameEntry) {
		t.Fatalf("err = %v, want MISSING_FRAME_ENTRY", err)
	}
}

func TestIDDecoding(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{`"a"`, "a", false},
		{`"12"`, "12", false},
		{`12`, "12", false},
		{`12.0`, "12", false},
		{`1.5`, "1.5", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.in), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.want {
				t.Errorf("id = %q, want %q", id, tt.want)
			}
		})
	}
}

func TestPathEntryDecoding(t *testing.T) {
	var entries []PathEntry
	if err := json.Unmarshal([]byte(`[3, -4, "-e1", "e2"]`), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []PathEntry{"3", "-4", "-e1", "e2"}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i], want[i])
		}
	}
}

func TestBadPathEntry(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	doc.Frames[1].AugmentingPath = []PathEntry{"-"}
	if _, err := ToGraph(doc); !ferrors.Is(err, ferrors.ErrCodeInvalidDocument) {
		t.Errorf("err = %v, want INVALID_DOCUMENT", err)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	g, err := ReadGraph(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := ReadGraph(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	again, err := MarshalGraph(g2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("serialization is not stable across a round trip")
	}
}

func TestDocumentFiles(t *testing.T) {
	dir := t.TempDir()
	doc, err := DecodeDocument(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "trace.json")
	if err := WriteDocumentFile(doc, path); err != nil {
		t.Fatalf("WriteDocumentFile: %v", err)
	}
	g, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if g.EdgeCount() != 6 {
		t.Errorf("EdgeCount = %d", g.EdgeCount())
	}
	if _, err := ReadGraphFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestLayout(t *testing.T) {
	g, err := ReadGraph(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range g.Nodes {
		n.X, n.Y = float64(i*10), float64(i*20)
	}
	l := LayoutOf(g, 800, 600)
	data, err := MarshalLayout(l)
	if err != nil {
		t.Fatal(err)
	}
	back, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}

	for _, n := range g.Nodes {
		n.X, n.Y, n.VX = 0, 0, 5
	}
	back.Positions = append(back.Positions, Position{ID: "ghost", X: 1, Y: 1})
	if placed := back.Apply(g); placed != 4 {
		t.Errorf("placed = %d, want 4", placed)
	}
	n, _ := g.Node("3")
	if n.X != 30 || n.Y != 60 || n.VX != 0 {
		t.Errorf("node 3 = (%v, %v) v=%v", n.X, n.Y, n.VX)
	}

	if _, err := UnmarshalLayout([]byte(`{"width": 1}`)); err == nil {
		t.Error("empty layout should be rejected")
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatal(err)
	}
	if got, err := ReadLayoutFile(path); err != nil || len(got.Positions) != 4 {
		t.Errorf("ReadLayoutFile = %+v, %v", got, err)
	}
}
