package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// =============================================================================
// Document - Trace Serialization
// =============================================================================

// Document is the canonical serialization format for a flow network and its
// push-relabel trace.
type Document struct {
	Name   string  `json:"name,omitempty" bson:"name,omitempty"`
	Nodes  []Node  `json:"nodes" bson:"nodes"`
	Links  []Link  `json:"links" bson:"links"`
	Frames []Frame `json:"frames" bson:"frames"`
}

// Node is a serialized vertex.
type Node struct {
	ID     ID   `json:"id" bson:"id"`
	Group  *int `json:"group,omitempty" bson:"group,omitempty"`
	Source bool `json:"source,omitempty" bson:"source,omitempty"`
	Sink   bool `json:"sink,omitempty" bson:"sink,omitempty"`
}

// Link is a serialized edge.
type Link struct {
	ID       ID       `json:"id" bson:"id"`
	Source   ID       `json:"source" bson:"source"`
	Target   ID       `json:"target" bson:"target"`
	Capacity float64  `json:"capacity" bson:"capacity"`
	Weight   *float64 `json:"weight,omitempty" bson:"weight,omitempty"`
}

// Frame is one serialized trace step.
type Frame struct {
	Label          string                 `json:"label" bson:"label"`
	Vertices       map[string]VertexState `json:"vertices" bson:"vertices"`
	Edges          map[string]EdgeState   `json:"edges" bson:"edges"`
	AugmentingPath []PathEntry            `json:"augmentingPath,omitempty" bson:"augmentingPath,omitempty"`
}

// VertexState is the serialized state of a vertex in one frame.
type VertexState struct {
	Alive  bool `json:"alive" bson:"alive"`
	Height int  `json:"height" bson:"height"`
}

// EdgeState is the serialized state of an edge in one frame.
type EdgeState struct {
	Flow              float64 `json:"flow" bson:"flow"`
	RemainingCapacity float64 `json:"remainingCapacity" bson:"remainingCapacity"`
	Admissible        bool    `json:"admissible" bson:"admissible"`
	ReverseAdmissible bool    `json:"reverseAdmissible" bson:"reverseAdmissible"`
}

// =============================================================================
// ID - Number-or-String Identifier
// =============================================================================

// ID is a node or link identifier. It decodes from a JSON string or an
// integer and always encodes as a string.
type ID string

// UnmarshalJSON accepts "a", "12" and 12.
func (id *ID) UnmarshalJSON(data []byte) error {
	s, err := scalarString(data)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(s)
	return nil
}

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// =============================================================================
// PathEntry - Signed Edge Reference
// =============================================================================

// PathEntry is one augmenting path step in its encoded form: a link id,
// prefixed with "-" when the link is traversed backwards. It decodes from
// strings ("-3", "e7") and integers (-3, 7).
type PathEntry string

// UnmarshalJSON accepts "-3", "e7", -3 and 7.
func (p *PathEntry) UnmarshalJSON(data []byte) error {
	s, err := scalarString(data)
	if err != nil {
		return fmt.Errorf("augmenting path entry: %w", err)
	}
	*p = PathEntry(s)
	return nil
}

// scalarString normalizes a JSON string or number to a string. Integral
// numbers are printed without a fraction so 3 and 3.0 both yield "3".
func scalarString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", fmt.Errorf("empty value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", data)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	f, err := n.Float64()
	if err != nil {
		return "", fmt.Errorf("invalid number %s", n)
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return n.String(), nil
}
