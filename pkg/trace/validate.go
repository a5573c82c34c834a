package trace

import (
	"errors"
	"fmt"
	"slices"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
)

// validateFrames checks every frame against the graph and returns all
// faults found (up to maxFaults), joined under ErrInvalidTrace.
func (g *Graph) validateFrames() error {
	var faults []error
	add := func(err error) bool {
		faults = append(faults, err)
		return len(faults) < maxFaults
	}

frames:
	for i := range g.Frames {
		for _, err := range g.frameFaults(i) {
			if !add(err) {
				break frames
			}
		}
	}

	if len(faults) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidTrace, errors.Join(faults...))
}

// Validate re-checks all frames. It is useful after a graph has been
// assembled by hand in tests or tools; [New] already validates.
func (g *Graph) Validate() error {
	return g.validateFrames()
}

// frameFaults returns the integrity faults of frame i in a deterministic
// order: vertices, edges, then the augmenting path.
func (g *Graph) frameFaults(i int) []error {
	f := &g.Frames[i]
	var faults []error

	for _, n := range g.Nodes {
		if _, ok := f.Vertices[n.ID]; !ok {
			faults = append(faults, ferrors.NewFrameError(ferrors.ErrCodeMissingFrameEntry, i, n.ID, "no vertex state"))
		}
	}
	for _, id := range sortedKeys(f.Vertices) {
		if _, ok := g.nodes[id]; !ok {
			faults = append(faults, ferrors.NewFrameError(ferrors.ErrCodeUnknownFrameEntry, i, id, "vertex state for unknown node"))
		}
	}

	for _, e := range g.Edges {
		s, ok := f.Edges[e.ID]
		if !ok {
			faults = append(faults, ferrors.NewFrameError(ferrors.ErrCodeMissingFrameEntry, i, e.ID, "no edge state"))
			continue
		}
		faults = append(faults, checkEdgeState(i, e, s)...)
	}
	for _, id := range sortedKeys(f.Edges) {
		if _, ok := g.edges[id]; !ok {
			faults = append(faults, ferrors.NewFrameError(ferrors.ErrCodeUnknownFrameEntry, i, id, "edge state for unknown edge"))
		}
	}

	for _, step := range f.AugmentingPath {
		if _, ok := g.edges[step.EdgeID]; !ok {
			faults = append(faults, ferrors.NewFrameError(ferrors.ErrCodeUnknownFrameEntry, i, step.String(), "augmenting path names unknown edge"))
		}
	}
	return faults
}

// checkEdgeState verifies the flow invariants of one edge state.
func checkEdgeState(frame int, e *Edge, s EdgeState) []error {
	var faults []error
	if s.Flow < 0 {
		faults = append(faults, ferrors.NewFrameError(ferrors.ErrCodeInvariantViolation, frame, e.ID,
			"negative flow %g", s.Flow))
	}
	if s.Flow > e.Capacity && !nearlyEqual(s.Flow, e.Capacity) {
		faults = append(faults, ferrors.NewFrameError(ferrors.ErrCodeInvariantViolation, frame, e.ID,
			"flow %g exceeds capacity %g", s.Flow, e.Capacity))
	}
	if !nearlyEqual(s.RemainingCapacity, e.Capacity-s.Flow) {
		faults = append(faults, ferrors.NewFrameError(ferrors.ErrCodeInvariantViolation, frame, e.ID,
			"remaining capacity %g != capacity %g - flow %g", s.RemainingCapacity, e.Capacity, s.Flow))
	}
	return faults
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
