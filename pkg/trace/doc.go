// Package trace holds the flow network and the push-relabel trace that is
// played back over it.
//
// A [Graph] is built once by [New] from nodes, edges and frames. New indexes
// nodes and edges by id, derives [Edge.HasReversePartner] for every edge and
// validates the whole trace: every frame must carry exactly one vertex state
// per node and one edge state per edge, and every edge state must satisfy
//
//	0 <= flow <= capacity
//	remainingCapacity == capacity - flow
//
// A trace that violates any of these is rejected; nothing downstream ever
// substitutes defaults for missing algorithm state.
//
// After construction the graph is read-only except for node positions, pins
// and velocities, which the layout simulation owns.
//
// # Identity
//
// Nodes and edges are referred to by id everywhere. Edges store the ids of
// their endpoints and are resolved through [Graph.Node]; frames store edge
// and vertex states keyed by id; augmenting paths are sequences of
// [PathStep], each naming an edge and whether it was traversed against its
// stored direction.
package trace
