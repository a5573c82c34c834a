// Package layout implements the force-directed layout of a flow network.
//
// # Overview
//
// A [Simulation] moves the nodes of a [trace.Graph] under a set of forces
// and cools down over time. Each [Simulation.Tick] performs one integration
// step:
//
//  1. alpha drifts toward alphaTarget by alphaDecay
//  2. every force adds to the node velocities (the center force moves
//     positions directly)
//  3. velocities decay by velocityDecay and are added to the positions
//
// Nodes pinned on an axis (FixedX or FixedY set) take the pinned value on
// every tick and keep zero velocity on that axis. Dragging uses pins: it
// holds the dragged node under the pointer while alphaTarget keeps the rest
// of the layout warm.
//
// # Forces
//
// The stock forces follow the well known d3-force model:
//
//   - link: springs between edge endpoints, biased toward the endpoint with
//     the lower degree
//   - charge: Barnes-Hut approximated many-body repulsion
//   - collide: disk collision resolved on predicted positions
//   - center: translation keeping the centroid on the canvas anchor
//   - x and y: optional pull toward a fixed fraction of the canvas
//
// Disabled forces stay registered with zero strength, so toggling a force
// never reorders the others.
//
// # Determinism
//
// Coincident nodes are separated by a tiny displacement sampled from
// OpenSimplex noise with the configured seed. Two simulations built from
// the same graph and config produce identical layouts.
package layout
