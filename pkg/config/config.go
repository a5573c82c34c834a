// Package config defines the force, simulation, display and style settings
// shared by the layout simulation, the render attribute resolvers and every
// front end.
//
// A [Config] is a plain value. The session that owns a simulation holds the
// only mutable copy and applies changes through its own update method;
// nothing in this package is global.
//
// Configs load from TOML, YAML or JSON files. Decoding starts from
// [Default], so a file only needs to mention the settings it changes:
//
//	[forces.charge]
//	strength = -60
//
//	[display]
//	heights = true
//
// Every loaded config is checked by [Config.Validate].
package config

import (
	"math"
)

// Config is the complete visualization configuration.
type Config struct {
	// Width and Height are the canvas size the forces are anchored to.
	Width  float64 `json:"width" toml:"width" yaml:"width" validate:"gt=0"`
	Height float64 `json:"height" toml:"height" yaml:"height" validate:"gt=0"`

	Forces     Forces     `json:"forces" toml:"forces" yaml:"forces"`
	Simulation Simulation `json:"simulation" toml:"simulation" yaml:"simulation"`
	Display    Display    `json:"display" toml:"display" yaml:"display"`
	Style      Style      `json:"style" toml:"style" yaml:"style"`
}

// Forces holds the parameters of every force in the layout simulation.
// A disabled force stays registered with zero strength.
type Forces struct {
	Center  Center   `json:"center" toml:"center" yaml:"center"`
	Charge  ManyBody `json:"charge" toml:"charge" yaml:"charge"`
	Collide Collide  `json:"collide" toml:"collide" yaml:"collide"`
	Link    Link     `json:"link" toml:"link" yaml:"link"`
	X       Axis     `json:"x" toml:"x" yaml:"x"`
	Y       Axis     `json:"y" toml:"y" yaml:"y"`
}

// Center translates the layout so its centroid sits at (Width*X, Height*Y).
type Center struct {
	Enabled  bool    `json:"enabled" toml:"enabled" yaml:"enabled"`
	X        float64 `json:"x" toml:"x" yaml:"x" validate:"gte=0,lte=1"`
	Y        float64 `json:"y" toml:"y" yaml:"y" validate:"gte=0,lte=1"`
	Strength float64 `json:"strength" toml:"strength" yaml:"strength" validate:"gte=0,lte=1"`
}

// ManyBody is the pairwise repulsion (negative strength) or attraction.
type ManyBody struct {
	Enabled     bool    `json:"enabled" toml:"enabled" yaml:"enabled"`
	Strength    float64 `json:"strength" toml:"strength" yaml:"strength"`
	DistanceMin float64 `json:"distance_min" toml:"distance_min" yaml:"distance_min" validate:"gt=0"`
	DistanceMax float64 `json:"distance_max" toml:"distance_max" yaml:"distance_max" validate:"gtfield=DistanceMin"`
	Theta       float64 `json:"theta" toml:"theta" yaml:"theta" validate:"gt=0,lte=2"`
}

// Collide keeps nodes from overlapping. Radius is also the drawn node radius.
type Collide struct {
	Enabled    bool    `json:"enabled" toml:"enabled" yaml:"enabled"`
	Strength   float64 `json:"strength" toml:"strength" yaml:"strength" validate:"gte=0,lte=1"`
	Radius     float64 `json:"radius" toml:"radius" yaml:"radius" validate:"gt=0"`
	Iterations int     `json:"iterations" toml:"iterations" yaml:"iterations" validate:"min=1,max=100"`
}

// Link pulls the endpoints of every edge toward Distance.
type Link struct {
	Enabled    bool    `json:"enabled" toml:"enabled" yaml:"enabled"`
	Distance   float64 `json:"distance" toml:"distance" yaml:"distance" validate:"gt=0"`
	Iterations int     `json:"iterations" toml:"iterations" yaml:"iterations" validate:"min=1,max=100"`
}

// Axis pulls every node toward a fixed fraction of the canvas on one axis.
type Axis struct {
	Enabled  bool    `json:"enabled" toml:"enabled" yaml:"enabled"`
	Strength float64 `json:"strength" toml:"strength" yaml:"strength" validate:"gte=0,lte=1"`
	Target   float64 `json:"target" toml:"target" yaml:"target" validate:"gte=0,lte=1"`
}

// Simulation holds the cooling schedule and the live tick rate.
type Simulation struct {
	AlphaMin float64 `json:"alpha_min" toml:"alpha_min" yaml:"alpha_min" validate:"gt=0,lt=1"`
	// AlphaDecay of zero derives the decay from AlphaMin so the simulation
	// cools in about 300 ticks.
	AlphaDecay      float64 `json:"alpha_decay" toml:"alpha_decay" yaml:"alpha_decay" validate:"gte=0,lt=1"`
	VelocityDecay   float64 `json:"velocity_decay" toml:"velocity_decay" yaml:"velocity_decay" validate:"gte=0,lte=1"`
	DragAlphaTarget float64 `json:"drag_alpha_target" toml:"drag_alpha_target" yaml:"drag_alpha_target" validate:"gte=0,lte=1"`
	TickRate        float64 `json:"tick_rate" toml:"tick_rate" yaml:"tick_rate" validate:"gt=0,lte=240"`
	MaxTicks        int     `json:"max_ticks" toml:"max_ticks" yaml:"max_ticks" validate:"min=1"`
	Seed            int64   `json:"seed" toml:"seed" yaml:"seed"`
}

// Display holds the user-facing toggles.
type Display struct {
	EdgeLabels        bool `json:"edge_labels" toml:"edge_labels" yaml:"edge_labels"`
	VertexLabels      bool `json:"vertex_labels" toml:"vertex_labels" yaml:"vertex_labels"`
	Heights           bool `json:"heights" toml:"heights" yaml:"heights"`
	ContractSameGroup bool `json:"contract_same_group" toml:"contract_same_group" yaml:"contract_same_group"`
	ShowWeights       bool `json:"show_weights" toml:"show_weights" yaml:"show_weights"`
	// PhysicsDrag selects simulated dragging. When false, dragged nodes are
	// placed directly on a grid of GridSize and stay there.
	PhysicsDrag bool    `json:"physics_drag" toml:"physics_drag" yaml:"physics_drag"`
	GridSize    float64 `json:"grid_size" toml:"grid_size" yaml:"grid_size" validate:"gte=0"`
}

// Style holds the numeric drawing constants the geometry depends on.
type Style struct {
	StrokeWidth           float64 `json:"stroke_width" toml:"stroke_width" yaml:"stroke_width" validate:"gte=0"`
	EdgeWidth             float64 `json:"edge_width" toml:"edge_width" yaml:"edge_width" validate:"gt=0"`
	AugmentingWidthFactor float64 `json:"augmenting_width_factor" toml:"augmenting_width_factor" yaml:"augmenting_width_factor" validate:"gte=1"`
	TerminalRadiusFactor  float64 `json:"terminal_radius_factor" toml:"terminal_radius_factor" yaml:"terminal_radius_factor" validate:"gte=1"`
	DeadOpacity           float64 `json:"dead_opacity" toml:"dead_opacity" yaml:"dead_opacity" validate:"gte=0,lte=1"`
	PairAngle             float64 `json:"pair_angle" toml:"pair_angle" yaml:"pair_angle" validate:"gte=0,lt=1.5708"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Width:  960,
		Height: 600,
		Forces: Forces{
			Center:  Center{Enabled: true, X: 0.5, Y: 0.5, Strength: 1},
			Charge:  ManyBody{Enabled: true, Strength: -30, DistanceMin: 1, DistanceMax: 2000, Theta: 0.9},
			Collide: Collide{Enabled: true, Strength: 0.7, Radius: 5, Iterations: 1},
			Link:    Link{Enabled: true, Distance: 30, Iterations: 1},
			X:       Axis{Enabled: false, Strength: 0.1, Target: 0.5},
			Y:       Axis{Enabled: false, Strength: 0.1, Target: 0.5},
		},
		Simulation: Simulation{
			AlphaMin:        0.001,
			VelocityDecay:   0.4,
			DragAlphaTarget: 0.3,
			TickRate:        60,
			MaxTicks:        1000,
			Seed:            1,
		},
		Display: Display{
			EdgeLabels:   true,
			VertexLabels: true,
			PhysicsDrag:  true,
			GridSize:     10,
		},
		Style: Style{
			StrokeWidth:           2,
			EdgeWidth:             1,
			AugmentingWidthFactor: 1.5,
			TerminalRadiusFactor:  1.5,
			DeadOpacity:           0.2,
			PairAngle:             math.Pi / 10,
		},
	}
}

// EffectiveAlphaDecay returns the per-tick alpha decay, deriving it from
// AlphaMin when AlphaDecay is unset.
func (s Simulation) EffectiveAlphaDecay() float64 {
	if s.AlphaDecay > 0 {
		return s.AlphaDecay
	}
	return 1 - math.Pow(s.AlphaMin, 1.0/300)
}

// enabled converts an enabled flag into the strength multiplier the forces
// are scaled by.
func enabled(on bool) float64 {
	if on {
		return 1
	}
	return 0
}

// Effective strengths: the configured strength times the enabled flag.

// EffectiveStrength returns Strength scaled by the enabled flag.
func (c Center) EffectiveStrength() float64 { return c.Strength * enabled(c.Enabled) }

// EffectiveStrength returns Strength scaled by the enabled flag.
func (m ManyBody) EffectiveStrength() float64 { return m.Strength * enabled(m.Enabled) }

// EffectiveStrength returns Strength scaled by the enabled flag.
func (c Collide) EffectiveStrength() float64 { return c.Strength * enabled(c.Enabled) }

// EffectiveStrength returns Strength scaled by the enabled flag.
func (a Axis) EffectiveStrength() float64 { return a.Strength * enabled(a.Enabled) }

// StrengthScale returns 1 when links pull and 0 when they are disabled.
func (l Link) StrengthScale() float64 { return enabled(l.Enabled) }
