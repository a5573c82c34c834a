package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestEffectiveAlphaDecay(t *testing.T) {
	s := Default().Simulation
	want := 1 - math.Pow(0.001, 1.0/300)
	if got := s.EffectiveAlphaDecay(); math.Abs(got-want) > 1e-12 {
		t.Errorf("derived decay = %v, want %v", got, want)
	}
	s.AlphaDecay = 0.05
	if got := s.EffectiveAlphaDecay(); got != 0.05 {
		t.Errorf("explicit decay = %v, want 0.05", got)
	}
}

func TestEffectiveStrength(t *testing.T) {
	f := Default().Forces
	if got := f.Charge.EffectiveStrength(); got != -30 {
		t.Errorf("charge = %v, want -30", got)
	}
	if got := f.X.EffectiveStrength(); got != 0 {
		t.Errorf("disabled x = %v, want 0", got)
	}
	f.X.Enabled = true
	if got := f.X.EffectiveStrength(); got != 0.1 {
		t.Errorf("enabled x = %v, want 0.1", got)
	}
	f.Link.Enabled = false
	if got := f.Link.StrengthScale(); got != 0 {
		t.Errorf("disabled link scale = %v, want 0", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
		check  func(t *testing.T, c Config)
	}{
		{
			name:   "toml",
			format: FormatTOML,
			data:   "width = 400\n[forces.charge]\nstrength = -60\n[display]\nheights = true\n",
			check: func(t *testing.T, c Config) {
				if c.Width != 400 || c.Forces.Charge.Strength != -60 || !c.Display.Heights {
					t.Errorf("overrides not applied: %+v", c)
				}
				if c.Height != 600 || c.Forces.Charge.DistanceMax != 2000 {
					t.Errorf("defaults lost: height=%v distanceMax=%v", c.Height, c.Forces.Charge.DistanceMax)
				}
			},
		},
		{
			name:   "yaml",
			format: FormatYAML,
			data:   "forces:\n  link:\n    distance: 80\ndisplay:\n  physics_drag: false\n",
			check: func(t *testing.T, c Config) {
				if c.Forces.Link.Distance != 80 || c.Display.PhysicsDrag {
					t.Errorf("overrides not applied: %+v", c)
				}
				if !c.Forces.Link.Enabled || c.Forces.Link.Iterations != 1 {
					t.Errorf("link defaults lost: %+v", c.Forces.Link)
				}
			},
		},
		{
			name:   "json",
			format: FormatJSON,
			data:   `{"style": {"stroke_width": 3}}`,
			check: func(t *testing.T, c Config) {
				if c.Style.StrokeWidth != 3 || c.Style.DeadOpacity != 0.2 {
					t.Errorf("style = %+v", c.Style)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		data    string
		wantMsg string
	}{
		{"negative width", FormatTOML, "width = -1", "Width"},
		{"collide strength", FormatTOML, "[forces.collide]\nstrength = 2", "Forces.Collide.Strength"},
		{"distance order", FormatYAML, "forces:\n  charge:\n    distance_max: 0.5", "Forces.Charge.DistanceMax"},
		{"zero iterations", FormatJSON, `{"forces": {"link": {"iterations": 0}}}`, "Forces.Link.Iterations"},
		{"opacity", FormatJSON, `{"style": {"dead_opacity": 1.5}}`, "Style.DeadOpacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			if !ferrors.Is(err, ferrors.ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want %v", ferrors.GetCode(err), ferrors.ErrCodeInvalidConfig)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not name %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	if _, err := Parse([]byte(`{"widht": 3}`), FormatJSON); err == nil {
		t.Error("unknown JSON field accepted")
	}
	if _, err := Parse([]byte("width = ["), FormatTOML); err == nil {
		t.Error("broken TOML accepted")
	}
	if _, err := Parse(nil, "ini"); !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
		t.Errorf("unknown format: %v", err)
	}
}

func TestOverlay(t *testing.T) {
	base := Default()
	base.Display.Heights = true
	c, err := Overlay(base, []byte(`{"display": {"show_weights": true}}`), FormatJSON)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if !c.Display.Heights || !c.Display.ShowWeights {
		t.Errorf("display = %+v", c.Display)
	}
	if _, err := Overlay(base, []byte(`{"width": 0}`), FormatJSON); err == nil {
		t.Error("invalid overlay accepted")
	}
	if base.Display.ShowWeights {
		t.Error("Overlay mutated its base")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowscope.yml")
	if err := os.WriteFile(path, []byte("height: 300\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Height != 300 {
		t.Errorf("height = %v, want 300", c.Height)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !ferrors.Is(err, ferrors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}

	bad := filepath.Join(dir, "flowscope.ini")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
		t.Errorf("bad extension: %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	want := Default()
	want.Forces.Charge.Strength = -45
	want.Display.ContractSameGroup = true
	for _, format := range []string{FormatTOML, FormatYAML, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			data, err := Marshal(want, format)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			got, err := Parse(data, format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got != want {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}
