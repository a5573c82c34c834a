package vec

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b Vec) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func TestArithmetic(t *testing.T) {
	a, b := New(1, 2), New(3, -4)

	if got := a.Add(b); got != New(4, -2) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Sub(b); got != New(-2, 6) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Scale(2.5); got != New(2.5, 5) {
		t.Errorf("Scale = %v", got)
	}
	if got := a.Neg(); got != New(-1, -2) {
		t.Errorf("Neg = %v", got)
	}
	if got := a.Dot(b); got != -5 {
		t.Errorf("Dot = %v", got)
	}
	if got := b.Len(); got != 5 {
		t.Errorf("Len = %v", got)
	}
	if got := b.Len2(); got != 25 {
		t.Errorf("Len2 = %v", got)
	}
	if got := a.Dist(a.Add(New(3, 4))); got != 5 {
		t.Errorf("Dist = %v", got)
	}
}

func TestUnit(t *testing.T) {
	tests := []struct {
		name string
		in   Vec
		want Vec
	}{
		{"axis", New(0, 7), New(0, 1)},
		{"diagonal", New(3, 4), New(0.6, 0.8)},
		{"zero falls back", Zero, Fallback},
		{"nan falls back", New(math.NaN(), 1), Fallback},
		{"inf falls back", New(math.Inf(1), 1), Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Unit(); !approx(got, tt.want) {
				t.Errorf("Unit(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name  string
		in    Vec
		theta float64
		want  Vec
	}{
		{"quarter turn", New(1, 0), math.Pi / 2, New(0, 1)},
		{"half turn", New(1, 2), math.Pi, New(-1, -2)},
		{"negative", New(0, 1), -math.Pi / 2, New(1, 0)},
		{"identity", New(3, 4), 0, New(3, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Rotate(tt.theta)
			if !approx(got, tt.want) {
				t.Errorf("Rotate = %v, want %v", got, tt.want)
			}
			if math.Abs(got.Len()-tt.in.Len()) > eps {
				t.Errorf("Rotate changed length: %v -> %v", tt.in.Len(), got.Len())
			}
		})
	}
}

func TestFinite(t *testing.T) {
	if !New(1, 2).Finite() {
		t.Error("finite vector reported as non-finite")
	}
	if New(math.NaN(), 0).Finite() {
		t.Error("NaN vector reported as finite")
	}
	if !Zero.IsZero() || New(0, 1).IsZero() {
		t.Error("IsZero mismatch")
	}
}
