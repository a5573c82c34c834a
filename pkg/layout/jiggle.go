package layout

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	jiggleMagnitude = 1e-6
	jiggleFrequency = 0.61803398875
)

// jiggler produces the tiny, deterministic displacements used to separate
// coincident nodes.
type jiggler struct {
	noise opensimplex.Noise
	step  float64
}

func newJiggler(seed int64) *jiggler {
	return &jiggler{noise: opensimplex.New(seed)}
}

// next returns a non-zero value in [-1e-6, 1e-6].
func (j *jiggler) next() float64 {
	j.step++
	v := j.noise.Eval2(j.step*jiggleFrequency, 0.5) * jiggleMagnitude
	if v == 0 {
		return jiggleMagnitude
	}
	return v
}
