package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GravityField is either a constant vector, or a vector of length Amplitude
// turning in the XY plane at Speed rad/s.
type GravityField struct {
	Base       mgl64.Vec3
	AutoRotate bool
	Speed      float64
	Amplitude  float64
}

// At returns the gravity at time t, in seconds
func (g GravityField) At(t float64) mgl64.Vec3 {
	if !g.AutoRotate {
		return g.Base
	}

	angle := t * g.Speed
	return mgl64.Vec3{math.Cos(angle) * g.Amplitude, math.Sin(angle) * g.Amplitude, 0}
}
