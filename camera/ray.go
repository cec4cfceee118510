package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half line; Direction is normalized
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectSphere returns the distance to the first hit in front of the origin
func (r Ray) IntersectSphere(center mgl64.Vec3, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - radius*radius

	discriminant := b*b - c
	if discriminant < 0 {
		return 0, false
	}
	sqrtD := math.Sqrt(discriminant)

	t := -b - sqrtD
	if t < 0 {
		// Origin inside the sphere
		t = -b + sqrtD
	}
	if t < 0 {
		return 0, false
	}

	return t, true
}
