// Package camera holds the perspective camera the room is fitted to, and turns
// normalized device coordinates into world rays for picking.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultFovY   = 75.0
	DefaultAspect = 16.0 / 9.0
	DefaultNear   = 0.1
	DefaultFar    = 1000.0
)

// Camera is a perspective camera looking from Position toward Target
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3

	FovY   float64 // vertical field of view, degrees
	Aspect float64 // width / height
	Near   float64
	Far    float64
}

// New creates a camera at distance on the +Z axis, looking at the origin
func New(distance, fovY, aspect float64) *Camera {
	return &Camera{
		Position: mgl64.Vec3{0, 0, distance},
		Target:   mgl64.Vec3{0, 0, 0},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     fovY,
		Aspect:   aspect,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
}

// SetViewport updates the aspect ratio; degenerate sizes are ignored
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float64(width) / float64(height)
}

func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// FrustumAt returns the size of the visible rectangle at distance from the camera
func (c *Camera) FrustumAt(distance float64) (width, height float64) {
	height = 2 * distance * math.Tan(mgl64.DegToRad(c.FovY)/2)
	width = height * c.Aspect

	return width, height
}

// Ray builds the world ray going through the normalized device coordinates (x, y in [-1, 1])
func (c *Camera) Ray(ndcX, ndcY float64) Ray {
	inverse := c.Projection().Mul4(c.View()).Inv()
	near := mgl64.TransformCoordinate(mgl64.Vec3{ndcX, ndcY, -1}, inverse)
	far := mgl64.TransformCoordinate(mgl64.Vec3{ndcX, ndcY, 1}, inverse)

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// Project returns the normalized device coordinates of a world point.
// visible is false for points behind the camera.
func (c *Camera) Project(point mgl64.Vec3) (ndc mgl64.Vec3, visible bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(point.Vec4(1))
	if clip.W() <= 1e-9 {
		return mgl64.Vec3{}, false
	}

	return clip.Vec3().Mul(1.0 / clip.W()), true
}
