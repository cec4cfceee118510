// Package room builds the static box bounding the simulation, fitted to the
// camera frustum. A room is never mutated in place on resize: its walls are
// removed from the world and built again.
package room

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/helium"
	"github.com/akmonengine/helium/actor"
	"github.com/akmonengine/helium/camera"
	"github.com/go-gl/mathgl/mgl64"
)

// CollisionGroup is the collision group of every wall
const CollisionGroup uint32 = 1 << 0

type Wall int

const (
	Floor Wall = iota
	Ceiling
	Left
	Right
	Front
	Back
	wallCount
)

func (w Wall) String() string {
	return [...]string{"floor", "ceiling", "left", "right", "front", "back"}[w]
}

// Dimensions of the room. The front wall is at z=0, the back wall at z=-Depth.
type Dimensions struct {
	Width  float64
	Height float64
	Depth  float64
}

// Fit sizes a room to exactly fill the camera view at viewingDepth, the
// distance between the camera and the front wall. The room is as deep as it is wide.
func Fit(cam *camera.Camera, viewingDepth float64) Dimensions {
	width, height := cam.FrustumAt(viewingDepth)

	return Dimensions{Width: width, Height: height, Depth: width}
}

// Center of the room volume
func (d Dimensions) Center() mgl64.Vec3 {
	return mgl64.Vec3{0, 0, -d.Depth / 2}
}

// Room owns the six static plane bodies of the boundary
type Room struct {
	world    *helium.World
	material *actor.Material

	dimensions Dimensions
	walls      []*actor.RigidBody
	placements []actor.Transform
	angle      float64
}

func New(world *helium.World, material *actor.Material) *Room {
	return &Room{world: world, material: material}
}

// placements returns the unrotated transform of each wall. Planes face +Z
// locally, each wall is turned so its normal points inside.
func placements(d Dimensions) []actor.Transform {
	halfPi := math.Pi / 2
	x := mgl64.Vec3{1, 0, 0}
	y := mgl64.Vec3{0, 1, 0}
	cz := -d.Depth / 2

	return []actor.Transform{
		Floor:   actor.NewTransformAt(mgl64.Vec3{0, -d.Height / 2, cz}, mgl64.QuatRotate(-halfPi, x)),
		Ceiling: actor.NewTransformAt(mgl64.Vec3{0, d.Height / 2, cz}, mgl64.QuatRotate(halfPi, x)),
		Left:    actor.NewTransformAt(mgl64.Vec3{-d.Width / 2, 0, cz}, mgl64.QuatRotate(halfPi, y)),
		Right:   actor.NewTransformAt(mgl64.Vec3{d.Width / 2, 0, cz}, mgl64.QuatRotate(-halfPi, y)),
		Front:   actor.NewTransformAt(mgl64.Vec3{0, 0, 0}, mgl64.QuatRotate(math.Pi, x)),
		Back:    actor.NewTransformAt(mgl64.Vec3{0, 0, -d.Depth}, mgl64.QuatIdent()),
	}
}

// Build removes the current walls, if any, and creates new ones for d.
// The spin angle is kept.
func (r *Room) Build(d Dimensions) error {
	if err := r.Remove(); err != nil {
		return err
	}

	r.dimensions = d
	r.placements = placements(d)
	r.walls = make([]*actor.RigidBody, 0, wallCount)

	for _, placement := range r.placements {
		body := actor.NewRigidBody(placement, 0)
		body.AddShape(&actor.Plane{Normal: mgl64.Vec3{0, 0, 1}}, mgl64.Vec3{}, mgl64.QuatIdent())
		body.Material = r.material
		body.CollisionGroup = CollisionGroup
		body.CollisionMask = actor.CollisionGroupAll

		if err := r.world.AddBody(body); err != nil {
			return errors.Join(fmt.Errorf("build room: %w", err), r.Remove())
		}
		r.walls = append(r.walls, body)
	}
	r.applySpin()

	return nil
}

// Remove takes every wall out of the world. Walls still referenced by a
// joint stay registered in their slot, until a later Remove succeeds.
func (r *Room) Remove() error {
	var errs []error
	for i, wall := range r.walls {
		if wall == nil {
			continue
		}
		if !r.world.HasBody(wall) {
			r.walls[i] = nil
			continue
		}
		if err := r.world.RemoveBody(wall); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", Wall(i), err))
			continue
		}
		r.walls[i] = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("remove room: %w", errors.Join(errs...))
	}
	r.walls = nil
	r.placements = nil

	return nil
}

// Wall returns one wall, nil before Build or once removed
func (r *Room) Wall(wall Wall) *actor.RigidBody {
	if wall < 0 || int(wall) >= len(r.walls) {
		return nil
	}

	return r.walls[wall]
}

// Floor is the ground body tethers are anchored to
func (r *Room) Floor() *actor.RigidBody {
	return r.Wall(Floor)
}

// Bodies returns the walls currently owned by the room
func (r *Room) Bodies() []*actor.RigidBody {
	bodies := make([]*actor.RigidBody, 0, len(r.walls))
	for _, wall := range r.walls {
		if wall != nil {
			bodies = append(bodies, wall)
		}
	}

	return bodies
}

func (r *Room) Dimensions() Dimensions {
	return r.dimensions
}

// Contains reports whether a point is inside the unrotated box, shrunk by margin
func (r *Room) Contains(point mgl64.Vec3, margin float64) bool {
	d := r.dimensions
	return math.Abs(point.X()) <= d.Width/2-margin &&
		math.Abs(point.Y()) <= d.Height/2-margin &&
		point.Z() <= -margin && point.Z() >= -d.Depth+margin
}

// Clamp moves a point inside the unrotated box, at least margin away from the walls
func (r *Room) Clamp(point mgl64.Vec3, margin float64) mgl64.Vec3 {
	d := r.dimensions
	clamp := func(v, lo, hi float64) float64 {
		if lo > hi {
			return (lo + hi) / 2
		}
		return math.Max(lo, math.Min(hi, v))
	}

	return mgl64.Vec3{
		clamp(point.X(), -d.Width/2+margin, d.Width/2-margin),
		clamp(point.Y(), -d.Height/2+margin, d.Height/2-margin),
		clamp(point.Z(), -d.Depth+margin, -margin),
	}
}

// Spin rotates the room about the Z axis through its centre, wrapping at 2π
func (r *Room) Spin(delta float64) {
	r.angle = math.Mod(r.angle+delta, 2*math.Pi)
	if r.angle < 0 {
		r.angle += 2 * math.Pi
	}
	r.applySpin()
}

// ResetSpin puts the room back to its unrotated orientation
func (r *Room) ResetSpin() {
	r.angle = 0
	r.applySpin()
}

func (r *Room) Angle() float64 {
	return r.angle
}

func (r *Room) applySpin() {
	center := r.dimensions.Center()
	spin := mgl64.QuatRotate(r.angle, mgl64.Vec3{0, 0, 1})
	if len(r.walls) != len(r.placements) {
		return
	}

	for i, wall := range r.walls {
		if wall == nil {
			continue
		}
		placement := r.placements[i]
		wall.SetPosition(center.Add(spin.Rotate(placement.Position.Sub(center))))
		wall.SetRotation(spin.Mul(placement.Rotation))
	}
}
