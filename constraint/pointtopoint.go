package constraint

import (
	"github.com/akmonengine/helium/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// PointToPoint pins a local pivot of BodyA onto a local pivot of BodyB
type PointToPoint struct {
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
	PivotA mgl64.Vec3
	PivotB mgl64.Vec3

	// Compliance of the joint, 0 is perfectly rigid
	Compliance float64
}

func NewPointToPoint(bodyA *actor.RigidBody, pivotA mgl64.Vec3, bodyB *actor.RigidBody, pivotB mgl64.Vec3) *PointToPoint {
	return &PointToPoint{
		BodyA:  bodyA,
		BodyB:  bodyB,
		PivotA: pivotA,
		PivotB: pivotB,
	}
}

func (c *PointToPoint) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return c.BodyA, c.BodyB
}

// WorldPivots returns both pivots in world space
func (c *PointToPoint) WorldPivots() (mgl64.Vec3, mgl64.Vec3) {
	return c.BodyA.PointToWorld(c.PivotA), c.BodyB.PointToWorld(c.PivotB)
}

// Separation is the current distance between the two pivots
func (c *PointToPoint) Separation() float64 {
	pA, pB := c.WorldPivots()
	return pB.Sub(pA).Len()
}

// SolvePosition drives the pivots together (XPBD, no lambda accumulation)
func (c *PointToPoint) SolvePosition(dt float64) {
	pA, pB := c.WorldPivots()
	delta := pB.Sub(pA)
	distance := delta.Len()
	if distance < 1e-9 {
		return
	}
	n := delta.Mul(1.0 / distance)

	rA := c.BodyA.Transform.VectorToWorld(c.PivotA)
	rB := c.BodyB.Transform.VectorToWorld(c.PivotB)

	totalWeight := generalizedInverseMass(c.BodyA, rA, n) + generalizedInverseMass(c.BodyB, rB, n)
	if totalWeight <= 1e-12 {
		return
	}

	alphaTilde := c.Compliance / (dt * dt)
	lambda := distance / (totalWeight + alphaTilde)
	p := n.Mul(lambda)

	// A is pulled toward B, B toward A
	applyPositionalCorrection(c.BodyA, p, rA)
	applyPositionalCorrection(c.BodyB, p.Mul(-1), rB)
}

// SolveVelocity is a no-op: velocities are derived from the solved positions
func (c *PointToPoint) SolveVelocity(dt float64) {}
