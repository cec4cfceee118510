package constraint

import (
	"math"

	"github.com/akmonengine/helium/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactPoint stores where each body touches, in the body's own frame, so that
// the penetration can be measured again after every relaxation pass
type ContactPoint struct {
	LocalA      mgl64.Vec3
	LocalB      mgl64.Vec3
	Position    mgl64.Vec3 // World midpoint at detection
	Penetration float64    // Depth at detection
}

// NewContactPoint builds a point from the world surface points of A and B
func NewContactPoint(bodyA, bodyB *actor.RigidBody, onA, onB mgl64.Vec3, normal mgl64.Vec3) ContactPoint {
	return ContactPoint{
		LocalA:      bodyA.PointToLocal(onA),
		LocalB:      bodyB.PointToLocal(onB),
		Position:    onA.Add(onB).Mul(0.5),
		Penetration: onA.Sub(onB).Dot(normal),
	}
}

// ContactConstraint is a transient constraint, valid for a single substep.
// Normal points from BodyA toward BodyB.
type ContactConstraint struct {
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
	Points []ContactPoint
	Normal mgl64.Vec3

	Friction    float64
	Restitution float64
}

// SolvePosition resolves penetration (XPBD, no lambda accumulation)
func (c *ContactConstraint) SolvePosition(dt float64) {
	bodyA := c.BodyA
	bodyB := c.BodyB

	alphaTilde := DefaultCompliance / (dt * dt)

	for _, point := range c.Points {
		// ========== 1. Current penetration ==========
		onA := bodyA.PointToWorld(point.LocalA)
		onB := bodyB.PointToWorld(point.LocalB)
		penetration := onA.Sub(onB).Dot(c.Normal)
		if penetration <= 1e-8 {
			continue
		}

		rA := onA.Sub(bodyA.Transform.Position)
		rB := onB.Sub(bodyB.Transform.Position)

		// ========== 2. Effective weight ==========
		totalWeight := generalizedInverseMass(bodyA, rA, c.Normal) + generalizedInverseMass(bodyB, rB, c.Normal)
		if totalWeight <= 1e-8 {
			continue
		}

		// ========== 3. Push apart along the normal ==========
		deltaLambda := penetration / (totalWeight + alphaTilde)
		impulse := c.Normal.Mul(deltaLambda)

		applyPositionalCorrection(bodyA, impulse.Mul(-1), rA)
		applyPositionalCorrection(bodyB, impulse, rB)
	}
}

// SolveVelocity applies restitution and Coulomb friction
func (c *ContactConstraint) SolveVelocity(dt float64) {
	if len(c.Points) == 0 {
		return
	}

	bodyA := c.BodyA
	bodyB := c.BodyB

	invMassA := bodyA.InverseMass()
	invMassB := bodyB.InverseMass()
	IA_inv := bodyA.GetInverseInertiaWorld()
	IB_inv := bodyB.GetInverseInertiaWorld()

	// ========== ACCUMULATE all impulses ==========
	var totalLinearImpulseA mgl64.Vec3
	var totalLinearImpulseB mgl64.Vec3
	var totalAngularImpulseA mgl64.Vec3
	var totalAngularImpulseB mgl64.Vec3

	for _, point := range c.Points {
		rA := bodyA.PointToWorld(point.LocalA).Sub(bodyA.Transform.Position)
		rB := bodyB.PointToWorld(point.LocalB).Sub(bodyB.Transform.Position)

		// ========== Velocities ==========
		vA := bodyA.Velocity.Add(bodyA.AngularVelocity.Cross(rA))
		vB := bodyB.Velocity.Add(bodyB.AngularVelocity.Cross(rB))
		relativeVel := vB.Sub(vA)
		normalVel := relativeVel.Dot(c.Normal)

		// ========== Pre-resolution velocity ==========
		vAPrev := bodyA.PresolveVelocity.Add(bodyA.PresolveAngularVelocity.Cross(rA))
		vBPrev := bodyB.PresolveVelocity.Add(bodyB.PresolveAngularVelocity.Cross(rB))
		normalVelPrev := vBPrev.Sub(vAPrev).Dot(c.Normal)

		// ========== NORMAL IMPULSE (restitution) ==========
		effectiveMassNormal := generalizedInverseMass(bodyA, rA, c.Normal) + generalizedInverseMass(bodyB, rB, c.Normal)
		if effectiveMassNormal < 1e-10 {
			continue
		}

		targetVel := 0.0
		if normalVelPrev < 0 {
			targetVel = -c.Restitution * normalVelPrev
		}
		lambdaNormal := (targetVel - normalVel) / effectiveMassNormal

		// Never pull the bodies together
		if lambdaNormal < 0 {
			lambdaNormal = 0
		}

		normalImpulse := c.Normal.Mul(lambdaNormal)

		totalLinearImpulseA = totalLinearImpulseA.Sub(normalImpulse.Mul(invMassA))
		totalLinearImpulseB = totalLinearImpulseB.Add(normalImpulse.Mul(invMassB))
		totalAngularImpulseA = totalAngularImpulseA.Add(IA_inv.Mul3x1(rA.Cross(normalImpulse.Mul(-1))))
		totalAngularImpulseB = totalAngularImpulseB.Add(IB_inv.Mul3x1(rB.Cross(normalImpulse)))

		// ========== TANGENTIAL IMPULSE (friction) ==========
		if lambdaNormal <= 0 || c.Friction <= 0 {
			continue
		}

		tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))
		tangentSpeed := tangentVel.Len()
		if tangentSpeed <= 1e-6 {
			continue
		}
		tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

		effectiveMassTangent := generalizedInverseMass(bodyA, rA, tangentDir) + generalizedInverseMass(bodyB, rB, tangentDir)
		if effectiveMassTangent < 1e-10 {
			continue
		}

		// Coulomb's law: |F_friction| ≤ μ * |F_normal|
		lambdaTangent := math.Min(tangentSpeed/effectiveMassTangent, c.Friction*lambdaNormal)
		frictionImpulse := tangentDir.Mul(-lambdaTangent)

		totalLinearImpulseA = totalLinearImpulseA.Sub(frictionImpulse.Mul(invMassA))
		totalLinearImpulseB = totalLinearImpulseB.Add(frictionImpulse.Mul(invMassB))
		totalAngularImpulseA = totalAngularImpulseA.Add(IA_inv.Mul3x1(rA.Cross(frictionImpulse.Mul(-1))))
		totalAngularImpulseB = totalAngularImpulseB.Add(IB_inv.Mul3x1(rB.Cross(frictionImpulse)))
	}

	// ========== APPLY all impulses ==========
	if !bodyA.IsStatic() {
		bodyA.Velocity = bodyA.Velocity.Add(totalLinearImpulseA)
		bodyA.AngularVelocity = bodyA.AngularVelocity.Add(totalAngularImpulseA)
		clampSmallVelocities(bodyA)
	}
	if !bodyB.IsStatic() {
		bodyB.Velocity = bodyB.Velocity.Add(totalLinearImpulseB)
		bodyB.AngularVelocity = bodyB.AngularVelocity.Add(totalAngularImpulseB)
		clampSmallVelocities(bodyB)
	}
}
