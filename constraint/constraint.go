package constraint

import (
	"github.com/akmonengine/helium/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Compliance (inverse stiffness, m/N) of tether materials, for XPBD constraints.
// Lower values = stiffer.
const (
	TENDON_COMPLIANCE  = 0.2e-7
	LEATHER_COMPLIANCE = 14e-8
	FAT_COMPLIANCE     = 1e-3
)

const (
	// DefaultCompliance controls soft constraint stiffness for contact resolution.
	// Typical range: 1e-10 (very stiff) to 1e-6 (soft)
	DefaultCompliance = 1e-7
)

type Constraint interface {
	SolvePosition(dt float64)
	SolveVelocity(dt float64)
}

// Joint is a constraint that persists across steps until removed from the world
type Joint interface {
	Constraint
	Bodies() (*actor.RigidBody, *actor.RigidBody)
}

// References reports whether the joint is attached to body
func References(joint Joint, body *actor.RigidBody) bool {
	a, b := joint.Bodies()
	return a == body || b == body
}

// generalizedInverseMass is the inverse mass seen along n at lever arm r
func generalizedInverseMass(body *actor.RigidBody, r, n mgl64.Vec3) float64 {
	if body.IsStatic() {
		return 0
	}

	rCrossN := r.Cross(n)
	return body.InverseMass() + body.GetInverseInertiaWorld().Mul3x1(rCrossN).Dot(rCrossN)
}

// applyPositionalCorrection moves a body by the positional impulse p at lever arm r
func applyPositionalCorrection(body *actor.RigidBody, p, r mgl64.Vec3) {
	if body.IsStatic() {
		return
	}

	body.Transform.Position = body.Transform.Position.Add(p.Mul(body.InverseMass()))

	// For a small angle δθ, the rotation quaternion is q_delta ≈ [1, δθ/2]
	deltaRot := body.GetInverseInertiaWorld().Mul3x1(r.Cross(p))
	if deltaRot.Len() > 1e-10 {
		qDelta := mgl64.Quat{W: 1.0, V: deltaRot.Mul(0.5)}.Normalize()
		body.Transform.SetRotation(qDelta.Mul(body.Transform.Rotation))
	}
}

func clampSmallVelocities(rb *actor.RigidBody) {
	const velocityThreshold = 1e-5

	if rb.Velocity.Len() < velocityThreshold {
		rb.Velocity = mgl64.Vec3{0, 0, 0}
	}
	if rb.AngularVelocity.Len() < velocityThreshold {
		rb.AngularVelocity = mgl64.Vec3{0, 0, 0}
	}
}
