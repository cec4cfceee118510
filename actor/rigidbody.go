package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

// CollisionGroupAll matches every collision group
const CollisionGroupAll uint32 = math.MaxUint32

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// ID is assigned by the world on registration, 0 while unregistered
	ID uint64

	// Spatial properties
	PreviousTransform Transform
	Transform         Transform

	// Linear motion
	PresolveVelocity mgl64.Vec3
	Velocity         mgl64.Vec3 // Linear velocity (m/s)

	// Angular motion
	PresolveAngularVelocity mgl64.Vec3
	AngularVelocity         mgl64.Vec3 // rad/s

	// Inertia in local space. Zero inverse inertia locks rotation (particles, statics).
	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	mass        float64
	inverseMass float64

	LinearDamping  float64 // 0.0 - 1.0, typically 0.01
	AngularDamping float64 // 0.0 - 1.0, typically 0.05

	Material *Material
	BodyType BodyType

	Shapes []AttachedShape

	// A pair collides when each body's group is in the other's mask
	CollisionGroup uint32
	CollisionMask  uint32

	aabb AABB
}

// NewRigidBody creates a new rigid body with the given mass.
// A mass of zero (or less) creates a static body.
func NewRigidBody(transform Transform, mass float64) *RigidBody {
	transform.SetRotation(transform.Rotation)

	rb := &RigidBody{
		PreviousTransform: transform,
		Transform:         transform,
		BodyType:          BodyTypeDynamic,
		CollisionGroup:    1,
		CollisionMask:     CollisionGroupAll,
	}

	if mass <= 0 {
		rb.BodyType = BodyTypeStatic
		rb.mass = math.Inf(1)
	} else {
		rb.mass = mass
		rb.inverseMass = 1.0 / mass
	}
	rb.aabb = AABB{Min: transform.Position, Max: transform.Position}

	return rb
}

// NewParticle creates a point mass carrying a single Particle shape
func NewParticle(position mgl64.Vec3, mass float64) *RigidBody {
	rb := NewRigidBody(Transform{Position: position}, mass)
	rb.AddShape(&Particle{}, mgl64.Vec3{}, mgl64.QuatIdent())

	return rb
}

// AddShape attaches a shape at a local offset and orientation, and updates the inertia
func (rb *RigidBody) AddShape(shape Shape, offset mgl64.Vec3, orientation mgl64.Quat) *RigidBody {
	if orientation.Len() < 1e-12 {
		orientation = mgl64.QuatIdent()
	}
	rb.Shapes = append(rb.Shapes, AttachedShape{
		Shape:       shape,
		Offset:      offset,
		Orientation: orientation.Normalize(),
	})
	rb.updateMassProperties()
	rb.ComputeAABB()

	return rb
}

// updateMassProperties approximates the inertia with the box bounding every finite shape
func (rb *RigidBody) updateMassProperties() {
	if rb.BodyType == BodyTypeStatic {
		rb.InertiaLocal = mgl64.Mat3{}
		rb.InverseInertiaLocal = mgl64.Mat3{}
		return
	}

	bounds := EmptyAABB()
	finite := false
	for _, attached := range rb.Shapes {
		if attached.Shape.Type() == ShapeTypePlane || attached.Shape.Type() == ShapeTypeParticle {
			continue
		}
		extents := rotatedExtents(attached.Orientation, attached.Shape.HalfExtents())
		bounds = bounds.Union(AABB{Min: attached.Offset.Sub(extents), Max: attached.Offset.Add(extents)})
		finite = true
	}

	if !finite {
		rb.InertiaLocal = mgl64.Mat3{}
		rb.InverseInertiaLocal = mgl64.Mat3{}
		return
	}

	halfExtents := bounds.Max.Sub(bounds.Min).Mul(0.5)
	rb.InertiaLocal = boxInertia(halfExtents, rb.mass)
	rb.InverseInertiaLocal = rb.InertiaLocal.Inv()
}

// rotatedExtents returns the half size of the box bounding a box of half size
// extents turned by q: e'_i = Σ_j |R_ij| * e_j
func rotatedExtents(q mgl64.Quat, extents mgl64.Vec3) mgl64.Vec3 {
	r := q.Mat4().Mat3()

	var out mgl64.Vec3
	for i := range 3 {
		for j := range 3 {
			out[i] += math.Abs(r.At(i, j)) * extents[j]
		}
	}

	return out
}

// SetSphericalInertia replaces the inertia with the one of a solid sphere.
// It lets particles rotate around their pivots.
func (rb *RigidBody) SetSphericalInertia(radius float64) {
	if rb.BodyType == BodyTypeStatic || radius <= 0 {
		return
	}

	i := 0.4 * rb.mass * radius * radius
	rb.InertiaLocal = mgl64.Diag3(mgl64.Vec3{i, i, i})
	rb.InverseInertiaLocal = mgl64.Diag3(mgl64.Vec3{1 / i, 1 / i, 1 / i})
}

// boxInertia: I = (m/12) * (dimension1² + dimension2²)
func boxInertia(halfExtents mgl64.Vec3, mass float64) mgl64.Mat3 {
	x := halfExtents.X() * 2
	y := halfExtents.Y() * 2
	z := halfExtents.Z() * 2

	factor := mass / 12.0

	return mgl64.Mat3{
		factor * (y*y + z*z), 0, 0,
		0, factor * (x*x + z*z), 0,
		0, 0, factor * (x*x + y*y),
	}
}

func (rb *RigidBody) Mass() float64 {
	return rb.mass
}

// InverseMass is zero for static bodies
func (rb *RigidBody) InverseMass() float64 {
	return rb.inverseMass
}

func (rb *RigidBody) IsStatic() bool {
	return rb.BodyType == BodyTypeStatic
}

// IsUnbounded reports whether one of the shapes is an infinite plane
func (rb *RigidBody) IsUnbounded() bool {
	for _, attached := range rb.Shapes {
		if attached.Shape.Type() == ShapeTypePlane {
			return true
		}
	}

	return false
}

// CanCollide applies the group/mask filter in both directions
func (rb *RigidBody) CanCollide(other *RigidBody) bool {
	return rb.CollisionGroup&other.CollisionMask != 0 && other.CollisionGroup&rb.CollisionMask != 0
}

// SetPosition teleports the body, without introducing velocity
func (rb *RigidBody) SetPosition(position mgl64.Vec3) {
	rb.Transform.Position = position
	rb.PreviousTransform.Position = position
	rb.ComputeAABB()
}

// SetRotation teleports the body orientation, without introducing angular velocity
func (rb *RigidBody) SetRotation(rotation mgl64.Quat) {
	rb.Transform.SetRotation(rotation)
	rb.PreviousTransform.SetRotation(rotation)
	rb.ComputeAABB()
}

// PointToWorld converts a point from the body frame into world space
func (rb *RigidBody) PointToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.PointToWorld(local)
}

// PointToLocal converts a world point into the body frame
func (rb *RigidBody) PointToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return rb.Transform.PointToLocal(world)
}

// ComputeAABB refreshes the union of the shape bounds
func (rb *RigidBody) ComputeAABB() AABB {
	if len(rb.Shapes) == 0 {
		rb.aabb = AABB{Min: rb.Transform.Position, Max: rb.Transform.Position}
		return rb.aabb
	}

	aabb := EmptyAABB()
	for _, attached := range rb.Shapes {
		aabb = aabb.Union(attached.Shape.ComputeAABB(attached.WorldTransform(rb.Transform)))
	}
	rb.aabb = aabb

	return aabb
}

func (rb *RigidBody) GetAABB() AABB {
	return rb.aabb
}

// Integrate predicts the new position and orientation for a substep of dt
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.PreviousTransform = rb.Transform

	// ========== LINEAR ==========
	acceleration := gravity.Add(rb.accumulatedForce.Mul(rb.inverseMass))
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.LinearDamping * dt))
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// ========== ANGULAR ==========
	angularAccel := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque)
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAccel.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.AngularDamping * dt))

	if rb.AngularVelocity.Len() > 0 {
		omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
		qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
		rb.Transform.SetRotation(rb.Transform.Rotation.Add(qDot.Scale(dt)))
	}

	rb.PresolveVelocity = rb.Velocity
	rb.PresolveAngularVelocity = rb.AngularVelocity

	rb.ComputeAABB()
}

// Update derives the velocities from the solved positions
func (rb *RigidBody) Update(dt float64) {
	if rb.BodyType == BodyTypeStatic || dt <= 0 {
		return
	}

	rb.Velocity = rb.Transform.Position.Sub(rb.PreviousTransform.Position).Mul(1.0 / dt)
	qDelta := rb.Transform.Rotation.Mul(rb.PreviousTransform.Rotation.Conjugate())
	qDelta = qDelta.Normalize()
	if qDelta.W >= 0.0 {
		rb.AngularVelocity = qDelta.V.Mul(2.0 / dt)
	} else {
		rb.AngularVelocity = qDelta.V.Mul(-2.0 / dt)
	}

	rb.ComputeAABB()
}

// ApplyForce accumulates a world force applied at a world point, in N
func (rb *RigidBody) ApplyForce(force mgl64.Vec3, worldPoint mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	r := worldPoint.Sub(rb.Transform.Position)
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
	rb.accumulatedTorque = rb.accumulatedTorque.Add(r.Cross(force))
}

// ApplyLocalForce accumulates a force given in the body frame at a local point
func (rb *RigidBody) ApplyLocalForce(localForce mgl64.Vec3, localPoint mgl64.Vec3) {
	rb.ApplyForce(rb.Transform.VectorToWorld(localForce), rb.PointToWorld(localPoint))
}

// ApplyImpulse changes the velocities immediately, in N⋅s at a world point
func (rb *RigidBody) ApplyImpulse(impulse mgl64.Vec3, worldPoint mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	r := worldPoint.Sub(rb.Transform.Position)
	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.inverseMass))
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.GetInverseInertiaWorld().Mul3x1(r.Cross(impulse)))
}

func (rb *RigidBody) Force() mgl64.Vec3 {
	return rb.accumulatedForce
}

func (rb *RigidBody) Torque() mgl64.Vec3 {
	return rb.accumulatedTorque
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// IsFinite reports whether position, rotation and velocities hold no NaN or Inf
func (rb *RigidBody) IsFinite() bool {
	values := []float64{rb.Transform.Rotation.W}
	for i := 0; i < 3; i++ {
		values = append(values,
			rb.Transform.Position[i],
			rb.Transform.Rotation.V[i],
			rb.Velocity[i],
			rb.AngularVelocity[i],
		)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// GetInverseInertiaWorld returns R * I_local^(-1) * R^T
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType == BodyTypeStatic {
		return mgl64.Mat3{}
	}

	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}
