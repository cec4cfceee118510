package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// NewRigidBody Tests
// =============================================================================

func TestNewRigidBody(t *testing.T) {
	tests := []struct {
		name        string
		mass        float64
		wantStatic  bool
		wantInverse float64
	}{
		{"dynamic", 2, false, 0.5},
		{"zero mass is static", 0, true, 0},
		{"negative mass is static", -1, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRigidBody(NewTransform(), tt.mass)

			if rb.IsStatic() != tt.wantStatic {
				t.Errorf("IsStatic() = %v, want %v", rb.IsStatic(), tt.wantStatic)
			}
			if rb.InverseMass() != tt.wantInverse {
				t.Errorf("InverseMass() = %v, want %v", rb.InverseMass(), tt.wantInverse)
			}
			if tt.wantStatic && !math.IsInf(rb.Mass(), 1) {
				t.Errorf("Mass() = %v, want +Inf", rb.Mass())
			}
			if rb.CollisionMask != CollisionGroupAll {
				t.Errorf("CollisionMask = %x, want all groups", rb.CollisionMask)
			}
		})
	}
}

func TestNewParticle(t *testing.T) {
	rb := NewParticle(mgl64.Vec3{1, 2, 3}, 0.0002)

	if len(rb.Shapes) != 1 || rb.Shapes[0].Shape.Type() != ShapeTypeParticle {
		t.Fatalf("Shapes = %v, want a single particle", rb.Shapes)
	}
	if rb.InertiaLocal != (mgl64.Mat3{}) {
		t.Errorf("InertiaLocal = %v, want zero for a point mass", rb.InertiaLocal)
	}
	if rb.GetAABB().Min != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("AABB = %v, want a point at the particle", rb.GetAABB())
	}
}

func TestRigidBody_AddShapeInertia(t *testing.T) {
	rb := NewRigidBody(NewTransform(), 12)
	rb.AddShape(&Sphere{Radius: 0.5}, mgl64.Vec3{}, mgl64.QuatIdent())

	// bounding box of side 1: I = m/12 * (1 + 1) = 2
	for i := 0; i < 3; i++ {
		if got := rb.InertiaLocal.At(i, i); math.Abs(got-2) > 1e-12 {
			t.Errorf("InertiaLocal[%d][%d] = %v, want 2", i, i, got)
		}
	}
	if got := rb.InverseInertiaLocal.At(0, 0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("InverseInertiaLocal[0][0] = %v, want 0.5", got)
	}
}

func TestRigidBody_CompoundInertia(t *testing.T) {
	tests := []struct {
		name  string
		build func(rb *RigidBody)
		want  mgl64.Vec3
	}{
		{
			// half extents (0.5, 1, 0.5) turned to (1, 0.5, 0.5)
			name: "cylinder lying along X",
			build: func(rb *RigidBody) {
				rb.AddShape(&Cylinder{RadiusTop: 0.5, RadiusBottom: 0.5, Height: 2}, mgl64.Vec3{}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
			},
			want: mgl64.Vec3{2, 5, 5},
		},
		{
			// box of size (1, 2, 1)
			name: "stacked spheres",
			build: func(rb *RigidBody) {
				rb.AddShape(&Sphere{Radius: 0.5}, mgl64.Vec3{}, mgl64.QuatIdent())
				rb.AddShape(&Sphere{Radius: 0.5}, mgl64.Vec3{0, 1, 0}, mgl64.QuatIdent())
			},
			want: mgl64.Vec3{5, 2, 5},
		},
		{
			name: "planes and particles are ignored",
			build: func(rb *RigidBody) {
				rb.AddShape(&Sphere{Radius: 0.5}, mgl64.Vec3{}, mgl64.QuatIdent())
				rb.AddShape(&Particle{}, mgl64.Vec3{5, 0, 0}, mgl64.QuatIdent())
			},
			want: mgl64.Vec3{2, 2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRigidBody(NewTransform(), 12)
			tt.build(rb)

			for i := 0; i < 3; i++ {
				if got := rb.InertiaLocal.At(i, i); math.Abs(got-tt.want[i]) > 1e-9 {
					t.Errorf("InertiaLocal[%d][%d] = %v, want %v", i, i, got, tt.want[i])
				}
			}
		})
	}
}

func TestRigidBody_SetSphericalInertia(t *testing.T) {
	rb := NewParticle(mgl64.Vec3{}, 2)
	rb.SetSphericalInertia(0.5)

	// 2/5 * m * r² = 0.2
	if got := rb.InertiaLocal.At(1, 1); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("InertiaLocal[1][1] = %v, want 0.2", got)
	}
	if got := rb.InverseInertiaLocal.At(2, 2); math.Abs(got-5) > 1e-9 {
		t.Errorf("InverseInertiaLocal[2][2] = %v, want 5", got)
	}

	static := NewRigidBody(NewTransform(), 0)
	static.SetSphericalInertia(1)
	if static.InverseInertiaLocal != (mgl64.Mat3{}) {
		t.Error("static bodies must keep a zero inverse inertia")
	}

	unchanged := NewParticle(mgl64.Vec3{}, 1)
	unchanged.SetSphericalInertia(0)
	if unchanged.InertiaLocal != (mgl64.Mat3{}) {
		t.Error("a zero radius must leave the inertia untouched")
	}
}

// =============================================================================
// Collision filter Tests
// =============================================================================

func TestRigidBody_CanCollide(t *testing.T) {
	const (
		room     uint32 = 1 << 0
		envelope uint32 = 1 << 1
		str      uint32 = 1 << 2
	)
	body := func(group, mask uint32) *RigidBody {
		rb := NewRigidBody(NewTransform(), 1)
		rb.CollisionGroup = group
		rb.CollisionMask = mask
		return rb
	}

	tests := []struct {
		name string
		a, b *RigidBody
		want bool
	}{
		{"wall and envelope", body(room, CollisionGroupAll), body(envelope, room|envelope), true},
		{"envelope and envelope", body(envelope, room|envelope), body(envelope, room|envelope), true},
		{"wall and string", body(room, CollisionGroupAll), body(str, room), true},
		{"string and envelope", body(str, room), body(envelope, room|envelope), false},
		{"string and string", body(str, room), body(str, room), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.CanCollide(tt.b); got != tt.want {
				t.Errorf("CanCollide() = %v, want %v", got, tt.want)
			}
			if got := tt.b.CanCollide(tt.a); got != tt.want {
				t.Errorf("reversed CanCollide() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Integration Tests
// =============================================================================

func TestRigidBody_IntegrateGravity(t *testing.T) {
	rb := NewRigidBody(NewTransform(), 1)
	gravity := mgl64.Vec3{0, -0.5, 0}
	dt := 0.1

	rb.Integrate(dt, gravity)

	if want := (mgl64.Vec3{0, -0.05, 0}); !vecAlmostEqual(rb.Velocity, want, 1e-12) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity, want)
	}
	if want := (mgl64.Vec3{0, -0.005, 0}); !vecAlmostEqual(rb.Transform.Position, want, 1e-12) {
		t.Errorf("Position = %v, want %v", rb.Transform.Position, want)
	}
	if rb.PreviousTransform.Position != (mgl64.Vec3{}) {
		t.Errorf("PreviousTransform = %v, want the position before the step", rb.PreviousTransform.Position)
	}
}

func TestRigidBody_IntegrateStatic(t *testing.T) {
	rb := NewRigidBody(NewTransform(), 0)
	rb.Integrate(0.1, mgl64.Vec3{0, -10, 0})

	if rb.Transform.Position != (mgl64.Vec3{}) || rb.Velocity != (mgl64.Vec3{}) {
		t.Error("static bodies must not move")
	}
}

func TestRigidBody_IntegrateForce(t *testing.T) {
	rb := NewRigidBody(NewTransform(), 0.01)
	rb.ApplyForce(mgl64.Vec3{0, 0.02, 0}, rb.Transform.Position)
	rb.Integrate(0.1, mgl64.Vec3{0, -0.5, 0})

	// buoyancy 0.02 on 0.01kg is 2 m/s², net 1.5 m/s² upwards
	if want := (mgl64.Vec3{0, 0.15, 0}); !vecAlmostEqual(rb.Velocity, want, 1e-12) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity, want)
	}
}

func TestRigidBody_Update(t *testing.T) {
	rb := NewRigidBody(NewTransform(), 1)
	rb.Integrate(0.5, mgl64.Vec3{})
	rb.Transform.Position = mgl64.Vec3{1, 0, 0}
	rb.Update(0.5)

	if want := (mgl64.Vec3{2, 0, 0}); !vecAlmostEqual(rb.Velocity, want, 1e-12) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity, want)
	}
	if rb.AngularVelocity.Len() > 1e-12 {
		t.Errorf("AngularVelocity = %v, want zero", rb.AngularVelocity)
	}
}

// =============================================================================
// Forces and impulses Tests
// =============================================================================

func TestRigidBody_ApplyForceTorque(t *testing.T) {
	rb := NewRigidBody(NewTransform(), 1)
	rb.ApplyForce(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0})

	if want := (mgl64.Vec3{0, 1, 0}); rb.Force() != want {
		t.Errorf("Force() = %v, want %v", rb.Force(), want)
	}
	// r × F = (1,0,0) × (0,1,0)
	if want := (mgl64.Vec3{0, 0, 1}); rb.Torque() != want {
		t.Errorf("Torque() = %v, want %v", rb.Torque(), want)
	}

	rb.ClearForces()
	if rb.Force() != (mgl64.Vec3{}) || rb.Torque() != (mgl64.Vec3{}) {
		t.Error("ClearForces() should reset force and torque")
	}
}

func TestRigidBody_ApplyLocalForce(t *testing.T) {
	rb := NewRigidBody(NewTransformAt(mgl64.Vec3{}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})), 1)
	rb.ApplyLocalForce(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})

	if !vecAlmostEqual(rb.Force(), mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("Force() = %v, want (0, 1, 0)", rb.Force())
	}
}

func TestRigidBody_ApplyImpulse(t *testing.T) {
	rb := NewRigidBody(NewTransform(), 2)
	rb.AddShape(&Sphere{Radius: 0.5}, mgl64.Vec3{}, mgl64.QuatIdent())
	rb.ApplyImpulse(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})

	if want := (mgl64.Vec3{0.5, 0, 0}); !vecAlmostEqual(rb.Velocity, want, 1e-12) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity, want)
	}
	if rb.AngularVelocity.Len() > 1e-12 {
		t.Errorf("an impulse at the centre should not spin the body, got %v", rb.AngularVelocity)
	}

	rb.ApplyImpulse(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})
	if rb.AngularVelocity.Z() >= 0 {
		t.Errorf("an impulse above the centre along +X should spin about -Z, got %v", rb.AngularVelocity)
	}

	static := NewRigidBody(NewTransform(), 0)
	static.ApplyImpulse(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})
	if static.Velocity != (mgl64.Vec3{}) {
		t.Error("static bodies must ignore impulses")
	}
}

func TestRigidBody_SetPositionKeepsVelocity(t *testing.T) {
	rb := NewParticle(mgl64.Vec3{}, 1)
	rb.SetPosition(mgl64.Vec3{3, 0, 0})
	rb.Update(0.1)

	if rb.Velocity != (mgl64.Vec3{}) {
		t.Errorf("teleporting should not introduce velocity, got %v", rb.Velocity)
	}
	if rb.GetAABB().Min != (mgl64.Vec3{3, 0, 0}) {
		t.Errorf("AABB = %v, want refreshed at the new position", rb.GetAABB())
	}
}

func TestRigidBody_IsFinite(t *testing.T) {
	rb := NewRigidBody(NewTransform(), 1)
	if !rb.IsFinite() {
		t.Fatal("a new body should be finite")
	}

	rb.Velocity = mgl64.Vec3{math.NaN(), 0, 0}
	if rb.IsFinite() {
		t.Error("a NaN velocity should not be finite")
	}

	rb.Velocity = mgl64.Vec3{}
	rb.Transform.Position = mgl64.Vec3{0, math.Inf(-1), 0}
	if rb.IsFinite() {
		t.Error("an infinite position should not be finite")
	}
}

func TestRigidBody_IsUnbounded(t *testing.T) {
	wall := NewRigidBody(NewTransform(), 0)
	wall.AddShape(&Plane{Normal: mgl64.Vec3{0, 0, 1}}, mgl64.Vec3{}, mgl64.QuatIdent())
	if !wall.IsUnbounded() {
		t.Error("a plane body should be unbounded")
	}

	ball := NewRigidBody(NewTransform(), 1)
	ball.AddShape(&Sphere{Radius: 1}, mgl64.Vec3{}, mgl64.QuatIdent())
	if ball.IsUnbounded() {
		t.Error("a sphere body should be bounded")
	}
}

func TestMaterial_String(t *testing.T) {
	var missing *Material
	if got := missing.String(); got != "<default>" {
		t.Errorf("nil String() = %q, want <default>", got)
	}
	if got := NewMaterial("balloon").String(); got != "balloon" {
		t.Errorf("String() = %q, want balloon", got)
	}
}
