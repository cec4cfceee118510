package helium

import (
	"math"
	"testing"

	"github.com/akmonengine/helium/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func hasPair(pairs []Pair, a, b *actor.RigidBody) bool {
	for _, pair := range pairs {
		if (pair.BodyA == a && pair.BodyB == b) || (pair.BodyA == b && pair.BodyB == a) {
			return true
		}
	}
	return false
}

// =============================================================================
// BroadPhase Tests
// =============================================================================

func TestBroadPhase(t *testing.T) {
	ground := createGround(-1)
	ceiling := createGround(1)
	near := createSphere(mgl64.Vec3{0, 0, 0}, 0.5, 1)
	overlapping := createSphere(mgl64.Vec3{0.8, 0, 0}, 0.5, 1)
	far := createSphere(mgl64.Vec3{5, 0, 0}, 0.5, 1)

	pairs := BroadPhase(NewSpatialGrid(1, 64), []*actor.RigidBody{ground, ceiling, near, overlapping, far})

	tests := []struct {
		name string
		a, b *actor.RigidBody
		want bool
	}{
		{"overlapping spheres", near, overlapping, true},
		{"distant spheres", near, far, false},
		{"plane pairs with every finite body", ground, far, true},
		{"second plane too", ceiling, near, true},
		{"static planes never pair", ground, ceiling, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasPair(pairs, tt.a, tt.b); got != tt.want {
				t.Errorf("pair found = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBroadPhase_CollisionFilter(t *testing.T) {
	const (
		room     uint32 = 1 << 0
		envelope uint32 = 1 << 1
		str      uint32 = 1 << 2
	)
	ground := createGround(-1)
	ground.CollisionGroup = room

	balloon := createSphere(mgl64.Vec3{}, 0.5, 1)
	balloon.CollisionGroup = envelope
	balloon.CollisionMask = room | envelope

	link := actor.NewParticle(mgl64.Vec3{0, 0.1, 0}, 0.001)
	link.CollisionGroup = str
	link.CollisionMask = room

	pairs := BroadPhase(NewSpatialGrid(1, 64), []*actor.RigidBody{ground, balloon, link})

	if hasPair(pairs, balloon, link) {
		t.Error("a string link must not collide with an envelope")
	}
	if !hasPair(pairs, ground, link) {
		t.Error("a string link must collide with the room")
	}
	if !hasPair(pairs, ground, balloon) {
		t.Error("an envelope must collide with the room")
	}
}

// =============================================================================
// NarrowPhase Tests
// =============================================================================

func TestNarrowPhase_Spheres(t *testing.T) {
	a := createSphere(mgl64.Vec3{0, 0, 0}, 0.5, 1)
	b := createSphere(mgl64.Vec3{0.8, 0, 0}, 0.5, 1)

	contacts := NarrowPhase([]Pair{{BodyA: a, BodyB: b}}, NewMaterialTable())
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}

	contact := contacts[0]
	if !vec3Near(contact.Normal, mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Normal = %v, want (1, 0, 0)", contact.Normal)
	}
	if got := contact.Points[0].Penetration; math.Abs(got-0.2) > 1e-9 {
		t.Errorf("Penetration = %v, want 0.2", got)
	}
}

func TestNarrowPhase_Separated(t *testing.T) {
	a := createSphere(mgl64.Vec3{0, 0, 0}, 0.5, 1)
	b := createSphere(mgl64.Vec3{1.5, 0, 0}, 0.5, 1)
	ground := createGround(-2)

	contacts := NarrowPhase([]Pair{{BodyA: a, BodyB: b}, {BodyA: ground, BodyB: a}}, NewMaterialTable())
	if len(contacts) != 0 {
		t.Errorf("contacts = %d, want 0", len(contacts))
	}
}

func TestNarrowPhase_PlaneOrder(t *testing.T) {
	ground := createGround(0)
	ball := createSphere(mgl64.Vec3{0, 0.4, 0}, 0.5, 1)

	tests := []struct {
		name       string
		pair       Pair
		wantNormal mgl64.Vec3
	}{
		{"plane first", Pair{BodyA: ground, BodyB: ball}, mgl64.Vec3{0, 1, 0}},
		{"sphere first", Pair{BodyA: ball, BodyB: ground}, mgl64.Vec3{0, -1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts := NarrowPhase([]Pair{tt.pair}, NewMaterialTable())
			if len(contacts) != 1 {
				t.Fatalf("contacts = %d, want 1", len(contacts))
			}
			if !vec3Near(contacts[0].Normal, tt.wantNormal) {
				t.Errorf("Normal = %v, want %v", contacts[0].Normal, tt.wantNormal)
			}
			if got := contacts[0].Points[0].Penetration; math.Abs(got-0.1) > 1e-9 {
				t.Errorf("Penetration = %v, want 0.1", got)
			}
		})
	}
}

func TestNarrowPhase_ConeOnPlane(t *testing.T) {
	ground := createGround(0)
	// the narrow end of the cone points down and dips 0.05 below the ground
	body := actor.NewRigidBody(actor.NewTransformAt(mgl64.Vec3{0, 0.15, 0}, mgl64.QuatIdent()), 1)
	body.AddShape(&actor.Cylinder{RadiusTop: 0.2, RadiusBottom: 0.01, Height: 0.4}, mgl64.Vec3{}, mgl64.QuatIdent())

	contacts := NarrowPhase([]Pair{{BodyA: ground, BodyB: body}}, NewMaterialTable())
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	if got := contacts[0].Points[0].Penetration; math.Abs(got-0.05) > 1e-9 {
		t.Errorf("Penetration = %v, want 0.05", got)
	}
}

func TestNarrowPhase_UnsupportedPair(t *testing.T) {
	ball := createSphere(mgl64.Vec3{}, 0.5, 1)
	cone := actor.NewRigidBody(actor.NewTransform(), 1)
	cone.AddShape(&actor.Cylinder{RadiusTop: 0.2, RadiusBottom: 0.01, Height: 0.4}, mgl64.Vec3{}, mgl64.QuatIdent())

	if contacts := NarrowPhase([]Pair{{BodyA: ball, BodyB: cone}}, NewMaterialTable()); len(contacts) != 0 {
		t.Errorf("contacts = %d, cylinders only collide with planes", len(contacts))
	}
}

func TestNarrowPhase_ParticleOnPlane(t *testing.T) {
	ground := createGround(0)
	link := actor.NewParticle(mgl64.Vec3{0, -0.01, 0}, 0.001)

	contacts := NarrowPhase([]Pair{{BodyA: ground, BodyB: link}}, NewMaterialTable())
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	if !vec3Near(contacts[0].Points[0].Position, mgl64.Vec3{0, -0.005, 0}) {
		t.Errorf("Position = %v, want the midpoint", contacts[0].Points[0].Position)
	}
}

func TestNarrowPhase_Materials(t *testing.T) {
	roomMaterial := actor.NewMaterial("room")
	balloonMaterial := actor.NewMaterial("balloon")
	table := NewMaterialTable()
	_ = table.Add(ContactMaterial{MaterialA: roomMaterial, MaterialB: balloonMaterial, Friction: 0.1, Restitution: 0.8})

	ground := createGround(0)
	ground.Material = roomMaterial
	ball := createSphere(mgl64.Vec3{0, 0.4, 0}, 0.5, 1)
	ball.Material = balloonMaterial
	other := createSphere(mgl64.Vec3{0, 0.4, 0}, 0.5, 1)

	contacts := NarrowPhase([]Pair{{BodyA: ground, BodyB: ball}, {BodyA: ground, BodyB: other}}, table)
	if len(contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(contacts))
	}
	if contacts[0].Friction != 0.1 || contacts[0].Restitution != 0.8 {
		t.Errorf("registered pair = %v/%v, want 0.1/0.8", contacts[0].Friction, contacts[0].Restitution)
	}
	if contacts[1].Friction != DefaultContactMaterial.Friction || contacts[1].Restitution != DefaultContactMaterial.Restitution {
		t.Errorf("unregistered pair = %v/%v, want the default", contacts[1].Friction, contacts[1].Restitution)
	}
}

func TestNarrowPhase_CompoundBody(t *testing.T) {
	ground := createGround(0)
	// sphere above, cone below, like a balloon envelope lying on the floor
	body := actor.NewRigidBody(actor.NewTransformAt(mgl64.Vec3{0, 0.15, 0}, mgl64.QuatIdent()), 1)
	body.AddShape(&actor.Cylinder{RadiusTop: 0.2, RadiusBottom: 0.01, Height: 0.4}, mgl64.Vec3{}, mgl64.QuatIdent())
	body.AddShape(&actor.Sphere{Radius: 0.32}, mgl64.Vec3{0, 0.5, 0}, mgl64.QuatIdent())

	contacts := NarrowPhase([]Pair{{BodyA: ground, BodyB: body}}, NewMaterialTable())
	if len(contacts) != 1 {
		t.Errorf("contacts = %d, only the cone touches the ground", len(contacts))
	}
}

func vec3Near(a, b mgl64.Vec3) bool {
	return a.Sub(b).Len() <= 1e-9
}
