// Package balloon builds the balloons, their strings and the joints tying them
// together, and manages their lifecycle in a helium world.
package balloon

import (
	"github.com/akmonengine/helium/actor"
	"github.com/akmonengine/helium/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Handle is the opaque presentation object attached to a balloon
type Handle any

// Visuals creates and releases the presentation of balloons
type Visuals interface {
	Attach(b *Balloon) Handle
	Detach(handle Handle)
}

// Balloon owns an envelope body, the links of its string and every joint it
// created. A group joint is owned by the newer balloon of the pair.
type Balloon struct {
	ID uint64

	Envelope     *actor.RigidBody
	Links        []*actor.RigidBody
	StringJoints []*constraint.PointToPoint

	// Linkage is the mode of Link, LinkageNone when there is no link
	Linkage LinkageMode
	Link    *constraint.PointToPoint

	Visual Handle

	// segment is the rest length between two links
	segment float64
	// peer is the balloon a group link points to
	peer *Balloon
	// groundAnchor is the world anchor of a ground link, kept while detached
	groundAnchor mgl64.Vec3
}

func (b *Balloon) Position() mgl64.Vec3 {
	return b.Envelope.Transform.Position
}

func (b *Balloon) Rotation() mgl64.Quat {
	return b.Envelope.Transform.Rotation
}

// Center is the world centre of the envelope sphere
func (b *Balloon) Center() mgl64.Vec3 {
	return b.Envelope.PointToWorld(EnvelopeCenter)
}

// StringPositions returns the world position of every link, top to bottom
func (b *Balloon) StringPositions() []mgl64.Vec3 {
	positions := make([]mgl64.Vec3, len(b.Links))
	for i, link := range b.Links {
		positions[i] = link.Transform.Position
	}

	return positions
}

// SegmentLength is the rest distance between two consecutive links
func (b *Balloon) SegmentLength() float64 {
	return b.segment
}

// Peer is the balloon a group link points to, nil otherwise
func (b *Balloon) Peer() *Balloon {
	return b.peer
}

func (b *Balloon) HasString() bool {
	return len(b.Links) > 0
}

// LastLink is the free end of the string, nil without string
func (b *Balloon) LastLink() *actor.RigidBody {
	if len(b.Links) == 0 {
		return nil
	}

	return b.Links[len(b.Links)-1]
}

// Bodies returns the envelope followed by the links
func (b *Balloon) Bodies() []*actor.RigidBody {
	bodies := make([]*actor.RigidBody, 0, 1+len(b.Links))
	if b.Envelope != nil {
		bodies = append(bodies, b.Envelope)
	}

	return append(bodies, b.Links...)
}

// Constraints returns every joint owned by the balloon
func (b *Balloon) Constraints() []constraint.Joint {
	joints := make([]constraint.Joint, 0, len(b.StringJoints)+1)
	for _, joint := range b.StringJoints {
		joints = append(joints, joint)
	}
	if b.Link != nil {
		joints = append(joints, b.Link)
	}

	return joints
}

// ApplyBuoyancy accumulates the upward force on the envelope. The force is
// applied at offset in the envelope frame, so a tilted balloon rights itself.
// With local set, the force itself rotates with the envelope.
func (b *Balloon) ApplyBuoyancy(magnitude float64, offset mgl64.Vec3, local bool) {
	up := mgl64.Vec3{0, magnitude, 0}
	if local {
		b.Envelope.ApplyLocalForce(up, offset)
		return
	}

	b.Envelope.ApplyForce(up, b.Envelope.PointToWorld(offset))
}

// ApplyImpulse pushes the envelope at a world point
func (b *Balloon) ApplyImpulse(impulse, worldPoint mgl64.Vec3) {
	b.Envelope.ApplyImpulse(impulse, worldPoint)
}

func newEnvelope(position mgl64.Vec3, opts Options) *actor.RigidBody {
	body := actor.NewRigidBody(actor.NewTransformAt(position, mgl64.QuatIdent()), opts.Mass)
	body.Material = opts.Material
	body.LinearDamping = opts.LinearDamping
	body.AngularDamping = opts.AngularDamping
	body.CollisionGroup = EnvelopeCollisionGroup
	body.CollisionMask = EnvelopeCollisionMask

	body.AddShape(&actor.Sphere{Radius: EnvelopeRadius}, EnvelopeCenter, mgl64.QuatIdent())
	body.AddShape(&actor.Cylinder{
		RadiusTop:    ConeRadiusTop,
		RadiusBottom: ConeRadiusBottom,
		Height:       ConeHeight,
	}, mgl64.Vec3{0, coneCenterHeight, 0}, mgl64.QuatIdent())

	return body
}
