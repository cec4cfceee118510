package balloon

import (
	"math"

	"github.com/akmonengine/helium/actor"
	"github.com/akmonengine/helium/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// newString hangs Slices+1 links below the lower anchor of the envelope,
// joined end to end by Slices joints, plus the joint tying the first link to
// the envelope. Each link is a particle spanning one segment, pivoting at its
// ends.
func newString(envelope *actor.RigidBody, opts StringOptions, material *actor.Material) ([]*actor.RigidBody, []*constraint.PointToPoint) {
	segment := opts.SegmentLength()
	top := mgl64.Vec3{0, segment / 2, 0}
	bottom := mgl64.Vec3{0, -segment / 2, 0}
	anchor := envelope.PointToWorld(LowerAnchor)

	links := make([]*actor.RigidBody, 0, opts.Slices+1)
	joints := make([]*constraint.PointToPoint, 0, opts.Slices+1)

	for i := 0; i <= opts.Slices; i++ {
		position := anchor.Sub(mgl64.Vec3{0, segment/2 + float64(i)*segment, 0})

		link := actor.NewParticle(position, opts.ParticleMass)
		link.SetSphericalInertia(segment / 2)
		link.Material = material
		link.LinearDamping = opts.LinearDamping
		link.AngularDamping = opts.LinearDamping
		link.CollisionGroup = StringCollisionGroup
		link.CollisionMask = StringCollisionMask
		links = append(links, link)

		var joint *constraint.PointToPoint
		if i == 0 {
			joint = constraint.NewPointToPoint(envelope, LowerAnchor, link, top)
		} else {
			joint = constraint.NewPointToPoint(links[i-1], bottom, link, top)
		}
		joint.Compliance = opts.Compliance
		joints = append(joints, joint)
	}

	return links, joints
}

// linkEnd is the world point at the free end of the string
func linkEnd(link *actor.RigidBody, segment float64) mgl64.Vec3 {
	return link.PointToWorld(mgl64.Vec3{0, -segment / 2, 0})
}

// floorPoint returns the point of the floor plane directly below p, along the
// world vertical. When the floor is too steep for that, p is projected along the floor normal.
func floorPoint(floor *actor.RigidBody, p mgl64.Vec3) mgl64.Vec3 {
	normal := floorNormal(floor)
	origin := floor.Transform.Position
	height := p.Sub(origin).Dot(normal)

	up := mgl64.Vec3{0, 1, 0}
	if cos := up.Dot(normal); math.Abs(cos) > 0.1 {
		return p.Sub(up.Mul(height / cos))
	}

	return p.Sub(normal.Mul(height))
}

func floorNormal(floor *actor.RigidBody) mgl64.Vec3 {
	for _, attached := range floor.Shapes {
		if plane, ok := attached.Shape.(*actor.Plane); ok {
			return plane.WorldNormal(attached.WorldTransform(floor.Transform))
		}
	}

	return mgl64.Vec3{0, 1, 0}
}

// projectOnFloor moves a point onto the floor plane along its normal
func projectOnFloor(floor *actor.RigidBody, p mgl64.Vec3) mgl64.Vec3 {
	normal := floorNormal(floor)
	height := p.Sub(floor.Transform.Position).Dot(normal)

	return p.Sub(normal.Mul(height))
}

func newGroundJoint(link, floor *actor.RigidBody, anchor mgl64.Vec3, segment, compliance float64) *constraint.PointToPoint {
	joint := constraint.NewPointToPoint(link, mgl64.Vec3{0, -segment / 2, 0}, floor, floor.PointToLocal(anchor))
	joint.Compliance = compliance

	return joint
}

// newGroupJoint ties b to its peer, nil when the mode cannot link the two
func newGroupJoint(b, peer *Balloon, mode LinkageMode, compliance float64) *constraint.PointToPoint {
	var joint *constraint.PointToPoint

	switch mode {
	case LinkageStringGroup:
		if !b.HasString() || !peer.HasString() {
			return nil
		}
		joint = constraint.NewPointToPoint(
			b.LastLink(), mgl64.Vec3{0, -b.segment / 2, 0},
			peer.LastLink(), mgl64.Vec3{0, -peer.segment / 2, 0},
		)
	case LinkageEnvelopeGroup:
		joint = constraint.NewPointToPoint(b.Envelope, LowerAnchor, peer.Envelope, LowerAnchor)
	default:
		return nil
	}
	joint.Compliance = compliance

	return joint
}
