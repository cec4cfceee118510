package helium

import (
	"github.com/akmonengine/helium/actor"
	"github.com/akmonengine/helium/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// shapeInstance is an attached shape placed in world space
type shapeInstance struct {
	body      *actor.RigidBody
	shape     actor.Shape
	transform actor.Transform
}

// collider tests two shapes. It returns the normal from a to b and the deepest
// point of each shape inside the other, in world space.
type collider func(a, b shapeInstance) (normal, onA, onB mgl64.Vec3, ok bool)

type shapePair [2]actor.ShapeType

// narrowTable lists the supported shape pairs, in one order. Pairs missing from
// the table (cylinder against sphere or cylinder) never produce contacts.
var narrowTable = map[shapePair]collider{
	{actor.ShapeTypeSphere, actor.ShapeTypeSphere}:   collideSpheres,
	{actor.ShapeTypeSphere, actor.ShapeTypeParticle}: collideSpheres,
	{actor.ShapeTypePlane, actor.ShapeTypeSphere}:    collidePlane,
	{actor.ShapeTypePlane, actor.ShapeTypeCylinder}:  collidePlane,
	{actor.ShapeTypePlane, actor.ShapeTypeParticle}:  collidePlane,
}

// BroadPhase returns the pairs of bodies that might be colliding.
// Finite bodies go through the spatial grid, unbounded (plane) bodies are
// paired with every finite body passing the collision filter.
func BroadPhase(spatialGrid *SpatialGrid, bodies []*actor.RigidBody) []Pair {
	finite := make([]*actor.RigidBody, 0, len(bodies))
	var unbounded []*actor.RigidBody
	for _, body := range bodies {
		if body.IsUnbounded() {
			unbounded = append(unbounded, body)
		} else {
			finite = append(finite, body)
		}
	}

	spatialGrid.Clear()
	for i, body := range finite {
		spatialGrid.Insert(i, body)
	}
	spatialGrid.SortCells()

	pairs := spatialGrid.FindPairs(finite)
	for _, plane := range unbounded {
		for _, body := range finite {
			if shouldCollide(plane, body) {
				pairs = append(pairs, Pair{BodyA: plane, BodyB: body})
			}
		}
	}

	return pairs
}

// NarrowPhase builds one contact constraint per colliding pair of shapes
func NarrowPhase(pairs []Pair, materials *MaterialTable) []*constraint.ContactConstraint {
	contacts := make([]*constraint.ContactConstraint, 0, len(pairs))

	for _, pair := range pairs {
		cm := materials.Lookup(pair.BodyA.Material, pair.BodyB.Material)

		for _, attachedA := range pair.BodyA.Shapes {
			a := shapeInstance{pair.BodyA, attachedA.Shape, attachedA.WorldTransform(pair.BodyA.Transform)}

			for _, attachedB := range pair.BodyB.Shapes {
				b := shapeInstance{pair.BodyB, attachedB.Shape, attachedB.WorldTransform(pair.BodyB.Transform)}

				normal, onA, onB, ok := collideShapes(a, b)
				if !ok {
					continue
				}

				contacts = append(contacts, &constraint.ContactConstraint{
					BodyA:       pair.BodyA,
					BodyB:       pair.BodyB,
					Normal:      normal,
					Points:      []constraint.ContactPoint{constraint.NewContactPoint(pair.BodyA, pair.BodyB, onA, onB, normal)},
					Friction:    cm.Friction,
					Restitution: cm.Restitution,
				})
			}
		}
	}

	return contacts
}

// collideShapes dispatches to the table, swapping the shapes when needed
func collideShapes(a, b shapeInstance) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3, bool) {
	if fn, ok := narrowTable[shapePair{a.shape.Type(), b.shape.Type()}]; ok {
		return fn(a, b)
	}
	if fn, ok := narrowTable[shapePair{b.shape.Type(), a.shape.Type()}]; ok {
		normal, onB, onA, hit := fn(b, a)
		return normal.Mul(-1), onA, onB, hit
	}

	return mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}, false
}

func radiusOf(shape actor.Shape) float64 {
	if sphere, ok := shape.(*actor.Sphere); ok {
		return sphere.Radius
	}

	return 0
}

// collideSpheres handles spheres and particles (spheres of radius 0)
func collideSpheres(a, b shapeInstance) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3, bool) {
	radiusA := radiusOf(a.shape)
	radiusB := radiusOf(b.shape)

	delta := b.transform.Position.Sub(a.transform.Position)
	distance := delta.Len()
	if distance >= radiusA+radiusB {
		return mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}, false
	}

	// Concentric shapes: separate them vertically
	normal := mgl64.Vec3{0, 1, 0}
	if distance > 1e-9 {
		normal = delta.Mul(1.0 / distance)
	}

	onA := a.transform.Position.Add(normal.Mul(radiusA))
	onB := b.transform.Position.Sub(normal.Mul(radiusB))

	return normal, onA, onB, true
}

// collidePlane tests the deepest support point of b against the plane a
func collidePlane(a, b shapeInstance) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3, bool) {
	plane := a.shape.(*actor.Plane)
	normal := plane.WorldNormal(a.transform)

	localDirection := b.transform.InverseRotation.Rotate(normal.Mul(-1))
	deepest := b.transform.PointToWorld(b.shape.Support(localDirection))

	signedDistance := deepest.Sub(a.transform.Position).Dot(normal)
	if signedDistance >= 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}, false
	}

	onA := deepest.Sub(normal.Mul(signedDistance))

	return normal, onA, deepest, true
}
