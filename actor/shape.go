package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeCylinder
	ShapeTypePlane
	ShapeTypeParticle
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypeCylinder:
		return "cylinder"
	case ShapeTypePlane:
		return "plane"
	case ShapeTypeParticle:
		return "particle"
	}

	return "unknown"
}

// planeExtent stands in for infinity in plane bounds, so that AABB arithmetic stays finite
const planeExtent = 1e10

// Shape is the interface that all collision shapes must implement.
// Shapes are described in their own local frame; a body places them with an
// AttachedShape offset and orientation.
type Shape interface {
	Type() ShapeType
	// ComputeAABB calculates the world bounds of the shape placed at transform
	ComputeAABB(transform Transform) AABB
	// HalfExtents returns the half size of the local bounding box
	HalfExtents() mgl64.Vec3
	// Support returns the furthest local point in the given local direction
	Support(direction mgl64.Vec3) mgl64.Vec3
}

// AttachedShape is a shape placed on a body, relative to the body origin
type AttachedShape struct {
	Shape       Shape
	Offset      mgl64.Vec3
	Orientation mgl64.Quat
}

// WorldTransform returns the shape transform for a body transform
func (a AttachedShape) WorldTransform(body Transform) Transform {
	return body.Compose(a.Offset, a.Orientation)
}

// supportAABB builds world bounds from the support point along each world axis
func supportAABB(shape Shape, transform Transform) AABB {
	var min, max mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		var dir mgl64.Vec3
		dir[axis] = 1

		hi := transform.PointToWorld(shape.Support(transform.InverseRotation.Rotate(dir)))
		lo := transform.PointToWorld(shape.Support(transform.InverseRotation.Rotate(dir.Mul(-1))))
		max[axis] = hi[axis]
		min[axis] = lo[axis]
	}

	return AABB{Min: min, Max: max}
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

// ComputeAABB is not affected by rotation, only by position
func (s *Sphere) ComputeAABB(transform Transform) AABB {
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	return AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) HalfExtents() mgl64.Vec3 {
	return mgl64.Vec3{s.Radius, s.Radius, s.Radius}
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.Len() < 1e-12 {
		return mgl64.Vec3{}
	}

	return direction.Normalize().Mul(s.Radius)
}

// Cylinder is a truncated cone along the local Y axis, centered on its origin.
// RadiusTop is the radius of the +Y cap and RadiusBottom the radius of the -Y cap.
type Cylinder struct {
	RadiusTop    float64
	RadiusBottom float64
	Height       float64
}

func (c *Cylinder) Type() ShapeType { return ShapeTypeCylinder }

func (c *Cylinder) ComputeAABB(transform Transform) AABB {
	return supportAABB(c, transform)
}

func (c *Cylinder) HalfExtents() mgl64.Vec3 {
	r := math.Max(c.RadiusTop, c.RadiusBottom)

	return mgl64.Vec3{r, c.Height / 2, r}
}

// Support picks the furthest of the two cap rims
func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	radial := mgl64.Vec3{direction.X(), 0, direction.Z()}
	if radial.Len() > 1e-12 {
		radial = radial.Normalize()
	} else {
		radial = mgl64.Vec3{}
	}

	top := mgl64.Vec3{0, c.Height / 2, 0}.Add(radial.Mul(c.RadiusTop))
	bottom := mgl64.Vec3{0, -c.Height / 2, 0}.Add(radial.Mul(c.RadiusBottom))

	if top.Dot(direction) >= bottom.Dot(direction) {
		return top
	}

	return bottom
}

// Plane represents an infinite plane collision shape passing through the
// local origin. Normal is expressed in the local frame and must be normalized.
type Plane struct {
	Normal mgl64.Vec3
}

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

// ComputeAABB extends the bounds to infinity in directions perpendicular to the normal
func (p *Plane) ComputeAABB(transform Transform) AABB {
	const thickness = 1.0

	normal := transform.VectorToWorld(p.Normal)
	min := transform.Position.Sub(normal.Mul(thickness))
	max := transform.Position
	for axis := 0; axis < 3; axis++ {
		if math.Abs(normal[axis]) < 1.0-1e-9 {
			min[axis] = -planeExtent
			max[axis] = planeExtent
		} else if min[axis] > max[axis] {
			min[axis], max[axis] = max[axis], min[axis]
		}
	}

	return AABB{Min: min, Max: max}
}

func (p *Plane) HalfExtents() mgl64.Vec3 {
	return mgl64.Vec3{}
}

// Support of a half space: any point of the plane when the direction points
// outwards, the far end of the solid side otherwise
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.Dot(p.Normal) >= 0 {
		return mgl64.Vec3{}
	}

	return p.Normal.Mul(-planeExtent)
}

// WorldNormal returns the plane normal for a shape transform
func (p *Plane) WorldNormal(transform Transform) mgl64.Vec3 {
	return transform.VectorToWorld(p.Normal).Normalize()
}

// Particle is a zero-volume point shape
type Particle struct{}

func (p *Particle) Type() ShapeType { return ShapeTypeParticle }

func (p *Particle) ComputeAABB(transform Transform) AABB {
	return AABB{Min: transform.Position, Max: transform.Position}
}

func (p *Particle) HalfExtents() mgl64.Vec3 {
	return mgl64.Vec3{}
}

func (p *Particle) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{}
}

