package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and an orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at position, rotated by rotation.
// A zero quaternion is treated as the identity.
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	t := Transform{Position: position}
	t.SetRotation(rotation)

	return t
}

// SetRotation normalizes and stores the rotation with its inverse
func (t *Transform) SetRotation(rotation mgl64.Quat) {
	if rotation.Len() < 1e-12 {
		rotation = mgl64.QuatIdent()
	}
	t.Rotation = rotation.Normalize()
	t.InverseRotation = t.Rotation.Inverse()
}

// PointToWorld converts a point from the local frame into world space
func (t Transform) PointToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(local))
}

// PointToLocal converts a world point into the local frame
func (t Transform) PointToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(world.Sub(t.Position))
}

// VectorToWorld rotates a local direction into world space
func (t Transform) VectorToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(local)
}

// Compose places a child transform, expressed in t's frame, into world space
func (t Transform) Compose(offset mgl64.Vec3, orientation mgl64.Quat) Transform {
	return NewTransformAt(t.PointToWorld(offset), t.Rotation.Mul(orientation))
}
