package helium

import (
	"errors"
	"fmt"
	"slices"

	"github.com/akmonengine/helium/actor"
	"github.com/akmonengine/helium/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS           = 1
	DEFAULT_SUBSTEPS          = 1
	DEFAULT_MAX_SUBSTEPS      = 10
	DEFAULT_SOLVER_ITERATIONS = 3
)

var (
	ErrUnknownBody              = errors.New("body is not registered in the world")
	ErrDuplicateBody            = errors.New("body is already registered in the world")
	ErrBodyConstrained          = errors.New("body is still referenced by a live constraint")
	ErrUnknownConstraint        = errors.New("constraint is not registered in the world")
	ErrDuplicateConstraint      = errors.New("constraint is already registered in the world")
	ErrInvalidContactMaterial   = errors.New("invalid contact material")
	ErrDuplicateContactMaterial = errors.New("contact material already registered for this pair")
)

// World owns the bodies, the joints and the integrator. It is not safe for
// concurrent use: structural edits must happen between two Step calls.
type World struct {
	bodies    []*actor.RigidBody
	bodyIndex map[*actor.RigidBody]struct{}

	joints     []constraint.Joint
	jointIndex map[constraint.Joint]struct{}
	jointRefs  map[*actor.RigidBody]int

	// Gravity acceleration (m/s², or N/kg)
	gravity mgl64.Vec3

	Materials   *MaterialTable
	Substeps    int
	MaxSubSteps int
	SpatialGrid *SpatialGrid
	Workers     int

	Events Events

	accumulator float64
	time        float64
	nextID      uint64
}

func NewWorld() *World {
	return &World{
		bodyIndex:   make(map[*actor.RigidBody]struct{}),
		jointIndex:  make(map[constraint.Joint]struct{}),
		jointRefs:   make(map[*actor.RigidBody]int),
		Materials:   NewMaterialTable(),
		Substeps:    DEFAULT_SUBSTEPS,
		MaxSubSteps: DEFAULT_MAX_SUBSTEPS,
		SpatialGrid: NewSpatialGrid(1.0, 1024),
		Workers:     DEFAULT_WORKERS,
		Events:      NewEvents(),
	}
}

// AddBody registers a rigid body and assigns its ID
func (w *World) AddBody(body *actor.RigidBody) error {
	if _, exists := w.bodyIndex[body]; exists {
		return fmt.Errorf("add body %d: %w", body.ID, ErrDuplicateBody)
	}

	w.nextID++
	body.ID = w.nextID
	body.ComputeAABB()

	w.bodies = append(w.bodies, body)
	w.bodyIndex[body] = struct{}{}

	return nil
}

// RemoveBody unregisters a rigid body. The joints referencing it must be removed
// first: the call fails with ErrBodyConstrained and leaves the world untouched otherwise.
func (w *World) RemoveBody(body *actor.RigidBody) error {
	if _, exists := w.bodyIndex[body]; !exists {
		return fmt.Errorf("remove body: %w", ErrUnknownBody)
	}
	if refs := w.jointRefs[body]; refs > 0 {
		return fmt.Errorf("remove body %d (%d joints): %w", body.ID, refs, ErrBodyConstrained)
	}

	k := slices.Index(w.bodies, body)
	w.bodies = slices.Delete(w.bodies, k, k+1)
	delete(w.bodyIndex, body)
	delete(w.jointRefs, body)

	w.Events.forget(body)

	return nil
}

// AddConstraint registers a joint between two registered bodies
func (w *World) AddConstraint(joint constraint.Joint) error {
	a, b := joint.Bodies()
	if !w.HasBody(a) || !w.HasBody(b) {
		return fmt.Errorf("add constraint: %w", ErrUnknownBody)
	}
	if w.HasConstraint(joint) {
		return fmt.Errorf("add constraint: %w", ErrDuplicateConstraint)
	}

	w.joints = append(w.joints, joint)
	w.jointIndex[joint] = struct{}{}
	w.jointRefs[a]++
	if b != a {
		w.jointRefs[b]++
	}

	return nil
}

// RemoveConstraint unregisters a joint, in O(n) of the active joints
func (w *World) RemoveConstraint(joint constraint.Joint) error {
	if !w.HasConstraint(joint) {
		return fmt.Errorf("remove constraint: %w", ErrUnknownConstraint)
	}
	k := slices.Index(w.joints, joint)
	w.joints = slices.Delete(w.joints, k, k+1)
	delete(w.jointIndex, joint)

	a, b := joint.Bodies()
	w.release(a)
	if b != a {
		w.release(b)
	}

	return nil
}

func (w *World) release(body *actor.RigidBody) {
	if w.jointRefs[body] <= 1 {
		delete(w.jointRefs, body)
		return
	}
	w.jointRefs[body]--
}

// SetGravity replaces the acceleration applied to every dynamic body
func (w *World) SetGravity(gravity mgl64.Vec3) {
	w.gravity = gravity
}

func (w *World) Gravity() mgl64.Vec3 {
	return w.gravity
}

// Bodies returns the registered bodies; the slice must not be modified
func (w *World) Bodies() []*actor.RigidBody {
	return w.bodies
}

// Constraints returns the registered joints; the slice must not be modified
func (w *World) Constraints() []constraint.Joint {
	return w.joints
}

func (w *World) HasBody(body *actor.RigidBody) bool {
	_, exists := w.bodyIndex[body]
	return exists
}

func (w *World) HasConstraint(joint constraint.Joint) bool {
	_, exists := w.jointIndex[joint]
	return exists
}

// ConstraintsOf returns the joints attached to body
func (w *World) ConstraintsOf(body *actor.RigidBody) []constraint.Joint {
	if w.jointRefs[body] == 0 {
		return nil
	}

	var joints []constraint.Joint
	for _, joint := range w.joints {
		if constraint.References(joint, body) {
			joints = append(joints, joint)
		}
	}

	return joints
}

// Time returns the simulated time in seconds
func (w *World) Time() float64 {
	return w.time
}
