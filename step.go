package helium

import (
	"math"

	"github.com/akmonengine/helium/actor"
	"github.com/akmonengine/helium/constraint"
)

// Step advances the world in fixed steps of fixedDt, consuming the real time
// elapsed since the previous call. At most MaxSubSteps fixed steps are taken;
// the backlog beyond that is dropped. A zero, negative or non-finite elapsed
// time takes no step. iterations is the number of relaxation passes per
// substep, DEFAULT_SOLVER_ITERATIONS when < 1.
// Forces accumulated on the bodies are cleared on return.
// It returns the number of fixed steps taken.
func (w *World) Step(fixedDt, elapsed float64, iterations int) int {
	defer w.clearForces()

	if !isPositiveFinite(fixedDt) {
		return 0
	}
	if !isPositiveFinite(elapsed) {
		elapsed = 0
	}

	w.accumulator += elapsed
	maxSteps := max(1, w.MaxSubSteps)

	steps := 0
	for w.accumulator >= fixedDt && steps < maxSteps {
		w.internalStep(fixedDt, iterations)
		w.accumulator -= fixedDt
		steps++
	}
	if w.accumulator >= fixedDt {
		w.accumulator = math.Mod(w.accumulator, fixedDt)
	}

	if steps > 0 {
		w.Events.flush()
	}

	return steps
}

// StepFixed advances the world by exactly one fixed step of dt
func (w *World) StepFixed(dt float64, iterations int) {
	defer w.clearForces()

	if !isPositiveFinite(dt) {
		return
	}

	w.internalStep(dt, iterations)
	w.Events.flush()
}

func (w *World) internalStep(dt float64, iterations int) {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	if iterations < 1 {
		iterations = DEFAULT_SOLVER_ITERATIONS
	}
	substeps := max(DEFAULT_SUBSTEPS, w.Substeps)
	h := dt / float64(substeps)

	for range substeps {
		w.integrate(h)

		// Phase 2: Collision pair finding, broad then narrow phase
		contacts := w.detectCollision()
		w.Events.recordCollisions(contacts)

		// Phase 3: Gauss-Seidel relaxation over joints then contacts
		w.solvePosition(h, iterations, contacts)

		// Phase 4: Derive velocities from the solved positions
		w.update(h)

		// Phase 5: Restitution and friction
		w.solveVelocity(h, contacts)
	}

	w.time += dt
}

func (w *World) integrate(h float64) {
	task(w.Workers, w.bodies, func(body *actor.RigidBody) {
		body.Integrate(h, w.gravity)
	})
}

func (w *World) detectCollision() []*constraint.ContactConstraint {
	return NarrowPhase(BroadPhase(w.SpatialGrid, w.bodies), w.Materials)
}

// solvePosition is sequential: joints share bodies along a chain
func (w *World) solvePosition(h float64, iterations int, contacts []*constraint.ContactConstraint) {
	for range iterations {
		for _, joint := range w.joints {
			joint.SolvePosition(h)
		}
		for _, contact := range contacts {
			contact.SolvePosition(h)
		}
	}
}

func (w *World) update(h float64) {
	task(w.Workers, w.bodies, func(body *actor.RigidBody) {
		body.Update(h)
	})
}

func (w *World) solveVelocity(h float64, contacts []*constraint.ContactConstraint) {
	for _, joint := range w.joints {
		joint.SolveVelocity(h)
	}
	for _, contact := range contacts {
		contact.SolveVelocity(h)
	}
}

func (w *World) clearForces() {
	for _, body := range w.bodies {
		body.ClearForces()
	}
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
