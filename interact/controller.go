// Package interact turns pointer clicks into explosions: the balloon under
// the pointer is removed and the survivors are pushed away from it.
package interact

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/akmonengine/helium/balloon"
	"github.com/akmonengine/helium/camera"
	"github.com/go-gl/mathgl/mgl64"
)

const DefaultForce = 0.01

type State int

const (
	StateIdle State = iota
	StatePicking
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePicking:
		return "picking"
	case StateResolved:
		return "resolved"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Hit is the nearest balloon crossed by a ray
type Hit struct {
	Balloon  *balloon.Balloon
	Point    mgl64.Vec3
	Distance float64
}

// Picker finds the nearest balloon along a ray
type Picker interface {
	Pick(ray camera.Ray, balloons []*balloon.Balloon) (Hit, bool)
}

// EnvelopePicker intersects the ray with the envelope spheres
type EnvelopePicker struct{}

func (EnvelopePicker) Pick(ray camera.Ray, balloons []*balloon.Balloon) (Hit, bool) {
	best := Hit{Distance: math.Inf(1)}
	for _, b := range balloons {
		t, ok := ray.IntersectSphere(b.Center(), balloon.EnvelopeRadius)
		if ok && t < best.Distance {
			best = Hit{Balloon: b, Point: ray.At(t), Distance: t}
		}
	}

	return best, best.Balloon != nil
}

// Result of a resolved explosion
type Result struct {
	Hit Hit
	// Impulsed lists the balloons pushed by the explosion
	Impulsed []*balloon.Balloon
}

type Controller struct {
	manager *balloon.Manager
	camera  *camera.Camera
	logger  *slog.Logger

	Picker  Picker
	Enabled bool
	// Force is the magnitude of the impulse given to every survivor, in N⋅s
	Force float64

	state State
}

func NewController(manager *balloon.Manager, cam *camera.Camera) *Controller {
	return &Controller{
		manager: manager,
		camera:  cam,
		logger:  slog.New(slog.DiscardHandler),
		Picker:  EnvelopePicker{},
		Enabled: true,
		Force:   DefaultForce,
	}
}

func (c *Controller) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c.logger = logger
}

func (c *Controller) State() State {
	return c.state
}

// PickHandle returns the visual handle of the nearest balloon along ray
func (c *Controller) PickHandle(ray camera.Ray) (balloon.Handle, bool) {
	hit, ok := c.Picker.Pick(ray, c.manager.Balloons())
	if !ok {
		return nil, false
	}

	return hit.Balloon.Visual, true
}

// Click explodes the balloon under the pointer, given in normalized device coordinates
func (c *Controller) Click(ndcX, ndcY float64) (Result, bool, error) {
	if !c.Enabled {
		return Result{}, false, nil
	}

	return c.Explode(c.camera.Ray(ndcX, ndcY))
}

// Explode removes the nearest balloon along ray, then gives every other
// balloon an impulse pointing away from the hit point, applied at the hit
// point. A miss changes nothing.
func (c *Controller) Explode(ray camera.Ray) (Result, bool, error) {
	if !c.Enabled {
		return Result{}, false, nil
	}

	c.state = StatePicking
	hit, ok := c.Picker.Pick(ray, c.manager.Balloons())
	if !ok {
		c.state = StateIdle
		return Result{}, false, nil
	}

	if err := c.manager.Remove(hit.Balloon); err != nil {
		c.state = StateIdle
		return Result{}, false, fmt.Errorf("explode balloon %d: %w", hit.Balloon.ID, err)
	}

	result := Result{Hit: hit}
	for _, b := range c.manager.Balloons() {
		direction := b.Position().Sub(hit.Point)
		if direction.Len() < 1e-9 {
			continue
		}
		b.ApplyImpulse(direction.Normalize().Mul(c.Force), hit.Point)
		result.Impulsed = append(result.Impulsed, b)
	}
	c.state = StateResolved

	c.logger.Debug("balloon exploded",
		"id", hit.Balloon.ID,
		"point", hit.Point,
		"impulsed", len(result.Impulsed),
	)

	return result, true, nil
}

// Settle returns a resolved explosion to idle, once per tick
func (c *Controller) Settle() {
	if c.state == StateResolved {
		c.state = StateIdle
	}
}
