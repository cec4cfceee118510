// Package scene wires a world, its room, the balloons and the explosion
// controller together, and drives them once per frame.
package scene

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/akmonengine/helium"
	"github.com/akmonengine/helium/actor"
	"github.com/akmonengine/helium/balloon"
	"github.com/akmonengine/helium/camera"
	"github.com/akmonengine/helium/config"
	"github.com/akmonengine/helium/interact"
	"github.com/akmonengine/helium/room"
)

// Stats are counters since the scene creation
type Stats struct {
	Ticks      int
	Steps      int
	Collisions int
	Exploded   int
	Rebuilds   int
	Balloons   int
	Bodies     int
	Joints     int
	Time       float64
}

type viewport struct {
	width, height int
	// stamp is the frame time of the last resize notification
	stamp float64
}

// Scene is driven from a single goroutine: Update, Resize and Click must not
// be called concurrently.
type Scene struct {
	World       *helium.World
	Camera      *camera.Camera
	Room        *room.Room
	Balloons    *balloon.Manager
	Interaction *interact.Controller
	Gravity     GravityField

	RoomMaterial    *actor.Material
	BalloonMaterial *actor.Material

	cfg    config.Config
	logger *slog.Logger

	started  bool
	lastTime float64
	pending  *viewport
	stats    Stats
}

func New(cfg *config.Config, logger *slog.Logger) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Scene{
		World:           helium.NewWorld(),
		RoomMaterial:    actor.NewMaterial("room"),
		BalloonMaterial: actor.NewMaterial("balloon"),
		cfg:             *cfg,
		logger:          logger,
	}
	s.configureWorld()

	contacts := []helium.ContactMaterial{
		{
			MaterialA:   s.RoomMaterial,
			MaterialB:   s.BalloonMaterial,
			Friction:    cfg.Materials.RoomBalloon.Friction,
			Restitution: cfg.Materials.RoomBalloon.Restitution,
		},
		{
			MaterialA:   s.BalloonMaterial,
			MaterialB:   s.BalloonMaterial,
			Friction:    cfg.Materials.BalloonBalloon.Friction,
			Restitution: cfg.Materials.BalloonBalloon.Restitution,
		},
	}
	for _, cm := range contacts {
		if err := s.World.Materials.Add(cm); err != nil {
			return nil, fmt.Errorf("new scene: %w", err)
		}
	}

	s.Camera = camera.New(cfg.Camera.Distance, cfg.Camera.Fov, cfg.Camera.Aspect)
	s.Room = room.New(s.World, s.RoomMaterial)
	if err := s.Room.Build(room.Fit(s.Camera, cfg.Room.ViewingDepth)); err != nil {
		return nil, fmt.Errorf("new scene: %w", err)
	}

	opts, err := s.balloonOptions()
	if err != nil {
		return nil, err
	}
	s.Balloons = balloon.NewManager(s.World, opts)
	s.Balloons.SetLogger(logger.With("component", "balloons"))
	s.Balloons.SetGround(s.Room.Floor())

	s.Interaction = interact.NewController(s.Balloons, s.Camera)
	s.Interaction.SetLogger(logger.With("component", "interact"))
	s.configureInteraction()

	s.configureGravity()
	s.World.SetGravity(s.Gravity.At(0))

	s.World.Events.Subscribe(helium.COLLISION_ENTER, func(event helium.Event) {
		s.stats.Collisions++
	})

	logger.Debug("scene created",
		"room", s.Room.Dimensions(),
		"linkage", opts.Linkage,
		"stream", opts.StreamEnabled,
	)

	return s, nil
}

func (s *Scene) configureWorld() {
	s.World.Substeps = s.cfg.World.Substeps
	s.World.MaxSubSteps = s.cfg.World.MaxSubSteps
	s.World.Workers = max(1, s.cfg.World.Workers)
}

func (s *Scene) configureGravity() {
	s.Gravity = GravityField{
		Base:       s.cfg.Gravity.Vector.Vec(),
		AutoRotate: s.cfg.Gravity.AutoRotate,
		Speed:      s.cfg.Gravity.Speed,
		Amplitude:  s.cfg.Gravity.Amplitude,
	}
}

func (s *Scene) configureInteraction() {
	s.Interaction.Enabled = s.cfg.Explosion.Enabled
	s.Interaction.Force = s.cfg.Explosion.Force
}

func (s *Scene) balloonOptions() (balloon.Options, error) {
	opts, err := s.cfg.BalloonOptions()
	if err != nil {
		return balloon.Options{}, err
	}
	opts.Material = s.BalloonMaterial

	return opts, nil
}

// Config returns a copy of the current configuration
func (s *Scene) Config() *config.Config {
	cfg := s.cfg
	return &cfg
}

// ApplyConfig changes the tunables of a running scene. Contact materials are
// fixed at creation. Camera or room changes rebuild the room on the next Update.
func (s *Scene) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	previous := s.cfg
	s.cfg = *cfg

	opts, err := s.balloonOptions()
	if err != nil {
		s.cfg = previous
		return err
	}
	if err := s.Balloons.SetOptions(opts); err != nil {
		s.cfg = previous
		return err
	}

	s.configureWorld()
	s.configureGravity()
	s.configureInteraction()

	if cfg.Camera != previous.Camera || cfg.Room.ViewingDepth != previous.Room.ViewingDepth {
		s.Camera.FovY = cfg.Camera.Fov
		if cfg.Camera.Aspect != previous.Camera.Aspect {
			s.Camera.Aspect = cfg.Camera.Aspect
		}
		s.Camera.Position = s.Camera.Position.Normalize().Mul(cfg.Camera.Distance)
		s.requestRebuild(0, 0)
	}

	return nil
}

// Resize records a new viewport. The room is rebuilt by Update once no other
// resize came for the configured debounce time.
func (s *Scene) Resize(width, height int) {
	s.requestRebuild(width, height)
}

func (s *Scene) requestRebuild(width, height int) {
	if s.pending != nil && width <= 0 && height <= 0 {
		width, height = s.pending.width, s.pending.height
	}
	s.pending = &viewport{width: width, height: height, stamp: s.lastTime}
}

// Click explodes the balloon under the pointer, in normalized device coordinates
func (s *Scene) Click(ndcX, ndcY float64) (interact.Result, bool, error) {
	result, ok, err := s.Interaction.Click(ndcX, ndcY)
	if err != nil {
		return result, ok, err
	}
	if ok {
		s.stats.Exploded++
	}

	return result, ok, nil
}

// AddBalloon creates one balloon now, regardless of streaming
func (s *Scene) AddBalloon() (*balloon.Balloon, error) {
	return s.Balloons.AddBalloon()
}

// Reset removes every balloon and puts the room back in place
func (s *Scene) Reset() error {
	s.Room.ResetSpin()
	return s.Balloons.Reset()
}

// Update advances the scene to frame time t, in seconds. The first call only
// sets the time origin: no physics time elapses. Errors are logged and
// returned, the scene stays usable.
func (s *Scene) Update(t float64) error {
	elapsed := 0.0
	if s.started {
		elapsed = t - s.lastTime
	}
	s.started = true
	s.lastTime = t

	var errs []error
	if s.pending != nil && t-s.pending.stamp >= s.cfg.Room.ResizeDebounce {
		if err := s.rebuild(*s.pending); err != nil {
			errs = append(errs, err)
		}
		s.pending = nil
	}

	s.Interaction.Settle()
	if _, err := s.Balloons.Tick(); err != nil {
		errs = append(errs, fmt.Errorf("stream balloon: %w", err))
	}

	s.World.SetGravity(s.Gravity.At(t))
	s.Balloons.ApplyBuoyancy()
	if s.cfg.Room.Spin {
		s.Room.Spin(s.cfg.Room.SpinSpeed)
	}

	s.stats.Steps += s.World.Step(s.cfg.World.FixedDt, elapsed, s.cfg.World.Iterations)
	s.stats.Ticks++

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Warn("scene update", "error", err)
	}

	return err
}

// rebuild fits the room to a new viewport, moving the ground links to the new floor
func (s *Scene) rebuild(v viewport) error {
	s.Camera.SetViewport(v.width, v.height)
	dimensions := room.Fit(s.Camera, s.cfg.Room.ViewingDepth)

	var errs []error
	if err := s.Balloons.DetachGround(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Room.Build(dimensions); err != nil {
		errs = append(errs, err)
	} else if err := s.Balloons.AttachGround(s.Room.Floor()); err != nil {
		errs = append(errs, err)
	}
	s.stats.Rebuilds++

	s.logger.Debug("room rebuilt",
		"width", dimensions.Width,
		"height", dimensions.Height,
		"depth", dimensions.Depth,
	)

	if len(errs) > 0 {
		return fmt.Errorf("rebuild room: %w", errors.Join(errs...))
	}

	return nil
}

func (s *Scene) Stats() Stats {
	stats := s.stats
	stats.Balloons = s.Balloons.Len()
	stats.Bodies = len(s.World.Bodies())
	stats.Joints = len(s.World.Constraints())
	stats.Time = s.World.Time()

	return stats
}

// Time is the frame time of the last Update
func (s *Scene) Time() float64 {
	return s.lastTime
}
