// Package config holds the tunables of a balloon scene, loaded from yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/akmonengine/helium/balloon"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFixedDt        = 1.0 / 60.0
	DefaultIterations     = 3
	DefaultSubsteps       = 8
	DefaultMaxSubSteps    = 10
	DefaultCameraDistance = 2.0
	DefaultFov            = 75.0
	DefaultAspect         = 16.0 / 9.0
	DefaultViewingDepth   = 2.0
	DefaultSpinSpeed      = 0.01
	DefaultResizeDebounce = 0.25
	DefaultGravitySpeed   = 1.0
	DefaultExplosionForce = 0.01
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Seed      uint64          `yaml:"seed"`
	LogLevel  string          `yaml:"log_level"`
	World     WorldConfig     `yaml:"world"`
	Gravity   GravityConfig   `yaml:"gravity"`
	Camera    CameraConfig    `yaml:"camera"`
	Room      RoomConfig      `yaml:"room"`
	Balloon   BalloonConfig   `yaml:"balloon"`
	String    StringConfig    `yaml:"string"`
	Linkage   LinkageConfig   `yaml:"linkage"`
	Stream    StreamConfig    `yaml:"stream"`
	Explosion ExplosionConfig `yaml:"explosion"`
	Materials MaterialsConfig `yaml:"materials"`
}

type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

type WorldConfig struct {
	FixedDt     float64 `yaml:"fixed_dt"`
	Iterations  int     `yaml:"iterations"`
	Substeps    int     `yaml:"substeps"`
	MaxSubSteps int     `yaml:"max_substeps"`
	Workers     int     `yaml:"workers"`
}

// GravityConfig is either the constant Vector, or a field rotating in the XY
// plane at Speed rad/s with magnitude Amplitude.
type GravityConfig struct {
	Vector     Vec3    `yaml:"vector"`
	AutoRotate bool    `yaml:"auto_rotate"`
	Speed      float64 `yaml:"speed"`
	Amplitude  float64 `yaml:"amplitude"`
}

type CameraConfig struct {
	Distance float64 `yaml:"distance"`
	Fov      float64 `yaml:"fov"`
	Aspect   float64 `yaml:"aspect"`
}

type RoomConfig struct {
	ViewingDepth float64 `yaml:"viewing_depth"`
	Spin         bool    `yaml:"spin"`
	SpinSpeed    float64 `yaml:"spin_speed"`
	// ResizeDebounce is the quiet time, in seconds, before a resize rebuilds the room
	ResizeDebounce float64 `yaml:"resize_debounce"`
}

type BalloonConfig struct {
	Mass           float64 `yaml:"mass"`
	LinearDamping  float64 `yaml:"linear_damping"`
	AngularDamping float64 `yaml:"angular_damping"`
	Buoyancy       float64 `yaml:"buoyancy"`
	LocalBuoyancy  bool    `yaml:"local_buoyancy"`
	Spawn          Vec3    `yaml:"spawn"`
	SpawnJitter    float64 `yaml:"spawn_jitter"`
	MaxBalloons    int     `yaml:"max_balloons"`
}

type StringConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Slices       int     `yaml:"slices"`
	Height       float64 `yaml:"height"`
	ParticleMass float64 `yaml:"particle_mass"`
	Damping      float64 `yaml:"damping"`
	Compliance   float64 `yaml:"compliance"`
}

type LinkageConfig struct {
	Mode             string  `yaml:"mode"`
	GroupCompliance  float64 `yaml:"group_compliance"`
	GroundCompliance float64 `yaml:"ground_compliance"`
}

type StreamConfig struct {
	Enabled bool `yaml:"enabled"`
	Delay   int  `yaml:"delay"`
}

type ExplosionConfig struct {
	Enabled bool    `yaml:"enabled"`
	Force   float64 `yaml:"force"`
}

type ContactConfig struct {
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

type MaterialsConfig struct {
	RoomBalloon    ContactConfig `yaml:"room_balloon"`
	BalloonBalloon ContactConfig `yaml:"balloon_balloon"`
}

func DefaultConfig() *Config {
	opts := balloon.DefaultOptions()

	return &Config{
		LogLevel: "info",
		World: WorldConfig{
			FixedDt:     DefaultFixedDt,
			Iterations:  DefaultIterations,
			Substeps:    DefaultSubsteps,
			MaxSubSteps: DefaultMaxSubSteps,
			Workers:     1,
		},
		Gravity: GravityConfig{
			Vector:    Vec3{Y: -0.5},
			Speed:     DefaultGravitySpeed,
			Amplitude: 1,
		},
		Camera: CameraConfig{
			Distance: DefaultCameraDistance,
			Fov:      DefaultFov,
			Aspect:   DefaultAspect,
		},
		Room: RoomConfig{
			ViewingDepth:   DefaultViewingDepth,
			SpinSpeed:      DefaultSpinSpeed,
			ResizeDebounce: DefaultResizeDebounce,
		},
		Balloon: BalloonConfig{
			Mass:           opts.Mass,
			LinearDamping:  opts.LinearDamping,
			AngularDamping: opts.AngularDamping,
			Buoyancy:       opts.Buoyancy,
			Spawn:          Vec3{opts.Spawn.X(), opts.Spawn.Y(), opts.Spawn.Z()},
		},
		String: StringConfig{
			Enabled:      opts.String.Enabled,
			Slices:       opts.String.Slices,
			Height:       opts.String.Height,
			ParticleMass: opts.String.ParticleMass,
			Damping:      opts.String.LinearDamping,
			Compliance:   opts.String.Compliance,
		},
		Linkage: LinkageConfig{
			Mode:             opts.Linkage.String(),
			GroupCompliance:  opts.GroupCompliance,
			GroundCompliance: opts.GroundCompliance,
		},
		Stream: StreamConfig{
			Delay: opts.StreamDelay,
		},
		Explosion: ExplosionConfig{
			Enabled: true,
			Force:   DefaultExplosionForce,
		},
		Materials: MaterialsConfig{
			RoomBalloon:    ContactConfig{Friction: 0.1, Restitution: 0.8},
			BalloonBalloon: ContactConfig{Friction: 0.2, Restitution: 0.8},
		},
	}
}

// Load reads a yaml file over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes yaml over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LinkageMode parses the configured linkage
func (c *Config) LinkageMode() (balloon.LinkageMode, error) {
	return balloon.ParseLinkageMode(c.Linkage.Mode)
}

// BalloonOptions converts the balloon related settings
func (c *Config) BalloonOptions() (balloon.Options, error) {
	mode, err := c.LinkageMode()
	if err != nil {
		return balloon.Options{}, err
	}

	opts := balloon.DefaultOptions()
	opts.Mass = c.Balloon.Mass
	opts.LinearDamping = c.Balloon.LinearDamping
	opts.AngularDamping = c.Balloon.AngularDamping
	opts.Buoyancy = c.Balloon.Buoyancy
	opts.LocalBuoyancy = c.Balloon.LocalBuoyancy
	opts.Spawn = c.Balloon.Spawn.Vec()
	opts.SpawnJitter = c.Balloon.SpawnJitter
	opts.MaxBalloons = c.Balloon.MaxBalloons
	opts.Seed = c.Seed
	opts.String = balloon.StringOptions{
		Enabled:       c.String.Enabled,
		Slices:        c.String.Slices,
		Height:        c.String.Height,
		ParticleMass:  c.String.ParticleMass,
		LinearDamping: c.String.Damping,
		Compliance:    c.String.Compliance,
	}
	opts.Linkage = mode
	opts.GroupCompliance = c.Linkage.GroupCompliance
	opts.GroundCompliance = c.Linkage.GroundCompliance
	opts.StreamEnabled = c.Stream.Enabled
	opts.StreamDelay = c.Stream.Delay

	return opts, nil
}

// SlogLevel parses LogLevel, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalid)
	}

	switch {
	case !(c.World.FixedDt > 0):
		return invalid("world.fixed_dt %g must be positive", c.World.FixedDt)
	case c.World.Iterations < 1:
		return invalid("world.iterations %d must be at least 1", c.World.Iterations)
	case c.World.Substeps < 1:
		return invalid("world.substeps %d must be at least 1", c.World.Substeps)
	case c.World.MaxSubSteps < 1:
		return invalid("world.max_substeps %d must be at least 1", c.World.MaxSubSteps)
	case c.World.Workers < 0:
		return invalid("world.workers %d must not be negative", c.World.Workers)
	case !(c.Camera.Distance > 0):
		return invalid("camera.distance %g must be positive", c.Camera.Distance)
	case !(c.Camera.Fov > 0 && c.Camera.Fov < 180):
		return invalid("camera.fov %g must be in (0, 180)", c.Camera.Fov)
	case !(c.Camera.Aspect > 0):
		return invalid("camera.aspect %g must be positive", c.Camera.Aspect)
	case !(c.Room.ViewingDepth > 0):
		return invalid("room.viewing_depth %g must be positive", c.Room.ViewingDepth)
	case !(c.Room.ResizeDebounce >= 0):
		return invalid("room.resize_debounce %g must not be negative", c.Room.ResizeDebounce)
	case !(c.Explosion.Force >= 0):
		return invalid("explosion.force %g must not be negative", c.Explosion.Force)
	}

	for name, contact := range map[string]ContactConfig{
		"room_balloon":    c.Materials.RoomBalloon,
		"balloon_balloon": c.Materials.BalloonBalloon,
	} {
		if !(contact.Friction >= 0) || math.IsInf(contact.Friction, 1) ||
			!(contact.Restitution >= 0 && contact.Restitution <= 1) {
			return invalid("materials.%s friction %g, restitution %g", name, contact.Friction, contact.Restitution)
		}
	}

	opts, err := c.BalloonOptions()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}
