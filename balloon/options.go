package balloon

import (
	"errors"
	"fmt"

	"github.com/akmonengine/helium/actor"
	"github.com/akmonengine/helium/constraint"
	"github.com/akmonengine/helium/room"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrUnknownBalloon = errors.New("balloon is not managed")
	ErrUnknownLinkage = errors.New("unknown linkage mode")
	ErrInvalidOptions = errors.New("invalid balloon options")
)

// Collision groups. Envelopes hit the room and each other, strings only hit the room.
const (
	EnvelopeCollisionGroup uint32 = 1 << 1
	StringCollisionGroup   uint32 = 1 << 2

	EnvelopeCollisionMask = room.CollisionGroup | EnvelopeCollisionGroup
	StringCollisionMask   = room.CollisionGroup
)

// Envelope geometry, in the envelope frame. The lower anchor, where the string
// is tied, is the body origin at the tip of the cone.
const (
	EnvelopeRadius       = 0.32
	ConeRadiusTop        = 0.2
	ConeRadiusBottom     = 0.01
	ConeHeight           = 0.4
	envelopeSphereHeight = 0.5
	coneCenterHeight     = ConeHeight / 2
)

var (
	LowerAnchor    = mgl64.Vec3{0, 0, 0}
	EnvelopeCenter = mgl64.Vec3{0, envelopeSphereHeight, 0}
)

type StringOptions struct {
	Enabled       bool
	Slices        int
	Height        float64
	ParticleMass  float64
	LinearDamping float64
	// Compliance of the joints between links
	Compliance float64
}

// SegmentLength is the rest distance between two consecutive links
func (s StringOptions) SegmentLength() float64 {
	if s.Slices <= 0 {
		return 0
	}

	return s.Height / float64(s.Slices)
}

type Options struct {
	Mass           float64
	LinearDamping  float64
	AngularDamping float64
	Material       *actor.Material

	Spawn       mgl64.Vec3
	SpawnJitter float64
	Seed        uint64

	// Buoyancy is the magnitude of the upward force, applied at BuoyancyOffset
	Buoyancy       float64
	BuoyancyOffset mgl64.Vec3
	// LocalBuoyancy makes the force rotate with the envelope
	LocalBuoyancy bool

	String StringOptions

	Linkage          LinkageMode
	GroupCompliance  float64
	GroundCompliance float64

	StreamEnabled bool
	StreamDelay   int

	// MaxBalloons evicts the oldest balloon when reached, 0 is unbounded
	MaxBalloons int
}

func DefaultOptions() Options {
	return Options{
		Mass:           0.01,
		LinearDamping:  0.1,
		AngularDamping: 0.1,
		Spawn:          mgl64.Vec3{0, 0, -2},
		Buoyancy:       0.02,
		BuoyancyOffset: EnvelopeCenter,
		String: StringOptions{
			Enabled:       true,
			Slices:        20,
			Height:        0.6,
			ParticleMass:  0.0002,
			LinearDamping: 0.5,
			Compliance:    constraint.LEATHER_COMPLIANCE,
		},
		Linkage:          LinkageNone,
		GroupCompliance:  constraint.FAT_COMPLIANCE,
		GroundCompliance: constraint.TENDON_COMPLIANCE,
		StreamDelay:      10,
	}
}

func (o Options) Validate() error {
	switch {
	case !(o.Mass > 0):
		return fmt.Errorf("mass %g must be positive: %w", o.Mass, ErrInvalidOptions)
	case !(o.LinearDamping >= 0 && o.AngularDamping >= 0):
		return fmt.Errorf("damping must not be negative: %w", ErrInvalidOptions)
	case !(o.SpawnJitter >= 0):
		return fmt.Errorf("spawn jitter %g must not be negative: %w", o.SpawnJitter, ErrInvalidOptions)
	case o.StreamDelay < 0:
		return fmt.Errorf("stream delay %d must not be negative: %w", o.StreamDelay, ErrInvalidOptions)
	case o.MaxBalloons < 0:
		return fmt.Errorf("max balloons %d must not be negative: %w", o.MaxBalloons, ErrInvalidOptions)
	case !(o.GroupCompliance >= 0 && o.GroundCompliance >= 0 && o.String.Compliance >= 0):
		return fmt.Errorf("compliance must not be negative: %w", ErrInvalidOptions)
	case o.Linkage < LinkageNone || o.Linkage > LinkageEnvelopeGroup:
		return fmt.Errorf("linkage %d: %w", int(o.Linkage), ErrUnknownLinkage)
	}

	if o.String.Enabled {
		switch {
		case o.String.Slices < 1:
			return fmt.Errorf("string slices %d must be at least 1: %w", o.String.Slices, ErrInvalidOptions)
		case !(o.String.Height > 0):
			return fmt.Errorf("string height %g must be positive: %w", o.String.Height, ErrInvalidOptions)
		case !(o.String.ParticleMass > 0):
			return fmt.Errorf("string particle mass %g must be positive: %w", o.String.ParticleMass, ErrInvalidOptions)
		}
	}

	return nil
}
