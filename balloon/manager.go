package balloon

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/akmonengine/helium"
	"github.com/akmonengine/helium/actor"
	"github.com/akmonengine/helium/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Manager creates and destroys balloons in a world. Every balloon it returns
// is fully registered: bodies, links and joints. It is not safe for concurrent
// use and must be driven between two world steps.
type Manager struct {
	world   *helium.World
	opts    Options
	visuals Visuals
	logger  *slog.Logger
	rng     *rand.Rand

	// ground is the floor body ground links are tied to
	ground *actor.RigidBody

	balloons  []*Balloon
	preceding *Balloon
	cooldown  int
	nextID    uint64
}

func NewManager(world *helium.World, opts Options) *Manager {
	return &Manager{
		world:  world,
		opts:   opts,
		logger: slog.New(slog.DiscardHandler),
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

// SetVisuals sets the presentation collaborator, nil disables it
func (m *Manager) SetVisuals(visuals Visuals) {
	m.visuals = visuals
}

func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m.logger = logger
}

// SetGround sets the floor used by the next ground links
func (m *Manager) SetGround(floor *actor.RigidBody) {
	m.ground = floor
}

func (m *Manager) Ground() *actor.RigidBody {
	return m.ground
}

func (m *Manager) Options() Options {
	return m.opts
}

// SetOptions changes the options of the balloons created from now on.
// Existing balloons keep their string and linkage.
func (m *Manager) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	m.opts = opts

	return nil
}

// Balloons returns the active balloons, oldest first; the slice must not be modified
func (m *Manager) Balloons() []*Balloon {
	return m.balloons
}

func (m *Manager) Len() int {
	return len(m.balloons)
}

// Preceding is the balloon group links of new balloons point to
func (m *Manager) Preceding() *Balloon {
	return m.preceding
}

func (m *Manager) Contains(b *Balloon) bool {
	return slices.Contains(m.balloons, b)
}

// AddBalloon creates a balloon at the spawn point. On error nothing is left
// registered in the world.
func (m *Manager) AddBalloon() (*Balloon, error) {
	if err := m.opts.Validate(); err != nil {
		return nil, fmt.Errorf("add balloon: %w", err)
	}

	if m.opts.MaxBalloons > 0 {
		for len(m.balloons) >= m.opts.MaxBalloons {
			oldest := m.balloons[0]
			if err := m.Remove(oldest); err != nil {
				return nil, fmt.Errorf("evict balloon %d: %w", oldest.ID, err)
			}
			m.logger.Debug("balloon evicted", "id", oldest.ID, "max", m.opts.MaxBalloons)
		}
	}

	m.nextID++
	b := &Balloon{ID: m.nextID}
	if err := m.build(b); err != nil {
		return nil, errors.Join(fmt.Errorf("add balloon %d: %w", b.ID, err), m.teardown(b))
	}

	if m.visuals != nil {
		b.Visual = m.visuals.Attach(b)
	}
	m.balloons = append(m.balloons, b)
	if m.preceding == nil {
		m.preceding = b
	}

	m.logger.Debug("balloon added",
		"id", b.ID,
		"links", len(b.Links),
		"linkage", b.Linkage,
		"count", len(m.balloons),
	)

	return b, nil
}

// build registers the envelope, the string and the linkage of b, in that order
func (m *Manager) build(b *Balloon) error {
	b.Envelope = newEnvelope(m.spawnPoint(), m.opts)
	if err := m.world.AddBody(b.Envelope); err != nil {
		return err
	}

	if m.opts.String.Enabled {
		b.segment = m.opts.String.SegmentLength()
		b.Links, b.StringJoints = newString(b.Envelope, m.opts.String, m.opts.Material)

		for _, link := range b.Links {
			if err := m.world.AddBody(link); err != nil {
				return err
			}
		}
		for _, joint := range b.StringJoints {
			if err := m.world.AddConstraint(joint); err != nil {
				return err
			}
		}
	}

	return m.link(b, m.opts.Linkage)
}

// link creates the linkage joint of b. Modes that cannot be satisfied, such as
// ground without floor or a group without preceding balloon, leave b unlinked.
func (m *Manager) link(b *Balloon, mode LinkageMode) error {
	if mode.NeedsString() && !b.HasString() {
		return nil
	}

	var joint *constraint.PointToPoint
	switch mode {
	case LinkageGround:
		if m.ground == nil || !m.world.HasBody(m.ground) {
			m.logger.Debug("ground linkage without floor", "id", b.ID)
			return nil
		}
		anchor := floorPoint(m.ground, linkEnd(b.LastLink(), b.segment))
		joint = newGroundJoint(b.LastLink(), m.ground, anchor, b.segment, m.opts.GroundCompliance)
		b.groundAnchor = anchor
	case LinkageStringGroup, LinkageEnvelopeGroup:
		if m.preceding == nil || m.preceding == b {
			return nil
		}
		joint = newGroupJoint(b, m.preceding, mode, m.opts.GroupCompliance)
		if joint == nil {
			return nil
		}
		b.peer = m.preceding
	default:
		return nil
	}

	if err := m.world.AddConstraint(joint); err != nil {
		b.peer = nil
		return err
	}
	b.Link = joint
	b.Linkage = mode

	return nil
}

func (m *Manager) spawnPoint() mgl64.Vec3 {
	spawn := m.opts.Spawn
	if m.opts.SpawnJitter <= 0 {
		return spawn
	}

	jitter := func() float64 {
		return (m.rng.Float64()*2 - 1) * m.opts.SpawnJitter
	}

	return spawn.Add(mgl64.Vec3{jitter(), jitter(), jitter()})
}

// Remove tears a balloon down: the group links of other balloons pointing to
// it, its own joints, its bodies, then its visual. When b was the preceding
// balloon, the oldest survivor takes its place.
func (m *Manager) Remove(b *Balloon) error {
	k := slices.Index(m.balloons, b)
	if k == -1 {
		return fmt.Errorf("remove balloon: %w", ErrUnknownBalloon)
	}

	var errs []error
	for _, other := range m.balloons {
		if other != b && other.peer == b {
			if err := m.unlink(other); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := m.teardown(b); err != nil {
		errs = append(errs, err)
	}

	m.balloons = slices.Delete(m.balloons, k, k+1)
	if m.preceding == b {
		m.preceding = nil
		if len(m.balloons) > 0 {
			m.preceding = m.balloons[0]
		}
	}

	m.logger.Debug("balloon removed", "id", b.ID, "count", len(m.balloons))

	if len(errs) > 0 {
		return fmt.Errorf("remove balloon %d: %w", b.ID, errors.Join(errs...))
	}

	return nil
}

// unlink drops the linkage joint of b
func (m *Manager) unlink(b *Balloon) error {
	joint := b.Link
	b.Link = nil
	b.Linkage = LinkageNone
	b.peer = nil

	if joint == nil || !m.world.HasConstraint(joint) {
		return nil
	}

	return m.world.RemoveConstraint(joint)
}

// teardown removes whatever part of b is registered: joints first, then bodies
func (m *Manager) teardown(b *Balloon) error {
	errs := m.removeJoints(b)
	errs = append(errs, m.removeBodies(b)...)

	return errors.Join(errs...)
}

func (m *Manager) removeJoints(b *Balloon) []error {
	var errs []error
	if err := m.unlink(b); err != nil {
		errs = append(errs, err)
	}
	for _, joint := range b.StringJoints {
		if !m.world.HasConstraint(joint) {
			continue
		}
		if err := m.world.RemoveConstraint(joint); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func (m *Manager) removeBodies(b *Balloon) []error {
	var errs []error
	for _, body := range slices.Backward(b.Bodies()) {
		if !m.world.HasBody(body) {
			continue
		}
		if err := m.world.RemoveBody(body); err != nil {
			errs = append(errs, err)
		}
	}

	if b.Visual != nil && m.visuals != nil {
		m.visuals.Detach(b.Visual)
	}
	b.Visual = nil

	return errs
}

// Reset tears every balloon down. All joints are removed before any body, so
// group links between balloons never block a removal. Reset is idempotent.
func (m *Manager) Reset() error {
	var errs []error
	for _, b := range m.balloons {
		errs = append(errs, m.removeJoints(b)...)
	}
	for _, b := range m.balloons {
		errs = append(errs, m.removeBodies(b)...)
	}

	count := len(m.balloons)
	m.balloons = nil
	m.preceding = nil
	m.cooldown = 0

	if count > 0 {
		m.logger.Debug("balloons reset", "count", count)
	}
	if len(errs) > 0 {
		return fmt.Errorf("reset balloons: %w", errors.Join(errs...))
	}

	return nil
}

// Tick drives streaming: while enabled, one balloon is created every
// StreamDelay ticks, starting with the first tick. While disabled the cooldown
// is frozen.
func (m *Manager) Tick() (*Balloon, error) {
	if !m.opts.StreamEnabled {
		return nil, nil
	}

	var (
		b   *Balloon
		err error
	)
	if m.cooldown <= 0 {
		b, err = m.AddBalloon()
		m.cooldown = max(1, m.opts.StreamDelay)
	}
	m.cooldown--

	return b, err
}

// ApplyBuoyancy accumulates the buoyant force on every envelope, for the next step
func (m *Manager) ApplyBuoyancy() {
	for _, b := range m.balloons {
		b.ApplyBuoyancy(m.opts.Buoyancy, m.opts.BuoyancyOffset, m.opts.LocalBuoyancy)
	}
}

// DetachGround removes every ground link, keeping its world anchor, so the
// floor body can be removed. The balloons keep their ground linkage mode.
func (m *Manager) DetachGround() error {
	var errs []error
	for _, b := range m.balloons {
		if b.Linkage != LinkageGround || b.Link == nil {
			continue
		}
		_, b.groundAnchor = b.Link.WorldPivots()

		joint := b.Link
		b.Link = nil
		if err := m.world.RemoveConstraint(joint); err != nil {
			errs = append(errs, err)
		}
	}
	m.ground = nil

	if len(errs) > 0 {
		return fmt.Errorf("detach ground: %w", errors.Join(errs...))
	}

	return nil
}

// AttachGround ties the detached ground links to floor, each anchor projected
// onto the new floor surface.
func (m *Manager) AttachGround(floor *actor.RigidBody) error {
	if floor == nil || !m.world.HasBody(floor) {
		return fmt.Errorf("attach ground: %w", helium.ErrUnknownBody)
	}
	m.ground = floor

	var errs []error
	for _, b := range m.balloons {
		if b.Linkage != LinkageGround || b.Link != nil || !b.HasString() {
			continue
		}

		anchor := projectOnFloor(floor, b.groundAnchor)
		joint := newGroundJoint(b.LastLink(), floor, anchor, b.segment, m.opts.GroundCompliance)
		if err := m.world.AddConstraint(joint); err != nil {
			errs = append(errs, err)
			b.Linkage = LinkageNone
			continue
		}
		b.Link = joint
		b.groundAnchor = anchor
	}

	if len(errs) > 0 {
		return fmt.Errorf("attach ground: %w", errors.Join(errs...))
	}

	return nil
}

// Find returns the balloon owning body, nil if none does
func (m *Manager) Find(body *actor.RigidBody) *Balloon {
	for _, b := range m.balloons {
		if b.Envelope == body || slices.Contains(b.Links, body) {
			return b
		}
	}

	return nil
}
