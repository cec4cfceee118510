package balloon

import (
	"errors"
	"slices"
	"testing"

	"github.com/akmonengine/helium"
	"github.com/akmonengine/helium/constraint"
	"github.com/akmonengine/helium/room"
	"github.com/go-gl/mathgl/mgl64"
)

type recordingVisuals struct {
	attached []uint64
	detached []uint64
}

func (v *recordingVisuals) Attach(b *Balloon) Handle {
	v.attached = append(v.attached, b.ID)
	return b.ID
}

func (v *recordingVisuals) Detach(handle Handle) {
	v.detached = append(v.detached, handle.(uint64))
}

func managedBodies(m *Manager) int {
	count := 0
	for _, b := range m.Balloons() {
		count += len(b.Bodies())
	}

	return count
}

// ============================================================================
// Registry Tests
// ============================================================================

func TestManager_AddBalloon(t *testing.T) {
	world := helium.NewWorld()
	visuals := &recordingVisuals{}
	m := NewManager(world, DefaultOptions())
	m.SetVisuals(visuals)

	first, err := m.AddBalloon()
	if err != nil {
		t.Fatalf("AddBalloon() error = %v", err)
	}
	second, err := m.AddBalloon()
	if err != nil {
		t.Fatalf("AddBalloon() error = %v", err)
	}

	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if m.Preceding() != first {
		t.Error("the first balloon should stay the preceding one")
	}
	if first.ID == second.ID {
		t.Error("balloons should get distinct IDs")
	}
	if len(world.Bodies()) != managedBodies(m) {
		t.Errorf("world bodies = %d, managed = %d", len(world.Bodies()), managedBodies(m))
	}
	if len(world.Constraints()) != len(first.Constraints())+len(second.Constraints()) {
		t.Errorf("world joints = %d, want %d", len(world.Constraints()),
			len(first.Constraints())+len(second.Constraints()))
	}
	if !slices.Equal(visuals.attached, []uint64{first.ID, second.ID}) {
		t.Errorf("attached visuals = %v", visuals.attached)
	}
	if first.Visual != first.ID {
		t.Errorf("Visual = %v, want the handle returned by Attach", first.Visual)
	}
	if m.Find(second.LastLink()) != second || m.Find(first.Envelope) != first {
		t.Error("Find() should return the owner of a body")
	}
	assertConsistent(t, world)
}

func TestManager_AddBalloonInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.String.Slices = 0
	world := helium.NewWorld()
	m := NewManager(world, opts)

	if _, err := m.AddBalloon(); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("AddBalloon() error = %v, want ErrInvalidOptions", err)
	}
	if len(world.Bodies()) != 0 || len(world.Constraints()) != 0 || m.Len() != 0 {
		t.Error("a failed AddBalloon should leave nothing behind")
	}
}

func TestManager_SpawnJitterIsSeeded(t *testing.T) {
	opts := DefaultOptions()
	opts.String.Enabled = false
	opts.SpawnJitter = 0.1
	opts.Seed = 7

	positions := func() []mgl64.Vec3 {
		m := NewManager(helium.NewWorld(), opts)
		var out []mgl64.Vec3
		for range 3 {
			b, err := m.AddBalloon()
			if err != nil {
				t.Fatalf("AddBalloon() error = %v", err)
			}
			out = append(out, b.Position())
		}
		return out
	}

	a, b := positions(), positions()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("spawn %d differs with the same seed: %v != %v", i, a[i], b[i])
		}
		if a[i].Sub(opts.Spawn).Len() > 0.1*1.8 {
			t.Errorf("spawn %d = %v is outside the jitter box", i, a[i])
		}
	}
}

func TestManager_Remove(t *testing.T) {
	world := helium.NewWorld()
	visuals := &recordingVisuals{}
	m := NewManager(world, DefaultOptions())
	m.SetVisuals(visuals)

	var balloons []*Balloon
	for range 3 {
		b, err := m.AddBalloon()
		if err != nil {
			t.Fatalf("AddBalloon() error = %v", err)
		}
		balloons = append(balloons, b)
	}

	removed := balloons[1]
	if err := m.Remove(removed); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	for _, body := range removed.Bodies() {
		if world.HasBody(body) {
			t.Errorf("body %d still registered", body.ID)
		}
	}
	for _, joint := range removed.Constraints() {
		if world.HasConstraint(joint) {
			t.Error("joint still registered")
		}
	}
	if m.Contains(removed) || m.Len() != 2 {
		t.Errorf("registry still holds the balloon, Len() = %d", m.Len())
	}
	if !slices.Equal(visuals.detached, []uint64{removed.ID}) {
		t.Errorf("detached visuals = %v, want [%d]", visuals.detached, removed.ID)
	}
	if len(world.Bodies()) != managedBodies(m) {
		t.Errorf("world bodies = %d, managed = %d", len(world.Bodies()), managedBodies(m))
	}
	assertConsistent(t, world)

	if err := m.Remove(removed); !errors.Is(err, ErrUnknownBalloon) {
		t.Errorf("second Remove() error = %v, want ErrUnknownBalloon", err)
	}
}

func TestManager_Reset(t *testing.T) {
	world := helium.NewWorld()
	r := newRoom(t, world, 16.0/9.0)

	opts := DefaultOptions()
	opts.Linkage = LinkageStringGroup
	visuals := &recordingVisuals{}
	m := NewManager(world, opts)
	m.SetVisuals(visuals)
	m.SetGround(r.Floor())

	for range 4 {
		if _, err := m.AddBalloon(); err != nil {
			t.Fatalf("AddBalloon() error = %v", err)
		}
	}

	for i := range 2 {
		if err := m.Reset(); err != nil {
			t.Fatalf("Reset() #%d error = %v", i, err)
		}
	}

	if m.Len() != 0 || m.Preceding() != nil {
		t.Error("Reset() should clear the registry and the preceding balloon")
	}
	if len(world.Constraints()) != 0 {
		t.Errorf("world joints = %d, want 0", len(world.Constraints()))
	}
	if len(world.Bodies()) != len(r.Bodies()) {
		t.Errorf("world bodies = %d, want only the %d walls", len(world.Bodies()), len(r.Bodies()))
	}
	if len(visuals.detached) != 4 {
		t.Errorf("detached visuals = %d, want 4", len(visuals.detached))
	}

	b, err := m.AddBalloon()
	if err != nil {
		t.Fatalf("AddBalloon() after Reset() error = %v", err)
	}
	if m.Preceding() != b {
		t.Error("the first balloon after a reset should become the preceding one")
	}
}

func TestManager_MaxBalloons(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxBalloons = 2
	world := helium.NewWorld()
	m := NewManager(world, opts)

	var balloons []*Balloon
	for range 3 {
		b, err := m.AddBalloon()
		if err != nil {
			t.Fatalf("AddBalloon() error = %v", err)
		}
		balloons = append(balloons, b)
	}

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if m.Contains(balloons[0]) || world.HasBody(balloons[0].Envelope) {
		t.Error("the oldest balloon should have been evicted")
	}
	if m.Preceding() != balloons[1] {
		t.Error("the oldest survivor should become the preceding balloon")
	}
	assertConsistent(t, world)
}

// ============================================================================
// Linkage Tests
// ============================================================================

func TestManager_Linkage(t *testing.T) {
	tests := []struct {
		name       string
		mode       LinkageMode
		withString bool
		withRoom   bool
		wantFirst  LinkageMode
		wantSecond LinkageMode
	}{
		{"none", LinkageNone, true, true, LinkageNone, LinkageNone},
		{"ground", LinkageGround, true, true, LinkageGround, LinkageGround},
		{"ground without floor", LinkageGround, true, false, LinkageNone, LinkageNone},
		{"ground without string", LinkageGround, false, true, LinkageNone, LinkageNone},
		{"string group", LinkageStringGroup, true, false, LinkageNone, LinkageStringGroup},
		{"string group without string", LinkageStringGroup, false, false, LinkageNone, LinkageNone},
		{"envelope group", LinkageEnvelopeGroup, true, false, LinkageNone, LinkageEnvelopeGroup},
		{"envelope group without string", LinkageEnvelopeGroup, false, false, LinkageNone, LinkageEnvelopeGroup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := helium.NewWorld()
			opts := DefaultOptions()
			opts.Linkage = tt.mode
			opts.String.Enabled = tt.withString
			m := NewManager(world, opts)
			if tt.withRoom {
				m.SetGround(newRoom(t, world, 16.0/9.0).Floor())
			}

			first, err := m.AddBalloon()
			if err != nil {
				t.Fatalf("AddBalloon() error = %v", err)
			}
			second, err := m.AddBalloon()
			if err != nil {
				t.Fatalf("AddBalloon() error = %v", err)
			}

			for _, check := range []struct {
				b    *Balloon
				want LinkageMode
			}{{first, tt.wantFirst}, {second, tt.wantSecond}} {
				if check.b.Linkage != check.want {
					t.Errorf("balloon %d linkage = %v, want %v", check.b.ID, check.b.Linkage, check.want)
				}
				if (check.b.Link != nil) != (check.want != LinkageNone) {
					t.Errorf("balloon %d link = %v with linkage %v", check.b.ID, check.b.Link, check.b.Linkage)
				}
				if got, want := len(check.b.Constraints()), len(check.b.StringJoints); check.b.Link != nil && got != want+1 {
					t.Errorf("balloon %d owns %d joints, want %d", check.b.ID, got, want+1)
				}
			}

			if tt.wantSecond == LinkageStringGroup || tt.wantSecond == LinkageEnvelopeGroup {
				if second.Peer() != first {
					t.Error("group link should point to the preceding balloon")
				}
			}
			assertConsistent(t, world)
		})
	}
}

func TestManager_GroundAnchorBelowString(t *testing.T) {
	world := helium.NewWorld()
	r := newRoom(t, world, 16.0/9.0)
	opts := DefaultOptions()
	opts.Linkage = LinkageGround
	m := NewManager(world, opts)
	m.SetGround(r.Floor())

	b, err := m.AddBalloon()
	if err != nil {
		t.Fatalf("AddBalloon() error = %v", err)
	}

	end, anchor := b.Link.WorldPivots()
	if !almostEqual(anchor.Y(), -r.Dimensions().Height/2, 1e-9) {
		t.Errorf("anchor y = %v, want the floor at %v", anchor.Y(), -r.Dimensions().Height/2)
	}
	if !almostEqual(anchor.X(), end.X(), 1e-9) || !almostEqual(anchor.Z(), end.Z(), 1e-9) {
		t.Errorf("anchor %v is not directly below the string end %v", anchor, end)
	}
}

func TestManager_RemovePrecedingTearsGroupLinks(t *testing.T) {
	world := helium.NewWorld()
	opts := DefaultOptions()
	opts.Linkage = LinkageEnvelopeGroup
	m := NewManager(world, opts)

	var balloons []*Balloon
	for range 3 {
		b, err := m.AddBalloon()
		if err != nil {
			t.Fatalf("AddBalloon() error = %v", err)
		}
		balloons = append(balloons, b)
	}
	links := []*Balloon{balloons[1], balloons[2]}
	joints := []*constraint.PointToPoint{balloons[1].Link, balloons[2].Link}

	if err := m.Remove(balloons[0]); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	for i, b := range links {
		if b.Link != nil || b.Linkage != LinkageNone || b.Peer() != nil {
			t.Errorf("balloon %d should have lost its group link", b.ID)
		}
		if world.HasConstraint(joints[i]) {
			t.Errorf("group joint of balloon %d still registered", b.ID)
		}
	}
	if m.Preceding() != balloons[1] {
		t.Error("the oldest survivor should become the preceding balloon")
	}
	assertConsistent(t, world)

	b, err := m.AddBalloon()
	if err != nil {
		t.Fatalf("AddBalloon() error = %v", err)
	}
	if b.Peer() != balloons[1] {
		t.Error("new balloons should link to the new preceding balloon")
	}
}

func TestManager_GroundReanchor(t *testing.T) {
	world := helium.NewWorld()
	r := newRoom(t, world, 16.0/9.0)
	opts := DefaultOptions()
	opts.Linkage = LinkageGround
	m := NewManager(world, opts)
	m.SetGround(r.Floor())

	b, err := m.AddBalloon()
	if err != nil {
		t.Fatalf("AddBalloon() error = %v", err)
	}
	oldFloor := r.Floor()

	// The floor cannot go while a ground link holds it
	wider := room.Fit(newTestCamera(4.0/3.0), 2)
	if err := r.Build(wider); !errors.Is(err, helium.ErrBodyConstrained) {
		t.Fatalf("Build() with a tied floor error = %v, want ErrBodyConstrained", err)
	}
	if !world.HasBody(oldFloor) {
		t.Fatal("the tied floor should still be registered")
	}

	if err := m.DetachGround(); err != nil {
		t.Fatalf("DetachGround() error = %v", err)
	}
	if b.Link != nil || b.Linkage != LinkageGround {
		t.Errorf("detached balloon link = %v, linkage = %v", b.Link, b.Linkage)
	}
	if err := r.Build(wider); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if world.HasBody(oldFloor) {
		t.Error("the old floor should be gone")
	}

	if err := m.AttachGround(r.Floor()); err != nil {
		t.Fatalf("AttachGround() error = %v", err)
	}
	if b.Link == nil {
		t.Fatal("ground link should be re-created")
	}
	if _, floor := b.Link.Bodies(); floor != r.Floor() {
		t.Error("ground link should reference the new floor")
	}
	_, anchor := b.Link.WorldPivots()
	if !almostEqual(anchor.Y(), -r.Dimensions().Height/2, 1e-9) {
		t.Errorf("anchor y = %v, want the new floor at %v", anchor.Y(), -r.Dimensions().Height/2)
	}
	assertConsistent(t, world)
	if len(world.Bodies()) != managedBodies(m)+len(r.Bodies()) {
		t.Errorf("world bodies = %d, want %d", len(world.Bodies()), managedBodies(m)+len(r.Bodies()))
	}
}

func TestManager_AttachGroundUnknownFloor(t *testing.T) {
	m := NewManager(helium.NewWorld(), DefaultOptions())
	if err := m.AttachGround(nil); !errors.Is(err, helium.ErrUnknownBody) {
		t.Errorf("AttachGround(nil) error = %v, want ErrUnknownBody", err)
	}
}

// ============================================================================
// Streaming Tests
// ============================================================================

func TestManager_TickCadence(t *testing.T) {
	opts := DefaultOptions()
	opts.String.Enabled = false
	opts.StreamEnabled = true
	opts.StreamDelay = 10
	m := NewManager(helium.NewWorld(), opts)

	var created []int
	for tick := range 30 {
		b, err := m.Tick()
		if err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
		if b != nil {
			created = append(created, tick)
		}
	}

	if want := []int{0, 10, 20}; !slices.Equal(created, want) {
		t.Errorf("balloons created at ticks %v, want %v", created, want)
	}
}

func TestManager_TickDisabledFreezesCooldown(t *testing.T) {
	opts := DefaultOptions()
	opts.String.Enabled = false
	opts.StreamEnabled = true
	opts.StreamDelay = 10
	m := NewManager(helium.NewWorld(), opts)

	for range 5 {
		if _, err := m.Tick(); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}

	opts.StreamEnabled = false
	if err := m.SetOptions(opts); err != nil {
		t.Fatalf("SetOptions() error = %v", err)
	}
	for range 50 {
		if b, _ := m.Tick(); b != nil {
			t.Fatal("Tick() created a balloon while streaming is disabled")
		}
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}

	opts.StreamEnabled = true
	if err := m.SetOptions(opts); err != nil {
		t.Fatalf("SetOptions() error = %v", err)
	}
	ticks := 0
	for m.Len() == 1 && ticks < 20 {
		if _, err := m.Tick(); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
		ticks++
	}

	if ticks != 6 {
		t.Errorf("next balloon after %d ticks, want 6", ticks)
	}
}
