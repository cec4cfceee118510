// Package viewer renders a scene in the terminal and turns mouse clicks into
// explosions.
package viewer

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/akmonengine/helium/balloon"
	"github.com/akmonengine/helium/scene"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

const frameInterval = 16 * time.Millisecond

var palette = []tcell.Color{
	tcell.ColorRed,
	tcell.ColorOrange,
	tcell.ColorYellow,
	tcell.ColorLime,
	tcell.ColorAqua,
	tcell.ColorFuchsia,
	tcell.ColorPink,
}

type Viewer struct {
	scene  *scene.Scene
	screen tcell.Screen
	sound  *Sound
	logger *slog.Logger

	surface   surface
	nextColor int
	pressed   bool
	message   string
}

// New creates a viewer and registers it as the presentation of the scene balloons
func New(s *scene.Scene, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	v := &Viewer{
		scene:  s,
		sound:  NewSound(),
		logger: logger,
	}
	s.Balloons.SetVisuals(v)

	return v
}

// Attach gives each new balloon the next colour of the palette
func (v *Viewer) Attach(b *balloon.Balloon) balloon.Handle {
	color := palette[v.nextColor%len(palette)]
	v.nextColor++

	return color
}

func (v *Viewer) Detach(handle balloon.Handle) {}

// Run draws frames until ctx is done or the user quits
func (v *Viewer) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	screen.EnableMouse()
	screen.HideCursor()
	v.screen = screen
	v.resize(screen.Size())

	// Audio is optional: the viewer runs silent without a device
	if err := v.sound.Initialize(); err != nil {
		v.logger.Warn("audio disabled", "error", err)
	}
	defer v.sound.Close()

	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if v.handle(ev) {
				return nil
			}
		case now := <-ticker.C:
			if err := v.scene.Update(now.Sub(start).Seconds()); err != nil {
				v.message = err.Error()
			}
			v.draw()
		}
	}
}

func (v *Viewer) resize(width, height int) {
	v.surface = surface{width: width, height: height}
	v.scene.Resize(width, height*cellAspect)
}

// handle processes one terminal event, it returns true to quit
func (v *Viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.resize(ev.Size())
		v.screen.Sync()
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return true
		}
		if ev.Key() == tcell.KeyRune {
			return v.handleRune(ev.Rune())
		}
	case *tcell.EventMouse:
		pressed := ev.Buttons()&tcell.Button1 != 0
		if pressed && !v.pressed {
			v.click(ev.Position())
		}
		v.pressed = pressed
	}

	return false
}

func (v *Viewer) click(x, y int) {
	ndcX, ndcY := v.surface.toNDC(x, y)

	result, ok, err := v.scene.Click(ndcX, ndcY)
	switch {
	case err != nil:
		v.message = err.Error()
		v.logger.Warn("explosion failed", "error", err)
	case ok:
		v.sound.Pop(len(result.Impulsed))
		v.message = fmt.Sprintf("popped balloon %d", result.Hit.Balloon.ID)
	}
}

// handleRune applies a key binding, it returns true to quit
func (v *Viewer) handleRune(r rune) bool {
	cfg := v.scene.Config()

	switch r {
	case 'q':
		return true
	case 'a':
		if _, err := v.scene.AddBalloon(); err != nil {
			v.message = err.Error()
		}
		return false
	case 'r':
		if err := v.scene.Reset(); err != nil {
			v.message = err.Error()
		}
		return false
	case '0':
		v.scene.Room.ResetSpin()
		return false
	case 's':
		cfg.Stream.Enabled = !cfg.Stream.Enabled
	case 'g':
		cfg.Gravity.AutoRotate = !cfg.Gravity.AutoRotate
	case 'e':
		cfg.Explosion.Enabled = !cfg.Explosion.Enabled
	case 't':
		cfg.String.Enabled = !cfg.String.Enabled
	case 'w':
		cfg.Room.Spin = !cfg.Room.Spin
	case 'l':
		mode, err := cfg.LinkageMode()
		if err != nil {
			v.message = err.Error()
			return false
		}
		cfg.Linkage.Mode = mode.Next().String()
	default:
		return false
	}

	if err := v.scene.ApplyConfig(cfg); err != nil {
		v.message = err.Error()
	}

	return false
}

func (v *Viewer) draw() {
	v.screen.Clear()
	cam := v.scene.Camera

	wall := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for _, edge := range roomEdges(v.scene.Room) {
		v.drawSegment(cam, edge[0], edge[1], '·', wall)
	}

	// Far balloons first
	balloons := slices.Clone(v.scene.Balloons.Balloons())
	slices.SortFunc(balloons, func(a, b *balloon.Balloon) int {
		return cmp.Compare(a.Position().Z(), b.Position().Z())
	})

	str := tcell.StyleDefault.Foreground(tcell.ColorSilver)
	for _, b := range balloons {
		previous := b.Envelope.PointToWorld(balloon.LowerAnchor)
		for _, position := range b.StringPositions() {
			v.drawSegment(cam, previous, position, '.', str)
			previous = position
		}

		color := tcell.ColorRed
		if c, ok := b.Visual.(tcell.Color); ok {
			color = c
		}

		center := b.Center()
		ndc, visible := cam.Project(center)
		if !visible {
			continue
		}
		rim, _ := cam.Project(center.Add(mgl64.Vec3{balloon.EnvelopeRadius, 0, 0}))
		cx, cy := v.surface.toCell(ndc)
		rx, _ := v.surface.toCell(rim)

		style := tcell.StyleDefault.Foreground(color)
		for _, cell := range disc(cx, cy, float64(abs(rx-cx))) {
			v.set(cell[0], cell[1], '█', style)
		}
	}

	v.drawStatus()
	v.screen.Show()
}

func (v *Viewer) drawStatus() {
	stats := v.scene.Stats()
	cfg := v.scene.Config()
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)

	status := fmt.Sprintf(" balloons %d  bodies %d  joints %d  linkage %s  stream %s  string %s  gravity %s  spin %s  t=%.1fs",
		stats.Balloons, stats.Bodies, stats.Joints, cfg.Linkage.Mode,
		onOff(cfg.Stream.Enabled), onOff(cfg.String.Enabled),
		onOff(cfg.Gravity.AutoRotate), onOff(cfg.Room.Spin), stats.Time)
	keys := " [a]dd [r]eset [s]tream [l]inkage [g]ravity [t]string [e]xplode [w]spin [0] [q]uit  " + v.message

	for x := 0; x < v.surface.width; x++ {
		v.set(x, v.surface.height-2, ' ', style)
		v.set(x, v.surface.height-1, ' ', style)
	}
	v.print(0, v.surface.height-2, status, style)
	v.print(0, v.surface.height-1, keys, style)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
