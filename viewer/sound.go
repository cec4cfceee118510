package viewer

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(48000)

// Sound plays the explosion pops. Every method is a no-op until Initialize succeeds.
type Sound struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

func NewSound() *Sound {
	return &Sound{mixer: &beep.Mixer{}}
}

// Initialize opens the audio device
func (s *Sound) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return err
	}
	speaker.Play(s.mixer)
	s.initialized = true

	return nil
}

// Pop plays a short burst, pitched by the size of the explosion
func (s *Sound) Pop(survivors int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	pitch := 220 + 40*float64(min(survivors, 10))
	speaker.Lock()
	s.mixer.Add(beep.Take(sampleRate.N(time.Millisecond*180), NewPopGenerator(sampleRate, pitch)))
	speaker.Unlock()
}

func (s *Sound) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	speaker.Clear()
	speaker.Close()
	s.initialized = false
}

// PopGenerator is a falling tone mixed with noise, with a fast decay
type PopGenerator struct {
	sr    beep.SampleRate
	pitch float64
	pos   int
	seed  uint32
}

func NewPopGenerator(sr beep.SampleRate, pitch float64) *PopGenerator {
	return &PopGenerator{sr: sr, pitch: pitch, seed: 0x2545f491}
}

func (g *PopGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		envelope := math.Exp(-t * 30)

		g.seed ^= g.seed << 13
		g.seed ^= g.seed >> 17
		g.seed ^= g.seed << 5
		noise := float64(g.seed)/float64(math.MaxUint32)*2 - 1

		frequency := g.pitch * math.Exp(-t*6)
		tone := math.Sin(2 * math.Pi * frequency * t)

		sample := envelope * (0.6*noise + 0.4*tone) * 0.5

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *PopGenerator) Err() error {
	return nil
}
