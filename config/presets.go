package config

import (
	"slices"

	"github.com/akmonengine/helium/balloon"
)

// Presets are named modifications of the default configuration
var Presets = map[string]func(c *Config){
	"calm": func(c *Config) {},
	"tethered": func(c *Config) {
		c.Linkage.Mode = balloon.LinkageGround.String()
		c.Stream.Enabled = true
		c.Stream.Delay = 30
		c.Balloon.SpawnJitter = 0.3
		c.Balloon.MaxBalloons = 8
	},
	"bouquet": func(c *Config) {
		c.Linkage.Mode = balloon.LinkageStringGroup.String()
		c.Stream.Enabled = true
		c.Balloon.SpawnJitter = 0.2
		c.Balloon.MaxBalloons = 12
	},
	"storm": func(c *Config) {
		c.Linkage.Mode = balloon.LinkageEnvelopeGroup.String()
		c.Gravity.AutoRotate = true
		c.Gravity.Speed = 2
		c.Gravity.Amplitude = 3
		c.Room.Spin = true
		c.Stream.Enabled = true
		c.Stream.Delay = 20
		c.Balloon.SpawnJitter = 0.4
		c.Balloon.MaxBalloons = 16
		c.Explosion.Force = 0.03
	},
	"no-strings": func(c *Config) {
		c.String.Enabled = false
		c.Linkage.Mode = balloon.LinkageEnvelopeGroup.String()
		c.Stream.Enabled = true
		c.Balloon.MaxBalloons = 20
	},
}

// GetPreset returns the default configuration modified by the named preset, nil if unknown
func GetPreset(name string) *Config {
	modify, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	modify(cfg)

	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
