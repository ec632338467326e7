package config

import "sort"

var Presets = map[string]func(*Config){
	// 10 ms at 60% duty from a barely turning rotor
	"reference": func(c *Config) {},
	"loaded": func(c *Config) {
		c.Motor.LoadTorque = 0.2
		c.Sim.Duration = 2e-2
	},
	"half-duty": func(c *Config) {
		c.PWM.Duty = 0.5
	},
	"speed-loop": func(c *Config) {
		c.Sim.Controller = "speed"
		c.Sim.Duration = 2e-2
		c.SpeedLoop.Target = 300
	},
	"coast": func(c *Config) {
		c.Sim.Controller = "coast"
		c.Sim.CoastAfter = 5e-3
	},
	"adaptive": func(c *Config) {
		c.Sim.Integrator = "rk45"
		c.Sim.Adaptive = true
		c.Sim.Tolerance = 1e-6
	},
}

// GetPreset returns a fresh copy of the defaults with the named preset
// applied, or nil when there is no such preset.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
