package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func parsed(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addSimFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(parsed(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PWM.Duty != 0.6 || cfg.Sim.Integrator != "rk4" || cfg.InitState.Omega != 1e-4 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestResolveConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	doc := []byte("pwm:\n  duty: 0.7\n  frequency: 20000\nsim:\n  integrator: euler\n")
	if err := os.WriteFile(path, doc, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveConfig(parsed(t, "--preset", "loaded", "--config", path, "--duty", "0.9"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Motor.LoadTorque != 0.2 {
		t.Errorf("preset lost: load = %g", cfg.Motor.LoadTorque)
	}
	if cfg.PWM.Frequency != 20000 || cfg.Sim.Integrator != "euler" {
		t.Errorf("file values lost: %+v %+v", cfg.PWM, cfg.Sim)
	}
	if cfg.PWM.Duty != 0.9 {
		t.Errorf("flag should win: duty = %g", cfg.PWM.Duty)
	}
}

func TestResolveConfigAdaptive(t *testing.T) {
	cfg, err := resolveConfig(parsed(t, "--adaptive"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Sim.Adaptive || cfg.Sim.Integrator != "rk45" {
		t.Errorf("adaptive should select rk45: %+v", cfg.Sim)
	}
}

func TestResolveConfigUnknownPreset(t *testing.T) {
	if _, err := resolveConfig(parsed(t, "--preset", "turbo")); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestParseAxis(t *testing.T) {
	name, vals, err := parseAxis("duty=0.2:1:5")
	if err != nil {
		t.Fatal(err)
	}
	if name != "duty" || len(vals) != 5 || vals[0] != 0.2 || vals[4] != 1 {
		t.Errorf("got %s %v", name, vals)
	}

	for _, bad := range []string{"duty", "duty=0.2:1", "duty=a:1:5", "duty=0:1:0", "duty=0:x:2"} {
		if _, _, err := parseAxis(bad); err == nil {
			t.Errorf("parseAxis(%q): expected error", bad)
		}
	}
}
