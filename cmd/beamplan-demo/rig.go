package main

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/beamplan-protocol/beamplan-go/internal/simdev"
	"github.com/beamplan-protocol/beamplan-go/pkg/device"
)

// rigConfig is the YAML structure of a rig file: the simulated motors and
// detectors making up an instrument.
type rigConfig struct {
	Motors    []motorConfig    `yaml:"motors"`
	Detectors []detectorConfig `yaml:"detectors"`
}

type motorConfig struct {
	Name   string   `yaml:"name"`
	Low    float64  `yaml:"low"`
	High   float64  `yaml:"high"`
	Labels []string `yaml:"labels"`
}

// detectorConfig describes a detector with a Gaussian response to one
// motor's position.
type detectorConfig struct {
	Name      string   `yaml:"name"`
	Motor     string   `yaml:"motor"`
	Center    float64  `yaml:"center"`
	Width     float64  `yaml:"width"`
	Amplitude float64  `yaml:"amplitude"`
	Labels    []string `yaml:"labels"`
}

// defaultRig is used when no config file is given: one motor and one
// detector peaked mid-travel.
var defaultRig = rigConfig{
	Motors: []motorConfig{
		{Name: "mtr1", Low: -10, High: 10, Labels: []string{"motors"}},
	},
	Detectors: []detectorConfig{
		{Name: "det1", Motor: "mtr1", Center: 2, Width: 1, Amplitude: 100, Labels: []string{"detectors"}},
	},
}

// loadRig reads a rig config file; an empty path yields the default rig.
func loadRig(path string) (rigConfig, error) {
	if path == "" {
		return defaultRig, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rigConfig{}, fmt.Errorf("failed to read rig config: %w", err)
	}
	var cfg rigConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return rigConfig{}, fmt.Errorf("failed to parse rig config: %w", err)
	}
	if len(cfg.Motors) == 0 {
		return rigConfig{}, fmt.Errorf("rig config declares no motors")
	}
	return cfg, nil
}

// buildNamespace instantiates the configured devices into a flat namespace.
func buildNamespace(cfg rigConfig) (map[string]device.Device, error) {
	ns := make(map[string]device.Device)
	motors := make(map[string]*simdev.Motor)

	for _, mc := range cfg.Motors {
		if _, dup := ns[mc.Name]; dup {
			return nil, fmt.Errorf("duplicate device name %q", mc.Name)
		}
		m := simdev.NewMotor(mc.Name, mc.Low, mc.High)
		if len(mc.Labels) > 0 {
			m.SetLabels(mc.Labels...)
		}
		ns[mc.Name] = m
		motors[mc.Name] = m
	}

	for _, dc := range cfg.Detectors {
		if _, dup := ns[dc.Name]; dup {
			return nil, fmt.Errorf("duplicate device name %q", dc.Name)
		}
		m, ok := motors[dc.Motor]
		if !ok {
			return nil, fmt.Errorf("detector %q references unknown motor %q", dc.Name, dc.Motor)
		}
		d := simdev.NewDetector(dc.Name, gaussian(m, dc))
		if len(dc.Labels) > 0 {
			d.SetLabels(dc.Labels...)
		}
		ns[dc.Name] = d
	}

	return ns, nil
}

// gaussian returns a signal function peaked at the configured center of the
// bound motor's travel.
func gaussian(m *simdev.Motor, dc detectorConfig) func() float64 {
	width := dc.Width
	if width == 0 {
		width = 1
	}
	amp := dc.Amplitude
	if amp == 0 {
		amp = 1
	}
	return func() float64 {
		pos, err := m.Position()
		if err != nil {
			return 0
		}
		x := (pos - dc.Center) / width
		return amp * math.Exp(-x*x/2)
	}
}
