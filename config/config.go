// Package config holds the experiment's compile-time defaults and the
// optional YAML overlay described in SPEC_FULL.md 4.9, grounded on the
// teacher repo's viper+yaml.v3 FromYaml pattern.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/niceyeti/hmitrack/experiment"
	"github.com/niceyeti/hmitrack/plant"
)

// Destination is a UDP host/port pair.
type Destination struct {
	Host string
	Port int
}

// OperatorConfig configures the AutoPD device.
type OperatorConfig struct {
	Kp, Kd, Sigma float64
	Seed          int64
}

// KeyboardConfig configures the optional keyboard device.
type KeyboardConfig struct {
	Enabled bool
	Port    int
}

// ExperimentConfig is the full set of tunables named in spec.md 3.
type ExperimentConfig struct {
	ControlRateHz float64
	AxisX         plant.AxisParams
	AxisY         plant.AxisParams
	Destination   Destination
	Keyboard      KeyboardConfig
	Operator      OperatorConfig
	Task          experiment.TaskType
}

// Dt returns 1/ControlRateHz, satisfying the dt*rate=1 invariant exactly.
func (c ExperimentConfig) Dt() float64 {
	return 1.0 / c.ControlRateHz
}

// Default returns the spec.md 3 default configuration: 1000 Hz,
// M=1, B=5, K=0 on both axes, destination 127.0.0.1:12345, keyboard
// disabled on 12346, AutoPD with the spec.md 4.2 default gains, SoS task.
func Default() ExperimentConfig {
	axis := plant.AxisParams{Mass: 1, Damping: 5, Stiffness: 0}
	return ExperimentConfig{
		ControlRateHz: 1000,
		AxisX:         axis,
		AxisY:         axis,
		Destination:   Destination{Host: "127.0.0.1", Port: 12345},
		Keyboard:      KeyboardConfig{Enabled: false, Port: 12346},
		Operator: OperatorConfig{
			Kp:    operatorDefaultKp,
			Kd:    operatorDefaultKd,
			Sigma: operatorDefaultSigma,
		},
		Task: experiment.SoS,
	}
}

// These mirror operator.DefaultKp/Kd/Sigma without importing the operator
// package here, keeping config free of the operator/plant device wiring
// concern (the loop package wires the two together).
const (
	operatorDefaultKp    = 10.0
	operatorDefaultKd    = 5.0
	operatorDefaultSigma = 0.1
)

// fileAxis and fileConfig mirror the YAML schema in SPEC_FULL.md 3.
// Fields are pointers so "absent" is distinguishable from "zero" when
// merging onto defaults, the same overlay discipline the teacher's
// TrainingConfig/HyperParameter pair uses. Tags are lowercase because
// viper lowercases every key before AllSettings hands them back.
type fileAxis struct {
	Mass      *float64 `yaml:"mass"`
	Damping   *float64 `yaml:"damping"`
	Stiffness *float64 `yaml:"stiffness"`
}

type fileDestination struct {
	Host *string `yaml:"host"`
	Port *int    `yaml:"port"`
}

type fileKeyboard struct {
	Enabled *bool `yaml:"enabled"`
	Port    *int  `yaml:"port"`
}

type fileOperator struct {
	Kp    *float64 `yaml:"kp"`
	Kd    *float64 `yaml:"kd"`
	Sigma *float64 `yaml:"sigma"`
	Seed  *int64   `yaml:"seed"`
}

type fileAxes struct {
	X *fileAxis `yaml:"x"`
	Y *fileAxis `yaml:"y"`
}

type fileConfig struct {
	ControlRateHz *float64         `yaml:"controlratehz"`
	Axis          *fileAxes        `yaml:"axis"`
	Destination   *fileDestination `yaml:"destination"`
	Keyboard      *fileKeyboard    `yaml:"keyboard"`
	Operator      *fileOperator    `yaml:"operator"`
	Task          *string          `yaml:"task"`
}

// LoadYAML reads path and merges its fields onto Default(), returning the
// merged config and whether the task string (if present) was recognized.
// A missing field keeps the compiled-in default; this is a merge, not a
// wholesale replace. Read/parse failure is returned as an error (the
// caller treats this the way spec.md 7 treats construction errors: fatal
// before the loop begins, since a named-but-unreadable config file is
// almost certainly an operator mistake worth surfacing).
func LoadYAML(path string) (ExperimentConfig, bool, error) {
	cfg := Default()

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return cfg, true, fmt.Errorf("config: read %s: %w", path, err)
	}

	raw, err := yaml.Marshal(vp.AllSettings())
	if err != nil {
		return cfg, true, fmt.Errorf("config: remarshal %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, true, fmt.Errorf("config: decode %s: %w", path, err)
	}

	taskRecognized := true
	applyOverlay(&cfg, fc, &taskRecognized)
	return cfg, taskRecognized, nil
}

func applyOverlay(cfg *ExperimentConfig, fc fileConfig, taskRecognized *bool) {
	if fc.ControlRateHz != nil {
		cfg.ControlRateHz = *fc.ControlRateHz
	}
	if fc.Axis != nil {
		if fc.Axis.X != nil {
			applyAxisOverlay(&cfg.AxisX, fc.Axis.X)
		}
		if fc.Axis.Y != nil {
			applyAxisOverlay(&cfg.AxisY, fc.Axis.Y)
		}
	}
	if fc.Destination != nil {
		if fc.Destination.Host != nil {
			cfg.Destination.Host = *fc.Destination.Host
		}
		if fc.Destination.Port != nil {
			cfg.Destination.Port = *fc.Destination.Port
		}
	}
	if fc.Keyboard != nil {
		if fc.Keyboard.Enabled != nil {
			cfg.Keyboard.Enabled = *fc.Keyboard.Enabled
		}
		if fc.Keyboard.Port != nil {
			cfg.Keyboard.Port = *fc.Keyboard.Port
		}
	}
	if fc.Operator != nil {
		if fc.Operator.Kp != nil {
			cfg.Operator.Kp = *fc.Operator.Kp
		}
		if fc.Operator.Kd != nil {
			cfg.Operator.Kd = *fc.Operator.Kd
		}
		if fc.Operator.Sigma != nil {
			cfg.Operator.Sigma = *fc.Operator.Sigma
		}
		if fc.Operator.Seed != nil {
			cfg.Operator.Seed = *fc.Operator.Seed
		}
	}
	if fc.Task != nil {
		if t, ok := experiment.ParseTaskType(*fc.Task); ok {
			cfg.Task = t
		} else {
			*taskRecognized = false
		}
	}
}

func applyAxisOverlay(axis *plant.AxisParams, fa *fileAxis) {
	if fa.Mass != nil {
		axis.Mass = *fa.Mass
	}
	if fa.Damping != nil {
		axis.Damping = *fa.Damping
	}
	if fa.Stiffness != nil {
		axis.Stiffness = *fa.Stiffness
	}
}
