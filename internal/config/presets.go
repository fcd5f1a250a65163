package config

import "sort"

var Presets = map[string]map[string]*Config{
	"pitch": {
		"nominal": {
			Scenario: "pitch", Integrator: "rk4", Period: 0.01, Duration: 10,
		},
		"noisy": {
			Scenario: "pitch", Integrator: "rk4", Period: 0.01, Duration: 10, Seed: 1,
			Params: map[string]float64{"sigma2": 1e-4},
		},
		"stiff": {
			Scenario: "pitch", Integrator: "rk4", Period: 0.01, Duration: 10,
			Params: map[string]float64{"Kp": -3},
		},
		"tumble": {
			Scenario: "pitch", Integrator: "rk4", Period: 0.01, Duration: 10,
			Params: map[string]float64{"thetaD0": 1.5},
		},
	},
	"pitch_multirate": {
		"slow": {
			Scenario: "pitch_multirate", Integrator: "rk4", Period: 0.01, Duration: 10,
			Params: map[string]float64{"control_period": 0.1},
		},
		"fast": {
			Scenario: "pitch_multirate", Integrator: "rk4", Period: 0.01, Duration: 10,
			Params: map[string]float64{"control_period": 0.02},
		},
	},
	"tf_step": {
		"underdamped": {
			Scenario: "tf_step", Integrator: "rk4", Period: 0.01, Duration: 5,
			Params: map[string]float64{"zeta": 0.1},
		},
		"critical": {
			Scenario: "tf_step", Integrator: "rk4", Period: 0.01, Duration: 5,
			Params: map[string]float64{"zeta": 1},
		},
	},
	"pid_loop": {
		"aggressive": {
			Scenario: "pid_loop", Integrator: "rk4", Period: 0.005, Duration: 5,
			Params: map[string]float64{"Kp": 5, "Ti": 0.2},
		},
		"gentle": {
			Scenario: "pid_loop", Integrator: "rk4", Period: 0.005, Duration: 10,
			Params: map[string]float64{"Kp": 0.5, "Ti": 2},
		},
	},
	"timer": {
		"decade": {
			Scenario: "timer", Integrator: "euler", Period: 0.05, Duration: 2,
			Params: map[string]float64{"max": 9},
		},
	},
}

func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
