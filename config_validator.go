package main

import (
	"errors"
	"fmt"
)

// ValidateConfig applies structural checks to Config and populates defaults
// where required.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if cfg.NumProcesses < 2 {
		return fmt.Errorf("NumProcesses must be at least 2, got %d", cfg.NumProcesses)
	}
	if cfg.TransitStep <= 0 || cfg.TransitStep >= 1 {
		return fmt.Errorf("TransitStep must be within (0,1), got %.3f", cfg.TransitStep)
	}
	if cfg.RequestRate < 0 || cfg.RequestRate > 1 {
		return fmt.Errorf("RequestRate must be within [0,1], got %.3f", cfg.RequestRate)
	}

	if cfg.TotalSteps <= 0 {
		cfg.TotalSteps = 1000
	}
	if cfg.ReleaseAfter <= 0 {
		cfg.ReleaseAfter = 1
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.VisualMode == "" {
		if cfg.Headless {
			cfg.VisualMode = "none"
		} else {
			cfg.VisualMode = "web"
		}
	}

	return nil
}
