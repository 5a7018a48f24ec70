package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/example/token_mutex_sim/plugins/tracelog"
)

func main() {
	var headless = flag.Bool("headless", false, "Run in headless mode (no web UI)")
	var benchmark = flag.Bool("benchmark", false, "Run performance benchmark test")
	var configName = flag.String("config", "", "Predefined configuration name (e.g., 'five_peers', 'contention')")
	var numProcesses = flag.Int("n", 0, "Override process count")
	var totalSteps = flag.Int("steps", 0, "Override total scheduling steps")
	var seed = flag.Int64("seed", 0, "Override demo driver seed (0 = time-based)")
	var addr = flag.String("addr", "", "Web driver listen address")
	var trace = flag.Bool("trace", false, "Log a trace line for every protocol event")
	var logLevel = flag.String("loglevel", "info", "Log level: error, warn, info, debug")
	flag.Parse()

	if level, err := ParseLogLevel(*logLevel); err != nil {
		fmt.Printf("Warning: %v, using info\n", err)
	} else {
		GetLogger().SetLevel(level)
	}

	if *benchmark {
		RunBenchmarkSuite()
		return
	}

	configs := GetPredefinedConfigs()
	var cfg *Config

	selectedConfigName := *configName
	if selectedConfigName == "" && len(configs) > 0 {
		selectedConfigName = configs[0].Name
	}

	if selectedConfigName != "" {
		cfg = GetConfigByName(selectedConfigName)
		if cfg == nil {
			fmt.Printf("Warning: Configuration '%s' not found, using default\n", selectedConfigName)
		}
	}

	if cfg == nil {
		cfg = &Config{
			NumProcesses: DefaultNumProcesses,
			TransitStep:  DefaultTransitStep,
			TotalSteps:   500,
			RequestRate:  0.2,
			ReleaseAfter: 3,
		}
	}

	cfg.Headless = *headless
	if *numProcesses > 0 {
		cfg.NumProcesses = *numProcesses
	}
	if *totalSteps > 0 {
		cfg.TotalSteps = *totalSteps
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *trace {
		cfg.Plugins = append(cfg.Plugins, tracelog.PluginName)
	}

	sim, err := NewSimulation(cfg)
	if err != nil {
		GetLogger().Errorf("invalid configuration: %v", err)
		return
	}

	if *headless {
		sim.Run()
		PrintStats(sim.Stats())
	} else {
		go sim.Run()

		// Keep main thread alive to serve HTTP requests.
		// The server is started by the web visualizer.
		for {
			time.Sleep(1 * time.Second)
		}
	}
}
