package main

import (
	"fmt"
	"time"
)

// BenchmarkResult stores performance test results.
type BenchmarkResult struct {
	TotalSteps      int
	TotalDuration   time.Duration
	StepsPerSec     float64
	DurationPerStep time.Duration
}

// RunBenchmark measures headless engine throughput for the given step count.
func RunBenchmark(testSteps int, cfg *Config) (*BenchmarkResult, error) {
	benchCfg := *cfg
	benchCfg.Headless = true
	benchCfg.VisualMode = "none"
	benchCfg.TotalSteps = testSteps

	sim, err := NewSimulation(&benchCfg)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	sim.Run()
	duration := time.Since(startTime)

	return &BenchmarkResult{
		TotalSteps:      testSteps,
		TotalDuration:   duration,
		StepsPerSec:     float64(testSteps) / duration.Seconds(),
		DurationPerStep: duration / time.Duration(testSteps),
	}, nil
}

// RunBenchmarkSuite runs the throughput test at several step counts.
func RunBenchmarkSuite() {
	fmt.Println("=== Headless Mode Performance Benchmark ===")
	fmt.Println()

	baseCfg := &Config{
		NumProcesses: 8,
		TransitStep:  0.25,
		RequestRate:  0.5,
		ReleaseAfter: 2,
		Seed:         1,
		Headless:     true,
		VisualMode:   "none",
	}

	testSizes := []int{10000, 50000, 100000}
	iterations := 3

	for _, steps := range testSizes {
		fmt.Printf("Testing with %d steps (running %d iterations)...\n", steps, iterations)

		var totalStepsPerSec float64
		var totalDuration time.Duration

		for i := 0; i < iterations; i++ {
			result, err := RunBenchmark(steps, baseCfg)
			if err != nil {
				fmt.Printf("  benchmark failed: %v\n", err)
				return
			}
			totalStepsPerSec += result.StepsPerSec
			totalDuration += result.TotalDuration
		}

		avgStepsPerSec := totalStepsPerSec / float64(iterations)
		avgDuration := totalDuration / time.Duration(iterations)
		fmt.Printf("  avg: %.0f steps/sec (%.2fs per run)\n", avgStepsPerSec, avgDuration.Seconds())
		fmt.Println()
	}
}
