// Command benchmark runs the psxsim timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results in JSON format
//	-no-icache  Disable instruction cache simulation
//	-timing     Path to a timing configuration JSON file
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// The benchmark results can be compared against console measurements to
// calibrate the timing model.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/psxsim/benchmarks"
	"github.com/sarchlab/psxsim/report"
	"github.com/sarchlab/psxsim/timing/latency"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	noICache := flag.Bool("no-icache", false, "Disable instruction cache simulation")
	timingPath := flag.String("timing", "", "Path to timing configuration JSON file")
	verbose := flag.Bool("v", false, "Log each benchmark as it completes")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	config := benchmarks.DefaultConfig()
	config.EnableICache = !*noICache
	config.Output = os.Stdout
	config.Logger = logger
	config.Verbose = *verbose
	config.Printer = report.NewPrinter(logger)

	if *timingPath != "" {
		timing, err := latency.LoadConfig(*timingPath)
		if err != nil {
			logger.WithError(err).Fatal("benchmark: loading timing config")
		}
		if err := timing.Validate(); err != nil {
			logger.WithError(err).Fatal("benchmark: invalid timing config")
		}
		config.Timing = timing
	}

	harness := benchmarks.NewHarness(config)
	harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())

	if !*csvOutput && !*jsonOutput {
		fmt.Println("psxsim Timing Benchmark Harness")
		fmt.Println("===============================")
		fmt.Printf("I-Cache: %v\n", config.EnableICache)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			logger.WithError(err).Fatal("benchmark: writing JSON")
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		fmt.Println("=== Summary ===")
		fmt.Println("")
		fmt.Println("Expected characteristics:")
		fmt.Println("- dependency_chain: same cost as arithmetic_sequential, no interlocks")
		fmt.Println("- memory_sequential: RAM latency on every load")
		fmt.Println("- scratchpad_sequential: no data region cost")
		fmt.Println("- multiply_divide: dominated by the divider")
		fmt.Println("- uncached_loop: RAM fetch on every instruction")
	}
}
