// Package benchmarks provides the timing benchmark harness used to
// calibrate the cycle model against console measurements.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"

	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/cop0"
	"github.com/sarchlab/psxsim/emu"
	"github.com/sarchlab/psxsim/insts"
	"github.com/sarchlab/psxsim/machine"
	"github.com/sarchlab/psxsim/report"
	"github.com/sarchlab/psxsim/timing/latency"
)

// DefaultBase is where benchmark programs are placed unless they ask for
// another address: cached KSEG0 RAM.
const DefaultBase = uint32(0x80001000)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing model
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// MemoryCycles is the part of the cycles spent on data region access
	MemoryCycles uint64 `json:"memory_cycles"`

	// ICacheHits/Misses (if cache enabled)
	ICacheHits   uint64 `json:"icache_hits,omitempty"`
	ICacheMisses uint64 `json:"icache_misses,omitempty"`

	// ExitCode is $v0 when the program reached its BREAK
	ExitCode uint32 `json:"exit_code"`

	// Error is set when the program halted instead of reaching BREAK
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Base is the load and entry address. Zero means DefaultBase.
	Base uint32

	// Setup prepares CPU state before the run
	Setup func(cpu *emu.CPU)

	// Program is the MIPS code to execute. It must end in BREAK.
	Program []insts.Instruction

	// ExpectedExit is the expected $v0 (for validation)
	ExpectedExit uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableICache enables instruction cache simulation
	EnableICache bool

	// Timing overrides the default cycle costs
	Timing *latency.TimingConfig

	// MaxInstructions bounds runaway programs
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Printer formats human-readable numbers (default: en-US)
	Printer *message.Printer

	// Logger receives machine logs (default: discarded)
	Logger *logrus.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableICache:    true,
		MaxInstructions: 100000,
		Output:          os.Stdout,
		Verbose:         false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Printer == nil {
		config.Printer = report.EnglishPrinter()
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
		config.Logger.SetOutput(io.Discard)
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			h.config.Logger.WithFields(logrus.Fields{
				"name":   result.Name,
				"cycles": result.SimulatedCycles,
				"exit":   result.ExitCode,
			}).Info("benchmarks: done")
		}
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh machine.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	m, err := machine.New(
		machine.WithLogger(h.config.Logger),
		machine.WithICache(h.config.EnableICache),
		machine.WithTimingConfig(h.config.Timing),
		machine.WithMaxInstructions(h.config.MaxInstructions),
	)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if h.config.EnableICache {
		m.CacheControl.Set(machine.BootCacheControl)
	}

	base := bench.Base
	if base == 0 {
		base = DefaultBase
	}
	copy(m.RAM.Bytes()[bus.MaskRegion(base):], insts.Bytes(bench.Program...))

	m.CPU.SetPC(base)
	if bench.Setup != nil {
		bench.Setup(m.CPU)
	}

	start := time.Now()
	for m.Core.Tick() {
		last := m.Core.Last()
		if last.Raised && last.Exception == cop0.ExcBreak {
			break
		}
	}
	result.WallTime = time.Since(start)

	if err := m.Core.Err(); err != nil {
		result.Error = err.Error()
	}

	stats := m.Core.Stats()
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.MemoryCycles = stats.MemoryCycles
	result.ICacheHits = stats.ICacheHits
	result.ICacheMisses = stats.ICacheMisses
	result.ExitCode = m.CPU.Reg(regV0)

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w, p := h.config.Output, h.config.Printer

	_, _ = fmt.Fprintln(w, "=== psxsim Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		_, _ = p.Fprintf(w, "Benchmark: %s\n", r.Name)
		_, _ = p.Fprintf(w, "  Description: %s\n", r.Description)
		_, _ = p.Fprintf(w, "  Exit Code: %d\n", r.ExitCode)
		if r.Error != "" {
			_, _ = p.Fprintf(w, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(w, "  --- Timing ---")
		_, _ = p.Fprintf(w, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = p.Fprintf(w, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = p.Fprintf(w, "  CPI:                  %.3f\n", r.CPI)
		_, _ = p.Fprintf(w, "  Memory Cycles:        %d\n", r.MemoryCycles)

		if r.ICacheHits > 0 || r.ICacheMisses > 0 {
			_, _ = fmt.Fprintln(w, "  --- I-Cache ---")
			_, _ = p.Fprintf(w, "  Hits:   %d\n", r.ICacheHits)
			_, _ = p.Fprintf(w, "  Misses: %d\n", r.ICacheMisses)
		}

		_, _ = p.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,memory_cycles,icache_hits,icache_misses,exit_code")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.MemoryCycles,
			r.ICacheHits,
			r.ICacheMisses,
			r.ExitCode,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	ICacheEnabled bool                  `json:"icache_enabled"`
	Timing        *latency.TimingConfig `json:"timing"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	rpt := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config: BenchmarkConfig{
				ICacheEnabled: h.config.EnableICache,
				Timing:        h.config.Timing,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rpt)
}
