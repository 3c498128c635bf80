// Command psxsim boots a BIOS image and/or an injected executable on the
// CPU core and reports cycle statistics.
//
// Usage:
//
//	psxsim [options] [program.exe|program.elf]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/psxsim/config"
	"github.com/sarchlab/psxsim/emu"
	"github.com/sarchlab/psxsim/machine"
	"github.com/sarchlab/psxsim/report"
	"github.com/sarchlab/psxsim/timing/latency"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	biosPath   string
	timingPath string
	logLevel   string
	maxInstr   uint64
	cycles     uint64
	noICache   bool
	stats      bool
	saveConfig string
	cpuProfile string
	memProfile string
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	fs := flag.NewFlagSet("psxsim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "Path to machine configuration JSON file")
	fs.StringVar(&o.biosPath, "bios", "", "Path to a 512KB BIOS image")
	fs.StringVar(&o.timingPath, "timing", "", "Path to timing configuration JSON file")
	fs.StringVar(&o.logLevel, "log", "", "Log level (trace, debug, info, warning, error)")
	fs.Uint64Var(&o.maxInstr, "max-instr", 0, "Max instructions to execute (0 = unlimited)")
	fs.Uint64Var(&o.cycles, "cycles", 0, "Cycle budget (0 = run until the CPU halts)")
	fs.BoolVar(&o.noICache, "no-icache", false, "Disable instruction cache simulation")
	fs.BoolVar(&o.stats, "stats", true, "Print cycle statistics")
	fs.StringVar(&o.saveConfig, "save-config", "", "Write the effective configuration to a file and exit")
	fs.StringVar(&o.cpuProfile, "cpuprofile", "", "Write cpu profile to file")
	fs.StringVar(&o.memProfile, "memprofile", "", "Write memory profile to file")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: psxsim [options] [program.exe|program.elf]\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return o, fs.Args(), nil
}

// buildConfig layers flags over the config file over the defaults.
func buildConfig(o *options, rest []string) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if o.biosPath != "" {
		cfg.BIOSPath = o.biosPath
	}
	if len(rest) > 0 {
		cfg.EXEPath = rest[0]
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.maxInstr != 0 {
		cfg.MaxInstructions = o.maxInstr
	}
	if o.noICache {
		cfg.ICacheEnabled = false
	}
	if o.timingPath != "" {
		timing, err := latency.LoadConfig(o.timingPath)
		if err != nil {
			return nil, err
		}
		cfg.Timing = timing
	}

	return cfg, cfg.Validate()
}

func run(args []string, stdout, stderr io.Writer) int {
	o, rest, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	cfg, err := buildConfig(o, rest)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if o.saveConfig != "" {
		if err := cfg.Save(o.saveConfig); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if cfg.BIOSPath == "" && cfg.EXEPath == "" {
		_, _ = fmt.Fprintf(stderr, "Error: nothing to run; pass -bios or a program\n")
		return 1
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	level, _ := cfg.Level()
	logger.SetLevel(level)

	if o.cpuProfile != "" {
		f, err := os.Create(o.cpuProfile)
		if err != nil {
			logger.WithError(err).Error("psxsim: creating CPU profile")
			return 1
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			logger.WithError(err).Error("psxsim: starting CPU profile")
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	m, err := machine.NewFromConfig(cfg, machine.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Error("psxsim: building machine")
		return 1
	}

	if o.cycles > 0 {
		err = m.RunCycles(o.cycles)
	} else {
		err = m.Run()
	}

	code := 0
	if err != nil && !errors.Is(err, emu.ErrInstructionLimit) {
		code = 1
	}

	if o.stats {
		_, _ = fmt.Fprintf(stdout, "\n")
		if cfg.EXEPath != "" {
			_, _ = fmt.Fprintf(stdout, "Program: %s\n", cfg.EXEPath)
		}
		_, _ = fmt.Fprintf(stdout, "PC: 0x%08x\n", m.CPU.PC())
		report.Stats(stdout, report.NewPrinter(logger), m.Core.Stats())
	}

	if o.memProfile != "" {
		if err := writeMemProfile(o.memProfile); err != nil {
			logger.WithError(err).Error("psxsim: writing memory profile")
			return 1
		}
	}

	return code
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return pprof.WriteHeapProfile(f)
}
