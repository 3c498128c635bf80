// Package machine assembles the console: it owns every device, COP0, the
// CPU and the timing core, and wires them together.
package machine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/config"
	"github.com/sarchlab/psxsim/cop0"
	"github.com/sarchlab/psxsim/emu"
	"github.com/sarchlab/psxsim/loader"
	"github.com/sarchlab/psxsim/timing/cache"
	"github.com/sarchlab/psxsim/timing/core"
	"github.com/sarchlab/psxsim/timing/latency"
)

// BootCacheControl is the cache control value the BIOS leaves behind
// before it starts an executable.
const BootCacheControl bus.CacheControl = 0x0001E988

// gpuStatusReady is the GPUSTAT value with the command, VRAM and DMA
// ready bits set.
const gpuStatusReady = 0x1C000000

// registerBanks are the peripheral windows backed by plain register
// storage.
var registerBanks = []bus.RangeID{
	bus.RangeMemControl,
	bus.RangePad,
	bus.RangeRAMSize,
	bus.RangeDMA,
	bus.RangeTimers,
	bus.RangeCDROM,
	bus.RangeGPU,
	bus.RangeSPU,
	bus.RangeExpansion2,
}

// Machine owns every component of the console.
type Machine struct {
	RAM          *bus.Memory
	BIOS         *bus.Memory
	Scratchpad   *bus.Memory
	IRQ          *bus.IRQController
	CacheControl *bus.CacheControlRegister
	Banks        map[bus.RangeID]*bus.Memory

	Cop0   *cop0.Cop0
	Bus    *bus.Interconnect
	ICache *cache.ICache
	CPU    *emu.CPU
	Core   *core.Core

	logger *logrus.Logger
}

type options struct {
	logger          *logrus.Logger
	bios            *bus.Memory
	timing          *latency.TimingConfig
	icache          bool
	maxInstructions uint64
	cop2            emu.Coprocessor2
}

// Option configures a Machine.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBIOS installs a BIOS ROM. Without it the machine boots a blank ROM.
func WithBIOS(bios *bus.Memory) Option {
	return func(o *options) {
		o.bios = bios
	}
}

// WithTimingConfig sets the cycle costs used by the core.
func WithTimingConfig(timing *latency.TimingConfig) Option {
	return func(o *options) {
		o.timing = timing
	}
}

// WithICache attaches or detaches the instruction cache model.
func WithICache(enabled bool) Option {
	return func(o *options) {
		o.icache = enabled
	}
}

// WithMaxInstructions stops the CPU after n instructions.
func WithMaxInstructions(n uint64) Option {
	return func(o *options) {
		o.maxInstructions = n
	}
}

// WithCoprocessor2 plugs in a geometry coprocessor.
func WithCoprocessor2(cop2 emu.Coprocessor2) Option {
	return func(o *options) {
		o.cop2 = cop2
	}
}

// New builds a machine and resets the CPU to the reset vector.
func New(opts ...Option) (*Machine, error) {
	o := &options{icache: true}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logrus.New()
		o.logger.SetLevel(logrus.WarnLevel)
	}
	if o.bios == nil {
		blank, err := bus.NewBIOS(make([]byte, bus.BIOSSize))
		if err != nil {
			return nil, err
		}
		o.bios = blank
	}
	if o.timing == nil {
		o.timing = latency.DefaultTimingConfig()
	}
	if err := o.timing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}

	m := &Machine{
		RAM:          bus.NewRAM(),
		BIOS:         o.bios,
		Scratchpad:   bus.NewScratchpad(),
		IRQ:          bus.NewIRQController(),
		CacheControl: &bus.CacheControlRegister{},
		Banks:        make(map[bus.RangeID]*bus.Memory, len(registerBanks)),
		logger:       o.logger,
	}

	devices := map[bus.RangeID]bus.Device{
		bus.RangeRAM:          m.RAM,
		bus.RangeBIOS:         m.BIOS,
		bus.RangeScratchpad:   m.Scratchpad,
		bus.RangeExpansion1:   bus.OpenBus{},
		bus.RangeIRQControl:   m.IRQ,
		bus.RangeCacheControl: m.CacheControl,
	}
	for _, id := range registerBanks {
		r, _ := bus.LookupRange(id)
		bank := bus.NewRegisterBank(r.Length)
		m.Banks[id] = bank
		devices[id] = bank
	}
	m.Banks[bus.RangeGPU].Poke(bus.Word, 4, gpuStatusReady)

	m.Cop0 = cop0.New(cop0.WithLogger(o.logger), cop0.WithIRQLine(m.IRQ))
	m.Bus = bus.NewInterconnect(m.Cop0, devices)

	cpuOpts := []emu.Option{
		emu.WithLogger(o.logger),
		emu.WithMaxInstructions(o.maxInstructions),
	}
	if o.cop2 != nil {
		cpuOpts = append(cpuOpts, emu.WithCoprocessor2(o.cop2))
	}
	if o.icache {
		m.ICache = cache.New(cache.DefaultICacheConfig(), cache.NewBusBacking(m.Bus), m.CacheControl)
		m.Bus.SetIsolatedCache(m.ICache)
		cpuOpts = append(cpuOpts, emu.WithInstructionCache(m.ICache))
	}

	m.CPU = emu.New(m.Bus, m.Cop0, cpuOpts...)
	m.Core = core.NewCore(m.CPU, latency.NewTableWithConfig(o.timing), m.ICache)

	o.logger.WithFields(logrus.Fields{
		"icache":           o.icache,
		"max_instructions": o.maxInstructions,
	}).Debug("machine: built")

	return m, nil
}

// NewFromConfig builds a machine from a Config, loading the BIOS and
// injecting the executable it names. Extra options are applied last.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{
		WithTimingConfig(cfg.TimingConfig()),
		WithICache(cfg.ICacheEnabled),
		WithMaxInstructions(cfg.MaxInstructions),
	}
	if cfg.BIOSPath != "" {
		bios, err := loader.LoadBIOS(cfg.BIOSPath)
		if err != nil {
			return nil, err
		}
		base = append(base, WithBIOS(bios))
	}

	m, err := New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	if cfg.EXEPath != "" {
		img, err := loader.Open(cfg.EXEPath)
		if err != nil {
			return nil, err
		}
		if err := m.Load(img); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Logger returns the machine's logger.
func (m *Machine) Logger() *logrus.Logger {
	return m.logger
}

// Load injects an executable into RAM and points the CPU at it. The cache
// control register is set up the way the BIOS leaves it.
func (m *Machine) Load(img loader.Image) error {
	if err := img.Inject(m.CPU, m.RAM); err != nil {
		return fmt.Errorf("failed to inject executable: %w", err)
	}
	m.CacheControl.Set(BootCacheControl)
	if m.ICache != nil {
		m.ICache.Flush()
	}

	m.logger.WithField("entry", fmt.Sprintf("0x%08x", img.Entry())).
		Info("machine: executable loaded")
	return nil
}

// RaiseInterrupt requests an interrupt from a peripheral line.
func (m *Machine) RaiseInterrupt(irq bus.Interrupt) {
	m.IRQ.Raise(irq)
}

// RunCycles advances the machine by a cycle budget. It returns the error
// that halted the CPU, if any.
func (m *Machine) RunCycles(cycles uint64) error {
	if !m.Core.RunCycles(cycles) {
		return m.halt(m.Core.Err())
	}
	return nil
}

// Run executes until the CPU halts.
func (m *Machine) Run() error {
	return m.halt(m.Core.Run())
}

func (m *Machine) halt(err error) error {
	var fatal *emu.FatalError
	if errors.As(err, &fatal) {
		m.logger.WithError(fatal.Err).
			WithField("pc", fmt.Sprintf("0x%08x", fatal.PC)).
			Error("machine: cpu halted")
		m.logger.Error("registers:\n" + fatal.Dump())
	}
	return err
}

// Reset returns the CPU, COP0 and caches to power-on state. Memory
// contents are kept.
func (m *Machine) Reset() {
	m.Core.Reset()
	m.CacheControl.Set(0)
}
