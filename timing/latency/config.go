package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds latency values for different instruction types and
// memory regions. Values are based on R3000A measurements on the console.
type TimingConfig struct {
	// ALULatency is the execution latency for ALU, shift and move
	// operations. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// BranchLatency is the execution latency for branches and jumps. The
	// delay slot hides the redirect, so there is no taken penalty.
	// Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// LoadLatency is the issue latency for loads, excluding the memory
	// region access time. Default: 1 cycle.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the issue latency for stores. The write buffer
	// absorbs the region access time. Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// MultiplyLatencyMin is the MULT/MULTU latency when rs fits in 11
	// bits. Default: 6 cycles.
	MultiplyLatencyMin uint64 `json:"multiply_latency_min"`

	// MultiplyLatencyMid is the MULT/MULTU latency when rs fits in 20
	// bits. Default: 9 cycles.
	MultiplyLatencyMid uint64 `json:"multiply_latency_mid"`

	// MultiplyLatencyMax is the MULT/MULTU latency for larger operands.
	// Default: 13 cycles.
	MultiplyLatencyMax uint64 `json:"multiply_latency_max"`

	// DivideLatency is the DIV/DIVU latency. Default: 36 cycles.
	DivideLatency uint64 `json:"divide_latency"`

	// CopLatency is the latency of coprocessor moves and commands.
	// Default: 1 cycle.
	CopLatency uint64 `json:"cop_latency"`

	// ExceptionLatency is the cost of entering an exception handler.
	// Default: 2 cycles.
	ExceptionLatency uint64 `json:"exception_latency"`

	// RAMLatency is the main RAM access time. Default: 5 cycles.
	RAMLatency uint64 `json:"ram_latency"`

	// BIOSLatency is the BIOS ROM access time over the 8-bit bus.
	// Default: 24 cycles.
	BIOSLatency uint64 `json:"bios_latency"`

	// ScratchpadLatency is the data scratchpad access time.
	// Default: 0 cycles.
	ScratchpadLatency uint64 `json:"scratchpad_latency"`

	// IOLatency is the access time of memory-mapped registers.
	// Default: 3 cycles.
	IOLatency uint64 `json:"io_latency"`

	// ICacheHitLatency is the fetch time on an instruction cache hit.
	// Default: 0 cycles.
	ICacheHitLatency uint64 `json:"icache_hit_latency"`
}

// DefaultTimingConfig returns a TimingConfig with R3000A default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:         1,
		BranchLatency:      1,
		LoadLatency:        1,
		StoreLatency:       1,
		MultiplyLatencyMin: 6,
		MultiplyLatencyMid: 9,
		MultiplyLatencyMax: 13,
		DivideLatency:      36,
		CopLatency:         1,
		ExceptionLatency:   2,
		RAMLatency:         5,
		BIOSLatency:        24,
		ScratchpadLatency:  0,
		IOLatency:          3,
		ICacheHitLatency:   0,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that issue latencies are > 0 and the multiply tiers are
// ordered.
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.DivideLatency == 0 {
		return fmt.Errorf("divide_latency must be > 0")
	}
	if c.MultiplyLatencyMin > c.MultiplyLatencyMid || c.MultiplyLatencyMid > c.MultiplyLatencyMax {
		return fmt.Errorf("multiply latencies must satisfy min <= mid <= max")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
