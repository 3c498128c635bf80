// Package cache models the R3000A instruction cache using Akita cache
// components.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/psxsim/bus"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
}

// DefaultICacheConfig returns the console's instruction cache geometry:
// 4KB, direct-mapped, 16-byte lines.
func DefaultICacheConfig() Config {
	return Config{
		Size:          4 * 1024,
		Associativity: 1,
		BlockSize:     16,
	}
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads         uint64
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Invalidations uint64
}

// BackingStore interface for the memory behind the cache.
type BackingStore interface {
	// Read fetches a line from the backing store.
	Read(addr uint32, size int) ([]byte, error)
}

// ControlRegister exposes the cache control register value.
type ControlRegister interface {
	Value() bus.CacheControl
}

// ICache is a read-only instruction cache. Lines are tagged by physical
// address, so KUSEG and KSEG0 views of the same code share them.
type ICache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	stats Statistics

	backing BackingStore
	control ControlRegister

	lastHit bool
}

// New creates a new instruction cache. control may be nil, in which case
// the cache is always enabled.
func New(config Config, backing BackingStore, control ControlRegister) *ICache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &ICache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
		control:   control,
	}
}

// Config returns the cache configuration.
func (c *ICache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *ICache) Stats() Statistics {
	return c.stats
}

// LastHit reports whether the most recent Fetch hit.
func (c *ICache) LastHit() bool {
	return c.lastHit
}

// Enabled reports the ICache-enable bit of the cache control register.
func (c *ICache) Enabled() bool {
	return c.control == nil || c.control.Value().ICacheEnabled()
}

func (c *ICache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *ICache) blockAddr(addr uint32) uint64 {
	phys := uint64(bus.MaskRegion(addr))
	return phys / uint64(c.config.BlockSize) * uint64(c.config.BlockSize)
}

// Fetch returns the instruction word at addr, filling the line from the
// backing store on a miss.
func (c *ICache) Fetch(addr uint32) (uint32, error) {
	c.stats.Reads++

	blockAddr := c.blockAddr(addr)
	offset := int(uint64(bus.MaskRegion(addr)) - blockAddr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.lastHit = true
		c.directory.Visit(block)
		return extractWord(c.dataStore[c.blockIndex(block)], offset), nil
	}

	c.stats.Misses++
	c.lastHit = false

	data, err := c.fill(addr, blockAddr)
	if err != nil {
		return 0, err
	}
	return extractWord(data, offset), nil
}

func (c *ICache) fill(addr uint32, blockAddr uint64) ([]byte, error) {
	// Read through the caller's segment so bus errors report the
	// address the CPU issued.
	lineAddr := addr &^ uint32(c.config.BlockSize-1)
	newData, err := c.backing.Read(lineAddr, c.config.BlockSize)
	if err != nil {
		return nil, err
	}

	victim := c.directory.FindVictim(blockAddr)
	if victim.IsValid {
		c.stats.Evictions++
	}

	victimData := c.dataStore[c.blockIndex(victim)]
	copy(victimData, newData)

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return victimData, nil
}

// IsolatedStore handles a store issued while the cache is isolated. The
// line is selected by index only. In tag test mode the store clears the
// valid bit of that line whatever address it was filled from; the BIOS
// flushes the cache this way. Otherwise the value is written into the
// line's data.
func (c *ICache) IsolatedStore(w bus.Width, addr uint32, value uint32) {
	set := c.indexedSet(addr)

	if c.tagTest() {
		for _, block := range set.Blocks {
			if block.IsValid {
				block.IsValid = false
				c.stats.Invalidations++
			}
		}
		return
	}

	offset := int(bus.MaskRegion(addr)) & (c.config.BlockSize - 1)
	for _, block := range set.Blocks {
		data := c.dataStore[c.blockIndex(block)]
		for i := 0; i < int(w) && offset+i < len(data); i++ {
			data[offset+i] = byte(value >> (8 * i))
		}
	}
}

func (c *ICache) tagTest() bool {
	return c.control == nil || c.control.Value().TagTestMode()
}

func (c *ICache) indexedSet(addr uint32) *akitacache.Set {
	sets := c.directory.GetSets()
	setID := c.blockAddr(addr) / uint64(c.config.BlockSize) % uint64(len(sets))
	return &sets[setID]
}

// Flush invalidates every line.
func (c *ICache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines and clears statistics.
func (c *ICache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
	c.lastHit = false
}

func extractWord(data []byte, offset int) uint32 {
	if offset+4 > len(data) {
		return 0
	}
	return uint32(data[offset]) | uint32(data[offset+1])<<8 |
		uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
}
