package bus

import "fmt"

// RangeID names a window of the physical address space.
type RangeID uint8

// Address ranges, in the order the interconnect tests them.
const (
	RangeNone RangeID = iota
	RangeRAM
	RangeExpansion1
	RangeScratchpad
	RangeMemControl
	RangePad
	RangeRAMSize
	RangeIRQControl
	RangeDMA
	RangeTimers
	RangeCDROM
	RangeGPU
	RangeSPU
	RangeExpansion2
	RangeBIOS
	RangeCacheControl
)

var rangeNames = [...]string{
	RangeNone:         "none",
	RangeRAM:          "ram",
	RangeExpansion1:   "expansion1",
	RangeScratchpad:   "scratchpad",
	RangeMemControl:   "memcontrol",
	RangePad:          "pad",
	RangeRAMSize:      "ramsize",
	RangeIRQControl:   "irqcontrol",
	RangeDMA:          "dma",
	RangeTimers:       "timers",
	RangeCDROM:        "cdrom",
	RangeGPU:          "gpu",
	RangeSPU:          "spu",
	RangeExpansion2:   "expansion2",
	RangeBIOS:         "bios",
	RangeCacheControl: "cachecontrol",
}

func (id RangeID) String() string {
	if int(id) < len(rangeNames) {
		return rangeNames[id]
	}
	return fmt.Sprintf("range(%d)", uint8(id))
}

// Sizes of the memories.
const (
	RAMSize        = 2 * 1024 * 1024
	BIOSSize       = 512 * 1024
	ScratchpadSize = 1024
	Expansion1Size = 512 * 1024
)

// Range is an immutable window of the physical address space.
type Range struct {
	ID     RangeID
	Start  uint32
	Length uint32
}

// Contains returns the offset of addr within the range. The second
// result is false if addr lies outside it.
func (r Range) Contains(addr uint32) (uint32, bool) {
	if addr >= r.Start && addr-r.Start < r.Length {
		return addr - r.Start, true
	}
	return 0, false
}

// End returns the first address past the range.
func (r Range) End() uint64 {
	return uint64(r.Start) + uint64(r.Length)
}

// MemoryMap is the fixed, non-overlapping range table. Addresses are
// physical, i.e. after region masking.
var MemoryMap = []Range{
	{RangeRAM, 0x00000000, RAMSize},
	{RangeExpansion1, 0x1F000000, Expansion1Size},
	{RangeScratchpad, 0x1F800000, ScratchpadSize},
	{RangeMemControl, 0x1F801000, 36},
	{RangePad, 0x1F801040, 32},
	{RangeRAMSize, 0x1F801060, 4},
	{RangeIRQControl, 0x1F801070, 8},
	{RangeDMA, 0x1F801080, 0x80},
	{RangeTimers, 0x1F801100, 0x30},
	{RangeCDROM, 0x1F801800, 4},
	{RangeGPU, 0x1F801810, 8},
	{RangeSPU, 0x1F801C00, 640},
	{RangeExpansion2, 0x1F802000, 66},
	{RangeBIOS, 0x1FC00000, BIOSSize},
	{RangeCacheControl, 0xFFFE0130, 4},
}

// LookupRange returns the range with the given ID.
func LookupRange(id RangeID) (Range, bool) {
	for _, r := range MemoryMap {
		if r.ID == id {
			return r, true
		}
	}
	return Range{}, false
}

// regionMask strips the segment bits of an address. It is indexed by the
// top three address bits: KUSEG (2GB, unmasked), KSEG0 (512MB, cached
// mirror), KSEG1 (512MB, uncached mirror), KSEG2 (1GB, unmasked).
var regionMask = [8]uint32{
	0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, // KUSEG
	0x7FFFFFFF, // KSEG0
	0x1FFFFFFF, // KSEG1
	0xFFFFFFFF, 0xFFFFFFFF, // KSEG2
}

// MaskRegion maps a CPU address to its physical address.
func MaskRegion(addr uint32) uint32 {
	return addr & regionMask[addr>>29]
}

// Cached reports whether addr lies in a cached segment (KUSEG or KSEG0).
func Cached(addr uint32) bool {
	return addr>>29 < 5
}
