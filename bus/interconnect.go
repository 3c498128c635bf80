package bus

// StatusView is the part of the COP0 status register the interconnect
// needs to see. It cannot modify COP0.
type StatusView interface {
	CacheIsolated() bool
}

// IsolatedCache receives the stores issued while the cache is isolated.
type IsolatedCache interface {
	IsolatedStore(w Width, addr uint32, value uint32)
}

type mapping struct {
	r   Range
	dev Device
}

// Interconnect routes CPU accesses to devices.
type Interconnect struct {
	mappings []mapping
	status   StatusView
	icache   IsolatedCache
}

// NewInterconnect builds the router over the fixed MemoryMap. Ranges
// without a device in devices stay unmapped. status may be nil, in which
// case the cache is never isolated.
func NewInterconnect(status StatusView, devices map[RangeID]Device) *Interconnect {
	ic := &Interconnect{status: status}
	for _, r := range MemoryMap {
		dev, ok := devices[r.ID]
		if !ok || dev == nil {
			continue
		}
		ic.mappings = append(ic.mappings, mapping{r: r, dev: dev})
	}
	return ic
}

// SetIsolatedCache connects the instruction cache so isolated stores
// reach its tags and data.
func (ic *Interconnect) SetIsolatedCache(c IsolatedCache) {
	ic.icache = c
}

// Resolve returns the range and relative offset that addr maps to.
func (ic *Interconnect) Resolve(addr uint32) (RangeID, uint32, bool) {
	m, offset, ok := ic.find(MaskRegion(addr))
	if !ok {
		return RangeNone, 0, false
	}
	return m.r.ID, offset, true
}

// Device returns the device mapped at the given range.
func (ic *Interconnect) Device(id RangeID) (Device, bool) {
	for _, m := range ic.mappings {
		if m.r.ID == id {
			return m.dev, true
		}
	}
	return nil, false
}

func (ic *Interconnect) find(phys uint32) (*mapping, uint32, bool) {
	for i := range ic.mappings {
		if offset, ok := ic.mappings[i].r.Contains(phys); ok {
			return &ic.mappings[i], offset, true
		}
	}
	return nil, 0, false
}

// Load reads a value of width w from addr. Alignment is the caller's
// concern.
func (ic *Interconnect) Load(w Width, addr uint32) (uint32, error) {
	m, offset, ok := ic.find(MaskRegion(addr))
	if !ok {
		return 0, &Error{Op: "load", Addr: addr, Width: w, Err: ErrUnmapped}
	}

	v, err := m.dev.Load(w, offset)
	if err != nil {
		return 0, &Error{Op: "load", Addr: addr, Width: w, Range: m.r.ID, Err: err}
	}
	return v & w.Mask(), nil
}

// Store writes the low w bytes of value to addr. While the cache is
// isolated, stores to cached segments never reach memory; they go to the
// instruction cache instead.
func (ic *Interconnect) Store(w Width, addr uint32, value uint32) error {
	if ic.status != nil && ic.status.CacheIsolated() && Cached(addr) {
		if ic.icache != nil {
			ic.icache.IsolatedStore(w, addr, value&w.Mask())
		}
		return nil
	}

	m, offset, ok := ic.find(MaskRegion(addr))
	if !ok {
		return &Error{Op: "store", Addr: addr, Width: w, Err: ErrUnmapped}
	}

	if err := m.dev.Store(w, offset, value&w.Mask()); err != nil {
		return &Error{Op: "store", Addr: addr, Width: w, Range: m.r.ID, Err: err}
	}
	return nil
}

// Value constrains the typed access helpers.
type Value interface {
	uint8 | uint16 | uint32
}

func widthOf[T Value]() Width {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return Byte
	case uint16:
		return Half
	default:
		return Word
	}
}

// Load reads a T from addr through ic.
func Load[T Value](ic *Interconnect, addr uint32) (T, error) {
	v, err := ic.Load(widthOf[T](), addr)
	return T(v), err
}

// Store writes a T to addr through ic.
func Store[T Value](ic *Interconnect, addr uint32, value T) error {
	return ic.Store(widthOf[T](), addr, uint32(value))
}
