package bus

// CacheControl is the value of the cache control register at 0xFFFE0130.
type CacheControl uint32

// Cache control bits.
const (
	CacheTagTest    CacheControl = 1 << 2
	CacheScratchEn1 CacheControl = 1 << 3
	CacheScratchEn2 CacheControl = 1 << 7
	CacheICacheEn   CacheControl = 1 << 11
)

// ICacheEnabled reports whether instruction fetches go through the cache.
func (c CacheControl) ICacheEnabled() bool {
	return c&CacheICacheEn != 0
}

// TagTestMode reports whether isolated stores address the cache tags.
func (c CacheControl) TagTestMode() bool {
	return c&CacheTagTest != 0
}

// CacheControlRegister is the device behind RangeCacheControl.
type CacheControlRegister struct {
	value CacheControl
}

// Value returns the current register value.
func (r *CacheControlRegister) Value() CacheControl {
	return r.value
}

// Set overwrites the register.
func (r *CacheControlRegister) Set(v CacheControl) {
	r.value = v
}

// Load implements Device.
func (r *CacheControlRegister) Load(w Width, offset uint32) (uint32, error) {
	if w != Word || offset != 0 {
		return 0, ErrUnimplemented
	}
	return uint32(r.value), nil
}

// Store implements Device.
func (r *CacheControlRegister) Store(w Width, offset uint32, value uint32) error {
	if w != Word || offset != 0 {
		return ErrUnimplemented
	}
	r.value = CacheControl(value)
	return nil
}
