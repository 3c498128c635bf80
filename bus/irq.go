package bus

// Interrupt is an interrupt controller input line.
type Interrupt uint8

// Interrupt sources, in I_STAT bit order.
const (
	IRQVBlank Interrupt = iota
	IRQGPU
	IRQCDROM
	IRQDMA
	IRQTimer0
	IRQTimer1
	IRQTimer2
	IRQPadMemCard
	IRQSIO
	IRQSPU
	IRQLightpen
)

const irqMask = 0x7FF

// IRQController latches interrupt requests from peripherals. Its output
// is mirrored into COP0 Cause bit 10.
//
// Register layout: I_STAT at offset 0, I_MASK at offset 4.
type IRQController struct {
	status uint32
	mask   uint32
}

// NewIRQController creates a controller with nothing pending or enabled.
func NewIRQController() *IRQController {
	return &IRQController{}
}

// Raise latches an interrupt request.
func (c *IRQController) Raise(irq Interrupt) {
	c.status |= 1 << irq
	c.status &= irqMask
}

// Active reports whether any unmasked request is latched.
func (c *IRQController) Active() bool {
	return c.status&c.mask != 0
}

// Status returns I_STAT.
func (c *IRQController) Status() uint32 {
	return c.status
}

// Mask returns I_MASK.
func (c *IRQController) Mask() uint32 {
	return c.mask
}

// Load implements Device.
func (c *IRQController) Load(w Width, offset uint32) (uint32, error) {
	switch offset &^ 3 {
	case 0:
		return c.status >> (8 * (offset & 3)), nil
	case 4:
		return c.mask >> (8 * (offset & 3)), nil
	default:
		return 0, ErrUnimplemented
	}
}

// Store implements Device. Writing I_STAT acknowledges the requests
// whose bits are zero in value.
func (c *IRQController) Store(w Width, offset uint32, value uint32) error {
	shift := 8 * (offset & 3)
	lanes := w.Mask() << shift
	value <<= shift

	switch offset &^ 3 {
	case 0:
		c.status &= value | ^lanes
	case 4:
		c.mask = c.mask&^lanes | value&lanes&irqMask
	default:
		return ErrUnimplemented
	}
	return nil
}
