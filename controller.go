package nes

// Button bits of a controller state, in the order the shift register
// reports them: A first.
const (
	ButtonA      uint8 = 0x80
	ButtonB      uint8 = 0x40
	ButtonSelect uint8 = 0x20
	ButtonStart  uint8 = 0x10
	ButtonUp     uint8 = 0x08
	ButtonDown   uint8 = 0x04
	ButtonLeft   uint8 = 0x02
	ButtonRight  uint8 = 0x01
)

// Controller is a standard joypad behind a 4021 shift register.
type Controller struct {
	buttons uint8
	shift   uint8
	strobe  bool
}

func (c *Controller) set(buttons uint8) {
	c.buttons = buttons
	if c.strobe {
		c.shift = buttons
	}
}

func (c *Controller) write(data uint8) {
	c.strobe = data&0x01 != 0
	if c.strobe {
		c.shift = c.buttons
	}
}

// read shifts out the next button, most significant first. After eight reads
// an official pad returns 1.
func (c *Controller) read(readOnly bool) uint8 {
	if c.strobe {
		return c.buttons >> 7
	}
	bit := c.shift >> 7
	if !readOnly {
		c.shift = c.shift<<1 | 0x01
	}
	return bit
}
