package nes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func readPad(c *Controller, n int) []uint8 {
	bits := make([]uint8, n)
	for i := range bits {
		bits[i] = c.read(false)
	}
	return bits
}

func TestControllerShift(t *testing.T) {
	var c Controller
	c.set(ButtonA | ButtonStart | ButtonRight)

	c.write(1)
	c.write(0)
	assert.Equal(t, []uint8{1, 0, 0, 1, 0, 0, 0, 1}, readPad(&c, 8))

	// an official pad reports 1 once the register is empty
	assert.Equal(t, []uint8{1, 1, 1}, readPad(&c, 3))
}

func TestControllerStrobe(t *testing.T) {
	var c Controller
	c.set(ButtonA)
	c.write(1)

	// strobe high keeps reloading, so every read sees A
	assert.Equal(t, []uint8{1, 1, 1}, readPad(&c, 3))

	// new buttons are latched while strobe is held
	c.set(ButtonB)
	assert.Equal(t, uint8(0), c.read(false))

	c.write(0)
	assert.Equal(t, []uint8{0, 1, 0}, readPad(&c, 3))

	// without strobe a button change waits for the next latch
	c.set(ButtonA)
	assert.Equal(t, uint8(0), c.read(false))
}

func TestControllerReadOnly(t *testing.T) {
	var c Controller
	c.set(ButtonA)
	c.write(1)
	c.write(0)

	assert.Equal(t, uint8(1), c.read(true))
	assert.Equal(t, uint8(1), c.read(true))
	assert.Equal(t, uint8(1), c.read(false))
	assert.Equal(t, uint8(0), c.read(true))
}
