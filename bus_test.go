package nes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusRAMMirror(t *testing.T) {
	c := newTestConsole(t, fixtureROM())
	b := c.bus

	b.cpuWrite(0x0123, 0x5A)
	for _, addr := range []uint16{0x0123, 0x0923, 0x1123, 0x1923} {
		assert.Equal(t, uint8(0x5A), b.cpuRead(addr, false), "$%04X", addr)
	}
	b.cpuWrite(0x1FFF, 0x77)
	assert.Equal(t, uint8(0x77), b.cpuRam[0x07FF])
}

func TestBusPPURegisterMirror(t *testing.T) {
	c := newTestConsole(t, fixtureROM())
	b := c.bus

	// $3FF6 is $2006
	b.cpuWrite(0x3FF6, 0x21)
	b.cpuWrite(0x2006, 0x08)
	b.cpuWrite(0x2007, 0x99)
	assert.Equal(t, uint8(0x99), c.ppu.ppuRead(0x2108))
}

func TestBusOpenBus(t *testing.T) {
	c := newTestConsole(t, fixtureROM())
	b := c.bus

	b.cpuWrite(0x0000, 0xA5)
	b.cpuRead(0x0000, false)
	assert.Equal(t, uint8(0xA5), b.cpuRead(0x4018, false))
	assert.Equal(t, uint8(0xA5), b.cpuRead(0x5000, false))
	assert.Equal(t, uint8(0xA5), b.cpuRead(0x4000, false))

	// $4015 does not drive bit 5
	b.cpuWrite(0x0000, 0x20)
	b.cpuRead(0x0000, false)
	assert.Equal(t, uint8(0x20), b.cpuRead(0x4015, false)&0x20)

	b.cpuWrite(0x0000, 0x00)
	b.cpuRead(0x0000, false)
	assert.Equal(t, uint8(0x00), b.cpuRead(0x4015, false)&0x20)
}

func TestBusControllerPorts(t *testing.T) {
	c := newTestConsole(t, fixtureROM())
	b := c.bus

	c.SetButtons(0, ButtonA)
	c.SetButtons(1, ButtonB)
	c.SetButtons(2, ButtonA)
	b.cpuWrite(0x4016, 0x01)
	b.cpuWrite(0x4016, 0x00)

	// the upper bits come from the last value on the bus, $40 after the
	// opcode fetch of an absolute read
	b.cpuWrite(0x0000, 0x40)
	b.cpuRead(0x0000, false)
	assert.Equal(t, uint8(0x41), b.cpuRead(0x4016, false))
	assert.Equal(t, uint8(0x40), b.cpuRead(0x4017, false))
	assert.Equal(t, uint8(0x40), b.cpuRead(0x4016, false))
	assert.Equal(t, uint8(0x41), b.cpuRead(0x4017, false))
}

func TestBusPeekLeavesState(t *testing.T) {
	c := newTestConsole(t, fixtureROM())
	b := c.bus

	c.SetButtons(0, ButtonA)
	b.cpuWrite(0x4016, 0x01)
	b.cpuWrite(0x4016, 0x00)
	assert.Equal(t, uint8(0x00), b.openBus, "the latch holds the last byte written")
	b.cpuWrite(0x0000, 0x12)
	b.cpuRead(0x0000, false)

	assert.Equal(t, uint8(0x80), b.peek(0xFFFB)&0x80)
	assert.Equal(t, uint8(0x12), b.openBus)
	assert.Equal(t, uint8(0x01), b.peek(0x4016)&0x01)
	assert.Equal(t, uint8(0x12), b.openBus)
	assert.Equal(t, uint8(0x01), b.cpuRead(0x4016, false)&0x01)
}

func TestBusIRQLine(t *testing.T) {
	c := newTestConsole(t, fixtureROM())
	assert.False(t, c.bus.irq())
	c.apu.frameIRQ = true
	assert.True(t, c.bus.irq())
}
