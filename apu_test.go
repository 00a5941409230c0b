package nes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPU(t *testing.T) *APU {
	t.Helper()
	return newTestConsole(t, fixtureROM()).apu
}

func clockAPU(a *APU, cycles int) {
	for i := 0; i < cycles; i++ {
		a.clock()
	}
}

func TestAPULengthCounter(t *testing.T) {
	a := newTestAPU(t)

	// disabled channels ignore length loads
	a.cpuWrite(0x4003, 0x08)
	assert.Equal(t, uint8(0), a.pulse1.length.counter)

	a.cpuWrite(0x4015, 0x0F)
	a.cpuWrite(0x4003, 0x08)
	a.cpuWrite(0x4007, 0x18)
	a.cpuWrite(0x400B, 0x00)
	a.cpuWrite(0x400F, 0xF8)
	assert.Equal(t, uint8(254), a.pulse1.length.counter)
	assert.Equal(t, uint8(2), a.pulse2.length.counter)
	assert.Equal(t, uint8(10), a.triangle.length.counter)
	assert.Equal(t, uint8(30), a.noise.length.counter)
	assert.Equal(t, uint8(0x0F), a.readStatus(false))

	a.halfFrame()
	assert.Equal(t, uint8(253), a.pulse1.length.counter)
	assert.Equal(t, uint8(1), a.pulse2.length.counter)
	a.halfFrame()
	assert.Equal(t, uint8(0x0D), a.readStatus(false))

	a.cpuWrite(0x4015, 0x00)
	assert.Equal(t, uint8(0), a.pulse1.length.counter)
	assert.Equal(t, uint8(0x00), a.readStatus(false))
}

func TestAPULengthHalt(t *testing.T) {
	a := newTestAPU(t)
	a.cpuWrite(0x4015, 0x01)
	a.cpuWrite(0x4000, 0x20)
	a.cpuWrite(0x4003, 0x08)

	for i := 0; i < 10; i++ {
		a.halfFrame()
	}
	assert.Equal(t, uint8(254), a.pulse1.length.counter)
}

func TestAPUEnvelope(t *testing.T) {
	a := newTestAPU(t)
	a.cpuWrite(0x4015, 0x01)
	a.cpuWrite(0x4000, 0x01)
	a.cpuWrite(0x4003, 0x08)
	require.True(t, a.pulse1.env.start)

	a.quarterFrame()
	assert.Equal(t, uint8(15), a.pulse1.env.output())

	// divider period 1 decays every second clock
	a.quarterFrame()
	assert.Equal(t, uint8(15), a.pulse1.env.output())
	a.quarterFrame()
	assert.Equal(t, uint8(14), a.pulse1.env.output())

	for i := 0; i < 40; i++ {
		a.quarterFrame()
	}
	assert.Equal(t, uint8(0), a.pulse1.env.output())

	// looping restarts at 15 once the divider runs out
	a.cpuWrite(0x4000, 0x20)
	a.quarterFrame()
	a.quarterFrame()
	assert.Equal(t, uint8(15), a.pulse1.env.output())

	a.cpuWrite(0x4000, 0x1A)
	assert.Equal(t, uint8(0x0A), a.pulse1.env.output())
}

func TestAPUSweep(t *testing.T) {
	a := newTestAPU(t)

	a.pulse1.period = 0x100
	a.pulse1.sweepShift = 1
	assert.Equal(t, 0x180, a.pulse1.targetPeriod())

	a.pulse1.sweepNegate = true
	a.pulse2.period = 0x100
	a.pulse2.sweepShift = 1
	a.pulse2.sweepNegate = true
	assert.Equal(t, 0x07F, a.pulse1.targetPeriod())
	assert.Equal(t, 0x080, a.pulse2.targetPeriod())

	// periods below 8 and targets above $7FF mute the channel
	a.pulse2.period = 7
	assert.True(t, a.pulse2.muted())
	a.pulse2.period = 0x700
	a.pulse2.sweepNegate = false
	assert.True(t, a.pulse2.muted())
	a.pulse2.sweepShift = 2
	assert.True(t, a.pulse2.muted())
	a.pulse2.sweepShift = 3
	assert.False(t, a.pulse2.muted())

	// the divider updates the period when it reaches zero
	a.cpuWrite(0x4005, 0x81)
	a.pulse2.period = 0x100
	a.halfFrame()
	assert.Equal(t, uint16(0x180), a.pulse2.period)
}

func TestAPUFrameIRQ(t *testing.T) {
	a := newTestAPU(t)

	clockAPU(a, frameStep4-1)
	assert.False(t, a.irq())
	clockAPU(a, 1)
	assert.True(t, a.irq())

	assert.Equal(t, uint8(0x40), a.readStatus(true)&0x40)
	assert.True(t, a.irq(), "read only status leaves the flag")
	assert.Equal(t, uint8(0x40), a.readStatus(false)&0x40)
	assert.False(t, a.irq())

	// inhibit clears and suppresses it
	clockAPU(a, frameFourSteps)
	assert.True(t, a.irq())
	a.cpuWrite(0x4017, 0x40)
	assert.False(t, a.irq())
	clockAPU(a, 2*frameFourSteps)
	assert.False(t, a.irq())
}

func TestAPUFiveStepMode(t *testing.T) {
	a := newTestAPU(t)
	a.cpuWrite(0x4015, 0x01)
	a.cpuWrite(0x4003, 0x18)
	require.Equal(t, uint8(2), a.pulse1.length.counter)

	// writing five step mode clocks the half frame units at once
	a.cpuWrite(0x4017, 0x80)
	assert.Equal(t, uint8(1), a.pulse1.length.counter)

	clockAPU(a, 2*frameFiveSteps)
	assert.False(t, a.irq())
	assert.Equal(t, uint8(0), a.pulse1.length.counter)
}

func TestAPUTriangleLinearCounter(t *testing.T) {
	a := newTestAPU(t)
	a.cpuWrite(0x4015, 0x04)
	a.cpuWrite(0x4008, 0x03)
	a.cpuWrite(0x400A, 0x10)
	a.cpuWrite(0x400B, 0x08)

	a.quarterFrame()
	assert.Equal(t, uint8(3), a.triangle.linearCounter)
	assert.False(t, a.triangle.linearReloaded)

	step := a.triangle.step
	clockAPU(a, 0x11*4)
	assert.NotEqual(t, step, a.triangle.step)

	a.quarterFrame()
	a.quarterFrame()
	a.quarterFrame()
	assert.Equal(t, uint8(0), a.triangle.linearCounter)

	// silenced sequencer holds its step
	step = a.triangle.step
	clockAPU(a, 0x11*4)
	assert.Equal(t, step, a.triangle.step)
}

func TestAPUNoise(t *testing.T) {
	a := newTestAPU(t)
	a.cpuWrite(0x400E, 0x00)
	assert.Equal(t, uint16(4), a.noise.period)

	a.noise.timer = 0
	a.noise.clockTimer()
	assert.Equal(t, uint16(0x4000), a.noise.shift)

	a.cpuWrite(0x400E, 0x8F)
	assert.True(t, a.noise.mode)
	assert.Equal(t, uint16(4068), a.noise.period)
}

func TestAPUDMC(t *testing.T) {
	c := newTestConsole(t, fixtureROM())
	a := c.apu

	a.cpuWrite(0x4010, 0x8F)
	a.cpuWrite(0x4011, 0x40)
	a.cpuWrite(0x4012, 0x00)
	a.cpuWrite(0x4013, 0x00)
	assert.Equal(t, uint16(0xC000), a.dmc.sampleAddr)
	assert.Equal(t, uint16(1), a.dmc.sampleLength)
	assert.Equal(t, uint8(0x40), a.dmc.output())

	a.cpuWrite(0x4015, 0x10)
	assert.Equal(t, uint8(0x10), a.readStatus(true)&0x10)

	stall := c.cpu.stall
	a.clock()
	assert.Equal(t, stall+4, c.cpu.stall)
	assert.False(t, a.dmc.bufferEmpty)
	// first byte of the fixture program, mirrored at $C000
	assert.Equal(t, uint8(0x78), a.dmc.sampleBuffer)
	assert.True(t, a.irq())
	assert.Equal(t, uint8(0x80), a.readStatus(false)&0x90)

	a.cpuWrite(0x4015, 0x00)
	assert.False(t, a.irq())
}

func TestAPUSamples(t *testing.T) {
	a := newTestAPU(t)

	clockAPU(a, cpuClock/60)
	samples := a.drainSamples()
	assert.InDelta(t, 735, len(samples), 1)
	assert.Empty(t, a.drainSamples())

	// with every channel silenced the triangle holds its level
	a.filtered = false
	clockAPU(a, 1000)
	samples = a.drainSamples()
	require.NotEmpty(t, samples)
	for _, s := range samples {
		assert.Equal(t, tndTable[3*15], s)
	}

	assert.Equal(t, float32(0), pulseTable[0])
	assert.InDelta(t, 0.011609, pulseTable[1], 0.00001)
	assert.InDelta(t, 0.257513, pulseTable[30], 0.00001)
	assert.InDelta(t, 0.006700, tndTable[1], 0.00001)
	assert.InDelta(t, 0.742468, tndTable[202], 0.00001)
}
