package nes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nes-core/ppu"
)

func newTestPPU(t *testing.T, rom []byte) *PPU {
	t.Helper()
	return newTestConsole(t, rom).ppu
}

// runFrame clocks p to the end of the frame in progress and returns the
// number of dots it took.
func runFrame(p *PPU) int {
	dots := 0
	for !p.frameComplete {
		p.clock()
		dots++
	}
	p.frameComplete = false
	return dots
}

func TestPPUOddFrameSkip(t *testing.T) {
	p := newTestPPU(t, fixtureROM())
	p.cpuWrite(0x0001, 0x18)

	first := runFrame(p)
	second := runFrame(p)
	assert.Equal(t, DotsPerFrame, first)
	assert.Equal(t, DotsPerFrame-1, second)
	assert.Equal(t, 2*DotsPerFrame-1, first+second)

	assert.Equal(t, DotsPerFrame, runFrame(p))

	// no skip with rendering off
	p.cpuWrite(0x0001, 0x00)
	assert.True(t, p.oddFrame)
	assert.Equal(t, DotsPerFrame, runFrame(p))
}

func TestPPUVBlankTiming(t *testing.T) {
	p := newTestPPU(t, fixtureROM())
	p.cpuWrite(0x0000, 0x80)

	for !(p.scanline == 241 && p.cycle == 1) {
		p.clock()
		require.False(t, p.nmi, "NMI at scanline %d dot %d", p.scanline, p.cycle)
	}
	assert.False(t, p.status.Flag(ppu.StatusVerticalBlank))

	p.clock()
	assert.True(t, p.status.Flag(ppu.StatusVerticalBlank))
	assert.True(t, p.nmi)
	p.nmi = false

	edges := 0
	for frame := 0; frame < 3; frame++ {
		for !p.frameComplete {
			p.clock()
			if p.nmi {
				edges++
				p.nmi = false
				assert.Equal(t, int16(241), p.scanline)
				assert.Equal(t, int16(2), p.cycle)
			}
		}
		p.frameComplete = false
	}
	// the first frame's edge was taken above
	assert.Equal(t, 2, edges)
}

func TestPPUVBlankClearedOnPreRender(t *testing.T) {
	p := newTestPPU(t, fixtureROM())
	runFrame(p)
	for p.scanline != 241 || p.cycle != 2 {
		p.clock()
	}
	assert.True(t, p.status.Flag(ppu.StatusVerticalBlank))

	runFrame(p)
	p.clock()
	p.clock()
	assert.Equal(t, int16(-1), p.scanline)
	assert.False(t, p.status.Flag(ppu.StatusVerticalBlank))
}

func TestPPUStatusRead(t *testing.T) {
	p := newTestPPU(t, fixtureROM())
	p.status.SetFlag(ppu.StatusVerticalBlank, true)
	p.addressLatch = 1
	p.cpuWrite(0x0003, 0x1F)

	data := p.cpuRead(0x0002, true)
	assert.Equal(t, uint8(0x80|0x1F), data)
	assert.True(t, p.status.Flag(ppu.StatusVerticalBlank))

	data = p.cpuRead(0x0002, false)
	assert.Equal(t, uint8(0x80|0x1F), data)
	assert.False(t, p.status.Flag(ppu.StatusVerticalBlank))
	assert.Equal(t, uint8(0), p.addressLatch)

	assert.Equal(t, uint8(0x1F), p.cpuRead(0x0002, false)&0x9F)
}

func TestPPUNMIEnableDuringVBlank(t *testing.T) {
	p := newTestPPU(t, fixtureROM())
	p.status.SetFlag(ppu.StatusVerticalBlank, true)

	p.cpuWrite(0x0000, 0x80)
	assert.True(t, p.nmi)
	p.nmi = false

	// still high, no new edge
	p.cpuWrite(0x0000, 0x80)
	assert.False(t, p.nmi)

	p.cpuWrite(0x0000, 0x00)
	p.cpuWrite(0x0000, 0x80)
	assert.True(t, p.nmi)
}

func setAddr(p *PPU, addr uint16) {
	p.cpuWrite(0x0006, uint8(addr>>8))
	p.cpuWrite(0x0006, uint8(addr))
}

func TestPPUDataPort(t *testing.T) {
	p := newTestPPU(t, fixtureROM())

	setAddr(p, 0x2000)
	p.cpuWrite(0x0007, 0xAB)
	p.cpuWrite(0x0007, 0xCD)
	assert.Equal(t, uint16(0x2002), p.vramAddr.Reg)

	setAddr(p, 0x2000)
	p.cpuRead(0x0007, false)
	assert.Equal(t, uint8(0xAB), p.cpuRead(0x0007, false))
	assert.Equal(t, uint8(0xCD), p.cpuRead(0x0007, false))

	// increment by 32
	p.cpuWrite(0x0000, 0x04)
	setAddr(p, 0x2400)
	p.cpuWrite(0x0007, 0x01)
	p.cpuWrite(0x0007, 0x02)
	assert.Equal(t, uint8(0x02), p.tableName[0][0x20])
	assert.Equal(t, uint16(0x2440), p.vramAddr.Reg)
}

func TestPPUPalette(t *testing.T) {
	p := newTestPPU(t, fixtureROM())

	setAddr(p, 0x3F10)
	p.cpuWrite(0x0007, 0x2C)
	setAddr(p, 0x3F00)
	assert.Equal(t, uint8(0x2C), p.cpuRead(0x0007, false), "palette reads are not buffered")

	setAddr(p, 0x3F05)
	p.cpuWrite(0x0007, 0xFF)
	assert.Equal(t, uint8(0x3F), p.tablePalette[0x05])
	assert.Equal(t, uint8(0x3F), p.ppuRead(0x3F25))

	p.cpuWrite(0x0001, 0x01)
	assert.Equal(t, uint8(0x30), p.ppuRead(0x3F05))
}

func TestPPUMirroring(t *testing.T) {
	p := newTestPPU(t, fixtureROM())
	p.ppuWrite(0x2005, 0x11)
	assert.Equal(t, uint8(0x11), p.ppuRead(0x2405))
	assert.Equal(t, uint8(0x00), p.ppuRead(0x2805))
	assert.Equal(t, uint8(0x11), p.ppuRead(0x3005))

	rom := fixtureROM()
	rom[6] |= 0x01
	p = newTestPPU(t, rom)
	p.ppuWrite(0x2005, 0x22)
	assert.Equal(t, uint8(0x22), p.ppuRead(0x2805))
	assert.Equal(t, uint8(0x00), p.ppuRead(0x2405))

	rom = fixtureROM()
	rom[6] |= 0x08
	p = newTestPPU(t, rom)
	for i, addr := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
		p.ppuWrite(addr, uint8(i+1))
	}
	for i, addr := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
		assert.Equal(t, uint8(i+1), p.ppuRead(addr))
	}
}

func TestPPUScrollRegisters(t *testing.T) {
	p := newTestPPU(t, fixtureROM())

	p.cpuWrite(0x0000, 0x03)
	assert.Equal(t, uint16(1), p.tramAddr.GetField(ppu.LoopyNametableX))
	assert.Equal(t, uint16(1), p.tramAddr.GetField(ppu.LoopyNametableY))

	p.cpuWrite(0x0005, 0x7D)
	assert.Equal(t, uint8(5), p.fineX)
	assert.Equal(t, uint16(15), p.tramAddr.GetField(ppu.LoopyCoarseX))
	p.cpuWrite(0x0005, 0x5E)
	assert.Equal(t, uint16(6), p.tramAddr.GetField(ppu.LoopyFineY))
	assert.Equal(t, uint16(11), p.tramAddr.GetField(ppu.LoopyCoarseY))
	assert.Equal(t, uint8(0), p.addressLatch)

	// v only changes on the second $2006 write
	p.cpuWrite(0x0006, 0x3D)
	assert.Equal(t, uint16(0), p.vramAddr.Reg)
	p.cpuWrite(0x0006, 0xF0)
	assert.Equal(t, uint16(0x3DF0), p.vramAddr.Reg)
	assert.Equal(t, p.tramAddr, p.vramAddr)
}

func TestPPUSpriteEvaluation(t *testing.T) {
	fill := func(p *PPU) {
		for n := 0; n < 10; n++ {
			p.oam[n*4+0] = 20
			p.oam[n*4+1] = uint8(n)
			p.oam[n*4+3] = uint8(n * 8)
		}
		p.scanline = 25
	}

	p := newTestPPU(t, fixtureROM())
	fill(p)
	p.evaluateSprites()
	assert.Equal(t, 8, p.spriteCount)
	assert.True(t, p.spriteZeroHitPossible)
	assert.True(t, p.status.Flag(ppu.StatusSpriteOverflow))
	assert.Equal(t, uint8(7), p.spriteScanline[7*4+1])

	config := DefaultConfig()
	config.SpriteLimit = false
	c := NewConsole(config)
	require.NoError(t, c.LoadROM(fixtureROM()))
	fill(c.ppu)
	c.ppu.evaluateSprites()
	assert.Equal(t, 10, c.ppu.spriteCount)

	// 8x16 sprites reach further down
	p.scanline = 33
	p.evaluateSprites()
	assert.Equal(t, 0, p.spriteCount)
	p.cpuWrite(0x0000, 0x20)
	p.evaluateSprites()
	assert.Equal(t, 8, p.spriteCount)
}

func TestPPUFlipByte(t *testing.T) {
	assert.Equal(t, uint8(0x01), flipByte(0x80))
	assert.Equal(t, uint8(0xF0), flipByte(0x0F))
	assert.Equal(t, uint8(0x5A), flipByte(0x5A))
}
