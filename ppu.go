package nes

import (
	"nes-core/mapper"
	"nes-core/ppu"
)

const (
	ScreenWidth  = 256
	ScreenHeight = 240

	dotsPerLine   = 341
	linesPerFrame = 262
	// DotsPerFrame is the length of an even frame, or any frame with
	// rendering off. Odd frames with rendering on are one dot shorter.
	DotsPerFrame = dotsPerLine * linesPerFrame
)

// PPU is the 2C02. Scanline -1 is the pre-render line, 0-239 are visible,
// 240 is idle and 241-260 are VBlank.
type PPU struct {
	tableName    [4][1024]uint8
	tablePalette [32]uint8

	status  ppu.Register
	mask    ppu.Register
	control ppu.Register

	vramAddr ppu.Register
	tramAddr ppu.Register
	fineX    uint8

	addressLatch  uint8
	ppuDataBuffer uint8
	// last value written to or read from a PPU port
	ioLatch uint8

	scanline      int16
	cycle         int16
	frame         uint64
	oddFrame      bool
	frameComplete bool

	bgNextTileId       uint8
	bgNextTileAttrib   uint8
	bgNextTileLsb      uint8
	bgNextTileMsb      uint8
	bgShifterPatternLo uint16
	bgShifterPatternHi uint16
	bgShifterAttribLo  uint16
	bgShifterAttribHi  uint16

	oam     [256]uint8
	oamAddr uint8

	// secondary OAM, four bytes per sprite: y, id, attribute, x
	spriteScanline         [64 * 4]uint8
	spriteCount            int
	spriteShifterPatternLo [64]uint8
	spriteShifterPatternHi [64]uint8
	spriteLimit            bool

	spriteZeroHitPossible   bool
	spriteZeroBeingRendered bool

	// nmiLine is the level of the NMI output; nmi latches its rising edge
	// until the console hands it to the CPU.
	nmiLine bool
	nmi     bool

	screen [ScreenWidth * ScreenHeight]uint8

	cartridge *Cartridge
}

func NewPPU(spriteLimit bool) *PPU {
	p := &PPU{spriteLimit: spriteLimit}
	p.reset()
	return p
}

func (p *PPU) connectCartridge(cartridge *Cartridge) {
	p.cartridge = cartridge
}

func (p *PPU) rendering() bool {
	return p.mask.Flag(ppu.MaskRenderBackground) || p.mask.Flag(ppu.MaskRenderSprites)
}

func (p *PPU) updateNMI() {
	line := p.control.Flag(ppu.CtrlEnableNMI) && p.status.Flag(ppu.StatusVerticalBlank)
	if line && !p.nmiLine {
		p.nmi = true
	}
	p.nmiLine = line
}

func (p *PPU) increment() uint16 {
	if p.control.Flag(ppu.CtrlIncrementMode) {
		return 32
	}
	return 1
}

// cpuRead serves $2000-$2007. readOnly reads have no side effects.
func (p *PPU) cpuRead(addr uint16, readOnly bool) uint8 {
	data := p.ioLatch

	switch addr & 0x0007 {
	case 0x0002:
		data = (p.status.Byte() & 0xE0) | (p.ioLatch & 0x1F)
		if readOnly {
			return data
		}
		p.status.SetFlag(ppu.StatusVerticalBlank, false)
		p.addressLatch = 0
		p.updateNMI()
	case 0x0004:
		data = p.oam[p.oamAddr]
	case 0x0007:
		if readOnly {
			return p.ppuDataBuffer
		}
		v := p.vramAddr.Reg & 0x3FFF
		data = p.ppuDataBuffer
		p.ppuDataBuffer = p.ppuRead(v)
		if v >= 0x3F00 {
			// palette reads skip the buffer, which is filled from the
			// nametable underneath
			data = (p.ppuDataBuffer & 0x3F) | (p.ioLatch & 0xC0)
			p.ppuDataBuffer = p.ppuRead(v - 0x1000)
		}
		p.vramAddr.Reg = (p.vramAddr.Reg + p.increment()) & 0x7FFF
	}

	if !readOnly {
		p.ioLatch = data
	}
	return data
}

func (p *PPU) cpuWrite(addr uint16, data uint8) {
	p.ioLatch = data

	switch addr & 0x0007 {
	case 0x0000:
		p.control.Reg = uint16(data)
		p.tramAddr.SetField(ppu.LoopyNametableX, p.control.GetField(ppu.CtrlNametableX))
		p.tramAddr.SetField(ppu.LoopyNametableY, p.control.GetField(ppu.CtrlNametableY))
		p.updateNMI()
	case 0x0001:
		p.mask.Reg = uint16(data)
	case 0x0003:
		p.oamAddr = data
	case 0x0004:
		p.oam[p.oamAddr] = data
		p.oamAddr++
	case 0x0005:
		if p.addressLatch == 0 {
			p.fineX = data & 0x07
			p.tramAddr.SetField(ppu.LoopyCoarseX, uint16(data>>3))
			p.addressLatch = 1
		} else {
			p.tramAddr.SetField(ppu.LoopyFineY, uint16(data&0x07))
			p.tramAddr.SetField(ppu.LoopyCoarseY, uint16(data>>3))
			p.addressLatch = 0
		}
	case 0x0006:
		if p.addressLatch == 0 {
			p.tramAddr.Reg = (uint16(data&0x3F) << 8) | (p.tramAddr.Reg & 0x00FF)
			p.addressLatch = 1
		} else {
			p.tramAddr.Reg = (p.tramAddr.Reg & 0xFF00) | uint16(data)
			p.vramAddr = p.tramAddr
			p.addressLatch = 0
		}
	case 0x0007:
		p.ppuWrite(p.vramAddr.Reg&0x3FFF, data)
		p.vramAddr.Reg = (p.vramAddr.Reg + p.increment()) & 0x7FFF
	}
}

// writeOAM is used by OAM DMA.
func (p *PPU) writeOAM(data uint8) {
	p.oam[p.oamAddr] = data
	p.oamAddr++
}

func (p *PPU) nametable(addr uint16) *[1024]uint8 {
	table := (addr & 0x0FFF) / 0x0400
	switch p.cartridge.mirror() {
	case mapper.Vertical:
		table &= 1
	case mapper.Horizontal:
		table >>= 1
	case mapper.OneScreenLo:
		table = 0
	case mapper.OneScreenHi:
		table = 1
	}
	return &p.tableName[table]
}

func paletteIndex(addr uint16) uint16 {
	addr &= 0x001F
	if addr&0x0013 == 0x0010 {
		addr &^= 0x0010
	}
	return addr
}

func (p *PPU) ppuRead(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return p.cartridge.ppuRead(addr)
	case addr < 0x3F00:
		return p.nametable(addr)[addr&0x03FF]
	}
	data := p.tablePalette[paletteIndex(addr)]
	if p.mask.Flag(ppu.MaskGrayscale) {
		data &= 0x30
	}
	return data
}

func (p *PPU) ppuWrite(addr uint16, data uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		p.cartridge.ppuWrite(addr, data)
	case addr < 0x3F00:
		p.nametable(addr)[addr&0x03FF] = data
	default:
		p.tablePalette[paletteIndex(addr)] = data & 0x3F
	}
}

func (p *PPU) incrementScrollX() {
	if p.vramAddr.GetField(ppu.LoopyCoarseX) == 31 {
		p.vramAddr.SetField(ppu.LoopyCoarseX, 0)
		p.vramAddr.SetField(ppu.LoopyNametableX, ^p.vramAddr.GetField(ppu.LoopyNametableX))
		return
	}
	p.vramAddr.SetField(ppu.LoopyCoarseX, p.vramAddr.GetField(ppu.LoopyCoarseX)+1)
}

func (p *PPU) incrementScrollY() {
	if p.vramAddr.GetField(ppu.LoopyFineY) < 7 {
		p.vramAddr.SetField(ppu.LoopyFineY, p.vramAddr.GetField(ppu.LoopyFineY)+1)
		return
	}
	p.vramAddr.SetField(ppu.LoopyFineY, 0)

	switch p.vramAddr.GetField(ppu.LoopyCoarseY) {
	case 29:
		p.vramAddr.SetField(ppu.LoopyCoarseY, 0)
		p.vramAddr.SetField(ppu.LoopyNametableY, ^p.vramAddr.GetField(ppu.LoopyNametableY))
	case 31:
		// pointer was in attribute memory, wrap within the nametable
		p.vramAddr.SetField(ppu.LoopyCoarseY, 0)
	default:
		p.vramAddr.SetField(ppu.LoopyCoarseY, p.vramAddr.GetField(ppu.LoopyCoarseY)+1)
	}
}

func (p *PPU) transferAddressX() {
	p.vramAddr.SetField(ppu.LoopyNametableX, p.tramAddr.GetField(ppu.LoopyNametableX))
	p.vramAddr.SetField(ppu.LoopyCoarseX, p.tramAddr.GetField(ppu.LoopyCoarseX))
}

func (p *PPU) transferAddressY() {
	p.vramAddr.SetField(ppu.LoopyFineY, p.tramAddr.GetField(ppu.LoopyFineY))
	p.vramAddr.SetField(ppu.LoopyNametableY, p.tramAddr.GetField(ppu.LoopyNametableY))
	p.vramAddr.SetField(ppu.LoopyCoarseY, p.tramAddr.GetField(ppu.LoopyCoarseY))
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShifterPatternLo = (p.bgShifterPatternLo & 0xFF00) | uint16(p.bgNextTileLsb)
	p.bgShifterPatternHi = (p.bgShifterPatternHi & 0xFF00) | uint16(p.bgNextTileMsb)

	acc := uint16(0x00)
	if p.bgNextTileAttrib&0b01 != 0 {
		acc = 0xFF
	}
	p.bgShifterAttribLo = (p.bgShifterAttribLo & 0xFF00) | acc
	acc = uint16(0x00)
	if p.bgNextTileAttrib&0b10 != 0 {
		acc = 0xFF
	}
	p.bgShifterAttribHi = (p.bgShifterAttribHi & 0xFF00) | acc
}

func (p *PPU) updateShifters() {
	if p.mask.Flag(ppu.MaskRenderBackground) {
		p.bgShifterPatternLo <<= 1
		p.bgShifterPatternHi <<= 1
		p.bgShifterAttribLo <<= 1
		p.bgShifterAttribHi <<= 1
	}

	if p.mask.Flag(ppu.MaskRenderSprites) && p.cycle >= 1 && p.cycle < 258 {
		for i := 0; i < p.spriteCount; i++ {
			if p.spriteScanline[i*4+3] > 0 {
				p.spriteScanline[i*4+3]--
			} else {
				p.spriteShifterPatternLo[i] <<= 1
				p.spriteShifterPatternHi[i] <<= 1
			}
		}
	}
}

func (p *PPU) spriteHeight() int16 {
	if p.control.Flag(ppu.CtrlSpriteSize) {
		return 16
	}
	return 8
}

// evaluateSprites fills secondary OAM with the sprites on the next line.
func (p *PPU) evaluateSprites() {
	limit := 8
	if !p.spriteLimit {
		limit = 64
	}

	p.spriteCount = 0
	p.spriteZeroHitPossible = false
	found := 0
	height := p.spriteHeight()
	for n := 0; n < 64; n++ {
		diff := p.scanline - int16(p.oam[n*4])
		if diff < 0 || diff >= height {
			continue
		}
		found++
		if p.spriteCount < limit {
			if n == 0 {
				p.spriteZeroHitPossible = true
			}
			copy(p.spriteScanline[p.spriteCount*4:], p.oam[n*4:n*4+4])
			p.spriteCount++
		}
	}
	if found > 8 {
		p.status.SetFlag(ppu.StatusSpriteOverflow, true)
	}
}

func flipByte(b uint8) uint8 {
	b = ((b & 0xF0) >> 4) | ((b & 0x0F) << 4)
	b = ((b & 0xCC) >> 2) | ((b & 0x33) << 2)
	b = ((b & 0xAA) >> 1) | ((b & 0x55) << 1)
	return b
}

func (p *PPU) fetchSprites() {
	for i := 0; i < p.spriteCount; i++ {
		y := p.spriteScanline[i*4]
		id := uint16(p.spriteScanline[i*4+1])
		attribute := p.spriteScanline[i*4+2]

		row := uint16(p.scanline - int16(y))
		var addr uint16
		if !p.control.Flag(ppu.CtrlSpriteSize) {
			if attribute&0x80 != 0 {
				row = 7 - row
			}
			addr = (p.control.GetField(ppu.CtrlPatternSprite) << 12) | (id << 4) | row
		} else {
			if attribute&0x80 != 0 {
				row = 15 - row
			}
			tile := id & 0xFE
			if row >= 8 {
				tile++
				row -= 8
			}
			addr = ((id & 0x01) << 12) | (tile << 4) | row
		}

		lo := p.ppuRead(addr)
		hi := p.ppuRead(addr + 8)
		if attribute&0x40 != 0 {
			lo = flipByte(lo)
			hi = flipByte(hi)
		}
		p.spriteShifterPatternLo[i] = lo
		p.spriteShifterPatternHi[i] = hi
	}
}

func (p *PPU) fetchBackground() {
	switch (p.cycle - 1) % 8 {
	case 0:
		p.loadBackgroundShifters()
		p.bgNextTileId = p.ppuRead(0x2000 | (p.vramAddr.Reg & 0x0FFF))
	case 2:
		p.bgNextTileAttrib = p.ppuRead(0x23C0 |
			(p.vramAddr.GetField(ppu.LoopyNametableY) << 11) |
			(p.vramAddr.GetField(ppu.LoopyNametableX) << 10) |
			((p.vramAddr.GetField(ppu.LoopyCoarseY) >> 2) << 3) |
			(p.vramAddr.GetField(ppu.LoopyCoarseX) >> 2))
		if p.vramAddr.GetField(ppu.LoopyCoarseY)&0x02 != 0 {
			p.bgNextTileAttrib >>= 4
		}
		if p.vramAddr.GetField(ppu.LoopyCoarseX)&0x02 != 0 {
			p.bgNextTileAttrib >>= 2
		}
		p.bgNextTileAttrib &= 0x03
	case 4:
		p.bgNextTileLsb = p.ppuRead((p.control.GetField(ppu.CtrlPatternBackground) << 12) +
			(uint16(p.bgNextTileId) << 4) + p.vramAddr.GetField(ppu.LoopyFineY))
	case 6:
		p.bgNextTileMsb = p.ppuRead((p.control.GetField(ppu.CtrlPatternBackground) << 12) +
			(uint16(p.bgNextTileId) << 4) + p.vramAddr.GetField(ppu.LoopyFineY) + 8)
	case 7:
		p.incrementScrollX()
	}
}

// clock advances the PPU by one dot.
func (p *PPU) clock() {
	rendering := p.rendering()

	if p.scanline >= -1 && p.scanline < 240 {
		if p.scanline == -1 && p.cycle == 1 {
			p.status.SetFlag(ppu.StatusVerticalBlank, false)
			p.status.SetFlag(ppu.StatusSpriteZeroHit, false)
			p.status.SetFlag(ppu.StatusSpriteOverflow, false)
			p.updateNMI()
			p.spriteCount = 0
		}

		if rendering {
			if (p.cycle >= 2 && p.cycle < 258) || (p.cycle >= 321 && p.cycle < 338) {
				p.updateShifters()
				p.fetchBackground()
			}
			if p.cycle == 256 {
				p.incrementScrollY()
			}
			if p.cycle == 257 {
				p.loadBackgroundShifters()
				p.transferAddressX()
			}
			if p.cycle == 338 || p.cycle == 340 {
				p.bgNextTileId = p.ppuRead(0x2000 | (p.vramAddr.Reg & 0x0FFF))
			}
			if p.scanline == -1 && p.cycle >= 280 && p.cycle < 305 {
				p.transferAddressY()
			}
			if p.cycle >= 257 && p.cycle <= 320 {
				p.oamAddr = 0
			}

			if p.cycle == 257 && p.scanline >= 0 {
				p.evaluateSprites()
			}
			if p.cycle == 260 {
				p.cartridge.scanline()
			}
			if p.cycle == 340 {
				p.fetchSprites()
			}
		}
	}

	if p.scanline == 241 && p.cycle == 1 {
		p.status.SetFlag(ppu.StatusVerticalBlank, true)
		p.updateNMI()
	}

	if p.scanline >= 0 && p.scanline < 240 && p.cycle >= 1 && p.cycle <= 256 {
		p.renderPixel()
	}

	p.cycle++
	if rendering && p.oddFrame && p.scanline == -1 && p.cycle == 340 {
		p.cycle = dotsPerLine
	}
	if p.cycle >= dotsPerLine {
		p.cycle = 0
		p.scanline++
		if p.scanline >= 261 {
			p.scanline = -1
			p.frameComplete = true
			p.frame++
			p.oddFrame = !p.oddFrame
		}
	}
}

func (p *PPU) renderPixel() {
	x := int(p.cycle) - 1

	bgPixel := uint8(0)
	bgPalette := uint8(0)
	if p.mask.Flag(ppu.MaskRenderBackground) && (x >= 8 || p.mask.Flag(ppu.MaskRenderBackgroundLeft)) {
		bitMux := uint16(0x8000) >> p.fineX
		if p.bgShifterPatternLo&bitMux != 0 {
			bgPixel |= 1
		}
		if p.bgShifterPatternHi&bitMux != 0 {
			bgPixel |= 2
		}
		if p.bgShifterAttribLo&bitMux != 0 {
			bgPalette |= 1
		}
		if p.bgShifterAttribHi&bitMux != 0 {
			bgPalette |= 2
		}
	}

	fgPixel := uint8(0)
	fgPalette := uint8(0)
	fgPriority := false
	p.spriteZeroBeingRendered = false
	if p.mask.Flag(ppu.MaskRenderSprites) && (x >= 8 || p.mask.Flag(ppu.MaskRenderSpritesLeft)) {
		for i := 0; i < p.spriteCount; i++ {
			if p.spriteScanline[i*4+3] != 0 {
				continue
			}
			pixel := (p.spriteShifterPatternLo[i] >> 7) | ((p.spriteShifterPatternHi[i] >> 7) << 1)
			if pixel == 0 {
				continue
			}
			attribute := p.spriteScanline[i*4+2]
			fgPixel = pixel
			fgPalette = (attribute & 0x03) + 0x04
			fgPriority = attribute&0x20 == 0
			p.spriteZeroBeingRendered = i == 0
			break
		}
	}

	pixel := uint8(0)
	palette := uint8(0)
	switch {
	case bgPixel == 0 && fgPixel == 0:
	case bgPixel == 0:
		pixel, palette = fgPixel, fgPalette
	case fgPixel == 0:
		pixel, palette = bgPixel, bgPalette
	default:
		if fgPriority {
			pixel, palette = fgPixel, fgPalette
		} else {
			pixel, palette = bgPixel, bgPalette
		}
		if p.spriteZeroHitPossible && p.spriteZeroBeingRendered && x != 255 {
			p.status.SetFlag(ppu.StatusSpriteZeroHit, true)
		}
	}

	p.screen[int(p.scanline)*ScreenWidth+x] = p.ppuRead(0x3F00+uint16(palette)<<2+uint16(pixel)) & 0x3F
}

func (p *PPU) reset() {
	p.fineX = 0
	p.addressLatch = 0
	p.ppuDataBuffer = 0
	p.ioLatch = 0
	p.scanline = -1
	p.cycle = 0
	p.frame = 0
	p.oddFrame = false
	p.frameComplete = false
	p.bgNextTileId = 0
	p.bgNextTileAttrib = 0
	p.bgNextTileLsb = 0
	p.bgNextTileMsb = 0
	p.bgShifterPatternLo = 0x0000
	p.bgShifterPatternHi = 0x0000
	p.bgShifterAttribLo = 0x0000
	p.bgShifterAttribHi = 0x0000
	p.status.Reg = 0x00
	p.mask.Reg = 0x00
	p.control.Reg = 0x00
	p.vramAddr.Reg = 0x0000
	p.tramAddr.Reg = 0x0000
	p.oamAddr = 0
	p.spriteCount = 0
	p.nmiLine = false
	p.nmi = false
}
