package nes

// Bus is the CPU address space. It owns the 2 KiB of work RAM and routes
// everything else by fixed address ranges.
type Bus struct {
	cpuRam [2048]uint8

	cpu       *CPU
	ppu       *PPU
	apu       *APU
	cartridge *Cartridge

	controller [2]Controller

	// last byte transferred on the data bus
	openBus uint8
}

func NewBus(cpu *CPU, ppu *PPU, apu *APU, cartridge *Cartridge) *Bus {
	b := &Bus{
		cpu:       cpu,
		ppu:       ppu,
		apu:       apu,
		cartridge: cartridge,
	}
	cpu.connectBus(b)
	apu.connectBus(b)
	ppu.connectCartridge(cartridge)
	return b
}

func (b *Bus) cpuWrite(addr uint16, data uint8) {
	b.openBus = data

	switch {
	case addr < 0x2000:
		b.cpuRam[addr&0x07FF] = data
	case addr < 0x4000:
		b.ppu.cpuWrite(addr&0x0007, data)
	case addr == 0x4014:
		b.oamDMA(data)
	case addr == 0x4016:
		b.controller[0].write(data)
		b.controller[1].write(data)
	case addr < 0x4018:
		b.apu.cpuWrite(addr, data)
	case addr >= 0x4020:
		b.cartridge.cpuWrite(addr, data)
	}
}

// cpuRead returns the byte at addr. readOnly reads leave every register and
// the open bus latch untouched, for the disassembler and tracer.
func (b *Bus) cpuRead(addr uint16, readOnly bool) uint8 {
	data := b.openBus

	switch {
	case addr < 0x2000:
		data = b.cpuRam[addr&0x07FF]
	case addr < 0x4000:
		data = b.ppu.cpuRead(addr&0x0007, readOnly)
	case addr == 0x4015:
		// bit 5 is not driven
		data = b.apu.readStatus(readOnly) | (b.openBus & 0x20)
	case addr == 0x4016 || addr == 0x4017:
		data = (b.openBus & 0xE0) | b.controller[addr&0x0001].read(readOnly)
	case addr >= 0x4020:
		if v, ok := b.cartridge.cpuRead(addr); ok {
			data = v
		}
	}

	if !readOnly {
		b.openBus = data
	}
	return data
}

func (b *Bus) peek(addr uint16) uint8 {
	return b.cpuRead(addr, true)
}

// oamDMA copies a page into OAM. The CPU is stalled for 513 cycles, plus one
// when the transfer starts on an odd cycle.
func (b *Bus) oamDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		b.ppu.writeOAM(b.cpuRead(base+i, false))
	}
	stall := 513
	if b.cpu.totalCycles%2 == 1 {
		stall++
	}
	b.cpu.stall += stall
}

// irq is the level of the shared IRQ line.
func (b *Bus) irq() bool {
	return b.cartridge.irq() || b.apu.irq()
}
