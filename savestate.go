package nes

import (
	"fmt"

	"nes-core/logger"
	"nes-core/snapshot"
)

// State is an encoded snapshot of a running console. It can only be
// restored into a console running the same ROM.
type State []byte

const (
	stateMagic   = "NESS"
	stateVersion = 2
)

// Snapshot encodes every mutable part of the console.
func (c *Console) Snapshot() (State, error) {
	if c.machine == nil {
		return nil, ErrNoCartridge
	}
	e := snapshot.NewEncoder(nil)
	e.String(stateMagic)
	e.Uint32(stateVersion)
	e.Uint32(c.cart.CRC32)
	if err := c.machine.save(e); err != nil {
		return nil, err
	}
	return State(e.Out()), nil
}

// Restore replaces the console state with s. The state is decoded into a
// separate machine first; the console only changes if every field decoded.
func (c *Console) Restore(s State) error {
	if c.machine == nil {
		return ErrNoCartridge
	}

	d := snapshot.NewDecoder(s)
	if magic := d.String(); d.Err() != nil || magic != stateMagic {
		return &IncompatibleStateError{Reason: "not a save state"}
	}
	version := d.Uint32()
	if d.Err() != nil {
		return &IncompatibleStateError{Reason: d.Err().Error()}
	}
	if version != stateVersion {
		return &IncompatibleStateError{Got: version, Want: stateVersion}
	}
	if crc := d.Uint32(); crc != c.cart.CRC32 {
		return &IncompatibleStateError{Reason: fmt.Sprintf("state is for ROM %08x, loaded ROM is %08x", crc, c.cart.CRC32)}
	}

	cart, err := c.cart.clone()
	if err != nil {
		return &IncompatibleStateError{Reason: err.Error()}
	}
	m := newMachine(cart, c.config)
	m.load(d)
	if d.Err() != nil {
		return &IncompatibleStateError{Reason: d.Err().Error()}
	}
	if n := len(d.Rest()); n != 0 {
		return &IncompatibleStateError{Reason: fmt.Sprintf("%d trailing bytes", n)}
	}

	c.machine = m
	logger.Logf("console", "restored state at frame %d", m.ppu.frame)
	return nil
}

const machineStateFields = 9

func (m *machine) save(e *snapshot.Encoder) error {
	e.Array(machineStateFields)
	m.cpu.save(e)
	e.Bytes(m.bus.cpuRam[:])
	e.Uint8(m.bus.openBus)
	e.Array(len(m.bus.controller) * 3)
	for i := range m.bus.controller {
		ctl := &m.bus.controller[i]
		e.Uint8(ctl.buttons)
		e.Uint8(ctl.shift)
		e.Bool(ctl.strobe)
	}
	if err := e.Raw(m.cart.mapper); err != nil {
		return err
	}
	e.Bytes(m.cart.PRGRAM)
	if m.cart.CHRRAM {
		e.Bytes(m.cart.CHR)
	} else {
		e.Bytes(nil)
	}
	m.ppu.save(e)
	m.apu.save(e)
	return nil
}

func (m *machine) load(d *snapshot.Decoder) {
	d.Array(machineStateFields)
	m.cpu.load(d)
	d.BytesInto(m.bus.cpuRam[:])
	m.bus.openBus = d.Uint8()
	d.Array(len(m.bus.controller) * 3)
	for i := range m.bus.controller {
		ctl := &m.bus.controller[i]
		ctl.buttons = d.Uint8()
		ctl.shift = d.Uint8()
		ctl.strobe = d.Bool()
	}
	d.Raw(m.cart.mapper)
	d.BytesInto(m.cart.PRGRAM)
	if m.cart.CHRRAM {
		d.BytesInto(m.cart.CHR)
	} else {
		d.BytesInto(nil)
	}
	m.ppu.load(d)
	m.apu.load(d)
}

const cpuStateFields = 17

func (c *CPU) save(e *snapshot.Encoder) {
	e.Array(cpuStateFields)
	e.Uint8(c.accumulator)
	e.Uint8(c.xRegister)
	e.Uint8(c.yRegister)
	e.Uint8(c.stkp)
	e.Uint16(c.pc)
	e.Uint8(c.status)
	e.Uint8(c.fetched)
	e.Uint16(c.addrAbs)
	e.Uint16(c.addrRel)
	e.Uint8(c.opcode)
	e.Int(c.cycles)
	e.Uint64(c.totalCycles)
	e.Int(c.stall)
	e.Bool(c.nmiPending)
	if c.halt != nil {
		e.Bool(true)
		e.Uint8(c.halt.Opcode)
		e.Uint16(c.halt.PC)
	} else {
		e.Bool(false)
		e.Uint8(0)
		e.Uint16(0)
	}
}

func (c *CPU) load(d *snapshot.Decoder) {
	d.Array(cpuStateFields)
	c.accumulator = d.Uint8()
	c.xRegister = d.Uint8()
	c.yRegister = d.Uint8()
	c.stkp = d.Uint8()
	c.pc = d.Uint16()
	c.status = d.Uint8()
	c.fetched = d.Uint8()
	c.addrAbs = d.Uint16()
	c.addrRel = d.Uint16()
	c.opcode = d.Uint8()
	c.cycles = d.Int()
	c.totalCycles = d.Uint64()
	c.stall = d.Int()
	c.nmiPending = d.Bool()
	halted := d.Bool()
	opcode := d.Uint8()
	pc := d.Uint16()
	c.halt = nil
	if halted {
		c.halt = &UnimplementedOpcodeError{Opcode: opcode, PC: pc}
	}
}

const ppuStateFields = 38

func (p *PPU) save(e *snapshot.Encoder) {
	e.Array(ppuStateFields)
	for i := range p.tableName {
		e.Bytes(p.tableName[i][:])
	}
	e.Bytes(p.tablePalette[:])
	e.Uint16(p.status.Reg)
	e.Uint16(p.mask.Reg)
	e.Uint16(p.control.Reg)
	e.Uint16(p.vramAddr.Reg)
	e.Uint16(p.tramAddr.Reg)
	e.Uint8(p.fineX)
	e.Uint8(p.addressLatch)
	e.Uint8(p.ppuDataBuffer)
	e.Uint8(p.ioLatch)
	e.Int16(p.scanline)
	e.Int16(p.cycle)
	e.Uint64(p.frame)
	e.Bool(p.oddFrame)
	e.Bool(p.frameComplete)
	e.Uint8(p.bgNextTileId)
	e.Uint8(p.bgNextTileAttrib)
	e.Uint8(p.bgNextTileLsb)
	e.Uint8(p.bgNextTileMsb)
	e.Uint16(p.bgShifterPatternLo)
	e.Uint16(p.bgShifterPatternHi)
	e.Uint16(p.bgShifterAttribLo)
	e.Uint16(p.bgShifterAttribHi)
	e.Bytes(p.oam[:])
	e.Uint8(p.oamAddr)
	e.Bytes(p.spriteScanline[:])
	e.Int(p.spriteCount)
	e.Bytes(p.spriteShifterPatternLo[:])
	e.Bytes(p.spriteShifterPatternHi[:])
	e.Bool(p.spriteZeroHitPossible)
	e.Bool(p.spriteZeroBeingRendered)
	e.Bool(p.nmiLine)
	e.Bool(p.nmi)
	e.Bytes(p.screen[:])
}

func (p *PPU) load(d *snapshot.Decoder) {
	d.Array(ppuStateFields)
	for i := range p.tableName {
		d.BytesInto(p.tableName[i][:])
	}
	d.BytesInto(p.tablePalette[:])
	p.status.Reg = d.Uint16()
	p.mask.Reg = d.Uint16()
	p.control.Reg = d.Uint16()
	p.vramAddr.Reg = d.Uint16()
	p.tramAddr.Reg = d.Uint16()
	p.fineX = d.Uint8() & 0x07
	p.addressLatch = d.Uint8()
	p.ppuDataBuffer = d.Uint8()
	p.ioLatch = d.Uint8()
	p.scanline = d.Int16()
	p.cycle = d.Int16()
	p.frame = d.Uint64()
	p.oddFrame = d.Bool()
	p.frameComplete = d.Bool()
	p.bgNextTileId = d.Uint8()
	p.bgNextTileAttrib = d.Uint8()
	p.bgNextTileLsb = d.Uint8()
	p.bgNextTileMsb = d.Uint8()
	p.bgShifterPatternLo = d.Uint16()
	p.bgShifterPatternHi = d.Uint16()
	p.bgShifterAttribLo = d.Uint16()
	p.bgShifterAttribHi = d.Uint16()
	d.BytesInto(p.oam[:])
	p.oamAddr = d.Uint8()
	d.BytesInto(p.spriteScanline[:])
	p.spriteCount = d.Int()
	d.BytesInto(p.spriteShifterPatternLo[:])
	d.BytesInto(p.spriteShifterPatternHi[:])
	p.spriteZeroHitPossible = d.Bool()
	p.spriteZeroBeingRendered = d.Bool()
	p.nmiLine = d.Bool()
	p.nmi = d.Bool()
	d.BytesInto(p.screen[:])

	if p.spriteCount < 0 || p.spriteCount > len(p.spriteShifterPatternLo) {
		p.spriteCount = 0
	}
}
