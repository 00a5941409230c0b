package nes

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"nes-core/logger"
)

type Instruction struct {
	Name     string `json:"name"`
	AddrMode string `json:"addr_mode"`
	Cycles   uint8  `json:"cycles"`
}

// decoded is an Instruction with its handlers resolved.
type decoded struct {
	Instruction
	mode    func(*CPU) uint8
	op      func(*CPU) uint8
	implied bool // operand is the accumulator
	trap    bool
}

//go:embed opcodes.json
var opcodesJSON []byte

var lookup [256]decoded

// opcodes with no stable behaviour on the 2A03. Fetching one halts the CPU.
var trapped = map[string]bool{
	"JAM": true,
	"XAA": true,
	"LXA": true,
	"AHX": true,
	"TAS": true,
	"SHY": true,
	"SHX": true,
	"LAS": true,
}

func init() {
	var table []Instruction
	if err := json.Unmarshal(opcodesJSON, &table); err != nil {
		panic(fmt.Sprintf("opcodes.json: %v", err))
	}
	if len(table) != len(lookup) {
		panic(fmt.Sprintf("opcodes.json: %d entries", len(table)))
	}
	for i, inst := range table {
		mode, ok := AddressModes[inst.AddrMode]
		if !ok {
			panic(fmt.Sprintf("opcodes.json: $%02X: unknown mode %s", i, inst.AddrMode))
		}
		d := decoded{
			Instruction: inst,
			mode:        mode,
			implied:     inst.AddrMode == "IMP" || inst.AddrMode == "ACC",
			trap:        trapped[inst.Name],
		}
		// trapped opcodes halt in step before dispatch and keep a nil op
		if !d.trap {
			if d.op, ok = Operations[inst.Name]; !ok {
				panic(fmt.Sprintf("opcodes.json: $%02X: unknown operation %s", i, inst.Name))
			}
		}
		lookup[i] = d
	}
}

// CPU is the 2A03's 6502 core. Decimal mode is stored but never applied.
type CPU struct {
	accumulator uint8
	xRegister   uint8
	yRegister   uint8
	stkp        uint8
	pc          uint16
	status      uint8

	fetched uint8
	addrAbs uint16
	addrRel uint16
	opcode  uint8
	cycles  int

	totalCycles uint64
	// cycles to burn before the next instruction, from DMA or reset
	stall      int
	nmiPending bool
	halt       *UnimplementedOpcodeError

	bus *Bus
}

var AddressModes = map[string]func(*CPU) uint8{
	"IMP": imp,
	"ACC": acc,
	"IMM": imm,
	"ZP0": zp0,
	"ZPX": zpx,
	"ZPY": zpy,
	"REL": rel,
	"ABS": abs,
	"ABX": abx,
	"ABY": aby,
	"IND": ind,
	"IZX": izx,
	"IZY": izy,
}

func imp(c *CPU) uint8 {
	c.fetched = c.accumulator
	return 0
}

func acc(c *CPU) uint8 {
	c.fetched = c.accumulator
	return 0
}

func imm(c *CPU) uint8 {
	c.addrAbs = c.pc
	c.pc++
	return 0
}

func zp0(c *CPU) uint8 {
	c.addrAbs = uint16(c.read(c.pc))
	c.pc++
	return 0
}

func zpx(c *CPU) uint8 {
	c.addrAbs = (uint16(c.read(c.pc)) + uint16(c.xRegister)) & 0x00FF
	c.pc++
	return 0
}

func zpy(c *CPU) uint8 {
	c.addrAbs = (uint16(c.read(c.pc)) + uint16(c.yRegister)) & 0x00FF
	c.pc++
	return 0
}

func rel(c *CPU) uint8 {
	c.addrRel = uint16(c.read(c.pc))
	c.pc++
	if c.addrRel&0x80 != 0 {
		c.addrRel |= 0xFF00
	}
	return 0
}

func abs(c *CPU) uint8 {
	c.addrAbs = c.read16(c.pc)
	c.pc += 2
	return 0
}

func abx(c *CPU) uint8 {
	base := c.read16(c.pc)
	c.pc += 2
	c.addrAbs = base + uint16(c.xRegister)
	if (c.addrAbs & 0xFF00) != (base & 0xFF00) {
		return 1
	}
	return 0
}

func aby(c *CPU) uint8 {
	base := c.read16(c.pc)
	c.pc += 2
	c.addrAbs = base + uint16(c.yRegister)
	if (c.addrAbs & 0xFF00) != (base & 0xFF00) {
		return 1
	}
	return 0
}

// ind reproduces the 6502 bug where a pointer at $xxFF takes its high byte
// from $xx00.
func ind(c *CPU) uint8 {
	ptr := c.read16(c.pc)
	c.pc += 2

	if ptr&0x00FF == 0x00FF {
		c.addrAbs = (uint16(c.read(ptr&0xFF00)) << 8) | uint16(c.read(ptr))
		return 0
	}
	c.addrAbs = c.read16(ptr)
	return 0
}

func izx(c *CPU) uint8 {
	t := uint16(c.read(c.pc))
	c.pc++

	lo := uint16(c.read((t + uint16(c.xRegister)) & 0x00FF))
	hi := uint16(c.read((t + uint16(c.xRegister) + 1) & 0x00FF))
	c.addrAbs = (hi << 8) | lo
	return 0
}

func izy(c *CPU) uint8 {
	t := uint16(c.read(c.pc))
	c.pc++

	lo := uint16(c.read(t & 0x00FF))
	hi := uint16(c.read((t + 1) & 0x00FF))

	c.addrAbs = ((hi << 8) | lo) + uint16(c.yRegister)
	if (c.addrAbs & 0xFF00) != (hi << 8) {
		return 1
	}
	return 0
}

type CPUFlag uint8

const (
	C = CPUFlag(1 << 0)
	Z = CPUFlag(1 << 1)
	I = CPUFlag(1 << 2)
	D = CPUFlag(1 << 3)
	B = CPUFlag(1 << 4)
	U = CPUFlag(1 << 5)
	V = CPUFlag(1 << 6)
	N = CPUFlag(1 << 7)
)

func (c *CPU) getFlag(flag CPUFlag) uint8 {
	if c.status&uint8(flag) != 0 {
		return 1
	}
	return 0
}

func (c *CPU) setFlag(flag CPUFlag, v bool) {
	if v {
		c.status |= uint8(flag)
	} else {
		c.status &= ^uint8(flag)
	}
}

func (c *CPU) setZN(v uint8) {
	c.setFlag(Z, v == 0)
	c.setFlag(N, v&0x80 != 0)
}

func (c *CPU) fetch() uint8 {
	if !lookup[c.opcode].implied {
		c.fetched = c.read(c.addrAbs)
	}
	return c.fetched
}

// store writes the result of a read-modify-write operation back to where
// the operand came from.
func (c *CPU) store(v uint8) {
	if lookup[c.opcode].implied {
		c.accumulator = v
		return
	}
	c.write(c.addrAbs, v)
}

func (c *CPU) read(addr uint16) uint8 {
	return c.bus.cpuRead(addr, false)
}

func (c *CPU) read16(addr uint16) uint16 {
	return uint16(c.read(addr)) | uint16(c.read(addr+1))<<8
}

func (c *CPU) write(addr uint16, data uint8) {
	c.bus.cpuWrite(addr, data)
}

func (c *CPU) push(data uint8) {
	c.write(0x0100+uint16(c.stkp), data)
	c.stkp--
}

func (c *CPU) pop() uint8 {
	c.stkp++
	return c.read(0x0100 + uint16(c.stkp))
}

func (c *CPU) push16(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

func (c *CPU) connectBus(bus *Bus) {
	c.bus = bus
}

// nmi latches a falling edge on the NMI line. It is serviced before the
// next instruction.
func (c *CPU) nmi() {
	c.nmiPending = true
}

// interrupt pushes PC and status with B clear and jumps through vector.
func (c *CPU) interrupt(vector uint16) {
	c.push16(c.pc)
	c.push((c.status &^ uint8(B)) | uint8(U))
	c.setFlag(I, true)
	c.pc = c.read16(vector)
}

// step runs one instruction, one interrupt entry or one stall and returns
// the number of CPU cycles it took. A halted CPU returns 0.
func (c *CPU) step() int {
	if c.halt != nil {
		return 0
	}

	if c.stall > 0 {
		n := c.stall
		c.stall = 0
		c.totalCycles += uint64(n)
		return n
	}

	if c.nmiPending {
		c.nmiPending = false
		c.interrupt(0xFFFA)
		c.totalCycles += 7
		return 7
	}
	if c.getFlag(I) == 0 && c.bus.irq() {
		c.interrupt(0xFFFE)
		c.totalCycles += 7
		return 7
	}

	pc := c.pc
	c.opcode = c.read(c.pc)
	inst := &lookup[c.opcode]
	if inst.trap {
		c.halt = &UnimplementedOpcodeError{Opcode: c.opcode, PC: pc}
		logger.Log("cpu", c.halt.Error())
		return 0
	}
	c.pc++

	c.cycles = int(inst.Cycles)
	additionalCycle1 := inst.mode(c)
	additionalCycle2 := inst.op(c)
	c.cycles += int(additionalCycle1 & additionalCycle2)
	c.setFlag(U, true)

	c.totalCycles += uint64(c.cycles)
	return c.cycles
}

// reset is the RESET line. It takes seven cycles before the first fetch.
func (c *CPU) reset() {
	c.pc = c.read16(0xFFFC)

	c.accumulator = 0
	c.xRegister = 0
	c.yRegister = 0
	c.stkp = 0xFD
	c.status = uint8(U) | uint8(I)

	c.addrRel = 0x0000
	c.addrAbs = 0x0000
	c.fetched = 0x00

	c.totalCycles = 0
	c.stall = 7
	c.nmiPending = false
	c.halt = nil
}
