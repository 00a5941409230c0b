package nes

import (
	"fmt"
	"strings"
)

type DisassembledInstruction struct {
	Addr     uint16
	Bytes    []uint8
	Text     string
	NextAddr uint16
}

// operand formats the operand bytes of an instruction at addr.
func operand(mode string, addr uint16, lo, hi uint8) string {
	w := uint16(hi)<<8 | uint16(lo)
	switch mode {
	case "ACC":
		return "A"
	case "IMM":
		return fmt.Sprintf("#$%02X", lo)
	case "ZP0":
		return fmt.Sprintf("$%02X", lo)
	case "ZPX":
		return fmt.Sprintf("$%02X,X", lo)
	case "ZPY":
		return fmt.Sprintf("$%02X,Y", lo)
	case "IZX":
		return fmt.Sprintf("($%02X,X)", lo)
	case "IZY":
		return fmt.Sprintf("($%02X),Y", lo)
	case "ABS":
		return fmt.Sprintf("$%04X", w)
	case "ABX":
		return fmt.Sprintf("$%04X,X", w)
	case "ABY":
		return fmt.Sprintf("$%04X,Y", w)
	case "IND":
		return fmt.Sprintf("($%04X)", w)
	case "REL":
		offset := uint16(lo)
		if offset&0x80 != 0 {
			offset |= 0xFF00
		}
		return fmt.Sprintf("$%04X", addr+2+offset)
	}
	return ""
}

func operandSize(mode string) uint16 {
	switch mode {
	case "IMP", "ACC":
		return 0
	case "ABS", "ABX", "ABY", "IND":
		return 2
	}
	return 1
}

// disassembleAt decodes the instruction at addr without side effects.
func (b *Bus) disassembleAt(addr uint16) DisassembledInstruction {
	opcode := b.cpuRead(addr, true)
	inst := lookup[opcode].Instruction
	size := operandSize(inst.AddrMode)

	d := DisassembledInstruction{
		Addr:     addr,
		Bytes:    []uint8{opcode},
		NextAddr: addr + 1 + size,
	}
	var lo, hi uint8
	if size > 0 {
		lo = b.cpuRead(addr+1, true)
		d.Bytes = append(d.Bytes, lo)
	}
	if size > 1 {
		hi = b.cpuRead(addr+2, true)
		d.Bytes = append(d.Bytes, hi)
	}

	d.Text = inst.Name
	if op := operand(inst.AddrMode, addr, lo, hi); op != "" {
		d.Text += " " + op
	}
	return d
}

// disassemble decodes the instructions from start up to and including stop.
func (b *Bus) disassemble(start uint16, stop uint16) []DisassembledInstruction {
	var lines []DisassembledInstruction
	addr := uint32(start)
	for addr <= uint32(stop) {
		d := b.disassembleAt(uint16(addr))
		lines = append(lines, d)
		if d.NextAddr <= d.Addr {
			break
		}
		addr = uint32(d.NextAddr)
	}
	return lines
}

func (d DisassembledInstruction) String() string {
	hex := make([]string, len(d.Bytes))
	for i, v := range d.Bytes {
		hex[i] = fmt.Sprintf("%02X", v)
	}
	return fmt.Sprintf("$%04X: %-9s %s", d.Addr, strings.Join(hex, " "), d.Text)
}

// traceLine describes the instruction about to execute and the register file,
// in the layout of the common nestest logs.
func (c *CPU) traceLine() string {
	d := c.bus.disassembleAt(c.pc)
	hex := make([]string, len(d.Bytes))
	for i, v := range d.Bytes {
		hex[i] = fmt.Sprintf("%02X", v)
	}
	return fmt.Sprintf("%04X  %-8s  %-31s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		c.pc, strings.Join(hex, " "), d.Text,
		c.accumulator, c.xRegister, c.yRegister, c.status, c.stkp, c.totalCycles)
}
