package nes

// Each operation returns 1 when it can take the extra cycle of a page
// crossing; the extra cycle is only paid when the addressing mode crossed one.
var Operations = map[string]func(*CPU) uint8{
	"ADC": adc,
	"SBC": sbc,
	"AND": and,
	"ASL": asl,
	"BCC": bcc,
	"BCS": bcs,
	"BEQ": beq,
	"BIT": bit,
	"BMI": bmi,
	"BNE": bne,
	"BPL": bpl,
	"BRK": brk,
	"BVC": bvc,
	"BVS": bvs,
	"CLC": clc,
	"CLD": cld,
	"CLI": cli,
	"CLV": clv,
	"CMP": cmp,
	"CPX": cpx,
	"CPY": cpy,
	"DEC": dec,
	"DEX": dex,
	"DEY": dey,
	"EOR": eor,
	"INC": inc,
	"INX": inx,
	"INY": iny,
	"JMP": jmp,
	"JSR": jsr,
	"LDA": lda,
	"LDX": ldx,
	"LDY": ldy,
	"LSR": lsr,
	"NOP": nop,
	"ORA": ora,
	"PHA": pha,
	"PHP": php,
	"PLA": pla,
	"PLP": plp,
	"ROL": rol,
	"ROR": ror,
	"RTI": rti,
	"RTS": rts,
	"SEC": sec,
	"SED": sed,
	"SEI": sei,
	"STA": sta,
	"STX": stx,
	"STY": sty,
	"TAX": tax,
	"TAY": tay,
	"TSX": tsx,
	"TXA": txa,
	"TXS": txs,
	"TYA": tya,

	// undocumented but stable
	"LAX": lax,
	"SAX": sax,
	"DCP": dcp,
	"ISB": isb,
	"SLO": slo,
	"RLA": rla,
	"SRE": sre,
	"RRA": rra,
	"ANC": anc,
	"ALR": alr,
	"ARR": arr,
	"AXS": axs,

}

func (c *CPU) addWithCarry(value uint8) {
	temp := uint16(c.accumulator) + uint16(value) + uint16(c.getFlag(C))
	c.setFlag(C, temp > 255)
	overflow := (^(uint16(c.accumulator) ^ uint16(value))) & (uint16(c.accumulator) ^ temp) & 0x0080
	c.setFlag(V, overflow != 0)
	c.accumulator = uint8(temp)
	c.setZN(c.accumulator)
}

func (c *CPU) compare(reg, value uint8) {
	c.setFlag(C, reg >= value)
	c.setZN(reg - value)
}

func (c *CPU) shiftLeft(v uint8) uint8 {
	c.setFlag(C, v&0x80 != 0)
	v <<= 1
	c.setZN(v)
	return v
}

func (c *CPU) shiftRight(v uint8) uint8 {
	c.setFlag(C, v&0x01 != 0)
	v >>= 1
	c.setZN(v)
	return v
}

func (c *CPU) rotateLeft(v uint8) uint8 {
	carry := c.getFlag(C)
	c.setFlag(C, v&0x80 != 0)
	v = v<<1 | carry
	c.setZN(v)
	return v
}

func (c *CPU) rotateRight(v uint8) uint8 {
	carry := c.getFlag(C)
	c.setFlag(C, v&0x01 != 0)
	v = v>>1 | carry<<7
	c.setZN(v)
	return v
}

func adc(c *CPU) uint8 {
	c.addWithCarry(c.fetch())
	return 1
}

func sbc(c *CPU) uint8 {
	c.addWithCarry(c.fetch() ^ 0xFF)
	return 1
}

func and(c *CPU) uint8 {
	c.accumulator &= c.fetch()
	c.setZN(c.accumulator)
	return 1
}

func asl(c *CPU) uint8 {
	c.store(c.shiftLeft(c.fetch()))
	return 0
}

func (c *CPU) branch() {
	c.cycles++
	c.addrAbs = c.pc + c.addrRel
	if (c.addrAbs & 0xFF00) != (c.pc & 0xFF00) {
		c.cycles++
	}
	c.pc = c.addrAbs
}

func bcc(c *CPU) uint8 {
	if c.getFlag(C) == 0 {
		c.branch()
	}
	return 0
}

func bcs(c *CPU) uint8 {
	if c.getFlag(C) == 1 {
		c.branch()
	}
	return 0
}

func beq(c *CPU) uint8 {
	if c.getFlag(Z) == 1 {
		c.branch()
	}
	return 0
}

func bit(c *CPU) uint8 {
	c.fetch()
	c.setFlag(Z, c.accumulator&c.fetched == 0)
	c.setFlag(N, c.fetched&(1<<7) != 0)
	c.setFlag(V, c.fetched&(1<<6) != 0)
	return 0
}

func bmi(c *CPU) uint8 {
	if c.getFlag(N) == 1 {
		c.branch()
	}
	return 0
}

func bne(c *CPU) uint8 {
	if c.getFlag(Z) == 0 {
		c.branch()
	}
	return 0
}

func bpl(c *CPU) uint8 {
	if c.getFlag(N) == 0 {
		c.branch()
	}
	return 0
}

// brk skips its padding byte and pushes status with B set.
func brk(c *CPU) uint8 {
	c.pc++
	c.push16(c.pc)
	c.push(c.status | uint8(B) | uint8(U))
	c.setFlag(I, true)
	c.pc = c.read16(0xFFFE)
	return 0
}

func bvc(c *CPU) uint8 {
	if c.getFlag(V) == 0 {
		c.branch()
	}
	return 0
}

func bvs(c *CPU) uint8 {
	if c.getFlag(V) == 1 {
		c.branch()
	}
	return 0
}

func clc(c *CPU) uint8 {
	c.setFlag(C, false)
	return 0
}

func cld(c *CPU) uint8 {
	c.setFlag(D, false)
	return 0
}

func cli(c *CPU) uint8 {
	c.setFlag(I, false)
	return 0
}

func clv(c *CPU) uint8 {
	c.setFlag(V, false)
	return 0
}

func cmp(c *CPU) uint8 {
	c.compare(c.accumulator, c.fetch())
	return 1
}

func cpx(c *CPU) uint8 {
	c.compare(c.xRegister, c.fetch())
	return 0
}

func cpy(c *CPU) uint8 {
	c.compare(c.yRegister, c.fetch())
	return 0
}

func dec(c *CPU) uint8 {
	temp := c.fetch() - 1
	c.write(c.addrAbs, temp)
	c.setZN(temp)
	return 0
}

func dex(c *CPU) uint8 {
	c.xRegister--
	c.setZN(c.xRegister)
	return 0
}

func dey(c *CPU) uint8 {
	c.yRegister--
	c.setZN(c.yRegister)
	return 0
}

func eor(c *CPU) uint8 {
	c.accumulator ^= c.fetch()
	c.setZN(c.accumulator)
	return 1
}

func inc(c *CPU) uint8 {
	temp := c.fetch() + 1
	c.write(c.addrAbs, temp)
	c.setZN(temp)
	return 0
}

func inx(c *CPU) uint8 {
	c.xRegister++
	c.setZN(c.xRegister)
	return 0
}

func iny(c *CPU) uint8 {
	c.yRegister++
	c.setZN(c.yRegister)
	return 0
}

func jmp(c *CPU) uint8 {
	c.pc = c.addrAbs
	return 0
}

func jsr(c *CPU) uint8 {
	c.push16(c.pc - 1)
	c.pc = c.addrAbs
	return 0
}

func lda(c *CPU) uint8 {
	c.accumulator = c.fetch()
	c.setZN(c.accumulator)
	return 1
}

func ldx(c *CPU) uint8 {
	c.xRegister = c.fetch()
	c.setZN(c.xRegister)
	return 1
}

func ldy(c *CPU) uint8 {
	c.yRegister = c.fetch()
	c.setZN(c.yRegister)
	return 1
}

func lsr(c *CPU) uint8 {
	c.store(c.shiftRight(c.fetch()))
	return 0
}

// nop covers the multi-byte NOPs too. Their operand is read for the bus side
// effects and abs,X forms pay the page crossing cycle.
func nop(c *CPU) uint8 {
	c.fetch()
	return 1
}

func ora(c *CPU) uint8 {
	c.accumulator |= c.fetch()
	c.setZN(c.accumulator)
	return 1
}

func pha(c *CPU) uint8 {
	c.push(c.accumulator)
	return 0
}

func php(c *CPU) uint8 {
	c.push(c.status | uint8(B) | uint8(U))
	return 0
}

func pla(c *CPU) uint8 {
	c.accumulator = c.pop()
	c.setZN(c.accumulator)
	return 0
}

func plp(c *CPU) uint8 {
	c.status = (c.pop() &^ uint8(B)) | uint8(U)
	return 0
}

func rol(c *CPU) uint8 {
	c.store(c.rotateLeft(c.fetch()))
	return 0
}

func ror(c *CPU) uint8 {
	c.store(c.rotateRight(c.fetch()))
	return 0
}

func rti(c *CPU) uint8 {
	c.status = (c.pop() &^ uint8(B)) | uint8(U)
	c.pc = c.pop16()
	return 0
}

func rts(c *CPU) uint8 {
	c.pc = c.pop16() + 1
	return 0
}

func sec(c *CPU) uint8 {
	c.setFlag(C, true)
	return 0
}

func sed(c *CPU) uint8 {
	c.setFlag(D, true)
	return 0
}

func sei(c *CPU) uint8 {
	c.setFlag(I, true)
	return 0
}

func sta(c *CPU) uint8 {
	c.write(c.addrAbs, c.accumulator)
	return 0
}

func stx(c *CPU) uint8 {
	c.write(c.addrAbs, c.xRegister)
	return 0
}

func sty(c *CPU) uint8 {
	c.write(c.addrAbs, c.yRegister)
	return 0
}

func tax(c *CPU) uint8 {
	c.xRegister = c.accumulator
	c.setZN(c.xRegister)
	return 0
}

func tay(c *CPU) uint8 {
	c.yRegister = c.accumulator
	c.setZN(c.yRegister)
	return 0
}

func tsx(c *CPU) uint8 {
	c.xRegister = c.stkp
	c.setZN(c.xRegister)
	return 0
}

func txa(c *CPU) uint8 {
	c.accumulator = c.xRegister
	c.setZN(c.accumulator)
	return 0
}

func txs(c *CPU) uint8 {
	c.stkp = c.xRegister
	return 0
}

func tya(c *CPU) uint8 {
	c.accumulator = c.yRegister
	c.setZN(c.accumulator)
	return 0
}

func lax(c *CPU) uint8 {
	c.accumulator = c.fetch()
	c.xRegister = c.accumulator
	c.setZN(c.accumulator)
	return 1
}

func sax(c *CPU) uint8 {
	c.write(c.addrAbs, c.accumulator&c.xRegister)
	return 0
}

func dcp(c *CPU) uint8 {
	temp := c.fetch() - 1
	c.write(c.addrAbs, temp)
	c.compare(c.accumulator, temp)
	return 0
}

func isb(c *CPU) uint8 {
	temp := c.fetch() + 1
	c.write(c.addrAbs, temp)
	c.addWithCarry(temp ^ 0xFF)
	return 0
}

func slo(c *CPU) uint8 {
	temp := c.shiftLeft(c.fetch())
	c.write(c.addrAbs, temp)
	c.accumulator |= temp
	c.setZN(c.accumulator)
	return 0
}

func rla(c *CPU) uint8 {
	temp := c.rotateLeft(c.fetch())
	c.write(c.addrAbs, temp)
	c.accumulator &= temp
	c.setZN(c.accumulator)
	return 0
}

func sre(c *CPU) uint8 {
	temp := c.shiftRight(c.fetch())
	c.write(c.addrAbs, temp)
	c.accumulator ^= temp
	c.setZN(c.accumulator)
	return 0
}

func rra(c *CPU) uint8 {
	temp := c.rotateRight(c.fetch())
	c.write(c.addrAbs, temp)
	c.addWithCarry(temp)
	return 0
}

func anc(c *CPU) uint8 {
	c.accumulator &= c.fetch()
	c.setZN(c.accumulator)
	c.setFlag(C, c.accumulator&0x80 != 0)
	return 0
}

func alr(c *CPU) uint8 {
	c.accumulator = c.shiftRight(c.accumulator & c.fetch())
	return 0
}

func arr(c *CPU) uint8 {
	c.accumulator &= c.fetch()
	c.accumulator = c.accumulator>>1 | c.getFlag(C)<<7
	c.setZN(c.accumulator)
	c.setFlag(C, c.accumulator&0x40 != 0)
	c.setFlag(V, (c.accumulator>>6)&1 != (c.accumulator>>5)&1)
	return 0
}

func axs(c *CPU) uint8 {
	ax := c.accumulator & c.xRegister
	temp := c.fetch()
	c.setFlag(C, ax >= temp)
	c.xRegister = ax - temp
	c.setZN(c.xRegister)
	return 0
}
