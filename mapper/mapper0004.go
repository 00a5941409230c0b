package mapper

// Mapper0004 is MMC3 (TxROM): 8 KiB PRG banks, 1 KiB and 2 KiB CHR banks and
// a scanline counter that raises IRQ when it reaches zero.
type Mapper0004 struct {
	base

	targetRegister uint8
	register       [8]uint8
	mirrorMode     uint8
	ramControl     uint8

	irqLatch   uint8
	irqCounter uint8
	irqReload  bool
	irqEnable  bool
	irqActive  bool
}

func (m *Mapper0004) Reset() {
	m.targetRegister = 0
	m.register = [8]uint8{0, 2, 4, 5, 6, 7, 0, 1}
	m.mirrorMode = 0
	if m.info.Mirror == Horizontal {
		m.mirrorMode = 1
	}
	m.ramControl = 0x80
	m.irqLatch = 0
	m.irqCounter = 0
	m.irqReload = false
	m.irqEnable = false
	m.irqActive = false
}

func (m *Mapper0004) prgBankMode() bool  { return m.targetRegister&0x40 != 0 }
func (m *Mapper0004) chrInversion() bool { return m.targetRegister&0x80 != 0 }

func (m *Mapper0004) WriteRegister(addr uint16, data uint8) {
	even := addr&0x01 == 0
	switch {
	case addr < 0xA000:
		if even {
			m.targetRegister = data
		} else {
			m.register[m.targetRegister&0x07] = data
		}
	case addr < 0xC000:
		if even {
			m.mirrorMode = data & 0x01
		} else {
			m.ramControl = data
		}
	case addr < 0xE000:
		if even {
			m.irqLatch = data
		} else {
			m.irqCounter = 0
			m.irqReload = true
		}
	default:
		if even {
			m.irqEnable = false
			m.irqActive = false
		} else {
			m.irqEnable = true
		}
	}
}

func (m *Mapper0004) Mirror() Mirror {
	if m.info.Mirror == FourScreen {
		return FourScreen
	}
	if m.mirrorMode == 0 {
		return Vertical
	}
	return Horizontal
}

func (m *Mapper0004) IRQ() bool {
	return m.irqActive
}

func (m *Mapper0004) Scanline() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnable {
		m.irqActive = true
	}
}

func (m *Mapper0004) CPUMap(addr uint16) (uint32, Target) {
	if addr < 0x6000 {
		return 0, None
	}
	if addr < 0x8000 {
		if m.ramControl&0x80 == 0 {
			return 0, None
		}
		return m.prgRAM(addr)
	}

	banks := uint32(m.info.PRGBanks) * 2
	secondLast := banks - 2
	var bank uint32
	switch (addr - 0x8000) / 0x2000 {
	case 0:
		bank = uint32(m.register[6])
		if m.prgBankMode() {
			bank = secondLast
		}
	case 1:
		bank = uint32(m.register[7])
	case 2:
		bank = secondLast
		if m.prgBankMode() {
			bank = uint32(m.register[6])
		}
	case 3:
		bank = banks - 1
	}
	bank %= banks
	return bank*0x2000 + uint32(addr&0x1FFF), PRGROM
}

func (m *Mapper0004) PPUMap(addr uint16) (uint32, Target) {
	addr &= 0x1FFF
	if m.chrInversion() {
		addr ^= 0x1000
	}

	var bank uint32
	switch slot := addr / 0x0400; slot {
	case 0, 1:
		bank = uint32(m.register[0]&0xFE) | uint32(slot)
	case 2, 3:
		bank = uint32(m.register[1]&0xFE) | uint32(slot-2)
	default:
		bank = uint32(m.register[slot-2])
	}
	bank %= m.chrSize() / 0x0400
	return bank*0x0400 + uint32(addr&0x03FF), m.chrTarget()
}

func b2u(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

func (m *Mapper0004) MarshalMsg(b []byte) ([]byte, error) {
	r := m.register
	return appendFields(b,
		m.targetRegister, r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7],
		m.mirrorMode, m.ramControl,
		m.irqLatch, m.irqCounter, b2u(m.irqReload), b2u(m.irqEnable), b2u(m.irqActive),
	), nil
}

func (m *Mapper0004) UnmarshalMsg(b []byte) ([]byte, error) {
	var reload, enable, active uint8
	r := &m.register
	d := readFields(b,
		&m.targetRegister, &r[0], &r[1], &r[2], &r[3], &r[4], &r[5], &r[6], &r[7],
		&m.mirrorMode, &m.ramControl,
		&m.irqLatch, &m.irqCounter, &reload, &enable, &active,
	)
	if d.Err() != nil {
		return b, d.Err()
	}
	m.irqReload = reload != 0
	m.irqEnable = enable != 0
	m.irqActive = active != 0
	return d.Rest(), nil
}
