package mapper

// Mapper0001 is MMC1 (SxROM). Registers are loaded serially through a five
// bit shift register; the fifth write picks the register from address bits
// 13 and 14.
type Mapper0001 struct {
	base

	shift   uint8
	control uint8
	chr0    uint8
	chr1    uint8
	prg     uint8
}

func (m *Mapper0001) Reset() {
	m.shift = 0x10
	m.control = 0x0C
	m.chr0 = 0
	m.chr1 = 0
	m.prg = 0
}

func (m *Mapper0001) WriteRegister(addr uint16, data uint8) {
	if data&0x80 != 0 {
		m.shift = 0x10
		m.control |= 0x0C
		return
	}

	complete := m.shift&0x01 != 0
	m.shift = (m.shift >> 1) | ((data & 0x01) << 4)
	if !complete {
		return
	}

	value := m.shift
	switch (addr >> 13) & 0x03 {
	case 0:
		m.control = value
	case 1:
		m.chr0 = value
	case 2:
		m.chr1 = value
	case 3:
		m.prg = value
	}
	m.shift = 0x10
}

func (m *Mapper0001) Mirror() Mirror {
	switch m.control & 0x03 {
	case 0:
		return OneScreenLo
	case 1:
		return OneScreenHi
	case 2:
		return Vertical
	}
	return Horizontal
}

func (m *Mapper0001) ramEnabled() bool {
	return m.prg&0x10 == 0
}

// outer selects the 256 KiB half of 512 KiB SUROM boards through CHR bank
// bit 4.
func (m *Mapper0001) outer() uint32 {
	if m.info.PRGBanks > 16 {
		return uint32(m.chr0 & 0x10)
	}
	return 0
}

func (m *Mapper0001) CPUMap(addr uint16) (uint32, Target) {
	if addr < 0x6000 {
		return 0, None
	}
	if addr < 0x8000 {
		if !m.ramEnabled() {
			return 0, None
		}
		return m.prgRAM(addr)
	}

	banks := uint32(m.info.PRGBanks)
	outer := m.outer()
	bank := uint32(m.prg & 0x0F)
	last := uint32(0x0F)
	if banks < 16 {
		last = banks - 1
	}

	var selected uint32
	switch (m.control >> 2) & 0x03 {
	case 0, 1:
		selected = (bank &^ 1) | uint32((addr>>14)&1)
	case 2:
		if addr < 0xC000 {
			selected = 0
		} else {
			selected = bank
		}
	case 3:
		if addr < 0xC000 {
			selected = bank
		} else {
			selected = last
		}
	}
	selected = (outer | selected) % banks
	return selected*0x4000 + uint32(addr&0x3FFF), PRGROM
}

func (m *Mapper0001) PPUMap(addr uint16) (uint32, Target) {
	banks := m.chrSize() / 0x1000
	var bank uint32
	if m.control&0x10 == 0 {
		bank = uint32(m.chr0&0x1E) | uint32((addr>>12)&1)
	} else if addr < 0x1000 {
		bank = uint32(m.chr0)
	} else {
		bank = uint32(m.chr1)
	}
	bank %= banks
	return bank*0x1000 + uint32(addr&0x0FFF), m.chrTarget()
}

func (m *Mapper0001) MarshalMsg(b []byte) ([]byte, error) {
	return appendFields(b, m.shift, m.control, m.chr0, m.chr1, m.prg), nil
}

func (m *Mapper0001) UnmarshalMsg(b []byte) ([]byte, error) {
	d := readFields(b, &m.shift, &m.control, &m.chr0, &m.chr1, &m.prg)
	return d.Rest(), d.Err()
}
