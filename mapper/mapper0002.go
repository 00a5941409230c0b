package mapper

// Mapper0002 is UxROM: a switchable 16 KiB bank at $8000 and the last bank
// fixed at $C000.
type Mapper0002 struct {
	base

	prgBankSelectLo uint8
}

func (m *Mapper0002) CPUMap(addr uint16) (uint32, Target) {
	switch {
	case addr >= 0xC000:
		last := uint32(m.info.PRGBanks - 1)
		return last*0x4000 + uint32(addr&0x3FFF), PRGROM
	case addr >= 0x8000:
		bank := uint32(m.prgBankSelectLo) % uint32(m.info.PRGBanks)
		return bank*0x4000 + uint32(addr&0x3FFF), PRGROM
	case addr >= 0x6000:
		return m.prgRAM(addr)
	}
	return 0, None
}

func (m *Mapper0002) PPUMap(addr uint16) (uint32, Target) {
	return uint32(addr & 0x1FFF), m.chrTarget()
}

func (m *Mapper0002) WriteRegister(addr uint16, data uint8) {
	m.prgBankSelectLo = data & 0x0F
}

func (m *Mapper0002) Reset() {
	m.prgBankSelectLo = 0
}

func (m *Mapper0002) MarshalMsg(b []byte) ([]byte, error) {
	return appendFields(b, m.prgBankSelectLo), nil
}

func (m *Mapper0002) UnmarshalMsg(b []byte) ([]byte, error) {
	d := readFields(b, &m.prgBankSelectLo)
	return d.Rest(), d.Err()
}
