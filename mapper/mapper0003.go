package mapper

// Mapper0003 is CNROM: fixed PRG and a switchable 8 KiB CHR bank.
type Mapper0003 struct {
	base

	chrBanksSelect uint8
}

func (m *Mapper0003) CPUMap(addr uint16) (uint32, Target) {
	switch {
	case addr >= 0x8000:
		if m.info.PRGBanks > 1 {
			return uint32(addr & 0x7FFF), PRGROM
		}
		return uint32(addr & 0x3FFF), PRGROM
	case addr >= 0x6000:
		return m.prgRAM(addr)
	}
	return 0, None
}

func (m *Mapper0003) PPUMap(addr uint16) (uint32, Target) {
	bank := uint32(m.chrBanksSelect) % (m.chrSize() / 0x2000)
	return bank*0x2000 + uint32(addr&0x1FFF), m.chrTarget()
}

func (m *Mapper0003) WriteRegister(addr uint16, data uint8) {
	m.chrBanksSelect = data
}

func (m *Mapper0003) Reset() {
	m.chrBanksSelect = 0
}

func (m *Mapper0003) MarshalMsg(b []byte) ([]byte, error) {
	return appendFields(b, m.chrBanksSelect), nil
}

func (m *Mapper0003) UnmarshalMsg(b []byte) ([]byte, error) {
	d := readFields(b, &m.chrBanksSelect)
	return d.Rest(), d.Err()
}
