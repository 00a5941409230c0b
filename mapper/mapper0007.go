package mapper

// Mapper0007 is AxROM: one switchable 32 KiB PRG bank and single screen
// mirroring picked by bit 4 of the register.
type Mapper0007 struct {
	base

	prgBank uint8
	screen  uint8
}

func (m *Mapper0007) CPUMap(addr uint16) (uint32, Target) {
	if addr < 0x8000 {
		return 0, None
	}
	banks := uint32(m.info.PRGBanks) / 2
	if banks == 0 {
		return uint32(addr & 0x3FFF), PRGROM
	}
	bank := uint32(m.prgBank) % banks
	return bank*0x8000 + uint32(addr&0x7FFF), PRGROM
}

func (m *Mapper0007) PPUMap(addr uint16) (uint32, Target) {
	return uint32(addr & 0x1FFF), m.chrTarget()
}

func (m *Mapper0007) WriteRegister(addr uint16, data uint8) {
	m.prgBank = data & 0x07
	m.screen = (data >> 4) & 0x01
}

func (m *Mapper0007) Mirror() Mirror {
	if m.screen == 0 {
		return OneScreenLo
	}
	return OneScreenHi
}

func (m *Mapper0007) Reset() {
	m.prgBank = 0
	m.screen = 0
}

func (m *Mapper0007) MarshalMsg(b []byte) ([]byte, error) {
	return appendFields(b, m.prgBank, m.screen), nil
}

func (m *Mapper0007) UnmarshalMsg(b []byte) ([]byte, error) {
	d := readFields(b, &m.prgBank, &m.screen)
	return d.Rest(), d.Err()
}
