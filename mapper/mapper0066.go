package mapper

// Mapper0066 is GxROM: a 32 KiB PRG bank in bits 4-5 and an 8 KiB CHR bank
// in bits 0-1 of the same register.
type Mapper0066 struct {
	base

	prgBank uint8
	chrBank uint8
}

func (m *Mapper0066) CPUMap(addr uint16) (uint32, Target) {
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

func (m *Mapper0066) PPUMap(addr uint16) (uint32, Target) {
	bank := uint32(m.chrBank) % (m.chrSize() / 0x2000)
	return bank*0x2000 + uint32(addr&0x1FFF), m.chrTarget()
}

func (m *Mapper0066) WriteRegister(addr uint16, data uint8) {
	m.prgBank = (data >> 4) & 0x03
	m.chrBank = data & 0x03
}

func (m *Mapper0066) Reset() {
	m.prgBank = 0
	m.chrBank = 0
}

func (m *Mapper0066) MarshalMsg(b []byte) ([]byte, error) {
	return appendFields(b, m.prgBank, m.chrBank), nil
}

func (m *Mapper0066) UnmarshalMsg(b []byte) ([]byte, error) {
	d := readFields(b, &m.prgBank, &m.chrBank)
	return d.Rest(), d.Err()
}
