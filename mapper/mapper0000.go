package mapper

// Mapper0000 is NROM: 16 or 32 KiB of PRG and 8 KiB of CHR, no registers.
type Mapper0000 struct {
	base
}

func (m *Mapper0000) CPUMap(addr uint16) (uint32, Target) {
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

func (m *Mapper0000) PPUMap(addr uint16) (uint32, Target) {
	return uint32(addr & 0x1FFF), m.chrTarget()
}

func (m *Mapper0000) WriteRegister(addr uint16, data uint8) {}

func (m *Mapper0000) Reset() {}

func (m *Mapper0000) MarshalMsg(b []byte) ([]byte, error) {
	return appendFields(b), nil
}

func (m *Mapper0000) UnmarshalMsg(b []byte) ([]byte, error) {
	d := readFields(b)
	return d.Rest(), d.Err()
}
