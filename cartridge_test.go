package nes

import (
	"errors"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nes-core/mapper"
)

func TestParseCartridge(t *testing.T) {
	rom := buildROM(1, 2, 1, nil)
	rom[6] |= 0x01 | 0x02
	rom[8] = 4

	cart, err := ParseCartridge(rom)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), cart.Mapper)
	assert.Equal(t, mapper.Vertical, cart.Mirror)
	assert.True(t, cart.Battery)
	assert.False(t, cart.CHRRAM)
	assert.False(t, cart.Trainer)
	assert.False(t, cart.PAL)
	assert.Len(t, cart.PRG, 2*prgBankSize)
	assert.Len(t, cart.CHR, chrBankSize)
	assert.Len(t, cart.PRGRAM, 4*prgRAMBlock)
	assert.Equal(t, crc32.ChecksumIEEE(rom[inesHdrBytes:]), cart.CRC32)
}

func TestParseCartridgeCHRRAM(t *testing.T) {
	cart, err := ParseCartridge(buildROM(2, 2, 0, nil))
	require.NoError(t, err)
	assert.True(t, cart.CHRRAM)
	assert.Len(t, cart.CHR, chrBankSize)
	assert.Len(t, cart.PRGRAM, prgRAMBlock)
	assert.Equal(t, mapper.Horizontal, cart.Mirror)
}

func TestParseCartridgeTrainer(t *testing.T) {
	base := buildROM(0, 1, 1, nil)
	trainer := make([]byte, trainerSize)
	for i := range trainer {
		trainer[i] = 0x5A
	}
	rom := append(append(append([]byte{}, base[:inesHdrBytes]...), trainer...), base[inesHdrBytes:]...)
	rom[6] |= 0x04

	cart, err := ParseCartridge(rom)
	require.NoError(t, err)
	assert.True(t, cart.Trainer)
	assert.Equal(t, uint8(0x5A), cart.PRGRAM[0x1000])
	assert.Equal(t, uint8(0x5A), cart.PRGRAM[0x11FF])
	assert.Equal(t, uint8(0x00), cart.PRGRAM[0x1200])
	assert.Equal(t, uint8(0x00), cart.PRG[0])

	// the trainer appears at $7000
	c := NewConsole(DefaultConfig())
	require.NoError(t, c.LoadROM(rom))
	assert.Equal(t, uint8(0x5A), c.bus.cpuRead(0x7000, false))
}

func TestParseCartridgeDirtyHeader(t *testing.T) {
	rom := buildROM(0x42, 1, 1, nil)
	copy(rom[11:], "DiskD")

	cart, err := ParseCartridge(rom)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x02), cart.Mapper)
}

func TestParseCartridgeTV(t *testing.T) {
	rom := buildROM(0, 1, 1, nil)
	rom[9] = 0x01
	cart, err := ParseCartridge(rom)
	require.NoError(t, err)
	assert.True(t, cart.PAL)

	rom = buildROM(0, 1, 1, nil)
	rom[7] |= 0x08
	rom[10] = 0x07
	rom[12] = 0x01
	cart, err = ParseCartridge(rom)
	require.NoError(t, err)
	assert.True(t, cart.PAL)
	assert.Len(t, cart.PRGRAM, 64<<7)
}

func TestParseCartridgeNES2Sizes(t *testing.T) {
	// byte 9 extends the CHR count: $1_02 banks of 8 KiB
	rom := buildROM(4, 1, 2, nil)
	rom[7] |= 0x08
	rom[9] = 0x10
	rom = append(rom, make([]byte, 0x100*chrBankSize)...)

	cart, err := ParseCartridge(rom)
	require.NoError(t, err)
	assert.Len(t, cart.PRG, prgBankSize)
	assert.Len(t, cart.CHR, 0x102*chrBankSize)
	assert.False(t, cart.PAL, "byte 9 is not the TV system in NES 2.0")

	// the same bits in an iNES image are ignored
	ines := buildROM(4, 1, 2, nil)
	ines[9] = 0x10
	cart, err = ParseCartridge(ines)
	require.NoError(t, err)
	assert.Len(t, cart.CHR, 2*chrBankSize)

	// the declared size must be present
	_, err = ParseCartridge(rom[:len(rom)-1])
	var fe *FormatError
	assert.True(t, errors.As(err, &fe), "got %v", err)

	for _, b9 := range []uint8{0x0F, 0xF0} {
		r := buildROM(0, 1, 1, nil)
		r[7] |= 0x08
		r[9] = b9
		_, err = ParseCartridge(r)
		assert.True(t, errors.As(err, &fe), "byte 9 $%02X: got %v", b9, err)
	}
}

func TestParseCartridgeErrors(t *testing.T) {
	valid := buildROM(0, 2, 1, nil)

	tests := []struct {
		name string
		rom  func() []byte
	}{
		{name: "empty", rom: func() []byte { return nil }},
		{name: "short header", rom: func() []byte { return valid[:10] }},
		{name: "bad magic", rom: func() []byte {
			r := append([]byte{}, valid...)
			r[3] = 0x1B
			return r
		}},
		{name: "no PRG", rom: func() []byte {
			r := append([]byte{}, valid...)
			r[4] = 0
			return r
		}},
		{name: "truncated PRG", rom: func() []byte { return valid[:inesHdrBytes+prgBankSize] }},
		{name: "truncated CHR", rom: func() []byte { return valid[:len(valid)-1] }},
		{name: "truncated trainer", rom: func() []byte {
			r := append([]byte{}, valid[:inesHdrBytes+100]...)
			r[6] |= 0x04
			return r
		}},
		{name: "unsupported mapper", rom: func() []byte { return buildROM(5, 1, 1, nil) }},
		{name: "NES 2.0 extended mapper", rom: func() []byte {
			r := buildROM(0, 1, 1, nil)
			r[7] |= 0x08
			r[8] = 0x01
			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := ParseCartridge(tt.rom())
			assert.Nil(t, cart)
			var fe *FormatError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Contains(t, err.Error(), "cartridge: ")
		})
	}
}

func TestCartridgeClone(t *testing.T) {
	cart, err := ParseCartridge(buildROM(1, 4, 0, nil))
	require.NoError(t, err)
	cart.PRGRAM[0] = 0x11
	cart.CHR[0] = 0x22

	n, err := cart.clone()
	require.NoError(t, err)
	n.PRGRAM[0] = 0x33
	n.CHR[0] = 0x44
	assert.Equal(t, uint8(0x11), cart.PRGRAM[0])
	assert.Equal(t, uint8(0x22), cart.CHR[0])
	assert.Same(t, &cart.PRG[0], &n.PRG[0], "ROM is shared")
}
