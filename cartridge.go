package nes

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"

	"nes-core/logger"
	"nes-core/mapper"
)

const (
	prgBankSize  = 0x4000
	chrBankSize  = 0x2000
	trainerSize  = 512
	prgRAMBlock  = 0x2000
	inesMagic    = "NES\x1A"
	inesHdrBytes = 16
)

// Header is the 16 byte iNES header.
type Header struct {
	Name         [4]byte
	PrgRomChunks uint8
	ChrRomChunks uint8
	Mapper1      uint8
	Mapper2      uint8
	PrgRamSize   uint8
	TvSystem1    uint8
	TvSystem2    uint8
	Unused       [5]byte
}

func (h *Header) nes2() bool {
	return h.Mapper2&0x0C == 0x08
}

// dirty reports junk in bytes 12-15, usually a ripper's signature such as
// "DiskDude!" that overwrites the high mapper nibble.
func (h *Header) dirty() bool {
	if h.nes2() {
		return false
	}
	for _, b := range h.Unused[1:] {
		if b != 0 {
			return true
		}
	}
	return false
}

// Cartridge is a parsed iNES image bound to its mapper.
type Cartridge struct {
	PRG    []uint8
	CHR    []uint8
	PRGRAM []uint8

	Mapper  uint8
	Mirror  mapper.Mirror
	Battery bool
	CHRRAM  bool
	Trainer bool
	PAL     bool

	// CRC32 of the PRG and CHR ROM data.
	CRC32 uint32

	mapper mapper.Mapper
}

// ParseCartridge decodes an iNES image. Nothing outside the returned value is
// touched, so a failed parse leaves any running console intact.
func ParseCartridge(data []uint8) (*Cartridge, error) {
	if len(data) < inesHdrBytes {
		return nil, formatErrorf("image too short for a header (%d bytes)", len(data))
	}

	header := Header{}
	rd := bytes.NewReader(data)
	if err := binary.Read(rd, binary.LittleEndian, &header); err != nil {
		return nil, formatErrorf("reading header: %v", err)
	}
	if string(header.Name[:]) != inesMagic {
		return nil, formatErrorf("bad magic %q", header.Name[:])
	}

	prgBanks := int(header.PrgRomChunks)
	chrBanks := int(header.ChrRomChunks)
	if header.nes2() {
		// byte 9 holds the high bits of both bank counts
		prgMSB, chrMSB := header.TvSystem1&0x0F, header.TvSystem1>>4
		if prgMSB == 0x0F || chrMSB == 0x0F {
			return nil, formatErrorf("exponent-multiplier ROM sizes are not supported")
		}
		prgBanks |= int(prgMSB) << 8
		chrBanks |= int(chrMSB) << 8
	}
	if prgBanks == 0 {
		return nil, formatErrorf("no PRG ROM banks")
	}

	cart := &Cartridge{
		Battery: header.Mapper1&0x02 != 0,
		Trainer: header.Mapper1&0x04 != 0,
	}

	mapperID := ((header.Mapper2 >> 4) << 4) | (header.Mapper1 >> 4)
	if header.dirty() {
		logger.Logf("cartridge", "header bytes 12-15 not zero, ignoring high mapper nibble")
		mapperID = header.Mapper1 >> 4
	}
	if header.nes2() && header.PrgRamSize&0x0F != 0 {
		return nil, formatErrorf("unsupported mapper %d", uint16(header.PrgRamSize&0x0F)<<8|uint16(mapperID))
	}
	cart.Mapper = mapperID

	switch {
	case header.Mapper1&0x08 != 0:
		cart.Mirror = mapper.FourScreen
	case header.Mapper1&0x01 != 0:
		cart.Mirror = mapper.Vertical
	default:
		cart.Mirror = mapper.Horizontal
	}

	ramSize := int(header.PrgRamSize) * prgRAMBlock
	if header.nes2() {
		ramSize = 0
		if shift := header.TvSystem2 & 0x0F; shift != 0 {
			ramSize += 64 << shift
		}
		if shift := header.TvSystem2 >> 4; shift != 0 {
			ramSize += 64 << shift
		}
		cart.PAL = header.Unused[1]&0x03 == 0x01
	} else {
		cart.PAL = header.TvSystem1&0x01 != 0
	}
	if ramSize < prgRAMBlock {
		ramSize = prgRAMBlock
	}
	cart.PRGRAM = make([]uint8, ramSize)

	offset := inesHdrBytes
	if cart.Trainer {
		if len(data) < offset+trainerSize {
			return nil, formatErrorf("truncated trainer")
		}
		copy(cart.PRGRAM[0x1000:], data[offset:offset+trainerSize])
		offset += trainerSize
	}

	romStart := offset
	prgSize := prgBanks * prgBankSize
	if len(data) < offset+prgSize {
		return nil, formatErrorf("PRG ROM declares %d bytes, image has %d", prgSize, len(data)-offset)
	}
	cart.PRG = make([]uint8, prgSize)
	copy(cart.PRG, data[offset:offset+prgSize])
	offset += prgSize

	chrSize := chrBanks * chrBankSize
	if len(data) < offset+chrSize {
		return nil, formatErrorf("CHR ROM declares %d bytes, image has %d", chrSize, len(data)-offset)
	}
	if chrSize == 0 {
		cart.CHRRAM = true
		cart.CHR = make([]uint8, chrBankSize)
	} else {
		cart.CHR = make([]uint8, chrSize)
		copy(cart.CHR, data[offset:offset+chrSize])
	}

	cart.CRC32 = crc32.ChecksumIEEE(data[romStart : offset+chrSize])

	m, err := mapper.New(cart.Mapper, cart.info())
	if err != nil {
		if errors.Is(err, mapper.ErrUnsupported) {
			return nil, formatErrorf("unsupported mapper %d", cart.Mapper)
		}
		return nil, &FormatError{Reason: err.Error()}
	}
	cart.mapper = m

	logger.Logf("cartridge", "%s, PRG %dK, CHR %dK, %s mirroring", mapper.Name(cart.Mapper), prgSize/1024, len(cart.CHR)/1024, cart.Mirror)
	return cart, nil
}

func (c *Cartridge) info() mapper.Info {
	chrBanks := len(c.CHR) / chrBankSize
	if c.CHRRAM {
		chrBanks = 0
	}
	return mapper.Info{
		PRGBanks:   len(c.PRG) / prgBankSize,
		CHRBanks:   chrBanks,
		PRGRAMSize: len(c.PRGRAM),
		Mirror:     c.Mirror,
	}
}

func (c *Cartridge) cpuRead(addr uint16) (uint8, bool) {
	off, target := c.mapper.CPUMap(addr)
	switch target {
	case mapper.PRGROM:
		return c.PRG[off], true
	case mapper.PRGRAM:
		return c.PRGRAM[off], true
	}
	return 0, false
}

func (c *Cartridge) cpuWrite(addr uint16, data uint8) {
	off, target := c.mapper.CPUMap(addr)
	switch target {
	case mapper.PRGRAM:
		c.PRGRAM[off] = data
	case mapper.PRGROM:
		c.mapper.WriteRegister(addr, data)
	}
}

func (c *Cartridge) ppuRead(addr uint16) uint8 {
	off, target := c.mapper.PPUMap(addr)
	if target == mapper.None {
		return 0
	}
	return c.CHR[off]
}

func (c *Cartridge) ppuWrite(addr uint16, data uint8) {
	off, target := c.mapper.PPUMap(addr)
	if target == mapper.CHRRAM {
		c.CHR[off] = data
	}
}

func (c *Cartridge) mirror() mapper.Mirror {
	return c.mapper.Mirror()
}

func (c *Cartridge) irq() bool {
	return c.mapper.IRQ()
}

func (c *Cartridge) scanline() {
	c.mapper.Scanline()
}

func (c *Cartridge) reset() {
	c.mapper.Reset()
}

// clone copies every mutable part of the cartridge. ROM is shared.
func (c *Cartridge) clone() (*Cartridge, error) {
	n := *c
	n.PRGRAM = append([]uint8(nil), c.PRGRAM...)
	if c.CHRRAM {
		n.CHR = append([]uint8(nil), c.CHR...)
	}
	m, err := mapper.New(c.Mapper, c.info())
	if err != nil {
		return nil, err
	}
	b, err := c.mapper.MarshalMsg(nil)
	if err != nil {
		return nil, err
	}
	if _, err := m.UnmarshalMsg(b); err != nil {
		return nil, err
	}
	n.mapper = m
	return &n, nil
}
