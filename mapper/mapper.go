package mapper

import (
	"errors"
	"fmt"
)

type Mirror uint8

const (
	Horizontal Mirror = iota
	Vertical
	OneScreenLo
	OneScreenHi
	FourScreen
)

func (m Mirror) String() string {
	switch m {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case OneScreenLo:
		return "one-screen lo"
	case OneScreenHi:
		return "one-screen hi"
	case FourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("mirror(%d)", uint8(m))
}

// Target says which cartridge memory a translated address lands in.
type Target uint8

const (
	None Target = iota
	PRGROM
	PRGRAM
	CHRROM
	CHRRAM
)

// ROM reports whether writes to the target must be refused.
func (t Target) ROM() bool {
	return t == PRGROM || t == CHRROM
}

// Info is the board description taken from the cartridge header.
type Info struct {
	PRGBanks   int // 16 KiB units
	CHRBanks   int // 8 KiB units, 0 means 8 KiB of CHR RAM
	PRGRAMSize int // bytes
	Mirror     Mirror
}

// Mapper translates CPU and PPU addresses into cartridge memory offsets.
// The set of implementations is closed: only this package can provide one.
type Mapper interface {
	// CPUMap translates a CPU address in $4020-$FFFF.
	CPUMap(addr uint16) (uint32, Target)
	// PPUMap translates a PPU address in $0000-$1FFF.
	PPUMap(addr uint16) (uint32, Target)
	// WriteRegister receives CPU writes that landed on ROM.
	WriteRegister(addr uint16, data uint8)
	// IRQ is the level of the cartridge interrupt line.
	IRQ() bool
	// Scanline clocks a scanline counter, once per rendered line.
	Scanline()
	Mirror() Mirror
	Reset()

	MarshalMsg(b []byte) ([]byte, error)
	UnmarshalMsg(b []byte) ([]byte, error)

	board() *base
}

// ErrUnsupported is wrapped by New for mapper numbers with no implementation.
var ErrUnsupported = errors.New("unsupported mapper")

var names = map[uint8]string{
	0:  "NROM",
	1:  "MMC1",
	2:  "UxROM",
	3:  "CNROM",
	4:  "MMC3",
	7:  "AxROM",
	66: "GxROM",
}

// Name returns the board name of a mapper number.
func Name(id uint8) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("mapper %d", id)
}

// New builds the mapper for an iNES mapper number and resets it.
func New(id uint8, info Info) (Mapper, error) {
	if info.PRGBanks == 0 {
		return nil, fmt.Errorf("mapper %d: no PRG banks", id)
	}

	var m Mapper
	b := base{info: info}
	switch id {
	case 0:
		m = &Mapper0000{base: b}
	case 1:
		m = &Mapper0001{base: b}
	case 2:
		m = &Mapper0002{base: b}
	case 3:
		m = &Mapper0003{base: b}
	case 4:
		m = &Mapper0004{base: b}
	case 7:
		m = &Mapper0007{base: b}
	case 66:
		m = &Mapper0066{base: b}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupported, id)
	}
	m.Reset()
	return m, nil
}

// base carries the board description and the behaviour shared by boards
// without IRQ or mirroring control.
type base struct {
	info Info
}

func (b *base) board() *base { return b }

func (b *base) IRQ() bool { return false }

func (b *base) Scanline() {}

func (b *base) Mirror() Mirror { return b.info.Mirror }

func (b *base) chrTarget() Target {
	if b.info.CHRBanks == 0 {
		return CHRRAM
	}
	return CHRROM
}

// chrSize is the CHR memory size in bytes.
func (b *base) chrSize() uint32 {
	if b.info.CHRBanks == 0 {
		return 0x2000
	}
	return uint32(b.info.CHRBanks) * 0x2000
}

func (b *base) prgSize() uint32 {
	return uint32(b.info.PRGBanks) * 0x4000
}

// prgRAM maps $6000-$7FFF onto the work RAM.
func (b *base) prgRAM(addr uint16) (uint32, Target) {
	if b.info.PRGRAMSize == 0 {
		return 0, None
	}
	return uint32(addr-0x6000) % uint32(b.info.PRGRAMSize), PRGRAM
}

// InfoOf returns the board description a mapper was built with.
func InfoOf(m Mapper) Info {
	return m.board().info
}
