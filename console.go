package nes

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"image"
	"image/color"

	"nes-core/logger"
)

//go:embed palette.json
var paletteJSON []byte

// Palette is the 64 colour NTSC master palette.
var Palette [64]color.RGBA

func init() {
	var entries [][3]uint8
	if err := json.Unmarshal(paletteJSON, &entries); err != nil {
		panic(fmt.Sprintf("palette.json: %v", err))
	}
	if len(entries) != len(Palette) {
		panic(fmt.Sprintf("palette.json: %d entries, want %d", len(entries), len(Palette)))
	}
	for i, e := range entries {
		Palette[i] = color.RGBA{R: e[0], G: e[1], B: e[2], A: 0xFF}
	}
}

// Frame is the output of one emulated frame.
type Frame struct {
	Number uint64
	// Pixels holds one palette index per dot, row by row.
	Pixels []uint8
	// Samples are mono, in the range the mixer produces, at the configured
	// sample rate.
	Samples []float32
}

func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	for i, idx := range f.Pixels {
		c := Palette[idx&0x3F]
		o := i * 4
		img.Pix[o+0] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}

// machine is one cartridge wired to a full set of chips.
type machine struct {
	cart *Cartridge
	cpu  *CPU
	ppu  *PPU
	apu  *APU
	bus  *Bus
}

func newMachine(cart *Cartridge, config Config) *machine {
	m := &machine{
		cart: cart,
		cpu:  &CPU{},
		ppu:  NewPPU(config.SpriteLimit),
		apu:  NewAPU(config.SampleRate, config.AudioFilter),
	}
	m.bus = NewBus(m.cpu, m.ppu, m.apu, cart)
	return m
}

func (m *machine) powerOn() {
	m.cart.reset()
	m.apu.reset()
	m.ppu.reset()
	m.cpu.reset()
}

// Console schedules the CPU, PPU and APU of one NES. A Console is not safe
// for concurrent use; separate consoles share nothing.
type Console struct {
	config Config
	*machine
}

func NewConsole(config Config) *Console {
	return &Console{config: config.normalise()}
}

// LoadROM parses an iNES image and powers the console on with it. On error
// the console keeps running whatever it had before.
func (c *Console) LoadROM(data []byte) error {
	cart, err := ParseCartridge(data)
	if err != nil {
		return err
	}
	m := newMachine(cart, c.config)
	m.powerOn()
	c.machine = m
	return nil
}

func (c *Console) Cartridge() *Cartridge {
	if c.machine == nil {
		return nil
	}
	return c.cart
}

// Reset presses the reset button. Memory and the cartridge RAM survive.
func (c *Console) Reset() {
	if c.machine == nil {
		return
	}
	logger.Log("console", "reset")
	c.cart.reset()
	c.apu.reset()
	c.ppu.reset()
	c.cpu.reset()
}

// step runs one CPU step and catches the PPU and APU up with it.
func (c *Console) step() (int, error) {
	cycles := c.cpu.step()
	if c.cpu.halt != nil {
		return 0, c.cpu.halt
	}
	for i := 0; i < cycles; i++ {
		c.ppu.clock()
		c.ppu.clock()
		c.ppu.clock()
		c.apu.clock()
	}
	if c.ppu.nmi {
		c.ppu.nmi = false
		c.cpu.nmi()
	}
	return cycles, nil
}

// Step executes a single instruction, interrupt entry or DMA stall and
// returns the CPU cycles it took.
func (c *Console) Step() (int, error) {
	if c.machine == nil {
		return 0, ErrNoCartridge
	}
	return c.step()
}

// RunFrame runs until the PPU finishes the frame in progress.
func (c *Console) RunFrame() (*Frame, error) {
	if c.machine == nil {
		return nil, ErrNoCartridge
	}
	for !c.ppu.frameComplete {
		if _, err := c.step(); err != nil {
			return nil, err
		}
	}
	c.ppu.frameComplete = false

	f := &Frame{
		Number:  c.ppu.frame,
		Pixels:  make([]uint8, len(c.ppu.screen)),
		Samples: c.apu.drainSamples(),
	}
	copy(f.Pixels, c.ppu.screen[:])
	return f, nil
}

// FrameCount is the number of frames completed since power on.
func (c *Console) FrameCount() uint64 {
	if c.machine == nil {
		return 0
	}
	return c.ppu.frame
}

// SetButtons sets the pressed buttons of a controller port, 0 or 1.
func (c *Console) SetButtons(port int, buttons uint8) {
	if c.machine == nil || port < 0 || port > 1 {
		return
	}
	c.bus.controller[port].set(buttons)
}

// BatteryRAM returns a copy of the battery backed PRG RAM, or nil when the
// cartridge has no battery.
func (c *Console) BatteryRAM() []byte {
	if c.machine == nil || !c.cart.Battery {
		return nil
	}
	return append([]byte(nil), c.cart.PRGRAM...)
}

// LoadBatteryRAM restores PRG RAM saved by BatteryRAM.
func (c *Console) LoadBatteryRAM(data []byte) error {
	if c.machine == nil {
		return ErrNoCartridge
	}
	if !c.cart.Battery {
		return fmt.Errorf("%w: cartridge has no battery", ErrBatteryRAM)
	}
	if len(data) != len(c.cart.PRGRAM) {
		return fmt.Errorf("%w: %d bytes, want %d", ErrBatteryRAM, len(data), len(c.cart.PRGRAM))
	}
	copy(c.cart.PRGRAM, data)
	return nil
}

// Disassemble lists the instructions from start to stop as the CPU
// currently sees memory. No register is touched.
func (c *Console) Disassemble(start, stop uint16) []DisassembledInstruction {
	if c.machine == nil {
		return nil
	}
	return c.bus.disassemble(start, stop)
}

// TraceLine describes the next instruction and the CPU registers.
func (c *Console) TraceLine() string {
	if c.machine == nil {
		return ""
	}
	return c.cpu.traceLine()
}
