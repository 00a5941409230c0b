package nes

import "nes-core/snapshot"

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// noise and DMC periods in CPU cycles
var noiseTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

var dmcTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

// lengthCounter silences a channel after a number of half frames unless
// halted.
type lengthCounter struct {
	counter uint8
	halt    bool
	enabled bool
}

func (l *lengthCounter) reload(data uint8) {
	if l.enabled {
		l.counter = lengthTable[data>>3]
	}
}

func (l *lengthCounter) setEnabled(v bool) {
	l.enabled = v
	if !v {
		l.counter = 0
	}
}

func (l *lengthCounter) clock() {
	if !l.halt && l.counter > 0 {
		l.counter--
	}
}

func (l *lengthCounter) save(e *snapshot.Encoder) {
	e.Array(3)
	e.Uint8(l.counter)
	e.Bool(l.halt)
	e.Bool(l.enabled)
}

func (l *lengthCounter) load(d *snapshot.Decoder) {
	d.Array(3)
	l.counter = d.Uint8()
	l.halt = d.Bool()
	l.enabled = d.Bool()
}

type envelope struct {
	start    bool
	loop     bool
	constant bool
	volume   uint8
	divider  uint8
	decay    uint8
}

func (e *envelope) clock() {
	if e.start {
		e.start = false
		e.decay = 15
		e.divider = e.volume
		return
	}
	if e.divider > 0 {
		e.divider--
		return
	}
	e.divider = e.volume
	if e.decay > 0 {
		e.decay--
	} else if e.loop {
		e.decay = 15
	}
}

func (e *envelope) output() uint8 {
	if e.constant {
		return e.volume
	}
	return e.decay
}

func (e *envelope) save(enc *snapshot.Encoder) {
	enc.Array(6)
	enc.Bool(e.start)
	enc.Bool(e.loop)
	enc.Bool(e.constant)
	enc.Uint8(e.volume)
	enc.Uint8(e.divider)
	enc.Uint8(e.decay)
}

func (e *envelope) load(d *snapshot.Decoder) {
	d.Array(6)
	e.start = d.Bool()
	e.loop = d.Bool()
	e.constant = d.Bool()
	e.volume = d.Uint8()
	e.divider = d.Uint8()
	e.decay = d.Uint8()
}

type pulse struct {
	// the first pulse channel negates with ones' complement
	onesComplement bool

	duty     uint8
	dutyStep uint8
	timer    uint16
	period   uint16

	length lengthCounter
	env    envelope

	sweepEnabled bool
	sweepNegate  bool
	sweepReload  bool
	sweepPeriod  uint8
	sweepShift   uint8
	sweepDivider uint8
}

func (p *pulse) write(reg uint16, data uint8) {
	switch reg {
	case 0:
		p.duty = data >> 6
		p.length.halt = data&0x20 != 0
		p.env.loop = data&0x20 != 0
		p.env.constant = data&0x10 != 0
		p.env.volume = data & 0x0F
	case 1:
		p.sweepEnabled = data&0x80 != 0
		p.sweepPeriod = (data >> 4) & 0x07
		p.sweepNegate = data&0x08 != 0
		p.sweepShift = data & 0x07
		p.sweepReload = true
	case 2:
		p.period = (p.period & 0x0700) | uint16(data)
	case 3:
		p.period = (p.period & 0x00FF) | (uint16(data&0x07) << 8)
		p.length.reload(data)
		p.dutyStep = 0
		p.env.start = true
	}
}

func (p *pulse) clockTimer() {
	if p.timer == 0 {
		p.timer = p.period
		p.dutyStep = (p.dutyStep + 1) & 0x07
	} else {
		p.timer--
	}
}

func (p *pulse) targetPeriod() int {
	change := int(p.period >> p.sweepShift)
	if p.sweepNegate {
		change = -change
		if p.onesComplement {
			change--
		}
	}
	return int(p.period) + change
}

// muted applies whether or not the sweep unit is enabled.
func (p *pulse) muted() bool {
	return p.period < 8 || p.targetPeriod() > 0x7FF
}

func (p *pulse) clockSweep() {
	if p.sweepDivider == 0 && p.sweepEnabled && p.sweepShift > 0 && !p.muted() {
		target := p.targetPeriod()
		if target < 0 {
			target = 0
		}
		p.period = uint16(target)
	}
	if p.sweepDivider == 0 || p.sweepReload {
		p.sweepDivider = p.sweepPeriod
		p.sweepReload = false
	} else {
		p.sweepDivider--
	}
}

func (p *pulse) output() uint8 {
	if p.length.counter == 0 || p.muted() || dutyTable[p.duty][p.dutyStep] == 0 {
		return 0
	}
	return p.env.output()
}

func (p *pulse) save(e *snapshot.Encoder) {
	e.Array(12)
	e.Uint8(p.duty)
	e.Uint8(p.dutyStep)
	e.Uint16(p.timer)
	e.Uint16(p.period)
	p.length.save(e)
	p.env.save(e)
	e.Bool(p.sweepEnabled)
	e.Bool(p.sweepNegate)
	e.Bool(p.sweepReload)
	e.Uint8(p.sweepPeriod)
	e.Uint8(p.sweepShift)
	e.Uint8(p.sweepDivider)
}

func (p *pulse) load(d *snapshot.Decoder) {
	d.Array(12)
	p.duty = d.Uint8() & 0x03
	p.dutyStep = d.Uint8() & 0x07
	p.timer = d.Uint16()
	p.period = d.Uint16()
	p.length.load(d)
	p.env.load(d)
	p.sweepEnabled = d.Bool()
	p.sweepNegate = d.Bool()
	p.sweepReload = d.Bool()
	p.sweepPeriod = d.Uint8()
	p.sweepShift = d.Uint8() & 0x07
	p.sweepDivider = d.Uint8()
}

type triangle struct {
	timer  uint16
	period uint16
	step   uint8

	length lengthCounter

	control        bool
	linearCounter  uint8
	linearReload   uint8
	linearReloaded bool
}

func (t *triangle) write(reg uint16, data uint8) {
	switch reg {
	case 0:
		t.control = data&0x80 != 0
		t.length.halt = t.control
		t.linearReload = data & 0x7F
	case 2:
		t.period = (t.period & 0x0700) | uint16(data)
	case 3:
		t.period = (t.period & 0x00FF) | (uint16(data&0x07) << 8)
		t.length.reload(data)
		t.linearReloaded = true
	}
}

func (t *triangle) clockTimer() {
	if t.timer > 0 {
		t.timer--
		return
	}
	t.timer = t.period
	if t.length.counter > 0 && t.linearCounter > 0 {
		t.step = (t.step + 1) & 0x1F
	}
}

func (t *triangle) clockLinear() {
	if t.linearReloaded {
		t.linearCounter = t.linearReload
	} else if t.linearCounter > 0 {
		t.linearCounter--
	}
	if !t.control {
		t.linearReloaded = false
	}
}

func (t *triangle) output() uint8 {
	return triangleTable[t.step]
}

func (t *triangle) save(e *snapshot.Encoder) {
	e.Array(8)
	e.Uint16(t.timer)
	e.Uint16(t.period)
	e.Uint8(t.step)
	t.length.save(e)
	e.Bool(t.control)
	e.Uint8(t.linearCounter)
	e.Uint8(t.linearReload)
	e.Bool(t.linearReloaded)
}

func (t *triangle) load(d *snapshot.Decoder) {
	d.Array(8)
	t.timer = d.Uint16()
	t.period = d.Uint16()
	t.step = d.Uint8() & 0x1F
	t.length.load(d)
	t.control = d.Bool()
	t.linearCounter = d.Uint8()
	t.linearReload = d.Uint8()
	t.linearReloaded = d.Bool()
}

type noise struct {
	shift  uint16
	mode   bool
	timer  uint16
	period uint16

	length lengthCounter
	env    envelope
}

func (n *noise) write(reg uint16, data uint8) {
	switch reg {
	case 0:
		n.length.halt = data&0x20 != 0
		n.env.loop = data&0x20 != 0
		n.env.constant = data&0x10 != 0
		n.env.volume = data & 0x0F
	case 2:
		n.mode = data&0x80 != 0
		n.period = noiseTable[data&0x0F]
	case 3:
		n.length.reload(data)
		n.env.start = true
	}
}

func (n *noise) clockTimer() {
	if n.timer > 0 {
		n.timer--
		return
	}
	n.timer = n.period - 1

	tap := uint16(1)
	if n.mode {
		tap = 6
	}
	feedback := (n.shift & 0x01) ^ ((n.shift >> tap) & 0x01)
	n.shift = (n.shift >> 1) | (feedback << 14)
}

func (n *noise) output() uint8 {
	if n.length.counter == 0 || n.shift&0x01 != 0 {
		return 0
	}
	return n.env.output()
}

func (n *noise) save(e *snapshot.Encoder) {
	e.Array(6)
	e.Uint16(n.shift)
	e.Bool(n.mode)
	e.Uint16(n.timer)
	e.Uint16(n.period)
	n.length.save(e)
	n.env.save(e)
}

func (n *noise) load(d *snapshot.Decoder) {
	d.Array(6)
	n.shift = d.Uint16()
	n.mode = d.Bool()
	n.timer = d.Uint16()
	n.period = d.Uint16()
	n.length.load(d)
	n.env.load(d)
}

// dmc plays 1-bit delta encoded samples fetched from CPU memory.
type dmc struct {
	irqEnabled bool
	loop       bool
	irq        bool
	rate       uint16
	timer      uint16
	level      uint8

	sampleAddr     uint16
	sampleLength   uint16
	currentAddr    uint16
	bytesRemaining uint16

	sampleBuffer  uint8
	bufferEmpty   bool
	shiftRegister uint8
	bitsRemaining uint8
	silence       bool
}

func (m *dmc) reset() {
	*m = dmc{
		rate:          dmcTable[0],
		sampleAddr:    0xC000,
		sampleLength:  1,
		bufferEmpty:   true,
		bitsRemaining: 8,
		silence:       true,
	}
}

func (m *dmc) write(reg uint16, data uint8) {
	switch reg {
	case 0:
		m.irqEnabled = data&0x80 != 0
		if !m.irqEnabled {
			m.irq = false
		}
		m.loop = data&0x40 != 0
		m.rate = dmcTable[data&0x0F]
	case 1:
		m.level = data & 0x7F
	case 2:
		m.sampleAddr = 0xC000 | (uint16(data) << 6)
	case 3:
		m.sampleLength = (uint16(data) << 4) | 1
	}
}

func (m *dmc) restart() {
	m.currentAddr = m.sampleAddr
	m.bytesRemaining = m.sampleLength
}

func (m *dmc) setEnabled(v bool) {
	m.irq = false
	if !v {
		m.bytesRemaining = 0
	} else if m.bytesRemaining == 0 {
		m.restart()
	}
}

// fill loads the sample buffer through the bus, stalling the CPU for the
// cycles the fetch steals.
func (m *dmc) fill(b *Bus) {
	if !m.bufferEmpty || m.bytesRemaining == 0 {
		return
	}
	b.cpu.stall += 4
	m.sampleBuffer = b.cpuRead(m.currentAddr, false)
	m.bufferEmpty = false
	m.currentAddr++
	if m.currentAddr == 0 {
		m.currentAddr = 0x8000
	}
	m.bytesRemaining--
	if m.bytesRemaining == 0 {
		if m.loop {
			m.restart()
		} else if m.irqEnabled {
			m.irq = true
		}
	}
}

func (m *dmc) clockTimer(b *Bus) {
	m.fill(b)
	if m.timer > 0 {
		m.timer--
		return
	}
	m.timer = m.rate - 1

	if !m.silence {
		if m.shiftRegister&0x01 != 0 {
			if m.level <= 125 {
				m.level += 2
			}
		} else if m.level >= 2 {
			m.level -= 2
		}
	}
	m.shiftRegister >>= 1
	m.bitsRemaining--
	if m.bitsRemaining == 0 {
		m.bitsRemaining = 8
		if m.bufferEmpty {
			m.silence = true
		} else {
			m.silence = false
			m.shiftRegister = m.sampleBuffer
			m.bufferEmpty = true
			m.fill(b)
		}
	}
}

func (m *dmc) output() uint8 {
	return m.level
}

func (m *dmc) save(e *snapshot.Encoder) {
	e.Array(15)
	e.Bool(m.irqEnabled)
	e.Bool(m.loop)
	e.Bool(m.irq)
	e.Uint16(m.rate)
	e.Uint16(m.timer)
	e.Uint8(m.level)
	e.Uint16(m.sampleAddr)
	e.Uint16(m.sampleLength)
	e.Uint16(m.currentAddr)
	e.Uint16(m.bytesRemaining)
	e.Uint8(m.sampleBuffer)
	e.Bool(m.bufferEmpty)
	e.Uint8(m.shiftRegister)
	e.Uint8(m.bitsRemaining)
	e.Bool(m.silence)
}

func (m *dmc) load(d *snapshot.Decoder) {
	d.Array(15)
	m.irqEnabled = d.Bool()
	m.loop = d.Bool()
	m.irq = d.Bool()
	m.rate = d.Uint16()
	m.timer = d.Uint16()
	m.level = d.Uint8() & 0x7F
	m.sampleAddr = d.Uint16()
	m.sampleLength = d.Uint16()
	m.currentAddr = d.Uint16()
	m.bytesRemaining = d.Uint16()
	m.sampleBuffer = d.Uint8()
	m.bufferEmpty = d.Bool()
	m.shiftRegister = d.Uint8()
	m.bitsRemaining = d.Uint8()
	m.silence = d.Bool()
}
