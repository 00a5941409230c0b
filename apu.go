package nes

import (
	"math"

	"nes-core/snapshot"
)

// NTSC CPU clock in Hz.
const cpuClock = 1789773

// frame sequencer steps, in CPU cycles since the sequencer was reset
const (
	frameStep1     = 7457
	frameStep2     = 14913
	frameStep3     = 22371
	frameStep4     = 29829
	frameStep5     = 37281
	frameFourSteps = 29830
	frameFiveSteps = 37282
)

var pulseTable [31]float32
var tndTable [203]float32

func init() {
	for i := 1; i < len(pulseTable); i++ {
		pulseTable[i] = float32(95.52 / (8128.0/float64(i) + 100))
	}
	for i := 1; i < len(tndTable); i++ {
		tndTable[i] = float32(163.67 / (24329.0/float64(i) + 100))
	}
}

// filter is a first order IIR stage.
type filter struct {
	b0, b1, a1 float64
	prevX      float64
	prevY      float64
}

func lowPass(sampleRate int, cutoff float64) filter {
	c := float64(sampleRate) / math.Pi / cutoff
	a0 := 1 / (1 + c)
	return filter{b0: a0, b1: a0, a1: (1 - c) * a0}
}

func highPass(sampleRate int, cutoff float64) filter {
	c := float64(sampleRate) / math.Pi / cutoff
	a0 := 1 / (1 + c)
	return filter{b0: c * a0, b1: -c * a0, a1: (1 - c) * a0}
}

func (f *filter) step(x float64) float64 {
	y := f.b0*x + f.b1*f.prevX - f.a1*f.prevY
	f.prevX = x
	f.prevY = y
	return y
}

type APU struct {
	pulse1   pulse
	pulse2   pulse
	triangle triangle
	noise    noise
	dmc      dmc

	clockCounter      uint64
	frameClockCounter uint32
	fiveStep          bool
	irqInhibit        bool
	frameIRQ          bool

	sampleRate  int
	sampleClock int
	filtered    bool
	filters     [3]filter
	samples     []float32

	bus *Bus
}

func NewAPU(sampleRate int, filtered bool) *APU {
	a := &APU{
		sampleRate: sampleRate,
		filtered:   filtered,
	}
	a.reset()
	return a
}

func (a *APU) connectBus(b *Bus) {
	a.bus = b
}

func (a *APU) reset() {
	a.pulse1 = pulse{onesComplement: true}
	a.pulse2 = pulse{}
	a.triangle = triangle{}
	a.noise = noise{shift: 1, period: noiseTable[0]}
	a.dmc.reset()

	a.clockCounter = 0
	a.frameClockCounter = 0
	a.fiveStep = false
	a.irqInhibit = false
	a.frameIRQ = false

	a.sampleClock = 0
	a.filters = [3]filter{
		highPass(a.sampleRate, 90),
		highPass(a.sampleRate, 440),
		lowPass(a.sampleRate, 14000),
	}
	a.samples = a.samples[:0]
}

func (a *APU) cpuWrite(addr uint16, data uint8) {
	switch {
	case addr >= 0x4000 && addr <= 0x4003:
		a.pulse1.write(addr&0x03, data)
	case addr >= 0x4004 && addr <= 0x4007:
		a.pulse2.write(addr&0x03, data)
	case addr >= 0x4008 && addr <= 0x400B:
		a.triangle.write(addr&0x03, data)
	case addr >= 0x400C && addr <= 0x400F:
		a.noise.write(addr&0x03, data)
	case addr >= 0x4010 && addr <= 0x4013:
		a.dmc.write(addr&0x03, data)
	case addr == 0x4015:
		a.pulse1.length.setEnabled(data&0x01 != 0)
		a.pulse2.length.setEnabled(data&0x02 != 0)
		a.triangle.length.setEnabled(data&0x04 != 0)
		a.noise.length.setEnabled(data&0x08 != 0)
		a.dmc.setEnabled(data&0x10 != 0)
	case addr == 0x4017:
		a.fiveStep = data&0x80 != 0
		a.irqInhibit = data&0x40 != 0
		if a.irqInhibit {
			a.frameIRQ = false
		}
		a.frameClockCounter = 0
		if a.fiveStep {
			a.quarterFrame()
			a.halfFrame()
		}
	}
}

// readStatus returns $4015. Reading acknowledges the frame interrupt.
func (a *APU) readStatus(readOnly bool) uint8 {
	var data uint8
	if a.pulse1.length.counter > 0 {
		data |= 0x01
	}
	if a.pulse2.length.counter > 0 {
		data |= 0x02
	}
	if a.triangle.length.counter > 0 {
		data |= 0x04
	}
	if a.noise.length.counter > 0 {
		data |= 0x08
	}
	if a.dmc.bytesRemaining > 0 {
		data |= 0x10
	}
	if a.frameIRQ {
		data |= 0x40
	}
	if a.dmc.irq {
		data |= 0x80
	}
	if !readOnly {
		a.frameIRQ = false
	}
	return data
}

func (a *APU) irq() bool {
	return a.frameIRQ || a.dmc.irq
}

func (a *APU) quarterFrame() {
	a.pulse1.env.clock()
	a.pulse2.env.clock()
	a.noise.env.clock()
	a.triangle.clockLinear()
}

func (a *APU) halfFrame() {
	a.pulse1.length.clock()
	a.pulse2.length.clock()
	a.triangle.length.clock()
	a.noise.length.clock()
	a.pulse1.clockSweep()
	a.pulse2.clockSweep()
}

func (a *APU) clockFrameSequencer() {
	a.frameClockCounter++

	switch a.frameClockCounter {
	case frameStep1, frameStep3:
		a.quarterFrame()
	case frameStep2:
		a.quarterFrame()
		a.halfFrame()
	case frameStep4:
		if !a.fiveStep {
			a.quarterFrame()
			a.halfFrame()
			if !a.irqInhibit {
				a.frameIRQ = true
			}
		}
	case frameFourSteps:
		if !a.fiveStep {
			a.frameClockCounter = 0
		}
	case frameStep5:
		a.quarterFrame()
		a.halfFrame()
	case frameFiveSteps:
		a.frameClockCounter = 0
	}
}

// clock advances the APU by one CPU cycle.
func (a *APU) clock() {
	a.clockFrameSequencer()

	if a.clockCounter%2 == 1 {
		a.pulse1.clockTimer()
		a.pulse2.clockTimer()
	}
	a.triangle.clockTimer()
	a.noise.clockTimer()
	a.dmc.clockTimer(a.bus)
	a.clockCounter++

	a.sampleClock += a.sampleRate
	if a.sampleClock >= cpuClock {
		a.sampleClock -= cpuClock
		a.samples = append(a.samples, a.getOutputSample())
	}
}

// mix combines the channels with the non-linear DAC approximation.
func (a *APU) mix() float32 {
	p := pulseTable[a.pulse1.output()+a.pulse2.output()]
	t := tndTable[3*int(a.triangle.output())+2*int(a.noise.output())+int(a.dmc.output())]
	return p + t
}

func (a *APU) getOutputSample() float32 {
	s := a.mix()
	if !a.filtered {
		return s
	}
	v := float64(s)
	for i := range a.filters {
		v = a.filters[i].step(v)
	}
	return float32(v)
}

// drainSamples hands over the samples produced since the last call.
func (a *APU) drainSamples() []float32 {
	out := make([]float32, len(a.samples))
	copy(out, a.samples)
	a.samples = a.samples[:0]
	return out
}

const apuStateFields = 18

func (a *APU) save(e *snapshot.Encoder) {
	e.Array(apuStateFields)
	a.pulse1.save(e)
	a.pulse2.save(e)
	a.triangle.save(e)
	a.noise.save(e)
	a.dmc.save(e)
	e.Uint64(a.clockCounter)
	e.Uint32(a.frameClockCounter)
	e.Bool(a.fiveStep)
	e.Bool(a.irqInhibit)
	e.Bool(a.frameIRQ)
	e.Int(a.sampleClock)
	for i := range a.filters {
		e.Float64(a.filters[i].prevX)
		e.Float64(a.filters[i].prevY)
	}
	e.Float32s(a.samples)
}

func (a *APU) load(d *snapshot.Decoder) {
	d.Array(apuStateFields)
	a.pulse1.load(d)
	a.pulse2.load(d)
	a.triangle.load(d)
	a.noise.load(d)
	a.dmc.load(d)
	a.clockCounter = d.Uint64()
	a.frameClockCounter = d.Uint32()
	a.fiveStep = d.Bool()
	a.irqInhibit = d.Bool()
	a.frameIRQ = d.Bool()
	a.sampleClock = d.Int()
	for i := range a.filters {
		a.filters[i].prevX = d.Float64()
		a.filters[i].prevY = d.Float64()
	}
	a.samples = d.Float32s(a.samples[:0])
}
