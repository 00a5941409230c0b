// Command nesrun runs a ROM headless for a number of frames and writes out
// whatever the flags ask for: the last picture, the audio, a save state, a
// digest of the whole run or a CPU trace.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"golang.org/x/image/draw"

	nes "nes-core"
	"nes-core/logger"
)

const statsAddress = "localhost:12600"

type options struct {
	rom           string
	frames        int
	png           string
	scale         int
	wav           string
	save          string
	load          string
	sav           string
	digest        bool
	disasm        bool
	trace         int
	sampleRate    int
	noSpriteLimit bool
	noFilter      bool
	log           bool
	statsview     bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "* error: %v\n", err)
		os.Exit(10)
	}
}

func parseArgs(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("nesrun", flag.ContinueOnError)
	fs.IntVar(&o.frames, "frames", 60, "number of frames to run")
	fs.StringVar(&o.png, "png", "", "write the last frame to a PNG file")
	fs.IntVar(&o.scale, "scale", 1, "scale factor of the PNG")
	fs.StringVar(&o.wav, "wav", "", "write the audio of the run to a WAV file")
	fs.StringVar(&o.save, "save", "", "write a save state after the run")
	fs.StringVar(&o.load, "load", "", "restore a save state before the run")
	fs.StringVar(&o.sav, "sav", "", "battery RAM file, loaded before and written after the run")
	fs.BoolVar(&o.digest, "digest", false, "print a digest of every frame and sample")
	fs.BoolVar(&o.disasm, "disasm", false, "print a disassembly of $8000-$FFFF and exit")
	fs.IntVar(&o.trace, "trace", 0, "print a trace of the first N instructions")
	fs.IntVar(&o.sampleRate, "samplerate", nes.DefaultConfig().SampleRate, "audio sample rate")
	fs.BoolVar(&o.noSpriteLimit, "nospritelimit", false, "draw every sprite on a scanline")
	fs.BoolVar(&o.noFilter, "nofilter", false, "skip the audio output filters")
	fs.BoolVar(&o.log, "log", false, "echo log entries to stderr")
	fs.BoolVar(&o.statsview, "statsview", false, "serve runtime statistics on "+statsAddress)

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 1 {
		return o, errors.New("usage: nesrun [flags] rom.nes")
	}
	o.rom = fs.Arg(0)
	if o.scale < 1 {
		return o, fmt.Errorf("scale must be at least 1, got %d", o.scale)
	}
	return o, nil
}

func run(args []string, output io.Writer) error {
	o, err := parseArgs(args)
	if err != nil {
		return err
	}

	if o.log {
		logger.SetEcho(os.Stderr)
	}
	if o.statsview {
		launchStatsview(output)
	}

	data, err := os.ReadFile(o.rom)
	if err != nil {
		return err
	}

	config := nes.DefaultConfig()
	config.SampleRate = o.sampleRate
	config.SpriteLimit = !o.noSpriteLimit
	config.AudioFilter = !o.noFilter

	console := nes.NewConsole(config)
	if err := console.LoadROM(data); err != nil {
		return fmt.Errorf("%s: %w", o.rom, err)
	}

	if o.disasm {
		for _, d := range console.Disassemble(0x8000, 0xFFFF) {
			fmt.Fprintln(output, d)
		}
		return nil
	}

	if o.sav != "" {
		if err := loadBattery(console, o.sav); err != nil {
			return err
		}
	}
	if o.load != "" {
		state, err := os.ReadFile(o.load)
		if err != nil {
			return err
		}
		if err := console.Restore(nes.State(state)); err != nil {
			return fmt.Errorf("%s: %w", o.load, err)
		}
	}

	for i := 0; i < o.trace; i++ {
		fmt.Fprintln(output, console.TraceLine())
		if _, err := console.Step(); err != nil {
			return err
		}
	}

	var dig *nes.FrameDigest
	if o.digest {
		dig = nes.NewFrameDigest()
	}
	var samples []float32
	var last *nes.Frame

	for i := 0; i < o.frames; i++ {
		f, err := console.RunFrame()
		if err != nil {
			return fmt.Errorf("frame %d: %w", console.FrameCount(), err)
		}
		if dig != nil {
			dig.Add(f)
		}
		if o.wav != "" {
			samples = append(samples, f.Samples...)
		}
		last = f
	}

	if dig != nil {
		fmt.Fprintf(output, "%s  %d frames\n", dig.Hash(), dig.Frames())
	}
	if o.png != "" && last != nil {
		if err := writePNG(o.png, last, o.scale); err != nil {
			return err
		}
	}
	if o.wav != "" {
		if err := writeWAV(o.wav, samples, config.SampleRate); err != nil {
			return err
		}
	}
	if o.save != "" {
		state, err := console.Snapshot()
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.save, state, 0o644); err != nil {
			return err
		}
	}
	if o.sav != "" {
		if ram := console.BatteryRAM(); ram != nil {
			if err := os.WriteFile(o.sav, ram, 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadBattery(console *nes.Console, filename string) error {
	ram, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := console.LoadBatteryRAM(ram); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

func writePNG(filename string, f *nes.Frame, scale int) (rerr error) {
	src := f.RGBA()
	dst := image.NewRGBA(image.Rect(0, 0, nes.ScreenWidth*scale, nes.ScreenHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	logger.Logf("nesrun", "writing frame %d to %s", f.Number, filename)
	return png.Encode(out, dst)
}

func writeWAV(filename string, samples []float32, sampleRate int) (rerr error) {
	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		v := s * 32767
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		buf.Data[i] = int(v)
	}

	enc := wav.NewEncoder(out, sampleRate, 16, 1, 1)
	logger.Logf("nesrun", "writing %d samples to %s", len(samples), filename)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return enc.Close()
}

// launchStatsview starts the runtime statistics server in its own goroutine.
func launchStatsview(output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsAddress))
		mgr := statsview.New()
		mgr.Start()
	}()
	fmt.Fprintf(output, "stats server available at %s/debug/statsview\n", statsAddress)
}
