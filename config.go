package nes

// Config holds the options a Console is built with.
type Config struct {
	// SampleRate is the audio output rate in Hz.
	SampleRate int

	// SpriteLimit keeps the hardware limit of eight sprites per scanline.
	// Turning it off removes flicker in games that multiplex sprites.
	SpriteLimit bool

	// AudioFilter applies the high-pass and low-pass filters of the NES
	// output stage to the mixed samples.
	AudioFilter bool
}

func DefaultConfig() Config {
	return Config{
		SampleRate:  44100,
		SpriteLimit: true,
		AudioFilter: true,
	}
}

func (c Config) normalise() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultConfig().SampleRate
	}
	if c.SampleRate > cpuClock {
		c.SampleRate = cpuClock
	}
	return c
}
