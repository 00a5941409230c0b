package nes

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math"
)

// FrameDigest produces a chained SHA-1 of every frame added to it. Each
// frame's hash covers the previous hash, so equal digests after N frames mean
// equal output over the whole run.
//
// SHA-1 is fine here, this is not a cryptographic task.
type FrameDigest struct {
	digest [sha1.Size]byte
	buf    []byte
	frames int
}

func NewFrameDigest() *FrameDigest {
	return &FrameDigest{}
}

// Add chains the pixels and samples of f into the digest.
func (dig *FrameDigest) Add(f *Frame) {
	dig.buf = append(dig.buf[:0], dig.digest[:]...)
	dig.buf = append(dig.buf, f.Pixels...)
	for _, s := range f.Samples {
		dig.buf = binary.LittleEndian.AppendUint32(dig.buf, math.Float32bits(s))
	}
	dig.digest = sha1.Sum(dig.buf)
	dig.frames++
}

func (dig *FrameDigest) Hash() string {
	return fmt.Sprintf("%x", dig.digest)
}

func (dig *FrameDigest) Frames() int {
	return dig.frames
}

func (dig *FrameDigest) ResetDigest() {
	for i := range dig.digest {
		dig.digest[i] = 0
	}
	dig.frames = 0
}
