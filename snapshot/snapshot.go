// Package snapshot holds the msgpack primitives shared by every component
// that takes part in a save state. Components append their fields in a fixed
// order with an Encoder and read them back in the same order with a Decoder.
package snapshot

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// Encoder appends msgpack values to a buffer.
type Encoder struct {
	buf []byte
}

func NewEncoder(b []byte) *Encoder {
	return &Encoder{buf: b}
}

// Array starts a group of n values.
func (e *Encoder) Array(n int) {
	e.buf = msgp.AppendArrayHeader(e.buf, uint32(n))
}

func (e *Encoder) Uint8(v uint8)     { e.buf = msgp.AppendUint8(e.buf, v) }
func (e *Encoder) Uint16(v uint16)   { e.buf = msgp.AppendUint16(e.buf, v) }
func (e *Encoder) Uint32(v uint32)   { e.buf = msgp.AppendUint32(e.buf, v) }
func (e *Encoder) Uint64(v uint64)   { e.buf = msgp.AppendUint64(e.buf, v) }
func (e *Encoder) Int(v int)         { e.buf = msgp.AppendInt(e.buf, v) }
func (e *Encoder) Int16(v int16)     { e.buf = msgp.AppendInt16(e.buf, v) }
func (e *Encoder) Bool(v bool)       { e.buf = msgp.AppendBool(e.buf, v) }
func (e *Encoder) Float64(v float64) { e.buf = msgp.AppendFloat64(e.buf, v) }
func (e *Encoder) Float32(v float32) { e.buf = msgp.AppendFloat32(e.buf, v) }
func (e *Encoder) String(v string)   { e.buf = msgp.AppendString(e.buf, v) }
func (e *Encoder) Bytes(v []byte)    { e.buf = msgp.AppendBytes(e.buf, v) }

// Float32s appends a variable length array of float32.
func (e *Encoder) Float32s(v []float32) {
	e.buf = msgp.AppendArrayHeader(e.buf, uint32(len(v)))
	for _, f := range v {
		e.buf = msgp.AppendFloat32(e.buf, f)
	}
}

// Raw appends an already encoded document, such as the output of a
// msgp.Marshaler.
func (e *Encoder) Raw(m msgp.Marshaler) error {
	b, err := m.MarshalMsg(e.buf)
	if err != nil {
		return err
	}
	e.buf = b
	return nil
}

// Out returns the encoded buffer.
func (e *Encoder) Out() []byte {
	return e.buf
}

// Decoder reads values written by an Encoder. The first error sticks: every
// later read returns a zero value and Err reports the original failure.
type Decoder struct {
	buf []byte
	err error
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Array reads a group header and checks it holds exactly n values.
func (d *Decoder) Array(n int) {
	if d.err != nil {
		return
	}
	sz, rest, err := msgp.ReadArrayHeaderBytes(d.buf)
	if err != nil {
		d.fail(err)
		return
	}
	if int(sz) != n {
		d.fail(fmt.Errorf("snapshot: group has %d fields, want %d", sz, n))
		return
	}
	d.buf = rest
}

func (d *Decoder) Uint8() uint8 {
	if d.err != nil {
		return 0
	}
	v, rest, err := msgp.ReadUint8Bytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

func (d *Decoder) Uint16() uint16 {
	if d.err != nil {
		return 0
	}
	v, rest, err := msgp.ReadUint16Bytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

func (d *Decoder) Uint32() uint32 {
	if d.err != nil {
		return 0
	}
	v, rest, err := msgp.ReadUint32Bytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

func (d *Decoder) Uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, rest, err := msgp.ReadUint64Bytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

func (d *Decoder) Int() int {
	if d.err != nil {
		return 0
	}
	v, rest, err := msgp.ReadIntBytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

func (d *Decoder) Int16() int16 {
	if d.err != nil {
		return 0
	}
	v, rest, err := msgp.ReadInt16Bytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

func (d *Decoder) Bool() bool {
	if d.err != nil {
		return false
	}
	v, rest, err := msgp.ReadBoolBytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

func (d *Decoder) Float64() float64 {
	if d.err != nil {
		return 0
	}
	v, rest, err := msgp.ReadFloat64Bytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

func (d *Decoder) Float32() float32 {
	if d.err != nil {
		return 0
	}
	v, rest, err := msgp.ReadFloat32Bytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

// Float32s reads an array written by Encoder.Float32s, appending to dst.
func (d *Decoder) Float32s(dst []float32) []float32 {
	if d.err != nil {
		return dst
	}
	sz, rest, err := msgp.ReadArrayHeaderBytes(d.buf)
	if err != nil {
		d.fail(err)
		return dst
	}
	// a float32 takes five bytes, so a larger count cannot be real
	if int(sz)*5 > len(rest) {
		d.fail(fmt.Errorf("snapshot: %d floats in %d bytes", sz, len(rest)))
		return dst
	}
	d.buf = rest
	for i := uint32(0); i < sz && d.err == nil; i++ {
		dst = append(dst, d.Float32())
	}
	return dst
}

func (d *Decoder) String() string {
	if d.err != nil {
		return ""
	}
	v, rest, err := msgp.ReadStringBytes(d.buf)
	d.buf = rest
	d.fail(err)
	return v
}

// Bytes reads a byte string into a freshly allocated slice.
func (d *Decoder) Bytes() []byte {
	if d.err != nil {
		return nil
	}
	v, rest, err := msgp.ReadBytesBytes(d.buf, nil)
	d.buf = rest
	d.fail(err)
	return v
}

// BytesInto reads a byte string into dst. The stored length must match
// len(dst) exactly.
func (d *Decoder) BytesInto(dst []byte) {
	v := d.Bytes()
	if d.err != nil {
		return
	}
	if len(v) != len(dst) {
		d.fail(fmt.Errorf("snapshot: byte field has length %d, want %d", len(v), len(dst)))
		return
	}
	copy(dst, v)
}

// Raw hands the remaining buffer to a msgp.Unmarshaler and continues after
// whatever it consumed.
func (d *Decoder) Raw(u msgp.Unmarshaler) {
	if d.err != nil {
		return
	}
	rest, err := u.UnmarshalMsg(d.buf)
	if err != nil {
		d.fail(err)
		return
	}
	d.buf = rest
}

// Err returns the first error met while decoding.
func (d *Decoder) Err() error {
	return d.err
}

// Rest returns the bytes not consumed yet.
func (d *Decoder) Rest() []byte {
	return d.buf
}
