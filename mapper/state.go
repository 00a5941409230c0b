package mapper

import "nes-core/snapshot"

// appendFields writes a mapper's bank registers as one msgpack array.
func appendFields(b []byte, fields ...uint8) []byte {
	e := snapshot.NewEncoder(b)
	e.Array(len(fields))
	for _, f := range fields {
		e.Uint8(f)
	}
	return e.Out()
}

// readFields reads back an array written by appendFields.
func readFields(b []byte, dst ...*uint8) *snapshot.Decoder {
	d := snapshot.NewDecoder(b)
	d.Array(len(dst))
	for _, p := range dst {
		v := d.Uint8()
		if d.Err() == nil {
			*p = v
		}
	}
	return d
}
