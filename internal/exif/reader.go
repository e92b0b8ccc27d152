package exif

import (
	"encoding/binary"
	"errors"
)

// errMalformed marks any structurally invalid metadata: out-of-range reads,
// unexpected identifiers, or byte orders we do not recognize. It never
// escapes the package.
var errMalformed = errors.New("malformed exif data")

// reader provides bounds-checked multi-byte reads over a TIFF segment in the
// byte order fixed by the segment header.
type reader struct {
	buf   []byte
	order binary.ByteOrder
}

func (r reader) u16(off int) (uint16, error) {
	if off < 0 || off+2 > len(r.buf) {
		return 0, errMalformed
	}
	return r.order.Uint16(r.buf[off:]), nil
}

func (r reader) u32(off int) (uint32, error) {
	if off < 0 || off+4 > len(r.buf) {
		return 0, errMalformed
	}
	return r.order.Uint32(r.buf[off:]), nil
}

func (r reader) bytes(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(r.buf) {
		return nil, errMalformed
	}
	return r.buf[off : off+n], nil
}

// rational reads an unsigned rational (u32 numerator, u32 denominator) at
// off. A zero denominator evaluates to 0 rather than an error; cameras in
// the field produce them.
func (r reader) rational(off int) (float64, error) {
	num, err := r.u32(off)
	if err != nil {
		return 0, err
	}
	den, err := r.u32(off + 4)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, nil
	}
	return float64(num) / float64(den), nil
}
