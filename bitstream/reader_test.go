package bitstream

import (
	"errors"
	"testing"

	"github.com/icza/demorec/demo/common"
)

func TestReadBits(t *testing.T) {
	// 0b10110100, 0b00000001 little-endian stream.
	buf := []byte{0xb4, 0x01}
	r := New(buf)

	v, err := r.ReadBits(4)
	if err != nil {
		t.Fatalf("ReadBits(4): %v", err)
	}
	if v != 0x4 {
		t.Fatalf("ReadBits(4) = %#x, want 0x4", v)
	}

	v, err = r.ReadBits(8)
	if err != nil {
		t.Fatalf("ReadBits(8): %v", err)
	}
	if v != 0x1b {
		t.Fatalf("ReadBits(8) = %#x, want 0x1b", v)
	}

	v, err = r.ReadBits(4)
	if err != nil {
		t.Fatalf("ReadBits(4) tail: %v", err)
	}
	if v != 0x0 {
		t.Fatalf("ReadBits(4) tail = %#x, want 0x0", v)
	}

	if !r.AtEnd() {
		t.Fatalf("expected AtEnd after consuming all bits")
	}
}

func TestReadBitsPastEnd(t *testing.T) {
	r := New([]byte{0xff})
	if _, err := r.ReadBits(9); err == nil {
		t.Fatalf("expected error reading past end")
	}
}

func TestReadSignedBits(t *testing.T) {
	tests := []struct {
		bits []byte
		n    int
		want int64
	}{
		{[]byte{0x0f}, 4, -1},
		{[]byte{0x07}, 4, 7},
		{[]byte{0x08}, 4, -8},
	}
	for _, tc := range tests {
		r := New(tc.bits)
		got, err := r.ReadSignedBits(tc.n)
		if err != nil {
			t.Fatalf("ReadSignedBits: %v", err)
		}
		if got != tc.want {
			t.Errorf("ReadSignedBits(%d) over %v = %d, want %d", tc.n, tc.bits, got, tc.want)
		}
	}
}

func TestReadCStringValid(t *testing.T) {
	buf := append([]byte("hello"), 0x00, 0xff)
	r := New(buf)
	s, raw, err := r.ReadCString("test")
	if err != nil {
		t.Fatalf("ReadCString: %v", err)
	}
	if s != "hello" {
		t.Fatalf("ReadCString = %q, want %q", s, "hello")
	}
	if string(raw) != "hello" {
		t.Fatalf("raw bytes = %q, want %q", raw, "hello")
	}
	// Following byte should remain unconsumed.
	b, err := r.ReadByte()
	if err != nil || b != 0xff {
		t.Fatalf("expected 0xff remaining, got %x err %v", b, err)
	}
}

func TestReadCStringInvalidUTF8(t *testing.T) {
	buf := []byte{0xff, 0xfe, 0x00}
	r := New(buf)
	_, raw, err := r.ReadCString("test")
	if err == nil {
		t.Fatalf("expected invalid utf8 error")
	}
	var pe *common.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *common.ParseError, got %T", err)
	}
	if pe.Kind != common.KindInvalidUTF8 {
		t.Fatalf("Kind = %v, want KindInvalidUTF8", pe.Kind)
	}
	if len(raw) != 2 {
		t.Fatalf("expected raw bytes still returned, got %v", raw)
	}
}

func TestReadVarUint32(t *testing.T) {
	tests := []struct {
		buf  []byte
		want uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff},
	}
	for _, tc := range tests {
		r := New(tc.buf)
		got, err := r.ReadVarUint32()
		if err != nil {
			t.Fatalf("ReadVarUint32(%v): %v", tc.buf, err)
		}
		if got != tc.want {
			t.Errorf("ReadVarUint32(%v) = %d, want %d", tc.buf, got, tc.want)
		}
	}
}

func TestReadVarInt32Zigzag(t *testing.T) {
	tests := []struct {
		buf  []byte
		want int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, -1},
		{[]byte{0x02}, 1},
		{[]byte{0x03}, -2},
	}
	for _, tc := range tests {
		r := New(tc.buf)
		got, err := r.ReadVarInt32()
		if err != nil {
			t.Fatalf("ReadVarInt32(%v): %v", tc.buf, err)
		}
		if got != tc.want {
			t.Errorf("ReadVarInt32(%v) = %d, want %d", tc.buf, got, tc.want)
		}
	}
}

func TestFork(t *testing.T) {
	// Parent reads 4 bits, forks 8 bits, then must resume exactly after it.
	buf := []byte{0xab, 0xcd}
	r := New(buf)

	if _, err := r.ReadBits(4); err != nil {
		t.Fatalf("ReadBits(4): %v", err)
	}

	sub, err := r.Fork(8)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}

	// Sub-reader under-consumes (reads only 2 of its 8 bits); parent must
	// still advance by exactly 8 bits regardless.
	if _, err := sub.ReadBits(2); err != nil {
		t.Fatalf("sub ReadBits(2): %v", err)
	}

	rest, err := r.ReadBits(4)
	if err != nil {
		t.Fatalf("ReadBits(4) after fork: %v", err)
	}
	// Bits 12..15 of the stream (0-indexed from LSB of byte 0).
	want := uint64((buf[1] >> 4) & 0x0f)
	if rest != want {
		t.Fatalf("post-fork ReadBits(4) = %#x, want %#x", rest, want)
	}
}

func TestForkPastEnd(t *testing.T) {
	r := New([]byte{0x00})
	if _, err := r.Fork(9); err == nil {
		t.Fatalf("expected error forking past end")
	}
}

func TestSkipBits(t *testing.T) {
	buf := []byte{0xff, 0x00, 0xff}
	r := New(buf)
	if err := r.SkipBits(12); err != nil {
		t.Fatalf("SkipBits: %v", err)
	}
	v, err := r.ReadBits(4)
	if err != nil {
		t.Fatalf("ReadBits after skip: %v", err)
	}
	if v != 0x0 {
		t.Fatalf("ReadBits after skip = %#x, want 0x0", v)
	}
}

func TestReadFloat32(t *testing.T) {
	// 1.0f = 0x3f800000, little-endian bytes.
	buf := []byte{0x00, 0x00, 0x80, 0x3f}
	r := New(buf)
	f, err := r.ReadFloat32()
	if err != nil {
		t.Fatalf("ReadFloat32: %v", err)
	}
	if f != 1.0 {
		t.Fatalf("ReadFloat32 = %v, want 1.0", f)
	}
}

func TestReadCoordZero(t *testing.T) {
	// Both presence bits clear: value is zero, no further bits consumed.
	r := New([]byte{0x00, 0xff})
	v, err := r.ReadCoord()
	if err != nil {
		t.Fatalf("ReadCoord: %v", err)
	}
	if v != 0 {
		t.Fatalf("ReadCoord = %v, want 0", v)
	}
	if r.BitPos() != 2 {
		t.Fatalf("BitPos = %d, want 2", r.BitPos())
	}
}

func TestReadNormalRange(t *testing.T) {
	// Sign bit clear, all 11 fractional bits set: the top of the range,
	// exactly 1.0.
	r := New([]byte{0xfe, 0x0f})
	v, err := r.ReadNormal()
	if err != nil {
		t.Fatalf("ReadNormal: %v", err)
	}
	if v <= 0 || v > 1 {
		t.Fatalf("ReadNormal = %v, want in (0,1]", v)
	}
}

func TestReadBitCoordScaledBounds(t *testing.T) {
	// n=2 bits: raw values 0..3 map linearly onto [10, 13].
	r := New([]byte{0x03}) // raw = 3 (max)
	v, err := r.ReadBitCoordScaled(2, 10, 13, false)
	if err != nil {
		t.Fatalf("ReadBitCoordScaled: %v", err)
	}
	if v != 13 {
		t.Fatalf("ReadBitCoordScaled = %v, want 13", v)
	}
}
