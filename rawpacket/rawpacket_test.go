package rawpacket

import (
	"encoding/binary"
	"testing"

	"github.com/icza/demorec/bitstream"
)

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func TestNextSyncTick(t *testing.T) {
	buf := []byte{KindSyncTick.ID}
	buf = appendUint32(buf, 42)

	r := bitstream.New(buf)
	p, err := Next(r)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Kind != KindSyncTick {
		t.Fatalf("Kind = %v, want SyncTick", p.Kind)
	}
	if p.Tick != 42 {
		t.Fatalf("Tick = %d, want 42", p.Tick)
	}
	if !r.AtEnd() {
		t.Fatalf("expected stream fully consumed")
	}
}

func TestNextConsoleCmd(t *testing.T) {
	payload := []byte("say hello")
	buf := []byte{KindConsoleCmd.ID}
	buf = appendUint32(buf, 7)
	buf = appendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)

	r := bitstream.New(buf)
	p, err := Next(r)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(p.Data) != "say hello" {
		t.Fatalf("Data = %q, want %q", p.Data, "say hello")
	}
}

func TestNextUnknownDiscriminator(t *testing.T) {
	buf := []byte{0xff}
	buf = appendUint32(buf, 0)
	r := bitstream.New(buf)
	if _, err := Next(r); err == nil {
		t.Fatalf("expected error for unknown discriminator")
	}
}

func TestNextMessageWithCommandInfo(t *testing.T) {
	buf := []byte{KindMessage.ID}
	buf = appendUint32(buf, 100)  // tick
	buf = appendUint32(buf, 0)    // flags
	for i := 0; i < 9; i++ {      // 3 vectors * 3 floats
		buf = appendUint32(buf, 0)
	}
	buf = appendUint32(buf, 1) // in sequence
	buf = appendUint32(buf, 2) // out sequence
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	buf = appendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)

	r := bitstream.New(buf)
	p, err := Next(r)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Info.InSequence != 1 || p.Info.OutSequence != 2 {
		t.Fatalf("Info sequences = %d,%d, want 1,2", p.Info.InSequence, p.Info.OutSequence)
	}
	if len(p.Data) != 4 {
		t.Fatalf("Data length = %d, want 4", len(p.Data))
	}
}
