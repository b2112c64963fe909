package header

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/common"
)

func buildHeaderBytes(t *testing.T, serverName, clientName, mapName, gameDir string, protocol, netProtocol int32, duration float32, ticks, frames, signOn int32) []byte {
	t.Helper()
	buf := make([]byte, Size)
	copy(buf[0:8], Magic)
	binary.LittleEndian.PutUint32(buf[8:], uint32(protocol))
	binary.LittleEndian.PutUint32(buf[12:], uint32(netProtocol))

	off := 16
	putField := func(s string, n int) {
		copy(buf[off:off+n], s)
		off += n
	}
	putField(serverName, sizeServerName)
	putField(clientName, sizeClientName)
	putField(mapName, sizeMapName)
	putField(gameDir, sizeGameDirectory)

	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(duration))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(ticks))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(frames))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(signOn))

	return buf
}

func TestReadValidHeader(t *testing.T) {
	buf := buildHeaderBytes(t, "srv", "nick", "ctf_2fort", "tf", 24, 2000, 120.5, 3000, 7152, 512)
	r := bitstream.New(buf)

	h, err := Read(r, Config{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if h.ServerName != "srv" {
		t.Errorf("ServerName = %q, want %q", h.ServerName, "srv")
	}
	if h.MapName != "ctf_2fort" {
		t.Errorf("MapName = %q, want %q", h.MapName, "ctf_2fort")
	}
	if h.GameDirectory != "tf" {
		t.Errorf("GameDirectory = %q, want %q", h.GameDirectory, "tf")
	}
	if h.TickCount != 3000 {
		t.Errorf("TickCount = %d, want 3000", h.TickCount)
	}
	if h.SignOnLength != 512 {
		t.Errorf("SignOnLength = %d, want 512", h.SignOnLength)
	}
}

func TestReadBadMagic(t *testing.T) {
	buf := buildHeaderBytes(t, "srv", "nick", "map", "tf", 24, 2000, 1, 1, 1, 1)
	buf[0] = 'X'
	r := bitstream.New(buf)

	_, err := Read(r, Config{})
	if err == nil {
		t.Fatalf("expected error for bad magic")
	}
	var pe *common.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *common.ParseError, got %T", err)
	}
	if pe.Kind != common.KindInvalidDemo {
		t.Errorf("Kind = %v, want KindInvalidDemo", pe.Kind)
	}
}

func TestReadTruncated(t *testing.T) {
	buf := buildHeaderBytes(t, "srv", "nick", "map", "tf", 24, 2000, 1, 1, 1, 1)
	r := bitstream.New(buf[:Size-10])

	if _, err := Read(r, Config{}); err == nil {
		t.Fatalf("expected error for truncated header")
	}
}
