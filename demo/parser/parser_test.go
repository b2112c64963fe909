package parser

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/header"
	"github.com/icza/demorec/demo/message"
	"github.com/icza/demorec/rawpacket"
)

// bw is a little-endian bit writer, mirroring the helper every other
// package's wire-level test uses to hand-encode fixtures.
type bw struct{ bits []bool }

func (w *bw) bit(b bool) { w.bits = append(w.bits, b) }

func (w *bw) bitsN(v uint64, n int) {
	for i := 0; i < n; i++ {
		w.bit(v&1 != 0)
		v >>= 1
	}
}

func (w *bw) cstring(s string) {
	for i := 0; i < len(s); i++ {
		w.bitsN(uint64(s[i]), 8)
	}
	w.bitsN(0, 8)
}

func (w *bw) float32(f float32) {
	w.bitsN(uint64(math.Float32bits(f)), 32)
}

func (w *bw) bytes() []byte {
	out := make([]byte, (len(w.bits)+7)/8)
	for i, b := range w.bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func fixedField(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

func le32(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func leFloat32(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

// buildHeader returns the fixed 1072-byte demo prelude for one test demo.
func buildHeader() []byte {
	var out []byte
	out = append(out, []byte(header.Magic)...)
	out = append(out, le32(24)...)  // Protocol
	out = append(out, le32(24)...)  // NetworkProtocol
	out = append(out, fixedField("test-server", 260)...)
	out = append(out, fixedField("test-client", 260)...)
	out = append(out, fixedField("de_test", 260)...)
	out = append(out, fixedField("tf", 260)...)
	out = append(out, leFloat32(2.0)...) // PlaybackSeconds
	out = append(out, le32(128)...)      // TickCount
	out = append(out, le32(128)...)      // FrameCount
	out = append(out, le32(0)...)        // SignOnLength
	return out
}

// buildDataTablesPacket returns one KindDataTables rawpacket: a single
// send table DT_Player with one int prop, and one server class CTFPlayer
// backed by it.
func buildDataTablesPacket(tick uint32) []byte {
	body := &bw{}

	body.bit(true) // more tables follow
	body.bit(true) // needsDecode
	body.cstring("DT_Player")
	body.bitsN(1, 10) // numProps

	body.bitsN(0, 3) // PropTypeInt
	body.cstring("m_health")
	body.bitsN(0, 19) // flags
	body.float32(0)   // low
	body.float32(100) // high
	body.bitsN(8, 7)  // bits

	body.bit(false) // no more tables

	body.bitsN(1, 16) // numClasses
	body.cstring("CTFPlayer")
	body.cstring("DT_Player")

	data := body.bytes()

	var pkt []byte
	pkt = append(pkt, rawpacket.KindDataTables.ID)
	pkt = append(pkt, le32(int32(tick))...)
	pkt = append(pkt, le32(int32(len(data)))...)
	pkt = append(pkt, data...)
	return pkt
}

// buildStringTablesPacket returns one KindStringTables rawpacket: a
// single variable-user-data table "customtable" with one entry.
func buildStringTablesPacket(tick uint32) []byte {
	entry := &bw{}
	entry.bit(true) // sequential index
	entry.bit(true) // has text
	entry.bit(false) // no history reuse
	entry.cstring("entry0")
	entry.bit(false) // no user data
	entryBits := len(entry.bits)

	const maxEntries = 4 // bitsFor(maxEntries+1) == 3

	body := &bw{}
	body.bitsN(1, initialTableCountBits) // one table

	body.cstring("customtable")
	body.bitsN(maxEntries, 16)                  // maxEntries
	body.bitsN(1, bitsFor(maxEntries+1))        // numEntries
	body.bitsN(uint64(entryBits), 20)           // dataLength
	body.bit(false)                             // not fixed-size user data
	body.bit(false)                             // not client-side only
	body.bits = append(body.bits, entry.bits...)

	data := body.bytes()

	var pkt []byte
	pkt = append(pkt, rawpacket.KindStringTables.ID)
	pkt = append(pkt, le32(int32(tick))...)
	pkt = append(pkt, le32(int32(len(data)))...)
	pkt = append(pkt, data...)
	return pkt
}

// buildMessagePacket returns one KindMessage rawpacket bundling a
// ServerInfo record followed by a NetTick record.
func buildMessagePacket(tick uint32) []byte {
	bundle := &bw{}

	bundle.bitsN(uint64(message.TypeServerInfo.ID), 6)
	bundle.bitsN(24, 32) // Protocol
	bundle.bitsN(1, 32)  // ServerCount
	bundle.bit(false)    // IsDedicated
	bundle.bit(false)    // IsHLTV
	bundle.bitsN(32, 16) // MaxClients
	bundle.bitsN(0, 16)  // PlayerSlot
	bundle.float32(0.015)
	bundle.cstring("tf")
	bundle.cstring("de_test")
	bundle.cstring("test-server")

	bundle.bitsN(uint64(message.TypeNetTick.ID), 6)
	bundle.bitsN(uint64(tick), 32)
	bundle.bitsN(0, 16)
	bundle.bitsN(0, 16)

	msgData := bundle.bytes()

	info := &bw{}
	info.bitsN(0, 32) // Flags
	for i := 0; i < 9; i++ {
		info.float32(0) // ViewOrigin/ViewAngles/LocalViewAngles
	}
	info.bitsN(0, 32) // InSequence
	info.bitsN(0, 32) // OutSequence
	infoBytes := info.bytes()

	var pkt []byte
	pkt = append(pkt, rawpacket.KindMessage.ID)
	pkt = append(pkt, le32(int32(tick))...)
	pkt = append(pkt, infoBytes...)
	pkt = append(pkt, le32(int32(len(msgData)))...)
	pkt = append(pkt, msgData...)
	return pkt
}

func buildStopPacket(tick uint32) []byte {
	var pkt []byte
	pkt = append(pkt, rawpacket.KindStop.ID)
	pkt = append(pkt, le32(int32(tick))...)
	return pkt
}

func buildDemo() []byte {
	var out []byte
	out = append(out, buildHeader()...)
	out = append(out, buildDataTablesPacket(0)...)
	out = append(out, buildStringTablesPacket(0)...)
	out = append(out, buildMessagePacket(1)...)
	out = append(out, buildStopPacket(1)...)
	return out
}

func TestParseDefaultHandler(t *testing.T) {
	demo := buildDemo()
	hdr, _, err := Parse[struct{}](bitstream.New(demo), DefaultHandler{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if hdr.MapName != "de_test" {
		t.Fatalf("MapName = %q, want de_test", hdr.MapName)
	}
	if hdr.ServerName != "test-server" {
		t.Fatalf("ServerName = %q, want test-server", hdr.ServerName)
	}
}

func TestParseCompilesDataTables(t *testing.T) {
	demo := buildDemo()
	p := New[struct{}](bitstream.New(demo), DefaultHandler{})
	if _, _, err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ft, ok := p.state.FlattenedTables[0]
	if !ok {
		t.Fatalf("class 0 not compiled")
	}
	if ft.ClassName != "CTFPlayer" {
		t.Fatalf("ClassName = %q, want CTFPlayer", ft.ClassName)
	}
	if len(ft.Props) != 1 || ft.Props[0].Prop.Name != "m_health" {
		t.Fatalf("Props = %+v, want one m_health prop", ft.Props)
	}
}

func TestParseStringTableSnapshot(t *testing.T) {
	demo := buildDemo()
	p := New[struct{}](bitstream.New(demo), DefaultHandler{})
	if _, _, err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	table, ok := p.state.StringTables["customtable"]
	if !ok {
		t.Fatalf("customtable not captured")
	}
	entry, ok := table.Entries[0]
	if !ok || entry.Text != "entry0" {
		t.Fatalf("entry 0 = %+v, want text entry0", entry)
	}
}

func TestParseAllMessageHandler(t *testing.T) {
	demo := buildDemo()
	_, counts, err := Parse[map[int]int](bitstream.New(demo), NewAllMessageHandler())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if counts[message.TypeServerInfo.ID] != 1 {
		t.Fatalf("ServerInfo count = %d, want 1", counts[message.TypeServerInfo.ID])
	}
	if counts[message.TypeNetTick.ID] != 1 {
		t.Fatalf("NetTick count = %d, want 1", counts[message.TypeNetTick.ID])
	}
}

func TestParseCombineHandler(t *testing.T) {
	demo := buildDemo()
	combined := NewCombine[struct{}, map[int]int](DefaultHandler{}, NewAllMessageHandler())
	_, out, err := Parse[Pair[struct{}, map[int]int]](bitstream.New(demo), combined)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.Second[message.TypeNetTick.ID] != 1 {
		t.Fatalf("combined NetTick count = %d, want 1", out.Second[message.TypeNetTick.ID])
	}
}
