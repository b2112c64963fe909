package gameevent

import (
	"testing"

	"github.com/icza/demorec/bitstream"
)

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
func (w *bw) bytes() []byte {
	out := make([]byte, (len(w.bits)+7)/8)
	for i, b := range w.bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func buildDescriptorList() List {
	return List{
		3: &Descriptor{
			ID:   3,
			Name: "player_death",
			Fields: []FieldDescriptor{
				{Name: "userid", Type: FieldTypeShort},
				{Name: "weapon", Type: FieldTypeString},
			},
		},
	}
}

func TestDecodeEvent(t *testing.T) {
	list := buildDescriptorList()

	w := &bw{}
	w.bitsN(3, eventIDBits)
	w.bitsN(42, 16)
	w.cstring("tf_rocketlauncher")

	r := bitstream.New(w.bytes())
	ev, err := Decode(r, list)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Name != "player_death" {
		t.Fatalf("Name = %q", ev.Name)
	}
	if len(ev.Fields) != 2 {
		t.Fatalf("len(Fields) = %d", len(ev.Fields))
	}
	if ev.Fields[0].Int != 42 {
		t.Fatalf("userid field = %d, want 42", ev.Fields[0].Int)
	}
	if ev.Fields[1].Str != "tf_rocketlauncher" {
		t.Fatalf("weapon field = %q", ev.Fields[1].Str)
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	w := &bw{}
	w.bitsN(9, eventIDBits)
	r := bitstream.New(w.bytes())

	_, err := Decode(r, buildDescriptorList())
	if err == nil {
		t.Fatalf("expected error for unknown event id")
	}
}

func TestDescriptorFieldIndex(t *testing.T) {
	d := buildDescriptorList()[3]
	idx, ok := d.FieldIndex("weapon")
	if !ok || idx != 1 {
		t.Fatalf("FieldIndex(weapon) = (%d, %v), want (1, true)", idx, ok)
	}
	if _, ok := d.FieldIndex("nope"); ok {
		t.Fatalf("FieldIndex(nope) should miss")
	}
}
