package entity

import (
	"testing"

	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/datatable"
)

// bw is a tiny hand-rolled bit writer for assembling test fixtures. Unlike
// byte-oriented helpers, everything goes into one continuous bit sequence
// so a header and a forked sub-message can be built back to back without
// an implicit byte-alignment gap between them.
type bw struct{ bits []bool }

func (w *bw) bit(b bool) { w.bits = append(w.bits, b) }
func (w *bw) bitsN(v uint64, n int) {
	for i := 0; i < n; i++ {
		w.bit(v&1 != 0)
		v >>= 1
	}
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

func simpleClassTable() map[int]*datatable.FlattenedPropTable {
	prop := &datatable.SendProp{
		Name:  "m_iHealth",
		Type:  datatable.PropTypeInt,
		Bits:  8,
		Flags: datatable.PropFlagUnsigned,
	}
	return map[int]*datatable.FlattenedPropTable{
		0: {
			ClassID:   0,
			ClassName: "CTFPlayer",
			Props: []*datatable.FlattenedProp{
				{Prop: prop, Identifier: 1},
			},
		},
	}
}

// writeSentinel appends the non-compact field-index-delta encoding for the
// terminator 0xFFF.
func writeSentinel(w *bw) {
	w.bit(false)
	w.bitsN(0x7f, 7)
	w.bitsN(0x7f, 7)
}

func TestDecodePacketEntitiesEnter(t *testing.T) {
	tables := simpleClassTable()

	// Inner entity-data bitstream: one entry, Enter, class 0, serial 1,
	// one field updated: field index 0, terminator sentinel, then the
	// field's value 100.
	inner := &bw{}
	inner.bitsN(0, 6)  // UBitVar small delta = 0 -> entity index 0
	inner.bitsN(2, 2)  // update type Enter
	inner.bitsN(0, 1)  // classBits=1 -> class id 0
	inner.bitsN(1, 10) // serial number
	inner.bit(true)
	inner.bitsN(0, 3) // compact delta = 0 -> field index 0
	writeSentinel(inner)
	inner.bitsN(100, 8)

	// The outer header and inner body share one continuous bitstream: the
	// forked sub-reader starts exactly where the header bits end, with no
	// byte-alignment padding in between (data-length counts inner.bits,
	// not a padded byte count).
	full := &bw{}
	full.bitsN(1, maxEntriesBits) // max entries (advisory)
	full.bit(false)               // is_delta = false
	full.bit(false)               // baseline slot = 0
	full.bitsN(1, updatedCountBits)
	full.bitsN(uint64(len(inner.bits)), dataLengthBits)
	full.bit(false) // update_baseline = false
	full.bits = append(full.bits, inner.bits...)

	r := bitstream.New(full.bytes())
	in := DecodeInput{
		ClassBits:         1,
		FlattenedTables:   tables,
		InstanceBaselines: map[int]*Snapshot{},
		Baselines:         NewBaselines(),
	}

	updates, removed, err := DecodePacketEntities(r, in)
	if err != nil {
		t.Fatalf("DecodePacketEntities: %v", err)
	}
	if len(removed) != 0 {
		t.Fatalf("removed = %v, want none", removed)
	}
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	u := updates[0]
	if u.Type != UpdateTypeEnter {
		t.Fatalf("Type = %v, want Enter", u.Type)
	}
	if u.Index != 0 {
		t.Fatalf("Index = %d, want 0", u.Index)
	}
	v, ok := u.Snapshot.Props[0]
	if !ok {
		t.Fatalf("missing decoded field 0")
	}
	if v.Int != 100 {
		t.Fatalf("Int = %d, want 100", v.Int)
	}
}

func TestReadFieldIndicesSentinelOnly(t *testing.T) {
	w := &bw{}
	writeSentinel(w)
	r := bitstream.New(w.bytes())
	indices, err := readFieldIndices(r)
	if err != nil {
		t.Fatalf("readFieldIndices: %v", err)
	}
	if len(indices) != 0 {
		t.Fatalf("indices = %v, want none", indices)
	}
}

// TestDecodePacketEntitiesIndexDeltasAndLeave decodes two updates in one
// message, an Enter at index 0 and a Leave at index 5 (UBitVar delta 4),
// and checks both the decoded index values and that Index increases
// strictly across updates.
func TestDecodePacketEntitiesIndexDeltasAndLeave(t *testing.T) {
	tables := simpleClassTable()

	inner := &bw{}
	// Entity 0: Enter, class 0, serial 1, field 0 = 100.
	inner.bitsN(0, 6)
	inner.bitsN(2, 2)
	inner.bitsN(0, 1)
	inner.bitsN(1, 10)
	inner.bit(true)
	inner.bitsN(0, 3)
	writeSentinel(inner)
	inner.bitsN(100, 8)
	// Entity 5: UBitVar delta = 4 (last was 0, so 0+1+4=5), Leave.
	inner.bitsN(4, 6)
	inner.bitsN(1, 2) // update type Leave

	full := &bw{}
	full.bitsN(1, maxEntriesBits)
	full.bit(false)
	full.bit(false)
	full.bitsN(2, updatedCountBits)
	full.bitsN(uint64(len(inner.bits)), dataLengthBits)
	full.bit(false)
	full.bits = append(full.bits, inner.bits...)

	r := bitstream.New(full.bytes())
	in := DecodeInput{
		ClassBits:         1,
		FlattenedTables:   tables,
		InstanceBaselines: map[int]*Snapshot{},
		Baselines:         NewBaselines(),
	}

	updates, _, err := DecodePacketEntities(r, in)
	if err != nil {
		t.Fatalf("DecodePacketEntities: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if updates[0].Index != 0 || updates[0].Type != UpdateTypeEnter {
		t.Fatalf("updates[0] = %+v, want Enter at 0", updates[0])
	}
	if updates[1].Index != 5 || updates[1].Type != UpdateTypeLeave {
		t.Fatalf("updates[1] = %+v, want Leave at 5", updates[1])
	}
	if !(updates[0].Index < updates[1].Index) {
		t.Fatalf("entity indices not strictly increasing: %d >= %d", updates[0].Index, updates[1].Index)
	}
}
