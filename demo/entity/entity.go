/*

Package entity implements the entity-delta engine (spec §4.5): decoding
PacketEntities messages against a compiled FlattenedPropTable schema and a
two-slot baseline ring, producing per-entity snapshots classified by
update type. This subsystem has no Brood War analog (a replay has no
networked entity simulation); its algorithm is built directly from
spec.md, grounded on the publicly documented Source-engine variable-width
delta encodings in fieldpath.go.

*/
package entity

import (
	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/datatable"
)

// UpdateType classifies a decoded PacketEntities record.
type UpdateType struct {
	common.Enum
	ID int
}

// Update types, per spec §4.5 step 2.
var (
	UpdateTypePreserve = UpdateType{common.Enum{"Preserve"}, 0}
	UpdateTypeLeave     = UpdateType{common.Enum{"Leave"}, 1}
	UpdateTypeEnter     = UpdateType{common.Enum{"Enter"}, 2}
	UpdateTypeDelete    = UpdateType{common.Enum{"Delete"}, 3}
)

// Snapshot is one entity's decoded property set at a point in time.
type Snapshot struct {
	Index   common.EntityIndex
	ClassID int
	Serial  uint32

	// Props is keyed by the entity's flattened prop-table index.
	Props map[int]PropValue
}

// Clone returns a snapshot with an independent Props map, used when a
// baseline must be captured without aliasing future in-place edits.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	props := make(map[int]PropValue, len(s.Props))
	for k, v := range s.Props {
		props[k] = v
	}
	return &Snapshot{Index: s.Index, ClassID: s.ClassID, Serial: s.Serial, Props: props}
}

// Update is one decoded entity record from a PacketEntities message.
type Update struct {
	Index common.EntityIndex
	Type  UpdateType

	// Snapshot is populated for Preserve and Enter; nil for Leave/Delete.
	Snapshot *Snapshot
}

// Baselines is the two-slot packet-baseline ring (Design Note §9: "expose
// as an array of two owned snapshots with a 1-bit selector").
type Baselines struct {
	slots [2]map[common.EntityIndex]*Snapshot
}

// NewBaselines creates an empty two-slot baseline ring.
func NewBaselines() *Baselines {
	return &Baselines{slots: [2]map[common.EntityIndex]*Snapshot{
		make(map[common.EntityIndex]*Snapshot),
		make(map[common.EntityIndex]*Snapshot),
	}}
}

func (b *Baselines) get(slot int, idx common.EntityIndex) *Snapshot {
	return b.slots[slot][idx]
}

func (b *Baselines) set(slot int, idx common.EntityIndex, snap *Snapshot) {
	b.slots[slot][idx] = snap
}

const (
	maxEntriesBits  = 11
	updatedCountBits = 16
	dataLengthBits   = 20
)

// DecodeInput bundles the schema context DecodePacketEntities needs,
// everything ParserState already owns by the time a PacketEntities
// message can legally appear (spec §5 ordering guarantees).
type DecodeInput struct {
	// ClassBits is ceil(log2(serverClassCount)), the width of the
	// server-class id read on Enter.
	ClassBits int

	// FlattenedTables maps server-class id to its compiled decode order.
	FlattenedTables map[int]*datatable.FlattenedPropTable

	// InstanceBaselines maps server-class id to the static baseline
	// snapshot from the "instancebaseline" string table, used on Enter
	// when update-baseline is not set.
	InstanceBaselines map[int]*Snapshot

	Baselines *Baselines
}

// DecodePacketEntities decodes one PacketEntities message body (spec
// §4.5). r must be positioned at the start of the message (after any
// type tag the caller's dispatcher already consumed).
func DecodePacketEntities(r *bitstream.Reader, in DecodeInput) ([]Update, []common.EntityIndex, error) {
	if _, err := r.ReadBits(maxEntriesBits); err != nil { // max-entries, advisory only
		return nil, nil, err
	}

	isDelta, err := r.ReadBit()
	if err != nil {
		return nil, nil, err
	}
	if isDelta {
		if _, err := r.ReadBits(32); err != nil { // delta_from tick, unused
			return nil, nil, err
		}
	}

	baselineSlot, err := r.ReadBit()
	if err != nil {
		return nil, nil, err
	}
	readSlot := 0
	if baselineSlot {
		readSlot = 1
	}

	updatedCount, err := r.ReadBits(updatedCountBits)
	if err != nil {
		return nil, nil, err
	}

	length, err := r.ReadBits(dataLengthBits)
	if err != nil {
		return nil, nil, err
	}

	updateBaseline, err := r.ReadBit()
	if err != nil {
		return nil, nil, err
	}

	body, err := r.Fork(int(length))
	if err != nil {
		return nil, nil, err
	}

	writeSlot := 1 - readSlot

	updates := make([]Update, 0, updatedCount)
	lastIndex := -1
	for i := uint64(0); i < updatedCount; i++ {
		delta, err := readUBitVar(body)
		if err != nil {
			return nil, nil, err
		}
		lastIndex = lastIndex + 1 + int(delta)
		idx := common.EntityIndex(lastIndex)

		kind, err := body.ReadBits(2)
		if err != nil {
			return nil, nil, err
		}

		switch kind {
		case uint64(UpdateTypeDelete.ID):
			updates = append(updates, Update{Index: idx, Type: UpdateTypeDelete})

		case uint64(UpdateTypeLeave.ID):
			updates = append(updates, Update{Index: idx, Type: UpdateTypeLeave})

		case uint64(UpdateTypeEnter.ID):
			classID, err := body.ReadBits(in.ClassBits)
			if err != nil {
				return nil, nil, err
			}
			if _, err := body.ReadBits(10); err != nil { // serial number
				return nil, nil, err
			}

			base := in.InstanceBaselines[int(classID)]
			if updateBaseline {
				if fromBase := in.Baselines.get(readSlot, idx); fromBase != nil {
					base = fromBase
				}
			}

			snap, err := decodeEntityFields(body, idx, int(classID), base, in.FlattenedTables)
			if err != nil {
				return nil, nil, err
			}
			updates = append(updates, Update{Index: idx, Type: UpdateTypeEnter, Snapshot: snap})
			if updateBaseline {
				in.Baselines.set(writeSlot, idx, snap.Clone())
			}

		case uint64(UpdateTypePreserve.ID):
			base := in.Baselines.get(readSlot, idx)
			classID := 0
			if base != nil {
				classID = base.ClassID
			}
			snap, err := decodeEntityFields(body, idx, classID, base, in.FlattenedTables)
			if err != nil {
				return nil, nil, err
			}
			updates = append(updates, Update{Index: idx, Type: UpdateTypePreserve, Snapshot: snap})
			if updateBaseline {
				in.Baselines.set(writeSlot, idx, snap.Clone())
			}
		}
	}

	var removed []common.EntityIndex
	if isDelta {
		count, err := r.ReadBits(updatedCountBits)
		if err != nil {
			return nil, nil, err
		}
		removed = make([]common.EntityIndex, 0, count)
		for i := uint64(0); i < count; i++ {
			v, err := r.ReadBits(maxEntriesBits)
			if err != nil {
				return nil, nil, err
			}
			removed = append(removed, common.EntityIndex(v))
		}
	}

	return updates, removed, nil
}

// DecodeBaseline decodes a static "instancebaseline" string-table entry's
// user-data bytes against classID's compiled prop table (spec.md line
// 109: "the user-data bytes are parsed against that class's flattened
// prop table to produce a baseline snapshot used by Enter"). The result
// has no meaningful Index; callers key it by class id, not entity id.
func DecodeBaseline(r *bitstream.Reader, classID int, tables map[int]*datatable.FlattenedPropTable) (*Snapshot, error) {
	return decodeEntityFields(r, 0, classID, nil, tables)
}

func decodeEntityFields(r *bitstream.Reader, idx common.EntityIndex, classID int, base *Snapshot, tables map[int]*datatable.FlattenedPropTable) (*Snapshot, error) {
	table, ok := tables[classID]
	if !ok {
		return nil, common.NewParseError(common.KindUnknownServerClass, "entity", "server class not found", nil)
	}

	snap := &Snapshot{Index: idx, ClassID: classID, Props: make(map[int]PropValue, len(table.Props))}
	if base != nil {
		for k, v := range base.Props {
			snap.Props[k] = v
		}
		snap.Serial = base.Serial
	}

	indices, err := readFieldIndices(r)
	if err != nil {
		return nil, err
	}

	for _, fi := range indices {
		if fi < 0 || fi >= len(table.Props) {
			return nil, common.NewParseError(common.KindInvalidDemo, "entity", "field index out of range", nil)
		}
		prop := table.Props[fi].Prop
		v, err := decodeProp(r, prop)
		if err != nil {
			return nil, err
		}
		snap.Props[fi] = v
	}

	return snap, nil
}
