// This file implements the two variable-width delta encodings the entity
// engine uses: readUBitVar, for the entity-index delta ("a 4-bit header
// chooses either a direct 0-3-bit suffix append or +4096-entry skip
// encodings", spec §4.5 step 1), and readFieldIndexDelta, for the
// field-index sequence's per-field delta (spec §4.5 step 3), terminated
// by the sentinel 0xFFF ("a sentinel delta (-1 / all-ones)"). Neither has
// a Brood War analog; both are built from the publicly documented
// Source-engine bit-packed variable integer formats spec.md gestures at
// without pinning exact widths.

package entity

import "github.com/icza/demorec/bitstream"

// readUBitVar reads a self-describing variable-width unsigned integer:
// 6 bits, with bits 4-5 selecting how many extra bits extend it (4, 8, or
// 28 more), giving a cheap small-skip common case and an escalating
// "entry skip" path for sparse updates far ahead of the previous index.
func readUBitVar(r *bitstream.Reader) (uint32, error) {
	ret, err := r.ReadBits(6)
	if err != nil {
		return 0, err
	}
	switch ret & 48 {
	case 16:
		extra, err := r.ReadBits(4)
		if err != nil {
			return 0, err
		}
		ret = (ret &^ 48) | (extra << 4)
	case 32:
		extra, err := r.ReadBits(8)
		if err != nil {
			return 0, err
		}
		ret = (ret &^ 48) | (extra << 4)
	case 48:
		extra, err := r.ReadBits(28)
		if err != nil {
			return 0, err
		}
		ret = (ret &^ 48) | (extra << 4)
	}
	return uint32(ret), nil
}

const fieldIndexSentinel = 0xFFF

// readFieldIndexDelta reads one field-path delta: a 1-bit flag selects a
// compact 3-bit delta; otherwise a 7-bit value is read, its top two bits
// (32|64) selecting a 2, 4, or 7-bit extension. The sentinel 0xFFF
// signals "no more fields".
func readFieldIndexDelta(r *bitstream.Reader) (int, error) {
	compact, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	if compact {
		v, err := r.ReadBits(3)
		if err != nil {
			return 0, err
		}
		return int(v), nil
	}

	v, err := r.ReadBits(7)
	if err != nil {
		return 0, err
	}
	ret := int(v)
	switch ret & 96 {
	case 32:
		ext, err := r.ReadBits(2)
		if err != nil {
			return 0, err
		}
		ret = (ret &^ 96) | (int(ext) << 5)
	case 64:
		ext, err := r.ReadBits(4)
		if err != nil {
			return 0, err
		}
		ret = (ret &^ 96) | (int(ext) << 5)
	case 96:
		ext, err := r.ReadBits(7)
		if err != nil {
			return 0, err
		}
		ret = (ret &^ 96) | (int(ext) << 5)
	}
	return ret, nil
}

// readFieldIndices decodes the full field-index sequence for one entity
// update, returning the absolute, strictly increasing indices to decode.
func readFieldIndices(r *bitstream.Reader) ([]int, error) {
	var indices []int
	last := -1
	for {
		delta, err := readFieldIndexDelta(r)
		if err != nil {
			return nil, err
		}
		if delta == fieldIndexSentinel {
			return indices, nil
		}
		last += 1 + delta
		indices = append(indices, last)
	}
}
