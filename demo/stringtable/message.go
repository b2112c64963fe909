// This file decodes the two in-packet messages that drive the string
// table engine: CreateStringTable (defines a new table, wire-compatible
// with the initial StringTables packet snapshot) and UpdateStringTable
// (a delta against an already-defined table). Both ultimately just feed
// DecodeEntries a forked sub-stream bounded by the message's declared
// bit length, per spec §4.1's "sub-streams are snapshots" rule.
//
// demo/parser.decodeCreateStringTable/decodeUpdateStringTable and
// handleInitialStringTables all call into these two functions, so there
// is exactly one string-table wire reader in the tree.

package stringtable

import (
	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/common"
)

const (
	maxEntriesBits   = 16
	dataLengthBits   = 20
	userDataSizeBits = 12
)

// ReadCreateStringTable reads a full table definition plus its initial
// entries.
func ReadCreateStringTable(r *bitstream.Reader) (*Table, []int, []common.ParseWarning, error) {
	name, _, err := r.ReadCString("stringtable.create.name")
	if err != nil {
		return nil, nil, nil, err
	}

	maxEntriesRaw, err := r.ReadBits(maxEntriesBits)
	if err != nil {
		return nil, nil, nil, err
	}
	maxEntries := int(maxEntriesRaw)

	numEntries, err := r.ReadBits(bitsFor(maxEntries + 1))
	if err != nil {
		return nil, nil, nil, err
	}

	length, err := r.ReadBits(dataLengthBits)
	if err != nil {
		return nil, nil, nil, err
	}

	fixed, err := r.ReadBit()
	if err != nil {
		return nil, nil, nil, err
	}
	var userDataBits int
	if fixed {
		v, err := r.ReadBits(userDataSizeBits)
		if err != nil {
			return nil, nil, nil, err
		}
		userDataBits = int(v)
	}

	clientSideOnly, err := r.ReadBit()
	if err != nil {
		return nil, nil, nil, err
	}

	sub, err := r.Fork(int(length))
	if err != nil {
		return nil, nil, nil, err
	}

	table := New(Descriptor{
		Name:              name,
		MaxEntries:        maxEntries,
		UserDataFixedSize: fixed,
		UserDataBits:      userDataBits,
		ClientSideOnly:    clientSideOnly,
	})

	indices, warnings, err := table.DecodeEntries(sub, int(numEntries))
	if err != nil {
		return nil, nil, nil, err
	}

	return table, indices, warnings, nil
}

// ReadUpdateStringTable decodes a delta against an already-defined table,
// identified by the caller (the table id itself is read by the message
// dispatcher, which knows the full table list; this function only reads
// the entry count, bit length, and entry bitstream that follow it).
func ReadUpdateStringTable(r *bitstream.Reader, table *Table) ([]int, []common.ParseWarning, error) {
	numChanged, err := r.ReadBits(bitsFor(table.MaxEntries + 1))
	if err != nil {
		return nil, nil, err
	}

	length, err := r.ReadBits(dataLengthBits)
	if err != nil {
		return nil, nil, err
	}

	sub, err := r.Fork(int(length))
	if err != nil {
		return nil, nil, err
	}

	indices, warnings, err := table.DecodeEntries(sub, int(numChanged))
	return indices, warnings, err
}
