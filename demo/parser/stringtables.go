// This file decodes the initial StringTables packet (the full snapshot
// every table starts from, spec §4.4) and the two tables with dispatcher
// side effects spec.md calls out by name: "instancebaseline" (entry text
// is the decimal server-class id; user-data bytes parse against that
// class's flattened prop table into an Enter-time fallback baseline) and
// "userinfo" (user-data bytes are a fixed-layout record keyed by entity
// id). Neither the snapshot packet's own header fields nor the userinfo
// record layout are pinned by spec.md beyond this description, and
// original_source has no matching file; both follow the publicly
// documented Source-engine string-table/CPlayerInfo wire conventions,
// same basis as DESIGN.md item 7a.

package parser

import (
	"strconv"

	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/entity"
	"github.com/icza/demorec/demo/stringtable"
	"github.com/icza/demorec/rawpacket"
)

const (
	initialTableCountBits = 8

	tableNameInstanceBaseline = "instancebaseline"
	tableNameUserInfo         = "userinfo"
)

// handleInitialStringTables reads the full-snapshot StringTables packet:
// a table count followed by, per table, an entry run decoded the same
// way a later CreateStringTable message would (stringtable.
// ReadCreateStringTable is the single canonical reader for both).
func (p *Parser[O]) handleInitialStringTables(pkt *rawpacket.Packet) error {
	r := bitstream.New(pkt.Data)

	count, err := r.ReadBits(initialTableCountBits)
	if err != nil {
		return err
	}

	for i := uint64(0); i < count; i++ {
		table, indices, warnings, err := stringtable.ReadCreateStringTable(r)
		if err != nil {
			return err
		}
		p.state.addWarnings(warnings)

		p.state.addTable(table)

		if err := p.applyTableSideEffects(table, indices); err != nil {
			return err
		}

		for _, idx := range indices {
			if err := p.handler.HandleStringEntry(table.Name, idx, table.Entries[idx], p.state); err != nil {
				return err
			}
		}
	}

	return nil
}

// applyTableSideEffects updates the special-cased derived state
// "instancebaseline" and "userinfo" string tables feed (spec §4.4), for
// every entry index named by indices. Called after both the initial
// snapshot and any later CreateStringTable/UpdateStringTable record.
func (p *Parser[O]) applyTableSideEffects(table *stringtable.Table, indices []int) error {
	switch table.Name {
	case tableNameInstanceBaseline:
		for _, idx := range indices {
			entry := table.Entries[idx]
			if entry == nil || !entry.HasText || len(entry.Data) == 0 {
				continue
			}
			classID, err := strconv.Atoi(entry.Text)
			if err != nil {
				continue // not a valid class id; leave no baseline for it
			}
			br := bitstream.New(entry.Data)
			snap, derr := entity.DecodeBaseline(br, classID, p.state.FlattenedTables)
			if derr != nil {
				return derr
			}
			p.state.InstanceBaselines[classID] = snap
		}

	case tableNameUserInfo:
		for _, idx := range indices {
			entry := table.Entries[idx]
			if entry == nil || len(entry.Data) == 0 {
				delete(p.state.Users, common.EntityIndex(idx))
				continue
			}
			info, err := stringtable.DecodeUserInfo(entry.Data)
			if err != nil {
				p.state.addWarning(common.ParseWarning{
					Kind:   "malformed-user-info",
					Detail: err.Error(),
				})
				continue
			}
			if !p.cfg.Debug {
				info.RawName = nil
			}
			p.state.Users[common.EntityIndex(idx)] = &info
		}
	}
	return nil
}
