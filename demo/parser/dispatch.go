// This file decomposes one Message/SignOn packet's payload into its
// individual in-message records (spec §4.6) and dispatches each to the
// handler. Self-contained record types are decoded via demo/message's
// registry; CreateStringTable, UpdateStringTable, GameEvent,
// GameEventList, UserMessage and PacketEntities need live ParserState
// (an existing table to update, the descriptor/registration tables, or
// the compiled schema/baselines) and so are special-cased here instead,
// per DESIGN.md item 9.

package parser

import (
	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/entity"
	"github.com/icza/demorec/demo/gameevent"
	"github.com/icza/demorec/demo/message"
	"github.com/icza/demorec/demo/stringtable"
	"github.com/icza/demorec/demo/usermessage"
)

const stringTableIndexBits = 5 // MAX_TABLES = 32, well-known engine constant.

// minTagBits is message.ReadTag's minimum consumption (its 6-bit base);
// fewer bits than this left in the bundle means only trailing pad bits
// remain, not another record.
const minTagBits = 6

// handleMessageBundle decodes every in-message record carried by one
// SignOn/Message packet's payload, in on-the-wire order (spec §5
// "within one Message packet, in-message records are delivered to
// handlers in on-the-wire order").
func (p *Parser[O]) handleMessageBundle(data []byte) error {
	r := bitstream.New(data)

	for r.BitsLeft() >= minTagBits {
		tag, err := message.ReadTag(r)
		if err != nil {
			return err
		}

		msg, err := p.decodeRecord(tag, r)
		if err != nil {
			return err
		}
		if msg == nil {
			continue // fully consumed, nothing a handler could want (padding tag)
		}

		if p.handler.DoesHandle(msg.MessageType()) {
			if err := p.handler.HandleMessage(msg, p.state.Tick, p.state); err != nil {
				return err
			}
		}
	}

	return nil
}

// decodeRecord reads one record's body (tag already consumed) and
// returns its decoded form. A nil, nil result means the record was
// fully handled with no Message to offer a handler (none currently do
// this, but special-cased records that might in the future can return
// it safely).
func (p *Parser[O]) decodeRecord(tag int, r *bitstream.Reader) (message.Message, error) {
	switch tag {
	case message.TypeCreateStringTable.ID:
		return p.decodeCreateStringTable(r)

	case message.TypeUpdateStringTable.ID:
		return p.decodeUpdateStringTable(r)

	case message.TypeGameEventList.ID:
		list, err := gameevent.DecodeList(r)
		if err != nil {
			return nil, err
		}
		p.state.GameEvents = list
		return GameEventListMessage{List: list}, nil

	case message.TypeGameEvent.ID:
		ev, err := gameevent.Decode(r, p.state.GameEvents)
		if err != nil {
			return nil, err
		}
		return GameEventMessage{Event: ev}, nil

	case message.TypeUserMessage.ID:
		inner, err := usermessage.Decode(r, p.state.UserMessages)
		if err != nil {
			return nil, err
		}
		return UserMessageMessage{Inner: inner}, nil

	case message.TypePacketEntities.ID:
		classBits := bitsFor(len(p.state.ServerClasses))
		updates, removed, err := entity.DecodePacketEntities(r, entity.DecodeInput{
			ClassBits:         classBits,
			FlattenedTables:   p.state.FlattenedTables,
			InstanceBaselines: p.state.InstanceBaselines,
			Baselines:         p.state.Baselines,
		})
		if err != nil {
			return nil, err
		}
		p.state.metrics.AddEntities(len(updates) + len(removed))
		return PacketEntitiesMessage{Updates: updates, Removed: removed}, nil

	default:
		fn, ok := p.registry.Lookup(tag)
		if !ok {
			return nil, common.NewParseError(common.KindInvalidDemo, "message", "unknown in-message record type", nil)
		}
		return fn(r)
	}
}

func (p *Parser[O]) decodeCreateStringTable(r *bitstream.Reader) (message.Message, error) {
	table, indices, warnings, err := stringtable.ReadCreateStringTable(r)
	if err != nil {
		return nil, err
	}
	p.state.addWarnings(warnings)

	p.state.addTable(table)
	if err := p.applyTableSideEffects(table, indices); err != nil {
		return nil, err
	}
	for _, idx := range indices {
		if err := p.handler.HandleStringEntry(table.Name, idx, table.Entries[idx], p.state); err != nil {
			return nil, err
		}
	}

	return CreateStringTableMessage{Table: table}, nil
}

func (p *Parser[O]) decodeUpdateStringTable(r *bitstream.Reader) (message.Message, error) {
	tableIdx, err := r.ReadBits(stringTableIndexBits)
	if err != nil {
		return nil, err
	}
	table, ok := p.state.tableByIndex(int(tableIdx))
	if !ok {
		return nil, common.NewParseError(common.KindInvalidDemo, "message.UpdateStringTable", "unknown table index", nil)
	}

	indices, warnings, err := stringtable.ReadUpdateStringTable(r, table)
	if err != nil {
		return nil, err
	}
	p.state.addWarnings(warnings)

	if err := p.applyTableSideEffects(table, indices); err != nil {
		return nil, err
	}
	for _, idx := range indices {
		if err := p.handler.HandleStringEntry(table.Name, idx, table.Entries[idx], p.state); err != nil {
			return nil, err
		}
	}

	return UpdateStringTableMessage{Table: table, Changed: indices}, nil
}

// bitsFor returns ceil(log2(n)) for n >= 1, the bit-width needed to
// encode a server-class id (spec §3 "the count determines the bit-width
// used to encode class ids in entity records").
func bitsFor(n int) int {
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	return bits
}
