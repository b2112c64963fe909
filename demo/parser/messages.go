// This file defines the message.Message wrappers for record types whose
// decode needs live ParserState (PacketEntities against the compiled
// schema and baselines; GameEvent/GameEventList against the descriptor
// table; UserMessage against its sub-registry) and so cannot be pure
// DecodeFunc entries in demo/message.Registry (see DESIGN.md item 9).

package parser

import (
	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/entity"
	"github.com/icza/demorec/demo/gameevent"
	"github.com/icza/demorec/demo/message"
	"github.com/icza/demorec/demo/stringtable"
	"github.com/icza/demorec/demo/usermessage"
)

// PacketEntitiesMessage wraps one decoded PacketEntities record.
type PacketEntitiesMessage struct {
	Updates []entity.Update
	Removed []common.EntityIndex
}

func (PacketEntitiesMessage) MessageType() message.Type { return message.TypePacketEntities }

// GameEventMessage wraps one decoded GameEvent record.
type GameEventMessage struct {
	Event *gameevent.Event
}

func (GameEventMessage) MessageType() message.Type { return message.TypeGameEvent }

// GameEventListMessage wraps a captured GameEventList descriptor table.
type GameEventListMessage struct {
	List gameevent.List
}

func (GameEventListMessage) MessageType() message.Type { return message.TypeGameEventList }

// UserMessageMessage wraps one decoded UserMessage sub-message.
type UserMessageMessage struct {
	Inner usermessage.Message
}

func (UserMessageMessage) MessageType() message.Type { return message.TypeUserMessage }

// CreateStringTableMessage wraps one CreateStringTable record. The table
// itself is already installed into ParserState by the time handlers see
// this; the message exists so handlers that merely want to observe the
// event (vs. reading ParserState.StringTables directly) can opt in.
type CreateStringTableMessage struct {
	Table *stringtable.Table
}

func (CreateStringTableMessage) MessageType() message.Type { return message.TypeCreateStringTable }

// UpdateStringTableMessage wraps one UpdateStringTable record.
type UpdateStringTableMessage struct {
	Table   *stringtable.Table
	Changed []int
}

func (UpdateStringTableMessage) MessageType() message.Type { return message.TypeUpdateStringTable }
