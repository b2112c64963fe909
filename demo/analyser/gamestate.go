package analyser

import (
	"strings"

	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/datatable"
	"github.com/icza/demorec/demo/message"
	"github.com/icza/demorec/demo/parser"
	"github.com/icza/demorec/demo/stringtable"
	"github.com/icza/demorec/rawpacket"
)

// GameStateOutput is the control-point ownership GameState tracked.
type GameStateOutput struct {
	// ControlPoints maps each recognized control-point entity to the last
	// team id ("m_iTeamNum") observed for it.
	ControlPoints map[common.EntityIndex]int64
}

// GameState is a reference Handler that tracks control-point ownership
// from entity updates. It decodes nothing unless ParseControlPoints is
// set, so callers that don't need it pay no extra decode cost; team
// ownership is read from whichever prop is literally named "m_iTeamNum"
// on a server class whose name contains "ControlPoint" — anything else
// about the entity is ignored, per spec §1's "deliberately shallow"
// reference-analyzer scope.
type GameState struct {
	ParseControlPoints bool

	owners map[common.EntityIndex]int64
}

// NewGameState builds a GameState analyzer. parseControlPoints gates
// whether PacketEntities records are inspected at all.
func NewGameState(parseControlPoints bool) *GameState {
	return &GameState{ParseControlPoints: parseControlPoints, owners: make(map[common.EntityIndex]int64)}
}

func (h *GameState) DoesHandle(t message.Type) bool {
	return h.ParseControlPoints && t == message.TypePacketEntities
}

func (h *GameState) HandleMessage(msg message.Message, _ common.Tick, state *parser.ParserState) error {
	if !h.ParseControlPoints {
		return nil
	}
	pe, ok := msg.(parser.PacketEntitiesMessage)
	if !ok {
		return nil
	}

	for _, u := range pe.Updates {
		if u.Snapshot == nil {
			continue
		}
		table, ok := state.FlattenedTables[u.Snapshot.ClassID]
		if !ok || !strings.Contains(table.ClassName, "ControlPoint") {
			continue
		}
		for i, fp := range table.Props {
			if fp.Prop.Name != "m_iTeamNum" {
				continue
			}
			if v, ok := u.Snapshot.Props[i]; ok {
				h.owners[u.Index] = v.Int
			}
		}
	}

	return nil
}

func (h *GameState) HandleStringEntry(string, int, *stringtable.Entry, *parser.ParserState) error {
	return nil
}

func (h *GameState) HandleDataTables([]*datatable.FlattenedPropTable, []datatable.ServerClassInfo, *parser.ParserState) error {
	return nil
}

func (h *GameState) HandlePacketMeta(common.Tick, rawpacket.CommandInfo, *parser.ParserState) error {
	return nil
}

// IntoOutput returns the control-point ownership tracked so far.
func (h *GameState) IntoOutput(*parser.ParserState) GameStateOutput {
	return GameStateOutput{ControlPoints: h.owners}
}
