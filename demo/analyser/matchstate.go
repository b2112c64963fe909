package analyser

import (
	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/datatable"
	"github.com/icza/demorec/demo/message"
	"github.com/icza/demorec/demo/parser"
	"github.com/icza/demorec/demo/stringtable"
	"github.com/icza/demorec/rawpacket"
)

// MatchStateOutput is the coarse match-level summary MatchState
// accumulates over one parse.
type MatchStateOutput struct {
	MapName   string
	FirstTick common.Tick
	LastTick  common.Tick

	// Players is every connected client seen in the "userinfo" string
	// table by the end of the parse, keyed by UserID.
	Players map[common.UserID]string

	// EventCounts is a histogram of game-event names seen.
	EventCounts map[string]int
}

// MatchState is a reference Handler that tracks the tick range covered,
// the player roster, and a game-event histogram. It does not track
// entity state; combine it with CacheBuilder via parser.Combine for that.
type MatchState struct {
	firstTick common.Tick
	lastTick  common.Tick
	sawTick   bool
	events    map[string]int
}

// NewMatchState builds an empty MatchState analyzer.
func NewMatchState() *MatchState {
	return &MatchState{events: make(map[string]int)}
}

func (h *MatchState) DoesHandle(t message.Type) bool {
	return t == message.TypeGameEvent
}

func (h *MatchState) HandleMessage(msg message.Message, _ common.Tick, _ *parser.ParserState) error {
	if ev, ok := msg.(parser.GameEventMessage); ok && ev.Event != nil {
		h.events[ev.Event.Name]++
	}
	return nil
}

func (h *MatchState) HandleStringEntry(string, int, *stringtable.Entry, *parser.ParserState) error {
	return nil
}

func (h *MatchState) HandleDataTables([]*datatable.FlattenedPropTable, []datatable.ServerClassInfo, *parser.ParserState) error {
	return nil
}

func (h *MatchState) HandlePacketMeta(tick common.Tick, _ rawpacket.CommandInfo, _ *parser.ParserState) error {
	if !h.sawTick {
		h.firstTick = tick
		h.sawTick = true
	}
	h.lastTick = tick
	return nil
}

// IntoOutput reads the player roster off ParserState.Users, since
// MatchState itself never special-cases the "userinfo" table.
func (h *MatchState) IntoOutput(state *parser.ParserState) MatchStateOutput {
	players := make(map[common.UserID]string, len(state.Users))
	for _, u := range state.Users {
		players[u.UserID] = u.Name
	}

	var mapName string
	if state.Header != nil {
		mapName = state.Header.MapName
	}

	return MatchStateOutput{
		MapName:     mapName,
		FirstTick:   h.firstTick,
		LastTick:    h.lastTick,
		Players:     players,
		EventCounts: h.events,
	}
}
