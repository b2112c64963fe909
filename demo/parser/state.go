// This file defines ParserState, the shared immutable-to-handlers
// context spec §3 describes ("Parser state (the shared immutable
// context passed to every handler)"): static header fields, the
// compiled schema, live string tables, baselines, and event/user-message
// registrations. It has no direct Brood War analog (screp has no
// persistent cross-section state object beyond the *rep.Replay tree
// itself, built once at the end); ParserState is instead built
// incrementally as the stream is consumed, matching spec §5's "ParserState
// exclusively owns its schema and string tables" ownership rule.

package parser

import (
	"github.com/rs/xid"

	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/datatable"
	"github.com/icza/demorec/demo/entity"
	"github.com/icza/demorec/demo/gameevent"
	"github.com/icza/demorec/demo/header"
	"github.com/icza/demorec/demo/log"
	"github.com/icza/demorec/demo/metrics"
	"github.com/icza/demorec/demo/stringtable"
	"github.com/icza/demorec/demo/usermessage"
)

// ParserState is the read-only context handlers see. Only the parser's
// own dispatch loop mutates it; handlers receive it by pointer but must
// not retain or mutate it beyond the callback's scope.
type ParserState struct {
	Header *header.Header

	ServerClasses   []datatable.ServerClassInfo
	FlattenedTables map[int]*datatable.FlattenedPropTable

	// StringTables is keyed by table name; StringTableOrder preserves the
	// on-wire definition order (needed to resolve UpdateStringTable's
	// table-index reference).
	StringTables     map[string]*stringtable.Table
	StringTableOrder []string

	InstanceBaselines map[int]*entity.Snapshot
	Baselines         *entity.Baselines

	GameEvents   gameevent.List
	UserMessages usermessage.Registry

	// Users is the decoded "userinfo" string table, keyed by entity id
	// per spec.md's "keyed by entity id" (spec.md line 110).
	Users map[common.EntityIndex]*common.UserInfo

	// Tick is the tick of the packet currently being dispatched.
	Tick common.Tick

	// RunID correlates every log line this parse emits (demo/log), so
	// concurrent Parse calls don't interleave confusingly.
	RunID xid.ID

	warnings []common.ParseWarning

	logger  *log.Logger
	metrics *metrics.Collector
}

func newParserState() *ParserState {
	return &ParserState{
		StringTables:      make(map[string]*stringtable.Table),
		InstanceBaselines: make(map[int]*entity.Snapshot),
		Baselines:         entity.NewBaselines(),
		UserMessages:      usermessage.NewRegistry(),
		Users:             make(map[common.EntityIndex]*common.UserInfo),
		RunID:             xid.New(),
	}
}

// Warnings returns every non-fatal fault recorded so far (spec §7's
// downgraded errors): malformed user-info records and string-table entry
// text that is not valid UTF-8. A SetConVar name or value that is not
// valid UTF-8 is not downgraded; it ends the parse with an error.
func (s *ParserState) Warnings() []common.ParseWarning {
	return s.warnings
}

func (s *ParserState) addWarning(w common.ParseWarning) {
	w.Tick = s.Tick
	s.warnings = append(s.warnings, w)
	s.logger.Warning(w)
	s.metrics.IncWarnings()
}

func (s *ParserState) addWarnings(ws []common.ParseWarning) {
	for _, w := range ws {
		s.addWarning(w)
	}
}

func (s *ParserState) tableByIndex(idx int) (*stringtable.Table, bool) {
	if idx < 0 || idx >= len(s.StringTableOrder) {
		return nil, false
	}
	return s.StringTables[s.StringTableOrder[idx]], true
}

func (s *ParserState) addTable(t *stringtable.Table) {
	if _, exists := s.StringTables[t.Name]; !exists {
		s.StringTableOrder = append(s.StringTableOrder, t.Name)
	}
	s.StringTables[t.Name] = t
}
