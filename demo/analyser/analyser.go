/*

Package analyser collects reference Handler implementations (spec §1's
"example analyzers"): a default no-op, an all-message histogram, a
match-state summary, a per-tick entity-cache builder, and a shallow
control-point game-state tracker. None of these are on the core parse
path; they exist as worked examples of demo/parser.Handler the way
original_source/src/demo/parser/gamestateanalyser.rs and lib.rs's
CombinedAnalyser/CacheBuilder motivate a parser consumer layer distinct
from the core decode engine. Their internal domain logic is deliberately
shallow, per spec §1.

*/
package analyser

import (
	"github.com/icza/demorec/demo/parser"
)

// Default is the zero-size analyzer that only compiles the schema and
// string tables, discarding every message.
type Default = parser.DefaultHandler

// NewAllMessage builds a handler that accepts every message type and
// accumulates a histogram of message type ids by id.
func NewAllMessage() *parser.AllMessageHandler {
	return parser.NewAllMessageHandler()
}
