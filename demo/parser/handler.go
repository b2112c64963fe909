// This file defines the Handler capability set (spec §4.6) and its
// generic composition helper. The capability set itself has no teacher
// analog (screp builds its *rep.Replay tree directly, with no pluggable
// consumer interface); it follows Design Note §9's "best realized as a
// single interface abstraction parameterized by the handler's output
// type, with a zero-size default analyzer".

package parser

import (
	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/datatable"
	"github.com/icza/demorec/demo/message"
	"github.com/icza/demorec/demo/stringtable"
	"github.com/icza/demorec/rawpacket"
)

// Handler is the capability set every analyzer implements, parameterized
// by the materialized output type. Dispatch order is fixed by spec §5:
// HandleDataTables before any HandleMessage that could reference server
// classes; HandleStringEntry for a table's initial population before
// later updates to the same entry; HandlePacketMeta for tick T before
// any HandleMessage inside that packet.
type Handler[O any] interface {
	// DoesHandle reports whether the handler wants HandleMessage called
	// for records of this type. Dispatch never calls HandleMessage for a
	// type DoesHandle rejects.
	DoesHandle(t message.Type) bool

	HandleMessage(msg message.Message, tick common.Tick, state *ParserState) error
	HandleStringEntry(table string, index int, entry *stringtable.Entry, state *ParserState) error
	HandleDataTables(tables []*datatable.FlattenedPropTable, classes []datatable.ServerClassInfo, state *ParserState) error
	HandlePacketMeta(tick common.Tick, info rawpacket.CommandInfo, state *ParserState) error

	// IntoOutput consumes the handler, materializing its accumulated
	// result. Called once, at stream end.
	IntoOutput(state *ParserState) O
}

// DefaultHandler is the zero-size "just parse headers/tables" analyzer:
// it declines every message type and produces no output.
type DefaultHandler struct{}

func (DefaultHandler) DoesHandle(message.Type) bool { return false }
func (DefaultHandler) HandleMessage(message.Message, common.Tick, *ParserState) error {
	return nil
}
func (DefaultHandler) HandleStringEntry(string, int, *stringtable.Entry, *ParserState) error {
	return nil
}
func (DefaultHandler) HandleDataTables([]*datatable.FlattenedPropTable, []datatable.ServerClassInfo, *ParserState) error {
	return nil
}
func (DefaultHandler) HandlePacketMeta(common.Tick, rawpacket.CommandInfo, *ParserState) error {
	return nil
}
func (DefaultHandler) IntoOutput(*ParserState) struct{} { return struct{}{} }

// AllMessageHandler accepts every message type and accumulates a
// histogram of message type ids seen, per the spec's Open Question
// resolution for the message-type analyzer (DESIGN.md).
type AllMessageHandler struct {
	counts map[int]int
}

// NewAllMessageHandler returns a handler that counts every dispatched
// message type by id.
func NewAllMessageHandler() *AllMessageHandler {
	return &AllMessageHandler{counts: make(map[int]int)}
}

func (h *AllMessageHandler) DoesHandle(message.Type) bool { return true }

func (h *AllMessageHandler) HandleMessage(msg message.Message, _ common.Tick, _ *ParserState) error {
	h.counts[msg.MessageType().ID]++
	return nil
}

func (h *AllMessageHandler) HandleStringEntry(string, int, *stringtable.Entry, *ParserState) error {
	return nil
}

func (h *AllMessageHandler) HandleDataTables([]*datatable.FlattenedPropTable, []datatable.ServerClassInfo, *ParserState) error {
	return nil
}

func (h *AllMessageHandler) HandlePacketMeta(common.Tick, rawpacket.CommandInfo, *ParserState) error {
	return nil
}

// IntoOutput returns the type-id -> count histogram accumulated over the
// whole parse.
func (h *AllMessageHandler) IntoOutput(*ParserState) map[int]int { return h.counts }

// Pair is the product type Combine.IntoOutput materializes: one field per
// combined handler's own output.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Combine pairs two handlers into one whose IntoOutput returns a product
// of their outputs (spec §4.6: "Multi-handler composition is supported
// by a generic pair"). Ordering between A and B within one callback is
// unspecified; callers must not rely on it, matching spec §4.6's
// "handlers must not depend on peer state".
type Combine[A, B any] struct {
	First  Handler[A]
	Second Handler[B]
}

// NewCombine builds a Combine wrapping the two given handlers.
func NewCombine[A, B any](first Handler[A], second Handler[B]) *Combine[A, B] {
	return &Combine[A, B]{First: first, Second: second}
}

func (c *Combine[A, B]) DoesHandle(t message.Type) bool {
	return c.First.DoesHandle(t) || c.Second.DoesHandle(t)
}

func (c *Combine[A, B]) HandleMessage(msg message.Message, tick common.Tick, state *ParserState) error {
	if c.First.DoesHandle(msg.MessageType()) {
		if err := c.First.HandleMessage(msg, tick, state); err != nil {
			return err
		}
	}
	if c.Second.DoesHandle(msg.MessageType()) {
		if err := c.Second.HandleMessage(msg, tick, state); err != nil {
			return err
		}
	}
	return nil
}

func (c *Combine[A, B]) HandleStringEntry(table string, index int, entry *stringtable.Entry, state *ParserState) error {
	if err := c.First.HandleStringEntry(table, index, entry, state); err != nil {
		return err
	}
	return c.Second.HandleStringEntry(table, index, entry, state)
}

func (c *Combine[A, B]) HandleDataTables(tables []*datatable.FlattenedPropTable, classes []datatable.ServerClassInfo, state *ParserState) error {
	if err := c.First.HandleDataTables(tables, classes, state); err != nil {
		return err
	}
	return c.Second.HandleDataTables(tables, classes, state)
}

func (c *Combine[A, B]) HandlePacketMeta(tick common.Tick, info rawpacket.CommandInfo, state *ParserState) error {
	if err := c.First.HandlePacketMeta(tick, info, state); err != nil {
		return err
	}
	return c.Second.HandlePacketMeta(tick, info, state)
}

// IntoOutput returns both children's materialized outputs as a Pair.
func (c *Combine[A, B]) IntoOutput(state *ParserState) Pair[A, B] {
	return Pair[A, B]{First: c.First.IntoOutput(state), Second: c.Second.IntoOutput(state)}
}
