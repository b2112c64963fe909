package analyser

import (
	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/datatable"
	"github.com/icza/demorec/demo/entity"
	"github.com/icza/demorec/demo/message"
	"github.com/icza/demorec/demo/parser"
	"github.com/icza/demorec/demo/stringtable"
	"github.com/icza/demorec/rawpacket"
)

// Cache is the fully materialized entity set at one tick, keyed by index.
type Cache map[common.EntityIndex]*entity.Snapshot

// CacheBuilder is a reference Handler that folds every PacketEntities
// update into a running live-entity map and records a shallow copy of it
// per tick, grounded on Design Note §9's "per-tick cache" idea
// (src/lib.rs's CacheBuilder).
type CacheBuilder struct {
	live   map[common.EntityIndex]*entity.Snapshot
	byTick map[common.Tick]Cache
}

// NewCacheBuilder builds an empty CacheBuilder.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{
		live:   make(map[common.EntityIndex]*entity.Snapshot),
		byTick: make(map[common.Tick]Cache),
	}
}

func (h *CacheBuilder) DoesHandle(t message.Type) bool {
	return t == message.TypePacketEntities
}

func (h *CacheBuilder) HandleMessage(msg message.Message, tick common.Tick, _ *parser.ParserState) error {
	pe, ok := msg.(parser.PacketEntitiesMessage)
	if !ok {
		return nil
	}

	for _, u := range pe.Updates {
		switch u.Type {
		case entity.UpdateTypeEnter, entity.UpdateTypePreserve:
			h.live[u.Index] = u.Snapshot
		case entity.UpdateTypeLeave, entity.UpdateTypeDelete:
			delete(h.live, u.Index)
		}
	}
	for _, idx := range pe.Removed {
		delete(h.live, idx)
	}

	snap := make(Cache, len(h.live))
	for idx, s := range h.live {
		snap[idx] = s
	}
	h.byTick[tick] = snap

	return nil
}

func (h *CacheBuilder) HandleStringEntry(string, int, *stringtable.Entry, *parser.ParserState) error {
	return nil
}

func (h *CacheBuilder) HandleDataTables([]*datatable.FlattenedPropTable, []datatable.ServerClassInfo, *parser.ParserState) error {
	return nil
}

func (h *CacheBuilder) HandlePacketMeta(common.Tick, rawpacket.CommandInfo, *parser.ParserState) error {
	return nil
}

// IntoOutput returns every tick's recorded snapshot.
func (h *CacheBuilder) IntoOutput(*parser.ParserState) map[common.Tick]Cache {
	return h.byTick
}
