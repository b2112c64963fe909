package main

import (
	"fmt"
	"os"

	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/datatable"
	"github.com/icza/demorec/demo/message"
	"github.com/icza/demorec/demo/parser"
	"github.com/icza/demorec/demo/stringtable"
	"github.com/icza/demorec/rawpacket"
)

// voiceWriter is a Handler that appends every VoiceData payload to the
// still-Opus-encoded out-<slot>.raw file for its client slot, opening
// each file lazily on first use.
type voiceWriter struct {
	dir   string
	files map[byte]*os.File
}

func newVoiceWriter(dir string) *voiceWriter {
	return &voiceWriter{dir: dir, files: make(map[byte]*os.File)}
}

func (w *voiceWriter) DoesHandle(t message.Type) bool {
	return t == message.TypeVoiceData
}

func (w *voiceWriter) HandleMessage(msg message.Message, _ common.Tick, _ *parser.ParserState) error {
	vd, ok := msg.(*message.VoiceData)
	if !ok {
		return nil
	}

	f, ok := w.files[vd.Client]
	if !ok {
		var err error
		f, err = os.Create(outPath(w.dir, vd.Client))
		if err != nil {
			return fmt.Errorf("opening voice output for client %d: %w", vd.Client, err)
		}
		w.files[vd.Client] = f
	}

	_, err := f.Write(vd.Data)
	return err
}

func (w *voiceWriter) HandleStringEntry(string, int, *stringtable.Entry, *parser.ParserState) error {
	return nil
}

func (w *voiceWriter) HandleDataTables([]*datatable.FlattenedPropTable, []datatable.ServerClassInfo, *parser.ParserState) error {
	return nil
}

func (w *voiceWriter) HandlePacketMeta(common.Tick, rawpacket.CommandInfo, *parser.ParserState) error {
	return nil
}

func (w *voiceWriter) IntoOutput(*parser.ParserState) struct{} { return struct{}{} }

func (w *voiceWriter) slotCount() int {
	return len(w.files)
}

// Close closes every opened output file.
func (w *voiceWriter) Close() error {
	var firstErr error
	for _, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
