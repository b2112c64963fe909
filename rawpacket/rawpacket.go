/*

Package rawpacket partitions the byte stream following the demo header into
a sequence of typed packets: a 1-byte kind discriminator, a 4-byte tick,
then either a fixed-size body or a length-prefixed payload. It is the
direct Source-engine analogue of the teacher's repparser.Sections
table-driven loop (decoder.NewSection / decoder.Section per entry) —
reworked here as a pull-based Next() since, unlike a Brood War replay's
fixed four-section layout, a demo file is an open-ended stream of
same-shaped records terminated by Stop rather than by running out of
declared sections.

*/
package rawpacket

import (
	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/common"
)

// Kind identifies the type of a raw packet.
type Kind struct {
	common.Enum
	ID byte
}

// Packet kind discriminators, matching the on-wire byte values.
var (
	KindSignOn       = Kind{common.Enum{"SignOn"}, 1}
	KindMessage      = Kind{common.Enum{"Message"}, 2}
	KindSyncTick     = Kind{common.Enum{"SyncTick"}, 3}
	KindConsoleCmd   = Kind{common.Enum{"ConsoleCmd"}, 4}
	KindUserCmd      = Kind{common.Enum{"UserCmd"}, 5}
	KindDataTables   = Kind{common.Enum{"DataTables"}, 6}
	KindStop         = Kind{common.Enum{"Stop"}, 7}
	KindStringTables = Kind{common.Enum{"StringTables"}, 8}
)

var kindsByID = map[byte]Kind{
	KindSignOn.ID:       KindSignOn,
	KindMessage.ID:      KindMessage,
	KindSyncTick.ID:     KindSyncTick,
	KindConsoleCmd.ID:   KindConsoleCmd,
	KindUserCmd.ID:      KindUserCmd,
	KindDataTables.ID:   KindDataTables,
	KindStop.ID:         KindStop,
	KindStringTables.ID: KindStringTables,
}

func kindByID(id byte) (Kind, bool) {
	k, ok := kindsByID[id]
	return k, ok
}

// CommandInfo is the view/sequence metadata prefix carried by SignOn and
// Message packets, used by demo playback to interpolate the spectator
// camera; parsers that only care about game state ignore its contents.
type CommandInfo struct {
	Flags           int32
	ViewOrigin      common.Vector
	ViewAngles      common.Vector
	LocalViewAngles common.Vector
	InSequence      int32
	OutSequence     int32
}

// Packet is one raw, not-yet-decoded record from the demo body.
type Packet struct {
	Kind Kind
	Tick common.Tick

	// Info is populated for SignOn and Message packets.
	Info CommandInfo

	// Slot is populated for UserCmd packets.
	Slot int32

	// Data is the packet's payload: the message bundle for SignOn/Message,
	// the raw string for ConsoleCmd, the compiled schema bytes for
	// DataTables, the initial snapshot for StringTables, or the user
	// command bytes for UserCmd. Empty for SyncTick and Stop.
	Data []byte
}

func readCommandInfo(r *bitstream.Reader) (CommandInfo, error) {
	var info CommandInfo
	var err error

	flags, err := r.ReadUint32()
	if err != nil {
		return info, err
	}
	info.Flags = int32(flags)

	readVec := func() (common.Vector, error) {
		var v common.Vector
		v.X, err = r.ReadFloat32()
		if err != nil {
			return v, err
		}
		v.Y, err = r.ReadFloat32()
		if err != nil {
			return v, err
		}
		v.Z, err = r.ReadFloat32()
		return v, err
	}

	if info.ViewOrigin, err = readVec(); err != nil {
		return info, err
	}
	if info.ViewAngles, err = readVec(); err != nil {
		return info, err
	}
	if info.LocalViewAngles, err = readVec(); err != nil {
		return info, err
	}

	in, err := r.ReadUint32()
	if err != nil {
		return info, err
	}
	info.InSequence = int32(in)

	out, err := r.ReadUint32()
	if err != nil {
		return info, err
	}
	info.OutSequence = int32(out)

	return info, nil
}

func readLengthPrefixed(r *bitstream.Reader) ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

// Next reads one raw packet from r. When the underlying stream has been
// fully consumed (the caller already saw KindStop), callers must not call
// Next again.
func Next(r *bitstream.Reader) (*Packet, error) {
	if r.AtEnd() {
		return nil, common.NewParseError(common.KindInvalidDemo, "rawpacket", "stream ended without Stop", nil)
	}

	id, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	kind, ok := kindByID(id)
	if !ok {
		return nil, common.NewParseError(common.KindInvalidDemo, "rawpacket", "unknown packet discriminator", nil)
	}

	tick, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	p := &Packet{Kind: kind, Tick: common.Tick(tick)}

	switch kind {
	case KindSignOn, KindMessage:
		info, err := readCommandInfo(r)
		if err != nil {
			return nil, err
		}
		p.Info = info
		if p.Data, err = readLengthPrefixed(r); err != nil {
			return nil, err
		}

	case KindSyncTick, KindStop:
		// No body.

	case KindConsoleCmd:
		data, err := readLengthPrefixed(r)
		if err != nil {
			return nil, err
		}
		p.Data = data

	case KindUserCmd:
		slot, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		p.Slot = int32(slot)
		if p.Data, err = readLengthPrefixed(r); err != nil {
			return nil, err
		}

	case KindDataTables, KindStringTables:
		data, err := readLengthPrefixed(r)
		if err != nil {
			return nil, err
		}
		p.Data = data
	}

	return p, nil
}
