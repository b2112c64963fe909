/*

Package header parses the fixed 1072-byte demo prelude: magic, protocol
versions, server/client/map identification, and the summary counters
(duration, tick count, frame count, sign-on length) used to size the rest
of the parse. Field layout mirrors the teacher's rep.Header/parseHeader
(fixed byte offsets read little-endian through bitstream.Reader), but the
fields themselves come from the Source engine demo prelude rather than a
Brood War replay header.

*/
package header

import (
	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/common"
)

// Magic is the fixed 8-byte signature every valid demo file begins with.
const Magic = "HL2DEMO\x00"

const (
	sizeMagic           = 8
	sizeServerName       = 260
	sizeClientName       = 260
	sizeMapName          = 260
	sizeGameDirectory    = 260
)

// Size is the total fixed header length in bytes.
const Size = sizeMagic + 4 + 4 + sizeServerName + sizeClientName + sizeMapName + sizeGameDirectory + 4 + 4 + 4 + 4

// Header models the fixed prelude of a demo file.
type Header struct {
	// Protocol is the demo protocol version.
	Protocol int32

	// NetworkProtocol is the engine network protocol version.
	NetworkProtocol int32

	// ServerName is the name of the server the demo was recorded on.
	ServerName string

	// RawServerName is the undecoded ServerName bytes; populated only when
	// decoding required the Windows-1252 fallback.
	RawServerName []byte `json:"-"`

	// ClientName is the nickname of the client that recorded the demo.
	ClientName string

	// RawClientName mirrors RawServerName for ClientName.
	RawClientName []byte `json:"-"`

	// MapName is the map the demo was recorded on.
	MapName string

	// RawMapName mirrors RawServerName for MapName.
	RawMapName []byte `json:"-"`

	// GameDirectory is the mod directory name (e.g. "tf").
	GameDirectory string

	// RawGameDirectory mirrors RawServerName for GameDirectory.
	RawGameDirectory []byte `json:"-"`

	// PlaybackSeconds is the demo's declared duration, in seconds.
	PlaybackSeconds float32

	// TickCount is the total number of ticks recorded.
	TickCount int32

	// FrameCount is the total number of frames recorded.
	FrameCount int32

	// SignOnLength is the byte length of the sign-on data section that
	// immediately follows the header.
	SignOnLength int32
}

// TickInterval returns the seconds per tick, PlaybackSeconds divided by
// TickCount, or 0 when TickCount is 0.
func (h *Header) TickInterval() float64 {
	if h.TickCount == 0 {
		return 0
	}
	return float64(h.PlaybackSeconds) / float64(h.TickCount)
}

// Read parses the fixed header from the front of r. r must be positioned
// at the very start of the demo (byte 0).
func Read(r *bitstream.Reader, cfg Config) (*Header, error) {
	magic, err := r.ReadBytes(sizeMagic)
	if err != nil {
		return nil, err
	}
	if string(magic) != Magic {
		return nil, common.NewParseError(common.KindInvalidDemo, "header", "bad magic", nil)
	}

	h := new(Header)

	protocol, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	h.Protocol = int32(protocol)

	netProtocol, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	h.NetworkProtocol = int32(netProtocol)

	readField := func(n int, dst *string, raw *[]byte) error {
		b, err := r.ReadBytes(n)
		if err != nil {
			return err
		}
		text, fallback := common.DecodeText(b)
		*dst = text
		if fallback && cfg.Debug {
			*raw = b
		}
		return nil
	}

	if err := readField(sizeServerName, &h.ServerName, &h.RawServerName); err != nil {
		return nil, err
	}
	if err := readField(sizeClientName, &h.ClientName, &h.RawClientName); err != nil {
		return nil, err
	}
	if err := readField(sizeMapName, &h.MapName, &h.RawMapName); err != nil {
		return nil, err
	}
	if err := readField(sizeGameDirectory, &h.GameDirectory, &h.RawGameDirectory); err != nil {
		return nil, err
	}

	playbackSeconds, err := r.ReadFloat32()
	if err != nil {
		return nil, err
	}
	h.PlaybackSeconds = playbackSeconds

	tickCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	h.TickCount = int32(tickCount)

	frameCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	h.FrameCount = int32(frameCount)

	signOnLength, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	h.SignOnLength = int32(signOnLength)

	return h, nil
}

// Config controls optional header-parsing behavior.
type Config struct {
	// Debug retains raw undecoded bytes for fields that needed the
	// Windows-1252 fallback.
	Debug bool
}
