/*

Package usermessage decodes the well-known UserMessage sub-types a demo
carries inside the message-dispatch framework's UserMessage record (spec
§4.6/§4.7 "UserMessage is one dispatch-level type, not a closed enum").
There is no Brood War analog; the well-known/opaque-fallback split
mirrors the teacher's rep/repcmd unknown-command handling (an
UnknownEnum carrying the raw bytes rather than failing the parse).

*/
package usermessage

import (
	"github.com/icza/demorec/bitstream"
)

// Message is any decoded user message.
type Message interface {
	UserMessageID() int
}

// SayText2 is a chat line, as seen by the in-game chat feed.
type SayText2 struct {
	Client  byte
	Chat    bool
	Text    string
}

func (SayText2) UserMessageID() int { return 4 }

// ResourceT carries a single precached-resource index, used by PreFetch
// and resource-prefetch-style user messages.
type ResourceT struct {
	Index uint16
}

func (ResourceT) UserMessageID() int { return 10 }

// CloseCaption requests a subtitle be displayed for a duration.
type CloseCaption struct {
	Token    string
	Duration float32
}

func (CloseCaption) UserMessageID() int { return 11 }

// Raw is the fallback for any user message id this package does not
// decode structurally: the id plus its undecoded body bytes.
type Raw struct {
	ID   int
	Data []byte
}

func (r Raw) UserMessageID() int { return r.ID }

// DecodeFunc reads one user message body (the id already consumed) off r.
type DecodeFunc func(r *bitstream.Reader, length int) (Message, error)

// Registry maps a user-message id to its decoder.
type Registry map[int]DecodeFunc

// NewRegistry returns the default registry of well-known user messages.
// Ids not present here decode as Raw by the caller.
func NewRegistry() Registry {
	return Registry{
		4:  decodeSayText2,
		10: decodeResourceT,
		11: decodeCloseCaption,
	}
}

func (r Registry) Lookup(id int) (DecodeFunc, bool) {
	fn, ok := r[id]
	return fn, ok
}

// Decode reads one user message: id, then length (in bits), then body.
// Unknown ids produce a Raw rather than an error, per spec §4.6/§4.7's
// open dispatch-level type.
func Decode(r *bitstream.Reader, reg Registry) (Message, error) {
	id, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	length, err := r.ReadBits(11)
	if err != nil {
		return nil, err
	}

	body, err := r.Fork(int(length))
	if err != nil {
		return nil, err
	}

	if fn, ok := reg.Lookup(int(id)); ok {
		return fn(body, int(length))
	}

	data, err := body.ReadBytes(int(length) / 8)
	if err != nil {
		return nil, err
	}
	return Raw{ID: int(id), Data: data}, nil
}

func decodeSayText2(r *bitstream.Reader, length int) (Message, error) {
	client, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	chat, err := r.ReadBit()
	if err != nil {
		return nil, err
	}
	text, _, err := r.ReadCString("usermessage.SayText2")
	if err != nil {
		return nil, err
	}
	return &SayText2{Client: client, Chat: chat, Text: text}, nil
}

func decodeResourceT(r *bitstream.Reader, length int) (Message, error) {
	idx, err := r.ReadBits(14)
	if err != nil {
		return nil, err
	}
	return &ResourceT{Index: uint16(idx)}, nil
}

func decodeCloseCaption(r *bitstream.Reader, length int) (Message, error) {
	token, _, err := r.ReadCString("usermessage.CloseCaption")
	if err != nil {
		return nil, err
	}
	dur, err := r.ReadFloat32()
	if err != nil {
		return nil, err
	}
	return &CloseCaption{Token: token, Duration: dur}, nil
}
