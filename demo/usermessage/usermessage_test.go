package usermessage

import (
	"bytes"
	"testing"

	"github.com/icza/demorec/bitstream"
)

type bw struct{ bits []bool }

func (w *bw) bit(b bool) { w.bits = append(w.bits, b) }
func (w *bw) bitsN(v uint64, n int) {
	for i := 0; i < n; i++ {
		w.bit(v&1 != 0)
		v >>= 1
	}
}
func (w *bw) cstring(s string) {
	for i := 0; i < len(s); i++ {
		w.bitsN(uint64(s[i]), 8)
	}
	w.bitsN(0, 8)
}
func (w *bw) bytes() []byte {
	out := make([]byte, (len(w.bits)+7)/8)
	for i, b := range w.bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func TestDecodeSayText2(t *testing.T) {
	body := &bw{}
	body.bitsN(2, 8) // client slot
	body.bit(true)   // chat
	body.cstring("gg")
	bodyBits := len(body.bits)

	full := &bw{}
	full.bitsN(4, 8) // SayText2 id
	full.bitsN(uint64(bodyBits), 11)
	full.bits = append(full.bits, body.bits...)

	r := bitstream.New(full.bytes())
	msg, err := Decode(r, NewRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	st, ok := msg.(*SayText2)
	if !ok {
		t.Fatalf("got %T, want *SayText2", msg)
	}
	if st.Client != 2 || !st.Chat || st.Text != "gg" {
		t.Fatalf("decoded = %+v", st)
	}
}

func TestDecodeUnknownRaw(t *testing.T) {
	full := &bw{}
	full.bitsN(99, 8) // unregistered id
	full.bitsN(16, 11)
	full.bitsN(0xAB, 8)
	full.bitsN(0xCD, 8)

	r := bitstream.New(full.bytes())
	msg, err := Decode(r, NewRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	raw, ok := msg.(Raw)
	if !ok {
		t.Fatalf("got %T, want Raw", msg)
	}
	if raw.ID != 99 {
		t.Fatalf("ID = %d, want 99", raw.ID)
	}
	if !bytes.Equal(raw.Data, []byte{0xAB, 0xCD}) {
		t.Fatalf("Data = %v", raw.Data)
	}
}
