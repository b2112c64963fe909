/*

Package stringtable implements the incremental string-table engine (spec
§4.4): full-snapshot initialization from the StringTables packet, then
per-tick CreateStringTable/UpdateStringTable delta messages, each entry
decoded against a 32-slot history ring for shared-prefix back-reference
compression. There is no Brood War analogue for this (a replay has no
networked string tables); the entry decode loop is built directly from
spec.md, and the tolerant UTF-8 recovery on entry text reuses the
teacher's cString/koreanString two-step idea (here targeting
golang.org/x/text/encoding/charmap.Windows1252 via demo/common.DecodeText,
since this is Source-engine/Windows text, not Brood War's Korean client).

*/
package stringtable

import (
	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/common"
)

const historyOffsetBits = 5
const historySubstringLenBits = 5

// Descriptor is the static shape of a string table, carried by its
// defining CreateStringTable message or the initial StringTables packet.
type Descriptor struct {
	Name              string
	MaxEntries        int
	UserDataFixedSize bool
	UserDataBits      int // used when UserDataFixedSize is set
	ClientSideOnly    bool
}

// entryBits is the bit-width used to encode an absolute entry index.
func (d Descriptor) entryBits() int {
	return bitsFor(d.MaxEntries)
}

// Entry is one row of a string table.
type Entry struct {
	Index int

	// HasText reports whether Text/RawText carry a value for this entry;
	// string tables allow byte-only updates with no text.
	HasText bool
	Text    string
	RawText []byte `json:"-"`

	// Data is the entry's optional user-data payload (fixed or variable
	// size, per the table descriptor).
	Data []byte
}

// Table is a named string table with its current entries and history.
type Table struct {
	Descriptor
	Entries map[int]*Entry
	hist    history
}

// New creates an empty table from its descriptor.
func New(desc Descriptor) *Table {
	return &Table{Descriptor: desc, Entries: make(map[int]*Entry)}
}

// DecodeEntries reads n entries from r per spec §4.4's delta algorithm,
// applying them to the table in place, and returns the indices touched in
// order. The sequential-index cursor starts at -1 on every call, so the
// n entries of one call are read as one run.
func (t *Table) DecodeEntries(r *bitstream.Reader, n int) ([]int, []common.ParseWarning, error) {
	indices := make([]int, 0, n)
	var warnings []common.ParseWarning

	prevIndex := -1
	for i := 0; i < n; i++ {
		idx, err := t.readIndex(r, prevIndex)
		if err != nil {
			return nil, warnings, err
		}
		if idx < 0 || idx >= t.MaxEntries {
			return nil, warnings, common.NewParseError(common.KindInvalidDemo, "stringtable", "entry index out of range", nil)
		}
		prevIndex = idx

		entry := &Entry{Index: idx}

		hasText, err := r.ReadBit()
		if err != nil {
			return nil, warnings, err
		}
		if hasText {
			text, raw, warn, err := t.readText(r)
			if err != nil {
				return nil, warnings, err
			}
			entry.HasText = true
			entry.Text = text
			entry.RawText = raw
			if warn != nil {
				warnings = append(warnings, *warn)
			}
			t.hist.push(text)
		}

		hasData, err := r.ReadBit()
		if err != nil {
			return nil, warnings, err
		}
		if hasData {
			data, err := t.readUserData(r)
			if err != nil {
				return nil, warnings, err
			}
			entry.Data = data
		}

		t.Entries[idx] = entry
		indices = append(indices, idx)
	}

	return indices, warnings, nil
}

func (t *Table) readIndex(r *bitstream.Reader, prevIndex int) (int, error) {
	sequential, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	if sequential {
		return prevIndex + 1, nil
	}
	v, err := r.ReadBits(t.entryBits())
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func (t *Table) readText(r *bitstream.Reader) (text string, raw []byte, warn *common.ParseWarning, err error) {
	reuse, err := r.ReadBit()
	if err != nil {
		return "", nil, nil, err
	}

	var prefix string
	if reuse {
		offset, err := r.ReadBits(historyOffsetBits)
		if err != nil {
			return "", nil, nil, err
		}
		length, err := r.ReadBits(historySubstringLenBits)
		if err != nil {
			return "", nil, nil, err
		}
		p, ok := t.hist.prefix(int(offset), int(length))
		if !ok {
			return "", nil, nil, common.NewParseError(common.KindInvalidDemo, "stringtable", "history reference out of buffer", nil)
		}
		prefix = p
	}

	suffix, rawSuffix, cerr := readPlainCString(r)
	if cerr != nil {
		// Malformed UTF-8 in string-table text is recoverable: keep the
		// bytes, record a warning, continue the parse (spec §7).
		warn = &common.ParseWarning{Kind: "invalid-utf8-string-entry", Detail: cerr.Error()}
	}

	full := prefix + suffix
	rawFull := append([]byte(prefix), rawSuffix...)
	return full, rawFull, warn, nil
}

// readPlainCString reads a null-terminated string tolerantly: invalid
// UTF-8 doesn't abort decoding, it returns the raw bytes alongside a
// non-nil error the caller downgrades to a warning.
func readPlainCString(r *bitstream.Reader) (string, []byte, error) {
	s, raw, err := r.ReadCString("stringtable.entry")
	if err == nil {
		return s, raw, nil
	}
	var pe *common.ParseError
	if ok := asParseError(err, &pe); ok && pe.Kind == common.KindInvalidUTF8 {
		text, _ := common.DecodeText(raw)
		return text, raw, err
	}
	return "", nil, err
}

func asParseError(err error, target **common.ParseError) bool {
	pe, ok := err.(*common.ParseError)
	if ok {
		*target = pe
	}
	return ok
}

func (t *Table) readUserData(r *bitstream.Reader) ([]byte, error) {
	if t.UserDataFixedSize {
		return r.ReadBytes((t.UserDataBits + 7) / 8)
	}
	n, err := r.ReadBits(14)
	if err != nil {
		return nil, err
	}
	if n%8 != 0 {
		return nil, common.NewParseError(common.KindInvalidDemo, "stringtable", "user-data length overflow", nil)
	}
	return r.ReadBytes(int(n / 8))
}

// bitsFor returns ceil(log2(n)) for n >= 1, the bit-width needed to encode
// values in [0, n).
func bitsFor(n int) int {
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	return bits
}
