/*

Package democodec provides the raw byte-level access to a demo file: memory
mapping it from disk (grounded on saferwall/pe's file.New, which mmaps a PE
binary read-only instead of reading it into a []byte) or wrapping an
already-loaded buffer. Everything above this package works on the resulting
[]byte; democodec never interprets demo contents.

*/
package democodec

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/icza/demorec/bitstream"
)

// Demo is a read-only view of an entire demo file's bytes.
type Demo struct {
	data   mmap.MMap // nil when constructed via New
	raw    []byte
	f      *os.File
	Name   string // source file name, empty for New
}

// Open memory-maps the named file read-only. The returned Demo must be
// closed when no longer needed.
func Open(name string) (*Demo, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Demo{data: data, raw: data, f: f, Name: name}, nil
}

// New wraps an already-loaded buffer without any file or mapping. The slice
// is borrowed, not copied; the caller retains ownership and must not mutate
// it while the Demo is in use.
func New(buf []byte) *Demo {
	return &Demo{raw: buf}
}

// Bytes returns the full contents of the demo.
func (d *Demo) Bytes() []byte {
	return d.raw
}

// Stream returns a fresh bit-stream cursor over the whole demo, the
// pipeline's entry point.
func (d *Demo) Stream() *bitstream.Reader {
	return bitstream.New(d.raw)
}

// Close unmaps the file, if the Demo was created with Open. It is a no-op
// for Demos created with New.
func (d *Demo) Close() error {
	if d.data != nil {
		if err := d.data.Unmap(); err != nil {
			return err
		}
		d.data = nil
	}
	if d.f != nil {
		return d.f.Close()
	}
	return nil
}
