// This file implements the UTF-8-first, Windows-1252-fallback string
// recovery used on every field the wire allows to be non-UTF-8 (server
// name, nick, map, user-info names, chat text), mirroring the teacher's
// cString/koreanString two-step recovery but retargeted at the
// Windows-1252 text a Source-engine server is actually likely to emit.

package common

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText trims a trailing NUL-padded byte slice at its first zero byte
// and decodes the remainder as UTF-8. If that fails, it falls back to
// Windows-1252. The returned bool reports whether the fallback decoder was
// used; callers that track RawXxx fields use it to decide whether to keep
// the raw bytes around.
func DecodeText(raw []byte) (text string, usedFallback bool) {
	if i := indexZero(raw); i >= 0 {
		raw = raw[:i]
	}

	if utf8.Valid(raw) {
		return string(raw), false
	}

	decoded, err := charmap.Windows1252.NewDecoder().String(string(raw))
	if err != nil {
		// Last resort: keep the bytes as-is, lossily reinterpreted.
		return strings.ToValidUTF8(string(raw), "�"), true
	}
	return decoded, true
}

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
