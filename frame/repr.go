package frame

import (
	"fmt"
	"strings"
)

// canonicalTuple renders (version, requestType, sequence, payload) as the
// protocol's checksum input: a Python tuple repr, with the payload
// rendered as None or as a bytes literal quoted as pythonBytesRepr
// describes. Every peer must
// produce this exact string, byte for byte, for checksums to agree.
//
// The wire format cannot distinguish a nil payload from a zero-length one
// (both decode to an empty slice), so both encode and decode treat a
// zero-length payload as None — the length, not Go nil-ness, decides which
// branch applies. This keeps Encode and Decode self-consistent, which is
// what the checksum is actually for.
func canonicalTuple(version uint8, requestType RequestType, sequence int32, payload []byte) string {
	var b strings.Builder
	b.WriteByte('(')
	fmt.Fprintf(&b, "%d, %d, %d, ", version, uint8(requestType), sequence)
	if len(payload) == 0 {
		b.WriteString("None")
	} else {
		b.WriteString(pythonBytesRepr(payload))
	}
	b.WriteByte(')')
	return b.String()
}

// pythonBytesRepr reproduces CPython's bytes.__repr__: a b'...' literal
// using single quotes unless the data contains a single quote but no double
// quote (in which case double quotes are used), with \t, \n, \r, \\, the
// chosen quote character, and any byte outside printable ASCII escaped as
// \xHH (lowercase hex).
func pythonBytesRepr(data []byte) string {
	quote := byte('\'')
	if bytesContain(data, '\'') && !bytesContain(data, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte('b')
	b.WriteByte(quote)
	for _, c := range data {
		switch {
		case c == quote || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func bytesContain(data []byte, c byte) bool {
	for _, b := range data {
		if b == c {
			return true
		}
	}
	return false
}
