// Package chunk splits an opaque byte blob into fixed-size indexed pieces
// for transmission over the frame channel, and reassembles them back in
// order on the receiving side.
package chunk

import "github.com/pkg/errors"

// Size is the number of payload bytes carried per chunk. All chunks
// except possibly the last are exactly this long.
const Size = 200

// ErrGap is returned by Reassemble when the chunk set has a hole: some
// index less than the maximum is missing.
var ErrGap = errors.New("chunk set has a gap")

// Map is a dense, index-ordered chunk map. Indices are contiguous from 0,
// so a slice stands in for an int-keyed map.
type Map [][]byte

// Split divides data into Map, indices 0..ceil(len(data)/Size)-1. Empty
// input yields an empty Map.
func Split(data []byte) Map {
	if len(data) == 0 {
		return Map{}
	}

	m := make(Map, 0, (len(data)+Size-1)/Size)
	for i := 0; i < len(data); i += Size {
		end := i + Size
		if end > len(data) {
			end = len(data)
		}
		m = append(m, data[i:end])
	}
	return m
}

// Len reports the number of chunks.
func (m Map) Len() int { return len(m) }

// Has reports whether index i has been populated.
func (m Map) Has(i int) bool {
	return i >= 0 && i < len(m) && m[i] != nil
}

// Set stores payload at index i, growing the map if necessary. It does not
// overwrite an index that already holds data — a duplicate send at the
// same index is a no-op.
func (m *Map) Set(i int, payload []byte) {
	if i < 0 {
		return
	}
	if i >= len(*m) {
		grown := make(Map, i+1)
		copy(grown, *m)
		*m = grown
	}
	if (*m)[i] == nil {
		stored := make([]byte, len(payload))
		copy(stored, payload)
		(*m)[i] = stored
	}
}

// MinMissing returns the smallest index in [0, max(keys)] not yet
// populated, and whether any such index exists.
func (m Map) MinMissing() (int, bool) {
	for i, v := range m {
		if v == nil {
			return i, true
		}
	}
	return 0, false
}

// Reassemble concatenates chunks 0..len(m)-1 in order. It fails with ErrGap
// if any index in that range is unpopulated; reassembly requires a fully
// contiguous set.
func Reassemble(m Map) ([]byte, error) {
	if len(m) == 0 {
		return []byte{}, nil
	}

	total := 0
	for i, v := range m {
		if v == nil {
			return nil, errors.Wrapf(ErrGap, "missing chunk %d", i)
		}
		total += len(v)
	}

	out := make([]byte, 0, total)
	for _, v := range m {
		out = append(out, v...)
	}
	return out, nil
}
