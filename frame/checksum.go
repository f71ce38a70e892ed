package frame

import "hash/crc64"

var checksumTable = crc64.MakeTable(crc64.ISO)

// checksum computes the CRC-64 digest over the canonical textual tuple
// rendering of (version, requestType, sequence, payload), then writes it
// into an 8-byte big-endian field — the hex digest decoded into raw bytes
// most-significant-byte-first, reproduced here directly from the integer.
//
// The protocol's CRC-64 is the crc64iso convention: the ISO-3309
// polynomial run with init = 0 and no final complement, not the stdlib
// hash/crc64 convention (init = ^0, final XOR = ^crc — see
// hash/crc64.update). crc64.Checksum applies that stdlib convention, so it
// can't be reused directly here; this runs the same reflected table-driven
// update by hand with init left at 0 and no final complement, producing
// the bytes a remote peer expects.
func checksum(version uint8, requestType RequestType, sequence int32, payload []byte) [8]byte {
	data := []byte(canonicalTuple(version, requestType, sequence, payload))

	var sum uint64
	for _, b := range data {
		sum = checksumTable[byte(sum)^b] ^ (sum >> 8)
	}

	var out [8]byte
	for i := 7; i >= 0; i-- {
		out[i] = byte(sum)
		sum >>= 8
	}
	return out
}
