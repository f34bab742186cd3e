// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package editscript

// These constants double as array indices for per-base counters.  The
// A/C/G/T values are the natural 2-bit packing; BaseX is the catch-all and
// is rendered as 'N'.
const (
	// BaseA represents an A base.
	BaseA byte = iota
	// BaseC represents an C base.
	BaseC
	// BaseG represents an G base.
	BaseG
	// BaseT represents an T base.
	BaseT
	// BaseX represents N.
	BaseX
)

const (
	// NBase is the number of regular base types.
	NBase = 4
	// NBaseEnum counts BaseX as well as the regular base types.
	NBaseEnum = 5
)

// badBase marks bytes outside {A,C,G,T,N} in asciiToEnumTable.
const badBase = 0xff

// EnumToASCIITable is the A/C/G/T/X -> ASCII mapping, with X rendered as 'N'.
var EnumToASCIITable = [...]byte{'A', 'C', 'G', 'T', 'N'}

var (
	asciiToEnumTable [256]byte
	complementTable  [256]byte
)

func init() {
	for i := range asciiToEnumTable {
		asciiToEnumTable[i] = badBase
		complementTable[i] = byte(i)
	}
	for enum, c := range EnumToASCIITable {
		asciiToEnumTable[c] = byte(enum)
	}
	complementTable['A'] = 'T'
	complementTable['C'] = 'G'
	complementTable['G'] = 'C'
	complementTable['T'] = 'A'
}

// BaseToEnum returns the A/C/G/T/X enum value of an upper-case ASCII base.
// ok is false when b is not one of 'A', 'C', 'G', 'T', 'N'.
func BaseToEnum(b byte) (enum byte, ok bool) {
	enum = asciiToEnumTable[b]
	return enum, enum != badBase
}

// IsValidBase returns true iff b is one of 'A', 'C', 'G', 'T', 'N'.
func IsValidBase(b byte) bool {
	return asciiToEnumTable[b] != badBase
}

// Complement maps 'A'<->'T' and 'C'<->'G'.  Every other byte, including
// 'N', is returned unchanged.
func Complement(b byte) byte {
	return complementTable[b]
}

// FirstInvalidBase returns the index of the first byte of s that is not a
// valid base, or -1 if there is none.
func FirstInvalidBase(s []byte) int {
	for i, c := range s {
		if asciiToEnumTable[c] == badBase {
			return i
		}
	}
	return -1
}
