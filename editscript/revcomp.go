// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package editscript

import (
	"github.com/grailbio/base/simd"
)

// ReverseComplement returns the strand-corrected form of s: tokens in reverse
// order, with the bases of Insertion and Deletion tokens reverse-complemented.
// Mismatch tokens have their (ref, read) pairs reversed in order, and both
// members of each pair complemented, so "2u(ACGT)" becomes "2u(CATG)".
//
// The transform is an involution.  s is not modified.
func (s Script) ReverseComplement() Script {
	out := Script{
		Ops:      make([]Op, len(s.Ops)),
		Degraded: s.Degraded,
	}
	last := len(s.Ops) - 1
	for i, op := range s.Ops {
		switch op.Type {
		case Insertion, Deletion:
			op.Bases = reverseComp8(op.Bases)
		case Mismatch:
			op.Bases = reverseCompPairs(op.Bases)
		}
		out.Ops[last-i] = op
	}
	return out
}

func reverseComp8(bases string) string {
	buf := []byte(bases)
	simd.Reverse8Inplace(buf)
	for i, c := range buf {
		buf[i] = complementTable[c]
	}
	return string(buf)
}

func reverseCompPairs(pairs string) string {
	nByte := len(pairs)
	buf := make([]byte, nByte)
	for idx, invIdx := 0, nByte-2; idx < nByte; idx, invIdx = idx+2, invIdx-2 {
		buf[invIdx] = complementTable[pairs[idx]]
		buf[invIdx+1] = complementTable[pairs[idx+1]]
	}
	return string(buf)
}
