// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package editscript

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// OpType is the operator of an edit-script token.
type OpType uint8

const (
	// Match is a run of aligned bases that agree with the reference.
	Match OpType = iota
	// Mismatch is a run of aligned bases that differ from the reference.
	Mismatch
	// Insertion is a run of read bases absent from the reference.
	Insertion
	// Deletion is a run of reference bases absent from the read.
	Deletion
	// SkippedRegion is a reference region skipped by the alignment (e.g. an
	// intron).
	SkippedRegion
	// SoftClip is a run of read bases present in the read but not aligned.
	SoftClip
	// HardClip is a run of bases removed from the read.
	HardClip
	// Padding is a silent deletion from a padded reference.
	Padding
	nOpType
)

var opSymbols = [...]byte{'m', 'u', 'i', 'd', 'n', 's', 'h', 'p'}

// consume describes which sequences an OpType advances over.
type consume struct {
	read, ref bool
}

var consumes = [...]consume{
	Match:         {read: true, ref: true},
	Mismatch:      {read: true, ref: true},
	Insertion:     {read: true},
	Deletion:      {ref: true},
	SkippedRegion: {ref: true},
	SoftClip:      {read: true},
	HardClip:      {},
	Padding:       {},
}

// String returns the one-letter symbol of t.
func (t OpType) String() string {
	if t >= nOpType {
		return "?"
	}
	return string(opSymbols[t])
}

// ConsumesRead returns true iff tokens of type t advance over read bases.
func (t OpType) ConsumesRead() bool { return t < nOpType && consumes[t].read }

// ConsumesRef returns true iff tokens of type t advance over reference bases.
func (t OpType) ConsumesRef() bool { return t < nOpType && consumes[t].ref }

// HasBases returns true iff tokens of type t carry literal bases.
func (t OpType) HasBases() bool {
	return t == Mismatch || t == Insertion || t == Deletion
}

// opTypeFromSymbol is the inverse of OpType.String.
func opTypeFromSymbol(c byte) (OpType, bool) {
	for i, s := range opSymbols {
		if s == c {
			return OpType(i), true
		}
	}
	return nOpType, false
}

// Op is one edit-script token.  It is a value type: Bases is a string so
// that tokens can be shared freely once constructed.
//
// For Mismatch, Bases holds Len (reference, read) pairs, e.g. "AC" for a
// single A->C substitution.  For Insertion it holds the inserted read bases,
// and for Deletion the deleted reference bases.  For every other type Bases
// is empty.
type Op struct {
	Type  OpType
	Len   int
	Bases string
}

// NewOp returns an Op after checking the token invariants.
func NewOp(t OpType, n int, bases string) (Op, error) {
	op := Op{Type: t, Len: n, Bases: bases}
	if err := op.Validate(); err != nil {
		return Op{}, err
	}
	return op, nil
}

// Validate checks that op satisfies the token invariants.
func (op Op) Validate() error {
	if op.Type >= nOpType {
		return errors.E(errors.Invalid, fmt.Sprintf("editscript: unknown operator %d", op.Type))
	}
	if op.Len <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("editscript: %s token has non-positive length %d", op.Type, op.Len))
	}
	want := 0
	switch op.Type {
	case Mismatch:
		want = 2 * op.Len
	case Insertion, Deletion:
		want = op.Len
	}
	if len(op.Bases) != want {
		return errors.E(errors.Invalid, fmt.Sprintf("editscript: %d%s token carries %d bases, want %d", op.Len, op.Type, len(op.Bases), want))
	}
	for i := 0; i < len(op.Bases); i++ {
		if !IsValidBase(op.Bases[i]) {
			return errors.E(errors.Invalid, fmt.Sprintf("editscript: %d%s token has invalid base %q", op.Len, op.Type, op.Bases[i]))
		}
	}
	return nil
}

// String renders op as e.g. "8m", "1u(AC)", "2iGT" or "1dT".
func (op Op) String() string {
	switch op.Type {
	case Mismatch:
		return fmt.Sprintf("%d%s(%s)", op.Len, op.Type, op.Bases)
	case Insertion, Deletion:
		return fmt.Sprintf("%d%s%s", op.Len, op.Type, op.Bases)
	}
	return fmt.Sprintf("%d%s", op.Len, op.Type)
}
