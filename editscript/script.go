// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package editscript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Script is the edit-script of one read: its ordered tokens, plus whether it
// was produced without a reference-diff string.  A Degraded script cannot
// distinguish matches from mismatches, and its Deletion tokens carry 'N'
// bases.
//
// Scripts are not modified after construction; ReverseComplement returns a
// new Script.
type Script struct {
	Ops      []Op
	Degraded bool
}

// RefLen returns the number of reference bases spanned by s.
func (s Script) RefLen() int {
	n := 0
	for _, op := range s.Ops {
		if op.Type.ConsumesRef() {
			n += op.Len
		}
	}
	return n
}

// ReadLen returns the number of read bases consumed by s.  For a script
// returned by the generator this equals the length of the read.
func (s Script) ReadLen() int {
	n := 0
	for _, op := range s.Ops {
		if op.Type.ConsumesRead() {
			n += op.Len
		}
	}
	return n
}

// Equal returns true iff s and o have the same tokens and Degraded flag.
func (s Script) Equal(o Script) bool {
	if s.Degraded != o.Degraded || len(s.Ops) != len(o.Ops) {
		return false
	}
	for i := range s.Ops {
		if s.Ops[i] != o.Ops[i] {
			return false
		}
	}
	return true
}

// String renders s as space-separated tokens, e.g. "8m 1u(AC) 41m".
func (s Script) String() string {
	var sb strings.Builder
	for i, op := range s.Ops {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(op.String())
	}
	return sb.String()
}

// Parse is the inverse of Script.String.  The returned script is never
// Degraded.
func Parse(text string) (Script, error) {
	var s Script
	for _, field := range strings.Fields(text) {
		op, err := parseOp(field)
		if err != nil {
			return Script{}, err
		}
		s.Ops = append(s.Ops, op)
	}
	return s, nil
}

func parseOp(field string) (Op, error) {
	i := 0
	for i < len(field) && field[i] >= '0' && field[i] <= '9' {
		i++
	}
	if i == 0 || i == len(field) {
		return Op{}, errors.E(errors.Invalid, fmt.Sprintf("editscript.Parse: malformed token %q", field))
	}
	n, err := strconv.Atoi(field[:i])
	if err != nil {
		return Op{}, errors.E(errors.Invalid, err, fmt.Sprintf("editscript.Parse: malformed token %q", field))
	}
	t, ok := opTypeFromSymbol(field[i])
	if !ok {
		return Op{}, errors.E(errors.Invalid, fmt.Sprintf("editscript.Parse: unknown operator in %q", field))
	}
	bases := field[i+1:]
	if t == Mismatch {
		if len(bases) < 2 || bases[0] != '(' || bases[len(bases)-1] != ')' {
			return Op{}, errors.E(errors.Invalid, fmt.Sprintf("editscript.Parse: mismatch token %q lacks (ref,read) pairs", field))
		}
		bases = bases[1 : len(bases)-1]
	}
	return NewOp(t, n, bases)
}

// Builder accumulates the tokens of one read.  Adjacent Match tokens and
// adjacent Mismatch tokens are coalesced; nothing else is.
//
// The zero value is ready to use.
type Builder struct {
	ops []Op
	// mismatch holds the (ref, read) pairs of the open Mismatch run, if any.
	mismatch []byte
}

func (b *Builder) flushMismatch() {
	if len(b.mismatch) == 0 {
		return
	}
	b.ops = append(b.ops, Op{Type: Mismatch, Len: len(b.mismatch) / 2, Bases: string(b.mismatch)})
	b.mismatch = b.mismatch[:0]
}

// Match appends a run of n matching bases.
func (b *Builder) Match(n int) {
	if n <= 0 {
		return
	}
	b.flushMismatch()
	if last := len(b.ops) - 1; last >= 0 && b.ops[last].Type == Match {
		b.ops[last].Len += n
		return
	}
	b.ops = append(b.ops, Op{Type: Match, Len: n})
}

// Mismatch appends one substituted position.
func (b *Builder) Mismatch(ref, read byte) {
	b.mismatch = append(b.mismatch, ref, read)
}

// Insertion appends the inserted read bases.
func (b *Builder) Insertion(bases []byte) {
	b.withBases(Insertion, bases)
}

// Deletion appends the deleted reference bases.
func (b *Builder) Deletion(bases []byte) {
	b.withBases(Deletion, bases)
}

func (b *Builder) withBases(t OpType, bases []byte) {
	if len(bases) == 0 {
		return
	}
	b.flushMismatch()
	b.ops = append(b.ops, Op{Type: t, Len: len(bases), Bases: string(bases)})
}

// Other appends a token of a type that carries no bases (SkippedRegion,
// SoftClip, HardClip, Padding).
func (b *Builder) Other(t OpType, n int) {
	if n <= 0 {
		return
	}
	if t.HasBases() || t == Match {
		panic(fmt.Sprintf("Builder.Other: %s tokens need a dedicated method", t))
	}
	b.flushMismatch()
	b.ops = append(b.ops, Op{Type: t, Len: n})
}

// Script returns the accumulated script and resets b.
func (b *Builder) Script(degraded bool) Script {
	b.flushMismatch()
	s := Script{Ops: b.ops, Degraded: degraded}
	b.ops = nil
	return s
}
