// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package generate

import (
	"fmt"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/mutprofile/editscript"
)

// Opts controls Script.
type Opts struct {
	// RequireMD makes a record without an MD tag (or with an empty one) fail
	// with MissingDiffString.  Otherwise such a record yields a Degraded
	// script.
	RequireMD bool
}

// DefaultOpts is the default generator configuration.
var DefaultOpts = Opts{}

// ForRecord is shorthand for Script(FromRecord(r), opts).
func ForRecord(r *sam.Record, opts Opts) (editscript.Script, error) {
	a := FromRecord(r)
	return Script(&a, opts)
}

// walker holds the per-read cursors.  The read cursor is readPos; the MD
// cursor is diff.
type walker struct {
	a       *Alignment
	b       editscript.Builder
	diff    diffCursor
	readPos int
	opIdx   int
}

func (w *walker) fail(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Name:    w.a.Name,
		OpIndex: w.opIdx,
		ReadPos: w.readPos,
		Msg:     fmt.Sprintf(format, args...),
	}
}

func (w *walker) failDiff(de *diffError) *Error {
	return w.fail(de.kind, "%s", de.msg)
}

// Script fuses a's CIGAR and MD tag into a strand-corrected edit-script.
// Failures are always of type *Error.  a is not modified.
func Script(a *Alignment, opts Opts) (editscript.Script, error) {
	if a.Flags&sam.Unmapped != 0 {
		return editscript.Script{}, &Error{Kind: Unmapped, Name: a.Name, OpIndex: -1, Msg: "record is unmapped"}
	}
	if len(a.Cigar) == 0 {
		return editscript.Script{}, &Error{Kind: MissingOperations, Name: a.Name, OpIndex: -1, Msg: "record has no CIGAR"}
	}
	degraded := !a.HasMD || a.MD == ""
	if degraded && opts.RequireMD {
		return editscript.Script{}, &Error{Kind: MissingDiffString, Name: a.Name, OpIndex: -1, Msg: "record has no MD tag"}
	}
	w := walker{a: a, diff: newDiffCursor(a.MD)}
	var err *Error
	for i, co := range a.Cigar {
		w.opIdx = i
		if err = w.step(co.Type(), co.Len(), degraded); err != nil {
			return editscript.Script{}, err
		}
	}
	w.opIdx = -1
	if w.readPos != len(a.Bases) {
		return editscript.Script{}, w.fail(LengthMismatch, "CIGAR consumes %d read bases, read has %d", w.readPos, len(a.Bases))
	}
	if !degraded {
		if w.diff.state == consumingRun {
			return editscript.Script{}, w.fail(LengthMismatch, "MD tag has %d unconsumed matches", w.diff.pending)
		}
		var tok diffToken
		var de *diffError
		if _, tok, de = w.diff.next(); de != nil {
			return editscript.Script{}, w.failDiff(de)
		}
		if tok.kind != diffEnd {
			return editscript.Script{}, w.fail(LengthMismatch, "MD tag %q not fully consumed by CIGAR", a.MD)
		}
	}
	s := w.b.Script(degraded)
	if NeedsStrandCorrection(a.Flags) {
		s = s.ReverseComplement()
	}
	return s, nil
}

// step dispatches one CIGAR operation.
func (w *walker) step(t sam.CigarOpType, n int, degraded bool) *Error {
	if n <= 0 {
		return w.fail(LengthMismatch, "zero-length %v operation", t)
	}
	switch t {
	case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
		if err := w.checkRead(n); err != nil {
			return err
		}
		if degraded {
			w.b.Match(n)
			w.readPos += n
			return nil
		}
		return w.alignBoth(n)
	case sam.CigarInsertion:
		if err := w.checkRead(n); err != nil {
			return err
		}
		bases := w.a.Bases[w.readPos : w.readPos+n]
		if i := editscript.FirstInvalidBase(bases); i >= 0 {
			w.readPos += i
			return w.fail(UnknownBase, "inserted base %q", bases[i])
		}
		w.b.Insertion(bases)
		w.readPos += n
	case sam.CigarDeletion:
		if degraded {
			w.b.Deletion(unknownBases(n))
			return nil
		}
		return w.deletion(n)
	case sam.CigarSoftClipped:
		if err := w.checkRead(n); err != nil {
			return err
		}
		w.b.Other(editscript.SoftClip, n)
		w.readPos += n
	case sam.CigarSkipped:
		w.b.Other(editscript.SkippedRegion, n)
	case sam.CigarHardClipped:
		w.b.Other(editscript.HardClip, n)
	case sam.CigarPadded:
		w.b.Other(editscript.Padding, n)
	default:
		return w.fail(UnknownOperator, "unsupported CIGAR operation %v", t)
	}
	return nil
}

func (w *walker) checkRead(n int) *Error {
	if w.readPos+n > len(w.a.Bases) {
		return w.fail(LengthMismatch, "CIGAR operation of length %d runs past the end of a %d-base read", n, len(w.a.Bases))
	}
	return nil
}

// alignBoth walks n aligned positions, splitting them into match and mismatch
// runs according to the MD tag.
func (w *walker) alignBoth(n int) *Error {
	for n > 0 {
		if w.diff.state == consumingRun {
			var k int
			w.diff, k = w.diff.takeMatches(n)
			w.b.Match(k)
			w.readPos += k
			n -= k
			continue
		}
		next, tok, de := w.diff.next()
		if de != nil {
			return w.failDiff(de)
		}
		switch tok.kind {
		case diffRun:
			w.diff = next
		case diffMismatch:
			ref, read := tok.bases[0], w.a.Bases[w.readPos]
			if !editscript.IsValidBase(read) {
				return w.fail(UnknownBase, "read base %q at a substituted position", read)
			}
			if ref == read {
				return w.fail(InconsistentMarker, "MD tag substitutes %c by itself", ref)
			}
			w.diff = next
			w.b.Mismatch(ref, read)
			w.readPos++
			n--
		case diffDeletion:
			return w.fail(InconsistentMarker, "MD tag has a deletion where the CIGAR aligns %d more bases", n)
		case diffEnd:
			return w.fail(LengthMismatch, "MD tag exhausted with %d aligned bases left", n)
		}
	}
	return nil
}

func (w *walker) deletion(n int) *Error {
	if w.diff.state == consumingRun {
		return w.fail(InconsistentMarker, "CIGAR deletion inside an MD match run")
	}
	next, tok, de := w.diff.next()
	if de != nil {
		return w.failDiff(de)
	}
	switch tok.kind {
	case diffDeletion:
		if len(tok.bases) != n {
			return w.fail(LengthMismatch, "CIGAR deletes %d bases, MD tag deletes %d", n, len(tok.bases))
		}
		w.diff = next
		w.b.Deletion(tok.bases)
		return nil
	case diffEnd:
		return w.fail(LengthMismatch, "MD tag exhausted at a CIGAR deletion")
	}
	return w.fail(InconsistentMarker, "CIGAR deletion without an MD deletion marker")
}

func unknownBases(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'N'
	}
	return b
}
