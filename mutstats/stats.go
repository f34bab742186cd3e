// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package mutstats accumulates substitution, indel and per-read-position
// statistics over edit-scripts.
package mutstats

import (
	"blainsmith.com/go/seahash"
	"github.com/grailbio/mutprofile/editscript"
	"github.com/grailbio/mutprofile/editscript/generate"
)

const (
	nBase     = editscript.NBase
	nBaseEnum = editscript.NBaseEnum
	baseX     = editscript.BaseX
)

// Stats holds the running counters of one aggregation.  A Stats is not safe
// for concurrent use; give each worker its own and Merge them.
type Stats struct {
	opts Opts

	// Substitutions[ref][read] counts directed substitutions between
	// regular bases.  The diagonal is always zero.
	Substitutions [nBase][nBase]int64
	// Insertions and Deletions are indexed by base enum; index BaseX counts
	// N.
	Insertions [nBaseEnum]int64
	Deletions  [nBaseEnum]int64
	// RefN and ReadN count mismatched positions whose reference or read base
	// is N.  Such positions do not reach Substitutions.
	RefN  int64
	ReadN int64

	Matches     int64
	SoftClipped int64
	HardClipped int64
	Padded      int64
	// SkippedRef is the length of skipped-region tokens that ended a fold.
	SkippedRef int64

	// Derived totals, maintained by every mutating method.  N counters are
	// excluded.
	TotalMutations  int64
	TotalInsertions int64
	TotalDeletions  int64
	Total           int64

	// Per-read-position event counts.  The three slices always have the same
	// length.
	SubstitutionPositions []int64
	InsertionPositions    []int64
	DeletionPositions     []int64
	// PositionOverflows counts events at positions >= Opts.PositionLen,
	// whether or not the arrays were grown to hold them.
	PositionOverflows int64

	// Records is the number of records offered via Fold or AddFailure.
	Records int64
	// Filtered is the number of records rejected before generation.  They
	// are not included in Records.
	Filtered int64
	// Aggregated is the number of scripts folded to completion.
	Aggregated int64
	// Skipped is the number of records that failed generation, plus those
	// cut short by a skipped region.
	Skipped int64
	// Partial is the number of scripts cut short by a skipped region.
	Partial int64
	// Degraded is the number of folded scripts generated without an MD tag.
	Degraded int64
	// Failures counts generation failures by kind.  Failures of unknown
	// origin are only counted in Skipped.
	Failures [generate.NumKinds]int64

	// Checksum is the wrapping sum of the seahash of every folded script's
	// text.  It does not depend on fold order.
	Checksum uint64
}

// New returns an empty Stats.
func New(opts Opts) (*Stats, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Stats{opts: opts}
	s.Reset()
	return s, nil
}

// Opts returns the configuration s was created with.
func (s *Stats) Opts() Opts { return s.opts }

// Reset clears every counter.  The position arrays return to the
// configured length.
func (s *Stats) Reset() {
	*s = Stats{
		opts:                  s.opts,
		SubstitutionPositions: make([]int64, s.opts.PositionLen),
		InsertionPositions:    make([]int64, s.opts.PositionLen),
		DeletionPositions:     make([]int64, s.opts.PositionLen),
	}
}

// Substitution returns the count of ref->read substitutions, given ASCII
// bases.  It returns 0 for pairs involving anything but A, C, G, T.
func (s *Stats) Substitution(ref, read byte) int64 {
	r, ok0 := editscript.BaseToEnum(ref)
	q, ok1 := editscript.BaseToEnum(read)
	if !ok0 || !ok1 || r == baseX || q == baseX {
		return 0
	}
	return s.Substitutions[r][q]
}

// AddFailure records a record for which generation failed.
func (s *Stats) AddFailure(err error) {
	s.Records++
	s.Skipped++
	if kind, ok := generate.KindOf(err); ok {
		s.Failures[kind]++
	}
}

// Fold adds script to the counters.  A SkippedRegion token stops the fold,
// leaving the counters of the tokens before it in place, and marks the
// record Skipped and Partial.
func (s *Stats) Fold(script editscript.Script) {
	s.Records++
	if script.Degraded {
		s.Degraded++
	}
	s.Checksum += seahash.Sum64([]byte(script.String()))
	defer s.updateTotals()

	pos := 0
	for _, op := range script.Ops {
		switch op.Type {
		case editscript.Match:
			s.Matches += int64(op.Len)
			pos += op.Len
		case editscript.Mismatch:
			for i := 0; i+1 < len(op.Bases); i += 2 {
				s.addMismatch(op.Bases[i], op.Bases[i+1])
				s.addPosition(subPositions, pos)
				pos++
			}
		case editscript.Insertion:
			for i := 0; i < len(op.Bases); i++ {
				s.Insertions[enumOrX(op.Bases[i])]++
				s.addPosition(insPositions, pos)
				pos++
			}
		case editscript.Deletion:
			for i := 0; i < len(op.Bases); i++ {
				s.Deletions[enumOrX(op.Bases[i])]++
				s.addPosition(delPositions, pos)
				pos++
			}
		case editscript.SkippedRegion:
			s.SkippedRef += int64(op.Len)
			s.Skipped++
			s.Partial++
			return
		case editscript.SoftClip:
			s.SoftClipped += int64(op.Len)
		case editscript.HardClip:
			s.HardClipped += int64(op.Len)
		case editscript.Padding:
			s.Padded += int64(op.Len)
		}
	}
	s.Aggregated++
}

func enumOrX(b byte) byte {
	if e, ok := editscript.BaseToEnum(b); ok {
		return e
	}
	return baseX
}

func (s *Stats) addMismatch(ref, read byte) {
	r, q := enumOrX(ref), enumOrX(read)
	if r == baseX || q == baseX {
		if r == baseX {
			s.RefN++
		}
		if q == baseX {
			s.ReadN++
		}
		return
	}
	if r == q {
		// Not a substitution; only hand-built scripts get here.
		s.Matches++
		return
	}
	s.Substitutions[r][q]++
}

const (
	subPositions = iota
	insPositions
	delPositions
)

func (s *Stats) positions(which int) []int64 {
	switch which {
	case insPositions:
		return s.InsertionPositions
	case delPositions:
		return s.DeletionPositions
	}
	return s.SubstitutionPositions
}

// addPosition counts one event at in-read position pos.
func (s *Stats) addPosition(which, pos int) {
	if pos >= s.opts.PositionLen {
		s.PositionOverflows++
	}
	if pos >= len(s.SubstitutionPositions) {
		if s.opts.Overflow != OverflowGrow {
			return
		}
		s.growPositions(pos + 1)
	}
	s.positions(which)[pos]++
}

// growPositions extends the position arrays to at least n entries.
func (s *Stats) growPositions(n int) {
	extra := n - len(s.SubstitutionPositions)
	if extra <= 0 {
		return
	}
	pad := make([]int64, extra)
	s.SubstitutionPositions = append(s.SubstitutionPositions, pad...)
	s.InsertionPositions = append(s.InsertionPositions, pad...)
	s.DeletionPositions = append(s.DeletionPositions, pad...)
}

func (s *Stats) updateTotals() {
	s.TotalMutations = 0
	for r := 0; r < nBase; r++ {
		for q := 0; q < nBase; q++ {
			s.TotalMutations += s.Substitutions[r][q]
		}
	}
	s.TotalInsertions = 0
	s.TotalDeletions = 0
	for b := 0; b < nBase; b++ {
		s.TotalInsertions += s.Insertions[b]
		s.TotalDeletions += s.Deletions[b]
	}
	s.Total = s.TotalMutations + s.TotalInsertions + s.TotalDeletions
}

// Merge adds the counters of other to s.  Position arrays are extended to
// the longer of the two.  other is not modified.
func (s *Stats) Merge(other *Stats) {
	for r := range s.Substitutions {
		for q := range s.Substitutions[r] {
			s.Substitutions[r][q] += other.Substitutions[r][q]
		}
	}
	for b := range s.Insertions {
		s.Insertions[b] += other.Insertions[b]
		s.Deletions[b] += other.Deletions[b]
	}
	s.RefN += other.RefN
	s.ReadN += other.ReadN
	s.Matches += other.Matches
	s.SoftClipped += other.SoftClipped
	s.HardClipped += other.HardClipped
	s.Padded += other.Padded
	s.SkippedRef += other.SkippedRef

	s.growPositions(len(other.SubstitutionPositions))
	for i := range other.SubstitutionPositions {
		s.SubstitutionPositions[i] += other.SubstitutionPositions[i]
		s.InsertionPositions[i] += other.InsertionPositions[i]
		s.DeletionPositions[i] += other.DeletionPositions[i]
	}
	s.PositionOverflows += other.PositionOverflows

	s.Records += other.Records
	s.Filtered += other.Filtered
	s.Aggregated += other.Aggregated
	s.Skipped += other.Skipped
	s.Partial += other.Partial
	s.Degraded += other.Degraded
	for k := range s.Failures {
		s.Failures[k] += other.Failures[k]
	}
	s.Checksum += other.Checksum
	s.updateTotals()
}
