// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mutstats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/mutprofile/editscript"
	"github.com/grailbio/mutprofile/editscript/generate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) editscript.Script {
	s, err := editscript.Parse(text)
	require.NoError(t, err)
	return s
}

func newStats(t *testing.T, opts Opts) *Stats {
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func checkTotals(t *testing.T, s *Stats) {
	var muts int64
	for r := 0; r < nBase; r++ {
		assert.Equal(t, int64(0), s.Substitutions[r][r])
		for q := 0; q < nBase; q++ {
			muts += s.Substitutions[r][q]
		}
	}
	var ins, dels int64
	for b := 0; b < nBase; b++ {
		ins += s.Insertions[b]
		dels += s.Deletions[b]
	}
	assert.Equal(t, muts, s.TotalMutations)
	assert.Equal(t, ins, s.TotalInsertions)
	assert.Equal(t, dels, s.TotalDeletions)
	assert.Equal(t, s.TotalMutations+s.TotalInsertions+s.TotalDeletions, s.Total)
}

func TestOptsValidate(t *testing.T) {
	assert.NoError(t, DefaultOpts.Validate())
	for _, n := range []int{0, -1} {
		_, err := New(Opts{PositionLen: n})
		require.Error(t, err)
		assert.True(t, errors.Is(errors.Invalid, err))
	}
	_, err := New(Opts{PositionLen: 10, Overflow: OverflowPolicy(7)})
	assert.Error(t, err)
}

func TestFoldSubstitutions(t *testing.T) {
	s := newStats(t, DefaultOpts)
	s.Fold(mustParse(t, "8m 1u(AC) 41m 1u(AT) 38m"))
	assert.Equal(t, int64(1), s.Substitution('A', 'C'))
	assert.Equal(t, int64(1), s.Substitution('A', 'T'))
	assert.Equal(t, int64(2), s.TotalMutations)
	assert.Equal(t, int64(2), s.Total)
	assert.Equal(t, int64(87), s.Matches)
	assert.Equal(t, int64(1), s.SubstitutionPositions[8])
	assert.Equal(t, int64(1), s.SubstitutionPositions[50])
	assert.Equal(t, int64(1), s.Records)
	assert.Equal(t, int64(1), s.Aggregated)
	assert.Equal(t, int64(0), s.Skipped)
	checkTotals(t, s)
}

func TestFoldIndels(t *testing.T) {
	s := newStats(t, DefaultOpts)
	s.Fold(mustParse(t, "6m 1iG 2m 1dT 82m"))
	assert.Equal(t, int64(1), s.Insertions[editscript.BaseG])
	assert.Equal(t, int64(1), s.Deletions[editscript.BaseT])
	assert.Equal(t, int64(1), s.InsertionPositions[6])
	// The deletion follows the insertion and two matches.
	assert.Equal(t, int64(1), s.DeletionPositions[9])
	assert.Equal(t, int64(0), s.TotalMutations)
	assert.Equal(t, int64(2), s.Total)
	checkTotals(t, s)
}

func TestFoldN(t *testing.T) {
	s := newStats(t, DefaultOpts)
	s.Fold(mustParse(t, "3u(NAANNN) 2iNA 2dNC 4s 2h 1p"))
	assert.Equal(t, int64(2), s.RefN)
	assert.Equal(t, int64(2), s.ReadN)
	assert.Equal(t, int64(0), s.TotalMutations)
	assert.Equal(t, int64(1), s.Insertions[editscript.BaseX])
	assert.Equal(t, int64(1), s.Deletions[editscript.BaseX])
	assert.Equal(t, int64(1), s.TotalInsertions)
	assert.Equal(t, int64(1), s.TotalDeletions)
	assert.Equal(t, int64(4), s.SoftClipped)
	assert.Equal(t, int64(2), s.HardClipped)
	assert.Equal(t, int64(1), s.Padded)
	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(1), s.SubstitutionPositions[i])
	}
	assert.Equal(t, int64(1), s.InsertionPositions[3])
	assert.Equal(t, int64(1), s.InsertionPositions[4])
	assert.Equal(t, int64(1), s.DeletionPositions[5])
	assert.Equal(t, int64(1), s.DeletionPositions[6])
	checkTotals(t, s)
}

func TestFoldSkippedRegion(t *testing.T) {
	s := newStats(t, DefaultOpts)
	s.Fold(mustParse(t, "2m 1u(GA) 100n 1u(CT) 3m"))
	assert.Equal(t, int64(1), s.Substitution('G', 'A'))
	assert.Equal(t, int64(0), s.Substitution('C', 'T'))
	assert.Equal(t, int64(2), s.Matches)
	assert.Equal(t, int64(100), s.SkippedRef)
	assert.Equal(t, int64(1), s.Records)
	assert.Equal(t, int64(1), s.Skipped)
	assert.Equal(t, int64(1), s.Partial)
	assert.Equal(t, int64(0), s.Aggregated)
	checkTotals(t, s)
}

func TestFoldDegraded(t *testing.T) {
	s := newStats(t, DefaultOpts)
	s.Fold(editscript.Script{Ops: []editscript.Op{{Type: editscript.Match, Len: 50}}, Degraded: true})
	assert.Equal(t, int64(1), s.Degraded)
	assert.Equal(t, int64(50), s.Matches)
	assert.Equal(t, int64(0), s.TotalMutations)
	assert.Equal(t, int64(1), s.Aggregated)
}

func TestAddFailure(t *testing.T) {
	s := newStats(t, DefaultOpts)
	s.AddFailure(&generate.Error{Kind: generate.LengthMismatch, OpIndex: -1})
	s.AddFailure(&generate.Error{Kind: generate.LengthMismatch, OpIndex: -1})
	s.AddFailure(&generate.Error{Kind: generate.Unmapped, OpIndex: -1})
	s.AddFailure(errors.E("something else"))
	assert.Equal(t, int64(4), s.Records)
	assert.Equal(t, int64(4), s.Skipped)
	assert.Equal(t, int64(2), s.Failures[generate.LengthMismatch])
	assert.Equal(t, int64(1), s.Failures[generate.Unmapped])
	assert.Equal(t, int64(0), s.Total)
	assert.Equal(t, int64(0), s.Aggregated)
}

func TestOverflow(t *testing.T) {
	script := mustParse(t, "1u(AC) 2m 2iAC 1dG 1u(TG)")
	drop := newStats(t, Opts{PositionLen: 4, Overflow: OverflowDrop})
	grow := newStats(t, Opts{PositionLen: 4, Overflow: OverflowGrow})
	drop.Fold(script)
	grow.Fold(script)

	// Events sit at positions 0, 3, 4, 5 and 6.
	assert.Equal(t, int64(3), drop.PositionOverflows)
	assert.Equal(t, int64(3), grow.PositionOverflows)
	assert.Len(t, drop.SubstitutionPositions, 4)
	assert.Equal(t, []int64{0, 0, 0, 1}, drop.InsertionPositions)
	require.True(t, len(grow.SubstitutionPositions) >= 7)
	assert.Equal(t, len(grow.SubstitutionPositions), len(grow.InsertionPositions))
	assert.Equal(t, len(grow.SubstitutionPositions), len(grow.DeletionPositions))
	assert.Equal(t, int64(1), grow.InsertionPositions[4])
	assert.Equal(t, int64(1), grow.DeletionPositions[5])
	assert.Equal(t, int64(1), grow.SubstitutionPositions[6])

	// Counters other than the arrays do not depend on the policy.
	assert.Equal(t, drop.Substitutions, grow.Substitutions)
	assert.Equal(t, drop.Insertions, grow.Insertions)
	assert.Equal(t, drop.Deletions, grow.Deletions)
	assert.Equal(t, drop.Checksum, grow.Checksum)
}

var mergeScripts = []string{
	"8m 1u(AC) 41m 1u(AT) 38m",
	"6m 1iG 2m 1dT 82m",
	"3m 1u(TG) 5m",
	"2s 4m 2u(GTCA) 100n 3m",
	"10m 3dACN 2iTN 1u(NA) 5h",
}

func TestMergeMatchesSequentialFold(t *testing.T) {
	opts := Opts{PositionLen: 8, Overflow: OverflowGrow}
	seq := newStats(t, opts)
	for _, text := range mergeScripts {
		seq.Fold(mustParse(t, text))
	}
	seq.AddFailure(&generate.Error{Kind: generate.InconsistentMarker, OpIndex: 1})

	// Fold in reverse order across two partitions, then merge both ways.
	a := newStats(t, opts)
	b := newStats(t, opts)
	for i := len(mergeScripts) - 1; i >= 0; i-- {
		if i%2 == 0 {
			a.Fold(mustParse(t, mergeScripts[i]))
		} else {
			b.Fold(mustParse(t, mergeScripts[i]))
		}
	}
	b.AddFailure(&generate.Error{Kind: generate.InconsistentMarker, OpIndex: 1})

	ab := newStats(t, opts)
	ab.Merge(a)
	ab.Merge(b)
	ba := newStats(t, opts)
	ba.Merge(b)
	ba.Merge(a)

	for _, got := range []*Stats{ab, ba} {
		assert.Equal(t, seq, got)
		checkTotals(t, got)
	}
}

func TestFoldTwiceIndependently(t *testing.T) {
	x := newStats(t, DefaultOpts)
	y := newStats(t, DefaultOpts)
	for _, text := range mergeScripts {
		x.Fold(mustParse(t, text))
		y.Fold(mustParse(t, text))
	}
	assert.Equal(t, x, y)
	assert.NotEqual(t, uint64(0), x.Checksum)
}

func TestMergeGrowsArrays(t *testing.T) {
	short := newStats(t, Opts{PositionLen: 2})
	long := newStats(t, Opts{PositionLen: 5})
	long.Fold(mustParse(t, "4m 1iA"))
	short.Merge(long)
	assert.Len(t, short.InsertionPositions, 5)
	assert.Equal(t, int64(1), short.InsertionPositions[4])
	assert.Equal(t, int64(1), short.TotalInsertions)
}

func TestReset(t *testing.T) {
	s := newStats(t, Opts{PositionLen: 2, Overflow: OverflowGrow})
	s.Fold(mustParse(t, "1u(AC) 3m 1dA"))
	s.Reset()
	assert.Equal(t, newStats(t, Opts{PositionLen: 2, Overflow: OverflowGrow}), s)
	assert.Equal(t, 2, s.Opts().PositionLen)
}

func TestWriteSummary(t *testing.T) {
	s := newStats(t, DefaultOpts)
	s.Fold(mustParse(t, "8m 1u(AC) 41m 1u(AT) 38m"))
	s.Fold(mustParse(t, "6m 1iG 2m 1dT 82m"))
	s.AddFailure(&generate.Error{Kind: generate.LengthMismatch, OpIndex: -1})

	var buf bytes.Buffer
	require.NoError(t, s.WriteSummary(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "#KEY\tVALUE", lines[0])
	for _, want := range []string{
		"records\t3",
		"aggregated\t2",
		"skipped\t1",
		"fail_length_mismatch\t1",
		"fail_unmapped\t0",
		"sub_A>C\t1",
		"sub_A>T\t1",
		"sub_C>A\t0",
		"ins_G\t1",
		"del_T\t1",
		"del_N\t0",
		"total_mutations\t2",
		"total\t4",
	} {
		assert.Contains(t, lines, want)
	}
	// 12 directed substitutions, 5+5 indel counters.
	var nSub int
	for _, line := range lines {
		if strings.HasPrefix(line, "sub_") {
			nSub++
		}
	}
	assert.Equal(t, 12, nSub)
}

func TestWritePositions(t *testing.T) {
	s := newStats(t, Opts{PositionLen: 3})
	s.Fold(mustParse(t, "1m 1u(GA) 1iC"))
	var buf bytes.Buffer
	require.NoError(t, s.WritePositions(&buf))
	assert.Equal(t, "#POS\tSUBSTITUTIONS\tINSERTIONS\tDELETIONS\n0\t0\t0\t0\n1\t1\t0\t0\n2\t0\t1\t0\n", buf.String())
}
