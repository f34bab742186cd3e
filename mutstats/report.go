// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mutstats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/mutprofile/editscript"
	"github.com/grailbio/mutprofile/editscript/generate"
)

type row struct {
	key string
	val int64
}

func writeRow(w *tsv.Writer, key string, val int64) error {
	w.WriteString(key)
	w.WriteString(strconv.FormatInt(val, 10))
	return w.EndLine()
}

// WriteSummary writes s as a two-column key/value TSV.  Keys are stable:
// substitutions are "sub_A>C", per-base indels "ins_A" and "del_N", and
// generation failures "fail_<kind>".
func (s *Stats) WriteSummary(out io.Writer) error {
	w := tsv.NewWriter(out)
	w.WriteString("#KEY\tVALUE")
	if err := w.EndLine(); err != nil {
		return errors.E(err, "mutstats: write summary")
	}
	rows := []row{
		{"records", s.Records},
		{"filtered", s.Filtered},
		{"aggregated", s.Aggregated},
		{"skipped", s.Skipped},
		{"partial", s.Partial},
		{"degraded", s.Degraded},
	}
	for k := generate.Kind(0); k < generate.NumKinds; k++ {
		rows = append(rows, row{"fail_" + k.String(), s.Failures[k]})
	}
	for _, r := range rows {
		if err := writeRow(w, r.key, r.val); err != nil {
			return errors.E(err, "mutstats: write summary")
		}
	}
	for r := 0; r < nBase; r++ {
		for q := 0; q < nBase; q++ {
			if r == q {
				continue
			}
			key := fmt.Sprintf("sub_%c>%c", editscript.EnumToASCIITable[r], editscript.EnumToASCIITable[q])
			if err := writeRow(w, key, s.Substitutions[r][q]); err != nil {
				return errors.E(err, "mutstats: write summary")
			}
		}
	}
	for b := 0; b < nBaseEnum; b++ {
		if err := writeRow(w, fmt.Sprintf("ins_%c", editscript.EnumToASCIITable[b]), s.Insertions[b]); err != nil {
			return errors.E(err, "mutstats: write summary")
		}
	}
	for b := 0; b < nBaseEnum; b++ {
		if err := writeRow(w, fmt.Sprintf("del_%c", editscript.EnumToASCIITable[b]), s.Deletions[b]); err != nil {
			return errors.E(err, "mutstats: write summary")
		}
	}
	rows = []row{
		{"ref_n", s.RefN},
		{"read_n", s.ReadN},
		{"matches", s.Matches},
		{"soft_clipped", s.SoftClipped},
		{"hard_clipped", s.HardClipped},
		{"padded", s.Padded},
		{"skipped_ref", s.SkippedRef},
		{"total_mutations", s.TotalMutations},
		{"total_insertions", s.TotalInsertions},
		{"total_deletions", s.TotalDeletions},
		{"total", s.Total},
		{"position_overflows", s.PositionOverflows},
	}
	for _, r := range rows {
		if err := writeRow(w, r.key, r.val); err != nil {
			return errors.E(err, "mutstats: write summary")
		}
	}
	w.WriteString("checksum")
	w.WriteString(fmt.Sprintf("%016x", s.Checksum))
	if err := w.EndLine(); err != nil {
		return errors.E(err, "mutstats: write summary")
	}
	if err := w.Flush(); err != nil {
		return errors.E(err, "mutstats: write summary")
	}
	return nil
}

// WritePositions writes one row per in-read position with the substitution,
// insertion and deletion counts at that position.  Positions are 0-based.
func (s *Stats) WritePositions(out io.Writer) error {
	w := tsv.NewWriter(out)
	w.WriteString("#POS\tSUBSTITUTIONS\tINSERTIONS\tDELETIONS")
	if err := w.EndLine(); err != nil {
		return errors.E(err, "mutstats: write positions")
	}
	for i := range s.SubstitutionPositions {
		w.WriteUint32(uint32(i))
		w.WriteString(strconv.FormatInt(s.SubstitutionPositions[i], 10))
		w.WriteString(strconv.FormatInt(s.InsertionPositions[i], 10))
		w.WriteString(strconv.FormatInt(s.DeletionPositions[i], 10))
		if err := w.EndLine(); err != nil {
			return errors.E(err, "mutstats: write positions")
		}
	}
	if err := w.Flush(); err != nil {
		return errors.E(err, "mutstats: write positions")
	}
	return nil
}
