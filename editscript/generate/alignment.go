// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package generate

import (
	"bytes"

	"github.com/grailbio/hts/sam"
)

var mdTag = sam.Tag{'M', 'D'}

// Alignment holds the parts of an alignment record the generator reads.
type Alignment struct {
	Name string
	// Bases are the read base calls, upper case.
	Bases []byte
	Cigar sam.Cigar
	// MD is the reference-diff string; HasMD distinguishes an absent tag
	// from an empty one.
	MD    string
	HasMD bool
	Flags sam.Flags
}

// FromRecord extracts an Alignment from r.  r is not modified, and the
// returned value shares no mutable state with it.
func FromRecord(r *sam.Record) Alignment {
	a := Alignment{
		Name:  r.Name,
		Cigar: r.Cigar,
		Flags: r.Flags,
		Bases: bytes.ToUpper(r.Seq.Expand()),
	}
	if aux := r.AuxFields.Get(mdTag); aux != nil {
		if md, ok := aux.Value().(string); ok {
			a.MD = md
			a.HasMD = true
		}
	}
	return a
}

// NeedsStrandCorrection returns true iff a record with the given flags has
// to be reverse-complemented before aggregation: paired first segments on the
// reverse strand, paired second segments on the forward strand, and unpaired
// reads on the reverse strand.
func NeedsStrandCorrection(flags sam.Flags) bool {
	reverse := flags&sam.Reverse != 0
	if flags&sam.Paired == 0 {
		return reverse
	}
	switch {
	case flags&sam.Read1 != 0:
		return reverse
	case flags&sam.Read2 != 0:
		return !reverse
	}
	return false
}
