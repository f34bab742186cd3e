// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package generate

import (
	"fmt"
)

// Kind classifies why no edit-script could be produced for a read.
type Kind int

const (
	// Unmapped means the record has no alignment.
	Unmapped Kind = iota
	// MissingOperations means the record has an empty CIGAR.
	MissingOperations
	// MissingDiffString means the record has no MD tag and Opts.RequireMD is
	// set.
	MissingDiffString
	// LengthMismatch means the CIGAR, the MD tag and the read disagree about
	// how many bases there are.
	LengthMismatch
	// InconsistentMarker means the MD tag holds a deletion where the CIGAR
	// aligns bases, or the reverse, or asserts a substitution of a base by
	// itself.
	InconsistentMarker
	// UnknownBase means a base outside {A,C,G,T,N} was found in a
	// substitution, insertion or deletion.
	UnknownBase
	// UnknownOperator means the CIGAR holds an operation this package does
	// not handle.
	UnknownOperator
	// NumKinds is the number of failure kinds.
	NumKinds
)

var kindNames = [...]string{
	Unmapped:           "unmapped",
	MissingOperations:  "missing_operations",
	MissingDiffString:  "missing_diff_string",
	LengthMismatch:     "length_mismatch",
	InconsistentMarker: "inconsistent_marker",
	UnknownBase:        "unknown_base",
	UnknownOperator:    "unknown_operator",
}

// String returns a stable snake_case name for k, suitable as a report key.
func (k Kind) String() string {
	if k < 0 || k >= NumKinds {
		return fmt.Sprintf("kind%d", int(k))
	}
	return kindNames[k]
}

// Error is returned by Script when a read cannot be converted.
type Error struct {
	Kind Kind
	// Name is the read name.
	Name string
	// OpIndex is the index of the offending CIGAR operation, or -1 when the
	// failure is not tied to one.
	OpIndex int
	// ReadPos is the read cursor at the time of the failure.
	ReadPos int
	Msg     string
}

// Error implements error.
func (e *Error) Error() string {
	if e.OpIndex < 0 {
		return fmt.Sprintf("generate: read %s: %v: %s", e.Name, e.Kind, e.Msg)
	}
	return fmt.Sprintf("generate: read %s: %v at cigar op %d, read pos %d: %s", e.Name, e.Kind, e.OpIndex, e.ReadPos, e.Msg)
}

// KindOf returns the failure kind of err.  ok is false if err was not
// produced by this package.
func KindOf(err error) (kind Kind, ok bool) {
	e, ok := err.(*Error)
	if !ok {
		return 0, false
	}
	return e.Kind, true
}
