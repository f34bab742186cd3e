// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mutprofile

import (
	"fmt"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/mutprofile/editscript/generate"
	"github.com/grailbio/mutprofile/mutstats"
)

// Opts configures Profile.
type Opts struct {
	// FlagExclude drops records whose FLAG intersects it.
	FlagExclude int
	// Mapq drops records with a lower mapping quality.
	Mapq int
	// SampleFraction keeps this fraction of read names, chosen by hash so that
	// mates stay together.  1 keeps everything.
	SampleFraction float64
	// Parallelism is the number of generation workers; 0 means
	// runtime.NumCPU().
	Parallelism int
	// BatchSize is the number of records handed to a worker at a time.
	BatchSize int
	// RequireMD makes records without an MD tag fail instead of being
	// profiled with reduced fidelity.
	RequireMD bool
	// PositionLen is the length of the per-position arrays.
	PositionLen int
	// GrowPositions extends the per-position arrays to cover long reads
	// instead of dropping out-of-range events.
	GrowPositions bool
	// ScriptsOut also writes every record's edit-script, in input order, to
	// <prefix>.editscripts.tsv.
	ScriptsOut bool
	// Gzip compresses every output and appends ".gz" to its name.
	Gzip bool
}

// DefaultOpts is the default configuration.
var DefaultOpts = Opts{
	FlagExclude:    0xf00,
	Mapq:           0,
	SampleFraction: 1,
	Parallelism:    0,
	BatchSize:      4096,
	RequireMD:      false,
	PositionLen:    mutstats.DefaultOpts.PositionLen,
	GrowPositions:  false,
	ScriptsOut:     false,
	Gzip:           false,
}

func (o *Opts) validate() error {
	if o.SampleFraction <= 0 || o.SampleFraction > 1 {
		return errors.E(errors.Invalid, fmt.Sprintf("mutprofile: sample fraction must be in (0, 1], got %v", o.SampleFraction))
	}
	if o.BatchSize <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("mutprofile: batch size must be positive, got %d", o.BatchSize))
	}
	if o.Parallelism < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("mutprofile: parallelism must be non-negative, got %d", o.Parallelism))
	}
	return o.statsOpts().Validate()
}

func (o *Opts) parallelism() int {
	if o.Parallelism == 0 {
		return runtime.NumCPU()
	}
	return o.Parallelism
}

func (o *Opts) statsOpts() mutstats.Opts {
	so := mutstats.Opts{PositionLen: o.PositionLen, Overflow: mutstats.OverflowDrop}
	if o.GrowPositions {
		so.Overflow = mutstats.OverflowGrow
	}
	return so
}

func (o *Opts) generateOpts() generate.Opts {
	return generate.Opts{RequireMD: o.RequireMD}
}
