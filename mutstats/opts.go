// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mutstats

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// OverflowPolicy selects what happens to a position-indexed event past the
// end of the position arrays.  Either way the event is counted in
// Stats.PositionOverflows.
type OverflowPolicy int

const (
	// OverflowDrop leaves the arrays at their configured length; the
	// out-of-range event is not indexed.
	OverflowDrop OverflowPolicy = iota
	// OverflowGrow extends the arrays to cover the event.
	OverflowGrow
)

// Opts configures a Stats.
type Opts struct {
	// PositionLen is the initial length of the per-position arrays.
	PositionLen int
	Overflow    OverflowPolicy
}

// DefaultOpts is the default aggregator configuration.
var DefaultOpts = Opts{
	PositionLen: 150,
	Overflow:    OverflowDrop,
}

// Validate returns an errors.Invalid error if o cannot be used.
func (o Opts) Validate() error {
	if o.PositionLen <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("mutstats: position array length must be positive, got %d", o.PositionLen))
	}
	if o.Overflow != OverflowDrop && o.Overflow != OverflowGrow {
		return errors.E(errors.Invalid, fmt.Sprintf("mutstats: unknown overflow policy %d", o.Overflow))
	}
	return nil
}
