// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package editscript defines the fused per-read alignment description used by
// the mutation profiler: an ordered sequence of typed tokens, each carrying
// the literal bases involved in a substitution, insertion or deletion.
//
// Scripts are produced by package generate, which walks a read's CIGAR and MD
// tag together, and consumed by package mutstats.
package editscript
