// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

/*
bio-mutprofile fuses the CIGAR and MD tag of every read in a BAM or SAM file
into an edit-script, and reports directed substitution counts, indel base
composition and per-read-position event densities.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/mutprofile/mutprofile"
)

var (
	flagExclude    = flag.Int("flag-exclude", mutprofile.DefaultOpts.FlagExclude, "Reads with a FLAG bit intersecting this value are skipped")
	mapq           = flag.Int("mapq", mutprofile.DefaultOpts.Mapq, "Reads with MAPQ below this level are skipped")
	sampleFraction = flag.Float64("sample-fraction", mutprofile.DefaultOpts.SampleFraction, "Fraction of read names to profile, chosen by hash; mates are kept together")
	parallelism    = flag.Int("parallelism", mutprofile.DefaultOpts.Parallelism, "Number of edit-script workers; 0 = runtime.NumCPU()")
	batchSize      = flag.Int("batch-size", mutprofile.DefaultOpts.BatchSize, "Number of reads handed to a worker at a time")
	requireMD      = flag.Bool("require-md", mutprofile.DefaultOpts.RequireMD, "Skip reads without an MD tag instead of profiling them with reduced fidelity")
	positionLen    = flag.Int("position-len", mutprofile.DefaultOpts.PositionLen, "Length of the per-read-position arrays")
	growPositions  = flag.Bool("grow-positions", mutprofile.DefaultOpts.GrowPositions, "Extend the per-read-position arrays for longer reads instead of dropping out-of-range events")
	scriptsOut     = flag.Bool("editscripts", mutprofile.DefaultOpts.ScriptsOut, "Also write every read's edit-script to <out>.editscripts.tsv")
	gzipOut        = flag.Bool("gzip", mutprofile.DefaultOpts.Gzip, "Gzip-compress outputs")
	outPrefix      = flag.String("out", "bio-mutprofile", "Output path prefix")
)

func bioMutprofileUsage() {
	fmt.Printf("Usage: %s [OPTIONS] {b,s}ampath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioMutprofileUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Expected exactly one positional argument ({b,s}ampath); please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	ctx := vcontext.Background()
	opts := mutprofile.Opts{
		FlagExclude:    *flagExclude,
		Mapq:           *mapq,
		SampleFraction: *sampleFraction,
		Parallelism:    *parallelism,
		BatchSize:      *batchSize,
		RequireMD:      *requireMD,
		PositionLen:    *positionLen,
		GrowPositions:  *growPositions,
		ScriptsOut:     *scriptsOut,
		Gzip:           *gzipOut,
	}
	if _, err := mutprofile.Profile(ctx, flag.Arg(0), *outPrefix, opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
