// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mutprofile

import (
	"context"
	"io"
	"strings"
	"sync"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/mutprofile/editscript/generate"
	"github.com/grailbio/mutprofile/mutstats"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// recordReader is implemented by both sam.Reader and bam.Reader.
type recordReader interface {
	Read() (*sam.Record, error)
}

type sliceReader struct {
	records []*sam.Record
}

func (r *sliceReader) Read() (*sam.Record, error) {
	if len(r.records) == 0 {
		return nil, io.EOF
	}
	rec := r.records[0]
	r.records = r.records[1:]
	return rec, nil
}

// newRecordReader opens a SAM reader for paths ending in ".sam", and a BAM
// reader otherwise.
func newRecordReader(path string, in io.Reader, parallelism int) (recordReader, error) {
	if strings.HasSuffix(path, ".sam") {
		r, err := sam.NewReader(in)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: failed to open SAM", path)
		}
		log.Debug.Printf("%s: %d references", path, len(r.Header().Refs()))
		return r, nil
	}
	r, err := bam.NewReader(in, parallelism)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to open BAM", path)
	}
	log.Debug.Printf("%s: %d references", path, len(r.Header().Refs()))
	return r, nil
}

// Profile reads the SAM or BAM file at xampath and writes
// <outPrefix>.summary.tsv and <outPrefix>.positions.tsv, plus
// <outPrefix>.editscripts.tsv when opts.ScriptsOut is set.  With opts.Gzip
// every output is gzip-compressed and named with a ".gz" suffix.
func Profile(ctx context.Context, xampath, outPrefix string, opts Opts) (stats *mutstats.Stats, err error) {
	if err = opts.validate(); err != nil {
		return nil, err
	}
	in, err := file.Open(ctx, xampath)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", xampath)
	}
	defer file.CloseAndReport(ctx, in, &err)
	rr, err := newRecordReader(xampath, in.Reader(ctx), opts.parallelism())
	if err != nil {
		return nil, err
	}

	var scripts io.Writer
	if opts.ScriptsOut {
		out, e := createOutput(ctx, outputPath(outPrefix, "editscripts", opts.Gzip), opts.Gzip)
		if e != nil {
			return nil, e
		}
		defer out.closeAndReport(ctx, &err)
		scripts = out.writer()
	}
	if stats, err = profile(ctx, rr, opts, scripts); err != nil {
		return nil, errors.Wrapf(err, "profile %s", xampath)
	}
	if err = writeOutput(ctx, outputPath(outPrefix, "summary", opts.Gzip), opts.Gzip, stats.WriteSummary); err != nil {
		return nil, err
	}
	if err = writeOutput(ctx, outputPath(outPrefix, "positions", opts.Gzip), opts.Gzip, stats.WritePositions); err != nil {
		return nil, err
	}
	log.Printf("%s: %d records, %d filtered, %d aggregated, %d skipped, %d degraded, %d mutations",
		xampath, stats.Records, stats.Filtered, stats.Aggregated, stats.Skipped, stats.Degraded, stats.Total)
	return stats, nil
}

// ProfileRecords aggregates records in memory.  opts.ScriptsOut and opts.Gzip
// are ignored.
func ProfileRecords(records []*sam.Record, opts Opts) (*mutstats.Stats, error) {
	return profile(context.Background(), &sliceReader{records: records}, opts, nil)
}

const maxUint64 = ^uint64(0)

// keep returns false for records excluded by flags, mapping quality or
// subsampling.
func (o *Opts) keep(r *sam.Record) bool {
	if int(r.Flags)&o.FlagExclude != 0 {
		return false
	}
	if int(r.MapQ) < o.Mapq {
		return false
	}
	if o.SampleFraction < 1 {
		h := farm.Hash64([]byte(r.Name))
		return float64(h) < o.SampleFraction*float64(maxUint64)
	}
	return true
}

type batch struct {
	// idx is the position of the batch in the input.
	idx     int
	records []*sam.Record
}

// readBatches sends kept records to out in input order until rr is
// exhausted, stop is closed or ctx is done.  It returns the number of
// filtered records.
func readBatches(ctx context.Context, rr recordReader, opts *Opts, out chan<- batch, stop <-chan struct{}) (filtered int64, err error) {
	b := batch{}
	send := func() bool {
		select {
		case out <- b:
		case <-stop:
			return false
		case <-ctx.Done():
			return false
		}
		b = batch{idx: b.idx + 1}
		return true
	}
	for nRec := 0; ; nRec++ {
		r, err := rr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return filtered, errors.Wrapf(err, "failed to read record %d", nRec)
		}
		if !opts.keep(r) {
			filtered++
			continue
		}
		b.records = append(b.records, r)
		if len(b.records) == opts.BatchSize && !send() {
			return filtered, ctx.Err()
		}
	}
	if len(b.records) > 0 && !send() {
		return filtered, ctx.Err()
	}
	return filtered, nil
}

// processBatch folds every record of b into stats.  It returns the
// edit-script lines of b when withScripts is set.
func processBatch(stats *mutstats.Stats, b batch, opts generate.Opts, withScripts bool) []scriptLine {
	var lines []scriptLine
	if withScripts {
		lines = make([]scriptLine, 0, len(b.records))
	}
	for _, r := range b.records {
		s, err := generate.ForRecord(r, opts)
		if err != nil {
			stats.AddFailure(err)
			log.Debug.Printf("%v", err)
			if withScripts {
				kind, _ := generate.KindOf(err)
				lines = append(lines, scriptLine{name: r.Name, status: kind.String()})
			}
			continue
		}
		stats.Fold(s)
		if withScripts {
			status := "ok"
			if s.Degraded {
				status = "degraded"
			}
			lines = append(lines, scriptLine{name: r.Name, status: status, script: s.String()})
		}
	}
	return lines
}

// profile runs the generation workers over rr.  Each worker owns one Stats;
// they are merged once every record has been seen.  When scripts is
// non-nil, edit-script lines are written to it in input order.
func profile(ctx context.Context, rr recordReader, opts Opts, scripts io.Writer) (*mutstats.Stats, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	parallelism := opts.parallelism()
	genOpts := opts.generateOpts()
	stats := make([]*mutstats.Stats, parallelism)
	for i := range stats {
		var err error
		if stats[i], err = mutstats.New(opts.statsOpts()); err != nil {
			return nil, err
		}
	}

	var sink *scriptSink
	if scripts != nil {
		sink = newScriptSink(scripts, parallelism+1)
	}

	var (
		batches  = make(chan batch, parallelism)
		stop     = make(chan struct{})
		wg       sync.WaitGroup
		filtered int64
		readErr  error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(batches)
		filtered, readErr = readBatches(ctx, rr, &opts, batches, stop)
	}()

	err := traverse.Each(parallelism, func(jobIdx int) error {
		nBatch := 0
		for b := range batches {
			lines := processBatch(stats[jobIdx], b, genOpts, sink != nil)
			if sink != nil {
				if err := sink.insert(b.idx, lines); err != nil {
					return err
				}
			}
			nBatch++
		}
		vlog.VI(1).Infof("mutprofile: worker %d processed %d batches, %d records", jobIdx, nBatch, stats[jobIdx].Records)
		return nil
	})
	close(stop)
	wg.Wait()
	if sink != nil {
		if e := sink.close(err); err == nil {
			err = e
		}
	}
	if err == nil {
		err = readErr
	}
	if err != nil {
		return nil, err
	}

	total := stats[0]
	for _, s := range stats[1:] {
		total.Merge(s)
	}
	total.Filtered += filtered
	return total, nil
}
