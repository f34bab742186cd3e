// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package mutprofile

import (
	"context"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

func outputPath(prefix, kind string, gz bool) string {
	path := prefix + "." + kind + ".tsv"
	if gz {
		path += ".gz"
	}
	return path
}

// outputFile is a created file, optionally behind a gzip writer.
type outputFile struct {
	path string
	f    file.File
	w    io.Writer
	gz   *gzip.Writer
}

func createOutput(ctx context.Context, path string, gz bool) (*outputFile, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "mutprofile: create", path)
	}
	out := &outputFile{path: path, f: f, w: f.Writer(ctx)}
	if gz {
		out.gz = gzip.NewWriter(out.w)
	}
	return out, nil
}

func (o *outputFile) writer() io.Writer {
	if o.gz != nil {
		return o.gz
	}
	return o.w
}

// closeAndReport closes o, storing the first error in *err.
func (o *outputFile) closeAndReport(ctx context.Context, err *error) {
	if o.gz != nil {
		if e := o.gz.Close(); e != nil && *err == nil {
			*err = errors.E(e, "mutprofile: close", o.path)
		}
	}
	file.CloseAndReport(ctx, o.f, err)
}

// writeOutput creates path and fills it with fn.
func writeOutput(ctx context.Context, path string, gz bool, fn func(io.Writer) error) (err error) {
	out, err := createOutput(ctx, path, gz)
	if err != nil {
		return err
	}
	defer out.closeAndReport(ctx, &err)
	if err = fn(out.writer()); err != nil {
		return errors.E(err, "mutprofile: write", path)
	}
	return nil
}

// scriptLine is one row of the edit-script stream.  status is "ok",
// "degraded", or the failure kind.
type scriptLine struct {
	name   string
	status string
	script string
}

// scriptSink writes batches of scriptLines in batch-index order, whatever
// order they are inserted in.
type scriptSink struct {
	queue *syncqueue.OrderedQueue
	w     *tsv.Writer
	wg    sync.WaitGroup
	err   error
}

func newScriptSink(out io.Writer, queueSize int) *scriptSink {
	s := &scriptSink{
		queue: syncqueue.NewOrderedQueue(queueSize),
		w:     tsv.NewWriter(out),
	}
	s.w.WriteString("#NAME\tSTATUS\tEDITSCRIPT")
	if err := s.w.EndLine(); err != nil {
		s.err = err
		s.queue.Close(err)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drain()
	}()
	return s
}

func (s *scriptSink) drain() {
	for {
		entry, ok, err := s.queue.Next()
		if err != nil {
			if s.err == nil {
				s.err = err
			}
			return
		}
		if !ok {
			return
		}
		for _, line := range entry.([]scriptLine) {
			s.w.WriteString(line.name)
			s.w.WriteString(line.status)
			s.w.WriteString(line.script)
			if err := s.w.EndLine(); err != nil {
				s.err = err
				s.queue.Close(err)
				return
			}
		}
	}
}

func (s *scriptSink) insert(idx int, lines []scriptLine) error {
	return s.queue.Insert(idx, lines)
}

// close waits for every inserted batch to be written.  A non-nil err aborts
// the stream.
func (s *scriptSink) close(err error) error {
	qerr := s.queue.Close(err)
	s.wg.Wait()
	if s.err != nil && s.err != err {
		return errors.E(s.err, "mutprofile: write edit-scripts")
	}
	if qerr != nil && qerr != err {
		return qerr
	}
	if err := s.w.Flush(); err != nil {
		return errors.E(err, "mutprofile: write edit-scripts")
	}
	return nil
}
