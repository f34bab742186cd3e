// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package generate

import (
	"fmt"

	"github.com/grailbio/mutprofile/editscript"
)

// MD tag grammar:
//   [0-9]+          run of reference bases matched by the read
//   [A-Z]           one substituted reference base
//   ^[A-Z]+         run of deleted reference bases
// A run may be "0", which separates two adjacent substitutions or a deletion
// from a following substitution.

// diffState is the state of a diffCursor.
type diffState uint8

const (
	// needToken means the next byte of the tag starts a new token.
	needToken diffState = iota
	// consumingRun means the cursor is partway through a match run.
	consumingRun
)

type diffKind uint8

const (
	diffEnd diffKind = iota
	diffRun
	diffMismatch
	diffDeletion
)

// diffToken is one lexed MD token.
type diffToken struct {
	kind diffKind
	// n is the run length for diffRun.
	n int
	// bases is the reference base for diffMismatch, and the deleted bases for
	// diffDeletion.
	bases []byte
}

// diffError is a lexing failure, turned into an *Error by the walker.
type diffError struct {
	kind Kind
	msg  string
}

// diffCursor walks an MD tag.  It is a plain value: every step returns the
// advanced cursor, leaving the receiver untouched.
type diffCursor struct {
	md    string
	pos   int // next unread byte of md
	state diffState
	// pending is the number of matches left in the current run; nonzero iff
	// state == consumingRun.
	pending int
}

func newDiffCursor(md string) diffCursor {
	return diffCursor{md: md}
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func isLetter(c byte) bool {
	c = upper(c)
	return c >= 'A' && c <= 'Z'
}

// takeMatches consumes up to max matches from the current run.
//
// REQUIRES: c.state == consumingRun.
func (c diffCursor) takeMatches(max int) (diffCursor, int) {
	n := c.pending
	if n > max {
		n = max
	}
	c.pending -= n
	if c.pending == 0 {
		c.state = needToken
	}
	return c, n
}

// next lexes the next token.  Zero-length runs are skipped.  On a nonzero
// run, the returned cursor is in the consumingRun state.
//
// REQUIRES: c.state == needToken.
func (c diffCursor) next() (diffCursor, diffToken, *diffError) {
	for c.pos < len(c.md) {
		ch := c.md[c.pos]
		switch {
		case ch >= '0' && ch <= '9':
			n := 0
			for c.pos < len(c.md) && c.md[c.pos] >= '0' && c.md[c.pos] <= '9' {
				n = n*10 + int(c.md[c.pos]-'0')
				if n > maxRun {
					return c, diffToken{}, &diffError{LengthMismatch, fmt.Sprintf("MD match run at offset %d is too long", c.pos)}
				}
				c.pos++
			}
			if n == 0 {
				continue
			}
			c.state = consumingRun
			c.pending = n
			return c, diffToken{kind: diffRun, n: n}, nil
		case ch == '^':
			start := c.pos
			c.pos++
			var bases []byte
			for c.pos < len(c.md) && isLetter(c.md[c.pos]) {
				bases = append(bases, upper(c.md[c.pos]))
				c.pos++
			}
			if len(bases) == 0 {
				return c, diffToken{}, &diffError{InconsistentMarker, fmt.Sprintf("MD deletion marker at offset %d has no bases", start)}
			}
			if i := editscript.FirstInvalidBase(bases); i >= 0 {
				return c, diffToken{}, &diffError{UnknownBase, fmt.Sprintf("MD deletion at offset %d has invalid base %q", start, bases[i])}
			}
			return c, diffToken{kind: diffDeletion, bases: bases}, nil
		case isLetter(ch):
			base := upper(ch)
			if !editscript.IsValidBase(base) {
				return c, diffToken{}, &diffError{UnknownBase, fmt.Sprintf("MD substitution at offset %d has invalid base %q", c.pos, ch)}
			}
			c.pos++
			return c, diffToken{kind: diffMismatch, bases: []byte{base}}, nil
		default:
			return c, diffToken{}, &diffError{InconsistentMarker, fmt.Sprintf("unexpected character %q at MD offset %d", ch, c.pos)}
		}
	}
	return c, diffToken{kind: diffEnd}, nil
}

// maxRun bounds a single MD match run; longer runs cannot be matched by any
// read this package accepts.
const maxRun = 1 << 30
