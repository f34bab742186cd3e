package editscript_test

import (
	"testing"

	"github.com/grailbio/mutprofile/editscript"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func mustParse(t *testing.T, text string) editscript.Script {
	s, err := editscript.Parse(text)
	assert.NoError(t, err, "parse %q", text)
	return s
}

func TestOpValidate(t *testing.T) {
	tests := []struct {
		op Op
		ok bool
	}{
		{Op{Type: editscript.Match, Len: 8}, true},
		{Op{Type: editscript.Match, Len: 0}, false},
		{Op{Type: editscript.Match, Len: 2, Bases: "AC"}, false},
		{Op{Type: editscript.Mismatch, Len: 1, Bases: "AC"}, true},
		{Op{Type: editscript.Mismatch, Len: 1, Bases: "A"}, false},
		{Op{Type: editscript.Mismatch, Len: 2, Bases: "ACGN"}, true},
		{Op{Type: editscript.Insertion, Len: 2, Bases: "GT"}, true},
		{Op{Type: editscript.Insertion, Len: 2, Bases: "GX"}, false},
		{Op{Type: editscript.Deletion, Len: 1, Bases: "T"}, true},
		{Op{Type: editscript.Deletion, Len: 2, Bases: "T"}, false},
		{Op{Type: editscript.SoftClip, Len: 5}, true},
		{Op{Type: editscript.OpType(42), Len: 5}, false},
	}
	for _, test := range tests {
		err := test.op.Validate()
		expect.EQ(t, err == nil, test.ok, "op %+v: %v", test.op, err)
	}
}

// Op aliases editscript.Op to keep the table above readable.
type Op = editscript.Op

func TestParseString(t *testing.T) {
	for _, text := range []string{
		"8m 1u(AC) 41m 1u(AT) 38m",
		"6m 1iG 2m 1dT 82m",
		"5s 10m 2u(ACGT) 3n 4m 3h 1p",
		"",
	} {
		s := mustParse(t, text)
		expect.EQ(t, s.String(), text)
	}
	for _, text := range []string{"m", "8", "8q", "1u", "1uAC", "2u(AC)", "1iGG", "-3m"} {
		_, err := editscript.Parse(text)
		expect.NotNil(t, err, "parse %q", text)
	}
}

func TestLengths(t *testing.T) {
	s := mustParse(t, "3h 5s 6m 1iG 2m 1dT 2u(ACGT) 10n 4m 2s")
	expect.EQ(t, s.ReadLen(), 5+6+1+2+2+4+2)
	expect.EQ(t, s.RefLen(), 6+2+1+2+10+4)
}

func TestBuilder(t *testing.T) {
	var b editscript.Builder
	b.Other(editscript.SoftClip, 2)
	b.Match(3)
	b.Match(0)
	b.Match(4)
	b.Mismatch('A', 'C')
	b.Mismatch('G', 'T')
	b.Insertion([]byte("TT"))
	b.Insertion([]byte("A"))
	b.Mismatch('C', 'A')
	b.Deletion(nil)
	b.Deletion([]byte("GG"))
	b.Match(1)
	s := b.Script(false)
	expect.EQ(t, s.String(), "2s 7m 2u(ACGT) 2iTT 1iA 1u(CA) 2dGG 1m")
	for _, op := range s.Ops {
		expect.NoError(t, op.Validate())
	}
	// The builder is reset by Script().
	b.Match(2)
	expect.True(t, b.Script(true).Equal(editscript.Script{Ops: []Op{{Type: editscript.Match, Len: 2}}, Degraded: true}))
}

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"5m 1u(AC) 3m", "3m 1u(TG) 5m"},
		{"2m 2u(ACGT) 1m", "1m 2u(CATG) 2m"},
		{"6m 1iG 2m 1dT 82m", "82m 1dA 2m 1iC 6m"},
		{"3s 4m 3iACN 2dNG 5h", "5h 2dCN 3iNGT 4m 3s"},
		{"", ""},
	}
	for _, test := range tests {
		in := mustParse(t, test.in)
		rc := in.ReverseComplement()
		expect.EQ(t, rc.String(), test.want)
		// The input is left intact, and the transform is its own inverse.
		expect.EQ(t, in.String(), test.in)
		expect.True(t, rc.ReverseComplement().Equal(in), "involution failed for %q", test.in)
		expect.EQ(t, rc.ReadLen(), in.ReadLen())
		expect.EQ(t, rc.RefLen(), in.RefLen())
	}
	degraded := editscript.Script{Ops: []Op{{Type: editscript.Match, Len: 4}}, Degraded: true}
	expect.True(t, degraded.ReverseComplement().Degraded)
}

func TestBases(t *testing.T) {
	for i, c := range []byte("ACGTN") {
		enum, ok := editscript.BaseToEnum(c)
		expect.True(t, ok)
		expect.EQ(t, int(enum), i)
	}
	_, ok := editscript.BaseToEnum('a')
	expect.False(t, ok)
	expect.EQ(t, editscript.Complement('A'), byte('T'))
	expect.EQ(t, editscript.Complement('G'), byte('C'))
	expect.EQ(t, editscript.Complement('N'), byte('N'))
	expect.EQ(t, editscript.FirstInvalidBase([]byte("ACGTN")), -1)
	expect.EQ(t, editscript.FirstInvalidBase([]byte("ACR")), 2)
}
