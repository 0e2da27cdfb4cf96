package bamrec

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/kortschak/utter"
	"github.com/kr/pretty"
)

func TestMakeAlignmentRecordMinimum(t *testing.T) {
	r, err := MakeAlignmentRecord("r", []byte("A"), 0, DefaultRecordOptions())
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}
	if got := r.ReadName(); got != "r" {
		t.Errorf("ReadName() = %q, want %q", got, "r")
	}
	if got := r.ReadLength(); got != 1 {
		t.Errorf("ReadLength() = %d, want 1", got)
	}
	if got := r.Seq(); !bytes.Equal(got, []byte("A")) {
		t.Errorf("Seq() = %q, want %q", got, "A")
	}
	if got := r.Quality(); got != nil {
		t.Errorf("Quality() = %q, want nil", got)
	}
	if got := r.Cigar(); len(got) != 0 {
		t.Errorf("Cigar() = %v, want empty", got)
	}
	if got := r.ReferenceID(); got != -1 {
		t.Errorf("ReferenceID() = %d, want -1", got)
	}
	if got := r.Position(); got != -1 {
		t.Errorf("Position() = %d, want -1", got)
	}
}

func TestCigarRoundTrip(t *testing.T) {
	ops := []CigarOp{
		NewCigarOp(CigarMatch, 9),
		NewCigarOp(CigarInsertion, 1),
		NewCigarOp(CigarMatch, 25),
	}
	r, err := MakeAlignmentRecord("x", bytes.Repeat([]byte("A"), 35), 0, func() RecordOptions {
		o := DefaultRecordOptions()
		o.Cigar = ops
		return o
	}())
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}
	got := r.Cigar()
	if !reflect.DeepEqual(got, ops) {
		t.Fatalf("Cigar() = %v, want %v", got, ops)
	}
	if n := r.AlignmentReadLength(); n != 35 {
		t.Errorf("AlignmentReadLength() = %d, want 35", n)
	}
	if n := r.AlignmentReferenceLength(); n != 34 {
		t.Errorf("AlignmentReferenceLength() = %d, want 34", n)
	}
}

func TestSeqRoundTrip(t *testing.T) {
	for _, seq := range [][]byte{
		[]byte("ACGT"),
		[]byte("acgtn"),
		[]byte("="),
		[]byte(""),
	} {
		r, err := MakeAlignmentRecord("x", seq, 0, DefaultRecordOptions())
		if err != nil {
			t.Fatalf("MakeAlignmentRecord(%q): %v", seq, err)
		}
		got := r.Seq()
		want := bytes.ToUpper(seq)
		if len(want) == 0 {
			want = nil
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Seq() round trip for %q = %q, want %q", seq, got, want)
		}
	}
}

func TestQualityRoundTrip(t *testing.T) {
	seq := []byte("ACGTACGTAC")
	qual := []byte{33, 40, 93 + 33, 200, 50, 33, 40, 93 + 33, 50, 60}
	opts := DefaultRecordOptions()
	opts.Quality = qual
	r, err := MakeAlignmentRecord("x", seq, 0, opts)
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}
	got := r.Quality()
	want := make([]byte, len(qual))
	for i, q := range qual {
		v := q - 33
		if v > 93 {
			v = 93
		}
		want[i] = v + 33
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Quality() = %v, want %v", got, want)
	}
}

func TestQualityAbsent(t *testing.T) {
	r, err := MakeAlignmentRecord("x", []byte("ACGT"), 0, DefaultRecordOptions())
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}
	if got := r.Quality(); got != nil {
		t.Errorf("Quality() = %v, want nil", got)
	}
}

func TestTagNarrowing(t *testing.T) {
	cases := []struct {
		value    int
		wantCode byte
		wantLen  int
	}{
		{200, 'C', 1},
		{-1, 'c', 1},
		{70000, 'I', 4},
	}
	for _, c := range cases {
		opts := DefaultRecordOptions()
		opts.Tags = []NamedTagValue{{Key: "X0", Value: c.value}}
		r, err := MakeAlignmentRecord("x", []byte("A"), 0, opts)
		if err != nil {
			t.Fatalf("MakeAlignmentRecord: %v", err)
		}
		tags, err := r.Tags()
		if err != nil {
			t.Fatalf("Tags(): %v", err)
		}
		if len(tags) != 1 {
			t.Fatalf("len(Tags()) = %d, want 1", len(tags))
		}
		tag := tags[0]
		if tag.Code != c.wantCode {
			t.Errorf("value %d: Code = %q, want %q\n%s", c.value, tag.Code, c.wantCode, utter.Sdump(tag))
		}
		if got := tag.Value.(int64); got != int64(c.value) {
			t.Errorf("value %d: decoded = %d, want %d\n%s", c.value, got, c.value, pretty.Sprint(tag))
		}
		if got := len(r) - r.tagIndex() - 3; got != c.wantLen {
			t.Errorf("value %d: payload length = %d, want %d", c.value, got, c.wantLen)
		}
	}
}

func TestFlagValidation(t *testing.T) {
	ok := SequencedPair | FirstInPair
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate(%v) = %v, want nil", ok, err)
	}
	bad := SequencedPair | FirstInPair | SecondInPair
	if err := bad.Validate(); err == nil {
		t.Errorf("Validate(%v) = nil, want error", bad)
	}
}

func TestFlagValidityAllValues(t *testing.T) {
	for f := 0; f < 1<<11; f++ {
		flag := Flags(f)
		err := flag.Validate()
		switch {
		case flag.MappedProperPair():
			wantOK := flag.SequencedPair() &&
				(flag.FirstInPair() != flag.SecondInPair()) &&
				flag.QueryMapped() && flag.MateMapped() &&
				(flag.QueryForward() != flag.MateForward())
			if wantOK && err != nil {
				t.Errorf("flag %011b: want valid, got %v", f, err)
			}
			if !wantOK && err == nil {
				t.Errorf("flag %011b: want invalid, got nil", f)
			}
		case flag.SequencedPair():
			wantOK := flag.FirstInPair() != flag.SecondInPair()
			if wantOK && err != nil {
				t.Errorf("flag %011b: want valid, got %v", f, err)
			}
			if !wantOK && err == nil {
				t.Errorf("flag %011b: want invalid, got nil", f)
			}
		default:
			wantOK := !flag.MateReverse() && !flag.MateUnmapped() &&
				!flag.FirstInPair() && !flag.SecondInPair()
			if wantOK && err != nil {
				t.Errorf("flag %011b: want valid, got %v", f, err)
			}
			if !wantOK && err == nil {
				t.Errorf("flag %011b: want invalid, got nil", f)
			}
		}
	}
}

func TestBoundaryRecords(t *testing.T) {
	opts := DefaultRecordOptions()
	r, err := MakeAlignmentRecord("", nil, 0, opts)
	// read_name_len must be >= 1 (just the NUL); empty read name still
	// satisfies this since the stored length is len(name)+1 = 1.
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}
	if got := r.ReadNameLen(); got != 1 {
		t.Errorf("ReadNameLen() = %d, want 1", got)
	}
	if got := r.ReadLength(); got != 0 {
		t.Errorf("ReadLength() = %d, want 0", got)
	}
	if got := r.Quality(); got != nil {
		t.Errorf("Quality() = %v, want nil", got)
	}
	tags, err := r.Tags()
	if err != nil || len(tags) != 0 {
		t.Errorf("Tags() = %v, %v, want empty, nil", tags, err)
	}
}

// TestAbsentCigarReservesFourBytes checks the spec's explicit exception to
// the general cigar_bytes = 4*cigar_len derived-index formula: when no
// CIGAR operations are given, the codec still reserves 4 zero bytes in the
// record so downstream field offsets do not shift depending on whether a
// record carries CIGAR.
func TestAbsentCigarReservesFourBytes(t *testing.T) {
	withCigar, err := MakeAlignmentRecord("x", []byte("A"), 0, func() RecordOptions {
		o := DefaultRecordOptions()
		o.Tags = []NamedTagValue{{Key: "X0", Value: 7}}
		return o
	}())
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}
	if got := withCigar.CigarLen(); got != 0 {
		t.Fatalf("CigarLen() = %d, want 0", got)
	}
	wantLen := fixedHeaderLen + 2 /* "x\0" */ + 4 /* reserved cigar */ + 1 /* seq */ + 1 /* qual */ + 4 /* tag */
	if len(withCigar) != wantLen {
		t.Errorf("record length = %d, want %d (4 reserved cigar bytes)", len(withCigar), wantLen)
	}
	tags, err := withCigar.Tags()
	if err != nil {
		t.Fatalf("Tags(): %v", err)
	}
	if len(tags) != 1 || tags[0].Value.(int64) != 7 {
		t.Errorf("Tags() = %v, want a single X0=7 tag (offsets shifted by missing reserved bytes?)", tags)
	}
}

func TestValidateFlagFillsRecordContext(t *testing.T) {
	pos := int32(42)
	opts := DefaultRecordOptions()
	opts.ReferenceID = 3
	opts.Position = &pos
	badFlag := SequencedPair | FirstInPair | SecondInPair
	r, err := MakeAlignmentRecord("bad-read", []byte("A"), badFlag, opts)
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}

	if _, err := r.ValidatedFlag(); err == nil {
		t.Fatal("ValidatedFlag() = nil error, want a FlagError")
	} else if fe, ok := err.(*FlagError); !ok {
		t.Fatalf("ValidatedFlag() error type = %T, want *FlagError", err)
	} else {
		if fe.Flag != badFlag {
			t.Errorf("Flag = %v, want %v", fe.Flag, badFlag)
		}
		if fe.ReadName != "bad-read" {
			t.Errorf("ReadName = %q, want %q", fe.ReadName, "bad-read")
		}
		if fe.Position != 42 {
			t.Errorf("Position = %d, want 42", fe.Position)
		}
		if fe.ReferenceID != 3 {
			t.Errorf("ReferenceID = %d, want 3", fe.ReferenceID)
		}
	}

	err = r.ValidateFlag()
	if err == nil {
		t.Fatal("ValidateFlag() = nil, want error")
	}
	fe, ok := err.(*FlagError)
	if !ok {
		t.Fatalf("ValidateFlag() error type = %T, want *FlagError", err)
	}
	if fe.ReadName != "bad-read" || fe.Position != 42 || fe.ReferenceID != 3 {
		t.Errorf("ValidateFlag() context = %+v, want read name bad-read, pos 42, ref 3", fe)
	}

	okFlag := SequencedPair | FirstInPair
	good, err := MakeAlignmentRecord("good-read", []byte("A"), okFlag, DefaultRecordOptions())
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}
	if f, err := good.ValidatedFlag(); err != nil {
		t.Errorf("ValidatedFlag() on valid record = %v, want nil", err)
	} else if f != okFlag {
		t.Errorf("ValidatedFlag() = %v, want %v", f, okFlag)
	}
}

func TestStringAnnotatesInvalidFlag(t *testing.T) {
	badFlag := SequencedPair | FirstInPair | SecondInPair
	r, err := MakeAlignmentRecord("x", []byte("A"), badFlag, DefaultRecordOptions())
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}
	if s := r.String(); !strings.Contains(s, "invalid flag") {
		t.Errorf("String() = %q, want it to flag the malformed record", s)
	}

	okFlag := SequencedPair | FirstInPair
	good, err := MakeAlignmentRecord("y", []byte("A"), okFlag, DefaultRecordOptions())
	if err != nil {
		t.Fatalf("MakeAlignmentRecord: %v", err)
	}
	if s := good.String(); strings.Contains(s, "invalid flag") {
		t.Errorf("String() = %q, want no invalid-flag annotation for a valid record", s)
	}
}

func TestFlagBits(t *testing.T) {
	f, err := FlagBits(0, "sequenced_pair", "first_in_pair")
	if err != nil {
		t.Fatalf("FlagBits: %v", err)
	}
	if want := SequencedPair | FirstInPair; f != want {
		t.Errorf("FlagBits() = %v, want %v", f, want)
	}
	if _, err := FlagBits(0, "sequenced_pair", "first_in_pair", "second_in_pair"); err == nil {
		t.Errorf("FlagBits() with conflicting bits: want error, got nil")
	}
}
