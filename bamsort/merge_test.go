package bamsort

import (
	"bytes"
	"testing"

	"github.com/coralbio/hts/bamrec"
)

func writeRun(t *testing.T, names []string) *RunReader {
	t.Helper()
	var buf bytes.Buffer
	rw := NewRunWriter(&buf)
	for i, name := range names {
		opts := bamrec.DefaultRecordOptions()
		pos := int32(i)
		opts.Position = &pos
		r, err := bamrec.MakeAlignmentRecord(name, []byte("A"), 0, opts)
		if err != nil {
			t.Fatalf("MakeAlignmentRecord: %v", err)
		}
		if err := rw.WriteRecord(r); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}
	return NewRunReader(&buf)
}

func TestMergeRunsPreservesOrderAndCount(t *testing.T) {
	runA := writeRun(t, []string{"aaa", "ccc", "eee"})
	runB := writeRun(t, []string{"bbb", "ddd", "fff"})

	var gotNames []string
	total, err := MergeRuns(QueryNameLess, []*RunReader{runA, runB}, func(rec bamrec.AlignmentRecord) error {
		gotNames = append(gotNames, rec.ReadName())
		return nil
	})
	if err != nil {
		t.Fatalf("MergeRuns: %v", err)
	}
	if total != 6 {
		t.Fatalf("MergeRuns returned %d, want 6", total)
	}
	want := []string{"aaa", "bbb", "ccc", "ddd", "eee", "fff"}
	for i, name := range want {
		if gotNames[i] != name {
			t.Errorf("gotNames[%d] = %q, want %q (full: %v)", i, gotNames[i], name, gotNames)
		}
	}
}

func TestMergeRunsEmpty(t *testing.T) {
	total, err := MergeRuns(QueryNameLess, nil, func(bamrec.AlignmentRecord) error {
		t.Fatal("sink called on empty merge")
		return nil
	})
	if err != nil {
		t.Fatalf("MergeRuns: %v", err)
	}
	if total != 0 {
		t.Fatalf("MergeRuns returned %d, want 0", total)
	}
}
