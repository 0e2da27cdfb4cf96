package bamsort

import (
	"container/heap"
	"io"

	"github.com/coralbio/hts/bamrec"
)

// mergeRun is one run source in a k-way merge: a RunReader plus its
// current head record. id preserves stable ordering on ties across
// runs, breaking heap ties by the source's original index to keep the
// merge deterministic.
type mergeRun struct {
	id   int
	rr   *RunReader
	head bamrec.AlignmentRecord // nil once the run is drained
	done bool
}

func (m *mergeRun) advance() error {
	rec, err := m.rr.ReadRecord()
	if err == io.EOF {
		m.head = nil
		m.done = true
		return nil
	}
	if err != nil {
		return err
	}
	m.head = rec
	return nil
}

// runHeap implements container/heap.Interface over the live mergeRuns,
// ordering by less(head), with id as the stable tiebreak, following the
// shape of the teacher's bySortOrderAndID in bam/merger.go.
type runHeap struct {
	runs []*mergeRun
	less Less
}

func (h *runHeap) Len() int { return len(h.runs) }

func (h *runHeap) Less(i, j int) bool {
	a, b := h.runs[i], h.runs[j]
	if h.less(a.head, b.head) {
		return true
	}
	if h.less(b.head, a.head) {
		return false
	}
	return a.id < b.id
}

func (h *runHeap) Swap(i, j int) { h.runs[i], h.runs[j] = h.runs[j], h.runs[i] }

func (h *runHeap) Push(x interface{}) { h.runs = append(h.runs, x.(*mergeRun)) }

func (h *runHeap) Pop() interface{} {
	old := h.runs
	n := len(old)
	item := old[n-1]
	h.runs = old[:n-1]
	return item
}

// MergeRuns performs the k-way merge of spec section 4.5: it maintains a
// priority queue keyed by predicate(head(run_i)), and on each pop emits
// the winning head to sink and advances that run, until every run is
// drained. It returns the total number of records emitted.
func MergeRuns(less Less, readers []*RunReader, sink func(bamrec.AlignmentRecord) error) (int64, error) {
	h := &runHeap{less: less}
	for i, rr := range readers {
		run := &mergeRun{id: i, rr: rr}
		if err := run.advance(); err != nil {
			return 0, err
		}
		if !run.done {
			h.runs = append(h.runs, run)
		}
	}
	heap.Init(h)

	var total int64
	for h.Len() > 0 {
		run := h.runs[0]
		if err := sink(run.head); err != nil {
			return total, err
		}
		total++
		if err := run.advance(); err != nil {
			return total, err
		}
		if run.done {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return total, nil
}
