package bamsort

import (
	"io"
	"io/ioutil"
	"os"
	"sort"

	"github.com/coralbio/hts/bamrec"
	"github.com/coralbio/hts/bgzf"
)

// DefaultBufferSize is the default number of records buffered in memory
// per run.
const DefaultBufferSize = 1_000_000

// readNextAlignment reads one alignment record from a raw BGZF input
// stream. BAM frames each record with a leading little-endian u32
// block_size naming the number of bytes that follow; that prefix is not
// part of the AlignmentRecord byte buffer itself (whose layout starts at
// reference_id), so it is consumed here and discarded.
func readNextAlignment(s *bgzf.BufferedStream) (bamrec.AlignmentRecord, error) {
	var lenBuf [4]byte
	n, err := s.ReadInto(lenBuf[:])
	if n == 0 && err != nil {
		return nil, err
	}
	if n < 4 {
		return nil, &bamrec.Error{Kind: bamrec.MalformedRecord, Msg: "truncated block_size prefix"}
	}
	blockSize := int32(lenBuf[0]) | int32(lenBuf[1])<<8 | int32(lenBuf[2])<<16 | int32(lenBuf[3])<<24
	if blockSize < 0 {
		return nil, &bamrec.Error{Kind: bamrec.MalformedRecord, Msg: "negative block_size"}
	}
	rec := make(bamrec.AlignmentRecord, blockSize)
	if _, err := s.ReadInto(rec); err != nil {
		return nil, &bamrec.Error{Kind: bamrec.MalformedRecord, Msg: "truncated alignment record", Err: err}
	}
	return rec, nil
}

// WriteAlignment serializes rec with a 4-byte little-endian length
// prefix into the output stream.
func WriteAlignment(s *bgzf.BufferedStream, rec bamrec.AlignmentRecord) error {
	var lenBuf [4]byte
	n := uint32(len(rec))
	lenBuf[0] = byte(n)
	lenBuf[1] = byte(n >> 8)
	lenBuf[2] = byte(n >> 16)
	lenBuf[3] = byte(n >> 24)
	if _, err := s.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := s.Write(rec)
	return err
}

// buildRun pulls up to bufferSize records from next (stopping early at
// EOF), stably sorts them under less, and spills them to a fresh temp
// file. It returns (nil, 0, nil) if zero records were read ("no run").
func buildRun(next func() (bamrec.AlignmentRecord, error), less Less, bufferSize int, tmpDir string) (*os.File, int, error) {
	records := make([]bamrec.AlignmentRecord, 0, bufferSize)
	for len(records) < bufferSize {
		rec, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, 0, nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		return less(records[i], records[j])
	})

	f, err := ioutil.TempFile(tmpDir, "bamsort-run-")
	if err != nil {
		return nil, 0, err
	}
	rw := NewRunWriter(f)
	for _, rec := range records {
		if err := rw.WriteRecord(rec); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, 0, err
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, 0, err
	}
	return f, len(records), nil
}

// SortBamAlignments drives the external merge sort directly over a pair
// of BGZF streams: it reads alignment records one by one from bgzfIn,
// accumulates up to bufferSize in memory per run, spills each
// stably-sorted run to a temp file, and k-way merges the runs into
// bgzfOut. It returns the total number of records sorted and the number
// of run files used.
func SortBamAlignments(bgzfIn, bgzfOut *bgzf.BufferedStream, less Less, bufferSize int) (nSorted int64, nRuns int, err error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	next := func() (bamrec.AlignmentRecord, error) { return readNextAlignment(bgzfIn) }

	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	for {
		f, n, buildErr := buildRun(next, less, bufferSize, "")
		if buildErr != nil {
			return nSorted, len(files), buildErr
		}
		if f == nil {
			break
		}
		files = append(files, f)
		nSorted += int64(n)
	}

	readers := make([]*RunReader, len(files))
	for i, f := range files {
		readers[i] = NewRunReader(f)
	}

	merged, err := MergeRuns(less, readers, func(rec bamrec.AlignmentRecord) error {
		return WriteAlignment(bgzfOut, rec)
	})
	if err != nil {
		return merged, len(files), err
	}

	return nSorted, len(files), nil
}

// fileHandle adapts a plain *os.File to bgzf.Handle. An actual BGZF
// deflate/inflate codec is an external collaborator, so SortBamFile uses
// this uncompressed stand-in to keep the public file-path operation
// concretely runnable without depending on one (see DESIGN.md). A
// production deployment would inject a real compressing BGZF handle
// here instead.
type fileHandle struct {
	f *os.File
}

func (h *fileHandle) Read(p []byte) (int, error)  { return h.f.Read(p) }
func (h *fileHandle) Write(p []byte) (int, error) { return h.f.Write(p) }
func (h *fileHandle) Seek(offset int64, whence int) (int64, error) {
	return h.f.Seek(offset, whence)
}
func (h *fileHandle) Tell() (int64, error) { return h.f.Seek(0, io.SeekCurrent) }
func (h *fileHandle) Close() error         { return h.f.Close() }

// SortBamFile opens inPath and outPath, reads the header and reference
// dictionary, rewrites the @HD SO: tag to sortOrder, drives the external
// merge sort, and writes the sorted output.
func SortBamFile(inPath, outPath string, sortOrder SortOrder, bufferSize int) (nSorted int64, nRuns int, err error) {
	less, err := PredicateFor(sortOrder)
	if err != nil {
		return 0, 0, err
	}

	inFile, err := os.Open(inPath)
	if err != nil {
		return 0, 0, err
	}
	defer inFile.Close()
	outFile, err := os.Create(outPath)
	if err != nil {
		return 0, 0, err
	}
	defer outFile.Close()

	bgzfIn := bgzf.NewBufferedStream(&fileHandle{f: inFile})
	bgzfOut := bgzf.NewBufferedStream(&fileHandle{f: outFile})

	text, refs, err := ReadHeaderMeta(readerFunc(func(p []byte) (int, error) {
		return bgzfIn.ReadInto(p)
	}))
	if err != nil {
		return 0, 0, err
	}
	text = RewriteSortOrder(text, string(sortOrder))
	if err := WriteHeaderMeta(bgzfOut, text, refs); err != nil {
		return 0, 0, err
	}

	return SortBamAlignments(bgzfIn, bgzfOut, less, bufferSize)
}

// readerFunc adapts a plain func(p []byte) (int, error) to io.Reader, so
// ReadHeaderMeta (which wants io.Reader semantics: partial reads are
// fine, io.ReadFull drives it to completion) can be driven by
// BufferedStream.ReadInto.
type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
