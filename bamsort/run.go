package bamsort

import (
	"encoding/binary"
	"io"

	"github.com/coralbio/hts/bamrec"
	"github.com/ulikunitz/xz"
)

// RunWriter frames alignment records as (u32 little-endian length)(length
// bytes) onto an underlying io.Writer, implementing the run file format
// of spec section 6 and the record transport of section 4.5.
type RunWriter struct {
	w io.Writer
	c io.Closer // non-nil when wrapping a compressing writer that needs closing
}

// NewRunWriter returns a RunWriter over w.
func NewRunWriter(w io.Writer) *RunWriter { return &RunWriter{w: w} }

// NewCompressedRunWriter wraps w in an xz.Writer, exercising the domain
// stack's ulikunitz/xz dependency as a pluggable transform on the run's
// io.Writer, the same shape as the teacher corpus's sortshard writer
// wrapping its block writer in a compressor (see SPEC_FULL.md section 3).
func NewCompressedRunWriter(w io.Writer) (*RunWriter, error) {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &RunWriter{w: xw, c: xw}, nil
}

// WriteRecord writes one length-prefixed record.
func (rw *RunWriter) WriteRecord(rec bamrec.AlignmentRecord) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(rec)))
	if _, err := rw.w.Write(lenBuf[:]); err != nil {
		return wrapIOErr(err)
	}
	if _, err := rw.w.Write(rec); err != nil {
		return wrapIOErr(err)
	}
	return nil
}

// Close closes any compressing writer this RunWriter wraps. It is a no-op
// for a plain, uncompressed RunWriter.
func (rw *RunWriter) Close() error {
	if rw.c != nil {
		return rw.c.Close()
	}
	return nil
}

// RunReader reads length-prefixed records back from a run file, the
// inverse of RunWriter, per spec section 4.5's merge-stream contract:
// runs are consumed by reading the 4-byte length, allocating a buffer,
// then reading length bytes.
type RunReader struct {
	r io.Reader
}

// NewRunReader returns a RunReader over r.
func NewRunReader(r io.Reader) *RunReader { return &RunReader{r: r} }

// NewCompressedRunReader wraps r in an xz.Reader, the read-side inverse
// of NewCompressedRunWriter.
func NewCompressedRunReader(r io.Reader) (*RunReader, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &RunReader{r: xr}, nil
}

// ReadRecord reads the next length-prefixed record, returning io.EOF when
// the run is exhausted. A negative length or a truncated payload is
// reported as a MalformedRecord error, per spec section 7.
func (rr *RunReader) ReadRecord() (bamrec.AlignmentRecord, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(rr.r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, &bamrec.Error{Kind: bamrec.MalformedRecord, Msg: "truncated run length prefix", Err: err}
		}
		return nil, err // clean io.EOF at a record boundary
	}
	length := int32(binary.LittleEndian.Uint32(lenBuf[:]))
	if length < 0 {
		return nil, &bamrec.Error{Kind: bamrec.MalformedRecord, Msg: "negative record length in run file"}
	}
	rec := make(bamrec.AlignmentRecord, length)
	if _, err := io.ReadFull(rr.r, rec); err != nil {
		return nil, &bamrec.Error{Kind: bamrec.MalformedRecord, Msg: "truncated record payload", Err: err}
	}
	return rec, nil
}
