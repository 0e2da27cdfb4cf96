package bgzf

import (
	"io"

	"github.com/coralbio/hts/bamrec"
)

// bufSize is the fixed internal buffer size, matching a single
// fixed-capacity block buffer per read.
const bufSize = 8192

// BufferedStream is a byte stream adapter over a Handle: a fixed
// 8192-byte internal buffer, single-byte and bulk reads, and seeking by
// virtual file position.
type BufferedStream struct {
	h        Handle
	buf      [bufSize]byte
	offset   int // next byte to deliver
	numBytes int // bytes currently valid in buf
	closed   bool
}

// NewBufferedStream wraps h in a BufferedStream. The buffer starts empty;
// the first read triggers a refill.
func NewBufferedStream(h Handle) *BufferedStream {
	return &BufferedStream{h: h}
}

// refill reads up to 8192 bytes from the underlying handle into the
// internal buffer. On a short read (including zero bytes) the buffer
// simply holds fewer valid bytes; the next call to ReadByte/ReadInto
// will refill again. A genuine handle failure is wrapped as a BgzfIo
// error, matching every other method on BufferedStream; clean
// exhaustion is reported as plain io.EOF.
func (s *BufferedStream) refill() error {
	n, err := s.h.Read(s.buf[:])
	s.offset = 0
	s.numBytes = n
	if n > 0 {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.EOF
	}
	return wrapIOErr(err)
}

// ReadByte returns the next byte, refilling the buffer if it is empty.
// It returns io.EOF once the underlying handle is exhausted.
func (s *BufferedStream) ReadByte() (byte, error) {
	if s.offset >= s.numBytes {
		if err := s.refill(); err != nil {
			return 0, err
		}
	}
	b := s.buf[s.offset]
	s.offset++
	return b, nil
}

// ReadInto copies from the internal buffer into p, refilling as needed
// until p is full or the underlying handle is exhausted. It returns the
// number of bytes copied and, if fewer than len(p) bytes could be
// copied, the error that stopped it (io.EOF on clean exhaustion).
func (s *BufferedStream) ReadInto(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		if s.offset >= s.numBytes {
			if err := s.refill(); err != nil {
				return total, err
			}
		}
		n := copy(p[total:], s.buf[s.offset:s.numBytes])
		s.offset += n
		total += n
	}
	return total, nil
}

// FilePosition returns tell() minus the buffered remainder: the virtual
// offset of the next byte ReadByte/ReadInto would deliver.
func (s *BufferedStream) FilePosition() (int64, error) {
	tell, err := s.h.Tell()
	if err != nil {
		return 0, wrapIOErr(err)
	}
	return tell - int64(s.numBytes-s.offset), nil
}

// SeekTo calls the underlying handle's Seek, then resets the buffer to
// empty.
func (s *BufferedStream) SeekTo(virtualOffset int64) error {
	if _, err := s.h.Seek(virtualOffset, io.SeekStart); err != nil {
		return wrapIOErr(err)
	}
	s.offset = 0
	s.numBytes = 0
	return nil
}

// Close closes the underlying handle exactly once; a failure to close is
// reported as a BgzfIo error.
func (s *BufferedStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.h.Close(); err != nil {
		return wrapIOErr(err)
	}
	return nil
}

// Write passes p straight through to the underlying handle; writes are
// not buffered by this stream, which treats buffering as a read-side
// concern (the BGZF handle itself performs block-level output buffering
// on the write side).
func (s *BufferedStream) Write(p []byte) (int, error) {
	n, err := s.h.Write(p)
	if err != nil {
		return n, wrapIOErr(err)
	}
	return n, nil
}

func wrapIOErr(err error) error {
	return &bamrec.Error{Kind: bamrec.BgzfIo, Msg: "bgzf handle operation failed", Err: err}
}
