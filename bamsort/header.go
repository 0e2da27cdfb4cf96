package bamsort

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/coralbio/hts/bamrec"
)

var bamMagic = [4]byte{'B', 'A', 'M', 1}

// ReadHeaderMeta reads the BAM magic, header text and reference
// dictionary from r. The header text is treated as an opaque blob. The
// binary layout is: magic, int32 l_text, text bytes, int32 n_ref, then
// per reference (int32 l_name, name\0, int32 l_ref).
func ReadHeaderMeta(r io.Reader) (text []byte, refs []ReferenceEntry, err error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, nil, wrapIOErr(err)
	}
	if magic != bamMagic {
		return nil, nil, &bamrec.Error{Kind: bamrec.MalformedRecord, Msg: "bad BAM magic"}
	}
	lText, err := readI32(r)
	if err != nil {
		return nil, nil, err
	}
	text = make([]byte, lText)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, nil, wrapIOErr(err)
	}
	nRef, err := readI32(r)
	if err != nil {
		return nil, nil, err
	}
	refs = make([]ReferenceEntry, nRef)
	for i := range refs {
		lName, err := readI32(r)
		if err != nil {
			return nil, nil, err
		}
		name := make([]byte, lName)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, nil, wrapIOErr(err)
		}
		lRef, err := readI32(r)
		if err != nil {
			return nil, nil, err
		}
		refs[i] = ReferenceEntry{Name: string(bytes.TrimRight(name, "\x00")), Length: lRef}
	}
	return text, refs, nil
}

// WriteHeaderMeta writes the BAM magic, header text and reference
// dictionary to w: the exact inverse framing of ReadHeaderMeta.
func WriteHeaderMeta(w io.Writer, text []byte, refs []ReferenceEntry) error {
	if _, err := w.Write(bamMagic[:]); err != nil {
		return wrapIOErr(err)
	}
	if err := writeI32(w, int32(len(text))); err != nil {
		return err
	}
	if _, err := w.Write(text); err != nil {
		return wrapIOErr(err)
	}
	if err := writeI32(w, int32(len(refs))); err != nil {
		return err
	}
	for _, ref := range refs {
		name := append([]byte(ref.Name), 0)
		if err := writeI32(w, int32(len(name))); err != nil {
			return err
		}
		if _, err := w.Write(name); err != nil {
			return wrapIOErr(err)
		}
		if err := writeI32(w, ref.Length); err != nil {
			return err
		}
	}
	return nil
}

func readI32(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapIOErr(err)
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

func writeI32(w io.Writer, v int32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	_, err := w.Write(b[:])
	if err != nil {
		return wrapIOErr(err)
	}
	return nil
}

func wrapIOErr(err error) error {
	if err == io.EOF {
		return err
	}
	return &bamrec.Error{Kind: bamrec.BgzfIo, Msg: "header meta io failed", Err: err}
}

// RewriteSortOrder substitutes the @HD line's SO: field in header text
// with order, or adds a @HD line with default VN: and the new SO: if
// none exists. All other header lines and fields are left
// byte-identical.
func RewriteSortOrder(text []byte, order string) []byte {
	lines := bytes.Split(text, []byte("\n"))
	found := false
	for i, line := range lines {
		if !bytes.HasPrefix(line, []byte("@HD")) {
			continue
		}
		found = true
		lines[i] = rewriteHDLine(line, order)
	}
	if found {
		return bytes.Join(lines, []byte("\n"))
	}
	hd := []byte("@HD\tVN:1.6\tSO:" + order)
	return append(append(hd, '\n'), text...)
}

func rewriteHDLine(line []byte, order string) []byte {
	fields := bytes.Split(line, []byte("\t"))
	replaced := false
	for i, f := range fields {
		if bytes.HasPrefix(f, []byte("SO:")) {
			fields[i] = []byte("SO:" + order)
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, []byte("SO:"+order))
	}
	return bytes.Join(fields, []byte("\t"))
}
