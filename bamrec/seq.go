package bamrec

// Nibble encoding of the six supported bases, restricted to this
// smaller alphabet rather than a full IUPAC ambiguity-code table.
var baseToNibble = map[byte]byte{
	'=': 0, 'a': 1, 'A': 1, 'c': 2, 'C': 2, 'g': 4, 'G': 4, 't': 8, 'T': 8, 'n': 15, 'N': 15,
}

var nibbleToBase = [16]byte{
	0: '=', 1: 'A', 2: 'C', 4: 'G', 8: 'T', 15: 'N',
}

// decodeSeq unpacks readLen bases from the 4-bit packed seq region
// starting at offset: the base at read position i lives in the high
// nibble of byte i/2 when i is even, the low nibble otherwise.
func decodeSeq(b []byte, offset, readLen int) []byte {
	if readLen == 0 {
		return nil
	}
	out := make([]byte, readLen)
	for i := 0; i < readLen; i++ {
		by := b[offset+i/2]
		var nibble byte
		if i%2 == 0 {
			nibble = by >> 4
		} else {
			nibble = by & 0xf
		}
		out[i] = nibbleToBase[nibble]
	}
	return out
}

// encodeSeq packs seq into ⌈len(seq)/2⌉ bytes at offset, the inverse of
// decodeSeq. When len(seq) is odd the trailing low nibble is left zero.
func encodeSeq(b []byte, offset int, seq []byte) error {
	n := (len(seq) + 1) / 2
	for i := 0; i < n; i++ {
		hi, err := baseNibble(seq, 2*i)
		if err != nil {
			return err
		}
		var lo byte
		if 2*i+1 < len(seq) {
			lo, err = baseNibble(seq, 2*i+1)
			if err != nil {
				return err
			}
		}
		b[offset+i] = hi<<4 | lo
	}
	return nil
}

func baseNibble(seq []byte, i int) (byte, error) {
	if i >= len(seq) {
		return 0, nil
	}
	n, ok := baseToNibble[seq[i]]
	if !ok {
		return 0, newError(InvalidArgument, "invalid base in sequence: "+string(seq[i]))
	}
	return n, nil
}

// seqByteLen returns the number of packed bytes needed for readLen bases.
func seqByteLen(readLen int) int { return (readLen + 1) / 2 }

const qualAbsent = 0xff
const qualClamp = 93

// decodeQual decodes the readLen-byte quality region at offset: a
// leading 0xFF marks absence; otherwise each byte is clamped to 93 and
// converted to a Phred+33 ASCII character.
func decodeQual(b []byte, offset, readLen int) []byte {
	if readLen == 0 {
		// No quality bytes are stored when there is no sequence; treat
		// this as absent, matching the make_alignment_record boundary
		// case of read_len=0 with quality=None.
		return nil
	}
	if b[offset] == qualAbsent {
		return nil
	}
	out := make([]byte, readLen)
	for i := 0; i < readLen; i++ {
		v := b[offset+i]
		if v > qualClamp {
			v = qualClamp
		}
		out[i] = v + 33
	}
	return out
}

// encodeQual writes quality at offset: a single 0xFF if quality is nil,
// otherwise byte = ord(char)-33 per character, without clamping (the
// caller is trusted).
func encodeQual(b []byte, offset int, readLen int, quality []byte) {
	if readLen == 0 {
		return
	}
	if quality == nil {
		b[offset] = qualAbsent
		return
	}
	for i := 0; i < readLen; i++ {
		b[offset+i] = quality[i] - 33
	}
}

// qualByteLen returns the number of bytes the quality region occupies:
// read_len, or zero if there is no sequence.
func qualByteLen(readLen int) int { return readLen }
