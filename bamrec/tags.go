package bamrec

import (
	"encoding/hex"
	"math"

	"golang.org/x/exp/slices"
)

// ValueType is the declared semantic type of a tag registry entry:
// character, string, hex string, 32-bit signed integer, or
// single-precision float. Dispatch for encoding is by this declared
// type, never by the runtime type of the Go value supplied.
type ValueType int

const (
	CharType ValueType = iota
	StringType
	HexType
	Int32Type
	FloatType
)

// TagEntry is one row of the tag registry: a declared value type and
// human-readable documentation.
type TagEntry struct {
	Type ValueType
	Doc  string
}

// registry is populated once at init time with a fixed initial set;
// entries are read-only thereafter, so no synchronization is needed for
// concurrent reads.
var registry = map[string]TagEntry{
	"RG": {StringType, "Read group"},
	"LB": {StringType, "Library"},
	"PU": {StringType, "Platform unit"},
	"PG": {StringType, "Program"},
	"AS": {Int32Type, "Alignment score generated by aligner"},
	"SQ": {StringType, "Alternative sequence"},
	"MQ": {Int32Type, "Mapping quality of the mate/next segment"},
	"NM": {Int32Type, "Edit distance to the reference"},
	"H0": {Int32Type, "Number of perfect hits"},
	"H1": {Int32Type, "Number of 1-difference hits"},
	"H2": {Int32Type, "Number of 2-difference hits"},
	"UQ": {Int32Type, "Phred likelihood of the segment, conditional on mapping correctly"},
	"PQ": {Int32Type, "Phred likelihood of the template"},
	"NH": {Int32Type, "Number of reported alignments for the query"},
	"IH": {Int32Type, "Number of stored alignments in the BAM file for the query"},
	"HI": {Int32Type, "Query hit index"},
	"MD": {StringType, "Mismatching positions/bases"},
	"CS": {StringType, "Color read sequence"},
	"CQ": {StringType, "Color read quality"},
	"CM": {Int32Type, "Number of color differences"},
	"GS": {StringType, "Color pair sequence"},
	"GQ": {StringType, "Color pair quality"},
	"GC": {StringType, "Color pair CIGAR"},
	"R2": {StringType, "Sequence of the mate/next segment"},
	"Q2": {StringType, "Quality of the mate/next segment"},
	"S2": {StringType, "Phred likelihood of the mate/next segment"},
	"CC": {StringType, "Reference name of the next hit"},
	"CP": {Int32Type, "Leftmost coordinate of the next hit"},
	"SM": {Int32Type, "Template-independent mapping quality"},
	"AM": {Int32Type, "Smaller of this and the mate's mapping quality"},
	"MF": {Int32Type, "Deprecated flag field"},
	"X0": {Int32Type, "Number of best hits"},
	"X1": {Int32Type, "Number of suboptimal hits"},
	"XG": {Int32Type, "Number of gap extensions"},
	"XM": {Int32Type, "Number of mismatches in the alignment"},
	"XO": {Int32Type, "Number of gap opens"},
	"XT": {CharType, "Type of the alignment generated by BWA"},
}

// TagDocumentation returns the documentation string for key, or
// ("", false) if key is not registered.
func TagDocumentation(key string) (string, bool) {
	e, ok := registry[key]
	return e.Doc, ok
}

// RegisteredTags returns the registered two-letter keywords in sorted
// order, used by documentation dumps.
func RegisteredTags() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Tag is an auxiliary tag entry decoded from a record: its two-letter
// keyword, BAM type code byte, and typed value (one of int64, float32,
// string, []byte for H, or byte for A).
type Tag struct {
	Key   string
	Code  byte
	Value interface{}
}

// decodeTags iterates the auxiliary tag region from offset to the end of
// the record, following the advance-by-encoded-length rule of spec
// section 4.2.
func decodeTags(b []byte, offset int) ([]Tag, error) {
	var tags []Tag
	i := offset
	for i < len(b) {
		if i+3 > len(b) {
			return nil, newError(MalformedRecord, "truncated tag entry")
		}
		key := string(b[i : i+2])
		code := b[i+2]
		i += 3
		var v interface{}
		switch code {
		case 'A':
			v = b[i]
			i++
		case 'c':
			v = int64(getI8(b, i))
			i++
		case 'C':
			v = int64(getU8(b, i))
			i++
		case 's':
			v = int64(getI16(b, i))
			i += 2
		case 'S':
			v = int64(getU16(b, i))
			i += 2
		case 'i':
			v = int64(getI32(b, i))
			i += 4
		case 'I':
			v = int64(getU32(b, i))
			i += 4
		case 'f':
			v = getF32(b, i)
			i += 4
		case 'Z':
			end := indexNUL(b, i)
			v = string(b[i:end])
			i = end + 1
		case 'H':
			end := indexNUL(b, i)
			decoded, err := hex.DecodeString(string(b[i:end]))
			if err != nil {
				return nil, wrapError(MalformedRecord, "invalid hex tag payload", err)
			}
			v = decoded
			i = end + 1
		default:
			return nil, newError(MalformedRecord, "unknown tag type code "+string(code))
		}
		tags = append(tags, Tag{Key: key, Code: code, Value: v})
	}
	return tags, nil
}

func indexNUL(b []byte, from int) int {
	for i := from; i < len(b); i++ {
		if b[i] == 0 {
			return i
		}
	}
	return len(b)
}

// tagEncodedLen returns the number of bytes encodeTag will write for this
// key/value pair, used to size the record buffer in advance.
func tagEncodedLen(key string, value interface{}) (int, error) {
	entry, ok := registry[key]
	if !ok {
		return 0, newError(UnknownTag, "unregistered tag "+key)
	}
	switch entry.Type {
	case CharType:
		return 3 + 1, nil
	case StringType:
		s, ok := value.(string)
		if !ok {
			return 0, newError(InvalidArgument, "tag "+key+" requires a string value")
		}
		return 3 + len(s) + 1, nil
	case HexType:
		h, ok := value.([]byte)
		if !ok {
			return 0, newError(InvalidArgument, "tag "+key+" requires a []byte value")
		}
		return 3 + hex.EncodedLen(len(h)) + 1, nil
	case Int32Type:
		n, ok := toInt64(value)
		if !ok {
			return 0, newError(InvalidArgument, "tag "+key+" requires an integer value")
		}
		return 3 + narrowIntWidth(n), nil
	case FloatType:
		return 3 + 4, nil
	}
	return 0, newError(UnknownTag, "tag "+key+" has no known encoder")
}

// encodeTag writes key/value at offset using the encoder the registry's
// declared type selects, and returns the offset immediately past the
// written entry.
func encodeTag(b []byte, offset int, key string, value interface{}) (int, error) {
	entry, ok := registry[key]
	if !ok {
		return 0, newError(UnknownTag, "unregistered tag "+key)
	}
	copy(b[offset:offset+2], key)
	i := offset + 2
	switch entry.Type {
	case CharType:
		c, ok := value.(byte)
		if !ok {
			if s, ok2 := value.(string); ok2 && len(s) == 1 {
				c = s[0]
			} else {
				return 0, newError(InvalidArgument, "tag "+key+" requires a single printable character")
			}
		}
		b[i] = 'A'
		b[i+1] = c
		i += 2
	case StringType:
		s := value.(string)
		b[i] = 'Z'
		i++
		copy(b[i:], s)
		i += len(s)
		b[i] = 0
		i++
	case HexType:
		h := value.([]byte)
		b[i] = 'H'
		i++
		hex.Encode(b[i:], h)
		i += hex.EncodedLen(len(h))
		b[i] = 0
		i++
	case Int32Type:
		n, _ := toInt64(value)
		i = encodeNarrowInt(b, i, n)
	case FloatType:
		f, ok := toFloat32(value)
		if !ok {
			return 0, newError(InvalidArgument, "tag "+key+" requires a float value")
		}
		b[i] = 'f'
		i++
		putF32(b, i, f)
		i += 4
	default:
		return 0, newError(UnknownTag, "tag "+key+" has no known encoder")
	}
	return i, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func toFloat32(v interface{}) (float32, bool) {
	switch f := v.(type) {
	case float32:
		return f, true
	case float64:
		return float32(f), true
	}
	return 0, false
}

// narrowIntWidth returns the number of payload bytes the narrowest integer
// encoding of n occupies: prefer unsigned when non-negative, else the
// smallest signed width.
func narrowIntWidth(n int64) int {
	switch {
	case n >= 0 && n <= math.MaxUint8:
		return 1
	case n < 0 && n >= math.MinInt8:
		return 1
	case n >= 0 && n <= math.MaxUint16:
		return 2
	case n < 0 && n >= math.MinInt16:
		return 2
	case n >= 0 && n <= math.MaxUint32:
		return 4
	default:
		return 4
	}
}

// encodeNarrowInt writes n at offset using the narrowest-width encoding
// and returns the offset past the written type-code+payload.
func encodeNarrowInt(b []byte, offset int, n int64) int {
	switch {
	case n >= 0 && n <= math.MaxUint8:
		b[offset] = 'C'
		putU8(b, offset+1, uint8(n))
		return offset + 2
	case n < 0 && n >= math.MinInt8:
		b[offset] = 'c'
		putI8(b, offset+1, int8(n))
		return offset + 2
	case n >= 0 && n <= math.MaxUint16:
		b[offset] = 'S'
		putU16(b, offset+1, uint16(n))
		return offset + 3
	case n < 0 && n >= math.MinInt16:
		b[offset] = 's'
		putI16(b, offset+1, int16(n))
		return offset + 3
	case n >= 0 && n <= math.MaxUint32:
		b[offset] = 'I'
		putU32(b, offset+1, uint32(n))
		return offset + 5
	default:
		b[offset] = 'i'
		putI32(b, offset+1, int32(n))
		return offset + 5
	}
}
