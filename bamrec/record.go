package bamrec

import "fmt"

// AlignmentRecord is a single BAM alignment record represented as a raw
// byte buffer with offset-parameterized accessors rather than a
// structured object. This keeps the cost model of the external sort
// cheap: a record is one allocation, and moving it between buffers is a
// plain slice copy.
type AlignmentRecord []byte

// Fixed core-field offsets.
const (
	offReferenceID     = 0
	offPosition        = 4
	offReadNameLen     = 8
	offMappingQuality  = 9
	offAlignmentBin    = 10
	offCigarLen        = 12
	offFlag            = 14
	offReadLen         = 16
	offMateReferenceID = 20
	offMatePosition    = 24
	offInsertLength    = 28
	fixedHeaderLen     = 32
)

// ReferenceID returns the reference_id field.
func (r AlignmentRecord) ReferenceID() int32 { return getI32(r, offReferenceID) }

// Position returns the position field.
func (r AlignmentRecord) Position() int32 { return getI32(r, offPosition) }

// ReadNameLen returns the read_name_len field, including the NUL.
func (r AlignmentRecord) ReadNameLen() int { return int(getU8(r, offReadNameLen)) }

// MappingQuality returns the mapping_quality field.
func (r AlignmentRecord) MappingQuality() uint8 { return getU8(r, offMappingQuality) }

// AlignmentBin returns the alignment_bin field.
func (r AlignmentRecord) AlignmentBin() uint16 { return getU16(r, offAlignmentBin) }

// CigarLen returns the number of CIGAR operations.
func (r AlignmentRecord) CigarLen() int { return int(getU16(r, offCigarLen)) }

// Flag returns the flag field.
func (r AlignmentRecord) Flag() Flags { return Flags(getU16(r, offFlag)) }

// ReadLength returns the read_len field.
func (r AlignmentRecord) ReadLength() int32 { return getI32(r, offReadLen) }

// MateReferenceID returns the mate_reference_id field.
func (r AlignmentRecord) MateReferenceID() int32 { return getI32(r, offMateReferenceID) }

// MatePosition returns the mate_position field.
func (r AlignmentRecord) MatePosition() int32 { return getI32(r, offMatePosition) }

// InsertLength returns the insert_length (TLEN) field.
func (r AlignmentRecord) InsertLength() int32 { return getI32(r, offInsertLength) }

// Derived indices: all subsequent structural accessors derive from
// these six offsets/lengths rather than scanning.

func (r AlignmentRecord) cigarIndex() int { return fixedHeaderLen + r.ReadNameLen() }

// cigarBytes returns the size of the CIGAR region: 4 bytes per operation,
// or a single reserved all-zero 4-byte slot when cigar_len is 0, so that
// downstream offsets stay fixed regardless of whether CIGAR is present.
func (r AlignmentRecord) cigarBytes() int { return cigarRegionLen(r.CigarLen()) }
func (r AlignmentRecord) seqIndex() int   { return r.cigarIndex() + r.cigarBytes() }
func (r AlignmentRecord) seqBytes() int   { return seqByteLen(int(r.ReadLength())) }
func (r AlignmentRecord) qualIndex() int  { return r.seqIndex() + r.seqBytes() }
func (r AlignmentRecord) tagIndex() int   { return r.qualIndex() + qualByteLen(int(r.ReadLength())) }

// ReadName returns the NUL-terminated read name, without the NUL.
func (r AlignmentRecord) ReadName() string {
	n := r.ReadNameLen()
	if n <= 1 {
		return ""
	}
	return string(r[fixedHeaderLen : fixedHeaderLen+n-1])
}

// Cigar decodes and returns the CIGAR operations.
func (r AlignmentRecord) Cigar() []CigarOp {
	return decodeCigar(r, r.cigarIndex(), r.CigarLen())
}

// Seq decodes and returns the upper-cased base sequence.
func (r AlignmentRecord) Seq() []byte {
	return decodeSeq(r, r.seqIndex(), int(r.ReadLength()))
}

// Quality decodes and returns the Phred+33 quality string, or nil if
// quality is absent.
func (r AlignmentRecord) Quality() []byte {
	return decodeQual(r, r.qualIndex(), int(r.ReadLength()))
}

// Tags decodes and returns every auxiliary tag entry.
func (r AlignmentRecord) Tags() ([]Tag, error) {
	return decodeTags(r, r.tagIndex())
}

// AlignmentReadLength returns the alignment length on the read.
func (r AlignmentRecord) AlignmentReadLength() int {
	return AlignmentReadLength(r.Cigar())
}

// AlignmentReferenceLength returns the alignment length on the reference.
func (r AlignmentRecord) AlignmentReferenceLength() int {
	return AlignmentReferenceLength(r.Cigar())
}

// ValidatedFlag returns this record's flag after running the flag
// validity rule, with any resulting *FlagError filled in with this
// record's read name, position and reference id context. Per spec
// section 9, this is the default way to read a record's flag; hot
// paths that cannot afford validation (e.g. bamsort's sort predicates)
// read Flag() directly instead, bypassing the check on purpose.
func (r AlignmentRecord) ValidatedFlag() (Flags, error) {
	f := r.Flag()
	if err := f.Validate(); err != nil {
		fe := err.(*FlagError)
		fe.ReadName = r.ReadName()
		fe.Position = r.Position()
		fe.ReferenceID = r.ReferenceID()
		return f, fe
	}
	return f, nil
}

// ValidateFlag runs the flag validity rule, yielding a *FlagError filled
// in with this record's read name, position and reference id context,
// or nil. A convenience over ValidatedFlag for callers that only need
// to check validity and not the flag value itself.
func (r AlignmentRecord) ValidateFlag() error {
	_, err := r.ValidatedFlag()
	return err
}

// String renders a compact debug representation, useful for test
// failure output and ad hoc inspection. It validates the flag by
// default, appending the failing sub-rule when the record is
// malformed.
func (r AlignmentRecord) String() string {
	flag, err := r.ValidatedFlag()
	suffix := ""
	if err != nil {
		suffix = fmt.Sprintf(" [invalid flag: %v]", err)
	}
	return fmt.Sprintf("%s\t%d\t%d\t%d\t%v\t%s%s",
		r.ReadName(), flag, r.ReferenceID(), r.Position(), r.Cigar(), r.Seq(), suffix)
}

// RecordOptions configures MakeAlignmentRecord.
type RecordOptions struct {
	ReferenceID     int32
	Position        *int32
	MateReferenceID int32
	MatePosition    *int32
	MappingQuality  uint8
	AlignmentBin    uint16
	InsertLength    int32
	Cigar           []CigarOp
	Quality         []byte
	Tags            []NamedTagValue
}

// NamedTagValue is a (key, value) pair supplied to MakeAlignmentRecord,
// encoded through the tag registry.
type NamedTagValue struct {
	Key   string
	Value interface{}
}

// DefaultRecordOptions returns the defaults: reference_id=-1,
// position absent, mate_reference_id=-1, mate_position absent,
// mapping_quality=0, alignment_bin=0, insert_length=0, cigar=[],
// quality=nil, tags=[].
func DefaultRecordOptions() RecordOptions {
	return RecordOptions{ReferenceID: -1, MateReferenceID: -1}
}

// MakeAlignmentRecord allocates a fresh buffer sized exactly to hold the
// declared fields and configured tags, then writes each field at its
// canonical offset. It fails with InvalidArgument if quality is provided
// and its length differs from len(seq).
func MakeAlignmentRecord(readName string, seq []byte, flag Flags, opts RecordOptions) (AlignmentRecord, error) {
	if opts.Quality != nil && len(opts.Quality) != len(seq) {
		return nil, newError(InvalidArgument, "quality length does not match sequence length")
	}

	readNameLen := len(readName) + 1
	if readNameLen < 1 || readNameLen > 255 {
		return nil, newError(InvalidArgument, "read name absent or too long")
	}
	readLen := len(seq)
	cigarBytes := cigarRegionLen(len(opts.Cigar))
	seqBytes := seqByteLen(readLen)
	qualBytes := qualByteLen(readLen)

	tagLen := 0
	for _, t := range opts.Tags {
		n, err := tagEncodedLen(t.Key, t.Value)
		if err != nil {
			return nil, err
		}
		tagLen += n
	}

	total := fixedHeaderLen + readNameLen + cigarBytes + seqBytes + qualBytes + tagLen
	b := make(AlignmentRecord, total)

	putI32(b, offReferenceID, opts.ReferenceID)
	position := int32(-1)
	if opts.Position != nil {
		position = *opts.Position
	}
	putI32(b, offPosition, position)
	putU8(b, offReadNameLen, uint8(readNameLen))
	putU8(b, offMappingQuality, opts.MappingQuality)
	putU16(b, offAlignmentBin, opts.AlignmentBin)
	putU16(b, offCigarLen, uint16(len(opts.Cigar)))
	putU16(b, offFlag, uint16(flag))
	putI32(b, offReadLen, int32(readLen))
	putI32(b, offMateReferenceID, opts.MateReferenceID)
	matePosition := int32(-1)
	if opts.MatePosition != nil {
		matePosition = *opts.MatePosition
	}
	putI32(b, offMatePosition, matePosition)
	putI32(b, offInsertLength, opts.InsertLength)

	copy(b[fixedHeaderLen:], readName)
	b[fixedHeaderLen+len(readName)] = 0

	if len(opts.Cigar) > 0 {
		encodeCigar(b, b.cigarIndex(), opts.Cigar)
	}

	seqIdx := b.seqIndex()
	if err := encodeSeq(b, seqIdx, seq); err != nil {
		return nil, err
	}

	qualIdx := b.qualIndex()
	encodeQual(b, qualIdx, readLen, opts.Quality)

	tagIdx := b.tagIndex()
	for _, t := range opts.Tags {
		next, err := encodeTag(b, tagIdx, t.Key, t.Value)
		if err != nil {
			return nil, err
		}
		tagIdx = next
	}

	return b, nil
}
