package bamrec

import "strconv"

// CigarOpType is the operation code of a single CIGAR operation: the
// seven classic BAM codes plus the `=`/`X` extension for exact-match and
// mismatch, kept distinct from plain M for tools that want the finer
// distinction.
type CigarOpType byte

const (
	CigarMatch CigarOpType = iota // M
	CigarInsertion                // I
	CigarDeletion                 // D
	CigarSkipped                  // N
	CigarSoftClipped              // S
	CigarHardClipped              // H
	CigarPadded                   // P
	CigarEqual                    // =
	CigarMismatch                 // X
)

var cigarOpCodes = [...]byte{'M', 'I', 'D', 'N', 'S', 'H', 'P', '=', 'X'}

func (t CigarOpType) String() string {
	if int(t) >= len(cigarOpCodes) {
		return "?"
	}
	return string(cigarOpCodes[t])
}

// consumesQuery and consumesReference record whether an operation of
// this type consumes bases of the query read or of the reference.
var consumesQuery = [...]bool{
	CigarMatch: true, CigarInsertion: true, CigarSoftClipped: true,
	CigarEqual: true, CigarMismatch: true,
}

var consumesReference = [...]bool{
	CigarMatch: true, CigarDeletion: true, CigarSkipped: true,
	CigarEqual: true, CigarMismatch: true,
}

// CigarOp is a single (operation, length) pair, packed as the BAM spec
// requires: high 28 bits length, low 4 bits operation code.
type CigarOp uint32

// NewCigarOp packs an operation type and length into a CigarOp.
func NewCigarOp(t CigarOpType, length int) CigarOp {
	return CigarOp(length)<<4 | CigarOp(t)
}

// Type returns the operation code of the CIGAR operation.
func (c CigarOp) Type() CigarOpType { return CigarOpType(c & 0xf) }

// Len returns the length of the CIGAR operation.
func (c CigarOp) Len() int { return int(c >> 4) }

func (c CigarOp) String() string {
	return strconv.Itoa(c.Len()) + c.Type().String()
}

// cigarRegionLen returns the byte length of the CIGAR region for a record
// declaring cigarLen operations. When cigarLen is 0 the region is still 4
// bytes (reserved, all zero) so that downstream field offsets do not shift
// depending on whether CIGAR is present.
func cigarRegionLen(cigarLen int) int {
	if cigarLen == 0 {
		return 4
	}
	return 4 * cigarLen
}

// decodeCigar decodes cigarLen u32 words starting at offset into CigarOp
// values: each word is (length = word>>4, op = word&0xF).
func decodeCigar(b []byte, offset, cigarLen int) []CigarOp {
	if cigarLen == 0 {
		return nil
	}
	ops := make([]CigarOp, cigarLen)
	for i := 0; i < cigarLen; i++ {
		ops[i] = CigarOp(getU32(b, offset+4*i))
	}
	return ops
}

// encodeCigar writes ops as cigarLen u32 words at offset, the inverse of
// decodeCigar. Each op's packed word is written as is; the operation code
// is not checked, so encoding never fails.
func encodeCigar(b []byte, offset int, ops []CigarOp) {
	for i, op := range ops {
		putU32(b, offset+4*i, uint32(op))
	}
}

// AlignmentReadLength sums operation lengths where the operation consumes
// query bases (I, M, S, =, X).
func AlignmentReadLength(ops []CigarOp) int {
	n := 0
	for _, op := range ops {
		if int(op.Type()) < len(consumesQuery) && consumesQuery[op.Type()] {
			n += op.Len()
		}
	}
	return n
}

// AlignmentReferenceLength sums operation lengths where the operation
// consumes reference bases (D, M, N, =, X).
func AlignmentReferenceLength(ops []CigarOp) int {
	n := 0
	for _, op := range ops {
		if int(op.Type()) < len(consumesReference) && consumesReference[op.Type()] {
			n += op.Len()
		}
	}
	return n
}
