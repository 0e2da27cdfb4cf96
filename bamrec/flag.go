package bamrec

import "strings"

// Flags holds the 16-bit BAM alignment flag.
type Flags uint16

const (
	SequencedPair         Flags = 1 << iota // 0: the read is one of a pair
	MappedProperPair                        // 1: the pair is mapped in a proper configuration
	QueryUnmapped                           // 2: the query sequence is unmapped
	MateUnmapped                            // 3: the mate is unmapped
	QueryReverse                            // 4: strand of the query
	MateReverse                             // 5: strand of the mate
	FirstInPair                             // 6: the read is the first read in a pair
	SecondInPair                            // 7: the read is the second read in a pair
	AlignmentNotPrimary                     // 8: not the primary alignment for a multiply-aligned read
	FailsPlatformQC                         // 9: failed platform or vendor quality checks
	PcrOrOpticalDuplicate                   // 10: PCR or optical duplicate
)

var flagNames = [...]string{
	"sequenced_pair",
	"mapped_proper_pair",
	"query_unmapped",
	"mate_unmapped",
	"query_reverse",
	"mate_reverse",
	"first_in_pair",
	"second_in_pair",
	"alignment_not_primary",
	"fails_platform_qc",
	"pcr_or_optical_duplicate",
}

// Named bit predicates.

func (f Flags) SequencedPair() bool         { return f&SequencedPair != 0 }
func (f Flags) MappedProperPair() bool      { return f&MappedProperPair != 0 }
func (f Flags) QueryUnmapped() bool         { return f&QueryUnmapped != 0 }
func (f Flags) MateUnmapped() bool          { return f&MateUnmapped != 0 }
func (f Flags) QueryReverse() bool          { return f&QueryReverse != 0 }
func (f Flags) MateReverse() bool           { return f&MateReverse != 0 }
func (f Flags) FirstInPair() bool           { return f&FirstInPair != 0 }
func (f Flags) SecondInPair() bool          { return f&SecondInPair != 0 }
func (f Flags) AlignmentNotPrimary() bool   { return f&AlignmentNotPrimary != 0 }
func (f Flags) FailsPlatformQC() bool       { return f&FailsPlatformQC != 0 }
func (f Flags) PcrOrOpticalDuplicate() bool { return f&PcrOrOpticalDuplicate != 0 }

// Complements of the above.

func (f Flags) QueryMapped() bool      { return !f.QueryUnmapped() }
func (f Flags) MateMapped() bool       { return !f.MateUnmapped() }
func (f Flags) QueryForward() bool     { return !f.QueryReverse() }
func (f Flags) MateForward() bool      { return !f.MateReverse() }
func (f Flags) AlignmentPrimary() bool { return !f.AlignmentNotPrimary() }

// Validate applies the three-case flag validity rule (mapped proper
// pair, sequenced pair, unpaired) and returns a *FlagError describing
// the failing sub-rule, or nil.
func (f Flags) Validate() error {
	switch {
	case f.MappedProperPair():
		if !f.SequencedPair() {
			return &FlagError{Flag: f, Reason: "mapped_proper_pair requires sequenced_pair"}
		}
		if f.FirstInPair() == f.SecondInPair() {
			return &FlagError{Flag: f, Reason: "mapped_proper_pair requires exactly one of first_in_pair/second_in_pair"}
		}
		if !f.QueryMapped() || !f.MateMapped() {
			return &FlagError{Flag: f, Reason: "mapped_proper_pair requires both query and mate mapped"}
		}
		if f.QueryForward() == f.MateForward() {
			return &FlagError{Flag: f, Reason: "mapped_proper_pair requires query and mate on opposite strands"}
		}
	case f.SequencedPair():
		if f.FirstInPair() == f.SecondInPair() {
			return &FlagError{Flag: f, Reason: "sequenced_pair requires exactly one of first_in_pair/second_in_pair"}
		}
	default:
		if f.MateReverse() {
			return &FlagError{Flag: f, Reason: "unpaired record must not set mate_reverse"}
		}
		if f.MateUnmapped() {
			return &FlagError{Flag: f, Reason: "unpaired record must not set mate_unmapped"}
		}
		if f.FirstInPair() {
			return &FlagError{Flag: f, Reason: "unpaired record must not set first_in_pair"}
		}
		if f.SecondInPair() {
			return &FlagError{Flag: f, Reason: "unpaired record must not set second_in_pair"}
		}
	}
	return nil
}

// String renders the set bit names, comma separated, in declaration order.
func (f Flags) String() string {
	var names []string
	for i, name := range flagNames {
		if f&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

var clearingBits = map[string]Flags{
	"query_mapped":      QueryUnmapped,
	"mate_mapped":       MateUnmapped,
	"query_forward":     QueryReverse,
	"mate_forward":      MateReverse,
	"alignment_primary": AlignmentNotPrimary,
}

var settingBits = map[string]Flags{
	"sequenced_pair":           SequencedPair,
	"mapped_proper_pair":       MappedProperPair,
	"query_unmapped":           QueryUnmapped,
	"mate_unmapped":            MateUnmapped,
	"query_reverse":            QueryReverse,
	"mate_reverse":             MateReverse,
	"first_in_pair":            FirstInPair,
	"second_in_pair":           SecondInPair,
	"alignment_not_primary":    AlignmentNotPrimary,
	"fails_platform_qc":        FailsPlatformQC,
	"pcr_or_optical_duplicate": PcrOrOpticalDuplicate,
}

// FlagBits sets (or, for the five complement names, clears) the named
// bits on top of base, then validates the result.
func FlagBits(base Flags, names ...string) (Flags, error) {
	f := base
	for _, name := range names {
		if bit, ok := clearingBits[name]; ok {
			f &^= bit
			continue
		}
		bit, ok := settingBits[name]
		if !ok {
			return 0, newError(InvalidArgument, "unknown flag bit name "+name)
		}
		f |= bit
	}
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return f, nil
}
