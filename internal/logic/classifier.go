package logic

import "time"

// FNV-1a 32-bit parameters. Changing these, or the ratio thresholds below,
// invalidates every learned code book.
const (
	fnvOffsetBasis uint32 = 2166136261
	fnvPrime       uint32 = 16777619
)

// Ratio thresholds between symbol classes.
const (
	shortBelow = 0.5
	equalBelow = 1.5
)

// ClassifyPair returns the symbol for one mark/space pair.
// A zero (or negative) space classifies as equal.
func ClassifyPair(mark, space time.Duration) Symbol {
	if space <= 0 {
		return SymbolEqual
	}
	ratio := float64(mark) / float64(space)
	switch {
	case ratio < shortBelow:
		return SymbolShort
	case ratio < equalBelow:
		return SymbolEqual
	default:
		return SymbolLong
	}
}

// Symbols returns the symbol sequence of a frame, one per complete
// mark/space pair. A trailing unpaired interval is skipped.
func Symbols(edges []time.Duration) []Symbol {
	out := make([]Symbol, 0, len(edges)/2)
	for i := 0; i+1 < len(edges); i += 2 {
		out = append(out, ClassifyPair(edges[i], edges[i+1]))
	}
	return out
}

// Classify folds the frame's ratio pattern into a Fingerprint. It returns
// false if the frame has fewer than 4 intervals.
//
// Only mark:space ratios contribute, so the same button on remotes of
// different speed, or pressed at a different distance, yields the same
// fingerprint.
func Classify(edges []time.Duration) (Fingerprint, bool) {
	if len(edges) < 4 {
		return 0, false
	}

	h := fnvOffsetBasis
	for i := 0; i+1 < len(edges); i += 2 {
		h ^= uint32(ClassifyPair(edges[i], edges[i+1]))
		h *= fnvPrime
	}
	return Fingerprint(h), true
}
