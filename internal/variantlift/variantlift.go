// Package variantlift lifts a single left-aligned, normalized variant
// across an indexed chain file, producing one LiftedVariant per chain the
// variant (and its gap neighborhood) lands in cleanly.
package variantlift

import (
	"errors"
	"fmt"

	"github.com/inodb/genolift/internal/chainio"
	"github.com/inodb/genolift/internal/normalize"
	"github.com/inodb/genolift/internal/poslift"
	"github.com/inodb/genolift/internal/sequence"
	"github.com/inodb/genolift/internal/variant"
)

// ErrUnknownSequenceName is returned when the variant's chromosome has no
// entry in the original-assembly contig table.
var ErrUnknownSequenceName = errors.New("variantlift: unknown sequence name")

// ErrReferenceMismatch is returned when the variant's REF does not match
// the original-assembly sequence at its stated position.
var ErrReferenceMismatch = errors.New("variantlift: reference sequence does not match")

// UnacceptableIndelError is returned when a candidate chain region grows
// the variant past the caller's acceptable deletion/insertion bound.
type UnacceptableIndelError struct {
	Kind  string // "deletion" or "insertion"
	Chrom string
	Start uint64
	End   uint64
}

func (e *UnacceptableIndelError) Error() string {
	return fmt.Sprintf("variantlift: unacceptable large %s at %s:%d-%d", e.Kind, e.Chrom, e.Start, e.End)
}

// LiftedVariant is one successfully lifted allele set.
type LiftedVariant struct {
	Chrom             string
	Pos               uint64
	Strand            chainio.Strand
	OriginalReference []byte
	Ref               []byte
	Alt               [][]byte
	ReferenceChanged  bool
}

// Lifter lifts variants using a position index plus both assemblies'
// sequence providers.
type Lifter struct {
	originalSeq sequence.Provider
	newSeq      sequence.Provider
	index       *poslift.Index
}

// New builds a Lifter from an already-built position index.
func New(index *poslift.Index, originalSeq, newSeq sequence.Provider) *Lifter {
	return &Lifter{originalSeq: originalSeq, newSeq: newSeq, index: index}
}

// Index returns the underlying position index.
func (l *Lifter) Index() *poslift.Index { return l.index }

// LiftVariant lifts v (expected already left-aligned) across every chain it
// overlaps, within acceptableDeletion/acceptableInsertion bases of gap
// growth. Each element of the result is either a LiftedVariant or an error
// describing why that particular chain candidate was rejected.
func (l *Lifter) LiftVariant(v variant.Variant, acceptableDeletion, acceptableInsertion uint64) ([]Result, error) {
	if _, ok := l.index.OriginalContigByName(v.Chrom); !ok {
		return []Result{{Err: fmt.Errorf("%w: %s", ErrUnknownSequenceName, v.Chrom)}}, nil
	}

	start := v.Pos
	end := v.Pos + uint64(len(v.Ref))
	largestAlt := v.LargestAlt()

	expectedRef, err := l.originalSeq.Sequence(v.Chrom, start, end)
	if err != nil {
		return nil, err
	}
	if string(expectedRef) != string(v.Ref) {
		return []Result{{Err: ErrReferenceMismatch}}, nil
	}

	var searchStart, searchEnd uint64
	if v.IsSNV() {
		searchStart, searchEnd = start, end
	} else {
		if start >= 1 {
			searchStart = start - 1
		}
		searchEnd = end + 1
	}

	groups := l.index.SearchTarget(v.Chrom, searchStart, searchEnd)

	var results []Result
	for _, group := range groups {
		considerStart, considerEnd := start, end
		for _, t := range group {
			if !t.IsInGap {
				continue
			}
			if t.OriginalStart < considerStart {
				considerStart = t.OriginalStart
			}
			if t.OriginalEnd+1 > considerEnd {
				considerEnd = t.OriginalEnd + 1
			}
		}

		var region *poslift.RegionResult
		for _, r := range l.index.LiftRegion(v.Chrom, considerStart, considerEnd) {
			if r.ChainIndex == group[0].ChainIndex {
				rr := r
				region = &rr
				break
			}
		}
		if region == nil {
			continue
		}

		var rejected *Result
		for _, t := range group {
			if !t.IsInGap {
				continue
			}
			if t.OriginalLen() > acceptableDeletion+uint64(len(v.Ref)) {
				rejected = &Result{Err: &UnacceptableIndelError{Kind: "deletion", Chrom: region.Chrom, Start: region.Start, End: region.End}}
				break
			}
		}
		if rejected == nil {
			for _, t := range group {
				if !t.IsInGap {
					continue
				}
				if t.NewLen() > acceptableInsertion+uint64(largestAlt) {
					rejected = &Result{Err: &UnacceptableIndelError{Kind: "insertion", Chrom: region.Chrom, Start: region.Start, End: region.End}}
					break
				}
			}
		}
		if rejected != nil {
			results = append(results, *rejected)
			continue
		}

		extendedStart, err := l.originalSeq.Sequence(v.Chrom, considerStart, start)
		if err != nil {
			return nil, err
		}
		extendedEnd, err := l.originalSeq.Sequence(v.Chrom, end, considerEnd)
		if err != nil {
			return nil, err
		}

		querySeq, err := l.newSeq.Sequence(region.Chrom, region.Start, region.End)
		if err != nil {
			return nil, err
		}

		referenceOriginal := concat(extendedStart, v.Ref, extendedEnd)
		alternateOriginal := make([][]byte, len(v.Alt))
		for i, a := range v.Alt {
			if variant.IsStar(a) {
				alternateOriginal[i] = append([]byte(nil), a...)
			} else {
				alternateOriginal[i] = concat(extendedStart, a, extendedEnd)
			}
		}

		referenceSeq := referenceOriginal
		alternateSeq := alternateOriginal
		if region.Strand == chainio.Reverse {
			referenceSeq = sequence.ReverseComplement(referenceOriginal)
			for i, a := range alternateOriginal {
				alternateSeq[i] = sequence.ReverseComplement(a)
			}
		}

		candidate := variant.Variant{
			Chrom: region.Chrom,
			Pos:   region.Start,
			Ref:   querySeq,
			Alt:   append([][]byte{referenceSeq}, alternateSeq...),
		}
		normalized, err := normalize.Normalize(candidate, l.newSeq)
		if err != nil {
			return nil, err
		}

		originalReference := normalized.Alt[0]
		results = append(results, Result{Value: &LiftedVariant{
			Chrom:             normalized.Chrom,
			Pos:               normalized.Pos,
			Strand:            region.Strand,
			OriginalReference: originalReference,
			Ref:               normalized.Ref,
			Alt:               normalized.Alt[1:],
			ReferenceChanged:  string(originalReference) != string(normalized.Ref),
		}})
	}
	return results, nil
}

// Result is one chain candidate's lift outcome: exactly one of Value or
// Err is set.
type Result struct {
	Value *LiftedVariant
	Err   error
}

func concat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
