// Package normalize left-aligns and minimally represents a multi-allelic
// variant against a sequence provider.
package normalize

import (
	"bytes"
	"errors"

	"github.com/inodb/genolift/internal/sequence"
	"github.com/inodb/genolift/internal/variant"
)

// ErrDifferentReference is returned when the caller-supplied REF does not
// match the sequence provider at the stated position.
var ErrDifferentReference = errors.New("reference allele does not match sequence provider")

// Normalize returns v in canonical minimal left-aligned form against seq.
// REF is re-fetched from seq and compared byte-for-byte to v.Ref first.
func Normalize(v variant.Variant, seq sequence.Provider) (variant.Variant, error) {
	refSeq, err := seq.Sequence(v.Chrom, v.Pos, v.Pos+uint64(len(v.Ref)))
	if err != nil {
		return variant.Variant{}, err
	}
	if !bytes.Equal(refSeq, v.Ref) {
		return variant.Variant{}, ErrDifferentReference
	}

	if v.AllAltEqualRef() {
		return v.Clone(), nil
	}
	if v.IsSNV() {
		return v.Clone(), nil
	}

	pos := v.Pos
	alleles := make([][]byte, 0, 1+len(v.Alt))
	alleles = append(alleles, append([]byte(nil), refSeq...))
	for _, a := range v.Alt {
		alleles = append(alleles, append([]byte(nil), a...))
	}

	extendLeftIfEmpty(v.Chrom, seq, &pos, alleles)
	for {
		truncated := truncateRightIfCommonSuffix(pos, alleles)
		extended, err := extendLeftIfEmptyChecked(v.Chrom, seq, &pos, alleles)
		if err != nil {
			return variant.Variant{}, err
		}
		if !truncated && !extended {
			break
		}
	}

	minLen := alleles[0]
	shortest := len(minLen)
	for _, a := range alleles[1:] {
		if variant.IsStar(a) {
			continue
		}
		if len(a) < shortest {
			shortest = len(a)
		}
	}

	commonPrefix := 0
	for i := 0; i < shortest-1; i++ {
		match := true
		for _, a := range alleles[1:] {
			if variant.IsStar(a) {
				continue
			}
			if a[i] != alleles[0][i] {
				match = false
				break
			}
		}
		if !match {
			break
		}
		commonPrefix = i + 1
	}

	if commonPrefix > 0 {
		for i := range alleles {
			if i > 0 && variant.IsStar(alleles[i]) {
				continue
			}
			alleles[i] = alleles[i][commonPrefix:]
		}
		pos += uint64(commonPrefix)
	}

	return variant.Variant{Chrom: v.Chrom, Pos: pos, Ref: alleles[0], Alt: alleles[1:]}, nil
}

// extendLeftIfEmpty performs the unconditional (error-free) initial
// left-extension pass; errors fetching sequence here are not expected to
// occur in well-formed callers but are surfaced by the checked variant
// used inside the fixed-point loop.
func extendLeftIfEmpty(chrom string, seq sequence.Provider, pos *uint64, alleles [][]byte) {
	_, _ = extendLeftIfEmptyChecked(chrom, seq, pos, alleles)
}

func extendLeftIfEmptyChecked(chrom string, seq sequence.Provider, pos *uint64, alleles [][]byte) (bool, error) {
	if !anyEmpty(alleles) || *pos == 0 {
		return false, nil
	}
	*pos--
	base, err := seq.Sequence(chrom, *pos, *pos+1)
	if err != nil {
		return false, err
	}
	for i, a := range alleles {
		if i > 0 && variant.IsStar(a) {
			continue
		}
		alleles[i] = append(append([]byte(nil), base...), a...)
	}
	return true, nil
}

func anyEmpty(alleles [][]byte) bool {
	for _, a := range alleles {
		if len(a) == 0 {
			return true
		}
	}
	return false
}

// truncateRightIfCommonSuffix strips the longest suffix that REF shares
// with every non-star ALT from all of them at once. It does nothing if an
// allele is already empty, but the strip itself may leave an allele empty,
// which the caller's left-extension step then refills.
func truncateRightIfCommonSuffix(pos uint64, alleles [][]byte) bool {
	if len(alleles) <= 1 || pos == 0 {
		return false
	}
	for i, a := range alleles {
		if i > 0 && variant.IsStar(a) {
			continue
		}
		if len(a) == 0 {
			return false
		}
	}

	ref := alleles[0]
	minEqual := -1
	for i := 1; i < len(alleles); i++ {
		if variant.IsStar(alleles[i]) {
			continue
		}
		eq := commonSuffixLen(ref, alleles[i])
		if minEqual == -1 || eq < minEqual {
			minEqual = eq
		}
	}
	if minEqual <= 0 {
		return false
	}
	for i, a := range alleles {
		if i > 0 && variant.IsStar(a) {
			continue
		}
		alleles[i] = a[:len(a)-minEqual]
	}
	return true
}

func commonSuffixLen(a, b []byte) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}

// TrimLeftKeepingOneBase strips the longest common prefix shared by REF
// and every non-star ALT, up to the full length of the shortest allele,
// so unlike Normalize it can leave an allele empty (dropping the anchor
// base of a normalized indel). It does not re-fetch the reference from a
// sequence provider; used by the chain left-aligner after Normalize.
func TrimLeftKeepingOneBase(v variant.Variant) variant.Variant {
	minLen := len(v.Ref)
	for _, a := range v.Alt {
		if variant.IsStar(a) {
			continue
		}
		if len(a) < minLen {
			minLen = len(a)
		}
	}

	matched := 0
	for i := 0; i < minLen; i++ {
		allMatch := true
		for _, a := range v.Alt {
			if variant.IsStar(a) {
				continue
			}
			if a[i] != v.Ref[i] {
				allMatch = false
				break
			}
		}
		if !allMatch {
			break
		}
		matched = i + 1
	}

	out := variant.Variant{Chrom: v.Chrom, Pos: v.Pos + uint64(matched), Ref: append([]byte(nil), v.Ref[matched:]...)}
	out.Alt = make([][]byte, len(v.Alt))
	for i, a := range v.Alt {
		if variant.IsStar(a) {
			out.Alt[i] = append([]byte(nil), a...)
		} else {
			out.Alt[i] = append([]byte(nil), a[matched:]...)
		}
	}
	return out
}
