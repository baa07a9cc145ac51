// Package poslift indexes a parsed chain file into one interval tree per
// original-assembly contig and answers point/interval liftover queries.
package poslift

import (
	"fmt"

	"github.com/biogo/store/interval"

	"github.com/inodb/genolift/internal/chainio"
)

// ChangeOp is one edit operation traversed while lifting a region.
type ChangeOp struct {
	Kind   ChangeKind
	Length uint64
}

// ChangeKind distinguishes the three edit operations an edit summary can
// contain.
type ChangeKind int

const (
	// Aligned marks a colinear, non-gap run.
	Aligned ChangeKind = iota
	// Insertion marks new-assembly-only bases (a gap with no original side).
	Insertion
	// Deletion marks original-assembly-only bases (a gap with no new side).
	Deletion
)

func (k ChangeKind) String() string {
	switch k {
	case Aligned:
		return "Aligned"
	case Insertion:
		return "Insertion"
	case Deletion:
		return "Deletion"
	default:
		return "Unknown"
	}
}

func (c ChangeOp) String() string {
	return fmt.Sprintf("%s(%d)", c.Kind, c.Length)
}

// TargetRegion is one row of the position-lifter index: either an
// aligned segment or a gap segment of a chain.
type TargetRegion struct {
	OriginalContigIx int
	NewContigIx      int
	ChainIndex       int
	OriginalStart    uint64
	OriginalEnd      uint64
	NewStart         uint64
	NewEnd           uint64
	Strand           chainio.Strand
	IsInGap          bool
}

// IsIndel reports whether the segment's original and new lengths differ.
func (t *TargetRegion) IsIndel() bool {
	return (t.OriginalEnd - t.OriginalStart) != (t.NewEnd - t.NewStart)
}

// OriginalLen returns the original-assembly span of the segment.
func (t *TargetRegion) OriginalLen() uint64 { return t.OriginalEnd - t.OriginalStart }

// NewLen returns the new-assembly span of the segment.
func (t *TargetRegion) NewLen() uint64 { return t.NewEnd - t.NewStart }

// intervalNode adapts *TargetRegion to biogo/store/interval's IntInterface
// so segments can be indexed and queried by original-assembly coordinate.
type intervalNode struct {
	id     uintptr
	start  int
	end    int
	region *TargetRegion
}

func (n *intervalNode) ID() uintptr { return n.id }

func (n *intervalNode) Range() interval.IntRange {
	return interval.IntRange{Start: n.start, End: n.end}
}

func (n *intervalNode) Overlap(b interval.IntRange) bool {
	return n.end > b.Start && n.start < b.End
}
