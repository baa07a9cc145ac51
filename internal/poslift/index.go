package poslift

import (
	"io"
	"sort"
	"strings"

	"github.com/biogo/store/interval"

	"github.com/inodb/genolift/internal/chainio"
)

// rangeQuery adapts a half-open [start,end) range into biogo/store/interval's
// IntOverlapper so it can be passed directly to IntTree.DoMatching.
type rangeQuery struct{ start, end int }

func (q rangeQuery) Overlap(b interval.IntRange) bool {
	return q.end > b.Start && q.start < b.End
}

// Index answers point and interval liftover queries over a parsed chain
// file. Immutable after construction; safe to share read-only.
type Index struct {
	file  *chainio.File
	trees map[string]*interval.IntTree
}

// NewIndex builds an Index from an already-parsed chain file.
func NewIndex(f *chainio.File) *Index {
	idx := &Index{file: f, trees: make(map[string]*interval.IntTree)}
	var nextID uintptr = 1
	for chainIx := range f.Chains {
		c := &f.Chains[chainIx]
		originalIx, _ := f.OriginalIndex(c.OriginalContig.Name)
		newIx, _ := f.NewIndex(c.NewContig.Name)

		tree, ok := idx.trees[c.OriginalContig.Name]
		if !ok {
			tree = &interval.IntTree{}
			idx.trees[c.OriginalContig.Name] = tree
		}

		originalCur := c.OriginalStart
		newCur := c.NewStart
		for _, iv := range c.Intervals {
			originalNext := originalCur + iv.Size
			newNext := newCur + iv.Size
			registerSegment(tree, &nextID, c, chainIx, originalIx, newIx, originalCur, originalNext, newCur, newNext, false)
			originalCur, newCur = originalNext, newNext

			if iv.DiffOriginal != nil && iv.DiffNew != nil {
				originalNext = originalCur + *iv.DiffOriginal
				newNext = newCur + *iv.DiffNew
				registerSegment(tree, &nextID, c, chainIx, originalIx, newIx, originalCur, originalNext, newCur, newNext, true)
				originalCur, newCur = originalNext, newNext
			}
		}
	}
	for _, t := range idx.trees {
		t.AdjustRanges()
	}
	return idx
}

// Load parses a chain file stream and builds its Index in one step.
func Load(r io.Reader) (*Index, error) {
	f, err := chainio.Parse(r)
	if err != nil {
		return nil, err
	}
	return NewIndex(f), nil
}

func registerSegment(tree *interval.IntTree, nextID *uintptr, c *chainio.Chain, chainIx, originalIx, newIx int, originalStart, originalEnd, newStart, newEnd uint64, isGap bool) {
	region := &TargetRegion{
		OriginalContigIx: originalIx,
		NewContigIx:      newIx,
		ChainIndex:       chainIx,
		OriginalStart:    originalStart,
		OriginalEnd:      originalEnd,
		IsInGap:          isGap,
	}

	switch c.NewStrand {
	case chainio.Forward:
		region.NewStart = newStart
		region.NewEnd = newEnd
		region.Strand = chainio.Forward
	case chainio.Reverse:
		region.NewStart = c.NewContig.Length - newEnd
		region.NewEnd = c.NewContig.Length - newStart
		region.Strand = chainio.Reverse
	}

	regEnd := int(originalEnd)
	if originalStart == originalEnd {
		// Zero-length (insertion-side) gap: index with end+1 so interval
		// queries can still find it; filtered out at query time.
		regEnd = int(originalEnd) + 1
	}

	node := &intervalNode{id: *nextID, start: int(originalStart), end: regEnd, region: region}
	*nextID++
	_ = tree.Insert(node, true)
}

func (idx *Index) findTree(contig string) (*interval.IntTree, bool) {
	if t, ok := idx.trees[contig]; ok {
		return t, true
	}
	if t, ok := idx.trees["chr"+contig]; ok {
		return t, true
	}
	if strings.HasPrefix(contig, "chr") && len(contig) >= 4 {
		if t, ok := idx.trees[contig[3:]]; ok {
			return t, true
		}
	}
	return nil, false
}

// PositionResult is one lifted coordinate produced by LiftPosition.
type PositionResult struct {
	Chrom      string
	Pos        uint64
	ChainIndex int
	Strand     chainio.Strand
}

// LiftPosition lifts a single 0-based base, returning every
// alignment-consistent mapping. Only aligned, non-indel segments produce
// a result.
func (idx *Index) LiftPosition(contig string, pos uint64) []PositionResult {
	var out []PositionResult
	for _, group := range idx.SearchTarget(contig, pos, pos+1) {
		for _, data := range group {
			if data.IsIndel() || data.IsInGap {
				continue
			}
			var newPos uint64
			if data.Strand == chainio.Forward {
				newPos = data.NewStart + (pos - data.OriginalStart)
			} else {
				newPos = data.NewStart + (data.OriginalEnd - pos) - 1
			}
			out = append(out, PositionResult{
				Chrom:      idx.file.NewContigs[data.NewContigIx].Name,
				Pos:        newPos,
				ChainIndex: data.ChainIndex,
				Strand:     data.Strand,
			})
		}
	}
	return out
}

// SearchTarget returns candidate segments overlapping [start,end) on
// contig, grouped by chain index and sorted into original-assembly
// traversal order within each group.
func (idx *Index) SearchTarget(contig string, start, end uint64) [][]*TargetRegion {
	tree, ok := idx.findTree(contig)
	if !ok {
		return nil
	}

	groups := make(map[int][]*TargetRegion)
	var order []int
	tree.DoMatching(func(iv interval.IntInterface) (done bool) {
		node := iv.(*intervalNode)
		data := node.region
		if data.OriginalStart == data.OriginalEnd && start == data.OriginalStart {
			return false // skip insertion at head of queried region
		}
		if _, seen := groups[data.ChainIndex]; !seen {
			order = append(order, data.ChainIndex)
		}
		groups[data.ChainIndex] = append(groups[data.ChainIndex], data)
		return false
	}, rangeQuery{start: int(start), end: int(end)})

	sort.Ints(order)
	out := make([][]*TargetRegion, 0, len(order))
	for _, chainIx := range order {
		group := groups[chainIx]
		sort.Slice(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.OriginalStart != b.OriginalStart {
				return a.OriginalStart < b.OriginalStart
			}
			if a.OriginalEnd != b.OriginalEnd {
				return a.OriginalEnd < b.OriginalEnd
			}
			if a.Strand == chainio.Forward {
				if a.NewStart != b.NewStart {
					return a.NewStart < b.NewStart
				}
				return a.NewEnd < b.NewEnd
			}
			if a.NewStart != b.NewStart {
				return a.NewStart > b.NewStart
			}
			return a.NewEnd > b.NewEnd
		})
		out = append(out, group)
	}
	return out
}

// ChainList returns every chain of the underlying file.
func (idx *Index) ChainList() []chainio.Chain { return idx.file.Chains }

// OriginalContigs returns the original-assembly contig table.
func (idx *Index) OriginalContigs() []chainio.Contig { return idx.file.OriginalContigs }

// NewContigs returns the new-assembly contig table.
func (idx *Index) NewContigs() []chainio.Contig { return idx.file.NewContigs }

// OriginalContigByName looks up an original contig with the chr-prefix
// fallback used by queries.
func (idx *Index) OriginalContigByName(name string) (chainio.Contig, bool) {
	if c, ok := idx.file.OriginalContigByName(name); ok {
		return c, true
	}
	if c, ok := idx.file.OriginalContigByName("chr" + name); ok {
		return c, true
	}
	if strings.HasPrefix(name, "chr") && len(name) >= 4 {
		if c, ok := idx.file.OriginalContigByName(name[3:]); ok {
			return c, true
		}
	}
	return chainio.Contig{}, false
}
