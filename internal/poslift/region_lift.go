package poslift

import "github.com/inodb/genolift/internal/chainio"

// RegionResult is a lifted half-open [Start,End) region together with the
// edit summary describing how original-assembly bases map onto it.
type RegionResult struct {
	Chrom      string
	Start      uint64
	End        uint64
	Strand     chainio.Strand
	Changes    []ChangeOp
	ChainIndex int
}

// Len returns the lifted region's length.
func (r RegionResult) Len() uint64 { return r.End - r.Start }

// IsEmpty reports whether the lifted region is zero-length.
func (r RegionResult) IsEmpty() bool { return r.End == r.Start }

// LiftRegion lifts the half-open [start,end) original-assembly range,
// returning one RegionResult per chain the range is fully contained in.
// Ranges that straddle a chain boundary are dropped.
func (idx *Index) LiftRegion(contig string, start, end uint64) []RegionResult {
	var out []RegionResult
	for _, group := range idx.SearchTarget(contig, start, end) {
		if len(group) == 1 {
			t := group[0]
			if t.OriginalStart <= start && end <= t.OriginalEnd && !t.IsInGap {
				startOffset := start - t.OriginalStart
				endOffset := t.OriginalEnd - end
				var rstart, rend uint64
				switch t.Strand {
				case chainio.Forward:
					rstart = t.NewStart + startOffset
					rend = t.NewEnd - endOffset
				case chainio.Reverse:
					rstart = t.NewStart + endOffset
					rend = t.NewEnd - startOffset
				}
				out = append(out, RegionResult{
					Chrom:      idx.file.NewContigs[t.NewContigIx].Name,
					Start:      rstart,
					End:        rend,
					Strand:     t.Strand,
					Changes:    []ChangeOp{{Kind: Aligned, Length: end - start}},
					ChainIndex: t.ChainIndex,
				})
			}
			continue
		}

		if group[0].OriginalStart > start {
			continue // first segment begins after the query: out of chain
		}

		var changes []ChangeOp
		first := group[0]
		firstOffset := start - first.OriginalStart
		var queryStart uint64
		if !first.IsInGap {
			changes = append(changes, ChangeOp{Kind: Aligned, Length: first.OriginalEnd - first.OriginalStart - firstOffset})
			if first.Strand == chainio.Forward {
				queryStart = first.NewStart + firstOffset
			} else {
				queryStart = first.NewEnd - firstOffset
			}
		} else {
			changes = append(changes, ChangeOp{Kind: Deletion, Length: first.OriginalEnd - first.OriginalStart - firstOffset})
			if first.Strand == chainio.Forward {
				queryStart = first.NewEnd
			} else {
				queryStart = first.NewStart
			}
		}

		for _, t := range group[1 : len(group)-1] {
			if !t.IsInGap {
				changes = append(changes, ChangeOp{Kind: Aligned, Length: t.OriginalEnd - t.OriginalStart})
				continue
			}
			insertLen := t.NewEnd - t.NewStart
			deleteLen := t.OriginalEnd - t.OriginalStart
			if insertLen > 0 {
				changes = append(changes, ChangeOp{Kind: Insertion, Length: insertLen})
			}
			if deleteLen > 0 {
				changes = append(changes, ChangeOp{Kind: Deletion, Length: deleteLen})
			}
		}

		last := group[len(group)-1]
		if last.OriginalEnd < end {
			continue // last segment ends before the query: out of chain
		}
		lastOffset := last.OriginalEnd - end
		var queryEnd uint64
		if !last.IsIndel() {
			changes = append(changes, ChangeOp{Kind: Aligned, Length: last.OriginalEnd - last.OriginalStart - lastOffset})
			if first.Strand == chainio.Forward {
				queryEnd = last.NewEnd - lastOffset
			} else {
				queryEnd = last.NewStart + lastOffset
			}
		} else {
			changes = append(changes, ChangeOp{Kind: Deletion, Length: last.OriginalEnd - last.OriginalStart - lastOffset})
			if first.Strand == chainio.Forward {
				queryEnd = last.NewStart
			} else {
				queryEnd = last.NewEnd
			}
		}

		var rstart, rend uint64
		if first.Strand == chainio.Forward {
			rstart, rend = queryStart, queryEnd
		} else {
			rstart, rend = queryEnd, queryStart
		}

		out = append(out, RegionResult{
			Chrom:      idx.file.NewContigs[first.NewContigIx].Name,
			Start:      rstart,
			End:        rend,
			Strand:     first.Strand,
			Changes:    changes,
			ChainIndex: last.ChainIndex,
		})
	}
	return out
}
