// Package genelift lifts GTF gene/transcript/feature hierarchies across a
// chain file, cascading single-feature lifts up through a transcript's
// children and a gene's transcripts.
package genelift

import (
	"errors"
	"fmt"
	"sort"

	"github.com/inodb/genolift/internal/geneio"
	"github.com/inodb/genolift/internal/poslift"
)

var (
	// ErrNoChain means the feature's region did not overlap any chain.
	ErrNoChain = errors.New("genelift: no chain covers this region")
	// ErrMultiMap means a transcript's child features have more than one
	// chromosome in common among their lifted candidates.
	ErrMultiMap = errors.New("genelift: region multi-maps to more than one chain")
	// ErrSizeChanged means every candidate's lifted length fell outside
	// 50%-150% of the original length.
	ErrSizeChanged = errors.New("genelift: lifted length is outside the acceptable range")
	// ErrNoCommonChromosome means a transcript's child features lifted to
	// no chromosome in common.
	ErrNoCommonChromosome = errors.New("genelift: child features share no common chromosome")
	// ErrMultiMapSubFeature means a child feature remained multi-mapped
	// after filtering to the transcript's common chromosome.
	ErrMultiMapSubFeature = errors.New("genelift: a child feature multi-maps within the common chromosome")
	// ErrWrongStrand means child features disagree on lifted strand.
	ErrWrongStrand = errors.New("genelift: child features disagree on strand")
	// ErrWrongExonOrder means the lifted child order does not match the
	// original order (after accounting for a strand flip).
	ErrWrongExonOrder = errors.New("genelift: child feature order changed")
	// ErrNoTranscript means a gene's transcripts all failed to lift.
	ErrNoTranscript = errors.New("genelift: no transcript of this gene could be lifted")
)

const (
	minLengthRatio = 0.5
	maxLengthRatio = 1.5
)

// Candidate is one successfully lifted feature, prior to being chosen
// among multi-map alternatives.
type Candidate struct {
	Record     *geneio.Record
	ChainIndex int
	Changes    []poslift.ChangeOp
}

// LiftSingleFeature lifts one feature's region independently of any
// parent, keeping every chain-index candidate whose lifted length is
// within 50%-150% of the original length.
func LiftSingleFeature(idx *poslift.Index, rec *geneio.Record) ([]Candidate, error) {
	start, end := rec.Range()
	results := idx.LiftRegion(rec.SeqID, start, end)
	if len(results) == 0 {
		return nil, ErrNoChain
	}

	originalLen := float64(end - start)
	var out []Candidate
	for _, r := range results {
		liftedLen := float64(r.Len())
		if liftedLen < originalLen*minLengthRatio || liftedLen > originalLen*maxLengthRatio {
			continue
		}
		strand := rec.FeatStrand.Combine(strandOf(r.Strand))
		lifted := applyFeature(rec, r.Chrom, r.Start, r.End, strand, r.Changes)
		out = append(out, Candidate{Record: lifted, ChainIndex: r.ChainIndex, Changes: r.Changes})
	}
	if len(out) == 0 {
		return nil, ErrSizeChanged
	}
	return out, nil
}

func strandOf(s interface{ String() string }) geneio.Strand {
	switch s.String() {
	case "+":
		return geneio.Forward
	case "-":
		return geneio.Reverse
	default:
		return geneio.Unknown
	}
}

func applyFeature(original *geneio.Record, chrom string, start, end uint64, strand geneio.Strand, changes []poslift.ChangeOp) *geneio.Record {
	out := original.Clone()
	out.SetAttribute("ORIGINAL_CHROM", original.SeqID)
	out.SetAttribute("ORIGINAL_START", fmt.Sprintf("%d", original.Start))
	out.SetAttribute("ORIGINAL_END", fmt.Sprintf("%d", original.End))
	out.SetAttribute("ORIGINAL_STRAND", original.FeatStrand.String())
	out.SeqID = chrom
	out.SetRange(start, end)
	out.FeatStrand = strand
	out.SetAttribute("CIGER", ciger(changes))
	return out
}

func ciger(changes []poslift.ChangeOp) string {
	var s string
	for _, c := range changes {
		var letter string
		switch c.Kind {
		case poslift.Aligned:
			letter = "M"
		case poslift.Deletion:
			letter = "D"
		case poslift.Insertion:
			letter = "C"
		}
		s += fmt.Sprintf("%d%s", c.Length, letter)
	}
	return s
}

// LiftedTranscript is a lifted transcript record together with its
// lifted child features, in original order.
type LiftedTranscript struct {
	Record     *geneio.Record
	Children   []*geneio.Record
	ChainIndex int
}

// LiftTranscript lifts every child feature of a transcript and requires
// them to land on a common chromosome, chain and strand, preserving
// their relative order.
func LiftTranscript(idx *poslift.Index, t *geneio.TranscriptModel) (*LiftedTranscript, error) {
	if len(t.Children) == 0 {
		return nil, ErrNoChain
	}

	childCandidates := make([][]Candidate, len(t.Children))
	chromSets := make([]map[string]struct{}, len(t.Children))
	for i, child := range t.Children {
		cands, err := LiftSingleFeature(idx, child)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		childCandidates[i] = cands
		set := map[string]struct{}{}
		for _, c := range cands {
			set[c.Record.SeqID] = struct{}{}
		}
		chromSets[i] = set
	}

	common := map[string]struct{}{}
	for chrom := range chromSets[0] {
		inAll := true
		for _, set := range chromSets[1:] {
			if _, ok := set[chrom]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common[chrom] = struct{}{}
		}
	}
	if len(common) == 0 {
		return nil, ErrNoCommonChromosome
	}
	if len(common) > 1 {
		return nil, ErrMultiMap
	}
	var chosenChrom string
	for chrom := range common {
		chosenChrom = chrom
	}

	filtered := make([][]Candidate, len(childCandidates))
	for i, cands := range childCandidates {
		var kept []Candidate
		for _, c := range cands {
			if c.Record.SeqID == chosenChrom {
				kept = append(kept, c)
			}
		}
		filtered[i] = kept
	}

	// If a child still multi-maps within the common chromosome, retain
	// only the chain index shared by every child before rejecting: a
	// transcript whose exons each land on several chain candidates but
	// agree on exactly one common chain is not actually ambiguous.
	stillMultiMapped := false
	for _, kept := range filtered {
		if len(kept) > 1 {
			stillMultiMapped = true
			break
		}
	}
	if stillMultiMapped {
		chainSets := make([]map[int]struct{}, len(filtered))
		for i, kept := range filtered {
			set := map[int]struct{}{}
			for _, c := range kept {
				set[c.ChainIndex] = struct{}{}
			}
			chainSets[i] = set
		}
		commonChains := map[int]struct{}{}
		for chain := range chainSets[0] {
			inAll := true
			for _, set := range chainSets[1:] {
				if _, ok := set[chain]; !ok {
					inAll = false
					break
				}
			}
			if inAll {
				commonChains[chain] = struct{}{}
			}
		}
		if len(commonChains) == 1 {
			var chosenChain int
			for chain := range commonChains {
				chosenChain = chain
			}
			for i, kept := range filtered {
				var narrowed []Candidate
				for _, c := range kept {
					if c.ChainIndex == chosenChain {
						narrowed = append(narrowed, c)
					}
				}
				filtered[i] = narrowed
			}
		}
	}

	for _, kept := range filtered {
		if len(kept) > 1 {
			return nil, ErrMultiMapSubFeature
		}
	}

	lifted := make([]*geneio.Record, len(filtered))
	chainIndex := filtered[0][0].ChainIndex
	strand := filtered[0][0].Record.FeatStrand
	for i, kept := range filtered {
		lifted[i] = kept[0].Record
		if lifted[i].FeatStrand != strand {
			return nil, ErrWrongStrand
		}
	}

	ordered := append([]*geneio.Record(nil), lifted...)
	if strand.Combine(t.Children[0].FeatStrand) == geneio.Reverse {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Start < ordered[i-1].Start {
			return nil, ErrWrongExonOrder
		}
	}

	minStart, maxEnd := lifted[0].Start, lifted[0].End
	for _, r := range lifted[1:] {
		if r.Start < minStart {
			minStart = r.Start
		}
		if r.End > maxEnd {
			maxEnd = r.End
		}
	}

	originalStart, originalEnd := t.Record.Range()
	originalLen := float64(originalEnd - originalStart)
	liftedLen := float64(maxEnd + 1 - minStart)
	if liftedLen < originalLen*minLengthRatio || liftedLen > originalLen*maxLengthRatio {
		return nil, ErrSizeChanged
	}

	liftedRecord := applyFeature(t.Record, chosenChrom, minStart-1, maxEnd, strand, nil)
	return &LiftedTranscript{Record: liftedRecord, Children: lifted, ChainIndex: chainIndex}, nil
}

// LiftedGene is a lifted gene record together with its successfully
// lifted transcripts.
type LiftedGene struct {
	Record      *geneio.Record
	Transcripts []*LiftedTranscript
}

// LiftGene lifts every transcript of a gene, then unions the lifted
// span of the transcripts sharing the most common chromosome and
// strand into the gene's new coordinates.
func LiftGene(idx *poslift.Index, g *geneio.Gene) (*LiftedGene, error) {
	var succeeded []*LiftedTranscript
	for _, t := range g.Transcripts {
		lifted, err := LiftTranscript(idx, t)
		if err != nil {
			continue
		}
		succeeded = append(succeeded, lifted)
	}
	if len(succeeded) == 0 {
		return nil, ErrNoTranscript
	}

	type chromStrand struct {
		chrom  string
		strand geneio.Strand
	}
	counts := map[chromStrand]int{}
	for _, t := range succeeded {
		counts[chromStrand{t.Record.SeqID, t.Record.FeatStrand}]++
	}
	var keys []chromStrand
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		if keys[i].chrom != keys[j].chrom {
			return keys[i].chrom < keys[j].chrom
		}
		return keys[i].strand < keys[j].strand
	})
	winner := keys[0]

	var winning []*LiftedTranscript
	for _, t := range succeeded {
		if t.Record.SeqID == winner.chrom && t.Record.FeatStrand == winner.strand {
			winning = append(winning, t)
		}
	}

	minStart, maxEnd := winning[0].Record.Start, winning[0].Record.End
	for _, t := range winning[1:] {
		if t.Record.Start < minStart {
			minStart = t.Record.Start
		}
		if t.Record.End > maxEnd {
			maxEnd = t.Record.End
		}
	}

	liftedRecord := applyFeature(g.Record, winner.chrom, minStart-1, maxEnd, winner.strand, nil)
	return &LiftedGene{Record: liftedRecord, Transcripts: succeeded}, nil
}
