// Package vcflift rewrites a VCF header and its records across a chain
// file, handling REF/ALT swap, Number=R/A/G field reshuffling, AC/AN/AF
// rebalancing and GT remapping.
package vcflift

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/genolift/internal/chainio"
	"github.com/inodb/genolift/internal/vcfio"
)

var (
	alleleFrequencyPattern = regexp.MustCompile(`^(.*_)?AF(_.*)?$`)
	alleleNumberPattern    = regexp.MustCompile(`^(.*_)?AN(_.*)?$`)
	alleleCountPattern     = regexp.MustCompile(`^(.*_)?AC(_.*)?$`)
)

// RewriteTarget classifies every INFO/FORMAT key of a header by how its
// values must be reshuffled when ALT is reordered or REF/ALT is swapped.
type RewriteTarget struct {
	InfoRef                stringSet
	InfoAlt                stringSet
	InfoGenotype           stringSet
	AlleleFrequency        stringSet
	AlleleCount            stringSet
	AlleleCountToNumberKey map[string]string
	AlleleNumber           stringSet
	FormatRef              stringSet
	FormatAlt              stringSet
	FormatGenotype         stringSet
	FormatGT               bool
}

type stringSet map[string]struct{}

func (s stringSet) has(k string) bool { _, ok := s[k]; return ok }
func (s stringSet) add(k string)      { s[k] = struct{}{} }

func newRewriteTarget() *RewriteTarget {
	return &RewriteTarget{
		InfoRef:                stringSet{},
		InfoAlt:                stringSet{},
		InfoGenotype:           stringSet{},
		AlleleFrequency:        stringSet{},
		AlleleCount:            stringSet{},
		AlleleCountToNumberKey: map[string]string{},
		AlleleNumber:           stringSet{},
		FormatRef:              stringSet{},
		FormatAlt:              stringSet{},
		FormatGenotype:         stringSet{},
	}
}

// successHeaderLines are appended to every lifted header on success.
var successHeaderLines = []string{
	`##INFO=<ID=MULTIMAP,Number=1,Type=Integer,Description="# of multi-mapped regions">`,
	`##INFO=<ID=REF_CHANGED,Number=0,Type=Flag,Description="Reference sequence is changed">`,
	`##INFO=<ID=ORIGINAL_REF,Number=1,Type=String,Description="Original reference sequence">`,
	`##INFO=<ID=ORIGINAL_CHROM,Number=1,Type=String,Description="Original chromosome">`,
	`##INFO=<ID=ORIGINAL_POS,Number=1,Type=Integer,Description="Original position">`,
	`##INFO=<ID=ORIGINAL_STRAND,Number=1,Type=String,Description="Original strand">`,
}

// FailedHeaderLines are appended to the failed-record sidecar header.
var FailedHeaderLines = []string{
	`##INFO=<ID=MULTIMAP,Number=1,Type=Integer,Description="# of multi-mapped regions">`,
	`##INFO=<ID=TESTED_CHROM,Number=1,Type=String,Description="Tested chromosome">`,
	`##INFO=<ID=TESTED_START,Number=1,Type=String,Description="Tested start">`,
	`##INFO=<ID=TESTED_END,Number=1,Type=String,Description="Tested end">`,
	`##INFO=<ID=FAILED_REASON,Number=1,Type=String,Description="Reason of liftOver failure">`,
	`##INFO=<ID=PARTIAL_SUCCESS,Number=0,Type=Flag,Description="Variants in other tried region are succeeded to lift over">`,
}

// LiftHeader produces the lifted header's meta lines plus the field
// classification used by LiftRecord, given the declared Number= of every
// INFO/FORMAT key and the new-assembly contig table to emit ##contig
// lines for.
func LiftHeader(h *vcfio.Header, newContigs []chainio.Contig, p Params) (*vcfio.Header, *RewriteTarget, error) {
	target := newRewriteTarget()

	var infoOrder []string
	for id := range h.InfoNumber {
		infoOrder = append(infoOrder, id)
	}
	sort.Strings(infoOrder)

	allCount := map[string]string{}
	allNumber := map[string]string{}

	if !p.DoNotRewriteInfo {
		for _, id := range infoOrder {
			number := h.InfoNumber[id]
			switch {
			case !p.DoNotRewriteAlleleFrequency && alleleFrequencyPattern.MatchString(id) && number == "A":
				target.AlleleFrequency.add(id)
			case !p.DoNotRewriteAlleleCount && alleleCountPattern.MatchString(id) && number == "A":
				target.AlleleCount.add(id)
				allCount[id] = groupKey(alleleCountPattern, id)
			case !p.DoNotRewriteAlleleCount && alleleNumberPattern.MatchString(id) && number == "1":
				target.AlleleNumber.add(id)
				allNumber[groupKey(alleleNumberPattern, id)] = id
			default:
				switch number {
				case "G":
					target.InfoGenotype.add(id)
				case "R":
					target.InfoRef.add(id)
				case "A":
					target.InfoAlt.add(id)
				}
			}
		}
	}

	if !p.DoNotRewriteFormat {
		for id, number := range h.FormatNumber {
			switch number {
			case "G":
				target.FormatGenotype.add(id)
			case "R":
				target.FormatRef.add(id)
			case "A":
				target.FormatAlt.add(id)
			}
			if id == "GT" {
				target.FormatGT = true
			}
		}
	}

	for countID, key := range allCount {
		if numberID, ok := allNumber[key]; ok {
			target.AlleleCountToNumberKey[countID] = numberID
		}
	}

	out := &vcfio.Header{
		ColumnLine:   h.ColumnLine,
		SampleNames:  h.SampleNames,
		InfoNumber:   map[string]string{},
		FormatNumber: map[string]string{},
	}
	for _, line := range h.Lines {
		if hasPrefixContig(line) {
			continue
		}
		out.Lines = append(out.Lines, line)
	}

	sorted := append([]chainio.Contig(nil), newContigs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := chromosomePriority(sorted[i].Name), chromosomePriority(sorted[j].Name)
		if pi != pj {
			return pi < pj
		}
		return sorted[i].Length < sorted[j].Length
	})
	for _, c := range sorted {
		out.AddLine(fmt.Sprintf("##contig=<ID=%s,length=%d>", c.Name, c.Length))
	}
	for _, line := range successHeaderLines {
		out.AddLine(line)
	}

	return out, target, nil
}

// chromosomePriority orders contigs 1-22 for numeric chromosome names, 23
// for X, 24 for Y, 25 for M/MT, 26 for anything else.
func chromosomePriority(name string) int {
	n := strings.TrimPrefix(name, "chr")
	if v, err := strconv.Atoi(n); err == nil && v >= 1 && v <= 22 {
		return v
	}
	switch n {
	case "X":
		return 23
	case "Y":
		return 24
	case "M", "MT":
		return 25
	default:
		return 26
	}
}

func hasPrefixContig(line string) bool {
	return len(line) >= len("##contig=<") && line[:len("##contig=<")] == "##contig=<"
}

func groupKey(re *regexp.Regexp, id string) string {
	m := re.FindStringSubmatch(id)
	if m == nil {
		return ""
	}
	return m[1] + " " + m[2]
}
