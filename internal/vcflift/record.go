package vcflift

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/genolift/internal/variantlift"
	"github.com/inodb/genolift/internal/vcfio"
)

// Params tunes how aggressively a lift rewrites a matched record, mirroring
// every --no-* flag of the original command-line tool.
type Params struct {
	AllowMultimap                  bool
	AcceptableDeletion             uint64
	AcceptableInsertion            uint64
	DoNotRewriteInfo               bool
	DoNotRewriteFormat             bool
	DoNotRewriteGT                 bool
	DoNotRewriteAlleleFrequency    bool
	DoNotRewriteAlleleCount        bool
	DoNotSwapRefAlt                bool
	DoNotUseDotWhenAltEqualToRef   bool
	DoNotPreferCisContigOnMultimap bool
}

// DefaultParams mirrors the original tool's defaults.
func DefaultParams() Params {
	return Params{AcceptableDeletion: 3, AcceptableInsertion: 3}
}

func mergeToVCF(v *variantlift.LiftedVariant, rec *vcfio.Record, target *RewriteTarget, p Params, logger *zap.SugaredLogger) (*vcfio.Record, error) {
	if v.ReferenceChanged && !p.DoNotSwapRefAlt {
		return swapRefAlt(v, rec, target, p, logger)
	}
	return mergeSimple(v, rec, p), nil
}

func mergeSimple(v *variantlift.LiftedVariant, rec *vcfio.Record, p Params) *vcfio.Record {
	out := rec.Clone()
	out.Chrom = v.Chrom
	out.Pos = v.Pos
	out.Ref = string(v.Ref)
	out.Alt = make([]string, len(v.Alt))
	for i, a := range v.Alt {
		if !p.DoNotUseDotWhenAltEqualToRef && string(a) == string(v.Ref) {
			out.Alt[i] = "."
		} else {
			out.Alt[i] = string(a)
		}
	}

	out.SetInfo("ORIGINAL_CHROM", rec.Chrom)
	out.SetInfo("ORIGINAL_POS", strconv.FormatUint(rec.Pos+1, 10))
	out.SetInfo("ORIGINAL_STRAND", v.Strand.String())
	if v.ReferenceChanged {
		out.SetInfo("ORIGINAL_REF", string(v.OriginalReference))
	}
	return out
}

func swapRefAlt(v *variantlift.LiftedVariant, rec *vcfio.Record, target *RewriteTarget, p Params, logger *zap.SugaredLogger) (*vcfio.Record, error) {
	out := rec.Clone()
	out.Chrom = v.Chrom
	out.Pos = v.Pos
	out.Ref = string(v.Ref)
	out.Alt = make([]string, len(v.Alt))
	for i, a := range v.Alt {
		out.Alt[i] = string(a)
	}

	out.SetInfo("ORIGINAL_CHROM", rec.Chrom)
	out.SetInfo("ORIGINAL_POS", strconv.FormatUint(rec.Pos+1, 10))
	out.SetInfo("ORIGINAL_STRAND", v.Strand.String())

	if out.Ref == string(v.OriginalReference) {
		return out, nil
	}

	out.SetInfo("REF_CHANGED")
	out.SetInfo("ORIGINAL_REF", string(v.OriginalReference))

	toDelete := map[int]struct{}{}
	for i, a := range out.Alt {
		if a == out.Ref {
			toDelete[i] = struct{}{}
		}
	}
	var keptAlt []string
	for i, a := range out.Alt {
		if _, del := toDelete[i]; !del {
			keptAlt = append(keptAlt, a)
		}
	}
	out.Alt = append(keptAlt, string(v.OriginalReference))

	if !p.DoNotRewriteInfo {
		rewriteInfo(out, target, toDelete)
	}
	if !p.DoNotRewriteAlleleFrequency {
		if err := rewriteAlleleFrequencyAndCount(rec, out, target, toDelete, logger); err != nil {
			return nil, err
		}
	}
	if !p.DoNotRewriteFormat {
		rewriteFormat(out, target, toDelete)
	}
	if !p.DoNotRewriteGT {
		if err := rewriteGT(rec, out, toDelete); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// reorderNumberR moves the REF-slot value (index 0) to the end, dropping
// any deleted ALT indices, per the VCF Number=R convention where slot 0 is
// always REF's own value.
func reorderNumberR(values []string, toDelete map[int]struct{}) []string {
	if len(values) == 0 {
		return values
	}
	refVal := values[0]
	rest := values[1:]
	var newRef string
	found := false
	for i, v := range rest {
		if _, del := toDelete[i]; del {
			newRef = v
			found = true
			break
		}
	}
	if !found {
		newRef = "."
	}
	out := []string{newRef}
	for i, v := range rest {
		if _, del := toDelete[i]; !del {
			out = append(out, v)
		}
	}
	out = append(out, refVal)
	return out
}

func reorderNumberA(values []string, toDelete map[int]struct{}) []string {
	var out []string
	for i, v := range values {
		if _, del := toDelete[i]; !del {
			out = append(out, v)
		}
	}
	return append(out, ".")
}

func rewriteInfo(rec *vcfio.Record, target *RewriteTarget, toDelete map[int]struct{}) {
	for i, f := range rec.Info {
		switch {
		case target.InfoRef.has(f.Key):
			rec.Info[i].Values = reorderNumberR(f.Values, toDelete)
		case target.InfoAlt.has(f.Key):
			rec.Info[i].Values = reorderNumberA(f.Values, toDelete)
		}
	}
}

func rewriteFormat(rec *vcfio.Record, target *RewriteTarget, toDelete map[int]struct{}) {
	for sIdx := range rec.Samples {
		for fIdx, key := range rec.Format {
			if fIdx >= len(rec.Samples[sIdx]) {
				continue
			}
			values := strings.Split(rec.Samples[sIdx][fIdx], ",")
			switch {
			case target.FormatRef.has(key):
				rec.Samples[sIdx][fIdx] = strings.Join(reorderNumberR(values, toDelete), ",")
			case target.FormatAlt.has(key):
				rec.Samples[sIdx][fIdx] = strings.Join(reorderNumberA(values, toDelete), ",")
			}
		}
	}
}

func rewriteAlleleFrequencyAndCount(original, rec *vcfio.Record, target *RewriteTarget, toDelete map[int]struct{}, logger *zap.SugaredLogger) error {
	alleleNumber := map[string]string{}
	for _, f := range rec.Info {
		if target.AlleleNumber.has(f.Key) && len(f.Values) > 0 {
			alleleNumber[f.Key] = f.Values[0]
		}
	}

	for i, f := range rec.Info {
		switch {
		case target.AlleleFrequency.has(f.Key):
			sum := 0.0
			for _, v := range f.Values {
				if v == "." || v == "nan" {
					continue
				}
				parsed, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return fmt.Errorf("vcflift: INFO %s at line %d is not numeric: %q", f.Key, original.Line, v)
				}
				sum += parsed
			}
			if logger != nil && sum > 1.01 {
				logger.Warnw("allele frequencies sum to more than 1.0 after lift", "key", f.Key, "line", original.Line, "sum", sum)
			}
			refFreq := 0.0
			if sum <= 1.0 {
				refFreq = 1.0 - sum
			}
			rec.Info[i].Values = append(reorderFilteredOnly(f.Values, toDelete), strconv.FormatFloat(refFreq, 'f', -1, 64))

		case target.AlleleCount.has(f.Key):
			numberKey, ok := target.AlleleCountToNumberKey[f.Key]
			if !ok {
				continue
			}
			numberStr, ok := alleleNumber[numberKey]
			if !ok {
				continue
			}
			number, err := strconv.ParseUint(numberStr, 10, 64)
			if err != nil {
				continue
			}
			var sum uint64
			for _, v := range f.Values {
				if v == "." {
					continue
				}
				parsed, err := strconv.ParseUint(v, 10, 64)
				if err != nil {
					return fmt.Errorf("vcflift: INFO %s at line %d is not an integer: %q", f.Key, original.Line, v)
				}
				sum += parsed
			}
			refCount := uint64(0)
			if number > sum {
				refCount = number - sum
			}
			rec.Info[i].Values = append(reorderFilteredOnly(f.Values, toDelete), strconv.FormatUint(refCount, 10))
		}
	}
	return nil
}

func reorderFilteredOnly(values []string, toDelete map[int]struct{}) []string {
	var out []string
	for i, v := range values {
		if _, del := toDelete[i]; !del {
			out = append(out, v)
		}
	}
	return out
}

var gtTokenPattern = regexp.MustCompile(`^([0-9]+|\.)([|/])?`)

func rewriteGT(original, rec *vcfio.Record, toDelete map[int]struct{}) error {
	indexRewrite := map[int]int{0: len(rec.Alt)}
	kept := 0
	for i := range original.Alt {
		if _, del := toDelete[i]; del {
			indexRewrite[i+1] = 0
			continue
		}
		kept++
		indexRewrite[i+1] = kept
	}

	for sIdx := range rec.Samples {
		for fIdx, key := range rec.Format {
			if key != "GT" || fIdx >= len(rec.Samples[sIdx]) {
				continue
			}
			rewritten, err := rewriteGTValue(rec.Samples[sIdx][fIdx], indexRewrite)
			if err != nil {
				return err
			}
			rec.Samples[sIdx][fIdx] = rewritten
		}
	}
	return nil
}

func rewriteGTValue(gt string, indexRewrite map[int]int) (string, error) {
	type allele struct {
		value     string
		separator string
	}
	var alleles []allele
	rest := gt
	for len(rest) > 0 {
		m := gtTokenPattern.FindStringSubmatch(rest)
		if m == nil {
			return "", fmt.Errorf("vcflift: invalid GT value %q", gt)
		}
		alleles = append(alleles, allele{value: m[1], separator: m[2]})
		rest = rest[len(m[0]):]
	}

	unphased := len(alleles) > 0 && alleles[0].separator == "/"
	out := make([]string, len(alleles))
	for i, a := range alleles {
		if a.value == "." {
			out[i] = "."
			continue
		}
		idx, err := strconv.Atoi(a.value)
		if err != nil {
			return "", fmt.Errorf("vcflift: invalid GT allele %q", a.value)
		}
		newIdx, ok := indexRewrite[idx]
		if !ok {
			return "", fmt.Errorf("vcflift: GT allele %d out of range", idx)
		}
		out[i] = strconv.Itoa(newIdx)
	}

	var b strings.Builder
	if unphased {
		// Unphased GT with no consistent original order is resorted
		// numerically; VCF does not define an order for unphased alleles.
		sortStrings(out)
		for i, v := range out {
			if i > 0 {
				b.WriteString("/")
			}
			b.WriteString(v)
		}
		return b.String(), nil
	}

	for i, v := range out {
		if i > 0 {
			b.WriteString(alleles[i-1].separator)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

func sortStrings(values []string) {
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && less(values[j], values[j-1]); j-- {
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
}

func less(a, b string) bool {
	if a == "." {
		return false
	}
	if b == "." {
		return true
	}
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
