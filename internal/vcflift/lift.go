package vcflift

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/genolift/internal/variant"
	"github.com/inodb/genolift/internal/variantlift"
	"github.com/inodb/genolift/internal/vcfio"
)

// Lifter rewrites VCF records across a chain file using a variantlift.Lifter.
type Lifter struct {
	variants *variantlift.Lifter
	params   Params
	logger   *zap.SugaredLogger

	warnedGenotypeField map[string]bool
}

// New builds a Lifter. logger may be nil, in which case pass-through
// Number=G fields and over-1.0 allele-frequency sums are not reported.
func New(variants *variantlift.Lifter, params Params, logger *zap.SugaredLogger) *Lifter {
	return &Lifter{variants: variants, params: params, logger: logger, warnedGenotypeField: map[string]bool{}}
}

// warnGenotypeFieldPassthrough logs once per distinct Number=G key the
// first time it is seen, since such fields are carried through a lifted
// record unmodified rather than reshuffled for the new ALT order.
func (l *Lifter) warnGenotypeFieldPassthrough(rec *vcfio.Record, target *RewriteTarget) {
	if l.logger == nil {
		return
	}
	for _, f := range rec.Info {
		if target.InfoGenotype.has(f.Key) && !l.warnedGenotypeField["INFO:"+f.Key] {
			l.warnedGenotypeField["INFO:"+f.Key] = true
			l.logger.Warnw("Number=G INFO field is passed through unmodified on lift", "key", f.Key)
		}
	}
	for _, key := range rec.Format {
		if target.FormatGenotype.has(key) && !l.warnedGenotypeField["FORMAT:"+key] {
			l.warnedGenotypeField["FORMAT:"+key] = true
			l.logger.Warnw("Number=G FORMAT field is passed through unmodified on lift", "key", key)
		}
	}
}

// LiftRecord lifts one record, returning either successfully rewritten
// records or a failed record annotated with FAILED_REASON/MULTIMAP INFO.
func (l *Lifter) LiftRecord(rec *vcfio.Record, target *RewriteTarget) (succeeded []*vcfio.Record, failed *vcfio.Record, err error) {
	chrom := rec.Chrom
	if _, ok := l.variants.Index().OriginalContigByName(chrom); !ok && !strings.HasPrefix(chrom, "chr") {
		if _, ok := l.variants.Index().OriginalContigByName("chr" + chrom); ok {
			chrom = "chr" + chrom
		}
	}

	l.warnGenotypeFieldPassthrough(rec, target)

	v := variant.Variant{Chrom: chrom, Pos: rec.Pos, Ref: []byte(rec.Ref)}
	for _, a := range rec.Alt {
		v.Alt = append(v.Alt, []byte(a))
	}

	results, err := l.variants.LiftVariant(v, l.params.AcceptableDeletion, l.params.AcceptableInsertion)
	if err != nil {
		return nil, nil, err
	}

	reasons := map[string]struct{}{}
	for _, r := range results {
		if r.Err != nil {
			reasons[failureReason(r.Err)] = struct{}{}
			continue
		}
		merged, err := mergeToVCF(r.Value, rec, target, l.params, l.logger)
		if err != nil {
			return nil, nil, err
		}
		succeeded = append(succeeded, merged)
	}

	if len(succeeded) == 0 && len(reasons) > 0 {
		out := rec.Clone()
		var names []string
		for reason := range reasons {
			names = append(names, reason)
		}
		out.SetInfo("FAILED_REASON", strings.Join(names, ","))
		return nil, out, nil
	}

	if !l.params.DoNotPreferCisContigOnMultimap {
		hasCis, hasTrans := false, false
		for _, s := range succeeded {
			if s.Chrom == rec.Chrom {
				hasCis = true
			} else {
				hasTrans = true
			}
		}
		if hasCis && hasTrans {
			var filtered []*vcfio.Record
			for _, s := range succeeded {
				if s.Chrom == rec.Chrom {
					filtered = append(filtered, s)
				}
			}
			succeeded = filtered
		}
	}

	if len(succeeded) > 1 {
		if !l.params.AllowMultimap {
			out := rec.Clone()
			out.SetInfo("FAILED_REASON", "MULTIMAP")
			out.SetInfo("MULTIMAP", strconv.Itoa(len(succeeded)))
			return nil, out, nil
		}
		for _, s := range succeeded {
			s.SetInfo("MULTIMAP", strconv.Itoa(len(succeeded)))
		}
	}

	if len(succeeded) == 0 {
		out := rec.Clone()
		out.SetInfo("FAILED_REASON", "NO_CHAIN")
		return nil, out, nil
	}

	return succeeded, nil, nil
}

func failureReason(err error) string {
	var indelErr *variantlift.UnacceptableIndelError
	if errors.As(err, &indelErr) {
		switch indelErr.Kind {
		case "deletion":
			return "UNACCEPTABLE_LARGE_DELETION"
		case "insertion":
			return "UNACCEPTABLE_LARGE_INSERTION"
		}
	}
	switch {
	case errors.Is(err, variantlift.ErrUnknownSequenceName):
		return "UNKNOWN_SEQUENCE_NAME"
	case errors.Is(err, variantlift.ErrReferenceMismatch):
		return "UNEXPECTED_REF"
	}
	return "UNKNOWN"
}

// LiftReader drives a full VCF stream, writing successes and failures to
// their respective writers and returning the success/failure counts.
func (l *Lifter) LiftReader(reader *vcfio.Reader, successWriter, failedWriter *vcfio.Writer) (succeeded, failedCount int, err error) {
	newHeader, target, err := LiftHeader(reader.Header, l.variants.Index().NewContigs(), l.params)
	if err != nil {
		return 0, 0, err
	}
	if err := successWriter.WriteHeader(newHeader); err != nil {
		return 0, 0, err
	}

	failedHeader := &vcfio.Header{
		Lines:        append([]string(nil), reader.Header.Lines...),
		ColumnLine:   reader.Header.ColumnLine,
		SampleNames:  reader.Header.SampleNames,
		InfoNumber:   reader.Header.InfoNumber,
		FormatNumber: reader.Header.FormatNumber,
	}
	for _, line := range FailedHeaderLines {
		failedHeader.AddLine(line)
	}
	if err := failedWriter.WriteHeader(failedHeader); err != nil {
		return 0, 0, err
	}

	for {
		rec, err := reader.Next()
		if err != nil {
			return succeeded, failedCount, fmt.Errorf("vcflift: %w", err)
		}
		if rec == nil {
			break
		}

		success, failedRec, err := l.LiftRecord(rec, target)
		if err != nil {
			return succeeded, failedCount, fmt.Errorf("vcflift: line %d: %w", rec.Line, err)
		}
		if failedRec != nil {
			if err := failedWriter.WriteRecord(failedRec); err != nil {
				return succeeded, failedCount, err
			}
			failedCount++
			continue
		}
		for _, s := range success {
			if err := successWriter.WriteRecord(s); err != nil {
				return succeeded, failedCount, err
			}
		}
		succeeded++
	}
	return succeeded, failedCount, nil
}
