package vcflift

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/genolift/internal/poslift"
	"github.com/inodb/genolift/internal/sequence"
	"github.com/inodb/genolift/internal/variantlift"
	"github.com/inodb/genolift/internal/vcfio"
)

const liftOriginalFasta = ">chr1\nACGTACGTACGTACGTACGT\n"
const liftNewFasta = ">chr1New\nACGTACGTACGTACGTACGT\n"

const liftFlatChain = `chain 1000 chr1 20 + 0 20 chr1New 20 + 0 20 1
20
`

func newTestLifter(t *testing.T) *Lifter {
	t.Helper()
	return newTestLifterWithParams(t, DefaultParams(), nil)
}

func newTestLifterWithParams(t *testing.T, params Params, logger *zap.SugaredLogger) *Lifter {
	t.Helper()
	originalSeq, err := sequence.LoadFASTA(strings.NewReader(liftOriginalFasta))
	require.NoError(t, err)
	newSeq, err := sequence.LoadFASTA(strings.NewReader(liftNewFasta))
	require.NoError(t, err)
	idx, err := poslift.Load(strings.NewReader(liftFlatChain))
	require.NoError(t, err)
	return New(variantlift.New(idx, originalSeq, newSeq), params, logger)
}

func TestLiftRecordSucceedsOnAlignedSNV(t *testing.T) {
	lifter := newTestLifter(t)
	rec := &vcfio.Record{Chrom: "chr1", Pos: 5, Ref: "C", Alt: []string{"A"}}

	succeeded, failed, err := lifter.LiftRecord(rec, newRewriteTarget())
	require.NoError(t, err)
	require.Nil(t, failed)
	require.Len(t, succeeded, 1)

	s := succeeded[0]
	assert.Equal(t, "chr1New", s.Chrom)
	assert.Equal(t, uint64(5), s.Pos)
	assert.Equal(t, "C", s.Ref)
	assert.Equal(t, []string{"A"}, s.Alt)

	chrom, _ := s.InfoValue("ORIGINAL_CHROM")
	assert.Equal(t, "chr1", chrom)
	pos, _ := s.InfoValue("ORIGINAL_POS")
	assert.Equal(t, "6", pos)
}

func TestLiftRecordFailsOnUnknownContig(t *testing.T) {
	lifter := newTestLifter(t)
	rec := &vcfio.Record{Chrom: "chrZ", Pos: 5, Ref: "C", Alt: []string{"A"}}

	succeeded, failed, err := lifter.LiftRecord(rec, newRewriteTarget())
	require.NoError(t, err)
	assert.Nil(t, succeeded)
	require.NotNil(t, failed)

	reason, ok := failed.InfoValue("FAILED_REASON")
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN_SEQUENCE_NAME", reason)
}

func TestLiftRecordWarnsOnceOnGenotypeFieldPassthrough(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core).Sugar()
	lifter := newTestLifterWithParams(t, DefaultParams(), logger)

	target := newRewriteTarget()
	target.InfoGenotype.add("PL")

	rec1 := &vcfio.Record{Chrom: "chr1", Pos: 5, Ref: "C", Alt: []string{"A"}, Info: []vcfio.InfoField{{Key: "PL", Values: []string{"0", "1", "2"}}}}
	_, _, err := lifter.LiftRecord(rec1, target)
	require.NoError(t, err)

	rec2 := &vcfio.Record{Chrom: "chr1", Pos: 6, Ref: "A", Alt: []string{"G"}, Info: []vcfio.InfoField{{Key: "PL", Values: []string{"0", "1", "2"}}}}
	_, _, err = lifter.LiftRecord(rec2, target)
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len(), "Number=G passthrough is only warned once per field")
	assert.Contains(t, logs.All()[0].Message, "passed through unmodified")
}

func TestLiftReaderWritesHeaderAndRecord(t *testing.T) {
	lifter := newTestLifter(t)

	vcfText := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t6\trs1\tC\tA\t50\tPASS\t.\n"

	reader, err := vcfio.NewReader(strings.NewReader(vcfText))
	require.NoError(t, err)

	var successBuf, failedBuf bytes.Buffer
	succeeded, failedCount, err := lifter.LiftReader(reader, vcfio.NewWriter(&successBuf), vcfio.NewWriter(&failedBuf))
	require.NoError(t, err)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, failedCount)

	out := successBuf.String()
	assert.Contains(t, out, "chr1New\t6")
	assert.Contains(t, out, "##contig=<ID=chr1New,length=20>")
}
