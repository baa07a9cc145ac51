package vcfio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVCF = `##fileformat=VCFv4.2
##INFO=<ID=AF,Number=A,Type=Float,Description="Allele Frequency">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	sample1	sample2
chr1	101	rs1	A	T,G	50	PASS	AF=0.5,0.1;DP=30	GT:DP	0/1:20	1/1:10
chr1	200	.	C	.	.	.	.
`

func TestReaderParsesHeaderAndRecords(t *testing.T) {
	r, err := NewReader(strings.NewReader(sampleVCF))
	require.NoError(t, err)
	assert.Equal(t, "A", r.Header.InfoNumber["AF"])
	assert.Equal(t, []string{"sample1", "sample2"}, r.Header.SampleNames)

	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "chr1", rec.Chrom)
	assert.Equal(t, uint64(100), rec.Pos) // 1-based 101 -> 0-based 100
	assert.Equal(t, "A", rec.Ref)
	assert.Equal(t, []string{"T", "G"}, rec.Alt)
	af, ok := rec.InfoValue("AF")
	require.True(t, ok)
	assert.Equal(t, "0.5", af)
	require.Len(t, rec.Samples, 2)
	assert.Equal(t, []string{"0/1", "20"}, rec.Samples[0])

	rec2, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec2)
	assert.Equal(t, uint64(199), rec2.Pos)
	assert.Nil(t, rec2.Info)

	rec3, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec3)
}

func TestRecordCloneIsIndependent(t *testing.T) {
	rec := &Record{Chrom: "chr1", Pos: 10, Ref: "A", Alt: []string{"T"}}
	rec.SetInfo("DP", "30")

	clone := rec.Clone()
	clone.Alt[0] = "G"
	clone.SetInfo("DP", "99")

	assert.Equal(t, "T", rec.Alt[0])
	dp, _ := rec.InfoValue("DP")
	assert.Equal(t, "30", dp)
	cloneDP, _ := clone.InfoValue("DP")
	assert.Equal(t, "99", cloneDP)
}

func TestSetInfoPreservesOrderOnOverwrite(t *testing.T) {
	rec := &Record{}
	rec.SetInfo("AF", "0.1")
	rec.SetInfo("DP", "30")
	rec.SetInfo("AF", "0.9")

	require.Len(t, rec.Info, 2)
	assert.Equal(t, "AF", rec.Info[0].Key)
	assert.Equal(t, []string{"0.9"}, rec.Info[0].Values)
	assert.Equal(t, "DP", rec.Info[1].Key)
}

func TestWriterRoundTrip(t *testing.T) {
	r, err := NewReader(strings.NewReader(sampleVCF))
	require.NoError(t, err)
	rec, err := r.Next()
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader(r.Header))
	require.NoError(t, w.WriteRecord(rec))

	out := buf.String()
	assert.Contains(t, out, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tsample1\tsample2")
	assert.Contains(t, out, "chr1\t101\trs1\tA\tT,G\t50\tPASS\tAF=0.5,0.1;DP=30\tGT:DP\t0/1:20\t1/1:10")
}
