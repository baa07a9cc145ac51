package variantlift

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genolift/internal/chainio"
	"github.com/inodb/genolift/internal/poslift"
	"github.com/inodb/genolift/internal/sequence"
	"github.com/inodb/genolift/internal/variant"
)

const flatOriginalFasta = ">chr1\nACGTACGTACGTACGTACGT\n"
const flatNewFasta = ">chr1New\nACGTACGTACGTACGTACGT\n"

const flatChain = `chain 1000 chr1 20 + 0 20 chr1New 20 + 0 20 1
20
`

func newLifter(t *testing.T) (*Lifter, sequence.Provider) {
	t.Helper()
	originalSeq, err := sequence.LoadFASTA(strings.NewReader(flatOriginalFasta))
	require.NoError(t, err)
	newSeq, err := sequence.LoadFASTA(strings.NewReader(flatNewFasta))
	require.NoError(t, err)
	idx, err := poslift.Load(strings.NewReader(flatChain))
	require.NoError(t, err)
	return New(idx, originalSeq, newSeq), originalSeq
}

func TestLiftVariantSNVThroughAlignedBlock(t *testing.T) {
	lifter, _ := newLifter(t)
	v := variant.Variant{Chrom: "chr1", Pos: 5, Ref: []byte("C"), Alt: [][]byte{[]byte("A")}}

	results, err := lifter.LiftVariant(v, 10, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Value)

	lifted := results[0].Value
	assert.Equal(t, "chr1New", lifted.Chrom)
	assert.Equal(t, uint64(5), lifted.Pos)
	assert.Equal(t, "C", string(lifted.Ref))
	assert.Equal(t, []string{"A"}, toStrings(lifted.Alt))
	assert.Equal(t, chainio.Forward, lifted.Strand)
	assert.False(t, lifted.ReferenceChanged)
}

func TestLiftVariantUnknownChromosome(t *testing.T) {
	lifter, _ := newLifter(t)
	v := variant.Variant{Chrom: "chrX", Pos: 5, Ref: []byte("C"), Alt: [][]byte{[]byte("A")}}

	results, err := lifter.LiftVariant(v, 10, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrUnknownSequenceName)
}

func TestLiftVariantReferenceMismatch(t *testing.T) {
	lifter, _ := newLifter(t)
	// chr1[5] is 'C', not 'G'.
	v := variant.Variant{Chrom: "chr1", Pos: 5, Ref: []byte("G"), Alt: [][]byte{[]byte("A")}}

	results, err := lifter.LiftVariant(v, 10, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrReferenceMismatch)
}

func toStrings(alleles [][]byte) []string {
	out := make([]string, len(alleles))
	for i, a := range alleles {
		out[i] = string(a)
	}
	return out
}
