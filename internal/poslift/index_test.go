package poslift

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genolift/internal/chainio"
)

// chainWithGap has a 100bp aligned block, a 5bp deletion / 2bp insertion
// gap, then an 895bp aligned block.
const chainWithGap = `chain 1000 chr1 1000 + 0 1000 chr1New 997 + 0 997 1
100	5	2
895
`

func TestLiftPositionAlignedBlock(t *testing.T) {
	idx, err := Load(strings.NewReader(chainWithGap))
	require.NoError(t, err)

	results := idx.LiftPosition("chr1", 50)
	require.Len(t, results, 1)
	assert.Equal(t, "chr1New", results[0].Chrom)
	assert.Equal(t, uint64(50), results[0].Pos)
	assert.Equal(t, chainio.Forward, results[0].Strand)
}

func TestLiftPositionInsideGapIsEmpty(t *testing.T) {
	idx, err := Load(strings.NewReader(chainWithGap))
	require.NoError(t, err)

	results := idx.LiftPosition("chr1", 102)
	assert.Empty(t, results)
}

func TestLiftRegionAcrossWholeChain(t *testing.T) {
	idx, err := Load(strings.NewReader(chainWithGap))
	require.NoError(t, err)

	results := idx.LiftRegion("chr1", 0, 1000)
	require.Len(t, results, 1)
	assert.Equal(t, "chr1New", results[0].Chrom)
	assert.Equal(t, uint64(0), results[0].Start)
	assert.Equal(t, uint64(997), results[0].End)
}

func TestLiftRegionStraddlingChainBoundaryIsDropped(t *testing.T) {
	multi := `chain 1000 chr1 1000 + 0 500 chr1New 500 + 0 500 1
500

chain 1000 chr1 1000 + 500 1000 chr1New 500 + 0 500 2
500
`
	idx, err := Load(strings.NewReader(multi))
	require.NoError(t, err)

	results := idx.LiftRegion("chr1", 400, 600)
	assert.Empty(t, results)
}

func TestOriginalContigByNameChrPrefixFallback(t *testing.T) {
	idx, err := Load(strings.NewReader(chainWithGap))
	require.NoError(t, err)

	c, ok := idx.OriginalContigByName("1")
	require.True(t, ok, "bare chromosome name should fall back to the chr-prefixed contig")
	assert.Equal(t, uint64(1000), c.Length)

	c, ok = idx.OriginalContigByName("chr1")
	require.True(t, ok)
	assert.Equal(t, uint64(1000), c.Length)

	_, ok = idx.OriginalContigByName("chr2")
	assert.False(t, ok)
}
