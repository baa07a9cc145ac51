package chainio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleChain = `chain 1000 chr1 10000 + 0 10000 chr1New 10000 + 0 10000 1
100	5	0
200	0	3
9692

chain 500 chr2 5000 + 0 5000 chr2New 5000 + 0 5000 2
5000
`

func TestParseRoundTrip(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleChain))
	require.NoError(t, err)
	require.Len(t, f.Chains, 2)

	first := f.Chains[0]
	assert.Equal(t, int64(1000), first.Score)
	assert.Equal(t, "chr1", first.OriginalContig.Name)
	assert.Equal(t, uint64(10000), first.OriginalContig.Length)
	assert.Equal(t, "chr1New", first.NewContig.Name)
	assert.Equal(t, Forward, first.NewStrand)
	require.Len(t, first.Intervals, 3)
	assert.Equal(t, uint64(100), first.Intervals[0].Size)
	require.NotNil(t, first.Intervals[0].DiffOriginal)
	assert.Equal(t, uint64(5), *first.Intervals[0].DiffOriginal)
	assert.Nil(t, first.Intervals[2].DiffOriginal)

	assert.Equal(t, []Contig{{Name: "chr1", Length: 10000}, {Name: "chr2", Length: 5000}}, f.OriginalContigs)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))

	reparsed, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Chains, reparsed.Chains)
}

func TestParseRejectsBadHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("chain 1 chr1 10\n100\n"))
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseRejectsReverseOriginalStrand(t *testing.T) {
	_, err := Parse(strings.NewReader("chain 1 chr1 10000 - 0 10000 chr1New 10000 + 0 10000 1\n10000\n"))
	require.Error(t, err)
}

func TestParseRejectsMismatchedContigLength(t *testing.T) {
	bad := `chain 1 chr1 10000 + 0 10000 chr1New 10000 + 0 10000 1
10000

chain 1 chr1 9999 + 0 9999 chr1New 9999 + 0 9999 2
9999
`
	_, err := Parse(strings.NewReader(bad))
	require.Error(t, err)
}

func TestCombineStrand(t *testing.T) {
	assert.Equal(t, Forward, Forward.Combine(Forward))
	assert.Equal(t, Reverse, Forward.Combine(Reverse))
	assert.Equal(t, Forward, Reverse.Combine(Reverse))
}
