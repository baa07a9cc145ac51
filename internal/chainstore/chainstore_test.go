package chainstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genolift/internal/chainio"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFile() *chainio.File {
	one := uint64(1)
	three := uint64(3)
	chains := []chainio.Chain{
		{
			Score:          1000,
			OriginalContig: chainio.Contig{Name: "chr1", Length: 10000},
			OriginalStrand: chainio.Forward,
			OriginalStart:  0,
			OriginalEnd:    1000,
			NewContig:      chainio.Contig{Name: "chr1New", Length: 10000},
			NewStrand:      chainio.Forward,
			NewStart:       0,
			NewEnd:         998,
			ID:             "0",
			Intervals: []chainio.Interval{
				{Size: 500, DiffOriginal: &three, DiffNew: &one},
				{Size: 497},
			},
		},
	}
	return chainio.NewFile(chains,
		[]chainio.Contig{{Name: "chr1", Length: 10000}},
		[]chainio.Contig{{Name: "chr1New", Length: 10000}})
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := openInMemory(t)
	f := sampleFile()

	require.NoError(t, s.Save("digest1", f))

	loaded, ok, err := s.Load("digest1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.Chains, 1)

	c := loaded.Chains[0]
	assert.Equal(t, "chr1", c.OriginalContig.Name)
	assert.Equal(t, "chr1New", c.NewContig.Name)
	assert.Equal(t, uint64(0), c.OriginalStart)
	assert.Equal(t, uint64(1000), c.OriginalEnd)
	require.Len(t, c.Intervals, 2)
	assert.Equal(t, uint64(500), c.Intervals[0].Size)
	require.NotNil(t, c.Intervals[0].DiffOriginal)
	assert.Equal(t, uint64(3), *c.Intervals[0].DiffOriginal)
	require.NotNil(t, c.Intervals[0].DiffNew)
	assert.Equal(t, uint64(1), *c.Intervals[0].DiffNew)
	assert.Nil(t, c.Intervals[1].DiffOriginal)
}

func TestLoadMissingDigestIsCacheMiss(t *testing.T) {
	s := openInMemory(t)
	_, ok, err := s.Load("does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveOverwritesPriorEntry(t *testing.T) {
	s := openInMemory(t)
	f := sampleFile()
	require.NoError(t, s.Save("digest1", f))
	require.NoError(t, s.Save("digest1", f))

	loaded, ok, err := s.Load("digest1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, loaded.Chains, 1)
}
