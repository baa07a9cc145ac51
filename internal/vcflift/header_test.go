package vcflift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genolift/internal/chainio"
	"github.com/inodb/genolift/internal/vcfio"
)

func TestLiftHeaderClassifiesAlleleFields(t *testing.T) {
	h := &vcfio.Header{
		ColumnLine:  "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tsample1",
		SampleNames: []string{"sample1"},
		InfoNumber:  map[string]string{"AF": "A", "AC": "A", "AN": "1", "DP": "1", "CSQ": "R"},
		FormatNumber: map[string]string{
			"GT": "1",
			"AD": "R",
			"PL": "G",
		},
	}

	newContigs := []chainio.Contig{
		{Name: "chr2", Length: 200},
		{Name: "chrX", Length: 50},
		{Name: "chr1", Length: 100},
	}

	out, target, err := LiftHeader(h, newContigs, DefaultParams())
	require.NoError(t, err)

	assert.True(t, target.AlleleFrequency.has("AF"))
	assert.True(t, target.AlleleCount.has("AC"))
	assert.True(t, target.AlleleNumber.has("AN"))
	assert.Equal(t, "AN", target.AlleleCountToNumberKey["AC"])
	assert.True(t, target.InfoRef.has("CSQ"))
	assert.True(t, target.FormatRef.has("AD"))
	assert.True(t, target.FormatGenotype.has("PL"))
	assert.True(t, target.FormatGT)

	var contigLines []string
	for _, line := range out.Lines {
		if len(line) >= len("##contig=<") && line[:len("##contig=<")] == "##contig=<" {
			contigLines = append(contigLines, line)
		}
	}
	require.Len(t, contigLines, 3)
	assert.Equal(t, `##contig=<ID=chr1,length=100>`, contigLines[0])
	assert.Equal(t, `##contig=<ID=chr2,length=200>`, contigLines[1])
	assert.Equal(t, `##contig=<ID=chrX,length=50>`, contigLines[2])
}

func TestLiftHeaderAppendsSuccessInfoLines(t *testing.T) {
	h := &vcfio.Header{ColumnLine: "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO", InfoNumber: map[string]string{}, FormatNumber: map[string]string{}}
	out, _, err := LiftHeader(h, nil, DefaultParams())
	require.NoError(t, err)
	assert.Contains(t, out.InfoNumber, "ORIGINAL_CHROM")
	assert.Contains(t, out.InfoNumber, "MULTIMAP")
}

func TestChromosomePriorityOrdersNumericThenXYM(t *testing.T) {
	assert.Less(t, chromosomePriority("chr1"), chromosomePriority("chr2"))
	assert.Less(t, chromosomePriority("chr22"), chromosomePriority("chrX"))
	assert.Less(t, chromosomePriority("chrX"), chromosomePriority("chrY"))
	assert.Less(t, chromosomePriority("chrY"), chromosomePriority("chrM"))
	assert.Less(t, chromosomePriority("chrM"), chromosomePriority("chrUn_gl000220"))
}
