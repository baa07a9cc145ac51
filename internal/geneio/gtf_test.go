package geneio

import (
	"strings"
	"testing"
)

const sampleGTF = `chr1	HAVANA	gene	1000	5000	.	+	.	gene_id "ENSG1"; gene_name "FOO";
chr1	HAVANA	transcript	1000	5000	.	+	.	gene_id "ENSG1"; transcript_id "ENST1";
chr1	HAVANA	exon	1000	1200	.	+	.	gene_id "ENSG1"; transcript_id "ENST1"; exon_number "1";
chr1	HAVANA	exon	4800	5000	.	+	.	gene_id "ENSG1"; transcript_id "ENST1"; exon_number "2";
`

func TestReadGTF(t *testing.T) {
	records, err := ReadGTF(strings.NewReader(sampleGTF))
	if err != nil {
		t.Fatalf("ReadGTF: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	if records[0].Type != Gene {
		t.Errorf("expected first record to be a gene, got %v", records[0].Type)
	}
	geneID, ok := records[0].Attribute("gene_id")
	if !ok || geneID != "ENSG1" {
		t.Errorf("gene_id = %q, %v", geneID, ok)
	}
	if records[2].Start != 1000 || records[2].End != 1200 {
		t.Errorf("exon 1 range = [%d,%d]", records[2].Start, records[2].End)
	}
}

func TestBuildGenes(t *testing.T) {
	records, err := ReadGTF(strings.NewReader(sampleGTF))
	if err != nil {
		t.Fatalf("ReadGTF: %v", err)
	}
	genes := BuildGenes(records)
	if len(genes) != 1 {
		t.Fatalf("expected 1 gene, got %d", len(genes))
	}
	g := genes[0]
	if len(g.Transcripts) != 1 {
		t.Fatalf("expected 1 transcript, got %d", len(g.Transcripts))
	}
	tr := g.Transcripts[0]
	if len(tr.Children) != 2 {
		t.Fatalf("expected 2 child features, got %d", len(tr.Children))
	}
	if tr.Children[0].Start > tr.Children[1].Start {
		t.Errorf("children not sorted by start")
	}
}

func TestRecordRangeRoundTrip(t *testing.T) {
	r := &Record{Start: 1000, End: 2000}
	start, end := r.Range()
	if start != 999 || end != 2000 {
		t.Fatalf("Range() = (%d,%d), want (999,2000)", start, end)
	}
	r.SetRange(500, 1500)
	if r.Start != 501 || r.End != 1500 {
		t.Fatalf("SetRange produced Start=%d End=%d", r.Start, r.End)
	}
}

func TestStrandCombine(t *testing.T) {
	cases := []struct {
		a, b Strand
		want Strand
	}{
		{Forward, Forward, Forward},
		{Forward, Reverse, Reverse},
		{Reverse, Reverse, Forward},
		{Forward, Unknown, Unknown},
	}
	for _, c := range cases {
		if got := c.a.Combine(c.b); got != c.want {
			t.Errorf("%v.Combine(%v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
