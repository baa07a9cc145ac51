package genelift

import (
	"strings"
	"testing"

	"github.com/inodb/genolift/internal/geneio"
	"github.com/inodb/genolift/internal/poslift"
)

// A single forward chain covering chr1:0-10000 -> chr1New:0-10000 with no
// gaps, so every region lifts 1:1 and keeps its length.
const simpleChain = `chain 1000 chr1 10000 + 0 10000 chr1New 10000 + 0 10000 1
10000
`

func mustIndex(t *testing.T, chain string) *poslift.Index {
	t.Helper()
	idx, err := poslift.Load(strings.NewReader(chain))
	if err != nil {
		t.Fatalf("poslift.Load: %v", err)
	}
	return idx
}

func TestLiftSingleFeature(t *testing.T) {
	idx := mustIndex(t, simpleChain)
	rec := &geneio.Record{SeqID: "chr1", Type: geneio.Exon, Start: 1001, End: 1200, FeatStrand: geneio.Forward}

	cands, err := LiftSingleFeature(idx, rec)
	if err != nil {
		t.Fatalf("LiftSingleFeature: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	lifted := cands[0].Record
	if lifted.SeqID != "chr1New" {
		t.Errorf("SeqID = %q, want chr1New", lifted.SeqID)
	}
	if lifted.Start != 1001 || lifted.End != 1200 {
		t.Errorf("range = [%d,%d], want [1001,1200]", lifted.Start, lifted.End)
	}
	if got, ok := lifted.Attribute("ORIGINAL_CHROM"); !ok || got != "chr1" {
		t.Errorf("ORIGINAL_CHROM = %q, %v", got, ok)
	}
}

func TestLiftTranscriptPreservesOrder(t *testing.T) {
	idx := mustIndex(t, simpleChain)
	transcriptRec := &geneio.Record{SeqID: "chr1", Type: geneio.Transcript, Start: 1001, End: 2000, FeatStrand: geneio.Forward}
	exon1 := &geneio.Record{SeqID: "chr1", Type: geneio.Exon, Start: 1001, End: 1200, FeatStrand: geneio.Forward}
	exon2 := &geneio.Record{SeqID: "chr1", Type: geneio.Exon, Start: 1801, End: 2000, FeatStrand: geneio.Forward}

	tr := &geneio.TranscriptModel{Record: transcriptRec, Children: []*geneio.Record{exon1, exon2}}
	lifted, err := LiftTranscript(idx, tr)
	if err != nil {
		t.Fatalf("LiftTranscript: %v", err)
	}
	if len(lifted.Children) != 2 {
		t.Fatalf("expected 2 lifted children, got %d", len(lifted.Children))
	}
	if lifted.Children[0].Start >= lifted.Children[1].Start {
		t.Errorf("lifted exon order not preserved: %d >= %d", lifted.Children[0].Start, lifted.Children[1].Start)
	}
	if lifted.Record.SeqID != "chr1New" {
		t.Errorf("transcript SeqID = %q, want chr1New", lifted.Record.SeqID)
	}
}

func TestLiftGeneUnionsTranscriptSpan(t *testing.T) {
	idx := mustIndex(t, simpleChain)
	geneRec := &geneio.Record{SeqID: "chr1", Type: geneio.Gene, Start: 1001, End: 3000, FeatStrand: geneio.Forward}
	transcriptRec := &geneio.Record{SeqID: "chr1", Type: geneio.Transcript, Start: 1001, End: 2000, FeatStrand: geneio.Forward}
	exon1 := &geneio.Record{SeqID: "chr1", Type: geneio.Exon, Start: 1001, End: 1200, FeatStrand: geneio.Forward}
	exon2 := &geneio.Record{SeqID: "chr1", Type: geneio.Exon, Start: 1801, End: 2000, FeatStrand: geneio.Forward}

	gene := &geneio.Gene{
		Record: geneRec,
		Transcripts: []*geneio.TranscriptModel{
			{Record: transcriptRec, Children: []*geneio.Record{exon1, exon2}},
		},
	}
	lifted, err := LiftGene(idx, gene)
	if err != nil {
		t.Fatalf("LiftGene: %v", err)
	}
	if len(lifted.Transcripts) != 1 {
		t.Fatalf("expected 1 lifted transcript, got %d", len(lifted.Transcripts))
	}
	if lifted.Record.SeqID != "chr1New" {
		t.Errorf("gene SeqID = %q, want chr1New", lifted.Record.SeqID)
	}
}

func TestLiftSingleFeatureNoChain(t *testing.T) {
	idx := mustIndex(t, simpleChain)
	rec := &geneio.Record{SeqID: "chrUnknown", Start: 1, End: 100, FeatStrand: geneio.Forward}
	if _, err := LiftSingleFeature(idx, rec); err == nil {
		t.Fatal("expected an error for an unmapped contig")
	}
}
