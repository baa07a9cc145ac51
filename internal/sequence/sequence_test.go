package sequence

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const twoContigFasta = ">chr1 some description\nACGTacgt\nNNNN\n>chr2\nTTTTGGGG\n"

func TestLoadFASTAUppercasesAndTracksContigs(t *testing.T) {
	seq, err := LoadFASTA(strings.NewReader(twoContigFasta))
	if err != nil {
		t.Fatalf("LoadFASTA: %v", err)
	}

	bases, err := seq.Sequence("chr1", 0, 12)
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	if string(bases) != "ACGTACGTNNNN" {
		t.Fatalf("Sequence = %q, want %q", bases, "ACGTACGTNNNN")
	}

	length, ok := seq.ContigLength("chr2")
	if !ok || length != 8 {
		t.Fatalf("ContigLength(chr2) = %d, %v, want 8, true", length, ok)
	}

	contigs := seq.ContigList()
	if len(contigs) != 2 || contigs[0].Name != "chr1" || contigs[1].Name != "chr2" {
		t.Fatalf("ContigList = %+v, want chr1 then chr2", contigs)
	}
}

func TestLoadFASTADecodesGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(">chr1\nACGT\n")); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}

	seq, err := LoadFASTA(&buf)
	if err != nil {
		t.Fatalf("LoadFASTA: %v", err)
	}
	bases, err := seq.Sequence("chr1", 0, 4)
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	if string(bases) != "ACGT" {
		t.Fatalf("Sequence = %q, want ACGT", bases)
	}
}

func TestSequenceClampsOutOfRangeEnd(t *testing.T) {
	seq, err := LoadFASTA(strings.NewReader(">chr1\nACGT\n"))
	if err != nil {
		t.Fatalf("LoadFASTA: %v", err)
	}
	bases, err := seq.Sequence("chr1", 2, 100)
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	if string(bases) != "GT" {
		t.Fatalf("Sequence = %q, want GT", bases)
	}
}

func TestSequenceUnknownContig(t *testing.T) {
	seq, err := LoadFASTA(strings.NewReader(">chr1\nACGT\n"))
	if err != nil {
		t.Fatalf("LoadFASTA: %v", err)
	}
	_, err = seq.Sequence("chrX", 0, 1)
	var unknown *UnknownContigError
	if err == nil {
		t.Fatal("expected an error for an unknown contig")
	}
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownContigError, got %T: %v", err, err)
	}
}

func TestReverseComplement(t *testing.T) {
	got := ReverseComplement([]byte("ACGTacgtN"))
	want := "NacgtACGT"
	if string(got) != want {
		t.Fatalf("ReverseComplement = %q, want %q", got, want)
	}
}

func TestReverseComplementPassesThroughStarAllele(t *testing.T) {
	got := ReverseComplement([]byte("*"))
	if string(got) != "*" {
		t.Fatalf("ReverseComplement(*) = %q, want *", got)
	}
}
