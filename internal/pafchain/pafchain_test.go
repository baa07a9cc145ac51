package pafchain

import (
	"strings"
	"testing"
)

func TestConvertSimpleMatch(t *testing.T) {
	line := "chr1new\t10000\t0\t100\t+\tchr1old\t10000\t0\t100\t100\t100\t60\tcs:Z::100\n"
	f, err := Convert(strings.NewReader(line))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(f.Chains) != 1 {
		t.Fatalf("expected 1 chain, got %d", len(f.Chains))
	}
	c := f.Chains[0]
	if c.OriginalContig.Name != "chr1old" || c.NewContig.Name != "chr1new" {
		t.Errorf("contig names = %s/%s", c.OriginalContig.Name, c.NewContig.Name)
	}
	if c.OriginalStart != 0 || c.OriginalEnd != 100 {
		t.Errorf("original range = [%d,%d]", c.OriginalStart, c.OriginalEnd)
	}
	if len(c.Intervals) != 1 || c.Intervals[0].Size != 100 {
		t.Fatalf("unexpected intervals: %+v", c.Intervals)
	}
}

func TestConvertWithIndel(t *testing.T) {
	// 50 matched, 3 bases deleted from the original, 50 more matched.
	line := "chr1new\t10000\t0\t100\t+\tchr1old\t10000\t0\t103\t100\t103\t60\tcs:Z::50-aaa:50\n"
	f, err := Convert(strings.NewReader(line))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	c := f.Chains[0]
	if len(c.Intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d: %+v", len(c.Intervals), c.Intervals)
	}
	first := c.Intervals[0]
	if first.Size != 50 || first.DiffOriginal == nil || *first.DiffOriginal != 3 || first.DiffNew != nil {
		t.Fatalf("unexpected first interval: %+v", first)
	}
	if c.Intervals[1].Size != 50 {
		t.Fatalf("unexpected second interval: %+v", c.Intervals[1])
	}
}

func TestConvertSkipsRecordsWithoutCSTag(t *testing.T) {
	line := "q\t100\t0\t100\t+\tt\t100\t0\t100\t100\t100\t60\n"
	f, err := Convert(strings.NewReader(line))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(f.Chains) != 0 {
		t.Fatalf("expected 0 chains, got %d", len(f.Chains))
	}
}

func TestConvertMismatchedTargetLengthFails(t *testing.T) {
	line := "q\t100\t0\t100\t+\tt\t100\t0\t999\t100\t100\t60\tcs:Z::100\n"
	if _, err := Convert(strings.NewReader(line)); err == nil {
		t.Fatal("expected an error for a cs tag/PAF length mismatch")
	}
}
