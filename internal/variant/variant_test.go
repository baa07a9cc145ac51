package variant

import "testing"

func TestCloneIsIndependent(t *testing.T) {
	v := Variant{Chrom: "chr1", Pos: 5, Ref: []byte("A"), Alt: [][]byte{[]byte("T")}}
	clone := v.Clone()
	clone.Ref[0] = 'G'
	clone.Alt[0][0] = 'C'

	if v.Ref[0] != 'A' {
		t.Fatalf("mutating clone.Ref changed original: %q", v.Ref)
	}
	if v.Alt[0][0] != 'T' {
		t.Fatalf("mutating clone.Alt changed original: %q", v.Alt[0])
	}
}

func TestIsStar(t *testing.T) {
	if !IsStar([]byte("*")) {
		t.Fatal("expected \"*\" to be a star allele")
	}
	if IsStar([]byte("A")) {
		t.Fatal("did not expect \"A\" to be a star allele")
	}
}

func TestIsSNV(t *testing.T) {
	snv := Variant{Ref: []byte("A"), Alt: [][]byte{[]byte("T"), []byte("G")}}
	if !snv.IsSNV() {
		t.Fatal("expected single-base ref/alt to be an SNV")
	}

	indel := Variant{Ref: []byte("AT"), Alt: [][]byte{[]byte("A")}}
	if indel.IsSNV() {
		t.Fatal("did not expect a 2bp ref to be an SNV")
	}
}

func TestEnd(t *testing.T) {
	v := Variant{Pos: 10, Ref: []byte("ATG")}
	if got := v.End(); got != 13 {
		t.Fatalf("End() = %d, want 13", got)
	}
}

func TestLargestAltSkipsStar(t *testing.T) {
	v := Variant{Alt: [][]byte{[]byte("*"), []byte("AT"), []byte("A")}}
	if got := v.LargestAlt(); got != 2 {
		t.Fatalf("LargestAlt() = %d, want 2", got)
	}
}

func TestAllAltEqualRef(t *testing.T) {
	same := Variant{Ref: []byte("A"), Alt: [][]byte{[]byte("A"), []byte("A")}}
	if !same.AllAltEqualRef() {
		t.Fatal("expected all-ALT-equal-REF to be true")
	}

	diff := Variant{Ref: []byte("A"), Alt: [][]byte{[]byte("A"), []byte("T")}}
	if diff.AllAltEqualRef() {
		t.Fatal("expected all-ALT-equal-REF to be false")
	}
}
