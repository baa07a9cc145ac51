// Package geneio models GTF feature records and groups them into the
// gene/transcript/child-feature hierarchy genelift operates on.
package geneio

// FeatureType classifies a GTF record's third column.
type FeatureType int

const (
	Other FeatureType = iota
	Gene
	Transcript
	Exon
	CDS
	ThreePrimeUTR
	FivePrimeUTR
	StartCodon
	StopCodon
	UTR
)

// ParseFeatureType maps a GTF feature-type string to a FeatureType.
func ParseFeatureType(s string) FeatureType {
	switch s {
	case "gene", "pseudogene":
		return Gene
	case "transcript", "pseudogenic_transcript":
		return Transcript
	case "exon":
		return Exon
	case "CDS":
		return CDS
	case "three_prime_UTR":
		return ThreePrimeUTR
	case "five_prime_UTR":
		return FivePrimeUTR
	case "start_codon":
		return StartCodon
	case "stop_codon":
		return StopCodon
	case "UTR":
		return UTR
	default:
		return Other
	}
}

func (t FeatureType) String() string {
	switch t {
	case Gene:
		return "gene"
	case Transcript:
		return "transcript"
	case Exon:
		return "exon"
	case CDS:
		return "CDS"
	case ThreePrimeUTR:
		return "three_prime_UTR"
	case FivePrimeUTR:
		return "five_prime_UTR"
	case StartCodon:
		return "start_codon"
	case StopCodon:
		return "stop_codon"
	case UTR:
		return "UTR"
	default:
		return "other"
	}
}

// Strand is a gene-model strand, with Unknown for GTF's "." column.
type Strand int

const (
	Forward Strand = iota
	Reverse
	Unknown
)

// Combine composes two strand flips the way a lifted feature's reported
// strand composes with its own annotated strand.
func (s Strand) Combine(other Strand) Strand {
	if s == Unknown || other == Unknown {
		return Unknown
	}
	if s == other {
		return Forward
	}
	return Reverse
}

func (s Strand) String() string {
	switch s {
	case Forward:
		return "+"
	case Reverse:
		return "-"
	default:
		return "."
	}
}

// ParseStrand parses a single GTF strand character.
func ParseStrand(s string) Strand {
	switch s {
	case "+":
		return Forward
	case "-":
		return Reverse
	default:
		return Unknown
	}
}

// Record is one GTF data line: a 1-based, closed-interval feature with a
// free-form attribute set.
type Record struct {
	SeqID      string
	Source     string
	Type       FeatureType
	Start      uint64 // 1-based, inclusive
	End        uint64 // 1-based, inclusive
	Score      string
	FeatStrand Strand
	Phase      string
	Attributes []AttributeKV
}

// AttributeKV preserves GTF attribute order across a round trip.
type AttributeKV struct {
	Key   string
	Value string
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	out := *r
	out.Attributes = append([]AttributeKV(nil), r.Attributes...)
	return &out
}

// Attribute returns the first value for key, if present.
func (r *Record) Attribute(key string) (string, bool) {
	for _, kv := range r.Attributes {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// SetAttribute overwrites or appends an attribute.
func (r *Record) SetAttribute(key, value string) {
	for i, kv := range r.Attributes {
		if kv.Key == key {
			r.Attributes[i].Value = value
			return
		}
	}
	r.Attributes = append(r.Attributes, AttributeKV{Key: key, Value: value})
}

// Range returns the 0-based, half-open span matching chain-coordinate
// convention.
func (r *Record) Range() (start, end uint64) {
	return r.Start - 1, r.End
}

// SetRange updates Start/End from a 0-based half-open span.
func (r *Record) SetRange(start, end uint64) {
	r.Start = start + 1
	r.End = end
}

// Len returns the record's 1-based inclusive length.
func (r *Record) Len() uint64 {
	return r.End + 1 - r.Start
}

// Gene groups a gene record with its transcripts.
type Gene struct {
	Record      *Record
	Transcripts []*TranscriptModel
}

// TranscriptModel groups a transcript record with its child features
// (exon/CDS/UTR/etc).
type TranscriptModel struct {
	Record   *Record
	Children []*Record
}

