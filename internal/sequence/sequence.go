// Package sequence defines the contig-sequence contract the rest of the
// core depends on, and ships one concrete, non-indexed implementation
// backed by an in-memory FASTA load. Random-access FASTA indexing is out
// of scope for this repository — a production deployment
// substitutes a samtools-faidx-backed Provider without touching any
// lifter code.
package sequence

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Contig is an immutable (name, length) pair.
type Contig struct {
	Name   string
	Length uint64
}

// Provider fetches uppercased bases from named contigs.
type Provider interface {
	// Sequence returns the uppercased bases of the half-open region
	// [start, end) on contig. Undefined contig is an error.
	Sequence(contig string, start, end uint64) ([]byte, error)
	// ContigList returns every known contig.
	ContigList() []Contig
	// ContigLength is a convenience lookup for a single contig's length.
	ContigLength(name string) (uint64, bool)
}

// UnknownContigError is returned by Provider.Sequence for an unknown contig.
type UnknownContigError struct {
	Name string
}

func (e *UnknownContigError) Error() string {
	return fmt.Sprintf("unknown contig: %s", e.Name)
}

// InMemory is a Provider that holds every contig's bases resident.
type InMemory struct {
	order   []string
	bases   map[string][]byte
	lengths map[string]uint64
}

// LoadFASTA reads a (optionally gzip-compressed) FASTA stream fully into
// memory. Grounded in the teacher's cache.FASTALoader gzip-sniffing scan
// style, generalized from transcript CDS sequences to whole contigs.
func LoadFASTA(r io.Reader) (*InMemory, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip fasta: %w", err)
		}
		defer gz.Close()
		br = bufio.NewReader(gz)
	}

	mem := &InMemory{bases: make(map[string][]byte), lengths: make(map[string]uint64)}

	var current string
	var buf []byte
	flush := func() {
		if current == "" {
			return
		}
		upper := make([]byte, len(buf))
		for i, b := range buf {
			upper[i] = toUpper(b)
		}
		mem.bases[current] = upper
		mem.lengths[current] = uint64(len(upper))
		mem.order = append(mem.order, current)
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			current = strings.Fields(line[1:])[0]
			buf = buf[:0]
			continue
		}
		buf = append(buf, []byte(strings.TrimRight(line, "\r"))...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fasta: %w", err)
	}
	flush()

	return mem, nil
}

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// Sequence implements Provider.
func (m *InMemory) Sequence(contig string, start, end uint64) ([]byte, error) {
	bases, ok := m.bases[contig]
	if !ok {
		return nil, &UnknownContigError{Name: contig}
	}
	if end > uint64(len(bases)) {
		end = uint64(len(bases))
	}
	if start > end {
		start = end
	}
	out := make([]byte, end-start)
	copy(out, bases[start:end])
	return out, nil
}

// ContigList implements Provider.
func (m *InMemory) ContigList() []Contig {
	out := make([]Contig, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, Contig{Name: name, Length: m.lengths[name]})
	}
	return out
}

// ContigLength implements Provider.
func (m *InMemory) ContigLength(name string) (uint64, bool) {
	l, ok := m.lengths[name]
	return l, ok
}

var complement = [256]byte{}

func init() {
	for i := 0; i < 256; i++ {
		complement[i] = byte(i)
	}
	pairs := map[byte]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C', 'N': 'N'}
	for k, v := range pairs {
		complement[k] = v
		complement[k+('a'-'A')] = v + ('a' - 'A')
	}
}

// ReverseComplement returns the reverse complement of seq, preserving case
// and passing through the symbolic '*' allele untouched.
func ReverseComplement(seq []byte) []byte {
	if len(seq) == 1 && seq[0] == '*' {
		return append([]byte(nil), seq...)
	}
	out := make([]byte, len(seq))
	n := len(seq)
	for i, b := range seq {
		out[n-1-i] = complement[b]
	}
	return out
}
