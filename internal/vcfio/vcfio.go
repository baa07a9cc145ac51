// Package vcfio models a VCF record and header well enough to rewrite
// coordinates, REF/ALT, INFO, FORMAT and genotype fields in place. It
// favors a straightforward fully-materialized record over the original
// implementation's lazy byte-slice parsing: the lifter only ever
// processes one record at a time, so the simpler model costs nothing in
// practice.
package vcfio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// InfoField is one ;-separated INFO entry. Flag is true for a bare key
// with no "=values" part.
type InfoField struct {
	Key    string
	Values []string
	Flag   bool
}

// Record is one data line of a VCF file, fields split into their
// comma/colon-separated components.
type Record struct {
	Line    int
	Chrom   string
	Pos     uint64 // 0-based; VCF text is 1-based
	ID      string
	Ref     string
	Alt     []string
	Qual    string
	Filter  string
	Info    []InfoField
	Format  []string
	Samples [][]string // Samples[i][j] is sample i's value for Format[j]
}

// Clone returns a deep copy so rewriters can mutate freely.
func (r *Record) Clone() *Record {
	out := *r
	out.Alt = append([]string(nil), r.Alt...)
	out.Info = make([]InfoField, len(r.Info))
	for i, f := range r.Info {
		out.Info[i] = InfoField{Key: f.Key, Flag: f.Flag, Values: append([]string(nil), f.Values...)}
	}
	out.Format = append([]string(nil), r.Format...)
	out.Samples = make([][]string, len(r.Samples))
	for i, s := range r.Samples {
		out.Samples[i] = append([]string(nil), s...)
	}
	return &out
}

// InfoValue returns the first value of the named INFO field.
func (r *Record) InfoValue(key string) (string, bool) {
	for _, f := range r.Info {
		if f.Key == key && len(f.Values) > 0 {
			return f.Values[0], true
		}
	}
	return "", false
}

// SetInfo overwrites or appends an INFO field, preserving arrival order
// of existing keys.
func (r *Record) SetInfo(key string, values ...string) {
	for i, f := range r.Info {
		if f.Key == key {
			r.Info[i].Values = values
			r.Info[i].Flag = len(values) == 0
			return
		}
	}
	r.Info = append(r.Info, InfoField{Key: key, Values: values, Flag: len(values) == 0})
}

// Header holds every header line verbatim plus the ##INFO/##FORMAT
// Number= declarations rewriters need to decide how to reshuffle a field
// when the ALT list is reordered.
type Header struct {
	Lines        []string
	ColumnLine   string
	SampleNames  []string
	InfoNumber   map[string]string
	FormatNumber map[string]string
}

// AddLine appends a meta line (a "##..." line) before the #CHROM column
// line, skipping it if a line with the same ID already exists for INFO
// or FORMAT declarations.
func (h *Header) AddLine(line string) {
	if id, number, ok := parseNumberDecl(line, "##INFO=<"); ok {
		if _, dup := h.InfoNumber[id]; dup {
			return
		}
		h.InfoNumber[id] = number
	} else if id, number, ok := parseNumberDecl(line, "##FORMAT=<"); ok {
		if _, dup := h.FormatNumber[id]; dup {
			return
		}
		h.FormatNumber[id] = number
	}
	h.Lines = append(h.Lines, line)
}

func parseNumberDecl(line, prefix string) (id, number string, ok bool) {
	if !strings.HasPrefix(line, prefix) {
		return "", "", false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(line, prefix), ">")
	for _, kv := range splitRespectingQuotes(body) {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "ID":
			id = parts[1]
		case "Number":
			number = parts[1]
		}
	}
	return id, number, id != ""
}

func splitRespectingQuotes(s string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range s {
		switch r {
		case '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case ',':
			if inQuotes {
				cur.WriteRune(r)
			} else {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	out = append(out, cur.String())
	return out
}

// Reader streams Records from a VCF file, transparently gzip-decoding.
type Reader struct {
	br     *bufio.Reader
	gz     io.Closer
	line   int
	Header *Header
}

// NewReader parses the header and returns a Reader positioned at the
// first data line.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	var closer io.Closer
	if magic, err := br.Peek(2); err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip vcf: %w", err)
		}
		closer = gz
		br = bufio.NewReader(gz)
	}

	reader := &Reader{br: br, gz: closer, Header: &Header{
		InfoNumber:   make(map[string]string),
		FormatNumber: make(map[string]string),
	}}
	if err := reader.parseHeader(); err != nil {
		return nil, err
	}
	return reader, nil
}

func (r *Reader) parseHeader() error {
	for {
		line, err := r.br.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read vcf header: %w", err)
		}
		r.line++
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "##") {
			r.Header.AddLine(line)
			if err == io.EOF {
				return fmt.Errorf("vcf header ended without #CHROM line")
			}
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			r.Header.ColumnLine = line
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				r.Header.SampleNames = fields[9:]
			}
			return nil
		}
		return fmt.Errorf("vcf header: expected #CHROM line at line %d", r.line)
	}
}

// Next reads the next data record, returning nil, nil at EOF.
func (r *Reader) Next() (*Record, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			return nil, nil
		}
		if err != io.EOF {
			return nil, fmt.Errorf("read vcf record: %w", err)
		}
	}
	r.line++
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return r.Next()
	}
	return parseRecord(line, r.line)
}

// Close releases the underlying gzip reader, if any.
func (r *Reader) Close() error {
	if r.gz != nil {
		return r.gz.Close()
	}
	return nil
}

func parseRecord(line string, lineNum int) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, fmt.Errorf("vcf record at line %d: expected at least 8 columns, found %d", lineNum, len(fields))
	}
	var pos uint64
	if _, err := fmt.Sscanf(fields[1], "%d", &pos); err != nil {
		return nil, fmt.Errorf("vcf record at line %d: invalid POS %q", lineNum, fields[1])
	}

	rec := &Record{
		Line:   lineNum,
		Chrom:  fields[0],
		Pos:    pos - 1,
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    strings.Split(fields[4], ","),
		Qual:   fields[5],
		Filter: fields[6],
		Info:   parseInfo(fields[7]),
	}
	if len(fields) > 8 {
		rec.Format = strings.Split(fields[8], ":")
		for _, sampleField := range fields[9:] {
			rec.Samples = append(rec.Samples, strings.Split(sampleField, ":"))
		}
	}
	return rec, nil
}

func parseInfo(s string) []InfoField {
	if s == "." {
		return nil
	}
	var out []InfoField
	for _, kv := range strings.Split(s, ";") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 1 {
			out = append(out, InfoField{Key: parts[0], Flag: true})
			continue
		}
		out = append(out, InfoField{Key: parts[0], Values: strings.Split(parts[1], ",")})
	}
	return out
}

// Writer serializes a Header and Records in VCF text form.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteHeader writes every meta line and the #CHROM column line.
func (w *Writer) WriteHeader(h *Header) error {
	for _, line := range h.Lines {
		if _, err := fmt.Fprintln(w.w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w.w, h.ColumnLine)
	return err
}

// WriteRecord serializes one data line.
func (w *Writer) WriteRecord(r *Record) error {
	info := "."
	if len(r.Info) > 0 {
		parts := make([]string, len(r.Info))
		for i, f := range r.Info {
			if f.Flag {
				parts[i] = f.Key
			} else {
				parts[i] = f.Key + "=" + strings.Join(f.Values, ",")
			}
		}
		info = strings.Join(parts, ";")
	}

	line := fmt.Sprintf("%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s",
		r.Chrom, r.Pos+1, r.ID, r.Ref, strings.Join(r.Alt, ","), r.Qual, r.Filter, info)
	if len(r.Format) > 0 {
		line += "\t" + strings.Join(r.Format, ":")
		for _, sample := range r.Samples {
			line += "\t" + strings.Join(sample, ":")
		}
	}
	_, err := fmt.Fprintln(w.w, line)
	return err
}
