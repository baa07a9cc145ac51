package geneio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ReadGFF3 parses a GFF3 stream into Records.
func ReadGFF3(r io.Reader) ([]*Record, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	if magic, err := br.Peek(2); err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip gff3: %w", err)
		}
		defer gz.Close()
		return scanGFF3(gz)
	}
	return scanGFF3(br)
}

func scanGFF3(r io.Reader) ([]*Record, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	var records []*Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseGFF3Line(line)
		if err != nil {
			return nil, fmt.Errorf("gff3 line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan gff3: %w", err)
	}
	return records, nil
}

func parseGFF3Line(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("expected 9 columns, found %d", len(fields))
	}
	start, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid start %q: %w", fields[3], err)
	}
	end, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid end %q: %w", fields[4], err)
	}
	return &Record{
		SeqID:      fields[0],
		Source:     fields[1],
		Type:       ParseFeatureType(fields[2]),
		Start:      start,
		End:        end,
		Score:      fields[5],
		FeatStrand: ParseStrand(fields[6]),
		Phase:      fields[7],
		Attributes: parseGFF3Attributes(fields[8]),
	}, nil
}

// parseGFF3Attributes parses the `key=value;key=value` attribute column,
// preserving declaration order.
func parseGFF3Attributes(s string) []AttributeKV {
	var out []AttributeKV
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, "=")
		if idx == -1 {
			continue
		}
		out = append(out, AttributeKV{Key: part[:idx], Value: part[idx+1:]})
	}
	return out
}

// WriteGFF3 serializes records back to GFF3 text form.
func WriteGFF3(w io.Writer, records []*Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		var attrs strings.Builder
		for i, kv := range r.Attributes {
			if i > 0 {
				attrs.WriteByte(';')
			}
			fmt.Fprintf(&attrs, "%s=%s", kv.Key, kv.Value)
		}
		_, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			r.SeqID, r.Source, r.Type, r.Start, r.End, r.Score, r.FeatStrand, r.Phase, attrs.String())
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Format names one of the two supported gene-model text formats.
type Format int

const (
	FormatAuto Format = iota
	FormatGFF3
	FormatGTF
)

// ParseFormat maps a --format flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "gff3":
		return FormatGFF3, nil
	case "gtf":
		return FormatGTF, nil
	default:
		return FormatAuto, fmt.Errorf("unknown gene model format %q", s)
	}
}

// ReadFeatures reads records in the requested format, sniffing GFF3 vs
// GTF by attribute-column syntax (GFF3's `key=value` vs GTF's
// `key "value"`) when format is FormatAuto.
func ReadFeatures(r io.Reader, format Format) ([]*Record, Format, error) {
	if format != FormatAuto {
		read := ReadGTF
		if format == FormatGFF3 {
			read = ReadGFF3
		}
		records, err := read(r)
		return records, format, err
	}

	br := bufio.NewReaderSize(r, 64*1024)
	peeked, _ := br.Peek(64 * 1024)
	detected := sniffFormat(peeked)
	records, err := ReadFeatures(br, detected)
	return records, detected, err
}

func sniffFormat(sample []byte) Format {
	for _, line := range strings.Split(string(sample), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 9 {
			continue
		}
		attrCol := fields[8]
		if strings.Contains(attrCol, "=") && !strings.Contains(attrCol, " \"") {
			return FormatGFF3
		}
		return FormatGTF
	}
	return FormatGTF
}

// WriteFeatures writes records in the requested concrete format.
func WriteFeatures(w io.Writer, records []*Record, format Format) error {
	if format == FormatGFF3 {
		return WriteGFF3(w, records)
	}
	return WriteGTF(w, records)
}
