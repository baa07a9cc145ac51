package geneio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BEDRecord is one permissive BED line: the three mandatory columns
// plus whatever trailing columns were present, carried opaquely.
type BEDRecord struct {
	Chrom      string
	Start, End uint64
	Extra      []string
}

// Len returns the feature's half-open span.
func (r BEDRecord) Len() uint64 { return r.End - r.Start }

// ReadBED parses a tab-separated BED stream, accepting 3 to N columns
// per line.
func ReadBED(r io.Reader) ([]BEDRecord, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	var records []BEDRecord
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseBEDLine(line)
		if err != nil {
			return nil, fmt.Errorf("bed line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan bed: %w", err)
	}
	return records, nil
}

func parseBEDLine(line string) (BEDRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return BEDRecord{}, fmt.Errorf("expected at least 3 columns, found %d", len(fields))
	}
	start, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return BEDRecord{}, fmt.Errorf("invalid start %q: %w", fields[1], err)
	}
	end, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return BEDRecord{}, fmt.Errorf("invalid end %q: %w", fields[2], err)
	}
	return BEDRecord{Chrom: fields[0], Start: start, End: end, Extra: append([]string(nil), fields[3:]...)}, nil
}

// WriteBED serializes records back to BED text, inserting tabs only
// between present fields and always trailing with a newline.
func WriteBED(w io.Writer, records []BEDRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		fmt.Fprintf(bw, "%s\t%d\t%d", r.Chrom, r.Start, r.End)
		for _, extra := range r.Extra {
			fmt.Fprintf(bw, "\t%s", extra)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
