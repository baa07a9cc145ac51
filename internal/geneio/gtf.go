package geneio

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ReadGTF parses a GTF stream into Records, gzip-sniffing the stream the
// way vcfio does rather than relying on a filename suffix.
func ReadGTF(r io.Reader) ([]*Record, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	if magic, err := br.Peek(2); err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip gtf: %w", err)
		}
		defer gz.Close()
		return scanGTF(gz)
	}
	return scanGTF(br)
}

func scanGTF(r io.Reader) ([]*Record, error) {
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
		rec, err := parseGTFLine(line)
		if err != nil {
			return nil, fmt.Errorf("gtf line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan gtf: %w", err)
	}
	return records, nil
}

func parseGTFLine(line string) (*Record, error) {
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
		Attributes: parseGTFAttributes(fields[8]),
	}, nil
}

// parseGTFAttributes parses the `key "value"; key "value";` attribute
// column, preserving declaration order.
func parseGTFAttributes(s string) []AttributeKV {
	var out []AttributeKV
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}
		key := part[:idx]
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), "\"")
		out = append(out, AttributeKV{Key: key, Value: value})
	}
	return out
}

// WriteGTF serializes records back to GTF text form.
func WriteGTF(w io.Writer, records []*Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		var attrs strings.Builder
		for i, kv := range r.Attributes {
			if i > 0 {
				attrs.WriteByte(' ')
			}
			fmt.Fprintf(&attrs, "%s %q;", kv.Key, kv.Value)
		}
		_, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			r.SeqID, r.Source, r.Type, r.Start, r.End, r.Score, r.FeatStrand, r.Phase, attrs.String())
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// BuildGenes groups flat GTF records into genes, each holding its
// transcripts and their child features, using the gene_id/transcript_id
// attributes GENCODE-style GTF files declare on every feature.
func BuildGenes(records []*Record) []*Gene {
	genesByID := map[string]*Gene{}
	var geneOrder []string
	transcriptsByID := map[string]*TranscriptModel{}
	var transcriptOrder []string
	transcriptGene := map[string]string{}

	for _, r := range records {
		geneID, _ := r.Attribute("gene_id")
		transcriptID, _ := r.Attribute("transcript_id")

		switch r.Type {
		case Gene:
			if geneID == "" {
				continue
			}
			if _, ok := genesByID[geneID]; !ok {
				geneOrder = append(geneOrder, geneID)
			}
			genesByID[geneID] = &Gene{Record: r}

		case Transcript:
			if transcriptID == "" {
				continue
			}
			if _, ok := transcriptsByID[transcriptID]; !ok {
				transcriptOrder = append(transcriptOrder, transcriptID)
			}
			transcriptsByID[transcriptID] = &TranscriptModel{Record: r}
			transcriptGene[transcriptID] = geneID

		default:
			if transcriptID == "" {
				continue
			}
			t, ok := transcriptsByID[transcriptID]
			if !ok {
				t = &TranscriptModel{}
				transcriptsByID[transcriptID] = t
				transcriptOrder = append(transcriptOrder, transcriptID)
				transcriptGene[transcriptID] = geneID
			}
			t.Children = append(t.Children, r)
		}
	}

	for _, tid := range transcriptOrder {
		t := transcriptsByID[tid]
		sort.Slice(t.Children, func(i, j int) bool { return t.Children[i].Start < t.Children[j].Start })
		geneID := transcriptGene[tid]
		g, ok := genesByID[geneID]
		if !ok {
			continue
		}
		g.Transcripts = append(g.Transcripts, t)
	}

	out := make([]*Gene, 0, len(geneOrder))
	for _, gid := range geneOrder {
		out = append(out, genesByID[gid])
	}
	return out
}
