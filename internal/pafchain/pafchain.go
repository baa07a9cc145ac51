// Package pafchain converts a minimap2 PAF alignment (with the short-form
// `cs:Z:` tag) into the chain.File representation. It targets the common
// `minimap2 --cs old.fa new.fa` invocation, where the PAF target is the
// original assembly and the PAF query is the new assembly, matching the
// chain format's target/query roles directly. This is a thin adapter, not
// a general-purpose alignment pipeline: it supports the short cs form
// only (":N", "*ab", "+seq", "-seq").
package pafchain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/genolift/internal/chainio"
)

// Convert reads PAF records from r and returns one Chain per record that
// carries a cs:Z: tag. Records without one are skipped.
func Convert(r io.Reader) (*chainio.File, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	originalContigs := map[string]chainio.Contig{}
	newContigs := map[string]chainio.Contig{}
	var originalOrder, newOrder []string
	var chains []chainio.Chain

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}
		c, err := convertLine(line)
		if err != nil {
			return nil, fmt.Errorf("pafchain: line %d: %w", lineNum, err)
		}
		if c == nil {
			continue
		}
		c.ID = strconv.Itoa(len(chains))
		if _, ok := originalContigs[c.OriginalContig.Name]; !ok {
			originalOrder = append(originalOrder, c.OriginalContig.Name)
		}
		originalContigs[c.OriginalContig.Name] = c.OriginalContig
		if _, ok := newContigs[c.NewContig.Name]; !ok {
			newOrder = append(newOrder, c.NewContig.Name)
		}
		newContigs[c.NewContig.Name] = c.NewContig
		chains = append(chains, *c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pafchain: scan: %w", err)
	}

	originalList := make([]chainio.Contig, len(originalOrder))
	for i, name := range originalOrder {
		originalList[i] = originalContigs[name]
	}
	newList := make([]chainio.Contig, len(newOrder))
	for i, name := range newOrder {
		newList[i] = newContigs[name]
	}
	return chainio.NewFile(chains, originalList, newList), nil
}

func convertLine(line string) (*chainio.Chain, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 12 {
		return nil, fmt.Errorf("expected at least 12 columns, found %d", len(fields))
	}

	qName := fields[0]
	qLen, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid query length: %w", err)
	}
	qStart, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid query start: %w", err)
	}
	strandField := fields[4]
	tName := fields[5]
	tLen, err := strconv.ParseUint(fields[6], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid target length: %w", err)
	}
	tStart, err := strconv.ParseUint(fields[7], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid target start: %w", err)
	}
	tEnd, err := strconv.ParseUint(fields[8], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid target end: %w", err)
	}
	mapq, err := strconv.ParseInt(fields[11], 10, 64)
	if err != nil {
		mapq = 0
	}

	var cs string
	for _, tag := range fields[12:] {
		if strings.HasPrefix(tag, "cs:Z:") {
			cs = strings.TrimPrefix(tag, "cs:Z:")
			break
		}
	}
	if cs == "" {
		return nil, nil
	}

	newStrand := chainio.Forward
	if strandField == "-" {
		newStrand = chainio.Reverse
	}

	intervals, originalEnd, newEndOffset, err := parseCS(cs)
	if err != nil {
		return nil, fmt.Errorf("parse cs tag: %w", err)
	}

	if got := tStart + originalEnd; got != tEnd {
		return nil, fmt.Errorf("cs tag consumes %d target bases, PAF declares %d", got-tStart, tEnd-tStart)
	}

	c := &chainio.Chain{
		Score:          mapq,
		OriginalContig: chainio.Contig{Name: tName, Length: tLen},
		OriginalStrand: chainio.Forward,
		OriginalStart:  tStart,
		OriginalEnd:    tEnd,
		NewContig:      chainio.Contig{Name: qName, Length: qLen},
		NewStrand:      newStrand,
		NewStart:       qStart,
		NewEnd:         qStart + newEndOffset,
		Intervals:      intervals,
	}
	return c, nil
}

// parseCS walks a short-form cs:Z: string, returning the chain intervals
// plus the total original/new bases consumed.
func parseCS(cs string) (intervals []chainio.Interval, originalLen, newLen uint64, err error) {
	var pendingSize uint64
	var pendingDiffOriginal, pendingDiffNew *uint64

	flush := func() {
		if pendingSize == 0 && pendingDiffOriginal == nil && pendingDiffNew == nil {
			return
		}
		intervals = append(intervals, chainio.Interval{Size: pendingSize, DiffOriginal: pendingDiffOriginal, DiffNew: pendingDiffNew})
		pendingSize = 0
		pendingDiffOriginal = nil
		pendingDiffNew = nil
	}

	i := 0
	for i < len(cs) {
		op := cs[i]
		i++
		start := i
		switch op {
		case ':':
			for i < len(cs) && cs[i] >= '0' && cs[i] <= '9' {
				i++
			}
			n, parseErr := strconv.ParseUint(cs[start:i], 10, 64)
			if parseErr != nil {
				return nil, 0, 0, fmt.Errorf("invalid :N run at offset %d: %w", start, parseErr)
			}
			if pendingDiffOriginal != nil || pendingDiffNew != nil {
				flush()
			}
			pendingSize += n
			originalLen += n
			newLen += n

		case '*':
			if i+2 > len(cs) {
				return nil, 0, 0, fmt.Errorf("truncated *ab at offset %d", start)
			}
			i += 2
			if pendingDiffOriginal != nil || pendingDiffNew != nil {
				flush()
			}
			pendingSize++
			originalLen++
			newLen++

		case '+':
			for i < len(cs) && isBase(cs[i]) {
				i++
			}
			n := uint64(i - start)
			if pendingDiffNew != nil {
				flush()
			}
			v := n
			pendingDiffNew = &v
			newLen += n

		case '-':
			for i < len(cs) && isBase(cs[i]) {
				i++
			}
			n := uint64(i - start)
			if pendingDiffOriginal != nil {
				flush()
			}
			v := n
			pendingDiffOriginal = &v
			originalLen += n

		default:
			return nil, 0, 0, fmt.Errorf("unsupported cs operator %q at offset %d", op, start-1)
		}
	}
	flush()
	return intervals, originalLen, newLen, nil
}

func isBase(b byte) bool {
	switch b {
	case 'a', 'c', 'g', 't', 'n', 'A', 'C', 'G', 'T', 'N':
		return true
	default:
		return false
	}
}
