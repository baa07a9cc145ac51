package chainio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

type readStatus int

const (
	statusOutside readStatus = iota
	statusInChain
)

// Parse reads a chain file (transparently gzip-decompressed if the stream
// starts with the gzip magic bytes) into a File.
func Parse(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip chain file: %w", err)
		}
		defer gz.Close()
		br = bufio.NewReader(gz)
	}

	status := statusOutside
	var chains []Chain
	var current *Chain
	originalChroms := map[string]Contig{}
	newChroms := map[string]Contig{}
	var originalOrder, newOrder []string

	lineNum := 0
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}

		switch status {
		case statusOutside:
			if line == "" {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 13 {
				return nil, parseErr(lineNum, ErrInvalidNumberOfHeader)
			}
			if fields[0] != "chain" {
				return nil, parseErr(lineNum, ErrNoChainHeader)
			}
			if fields[4] != "+" {
				return nil, parseErr(lineNum, ErrInvalidStrand)
			}

			score, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, parseErr(lineNum, err)
			}
			oLen, err := strconv.ParseUint(fields[3], 10, 64)
			if err != nil {
				return nil, parseErr(lineNum, err)
			}
			oStart, err := strconv.ParseUint(fields[5], 10, 64)
			if err != nil {
				return nil, parseErr(lineNum, err)
			}
			oEnd, err := strconv.ParseUint(fields[6], 10, 64)
			if err != nil {
				return nil, parseErr(lineNum, err)
			}
			nLen, err := strconv.ParseUint(fields[8], 10, 64)
			if err != nil {
				return nil, parseErr(lineNum, err)
			}
			nStrand, err := ParseStrand(fields[9])
			if err != nil {
				return nil, parseErr(lineNum, err)
			}
			nStart, err := strconv.ParseUint(fields[10], 10, 64)
			if err != nil {
				return nil, parseErr(lineNum, err)
			}
			nEnd, err := strconv.ParseUint(fields[11], 10, 64)
			if err != nil {
				return nil, parseErr(lineNum, err)
			}

			current = &Chain{
				Score:          score,
				OriginalContig: Contig{Name: fields[2], Length: oLen},
				OriginalStrand: Forward,
				OriginalStart:  oStart,
				OriginalEnd:    oEnd,
				NewContig:      Contig{Name: fields[7], Length: nLen},
				NewStrand:      nStrand,
				NewStart:       nStart,
				NewEnd:         nEnd,
				ID:             fields[12],
			}
			status = statusInChain

		case statusInChain:
			fields := strings.Fields(line)
			switch len(fields) {
			case 3:
				size, err := strconv.ParseUint(fields[0], 10, 64)
				if err != nil {
					return nil, parseErr(lineNum, err)
				}
				dOrig, err := strconv.ParseUint(fields[1], 10, 64)
				if err != nil {
					return nil, parseErr(lineNum, err)
				}
				dNew, err := strconv.ParseUint(fields[2], 10, 64)
				if err != nil {
					return nil, parseErr(lineNum, err)
				}
				current.Intervals = append(current.Intervals, Interval{
					Size:         size,
					DiffOriginal: u64p(dOrig),
					DiffNew:      u64p(dNew),
				})
			case 1:
				size, err := strconv.ParseUint(fields[0], 10, 64)
				if err != nil {
					return nil, parseErr(lineNum, err)
				}
				current.Intervals = append(current.Intervals, Interval{Size: size})
				status = statusOutside

				if existing, ok := originalChroms[current.OriginalContig.Name]; ok {
					if existing.Length != current.OriginalContig.Length {
						return nil, parseErr(lineNum, ErrInvalidChromosomeLength)
					}
				} else {
					originalChroms[current.OriginalContig.Name] = current.OriginalContig
					originalOrder = append(originalOrder, current.OriginalContig.Name)
				}
				if existing, ok := newChroms[current.NewContig.Name]; ok {
					if existing.Length != current.NewContig.Length {
						return nil, parseErr(lineNum, ErrInvalidChromosomeLength)
					}
				} else {
					newChroms[current.NewContig.Name] = current.NewContig
					newOrder = append(newOrder, current.NewContig.Name)
				}

				chains = append(chains, *current)
				current = nil
			default:
				return nil, parseErr(lineNum, ErrInvalidColumnCount)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chain file: %w", err)
	}

	f := &File{
		Chains:              chains,
		originalNameToIndex: make(map[string]int, len(originalOrder)),
		newNameToIndex:      make(map[string]int, len(newOrder)),
	}
	for _, name := range originalOrder {
		f.originalNameToIndex[name] = len(f.OriginalContigs)
		f.OriginalContigs = append(f.OriginalContigs, originalChroms[name])
	}
	for _, name := range newOrder {
		f.newNameToIndex[name] = len(f.NewContigs)
		f.NewContigs = append(f.NewContigs, newChroms[name])
	}

	return f, nil
}
