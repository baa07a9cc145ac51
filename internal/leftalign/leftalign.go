// Package leftalign pushes every indel of a chain alignment as far left as
// the underlying reference and query sequences allow, so downstream
// position and variant lifting never has to re-normalize against an
// arbitrary minimap2/liftOver anchor.
package leftalign

import (
	"errors"

	"github.com/inodb/genolift/internal/chainio"
	"github.com/inodb/genolift/internal/normalize"
	"github.com/inodb/genolift/internal/sequence"
	"github.com/inodb/genolift/internal/variant"
)

// ErrOriginalStrandReverse is returned for a chain whose original strand is
// not forward.
var ErrOriginalStrandReverse = errors.New("leftalign: chain original strand must be forward")

// File left-aligns every chain of f against originalSeq and newSeq.
func File(f *chainio.File, originalSeq, newSeq sequence.Provider) (*chainio.File, error) {
	var chains []chainio.Chain
	for i := range f.Chains {
		aligned, err := Chain(&f.Chains[i], originalSeq, newSeq)
		if err != nil {
			return nil, err
		}
		chains = append(chains, *aligned)
	}
	return chainio.NewFile(chains, f.OriginalContigs, f.NewContigs), nil
}

// Chain left-aligns a single chain's interval list.
func Chain(c *chainio.Chain, originalSeq, newSeq sequence.Provider) (*chainio.Chain, error) {
	if c.OriginalStrand != chainio.Forward {
		return nil, ErrOriginalStrandReverse
	}

	var newIntervals []chainio.Interval

	currentOriginal := c.OriginalStart
	currentNew := c.NewStart
	var remainSize uint64

	for _, iv := range c.Intervals {
		diffOriginal := valOr(iv.DiffOriginal)
		diffNew := valOr(iv.DiffNew)

		if diffOriginal == 1 && diffNew == 1 {
			remainSize += iv.Size + 1
			continue
		}

		nextOriginal := currentOriginal + iv.Size + remainSize
		nextNew := currentNew + iv.Size + remainSize

		referenceSeq, err := originalSeq.Sequence(c.OriginalContig.Name, nextOriginal, nextOriginal+diffOriginal)
		if err != nil {
			return nil, err
		}

		var querySeq []byte
		switch c.NewStrand {
		case chainio.Forward:
			querySeq, err = newSeq.Sequence(c.NewContig.Name, nextNew, nextNew+diffNew)
			if err != nil {
				return nil, err
			}
		case chainio.Reverse:
			raw, err := newSeq.Sequence(c.NewContig.Name, c.NewContig.Length-(nextNew+diffNew), c.NewContig.Length-nextNew)
			if err != nil {
				return nil, err
			}
			querySeq = sequence.ReverseComplement(raw)
		}

		v := variant.Variant{
			Chrom: c.OriginalContig.Name,
			Pos:   nextOriginal,
			Ref:   referenceSeq,
			Alt:   [][]byte{querySeq},
		}
		normalized, err := normalize.Normalize(v, originalSeq)
		if err != nil {
			return nil, err
		}
		normalized = normalize.TrimLeftKeepingOneBase(normalized)

		var offset uint64
		if nextOriginal > normalized.Pos {
			offset = nextOriginal - normalized.Pos
		}

		offsetUpdated := uint64(0)
		if offset != 0 {
			offsetReferenceSeq, err := originalSeq.Sequence(c.OriginalContig.Name, nextOriginal-offset, nextOriginal)
			if err != nil {
				return nil, err
			}
			var offsetQuerySeq []byte
			switch c.NewStrand {
			case chainio.Forward:
				offsetQuerySeq, err = newSeq.Sequence(c.NewContig.Name, nextNew-offset, nextNew)
				if err != nil {
					return nil, err
				}
			case chainio.Reverse:
				raw, err := newSeq.Sequence(c.NewContig.Name, c.NewContig.Length-nextNew, c.NewContig.Length-(nextNew-offset))
				if err != nil {
					return nil, err
				}
				offsetQuerySeq = sequence.ReverseComplement(raw)
			}
			if string(offsetReferenceSeq) == string(offsetQuerySeq) {
				offsetUpdated = offset
			}
		}

		if offsetUpdated > iv.Size+remainSize {
			offsetUpdated = iv.Size + remainSize
		}

		newInterval := chainio.Interval{Size: iv.Size + remainSize - offsetUpdated}
		if iv.DiffOriginal != nil {
			newInterval.DiffOriginal = u64p(uint64(len(normalized.Ref)))
		}
		if iv.DiffNew != nil {
			newInterval.DiffNew = u64p(uint64(len(normalized.Alt[0])))
		}

		originalCurrentOriginal := currentOriginal + iv.Size + diffOriginal + remainSize
		currentOriginal += newInterval.Size + valOr(newInterval.DiffOriginal)
		currentNew += newInterval.Size + valOr(newInterval.DiffNew)
		remainSize = originalCurrentOriginal - currentOriginal

		newIntervals = append(newIntervals, newInterval)
	}

	aligned := *c
	aligned.Intervals = cleanup(newIntervals)
	return &aligned, nil
}

// cleanup merges adjacent aligned-only intervals and folds zero-size gap
// intervals into their predecessor, mirroring the raw interval stream a
// chain parser would otherwise reject as non-canonical.
func cleanup(intervals []chainio.Interval) []chainio.Interval {
	var acc []chainio.Interval
	for _, iv := range intervals {
		if len(acc) == 0 {
			acc = append(acc, iv)
			continue
		}
		last := acc[len(acc)-1]
		if valOr(last.DiffNew) == 0 && valOr(last.DiffOriginal) == 0 {
			acc[len(acc)-1] = chainio.Interval{
				Size:         last.Size + iv.Size,
				DiffOriginal: iv.DiffOriginal,
				DiffNew:      iv.DiffNew,
			}
			continue
		}
		if iv.Size == 0 {
			acc[len(acc)-1] = chainio.Interval{
				Size:         last.Size,
				DiffOriginal: u64p(valOr(last.DiffOriginal) + valOr(iv.DiffOriginal)),
				DiffNew:      u64p(valOr(last.DiffNew) + valOr(iv.DiffNew)),
			}
			continue
		}
		acc = append(acc, iv)
	}
	return acc
}

func valOr(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}

func u64p(v uint64) *uint64 { return &v }
