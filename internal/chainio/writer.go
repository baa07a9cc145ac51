package chainio

import (
	"bufio"
	"fmt"
	"io"
)

// Write serializes a File as the exact inverse of Parse, preserving chain
// order and the single-integer terminating interval line.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)
	for _, c := range f.Chains {
		if _, err := fmt.Fprintf(bw, "chain %d %s %d %s %d %d %s %d %s %d %d %s\n",
			c.Score,
			c.OriginalContig.Name, c.OriginalContig.Length, c.OriginalStrand, c.OriginalStart, c.OriginalEnd,
			c.NewContig.Name, c.NewContig.Length, c.NewStrand, c.NewStart, c.NewEnd,
			c.ID,
		); err != nil {
			return err
		}
		for _, iv := range c.Intervals {
			if iv.DiffOriginal == nil && iv.DiffNew == nil {
				if _, err := fmt.Fprintf(bw, "%d\n", iv.Size); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(bw, "%d\t%d\t%d\n", iv.Size, valOr(iv.DiffOriginal, 0), valOr(iv.DiffNew, 0)); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
