package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/genolift/internal/geneio"
	"github.com/inodb/genolift/internal/poslift"
)

func newLiftBedCmd() *cobra.Command {
	var chainPath, outPath, failPath string
	var allowMultimap bool

	cmd := &cobra.Command{
		Use:   "liftbed IN",
		Short: "Lift a BED file's intervals across a chain file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer in.Close()
			records, err := geneio.ReadBED(in)
			if err != nil {
				return err
			}

			f, _, err := loadChain(chainPath)
			if err != nil {
				return err
			}
			idx := poslift.NewIndex(f)

			var lifted, failed []geneio.BEDRecord
			for _, rec := range records {
				results := idx.LiftRegion(rec.Chrom, rec.Start, rec.End)
				var candidates []geneio.BEDRecord
				for _, res := range results {
					if res.IsEmpty() {
						continue
					}
					candidates = append(candidates, geneio.BEDRecord{
						Chrom: res.Chrom,
						Start: res.Start,
						End:   res.End,
						Extra: rec.Extra,
					})
				}
				switch {
				case len(candidates) == 0:
					failed = append(failed, rec)
				case len(candidates) == 1:
					lifted = append(lifted, candidates[0])
				default:
					if !allowMultimap {
						failed = append(failed, rec)
						continue
					}
					lifted = append(lifted, candidates...)
				}
			}

			out, err := openOutput(outPath)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := geneio.WriteBED(out, lifted); err != nil {
				return err
			}

			if failPath != "" {
				failOut, err := openOutput(failPath)
				if err != nil {
					return err
				}
				defer failOut.Close()
				if err := geneio.WriteBED(failOut, failed); err != nil {
					return err
				}
			}

			if logger != nil {
				logger.Infow("liftbed complete", "input", len(records), "lifted", len(lifted), "failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&chainPath, "chain", "c", "", "chain file")
	cmd.Flags().BoolVarP(&allowMultimap, "allow-multimap", "m", false, "keep intervals that lift to more than one location")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "lifted BED output")
	cmd.Flags().StringVarP(&failPath, "failed", "f", "", "failed-interval sidecar output")
	cmd.MarkFlagRequired("chain")
	cmd.MarkFlagRequired("output")

	return cmd
}
