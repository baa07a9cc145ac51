package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/genolift/internal/geneio"
	"github.com/inodb/genolift/internal/genelift"
	"github.com/inodb/genolift/internal/poslift"
)

func newLiftGeneCmd() *cobra.Command {
	var chainPath, outPath, failPath, formatFlag string

	cmd := &cobra.Command{
		Use:   "liftgene IN",
		Short: "Lift a GFF3/GTF gene model across a chain file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := geneio.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer in.Close()
			records, detected, err := geneio.ReadFeatures(in, format)
			if err != nil {
				return err
			}
			genes := geneio.BuildGenes(records)

			f, _, err := loadChain(chainPath)
			if err != nil {
				return err
			}
			idx := poslift.NewIndex(f)

			var lifted []*geneio.Record
			var failed []*geneio.Record
			for _, g := range genes {
				result, err := genelift.LiftGene(idx, g)
				if err != nil {
					failed = append(failed, g.Record)
					continue
				}
				lifted = append(lifted, result.Record)
				for _, t := range result.Transcripts {
					lifted = append(lifted, t.Record)
					lifted = append(lifted, t.Children...)
				}
			}

			out, err := openOutput(outPath)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := geneio.WriteFeatures(out, lifted, detected); err != nil {
				return err
			}

			if failPath != "" {
				failOut, err := openOutput(failPath)
				if err != nil {
					return err
				}
				defer failOut.Close()
				if err := geneio.WriteFeatures(failOut, failed, detected); err != nil {
					return err
				}
			}

			if logger != nil {
				logger.Infow("liftgene complete", "genes", len(genes), "lifted", len(lifted), "failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&chainPath, "chain", "c", "", "chain file")
	cmd.Flags().StringVar(&formatFlag, "format", "auto", "input format: auto|GFF3|GTF")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "lifted gene model output")
	cmd.Flags().StringVarP(&failPath, "failed", "f", "", "failed-gene sidecar output")
	cmd.MarkFlagRequired("chain")
	cmd.MarkFlagRequired("output")

	return cmd
}
