package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/genolift/internal/chainstore"
	"github.com/inodb/genolift/internal/leftalign"
	"github.com/inodb/genolift/internal/poslift"
	"github.com/inodb/genolift/internal/sequence"
	"github.com/inodb/genolift/internal/variantlift"
	"github.com/inodb/genolift/internal/vcfio"
	"github.com/inodb/genolift/internal/vcflift"
)

func newLiftVCFCmd() *cobra.Command {
	var (
		chainPath, originalFasta, newFasta string
		inPath, outPath, failPath          string
		noLeftAlignChain                   bool
		noCache                            bool
		cachePath                          string
		params                             vcflift.Params
	)
	params = vcflift.DefaultParams()

	cmd := &cobra.Command{
		Use:   "liftvcf",
		Short: "Lift a VCF file's records across a chain file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigDefaults(cmd, &params, &noCache)

			originalSeq, newSeq, err := loadSequences(originalFasta, newFasta)
			if err != nil {
				return err
			}

			var idx *poslift.Index
			if noCache {
				idx, err = openIndex(chainPath, originalSeq, newSeq, noLeftAlignChain)
			} else {
				idx, err = openIndexCached(chainPath, cachePath, originalSeq, newSeq, noLeftAlignChain)
			}
			if err != nil {
				return err
			}

			lifter := vcflift.New(variantlift.New(idx, originalSeq, newSeq), params, logger)

			in, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("open input vcf: %w", err)
			}
			defer in.Close()
			reader, err := vcfio.NewReader(in)
			if err != nil {
				return fmt.Errorf("read vcf header: %w", err)
			}
			defer reader.Close()

			out, err := openOutput(outPath)
			if err != nil {
				return err
			}
			defer out.Close()
			failOut, err := openOutput(failPath)
			if err != nil {
				return err
			}
			defer failOut.Close()

			succeeded, failed, err := lifter.LiftReader(reader, vcfio.NewWriter(out), vcfio.NewWriter(failOut))
			if err != nil {
				return err
			}
			if logger != nil {
				logger.Infow("liftvcf complete", "succeeded", succeeded, "failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&chainPath, "chain", "c", "", "chain file")
	cmd.Flags().StringVarP(&originalFasta, "reference", "r", "", "original-assembly FASTA")
	cmd.Flags().StringVarP(&newFasta, "query", "q", "", "new-assembly FASTA")
	cmd.Flags().StringVarP(&inPath, "vcf", "f", "", "input VCF")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "lifted VCF output")
	cmd.Flags().StringVarP(&failPath, "failed", "a", "", "failed-record VCF output")
	for _, name := range []string{"chain", "reference", "query", "vcf", "output", "failed"} {
		cmd.MarkFlagRequired(name)
	}

	cmd.Flags().BoolVar(&params.AllowMultimap, "allow-multimap", params.AllowMultimap, "keep records that lift to more than one location")
	cmd.Flags().Uint64Var(&params.AcceptableDeletion, "acceptable-deletion", params.AcceptableDeletion, "largest deletion growth to accept, in bases")
	cmd.Flags().Uint64Var(&params.AcceptableInsertion, "acceptable-insertion", params.AcceptableInsertion, "largest insertion growth to accept, in bases")
	cmd.Flags().BoolVar(&params.DoNotRewriteInfo, "no-rewrite-info", params.DoNotRewriteInfo, "do not reshuffle Number=R/A/G INFO fields")
	cmd.Flags().BoolVar(&params.DoNotRewriteFormat, "no-rewrite-format", params.DoNotRewriteFormat, "do not reshuffle Number=R/A/G FORMAT fields")
	cmd.Flags().BoolVar(&params.DoNotRewriteGT, "no-rewrite-gt", params.DoNotRewriteGT, "do not remap FORMAT GT allele indices")
	cmd.Flags().BoolVar(&params.DoNotRewriteAlleleFrequency, "no-rewrite-allele-frequency", params.DoNotRewriteAlleleFrequency, "do not rebalance AF-like INFO fields")
	cmd.Flags().BoolVar(&params.DoNotRewriteAlleleCount, "no-rewrite-allele-count", params.DoNotRewriteAlleleCount, "do not rebalance AC/AN-like INFO fields")
	cmd.Flags().BoolVar(&params.DoNotSwapRefAlt, "no-swap-ref-alt", params.DoNotSwapRefAlt, "do not swap REF/ALT when the reference allele changed")
	cmd.Flags().BoolVar(&params.DoNotUseDotWhenAltEqualToRef, "no-dot-when-alt-equal-ref", params.DoNotUseDotWhenAltEqualToRef, "do not collapse ALT to '.' when it now equals REF")
	cmd.Flags().BoolVar(&params.DoNotPreferCisContigOnMultimap, "no-prefer-cis-contig-when-multimap", params.DoNotPreferCisContigOnMultimap, "do not prefer a same-named contig among multi-mapped candidates")

	cmd.Flags().BoolVar(&noLeftAlignChain, "no-left-align-chain", false, "do not left-align the chain file before lifting")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always re-parse and re-left-align the chain file instead of using the cache")
	cmd.Flags().StringVar(&cachePath, "cache", "", "DuckDB file caching parsed, left-aligned chain files (in-memory if empty)")

	return cmd
}

// openIndex loads a chain file and builds a position index over it,
// left-aligning its indels against both assemblies unless disabled.
func openIndex(chainPath string, originalSeq, newSeq sequence.Provider, noLeftAlignChain bool) (*poslift.Index, error) {
	f, _, err := loadChain(chainPath)
	if err != nil {
		return nil, err
	}
	if !noLeftAlignChain {
		f, err = leftalign.File(f, originalSeq, newSeq)
		if err != nil {
			return nil, fmt.Errorf("left-align chain: %w", err)
		}
	}
	return poslift.NewIndex(f), nil
}
