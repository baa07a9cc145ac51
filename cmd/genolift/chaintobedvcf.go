package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/genolift/internal/geneio"
	"github.com/inodb/genolift/internal/sequence"
)

// newChainToBedVCFCmd exports every chain's gap intervals at or above
// --svlen bases as BED intervals (one file per assembly side) and as
// minimal structural-variant VCF records (one file per side), giving a
// human a quick look at where a chain disagrees with its assemblies
// without running a full liftvcf/liftgene pass.
func newChainToBedVCFCmd() *cobra.Command {
	var (
		originalFasta, newFasta     string
		originalBedPath, newBedPath string
		originalVCFPath, newVCFPath string
		svLen                       uint64
	)

	cmd := &cobra.Command{
		Use:   "chain-to-bed-vcf CHAIN",
		Short: "Export a chain file's large gaps as BED/VCF for both assemblies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _, err := loadChain(args[0])
			if err != nil {
				return err
			}
			originalSeq, newSeq, err := loadSequences(originalFasta, newFasta)
			if err != nil {
				return err
			}

			var originalBed, newBed []geneio.BEDRecord
			var originalVCF, newVCF []svCall

			for _, chain := range f.Chains {
				origContig := chain.OriginalContig.Name
				newContig := chain.NewContig.Name
				origPos := chain.OriginalStart
				newPos := chain.NewStart

				for _, iv := range chain.Intervals {
					origEnd := origPos + iv.Size
					newEnd := newPos + iv.Size

					diffOriginal := valOrZero(iv.DiffOriginal)
					diffNew := valOrZero(iv.DiffNew)

					if diffOriginal >= svLen && diffOriginal > 0 {
						originalBed = append(originalBed, geneio.BEDRecord{Chrom: origContig, Start: origEnd, End: origEnd + diffOriginal})
						originalVCF = append(originalVCF, svCall{chrom: origContig, pos: origEnd, svType: "DEL", svLen: diffOriginal})
					}
					if diffNew >= svLen && diffNew > 0 {
						newBed = append(newBed, geneio.BEDRecord{Chrom: newContig, Start: newEnd, End: newEnd + diffNew})
						newVCF = append(newVCF, svCall{chrom: newContig, pos: newEnd, svType: "INS", svLen: diffNew})
					}

					origPos = origEnd + diffOriginal
					newPos = newEnd + diffNew
				}
			}

			if err := writeBedFile(originalBedPath, originalBed); err != nil {
				return err
			}
			if err := writeBedFile(newBedPath, newBed); err != nil {
				return err
			}
			if err := writeSVVCF(originalVCFPath, originalSeq, originalVCF); err != nil {
				return err
			}
			if err := writeSVVCF(newVCFPath, newSeq, newVCF); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&originalFasta, "reference", "r", "", "original-assembly FASTA")
	cmd.Flags().StringVarP(&newFasta, "query", "q", "", "new-assembly FASTA")
	cmd.Flags().StringVarP(&originalBedPath, "bed", "b", "", "original-assembly BED output")
	cmd.Flags().StringVarP(&newBedPath, "newbed", "d", "", "new-assembly BED output")
	cmd.Flags().StringVarP(&originalVCFPath, "vcf", "v", "", "original-assembly VCF output")
	cmd.Flags().StringVarP(&newVCFPath, "newvcf", "c", "", "new-assembly VCF output")
	cmd.Flags().Uint64Var(&svLen, "svlen", 50, "minimum gap length to report")
	for _, name := range []string{"reference", "query", "bed", "newbed", "vcf", "newvcf"} {
		cmd.MarkFlagRequired(name)
	}

	return cmd
}

type svCall struct {
	chrom  string
	pos    uint64
	svType string
	svLen  uint64
}

func valOrZero(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}

func writeBedFile(path string, records []geneio.BEDRecord) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return geneio.WriteBED(out, records)
}

func writeSVVCF(path string, seq sequence.Provider, calls []svCall) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	fmt.Fprintln(out, "##fileformat=VCFv4.2")
	fmt.Fprintln(out, `##INFO=<ID=SVTYPE,Number=1,Type=String,Description="Type of structural variant">`)
	fmt.Fprintln(out, `##INFO=<ID=SVLEN,Number=1,Type=Integer,Description="Difference in length between REF and ALT alleles">`)
	fmt.Fprintln(out, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	for _, c := range calls {
		ref := "N"
		if b, err := seq.Sequence(c.chrom, c.pos, c.pos+1); err == nil && len(b) == 1 {
			ref = string(b)
		}
		fmt.Fprintf(out, "%s\t%d\t.\t%s\t<%s>\t.\t.\tSVTYPE=%s;SVLEN=%d\n", c.chrom, c.pos+1, ref, c.svType, c.svType, c.svLen)
	}
	return nil
}
