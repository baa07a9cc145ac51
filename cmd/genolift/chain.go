package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/genolift/internal/chainio"
	"github.com/inodb/genolift/internal/chainstore"
	"github.com/inodb/genolift/internal/leftalign"
	"github.com/inodb/genolift/internal/pafchain"
	"github.com/inodb/genolift/internal/poslift"
	"github.com/inodb/genolift/internal/sequence"
)

func newMinimap2ToChainCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "minimap2-to-chain PAF",
		Short: "Convert a minimap2 PAF alignment (with cs:Z: tags) to a chain file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open paf: %w", err)
			}
			defer in.Close()

			f, err := pafchain.Convert(in)
			if err != nil {
				return err
			}

			out, err := openOutput(outPath)
			if err != nil {
				return err
			}
			defer out.Close()
			return chainio.Write(out, f)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output chain file")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newChainLeftAlignCmd() *cobra.Command {
	var outPath, originalFasta, newFasta string

	cmd := &cobra.Command{
		Use:   "chain-left-align CHAIN",
		Short: "Left-align every indel of a chain file against its two assemblies",
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

			aligned, err := leftalign.File(f, originalSeq, newSeq)
			if err != nil {
				return err
			}

			out, err := openOutput(outPath)
			if err != nil {
				return err
			}
			defer out.Close()
			return chainio.Write(out, aligned)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output chain file")
	cmd.Flags().StringVarP(&originalFasta, "reference", "r", "", "original-assembly FASTA")
	cmd.Flags().StringVarP(&newFasta, "query", "q", "", "new-assembly FASTA")
	cmd.MarkFlagRequired("output")
	cmd.MarkFlagRequired("reference")
	cmd.MarkFlagRequired("query")
	return cmd
}

func loadSequences(originalFastaPath, newFastaPath string) (sequence.Provider, sequence.Provider, error) {
	originalSeq, err := loadFASTA(originalFastaPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load reference fasta: %w", err)
	}
	newSeq, err := loadFASTA(newFastaPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load query fasta: %w", err)
	}
	return originalSeq, newSeq, nil
}

func loadFASTA(path string) (*sequence.InMemory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sequence.LoadFASTA(f)
}

func openOutput(path string) (*os.File, error) {
	if path == "-" || path == "" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

// loadChain opens and parses the chain file at path. The second return
// value is path itself; no digest is computed here (openIndexCached
// computes its own cache key).
func loadChain(path string) (*chainio.File, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open chain file: %w", err)
	}
	defer f.Close()

	parsed, err := chainio.Parse(f)
	if err != nil {
		return nil, "", fmt.Errorf("parse chain file: %w", err)
	}
	return parsed, path, nil
}

// openIndexCached builds a position index over chainPath's chain file,
// left-aligning it against both assemblies unless disabled, reusing a
// prior left-aligned parse from the DuckDB cache at cachePath (or an
// in-memory one when cachePath is empty) keyed by a digest of the raw
// chain bytes and the left-align flag so an edited chain file or a
// changed --no-left-align-chain setting invalidates the entry.
func openIndexCached(chainPath, cachePath string, originalSeq, newSeq sequence.Provider, noLeftAlignChain bool) (*poslift.Index, error) {
	raw, err := os.ReadFile(chainPath)
	if err != nil {
		return nil, fmt.Errorf("read chain file: %w", err)
	}

	store, err := chainstore.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("open chain cache: %w", err)
	}
	defer store.Close()

	digestInput := fmt.Sprintf("%s\x00leftalign=%t", raw, !noLeftAlignChain)
	digest, err := chainstore.Digest(strings.NewReader(digestInput))
	if err != nil {
		return nil, err
	}

	if cached, ok, err := store.Load(digest); err == nil && ok {
		return poslift.NewIndex(cached), nil
	}

	f, err := chainio.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse chain file: %w", err)
	}
	if !noLeftAlignChain {
		f, err = leftalign.File(f, originalSeq, newSeq)
		if err != nil {
			return nil, fmt.Errorf("left-align chain: %w", err)
		}
	}
	if err := store.Save(digest, f); err != nil {
		return nil, fmt.Errorf("save chain cache entry: %w", err)
	}
	return poslift.NewIndex(f), nil
}
