// Package chainstore caches a parsed chain.File in DuckDB, keyed by a
// digest of the source chain file's bytes, so repeated lifts against the
// same chain file skip re-parsing it. Grounded in the duckdb package's
// sql.Open("duckdb", path) + schema-ensure pattern.
package chainstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/genolift/internal/chainio"
)

// Store manages a DuckDB connection used to cache parsed chain files.
type Store struct {
	db *sql.DB
}

// Open opens or creates a DuckDB database at path. Use an empty string
// for an in-memory database that caches nothing across process runs.
func Open(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("chainstore: create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("chainstore: open duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("chainstore: ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contigs (
			digest VARCHAR,
			side VARCHAR,
			idx INTEGER,
			name VARCHAR,
			length UBIGINT,
			PRIMARY KEY (digest, side, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS chains (
			digest VARCHAR,
			idx INTEGER,
			score BIGINT,
			original_contig_idx INTEGER,
			original_start UBIGINT,
			original_end UBIGINT,
			new_contig_idx INTEGER,
			new_strand INTEGER,
			new_start UBIGINT,
			new_end UBIGINT,
			id VARCHAR,
			PRIMARY KEY (digest, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS intervals (
			digest VARCHAR,
			chain_idx INTEGER,
			idx INTEGER,
			size UBIGINT,
			diff_original UBIGINT,
			diff_original_set BOOLEAN,
			diff_new UBIGINT,
			diff_new_set BOOLEAN,
			PRIMARY KEY (digest, chain_idx, idx)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Digest returns the cache key for the chain file read from r, consuming
// the stream entirely. Use Digest before re-reading r for a cache miss.
func Digest(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("chainstore: digest: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Load returns the cached File for digest, or ok=false on a cache miss.
func (s *Store) Load(digest string) (*chainio.File, bool, error) {
	originalContigs, err := s.loadContigs(digest, "original")
	if err != nil {
		return nil, false, err
	}
	if len(originalContigs) == 0 {
		return nil, false, nil
	}
	newContigs, err := s.loadContigs(digest, "new")
	if err != nil {
		return nil, false, err
	}

	rows, err := s.db.Query(`SELECT idx, score, original_contig_idx, original_start, original_end,
		new_contig_idx, new_strand, new_start, new_end, id FROM chains WHERE digest = ? ORDER BY idx`, digest)
	if err != nil {
		return nil, false, fmt.Errorf("chainstore: load chains: %w", err)
	}
	defer rows.Close()

	var chains []chainio.Chain
	for rows.Next() {
		var idx int
		var c chainio.Chain
		var originalIx, newIx int
		var newStrand int
		if err := rows.Scan(&idx, &c.Score, &originalIx, &c.OriginalStart, &c.OriginalEnd,
			&newIx, &newStrand, &c.NewStart, &c.NewEnd, &c.ID); err != nil {
			return nil, false, fmt.Errorf("chainstore: scan chain: %w", err)
		}
		c.OriginalContig = originalContigs[originalIx]
		c.OriginalStrand = chainio.Forward
		c.NewContig = newContigs[newIx]
		c.NewStrand = chainio.Strand(newStrand)

		intervals, err := s.loadIntervals(digest, idx)
		if err != nil {
			return nil, false, err
		}
		c.Intervals = intervals
		chains = append(chains, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return chainio.NewFile(chains, originalContigs, newContigs), true, nil
}

func (s *Store) loadContigs(digest, side string) ([]chainio.Contig, error) {
	rows, err := s.db.Query(`SELECT idx, name, length FROM contigs WHERE digest = ? AND side = ? ORDER BY idx`, digest, side)
	if err != nil {
		return nil, fmt.Errorf("chainstore: load %s contigs: %w", side, err)
	}
	defer rows.Close()

	var out []chainio.Contig
	for rows.Next() {
		var idx int
		var c chainio.Contig
		if err := rows.Scan(&idx, &c.Name, &c.Length); err != nil {
			return nil, fmt.Errorf("chainstore: scan %s contig: %w", side, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) loadIntervals(digest string, chainIdx int) ([]chainio.Interval, error) {
	rows, err := s.db.Query(`SELECT size, diff_original, diff_original_set, diff_new, diff_new_set
		FROM intervals WHERE digest = ? AND chain_idx = ? ORDER BY idx`, digest, chainIdx)
	if err != nil {
		return nil, fmt.Errorf("chainstore: load intervals: %w", err)
	}
	defer rows.Close()

	var out []chainio.Interval
	for rows.Next() {
		var iv chainio.Interval
		var diffOriginal, diffNew uint64
		var diffOriginalSet, diffNewSet bool
		if err := rows.Scan(&iv.Size, &diffOriginal, &diffOriginalSet, &diffNew, &diffNewSet); err != nil {
			return nil, fmt.Errorf("chainstore: scan interval: %w", err)
		}
		if diffOriginalSet {
			iv.DiffOriginal = &diffOriginal
		}
		if diffNewSet {
			iv.DiffNew = &diffNew
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// Save persists f under digest, replacing any prior entry.
func (s *Store) Save(digest string, f *chainio.File) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("chainstore: begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM intervals WHERE digest = ?`,
		`DELETE FROM chains WHERE digest = ?`,
		`DELETE FROM contigs WHERE digest = ?`,
	} {
		if _, err := tx.Exec(stmt, digest); err != nil {
			return fmt.Errorf("chainstore: clear prior entry: %w", err)
		}
	}

	for i, c := range f.OriginalContigs {
		if _, err := tx.Exec(`INSERT INTO contigs VALUES (?, 'original', ?, ?, ?)`, digest, i, c.Name, c.Length); err != nil {
			return fmt.Errorf("chainstore: insert original contig: %w", err)
		}
	}
	for i, c := range f.NewContigs {
		if _, err := tx.Exec(`INSERT INTO contigs VALUES (?, 'new', ?, ?, ?)`, digest, i, c.Name, c.Length); err != nil {
			return fmt.Errorf("chainstore: insert new contig: %w", err)
		}
	}

	for chainIdx, c := range f.Chains {
		originalIx, _ := f.OriginalIndex(c.OriginalContig.Name)
		newIx, _ := f.NewIndex(c.NewContig.Name)
		_, err := tx.Exec(`INSERT INTO chains VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			digest, chainIdx, c.Score, originalIx, c.OriginalStart, c.OriginalEnd,
			newIx, int(c.NewStrand), c.NewStart, c.NewEnd, c.ID)
		if err != nil {
			return fmt.Errorf("chainstore: insert chain: %w", err)
		}

		for ivIdx, iv := range c.Intervals {
			var diffOriginal, diffNew uint64
			var diffOriginalSet, diffNewSet bool
			if iv.DiffOriginal != nil {
				diffOriginal, diffOriginalSet = *iv.DiffOriginal, true
			}
			if iv.DiffNew != nil {
				diffNew, diffNewSet = *iv.DiffNew, true
			}
			_, err := tx.Exec(`INSERT INTO intervals VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				digest, chainIdx, ivIdx, iv.Size, diffOriginal, diffOriginalSet, diffNew, diffNewSet)
			if err != nil {
				return fmt.Errorf("chainstore: insert interval: %w", err)
			}
		}
	}

	return tx.Commit()
}
