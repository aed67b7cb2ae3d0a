// Package storage persists sweep result tables on disk.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/soltixdb/udlc/internal/analytics/detection"
	"github.com/soltixdb/udlc/internal/compression"
	"github.com/soltixdb/udlc/internal/ingest"
)

var (
	// ErrNotFound is returned when no table is stored under an id
	ErrNotFound = errors.New("result table not found")
	// ErrInvalidID is returned for ids that are not safe file names
	ErrInvalidID = errors.New("invalid result id")
)

const tableExt = ".csv"

// ResultStore keeps one compressed CSV file per sweep id under a directory
type ResultStore struct {
	dir        string
	compressor compression.Compressor
	mu         sync.RWMutex
}

// NewResultStore creates dir if needed and returns a store using compressor
func NewResultStore(dir string, compressor compression.Compressor) (*ResultStore, error) {
	if compressor == nil {
		compressor = compression.NoneCompressor{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &ResultStore{dir: dir, compressor: compressor}, nil
}

func (s *ResultStore) path(id string) string {
	return filepath.Join(s.dir, id+tableExt+s.compressor.Extension())
}

// Save writes table under id, replacing any previous table. The file is
// written to a temporary name and renamed into place.
func (s *ResultStore) Save(id string, table detection.Table) (err error) {
	if err := checkID(id); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+id+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := s.compressor.NewWriter(tmp)
	if err = ingest.WriteTable(w, table, ingest.WriteOptions{Detail: true}); err != nil {
		return fmt.Errorf("failed to encode table %s: %w", id, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to flush table %s: %w", id, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close table %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err = os.Rename(tmp.Name(), s.path(id)); err != nil {
		return fmt.Errorf("failed to rename table %s: %w", id, err)
	}
	return nil
}

// Load reads the table stored under id
func (s *ResultStore) Load(id string) (detection.Table, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	table, err := ingest.ReadTable(s.compressor.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", id, err)
	}
	return table, nil
}

// Delete removes the table stored under id
func (s *ResultStore) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// List returns the stored ids in lexical order
func (s *ResultStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	suffix := tableExt + s.compressor.Extension()
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		id := strings.TrimSuffix(name, suffix)
		// an uncompressed store must not pick up ".csv.sz" files and vice versa
		if strings.Contains(id, ".") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func checkID(id string) error {
	if id == "" || len(id) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return nil
}
