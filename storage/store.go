// Package storage persists datasets, snapshot included, as files.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/TFMV/assaynet/ingest"
	"github.com/TFMV/assaynet/models"
)

var (
	ErrNotFound  = errors.New("dataset not found")
	ErrInvalidID = errors.New("invalid dataset id")
)

var extensions = []string{".json", ".yaml", ".yml"}

// FileStore keeps one file per dataset in a directory.
type FileStore struct {
	dir    string
	format string
	mu     sync.RWMutex
}

var _ models.DatasetRepository = (*FileStore)(nil)

// NewFileStore opens (and creates) a store. format selects how new
// datasets are written: "json" or "yaml".
func NewFileStore(dir, format string) (*FileStore, error) {
	if format != "json" && format != "yaml" {
		return nil, fmt.Errorf("unsupported store format: %s", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	return &FileStore{dir: dir, format: format}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func (s *FileStore) find(id string) (string, error) {
	for _, ext := range extensions {
		p := filepath.Join(s.dir, id+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Get loads the dataset with the given ID.
func (s *FileStore) Get(ctx context.Context, id string) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return LoadFile(p)
}

// Put writes the dataset, replacing any previous version.
func (s *FileStore) Put(ctx context.Context, d *models.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID(d.ID); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, d, s.format); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := filepath.Join(s.dir, d.ID+"."+s.format)
	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", d.ID, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", d.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", d.ID, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("writing %s: %w", d.ID, err)
	}
	// drop copies stored under another format
	for _, ext := range extensions {
		if other := filepath.Join(s.dir, d.ID+ext); other != p {
			_ = os.Remove(other)
		}
	}
	slog.Debug("dataset stored", "id", d.ID, "path", p)
	return nil
}

// Delete removes the dataset with the given ID.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(id)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// List returns the stored dataset IDs in lexical order.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing store: %w", err)
	}
	seen := map[string]bool{}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := filepath.Ext(name)
		for _, known := range extensions {
			if ext == known {
				id := strings.TrimSuffix(name, ext)
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadFile reads and prepares a dataset file, picking the decoder from
// the extension.
func LoadFile(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := ingest.Load(f, ingest.FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return d, nil
}

// Encode writes a dataset as JSON or YAML.
func Encode(w io.Writer, d *models.Dataset, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteFile encodes a dataset to path, picking the format from the
// extension.
func WriteFile(path string, d *models.Dataset) error {
	var buf bytes.Buffer
	if err := Encode(&buf, d, ingest.FormatOf(path)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
