// Package ingest decodes datasets from their interchange formats and
// validates them before a network view is built.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/TFMV/assaynet/models"
)

var ErrMalformed = errors.New("malformed dataset")

// Decoder defines the interface that all dataset decoders must implement
type Decoder interface {
	// Decode parses raw bytes into a dataset
	Decode(data []byte) (*models.Dataset, error)

	// Name returns the name of the decoder
	Name() string
}

// JSONDecoder handles JSON datasets
type JSONDecoder struct{}

func (JSONDecoder) Name() string { return "JSON Decoder" }

// Decode parses a JSON dataset
func (JSONDecoder) Decode(data []byte) (*models.Dataset, error) {
	var d models.Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	return &d, nil
}

// YAMLDecoder handles YAML datasets
type YAMLDecoder struct{}

func (YAMLDecoder) Name() string { return "YAML Decoder" }

// Decode parses a YAML dataset
func (YAMLDecoder) Decode(data []byte) (*models.Dataset, error) {
	var d models.Dataset
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}
	return &d, nil
}

// ForFormat returns the decoder for the given format
func ForFormat(format string) (Decoder, error) {
	switch strings.ToLower(format) {
	case "json":
		return JSONDecoder{}, nil
	case "yaml", "yml":
		return YAMLDecoder{}, nil
	case "csv":
		return CSVDecoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatOf guesses the format from a file name, defaulting to JSON.
func FormatOf(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "json"
	}
	return ext
}

// Load reads, decodes and prepares a dataset.
func Load(r io.Reader, format string) (*models.Dataset, error) {
	dec, err := ForFormat(format)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}
	d, err := dec.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := Prepare(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Prepare validates a decoded dataset and fills in what may be absent:
// an ID, timestamps and an upgraded snapshot. Node records are ordered by
// index.
func Prepare(d *models.Dataset) error {
	if d.Nodes.Records == nil && d.Nodes.Fields == nil {
		return fmt.Errorf("%w: missing nodes table", ErrMalformed)
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}

	cutoff := d.Cutoff()
	if cutoff < 0 || cutoff > 1 {
		return fmt.Errorf("%w: query threshold %v outside [0, 1]", ErrMalformed, cutoff)
	}

	index := make([]int, len(d.Nodes.Records))
	for i, r := range d.Nodes.Records {
		idx, err := r.Int(models.KeyIndex)
		if err != nil {
			return fmt.Errorf("%w: node record %d: %v", ErrMalformed, i, err)
		}
		index[i] = idx
	}
	sort.Stable(byIndex{records: d.Nodes.Records, index: index})
	for i, idx := range index {
		if idx != i {
			return fmt.Errorf("%w: node indices are not dense 0..%d (found %d at %d)", ErrMalformed, len(index)-1, idx, i)
		}
	}

	if s := d.Edges.Snapshot; s != nil {
		if err := s.Normalize(cutoff); err != nil {
			return fmt.Errorf("%w: snapshot: %w", ErrMalformed, err)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: snapshot: %w", ErrMalformed, err)
		}
		if len(s.Coords) != 0 && len(s.Coords) != len(d.Nodes.Records) {
			return fmt.Errorf("%w: snapshot has %d coordinates for %d nodes", ErrMalformed, len(s.Coords), len(d.Nodes.Records))
		}
	}
	return nil
}

type byIndex struct {
	records []models.Record
	index   []int
}

func (b byIndex) Len() int { return len(b.records) }
func (b byIndex) Less(i, j int) bool { return b.index[i] < b.index[j] }
func (b byIndex) Swap(i, j int) {
	b.records[i], b.records[j] = b.records[j], b.records[i]
	b.index[i], b.index[j] = b.index[j], b.index[i]
}
