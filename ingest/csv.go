package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/TFMV/assaynet/models"
)

// CSVDecoder reads a similarity edge list with a header row. The source,
// target and weight columns are required; any other column is kept on the
// edge record. Nodes are 0..max(index) and the query threshold is the
// lowest weight present.
type CSVDecoder struct{}

func (CSVDecoder) Name() string { return "CSV Decoder" }

// Decode parses a CSV edge list
func (CSVDecoder) Decode(data []byte) (*models.Dataset, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{models.KeySource, models.KeyTarget, models.KeyWeight} {
		if _, ok := cols[k]; !ok {
			return nil, fmt.Errorf("%w: CSV header lacks %q", ErrMalformed, k)
		}
	}

	d := models.NewDataset("CSV Import")
	for i, h := range header {
		d.Edges.Fields = append(d.Edges.Fields, models.Field{Key: strings.ToLower(strings.TrimSpace(h)), Name: h, Visible: i < 3})
	}

	maxIndex := -1
	cutoff := math.Inf(1)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading CSV line %d: %w", line, err)
		}
		r := models.Record{}
		for k, i := range cols {
			if i >= len(row) {
				continue
			}
			r[k] = cell(row[i])
		}
		s, err := r.Int(models.KeySource)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		t, err := r.Int(models.KeyTarget)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		w, err := r.Float(models.KeyWeight)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		maxIndex = max(maxIndex, s, t)
		cutoff = math.Min(cutoff, w)
		d.Edges.Records = append(d.Edges.Records, r)
	}

	d.Nodes.Fields = []models.Field{{Key: models.KeyIndex, Name: "Index", Format: "integer", Visible: true}}
	d.Nodes.Records = make([]models.Record, maxIndex+1)
	for i := range d.Nodes.Records {
		d.Nodes.Records[i] = models.Record{models.KeyIndex: float64(i)}
	}
	if math.IsInf(cutoff, 1) {
		cutoff = 0
	}
	d.Edges.Query.Params.Threshold = math.Max(0, math.Min(1, cutoff))
	return d, nil
}

func cell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
