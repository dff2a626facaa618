// Package ingest loads candidate business records from tabular sources.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amosroger91/prospector/internal/domain/model"
)

// Sentinel errors for callers to branch on.
var (
	ErrMissingHeader = errors.New("missing required column")
	ErrEmptyFile     = errors.New("empty candidate file")
)

// LoadCSV reads candidates from a CSV file with a header row containing
// name, address, phone and website columns (case-insensitive, any
// order). Rows without a business name are dropped: a nameless record
// can neither be filtered nor reported meaningfully.
func LoadCSV(path string) ([]model.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candidate file: %w", err)
	}
	defer f.Close()
	return ReadCandidates(f)
}

// ReadCandidates parses CSV candidate records from r.
func ReadCandidates(r io.Reader) ([]model.Candidate, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameIdx, ok := cols["name"]
	if !ok {
		return nil, fmt.Errorf("%w: name", ErrMissingHeader)
	}

	field := func(row []string, col string) string {
		idx, ok := cols[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var candidates []model.Candidate
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if nameIdx >= len(row) || strings.TrimSpace(row[nameIdx]) == "" {
			continue
		}
		candidates = append(candidates, model.Candidate{
			Name:    strings.TrimSpace(row[nameIdx]),
			Address: field(row, "address"),
			Phone:   field(row, "phone"),
			Website: field(row, "website"),
		})
	}
	return candidates, nil
}
