package expression

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// ReadMatrix parses a features × samples table. The header row holds the
// sample labels after an optional leading feature-column name (R-style
// tables that omit it are accepted); every later row is a feature label
// followed by one value per sample.
//
// GCT 1.2 files are recognized by their "#1.2" first line: the dimension
// line is skipped and the Description column is dropped.
func ReadMatrix(r io.Reader, delim rune) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("Header parsing error: %v", err))
	}

	// Number of leading label columns on each data row
	labelCols := 1

	if len(header) > 0 && strings.HasPrefix(strings.TrimSpace(header[0]), "#1.") {
		// GCT: dimension line, then Name/Description/samples
		if _, err := cr.Read(); err != nil {
			return nil, pfx.Err(fmt.Errorf("GCT dimension line: %v", err))
		}
		if header, err = cr.Read(); err != nil {
			return nil, pfx.Err(fmt.Errorf("GCT header line: %v", err))
		}
		if len(header) < 3 {
			return nil, fmt.Errorf("invalid GCT header: expected Name, Description and at least one sample, got %d fields", len(header))
		}
		labelCols = 2
	}

	var (
		features []string
		values   []float64
		samples  []string
	)

	for i := 0; ; i++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		if samples == nil {
			// Decide the header layout from the first data row
			switch len(row) - labelCols {
			case len(header) - labelCols:
				samples = header[labelCols:]
			case len(header):
				samples = header
			default:
				return nil, fmt.Errorf("data row 1 has %d fields but the header has %d", len(row), len(header))
			}
			if len(samples) == 0 {
				return nil, fmt.Errorf("the header names no samples")
			}
		}

		if len(row) != len(samples)+labelCols {
			return nil, fmt.Errorf("data row %d (%s) has %d fields, expected %d", i+1, row[0], len(row), len(samples)+labelCols)
		}

		features = append(features, row[0])
		for j, field := range row[labelCols:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("feature %s, sample %s: %w", row[0], samples[j], err)
			}
			values = append(values, v)
		}
	}

	if len(features) == 0 {
		return nil, fmt.Errorf("the table has a header but no data rows")
	}

	return NewMatrix(features, samples, values)
}

// ReadAnnotation parses a sample metadata table with a header row. The
// sample id is taken from the column named idColumn, or from the first
// column when idColumn is empty. Every other column becomes an annotation
// field keyed by its header name.
func ReadAnnotation(r io.Reader, delim rune, idColumn string) (*Annotation, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("annotation table needs a header and at least one row, got %d rows", len(records))
	}

	header := records[0]
	idCol := 0
	if idColumn != "" {
		idCol = -1
		for k, name := range header {
			if name == idColumn {
				idCol = k
				break
			}
		}
		if idCol < 0 {
			return nil, fmt.Errorf("annotation table has no %q column (have: %v)", idColumn, header)
		}
	}

	samples := make([]string, 0, len(records)-1)
	for _, row := range records[1:] {
		samples = append(samples, row[idCol])
	}

	ann, err := NewAnnotation(samples)
	if err != nil {
		return nil, err
	}

	for k, name := range header {
		if k == idCol {
			continue
		}
		col := make([]string, 0, len(samples))
		for _, row := range records[1:] {
			col = append(col, row[k])
		}
		if err := ann.Set(name, col); err != nil {
			return nil, err
		}
	}

	return ann, nil
}

// ReadFeatureList reads one feature label per line (first field of each
// row), skipping blanks and a header named "gene" or "feature".
func ReadFeatureList(r io.Reader, delim rune) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	out := make([]string, 0)
	for i := 0; ; i++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}
		if len(row) == 0 {
			continue
		}
		label := strings.TrimSpace(row[0])
		if label == "" {
			continue
		}
		if i == 0 && (strings.EqualFold(label, "gene") || strings.EqualFold(label, "feature")) {
			continue
		}
		out = append(out, label)
	}

	return out, nil
}
