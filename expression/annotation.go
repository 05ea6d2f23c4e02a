package expression

import (
	"fmt"
	"sort"
)

// Annotation is a per-sample table of categorical values, e.g. a batch id
// and (for single-cell data) a cell-type label. Rows are samples, in the
// order they were added; columns are named fields.
type Annotation struct {
	samples []string
	idx     map[string]int
	fields  map[string][]string
	order   []string
}

// NewAnnotation creates an empty table over the given sample ids.
func NewAnnotation(samples []string) (*Annotation, error) {
	idx, err := index(samples, "annotation sample")
	if err != nil {
		return nil, err
	}

	return &Annotation{
		samples: append([]string(nil), samples...),
		idx:     idx,
		fields:  make(map[string][]string),
	}, nil
}

// Set adds or replaces a column. values is parallel to Samples().
func (a *Annotation) Set(key string, values []string) error {
	if len(values) != len(a.samples) {
		return fmt.Errorf("annotation column %q has %d values for %d samples", key, len(values), len(a.samples))
	}
	if _, exists := a.fields[key]; !exists {
		a.order = append(a.order, key)
	}
	a.fields[key] = append([]string(nil), values...)

	return nil
}

func (a *Annotation) Samples() []string {
	return append([]string(nil), a.samples...)
}

// Keys returns column names in insertion order.
func (a *Annotation) Keys() []string {
	return append([]string(nil), a.order...)
}

func (a *Annotation) Has(key string) bool {
	_, exists := a.fields[key]
	return exists
}

// Value looks up one cell. ok is false if either the sample or the key is
// unknown.
func (a *Annotation) Value(sample, key string) (value string, ok bool) {
	col, exists := a.fields[key]
	if !exists {
		return "", false
	}
	i, exists := a.idx[sample]
	if !exists {
		return "", false
	}

	return col[i], true
}

// Column returns a copy of the column, parallel to Samples().
func (a *Annotation) Column(key string) ([]string, bool) {
	col, exists := a.fields[key]
	if !exists {
		return nil, false
	}

	return append([]string(nil), col...), true
}

// Distinct returns the sorted set of values in a column.
func (a *Annotation) Distinct(key string) ([]string, bool) {
	col, exists := a.fields[key]
	if !exists {
		return nil, false
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, v := range col {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)

	return out, true
}

// Subset returns a copy restricted to (and ordered by) the given samples.
func (a *Annotation) Subset(samples []string) (*Annotation, error) {
	out, err := NewAnnotation(samples)
	if err != nil {
		return nil, err
	}

	rows := make([]int, len(samples))
	for k, sample := range samples {
		i, exists := a.idx[sample]
		if !exists {
			return nil, fmt.Errorf("sample %q has no annotation row", sample)
		}
		rows[k] = i
	}

	for _, key := range a.order {
		src := a.fields[key]
		values := make([]string, len(samples))
		for k, i := range rows {
			values[k] = src[i]
		}
		out.order = append(out.order, key)
		out.fields[key] = values
	}

	return out, nil
}

// Clone returns a deep copy.
func (a *Annotation) Clone() *Annotation {
	out, _ := a.Subset(a.samples)
	return out
}
