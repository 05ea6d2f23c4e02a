// Package batch reconciles the batch ids found in bulk and single-cell
// metadata. Which bulk samples share a batch with the single-cell reference
// decides whether they can be decomposed with overlap-aware correction or
// must be held out as independent samples.
package batch

import (
	"fmt"
	"sort"

	"github.com/carbocation/deconv"
	"github.com/carbocation/deconv/expression"
)

// Partition is the set relationship between bulk and single-cell batch ids.
// Every slice is sorted. OnlyBulk ∪ Overlap is exactly the bulk batch ids.
type Partition struct {
	Overlap  []string
	OnlyBulk []string
	OnlySC   []string
	Unique   []string // union of both sides
}

func (p Partition) String() string {
	return fmt.Sprintf("%d shared, %d bulk-only, %d single-cell-only batch ids", len(p.Overlap), len(p.OnlyBulk), len(p.OnlySC))
}

// IDs returns the distinct batch ids in c under key, sorted.
func IDs(c *expression.Container, key string) ([]string, error) {
	if !c.HasKey(key) {
		return nil, fmt.Errorf("%w: batch key %q is not in the sample metadata", deconv.ErrMissingAnnotationKey, key)
	}

	ann := c.Annotation()
	ids, _ := ann.Distinct(key)

	return ids, nil
}

// Reconcile computes the partition between the batch ids of bulk (under
// key) and scIDs. An empty overlap is an error: reference-based
// decomposition needs at least one batch seen by both sides.
func Reconcile(key string, bulk *expression.Container, scIDs []string) (Partition, error) {
	bulkIDs, err := IDs(bulk, key)
	if err != nil {
		return Partition{}, err
	}

	sc := toSet(scIDs)
	b := toSet(bulkIDs)

	p := Partition{
		Overlap:  make([]string, 0),
		OnlyBulk: make([]string, 0),
		OnlySC:   make([]string, 0),
	}
	for id := range b {
		if _, exists := sc[id]; exists {
			p.Overlap = append(p.Overlap, id)
		} else {
			p.OnlyBulk = append(p.OnlyBulk, id)
		}
	}
	for id := range sc {
		if _, exists := b[id]; !exists {
			p.OnlySC = append(p.OnlySC, id)
		}
	}
	p.Unique = append(append(append(make([]string, 0, len(b)+len(p.OnlySC)), p.Overlap...), p.OnlyBulk...), p.OnlySC...)

	sort.Strings(p.Overlap)
	sort.Strings(p.OnlyBulk)
	sort.Strings(p.OnlySC)
	sort.Strings(p.Unique)

	if len(p.Overlap) == 0 {
		return p, fmt.Errorf("%w: bulk has %v, single-cell has %v", deconv.ErrEmptyOverlap, p.OnlyBulk, p.OnlySC)
	}

	return p, nil
}

// Samples returns the samples of c, in column order, whose batch id under
// key is one of ids.
func Samples(c *expression.Container, key string, ids []string) ([]string, error) {
	batches, err := c.Column(key)
	if err != nil {
		return nil, err
	}

	want := toSet(ids)
	samples := c.Samples()
	out := make([]string, 0)
	for j, id := range batches {
		if _, exists := want[id]; exists {
			out = append(out, samples[j])
		}
	}

	return out, nil
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}

	return out
}
