package main

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/aybabtme/uniplot/histogram"

	"github.com/carbocation/deconv/decompose"
	"github.com/carbocation/deconv/expression"
)

// writeOutcome writes the proportions table to out. Samples that were only
// added as synthetic replicates are left out. Detailed outcomes also send
// their metadata and an R-squared histogram to info.
func writeOutcome(out, info io.Writer, outcome decompose.Outcome, p *decompose.Parameters) error {
	duplicated := expression.DuplicatedSamples(p.BulkContainer())

	switch v := outcome.(type) {
	case decompose.Proportions:
		return v.Without(duplicated).Write(out, '\t')

	case *decompose.Detailed:
		if err := v.Proportions.Without(duplicated).Write(out, '\t'); err != nil {
			return err
		}
		if err := v.Metadata.Write(info, '\t'); err != nil {
			return err
		}
		return writeRSquared(info, v.Raw.RSquared)
	}

	return fmt.Errorf("unexpected outcome type %T", outcome)
}

func writeRSquared(w io.Writer, rsquared map[string]float64) error {
	if len(rsquared) == 0 {
		log.Println("The decomposition reported no per-sample R-squared values")
		return nil
	}

	samples := make([]string, 0, len(rsquared))
	for s := range rsquared {
		samples = append(samples, s)
	}
	sort.Strings(samples)

	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		values = append(values, rsquared[s])
	}

	fmt.Fprintf(w, "Per-sample R-squared (%d samples):\n", len(values))
	hist := histogram.Hist(25, values)

	return histogram.Fprint(w, hist, histogram.Linear(5))
}
