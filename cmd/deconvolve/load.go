package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/carbocation/deconv"
	"github.com/carbocation/deconv/expression"
	"github.com/carbocation/deconv/param"
)

type inputPaths struct {
	Bulk                 string
	BulkAnnotation       string
	SingleCell           string
	SingleCellAnnotation string
	Reference            string
	Independent          string
	ScaleFactors         string
}

func (p inputPaths) hasGoogleStorage() bool {
	for _, path := range []string{p.Bulk, p.BulkAnnotation, p.SingleCell, p.SingleCellAnnotation, p.Reference, p.Independent, p.ScaleFactors} {
		if strings.HasPrefix(path, "gs://") {
			return true
		}
	}

	return false
}

// loader opens every input through deconv.Open, so each table may be local
// or on Google Storage and compressed or not.
type loader struct {
	ctx      context.Context
	client   *storage.Client
	idColumn string
}

func (l *loader) open(path string) (*deconv.Source, error) {
	src, err := deconv.Open(l.ctx, path, l.client)
	if err != nil {
		return nil, err
	}
	log.Printf("Opened %s (%s, delimiter %q)\n", path, src.DataType, src.Delimiter)

	return src, nil
}

func (l *loader) matrix(path string) (*expression.Matrix, error) {
	src, err := l.open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	m, err := expression.ReadMatrix(src, src.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	features, samples := m.Dims()
	log.Printf("%s: %d features x %d columns\n", path, features, samples)

	return m, nil
}

func (l *loader) annotation(path string) (*expression.Annotation, error) {
	src, err := l.open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ann, err := expression.ReadAnnotation(src, src.Delimiter, l.idColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return ann, nil
}

func (l *loader) features(path string) ([]string, error) {
	src, err := l.open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return expression.ReadFeatureList(src, src.Delimiter)
}

func (l *loader) scaleFactors(path string) (*param.ScaleFactors, error) {
	src, err := l.open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return param.ReadScaleFactors(src, src.Delimiter)
}

// inputs reads every table named in paths. Metadata tables are restricted
// to the samples of their expression table, in its column order.
func (l *loader) inputs(paths inputPaths, assay string) (param.Inputs, error) {
	var in param.Inputs

	bulk, err := l.matrix(paths.Bulk)
	if err != nil {
		return in, err
	}
	if paths.BulkAnnotation == "" {
		in.Bulk = &expression.RawMatrix{Matrix: bulk}
	} else {
		ann, err := l.alignedAnnotation(paths.BulkAnnotation, bulk)
		if err != nil {
			return in, err
		}
		in.Bulk = &expression.AnnotatedContainer{Exprs: bulk, Pheno: ann}
	}

	sc, err := l.matrix(paths.SingleCell)
	if err != nil {
		return in, err
	}
	scAnn, err := l.alignedAnnotation(paths.SingleCellAnnotation, sc)
	if err != nil {
		return in, err
	}
	in.SingleCell = &expression.SingleCellContainer{
		Assays:  map[string]*expression.Matrix{assay: sc},
		ColData: scAnn,
	}

	if paths.Reference != "" {
		if in.Reference, err = l.matrix(paths.Reference); err != nil {
			return in, err
		}
	}

	if paths.Independent != "" {
		if in.IndependentBulk, err = l.matrix(paths.Independent); err != nil {
			return in, err
		}
	}

	if paths.ScaleFactors != "" {
		if in.ScaleFactors, err = l.scaleFactors(paths.ScaleFactors); err != nil {
			return in, err
		}
	}

	return in, nil
}

func (l *loader) alignedAnnotation(path string, m *expression.Matrix) (*expression.Annotation, error) {
	ann, err := l.annotation(path)
	if err != nil {
		return nil, err
	}

	aligned, err := ann.Subset(m.Cols())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return aligned, nil
}
