package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carbocation/deconv/decompose"
	"github.com/carbocation/deconv/param"
)

// Single-cell X cells express (10,2,5,1) and Y cells (1,8,5,3). Bulk s1 is
// mixed like batch B (1/4 X), s2 like batch C (1/2 X) and s3 is 90% X.
var fixtures = map[string]string{
	"bulk.tsv.gz": "gene\ts1\ts2\ts3\n" +
		"g1\t3.25\t5.5\t9.1\n" +
		"g2\t6.5\t5\t2.6\n" +
		"g3\t5\t5\t5\n" +
		"g4\t2.5\t2\t1.2\n",
	"bulk_pheno.tsv": "sample\tbatch.id\n" +
		"s3\tA\n" +
		"s1\tB\n" +
		"s2\tC\n",
	"sc.tsv": "gene\tb1\tb2\tb3\tb4\tc1\tc2\n" +
		"g1\t10\t1\t1\t1\t10\t1\n" +
		"g2\t2\t8\t8\t8\t2\t8\n" +
		"g3\t5\t5\t5\t5\t5\t5\n" +
		"g4\t1\t3\t3\t3\t1\t3\n",
	"sc_pheno.tsv": "cell\tbatch.id\tcelltype\n" +
		"b1\tB\tX\n" +
		"b2\tB\tY\n" +
		"b3\tB\tY\n" +
		"b4\tB\tY\n" +
		"c1\tC\tX\n" +
		"c2\tC\tY\n",
}

func writeFixtures(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range fixtures {
		data := []byte(content)
		if strings.HasSuffix(name, ".gz") {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, err := zw.Write(data)
			require.NoError(t, err)
			require.NoError(t, zw.Close())
			data = buf.Bytes()
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	return dir
}

func TestLoadAndDeconvolve(t *testing.T) {
	dir := writeFixtures(t)
	paths := inputPaths{
		Bulk:                 filepath.Join(dir, "bulk.tsv.gz"),
		BulkAnnotation:       filepath.Join(dir, "bulk_pheno.tsv"),
		SingleCell:           filepath.Join(dir, "sc.tsv"),
		SingleCellAnnotation: filepath.Join(dir, "sc_pheno.tsv"),
	}
	require.False(t, paths.hasGoogleStorage())

	l := &loader{ctx: context.Background()}
	in, err := l.inputs(paths, param.DefaultAssay)
	require.NoError(t, err)

	opts := param.DefaultOptions()
	opts.UseOverlap = true
	opts.ReturnInfo = true
	p, err := decompose.NewParameters(in, opts, nil)
	require.NoError(t, err)

	outcome, err := decompose.Deconvolve(p)
	require.NoError(t, err)

	var out, info bytes.Buffer
	require.NoError(t, writeOutcome(&out, &info, outcome, p))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "sample\tX\tY", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "s1\t0.25"), lines[1])

	require.Contains(t, info.String(), "overlap_batches\tB,C")
	require.Contains(t, info.String(), "Per-sample R-squared (3 samples)")
}

func TestLoadRejectsUnannotatedCells(t *testing.T) {
	dir := writeFixtures(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sc_pheno.tsv"), []byte("cell\tbatch.id\tcelltype\nb1\tB\tX\n"), 0o644))

	l := &loader{ctx: context.Background()}
	_, err := l.inputs(inputPaths{
		Bulk:                 filepath.Join(dir, "bulk.tsv.gz"),
		SingleCell:           filepath.Join(dir, "sc.tsv"),
		SingleCellAnnotation: filepath.Join(dir, "sc_pheno.tsv"),
	}, param.DefaultAssay)
	require.Error(t, err)
}

func TestHasGoogleStorage(t *testing.T) {
	require.True(t, inputPaths{Bulk: "local.tsv", Reference: "gs://bucket/ref.tsv"}.hasGoogleStorage())
}
