package expression_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carbocation/deconv/expression"
)

func TestReadMatrix(t *testing.T) {
	in := "gene\ts1\ts2\ng1\t1\t2\ng2\t3.5\t4\n"
	m, err := expression.ReadMatrix(strings.NewReader(in), '\t')
	require.NoError(t, err)
	require.Equal(t, []string{"g1", "g2"}, m.Rows())
	require.Equal(t, []string{"s1", "s2"}, m.Cols())
	require.Equal(t, 3.5, m.At(1, 0))
}

func TestReadMatrixRStyleHeader(t *testing.T) {
	in := "s1,s2\ng1,1,2\n"
	m, err := expression.ReadMatrix(strings.NewReader(in), ',')
	require.NoError(t, err)
	require.Equal(t, []string{"s1", "s2"}, m.Cols())
}

func TestReadMatrixGCT(t *testing.T) {
	in := "#1.2\n2\t2\nName\tDescription\ts1\ts2\nENSG1.1\tA1BG\t5\t6\nENSG2.3\tA2M\t7\t8\n"
	m, err := expression.ReadMatrix(strings.NewReader(in), '\t')
	require.NoError(t, err)
	require.Equal(t, []string{"ENSG1.1", "ENSG2.3"}, m.Rows())
	require.Equal(t, []string{"s1", "s2"}, m.Cols())
	require.Equal(t, 8.0, m.At(1, 1))
}

func TestReadMatrixBadValue(t *testing.T) {
	_, err := expression.ReadMatrix(strings.NewReader("gene\ts1\ng1\tNA-ish\n"), '\t')
	require.Error(t, err)
}

func TestReadAnnotation(t *testing.T) {
	in := "batch.id\tcell\tcelltype\nA\tc1\tT\nB\tc2\tB\n"
	ann, err := expression.ReadAnnotation(strings.NewReader(in), '\t', "cell")
	require.NoError(t, err)
	require.Equal(t, []string{"c1", "c2"}, ann.Samples())
	require.Equal(t, []string{"batch.id", "celltype"}, ann.Keys())

	v, ok := ann.Value("c2", "celltype")
	require.True(t, ok)
	require.Equal(t, "B", v)

	_, err = expression.ReadAnnotation(strings.NewReader(in), '\t', "missing")
	require.Error(t, err)
}

func TestReadFeatureList(t *testing.T) {
	genes, err := expression.ReadFeatureList(strings.NewReader("gene\nCD3E\n\nMS4A1\n"), '\t')
	require.NoError(t, err)
	require.Equal(t, []string{"CD3E", "MS4A1"}, genes)
}
