package deconv

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const table = "gene\ts1\ts2\ng1\t1\t2\ng2\t3\t4\n"

func gzipped(t *testing.T, s string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zlibbed(t *testing.T, s string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetectDataType(t *testing.T) {
	for name, c := range map[string]struct {
		in   []byte
		want DataType
	}{
		"plain": {[]byte(table), DataTypeNoCompression},
		"gzip":  {gzipped(t, table), DataTypeGzip},
		"zip":   {[]byte{0x50, 0x4b, 0x03, 0x04, 0, 0}, DataTypeZip},
		"bzip2": {[]byte("BZh91AY"), DataTypeBZip2},
		"xz":    {[]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00}, DataTypeXZ},
		"zlib":  {zlibbed(t, table), DataTypeZ},
		"lzw":   {[]byte{0x1f, 0x9d, 0x90, 0x67}, DataTypeNoCompression},
		"x col": {[]byte("x\ty\n1\t2\n"), DataTypeNoCompression},
	} {
		t.Run(name, func(t *testing.T) {
			br := bufio.NewReader(bytes.NewReader(c.in))
			dt, err := DetectDataType(br)
			require.NoError(t, err)
			require.Equal(t, c.want, dt, dt.String())

			// Nothing consumed
			require.Equal(t, len(c.in), br.Buffered())
		})
	}
}

func TestDetectDataTypeEmpty(t *testing.T) {
	_, err := DetectDataType(bufio.NewReader(strings.NewReader("")))
	require.Error(t, err)
}

func TestMaybeDecompressGzip(t *testing.T) {
	r, dt, err := MaybeDecompress(bufio.NewReader(bytes.NewReader(gzipped(t, table))))
	require.NoError(t, err)
	require.Equal(t, DataTypeGzip, dt)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, table, string(out))
}

func TestPeekDelimiter(t *testing.T) {
	for name, c := range map[string]struct {
		in   string
		want rune
	}{
		"tab":   {table, '\t'},
		"comma": {"gene,s1,s2\ng1,1,2\ng2,3,4\ng3,5,6\n", ','},
		"gct":   {"#1.2\n2\t2\nName\tDescription\ts1\ts2\n", '\t'},
		"empty": {"", '\t'},
	} {
		t.Run(name, func(t *testing.T) {
			br := bufio.NewReader(strings.NewReader(c.in))
			require.Equal(t, c.want, PeekDelimiter(br))
			require.Equal(t, len(c.in), br.Buffered())
		})
	}
}

func TestOpenGzipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulk.tsv.gz")
	require.NoError(t, os.WriteFile(path, gzipped(t, table), 0o644))

	src, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, DataTypeGzip, src.DataType)
	require.Equal(t, '\t', src.Delimiter)

	out, err := io.ReadAll(src)
	require.NoError(t, err)
	require.Equal(t, table, string(out))
}

func TestOpenZlibFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulk.tsv.zz")
	require.NoError(t, os.WriteFile(path, zlibbed(t, table), 0o644))

	src, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, DataTypeZ, src.DataType)
	require.Equal(t, '\t', src.Delimiter)

	out, err := io.ReadAll(src)
	require.NoError(t, err)
	require.Equal(t, table, string(out))
}

func TestOpenGoogleStorageNeedsClient(t *testing.T) {
	_, err := Open(context.Background(), "gs://bucket/bulk.tsv", nil)
	require.Error(t, err)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "absent.tsv"), nil)
	require.Error(t, err)
}
