package deconv

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// BufferSize is the read buffer placed in front of every opened table. It
// must be at least SniffBytes so the delimiter can be peeked.
var BufferSize = 2 * SniffBytes

// Source is an opened, decompressed table with its detected delimiter.
type Source struct {
	Path      string
	Delimiter rune
	DataType  DataType

	r       io.Reader
	closers []io.Closer
}

func (s *Source) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Close releases the decompressor (if any) and then the underlying file or
// object reader.
func (s *Source) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// Open opens a local path, a ~/ path, or a gs://bucket/object path (client
// must be non-nil for the latter), transparently decompresses it, and sniffs
// its delimiter.
func Open(ctx context.Context, path string, client *storage.Client) (*Source, error) {
	raw, err := openRaw(ctx, path, client)
	if err != nil {
		return nil, err
	}

	src := &Source{Path: path, closers: []io.Closer{raw}}

	decompressed, dt, err := MaybeDecompress(bufio.NewReaderSize(raw, BufferSize))
	if err != nil {
		src.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	src.DataType = dt
	if c, ok := decompressed.(io.Closer); ok {
		src.closers = append(src.closers, c)
	}

	br := bufio.NewReaderSize(decompressed, BufferSize)
	src.Delimiter = PeekDelimiter(br)
	src.r = br

	return src, nil
}

func openRaw(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "gs://") {
		if client == nil {
			return nil, fmt.Errorf("%s: a Google Storage client is required for gs:// paths", path)
		}

		// Detect the bucket and the path to the actual file
		pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
		if len(pathParts) != 2 {
			return nil, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
		}

		rdr, err := client.Bucket(pathParts[0]).Object(pathParts[1]).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return rdr, nil
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return f, nil
}
