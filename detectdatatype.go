package deconv

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}

	return "invalid"
}

// Fixed-prefix signatures, checked in this order. zlib has no fixed
// prefix; see isZlib.
var byteCodeSigs = []struct {
	dt  DataType
	sig []byte
}{
	{DataTypeGzip, []byte{0x1f, 0x8b, 0x08}},
	{DataTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{DataTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{DataTypeBZip2, []byte{0x42, 0x5a, 0x68}},
}

// DetectDataType peeks at the head of the stream and reports which known
// compression signature, if any, it carries. Nothing is consumed from br.
// Byte code signatures from https://stackoverflow.com/a/19127748/199475
func DetectDataType(br *bufio.Reader) (DataType, error) {
	head, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return DataTypeInvalid, err
	}
	if len(head) == 0 {
		return DataTypeInvalid, io.ErrUnexpectedEOF
	}

	for _, candidate := range byteCodeSigs {
		if bytes.HasPrefix(head, candidate.sig) {
			return candidate.dt, nil
		}
	}

	if isZlib(head) {
		return DataTypeZ, nil
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompress wraps br in the decompressor matching its signature. An
// unrecognized signature is assumed to be plain text.
func MaybeDecompress(br *bufio.Reader) (io.Reader, DataType, error) {
	dt, err := DetectDataType(br)
	if err != nil {
		return nil, dt, err
	}

	switch dt {
	case DataTypeGzip:
		r, err := gzip.NewReader(br)
		return r, dt, err
	case DataTypeZip:
		// Only the first archive member is read.
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, dt, err
		}
		return zr, dt, nil
	case DataTypeBZip2:
		return bzip2.NewReader(br), dt, nil
	case DataTypeXZ:
		r, err := xz.NewReader(br, 0)
		return r, dt, err
	case DataTypeZ:
		r, err := zlib.NewReader(br)
		return r, dt, err
	}

	return br, dt, nil
}

// isZlib checks the RFC 1950 header: deflate with a 32K window (CMF 0x78),
// no preset dictionary, and a check value making CMF<<8|FLG a multiple of
// 31.
func isZlib(head []byte) bool {
	if len(head) < 2 || head[0] != 0x78 {
		return false
	}
	if head[1]&0x20 != 0 {
		return false
	}

	return (uint16(head[0])<<8|uint16(head[1]))%31 == 0
}
