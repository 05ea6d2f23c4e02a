package deconv

import (
	"bufio"
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// SniffBytes is how much of a decompressed stream is inspected when guessing
// its delimiter.
const SniffBytes = 64 * 1024

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// PeekDelimiter guesses the delimiter from the buffered head of br without
// consuming it. Tab wins whenever one of the first three lines contains one.
func PeekDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(SniffBytes)
	if len(head) == 0 {
		return '\t'
	}

	rest := head
	for line := 0; line < 3 && len(rest) > 0; line++ {
		current := rest
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			current, rest = rest[:i], rest[i+1:]
		} else {
			rest = nil
		}
		if bytes.IndexByte(current, '\t') >= 0 {
			return '\t'
		}
	}

	return DetermineDelimiter(bytes.NewReader(head))
}
