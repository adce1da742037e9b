package source

// reader.go turns a raw byte stream into catalog text.
//
// Upstream CSV exports often come from spreadsheet tools that prepend a UTF-8
// BOM or contain stray Latin-1 bytes. Both are cleaned here so the tokenizer
// only ever sees valid UTF-8:
//
//   - bomReader drops a leading 0xEF 0xBB 0xBF
//   - ReadText enforces the size cap and replaces invalid sequences with U+FFFD

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrTooLarge is returned when a catalog payload exceeds the configured cap.
var ErrTooLarge = errors.New("catalog payload too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomReader wraps an io.Reader and skips the UTF-8 BOM if present.
type bomReader struct {
	br      *bufio.Reader
	checked bool
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader. The first call peeks at the head of the stream
// and discards the BOM; a partial BOM is passed through untouched.
func (r *bomReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		if head, _ := r.br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// ReadText reads r to the end and returns its contents as valid UTF-8 with any
// leading BOM removed. A maxBytes of zero or less disables the size check.
func ReadText(r io.Reader, maxBytes int64) (string, error) {
	var src io.Reader = newBOMReader(r)
	if maxBytes > 0 {
		src = io.LimitReader(src, maxBytes+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read catalog: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, maxBytes)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
}

// cappedBuffer is a bytes.Buffer that refuses writes past max bytes.
// Used where the producer pushes data at us (COPY TO) instead of being read.
type cappedBuffer struct {
	bytes.Buffer
	max int64
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.max > 0 && int64(b.Len()+len(p)) > b.max {
		return 0, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, b.max)
	}
	return b.Buffer.Write(p)
}
