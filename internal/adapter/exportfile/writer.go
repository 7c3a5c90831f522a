package exportfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Writer emits a station export in the source dialect: ";" separated,
// CRLF line endings, Latin-1 by default. The fixture generator writes
// through it so generated files exercise the same decoder path as real
// exports.
type Writer struct {
	csv   *csv.Writer
	enc   io.WriteCloser
	plain bool
}

// NewWriter wraps dst. Encoding takes the reader's constants; empty means
// Latin-1.
func NewWriter(dst io.Writer, encoding string) *Writer {
	w := &Writer{}
	if encoding == EncodingUTF8 {
		w.plain = true
		w.csv = csv.NewWriter(dst)
	} else {
		w.enc = transform.NewWriter(dst, charmap.ISO8859_1.NewEncoder())
		w.csv = csv.NewWriter(w.enc)
	}
	w.csv.Comma = ';'
	w.csv.UseCRLF = true
	return w
}

// Write emits one record.
func (w *Writer) Write(fields []string) error {
	return w.csv.Write(fields)
}

// Close flushes buffered records and the charset encoder.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	if w.plain {
		return nil
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}
	return nil
}

// FormatNumber renders a float the way stations do: fixed decimals with a
// decimal comma.
func FormatNumber(v float64, decimals int) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', decimals, 64), ".", ",")
}
