package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dvloznov/finsight/internal/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxBytes is the largest accepted upload.
const DefaultMaxBytes = 10 << 20

// Table is a decoded delimited table.
type Table struct {
	Header   []string
	Rows     [][]string
	Encoding string
}

// fallbackEncodings are tried in order when the payload is not valid UTF-8.
var fallbackEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"iso-8859-1", charmap.ISO8859_1},
	{"iso-8859-15", charmap.ISO8859_15},
	{"windows-1252", charmap.Windows1252},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable reads and decodes a delimited table of at most maxBytes.
func ReadTable(r io.Reader, maxBytes int64) (*Table, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	raw, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ReadTable: reading payload: %w", err)
	}
	if int64(len(raw)) > maxBytes {
		return nil, domain.NewValidationError(domain.ErrFileTooLarge, "limit is %d bytes", maxBytes)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewValidationError(domain.ErrEmptyUpload, "no data")
	}

	text, encName, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	records, err := parseRecords(text)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.NewValidationError(domain.ErrEmptyUpload, "no header row")
	}

	return &Table{
		Header:   records[0],
		Rows:     records[1:],
		Encoding: encName,
	}, nil
}

// decodeText returns raw as UTF-8 text, trying UTF-8 first and then the
// single-byte fallbacks. A decoding is rejected if it yields control characters.
func decodeText(raw []byte) (string, string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) && !hasControlChars(string(raw)) {
		return string(raw), "utf-8", nil
	}

	for _, fb := range fallbackEncodings {
		decoded, err := fb.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		if hasControlChars(string(decoded)) {
			continue
		}
		return string(decoded), fb.name, nil
	}

	return "", "", domain.NewValidationError(domain.ErrUnsupportedEncoding, "tried utf-8, iso-8859-1, iso-8859-15, windows-1252")
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

func parseRecords(text string) ([][]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = sniffDelimiter(text)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewValidationError(domain.ErrUnparseableTable, "%v", err)
		}
		if isBlankRecord(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// sniffDelimiter picks the most frequent candidate delimiter on the header line.
func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		line = text[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
