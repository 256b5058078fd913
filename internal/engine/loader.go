package engine

import (
	"bytes"
	"cardash/internal/logger"
	"cardash/internal/models"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"
)

var ErrNoHeader = errors.New("table has no header row")

// DecodeOptions controls how a source table is read.
type DecodeOptions struct {
	// Delimiter for text tables. 0 sniffs ',', ';' or tab from the header line.
	Delimiter rune
	// Sheet to read from a workbook. Empty means the first sheet.
	Sheet string
}

// Source produces the records of one table load.
type Source interface {
	Records(ctx context.Context) ([]models.Record, error)
}

// FileSource reads a table from disk. ".xlsx" files are read as workbooks,
// everything else as delimited text.
type FileSource struct {
	Path    string
	Options DecodeOptions
}

func (s FileSource) Records(ctx context.Context) ([]models.Record, error) {
	start := time.Now()

	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}

	opt := s.Options
	var records []models.Record
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".xlsx":
		records, err = DecodeXLSX(ctx, bytes.NewReader(content), opt)
	case ".tsv":
		opt.Delimiter = '\t'
		records, err = DecodeCSV(ctx, bytes.NewReader(content), opt)
	default:
		records, err = DecodeCSV(ctx, bytes.NewReader(content), opt)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}

	logger.Debug("Decoded %s rows from %s (%s) in %v",
		humanize.Comma(int64(len(records))), s.Path, humanize.Bytes(uint64(len(content))), time.Since(start))
	return records, nil
}

// DecodeCSV reads a delimited table with a header row.
func DecodeCSV(ctx context.Context, r io.Reader, opt DecodeOptions) ([]models.Record, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content = bytes.TrimPrefix(content, []byte("\ufeff"))

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(content)
	}

	cr := csv.NewReader(bytes.NewReader(content))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := fieldNames(header)

	records := make([]models.Record, 0)
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		records = append(records, newRecord(names, fields))
	}
	return records, nil
}

// DecodeXLSX reads the first (or the named) sheet of a workbook; the first
// row is the header.
func DecodeXLSX(ctx context.Context, r io.Reader, opt DecodeOptions) ([]models.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoHeader
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	names := fieldNames(rows[0])
	records := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlank(row) {
			continue
		}
		records = append(records, newRecord(names, row))
	}
	return records, nil
}

func newRecord(names, fields []string) models.Record {
	rec := make(models.Record, len(names))
	for i, name := range names {
		if i >= len(fields) {
			break
		}
		if v := InferValue(fields[i]); v != nil {
			rec[name] = v
		}
	}
	return rec
}

// fieldNames trims header cells; blank or repeated names become column_<n>.
func fieldNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" || seen[name] {
			name = "column_" + strconv.Itoa(i+1)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks the most frequent of ',', ';' and tab in the first line.
func sniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexByte(content, '\n'); i != -1 {
		line = content[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// --- TYPE INFERENCE ---

var (
	currencyPrefix = regexp.MustCompile(`^[$€£]\s*`)
	unitSuffix     = regexp.MustCompile(`(?i)\s*(usd|eur|gbp|miles|mpg|km|mi|kg|lbs|lb|[$€£])$`)
	numberPattern  = regexp.MustCompile(`^[-+]?(?:(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?$`)
)

// InferValue types one raw cell: "" is absent (nil), a finite number (with an
// optional currency sign, unit suffix and thousands commas) is a float64, and
// anything else is the trimmed string.
func InferValue(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if f, ok := parseNumber(s); ok {
		return f
	}
	return s
}

func parseNumber(s string) (float64, bool) {
	n := currencyPrefix.ReplaceAllString(s, "")
	n = unitSuffix.ReplaceAllString(n, "")
	if !numberPattern.MatchString(n) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
