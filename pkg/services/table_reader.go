package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"bizinsight-api/pkg/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidate CSV delimiters in tie-break order
var csvDelimiters = []rune{',', ';', '\t', '|'}

// TableReader decodes uploaded CSV and XLSX files into a header plus raw rows.
type TableReader struct{}

func NewTableReader() *TableReader {
	return &TableReader{}
}

// Read dispatches on the file extension. CSV input may be UTF-8 (with or without BOM) or Latin-1.
func (tr *TableReader) Read(fileName string, src io.Reader) (*models.Table, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".xlsx", ".xlsm":
		return tr.readXLSX(src)
	case ".csv", ".tsv", ".txt":
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return tr.ReadCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q, upload a .csv or .xlsx file", models.ErrUnsupportedFile, ext)
	}
}

// ReadCSV parses raw CSV bytes.
func (tr *TableReader) ReadCSV(data []byte) (*models.Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = detectDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	var lines []int
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv parse: %v", models.ErrUnsupportedFile, err)
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return buildTable(records, lines)
}

func (tr *TableReader) readXLSX(src io.Reader) (*models.Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %v", models.ErrUnsupportedFile, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: read xlsx rows: %v", models.ErrUnsupportedFile, err)
	}
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return buildTable(rows, lines)
}

// decodeText strips a UTF-8 BOM and converts Latin-1 input to UTF-8.
func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode latin-1: %v", models.ErrUnsupportedFile, err)
	}
	return out, nil
}

// detectDelimiter picks the candidate that occurs most often outside quotes in the first non-blank line.
func detectDelimiter(text []byte) rune {
	var first string
	for _, line := range strings.Split(string(text), "\n") {
		if strings.TrimSpace(line) != "" {
			first = line
			break
		}
	}

	counts := make(map[rune]int, len(csvDelimiters))
	inQuotes := false
	for _, ch := range first {
		if ch == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[ch]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range csvDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// buildTable takes the first non-blank record as the header and drops blank data rows.
func buildTable(records [][]string, lines []int) (*models.Table, error) {
	start := -1
	for i, rec := range records {
		if !isBlankRecord(rec) {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, fmt.Errorf("%w: file has no header row", models.ErrUnsupportedFile)
	}

	header := normalizeHeader(records[start])
	table := &models.Table{Header: header}
	for i := start + 1; i < len(records); i++ {
		if isBlankRecord(records[i]) {
			continue
		}
		table.Rows = append(table.Rows, models.RawRow{
			Line:    lines[i],
			Columns: header,
			Cells:   records[i],
		})
	}
	return table, nil
}

// normalizeHeader trims names, fills blanks with column_N and suffixes duplicates.
func normalizeHeader(raw []string) []string {
	header := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, name := range raw {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		header[i] = name
	}
	return header
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
