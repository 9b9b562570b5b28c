package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"bizinsight-api/pkg/models"
)

func TestReadCSVBasic(t *testing.T) {
	data := "Order Date,Sales,Product\n2024-01-05,\"$1,200.50\",Widget\n\n2024-02-01,950,Gadget\n"
	table, err := NewTableReader().Read("sales.csv", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Order Date", "Sales", "Product"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "$1,200.50", table.Rows[0].Value("Sales"))
	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, 4, table.Rows[1].Line)
	assert.Equal(t, "Gadget", table.Rows[1].Value("Product"))
}

func TestReadCSVDetectsDelimiter(t *testing.T) {
	tests := map[string]string{
		"semicolon": "Date;Sales\n2024-01-05;10\n",
		"tab":       "Date\tSales\n2024-01-05\t10\n",
		"pipe":      "Date|Sales\n2024-01-05|10\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			table, err := NewTableReader().ReadCSV([]byte(data))
			require.NoError(t, err)
			assert.Equal(t, []string{"Date", "Sales"}, table.Header)
			assert.Equal(t, "10", table.Rows[0].Value("Sales"))
		})
	}
}

func TestReadCSVQuotedDelimiterInHeaderIgnored(t *testing.T) {
	data := "\"Sales; EUR\",Date\n10,2024-01-05\n"
	table, err := NewTableReader().ReadCSV([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales; EUR", "Date"}, table.Header)
}

func TestReadCSVStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date,Sales\n2024-01-05,10\n")...)
	table, err := NewTableReader().ReadCSV(data)
	require.NoError(t, err)
	assert.Equal(t, "Date", table.Header[0])
}

func TestReadCSVLatin1(t *testing.T) {
	utf := "Date,Sales,Région\n2024-01-05,10,Île-de-France\n"
	latin, err := charmap.ISO8859_1.NewEncoder().String(utf)
	require.NoError(t, err)

	table, err := NewTableReader().ReadCSV([]byte(latin))
	require.NoError(t, err)
	assert.Equal(t, "Région", table.Header[2])
	assert.Equal(t, "Île-de-France", table.Rows[0].Value("Région"))
}

func TestReadCSVHeaderFixups(t *testing.T) {
	data := "Date,,Sales,Sales\n2024-01-05,x,1,2\n"
	table, err := NewTableReader().ReadCSV([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "column_2", "Sales", "Sales_2"}, table.Header)
	assert.Equal(t, "2", table.Rows[0].Value("Sales_2"))
}

func TestReadCSVShortRow(t *testing.T) {
	table, err := NewTableReader().ReadCSV([]byte("Date,Sales,Product\n2024-01-05,10\n"))
	require.NoError(t, err)
	assert.Equal(t, "", table.Rows[0].Value("Product"))
}

func TestReadEmptyFile(t *testing.T) {
	_, err := NewTableReader().ReadCSV([]byte("\n\n"))
	assert.ErrorIs(t, err, models.ErrUnsupportedFile)
}

func TestReadUnsupportedExtension(t *testing.T) {
	_, err := NewTableReader().Read("report.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, models.ErrUnsupportedFile)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Order Date", "Sales", "Product"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2024-01-05", "120.5", "Widget"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"2024-02-05", "80", "Gadget"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := NewTableReader().Read("Sales.XLSX", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Order Date", "Sales", "Product"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 4, table.Rows[1].Line)
	assert.Equal(t, "Gadget", table.Rows[1].Value("Product"))
}

func TestReadXLSXCorrupt(t *testing.T) {
	_, err := NewTableReader().Read("x.xlsx", strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, models.ErrUnsupportedFile)
}
