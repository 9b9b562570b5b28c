package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bizinsight-api/pkg/models"
)

var (
	errEmptyValue = errors.New("empty value")

	// Slash dates are read month-first, the convention of the sales exports this service targets.
	// Month-only values land on the first of the month.
	dateLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
		"2006/01/02",
		"2006/1/2",
		"01/02/2006",
		"1/2/2006",
		"01/02/2006 15:04:05",
		"1/2/2006 15:04:05",
		"01/02/2006 15:04",
		"1/2/2006 15:04",
		"01-02-2006",
		"02.01.2006",
		"2.1.2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"2 January 2006",
		"02-Jan-2006",
		"02-Jan-06",
		"2006-01",
		"January 2006",
		"Jan 2006",
		"Jan-2006",
		"01/2006",
	}

	currencySymbols = []string{"$", "€", "£", "¥", "₹"}
	currencyCodes   = regexp.MustCompile(`(?i)^(usd|eur|gbp|jpy|inr|cad|aud|chf|cny)\s*|\s*(usd|eur|gbp|jpy|inr|cad|aud|chf|cny)$`)
	reDecimal       = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	reExcelSerial   = regexp.MustCompile(`^\d{5}(\.\d+)?$`)
)

// ParseDate reads a cell as a calendar date. Time of day and zone are discarded;
// the calendar date as written is kept.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errEmptyValue
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDate(t), nil
		}
	}
	if reExcelSerial.MatchString(s) {
		if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 20000 && serial <= 80000 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return calendarDate(t), nil
			}
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return calendarDate(t), nil
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseRevenue reads a money cell. Currency symbols, ISO codes and comma thousands
// separators are stripped; a parenthesized amount is negative.
func ParseRevenue(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	if s == "" {
		return decimal.Zero, errEmptyValue
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = currencyCodes.ReplaceAllString(s, "")
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = sign + s

	if !reDecimal.MatchString(s) {
		return decimal.Zero, fmt.Errorf("not a number: %q", strings.TrimSpace(raw))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", strings.TrimSpace(raw))
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// DataCleaner coerces raw rows into typed rows and reports what was dropped.
type DataCleaner struct {
	sampleLimit int
}

func NewDataCleaner() *DataCleaner {
	return &DataCleaner{sampleLimit: 5}
}

// Clean keeps a row only when both its date and its revenue coerce. The report is
// returned even when an error is.
func (dc *DataCleaner) Clean(table *models.Table, roles models.ColumnRoleMap) ([]models.CleanedRow, models.CleaningReport, error) {
	report := models.CleaningReport{TotalRows: len(table.Rows)}

	dateCol, ok := roles.Column(models.RoleDate)
	if !ok {
		return nil, report, &models.SchemaUnresolvedError{Roles: []models.Role{models.RoleDate}, Columns: roles}
	}
	revenueCol, ok := roles.Column(models.RoleRevenue)
	if !ok {
		return nil, report, &models.SchemaUnresolvedError{Roles: []models.Role{models.RoleRevenue}, Columns: roles}
	}
	productCol, hasProduct := roles.Column(models.RoleProduct)
	regionCol, hasRegion := roles.Column(models.RoleRegion)

	if report.TotalRows == 0 {
		return nil, report, fmt.Errorf("%w: the file has a header but no data rows", models.ErrEmptyAfterCleaning)
	}

	cleaned := make([]models.CleanedRow, 0, len(table.Rows))
	datesOK, revenuesOK := 0, 0
	for _, row := range table.Rows {
		date, dateErr := ParseDate(row.Value(dateCol))
		revenue, revErr := ParseRevenue(row.Value(revenueCol))
		if dateErr == nil {
			datesOK++
		}
		if revErr == nil {
			revenuesOK++
		}

		switch {
		case dateErr != nil:
			report.DroppedInvalidDate++
			dc.sample(&report, row.Line, dateCol, dateErr)
			continue
		case revErr != nil:
			report.DroppedInvalidRevenue++
			dc.sample(&report, row.Line, revenueCol, revErr)
			continue
		}

		out := models.CleanedRow{Line: row.Line, Date: date, Revenue: revenue}
		if hasProduct {
			out.Product = strings.TrimSpace(row.Value(productCol))
		}
		if hasRegion {
			out.Region = strings.TrimSpace(row.Value(regionCol))
		}
		cleaned = append(cleaned, out)
	}

	report.RetainedRows = len(cleaned)
	report.DroppedRows = report.TotalRows - report.RetainedRows

	if revenuesOK == 0 {
		return nil, report, fmt.Errorf("%w: no value in column %q could be read as a number", models.ErrDataFormat, revenueCol)
	}
	if datesOK == 0 {
		return nil, report, fmt.Errorf("%w: no value in column %q could be read as a date", models.ErrDataFormat, dateCol)
	}
	if len(cleaned) == 0 {
		return nil, report, fmt.Errorf("%w: no row has both a valid date and a valid revenue", models.ErrEmptyAfterCleaning)
	}
	return cleaned, report, nil
}

func (dc *DataCleaner) sample(report *models.CleaningReport, line int, column string, err error) {
	if len(report.SampleErrors) >= dc.sampleLimit {
		return
	}
	report.SampleErrors = append(report.SampleErrors, fmt.Sprintf("line %d, %s: %v", line, column, err))
}
