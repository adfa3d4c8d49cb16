// Package loader reads sales observations and competitor prices from
// CSV or XLSX files.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"price-elasticity-lab/internal/domain"
)

// Supported input formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var (
	// ErrUnsupportedFormat is returned for file extensions other than .csv / .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMalformedRow is returned when a required field cannot be parsed.
	ErrMalformedRow = errors.New("malformed row")
)

// Header aliases, matched case-insensitively after trimming.
var (
	skuAliases        = []string{"sku_id", "sku", "product_id", "product_code"}
	priceAliases      = []string{"price", "unit_price"}
	unitsAliases      = []string{"units_sold", "units", "quantity", "sales"}
	dateAliases       = []string{"date", "sale_date"}
	nameAliases       = []string{"product_name", "product", "name"}
	categoryAliases   = []string{"category"}
	revenueAliases    = []string{"revenue"}
	costAliases       = []string{"cost", "unit_cost"}
	inventoryAliases  = []string{"inventory_on_hand", "inventory", "stock"}
	competitorAliases = []string{"competitor_name", "competitor"}
	compPriceAliases  = []string{"competitor_price"}
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006/01/02", "01-02-06"}

// FormatOf returns the input format implied by the file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadObservations reads sales observations from a .csv or .xlsx file.
func LoadObservations(path string) ([]*domain.SalesObservation, error) {
	rows, err := readFile(path)
	if err != nil {
		return nil, err
	}
	obs, err := parseObservations(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// ReadObservations reads sales observations from r in the given format.
func ReadObservations(r io.Reader, format string) ([]*domain.SalesObservation, error) {
	rows, err := readRows(r, format)
	if err != nil {
		return nil, err
	}
	return parseObservations(rows)
}

// LoadCompetitorPrices reads competitor price samples from a .csv or .xlsx file.
func LoadCompetitorPrices(path string) ([]*domain.CompetitorPrice, error) {
	rows, err := readFile(path)
	if err != nil {
		return nil, err
	}
	prices, err := parseCompetitorPrices(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prices, nil
}

// ReadCompetitorPrices reads competitor price samples from r in the given format.
func ReadCompetitorPrices(r io.Reader, format string) ([]*domain.CompetitorPrice, error) {
	rows, err := readRows(r, format)
	if err != nil {
		return nil, err
	}
	return parseCompetitorPrices(rows)
}

func readFile(path string) ([][]string, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readRows(f, format)
}

func readRows(r io.Reader, format string) ([][]string, error) {
	switch format {
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		return rows, nil
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("read xlsx rows: %w", err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// columns maps header positions; -1 marks an absent optional column.
type columns map[string]int

func findIndex(header []string, aliases ...string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, a := range aliases {
			if h == a {
				return i
			}
		}
	}
	return -1
}

func resolveColumns(header []string, required, optional map[string][]string) (columns, error) {
	cols := make(columns, len(required)+len(optional))
	var missing []string
	for name, aliases := range required {
		idx := findIndex(header, aliases...)
		if idx < 0 {
			missing = append(missing, name)
			continue
		}
		cols[name] = idx
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	for name, aliases := range optional {
		cols[name] = findIndex(header, aliases...)
	}
	return cols, nil
}

func (c columns) get(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseObservations(rows [][]string) ([]*domain.SalesObservation, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
	}
	cols, err := resolveColumns(rows[0],
		map[string][]string{"sku_id": skuAliases, "price": priceAliases, "units_sold": unitsAliases},
		map[string][]string{
			"date": dateAliases, "product_name": nameAliases, "category": categoryAliases,
			"revenue": revenueAliases, "cost": costAliases, "inventory_on_hand": inventoryAliases,
		},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.SalesObservation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		line := i + 2
		o, err := parseObservation(cols, row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, line, err)
		}
		out = append(out, o)
	}
	return out, nil
}

// parseObservation checks syntax only. Domain checks (price > 0,
// units >= 0) belong to the estimator so bad SKUs are reported, not dropped.
func parseObservation(cols columns, row []string) (*domain.SalesObservation, error) {
	sku := cols.get(row, "sku_id")
	if sku == "" {
		return nil, errors.New("empty sku_id")
	}
	price, err := strconv.ParseFloat(cols.get(row, "price"), 64)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	units, err := parseInt(cols.get(row, "units_sold"))
	if err != nil {
		return nil, fmt.Errorf("units_sold: %w", err)
	}

	o := &domain.SalesObservation{
		SkuID:       sku,
		Price:       price,
		UnitsSold:   units,
		ProductName: cols.get(row, "product_name"),
		Category:    cols.get(row, "category"),
	}
	if s := cols.get(row, "date"); s != "" {
		if o.Date, err = parseDate(s); err != nil {
			return nil, err
		}
	}
	if o.Revenue, err = optionalFloat(cols.get(row, "revenue")); err != nil {
		return nil, fmt.Errorf("revenue: %w", err)
	}
	if o.Cost, err = optionalFloat(cols.get(row, "cost")); err != nil {
		return nil, fmt.Errorf("cost: %w", err)
	}
	if s := cols.get(row, "inventory_on_hand"); s != "" {
		inv, err := parseInt(s)
		if err != nil {
			return nil, fmt.Errorf("inventory_on_hand: %w", err)
		}
		o.InventoryOnHand = &inv
	}
	return o, nil
}

func parseCompetitorPrices(rows [][]string) ([]*domain.CompetitorPrice, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
	}
	cols, err := resolveColumns(rows[0],
		map[string][]string{"sku_id": skuAliases, "competitor_name": competitorAliases, "competitor_price": compPriceAliases},
		map[string][]string{"date": dateAliases},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.CompetitorPrice, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		line := i + 2
		sku := cols.get(row, "sku_id")
		if sku == "" {
			return nil, fmt.Errorf("%w: row %d: empty sku_id", ErrMalformedRow, line)
		}
		price, err := strconv.ParseFloat(cols.get(row, "competitor_price"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: competitor_price: %v", ErrMalformedRow, line, err)
		}
		cp := &domain.CompetitorPrice{
			SkuID:           sku,
			CompetitorName:  cols.get(row, "competitor_name"),
			CompetitorPrice: price,
		}
		if s := cols.get(row, "date"); s != "" {
			if cp.Date, err = parseDate(s); err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, line, err)
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

// parseInt accepts integral floats such as "12.0" written by spreadsheets.
func parseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int64(f), nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: unrecognized format", s)
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
