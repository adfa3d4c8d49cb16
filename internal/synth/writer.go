package synth

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"price-elasticity-lab/internal/domain"
)

// SalesHeader is the column order of sales_data.csv.
var SalesHeader = []string{"date", "sku_id", "product_name", "category", "price", "units_sold", "revenue", "cost", "inventory_on_hand"}

// CompetitorHeader is the column order of competitor_data.csv.
var CompetitorHeader = []string{"sku_id", "competitor_name", "competitor_price", "date"}

// WriteSalesCSV writes observations in the sales_data.csv layout.
func WriteSalesCSV(w io.Writer, sales []*domain.SalesObservation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SalesHeader); err != nil {
		return err
	}
	for _, o := range sales {
		row := []string{
			formatDate(o),
			o.SkuID,
			o.ProductName,
			o.Category,
			formatFloat(o.Price),
			strconv.FormatInt(o.UnitsSold, 10),
			formatOptional(o.Revenue),
			formatOptional(o.Cost),
			"",
		}
		if o.InventoryOnHand != nil {
			row[8] = strconv.FormatInt(*o.InventoryOnHand, 10)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write sales row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCompetitorCSV writes competitor samples in the competitor_data.csv layout.
func WriteCompetitorCSV(w io.Writer, prices []*domain.CompetitorPrice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CompetitorHeader); err != nil {
		return err
	}
	for _, c := range prices {
		date := ""
		if !c.Date.IsZero() {
			date = c.Date.Format("2006-01-02")
		}
		if err := cw.Write([]string{c.SkuID, c.CompetitorName, formatFloat(c.CompetitorPrice), date}); err != nil {
			return fmt.Errorf("write competitor row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(o *domain.SalesObservation) string {
	if o.Date.IsZero() {
		return ""
	}
	return o.Date.Format("2006-01-02")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
