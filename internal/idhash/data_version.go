package idhash

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	"price-elasticity-lab/internal/domain"
)

// ComputeDataVersion computes a deterministic digest of a run's input.
// Formula: SHA256 over sorted lines sku_id|price|units_sold|date,
// followed by the price-change grid.
// Returns base58-encoded hash.
//
// Observation order does not affect the result.
func ComputeDataVersion(observations []*domain.SalesObservation, priceChanges []float64) string {
	lines := make([]string, 0, len(observations))
	for i := range observations {
		o := observations[i]
		if o == nil {
			continue
		}
		date := ""
		if !o.Date.IsZero() {
			date = o.Date.UTC().Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("%s|%s|%d|%s",
			o.SkuID,
			strconv.FormatFloat(o.Price, 'g', -1, 64),
			o.UnitsSold,
			date,
		))
	}
	sort.Strings(lines)

	changes := make([]string, len(priceChanges))
	for i, c := range priceChanges {
		changes[i] = strconv.FormatFloat(c, 'g', -1, 64)
	}

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	// grid order is significant: it fixes scenario_index
	h.Write([]byte("changes:" + strings.Join(changes, ",")))

	return base58.Encode(h.Sum(nil))
}

// ShortVersion returns the first n characters of a data version for display.
func ShortVersion(version string, n int) string {
	if n <= 0 || len(version) <= n {
		return version
	}
	return version[:n]
}
