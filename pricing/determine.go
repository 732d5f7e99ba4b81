// Package pricing derives the smoothed current price per product from its
// scrape history and writes the resulting price list.
package pricing

import (
	"sort"
	"time"

	"github.com/DhKDc/precios3d/models"
)

// DefaultWindowDays is the trailing window the price fold looks at.
const DefaultWindowDays = 90

// History is the ledger view the engine reads. *history.Store satisfies it.
type History interface {
	Products() []string
	AllFor(productName string) []*models.ScrapeRecord
	GlobalLatest() (time.Time, bool)
}

// Determine computes one snapshot per product: an expanding mean over the
// product's in-window observations, paired with the stock and classification
// of the record the price is anchored to.
//
// The window is anchored at the dataset-wide latest scrape date, so products
// scraped slightly earlier in a batch share the same trailing window as
// products scraped later. Records with an error-valued price never enter the
// fold; if the latest in-window record is error-valued, the snapshot falls
// back to the latest in-window record with a valid price. A product with no
// valid in-window price is omitted from the output.
//
// Pure function of the history contents: deterministic and side-effect-free.
func Determine(h History, windowDays int) []*models.PriceSnapshot {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	latest, ok := h.GlobalLatest()
	if !ok {
		return nil
	}
	cutoff := latest.Add(-time.Duration(windowDays) * 24 * time.Hour)

	var snapshots []*models.PriceSnapshot
	for _, name := range h.Products() {
		if snapshot := determineProduct(h.AllFor(name), cutoff); snapshot != nil {
			snapshots = append(snapshots, snapshot)
		}
	}
	return snapshots
}

func determineProduct(records []*models.ScrapeRecord, cutoff time.Time) *models.PriceSnapshot {
	// The store keeps records ordered, but the fold is order-sensitive, so
	// out-of-order input must not corrupt it.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ScrapedAt.Before(records[j].ScrapedAt)
	})

	var basis *models.ScrapeRecord
	var prices []float64
	for _, record := range records {
		if record.ScrapedAt.Before(cutoff) {
			continue
		}
		if !record.Price.Valid() {
			continue
		}
		basis = record
		prices = append(prices, record.Price.Amount)
	}

	if basis == nil {
		return nil
	}

	series := ExpandingMean(prices)
	return &models.PriceSnapshot{
		ProductName: basis.ProductName,
		Price:       series[len(series)-1],
		Stock:       basis.Stock,
		Brand:       basis.Brand,
		Category:    basis.Category,
	}
}

// ExpandingMean returns the cumulative mean series of prices: out[0] is the
// first observation unchanged, out[i] is the mean of prices[0..i]. The first
// value stays raw so a product entering the window starts without lag.
func ExpandingMean(prices []float64) []float64 {
	out := make([]float64, len(prices))
	sum := 0.0
	for i, price := range prices {
		sum += price
		if i == 0 {
			out[i] = price
			continue
		}
		out[i] = sum / float64(i+1)
	}
	return out
}
