// Package models defines data structures shared across the tracker.
package models

import (
	"strconv"
	"time"
)

// Field markers written into history rows when a value could not be obtained.
// A page that loads but is missing elements yields the "not found" markers;
// a page that cannot be retrieved at all yields Unreachable in every field.
const (
	NameNotFound     = "Product information not found"
	PriceNotFound    = "Price not found"
	StockNotFound    = "Stock information not found"
	BrandNotFound    = "Brand not found"
	CategoryNotFound = "Category not found"
	Unreachable      = "Error"
)

// PriceValue holds either a parsed price or a failure marker, never both.
type PriceValue struct {
	Amount float64
	Marker string
}

// Price returns a valid PriceValue.
func Price(amount float64) PriceValue {
	return PriceValue{Amount: amount}
}

// PriceError returns a PriceValue carrying a failure marker.
func PriceError(marker string) PriceValue {
	return PriceValue{Marker: marker}
}

// Valid reports whether the value holds a parsed price.
func (p PriceValue) Valid() bool {
	return p.Marker == ""
}

// String renders the value the way it is persisted: the number for a valid
// price, the marker otherwise.
func (p PriceValue) String() string {
	if !p.Valid() {
		return p.Marker
	}
	return strconv.FormatFloat(p.Amount, 'f', -1, 64)
}

// ParsePriceCell interprets a persisted price column: anything that parses as
// a number is a valid price, anything else is a marker.
func ParsePriceCell(cell string) PriceValue {
	if amount, err := strconv.ParseFloat(cell, 64); err == nil {
		return Price(amount)
	}
	if cell == "" {
		return PriceError(PriceNotFound)
	}
	return PriceError(cell)
}

// ScrapeRecord is one observation of a product page. Immutable once created.
type ScrapeRecord struct {
	ProductName string     `csv:"product_name" json:"product_name"`
	Price       PriceValue `csv:"price" json:"price"`
	Stock       string     `csv:"stock" json:"stock"`
	Brand       string     `csv:"brand" json:"brand"`
	Category    string     `csv:"category" json:"category"`
	ScrapedAt   time.Time  `csv:"scraped_at" json:"scraped_at"`
}

// IsUnreachable reports whether the record came from a transport failure, as
// opposed to a reachable page with missing fields.
func (r *ScrapeRecord) IsUnreachable() bool {
	return r.ProductName == Unreachable
}

// IsPartial reports whether the page loaded but the required elements were
// missing.
func (r *ScrapeRecord) IsPartial() bool {
	return r.ProductName == NameNotFound
}

// UnreachableRecord builds the all-fields-error record for a target that
// could not be fetched.
func UnreachableRecord(scrapedAt time.Time) *ScrapeRecord {
	return &ScrapeRecord{
		ProductName: Unreachable,
		Price:       PriceError(Unreachable),
		Stock:       Unreachable,
		Brand:       Unreachable,
		Category:    Unreachable,
		ScrapedAt:   scrapedAt,
	}
}

// PriceSnapshot is one row of the generated price list: the smoothed price
// for a product paired with its most recent stock and classification.
type PriceSnapshot struct {
	ProductName string  `csv:"product_name" json:"product_name"`
	Price       float64 `csv:"price" json:"price"`
	Stock       string  `csv:"stock" json:"stock"`
	Brand       string  `csv:"brand" json:"brand"`
	Category    string  `csv:"category" json:"category"`
}

// AcquireResult summarizes one acquisition run. The records themselves are
// collected by the pipeline; this carries the run accounting.
type AcquireResult struct {
	StartTime    time.Time
	EndTime      time.Time
	TargetCount  int
	ErrorCount   int
	FailedURLs   []string
	ErrorsByType map[string]int
	RequestCount int
}
