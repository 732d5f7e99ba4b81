// Package history keeps the append-only ledger of scrape records, keyed by
// product name and ordered by scrape date. The durable form is a CSV file;
// rows are only ever appended, never rewritten.
package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/DhKDc/precios3d/models"
)

// TimeLayout is the scrape date format used in the history file.
const TimeLayout = "2006-01-02 15:04:05"

var header = []string{"Product Name", "Price", "Stock", "Brand", "Category", "Scraped Date"}

// Store is the product-keyed history ledger backed by a CSV file. Product
// identity is the display name string: a renamed product starts a new,
// disconnected history line.
type Store struct {
	path string

	mu       sync.Mutex
	products map[string][]*models.ScrapeRecord
}

// Open loads the history at path. A missing file yields an empty store; the
// file is created on first append.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		products: make(map[string][]*models.ScrapeRecord),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		record, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("history row %d: %w", i+1, err)
		}
		s.products[record.ProductName] = append(s.products[record.ProductName], record)
	}

	return s, nil
}

// Append commits one batch to the ledger. Records are grouped by product
// name and concatenated onto each product's sequence in their given order.
// The rows are durably written before in-memory state changes, so a failed
// append leaves the store as if the batch never happened.
func (s *Store) Append(records []*models.ScrapeRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendRows(records); err != nil {
		return err
	}

	for _, record := range records {
		s.products[record.ProductName] = append(s.products[record.ProductName], record)
	}
	return nil
}

// AllFor returns the ordered history for one product. The slice is a copy;
// the records themselves are shared and immutable.
func (s *Store) AllFor(productName string) []*models.ScrapeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.products[productName]
	out := make([]*models.ScrapeRecord, len(records))
	copy(out, records)
	return out
}

// Products returns all product names in lexical order.
func (s *Store) Products() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.products))
	for name := range s.products {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GlobalLatest returns the maximum scrape date across all products. Window
// filtering anchors to this dataset-wide instant, not to per-product maxima.
func (s *Store) GlobalLatest() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest time.Time
	found := false
	for _, records := range s.products {
		for _, record := range records {
			if !found || record.ScrapedAt.After(latest) {
				latest = record.ScrapedAt
				found = true
			}
		}
	}
	return latest, found
}

// Len returns the total number of records in the ledger.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, records := range s.products {
		total += len(records)
	}
	return total
}

func (s *Store) appendRows(records []*models.ScrapeRecord) error {
	if err := ensureDir(s.path); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history for append: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history: %w", err)
	}

	writer := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("write history header: %w", err)
		}
	}

	for _, record := range records {
		row := []string{
			record.ProductName,
			record.Price.String(),
			record.Stock,
			record.Brand,
			record.Category,
			record.ScrapedAt.Format(TimeLayout),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write history row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush history rows: %w", err)
	}
	return nil
}

func parseRow(row []string) (*models.ScrapeRecord, error) {
	if len(row) != len(header) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}

	scrapedAt, err := time.ParseInLocation(TimeLayout, row[5], time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse scrape date %q: %w", row[5], err)
	}

	return &models.ScrapeRecord{
		ProductName: row[0],
		Price:       models.ParsePriceCell(row[1]),
		Stock:       row[2],
		Brand:       row[3],
		Category:    row[4],
		ScrapedAt:   scrapedAt,
	}, nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
