// Package catalog manages the externally-owned reference lists: the target
// URLs and the ordered brand and category rule lists. List order is meaning,
// not presentation, for the rule lists: classification takes the first match.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/DhKDc/precios3d/classify"
)

// LoadURLs reads the target list. The file carries a single "URL" column
// with a header row. A missing file is an empty list.
func LoadURLs(path string) ([]string, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	var urls []string
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) > 0 && row[0] != "" {
			urls = append(urls, row[0])
		}
	}
	return urls, nil
}

// SaveURLs rewrites the target list.
func SaveURLs(path string, urls []string) error {
	rows := make([][]string, 0, len(urls)+1)
	rows = append(rows, []string{"URL"})
	for _, url := range urls {
		rows = append(rows, []string{url})
	}
	return writeCSV(path, rows)
}

// LoadList reads an ordered rule list: one entry per row, no header.
func LoadList(path string) ([]string, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	var items []string
	for _, row := range rows {
		if len(row) > 0 && row[0] != "" {
			items = append(items, row[0])
		}
	}
	return items, nil
}

// SaveList rewrites an ordered rule list.
func SaveList(path string, items []string) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item})
	}
	return writeCSV(path, rows)
}

// LoadRules loads both rule lists into a classifier rule set.
func LoadRules(brandsPath, categoriesPath string) (classify.Rules, error) {
	brands, err := LoadList(brandsPath)
	if err != nil {
		return classify.Rules{}, fmt.Errorf("load brands: %w", err)
	}
	categories, err := LoadList(categoriesPath)
	if err != nil {
		return classify.Rules{}, fmt.Errorf("load categories: %w", err)
	}
	return classify.Rules{Brands: brands, Categories: categories}, nil
}

// RemoveAt deletes the item at a 1-based index, returning the new list and
// the removed item.
func RemoveAt(items []string, index int) ([]string, string, error) {
	if index < 1 || index > len(items) {
		return nil, "", fmt.Errorf("index %d out of range 1..%d", index, len(items))
	}
	removed := items[index-1]
	out := make([]string, 0, len(items)-1)
	out = append(out, items[:index-1]...)
	out = append(out, items[index:]...)
	return out, removed, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	writer.Flush()
	return writer.Error()
}
