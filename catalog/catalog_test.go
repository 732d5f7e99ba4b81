package catalog

import (
	"path/filepath"
	"testing"
)

func TestURLsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.csv")

	urls := []string{
		"http://example.test/filamento-pla",
		"http://example.test/resina-lavable",
	}
	if err := SaveURLs(path, urls); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadURLs(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(urls) {
		t.Fatalf("loaded = %d urls, want %d", len(loaded), len(urls))
	}
	for i := range urls {
		if loaded[i] != urls[i] {
			t.Fatalf("url[%d] = %q, want %q (order must survive)", i, loaded[i], urls[i])
		}
	}
}

func TestLoadURLsMissingFile(t *testing.T) {
	urls, err := LoadURLs(filepath.Join(t.TempDir(), "urls.csv"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(urls) != 0 {
		t.Fatalf("urls = %v, want empty", urls)
	}
}

func TestListRoundTripPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.csv")

	// Order is match priority, so a round trip must not reorder.
	items := []string{"resina", "filamento", "boquilla"}
	if err := SaveList(path, items); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadList(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(items) {
		t.Fatalf("loaded = %d items, want %d", len(loaded), len(items))
	}
	for i := range items {
		if loaded[i] != items[i] {
			t.Fatalf("item[%d] = %q, want %q", i, loaded[i], items[i])
		}
	}
}

func TestRemoveAt(t *testing.T) {
	items := []string{"a", "b", "c"}

	out, removed, err := RemoveAt(items, 2)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed != "b" {
		t.Fatalf("removed = %q, want %q", removed, "b")
	}
	if len(out) != 2 || out[0] != "a" || out[1] != "c" {
		t.Fatalf("out = %v", out)
	}

	if _, _, err := RemoveAt(items, 0); err == nil {
		t.Fatalf("index 0 should be out of range")
	}
	if _, _, err := RemoveAt(items, 4); err == nil {
		t.Fatalf("index past end should be out of range")
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	brandsPath := filepath.Join(dir, "brands.csv")
	categoriesPath := filepath.Join(dir, "categories.csv")

	if err := SaveList(brandsPath, []string{"prusa", "creality"}); err != nil {
		t.Fatalf("save brands: %v", err)
	}
	if err := SaveList(categoriesPath, []string{"filamento"}); err != nil {
		t.Fatalf("save categories: %v", err)
	}

	rules, err := LoadRules(brandsPath, categoriesPath)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if len(rules.Brands) != 2 || len(rules.Categories) != 1 {
		t.Fatalf("rules = %+v", rules)
	}
	if got := rules.Classify("Filamento PLA Prusa"); got.Brand != "Prusa" || got.Category != "Filamento PLA" {
		t.Fatalf("classify through loaded rules = %+v", got)
	}
}
