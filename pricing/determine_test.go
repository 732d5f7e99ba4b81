package pricing

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/DhKDc/precios3d/models"
)

// fakeHistory feeds the engine records in whatever order the test wants,
// including deliberately unsorted ones.
type fakeHistory struct {
	products map[string][]*models.ScrapeRecord
}

func (f *fakeHistory) Products() []string {
	names := make([]string, 0, len(f.products))
	for name := range f.products {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *fakeHistory) AllFor(productName string) []*models.ScrapeRecord {
	records := f.products[productName]
	out := make([]*models.ScrapeRecord, len(records))
	copy(out, records)
	return out
}

func (f *fakeHistory) GlobalLatest() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, records := range f.products {
		for _, record := range records {
			if !found || record.ScrapedAt.After(latest) {
				latest = record.ScrapedAt
				found = true
			}
		}
	}
	return latest, found
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(name string, price float64, day int) *models.ScrapeRecord {
	return &models.ScrapeRecord{
		ProductName: name,
		Price:       models.Price(price),
		Stock:       "5",
		Brand:       "Prusa",
		Category:    "Filamento PLA",
		ScrapedAt:   base.AddDate(0, 0, day),
	}
}

func errRec(name string, day int) *models.ScrapeRecord {
	return &models.ScrapeRecord{
		ProductName: name,
		Price:       models.PriceError(models.PriceNotFound),
		Stock:       "0",
		Brand:       "Prusa",
		Category:    "Filamento PLA",
		ScrapedAt:   base.AddDate(0, 0, day),
	}
}

func one(t *testing.T, snapshots []*models.PriceSnapshot) *models.PriceSnapshot {
	t.Helper()
	if len(snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snapshots))
	}
	return snapshots[0]
}

func TestExpandingMean(t *testing.T) {
	got := ExpandingMean([]float64{10, 14, 18})
	want := []float64{10, 12, 14}
	if len(got) != len(want) {
		t.Fatalf("series length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("series[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDetermineExpandingMeanLaw(t *testing.T) {
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{
		"Filamento A": {
			rec("Filamento A", 10, 0),
			rec("Filamento A", 14, 30),
			rec("Filamento A", 18, 60),
		},
	}}

	snapshot := one(t, Determine(h, 90))
	if snapshot.Price != 14 {
		t.Fatalf("price = %v, want 14", snapshot.Price)
	}
	if snapshot.ProductName != "Filamento A" || snapshot.Stock != "5" {
		t.Fatalf("snapshot = %+v", snapshot)
	}
}

func TestDetermineSingleRecordKeepsRawPrice(t *testing.T) {
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{
		"Filamento A": {rec("Filamento A", 12990, 0)},
	}}

	snapshot := one(t, Determine(h, 90))
	if snapshot.Price != 12990 {
		t.Fatalf("price = %v, want exactly 12990", snapshot.Price)
	}
}

func TestDetermineWindowFiltering(t *testing.T) {
	// The old observation sits outside the 90-day window anchored at the
	// newest record and must not drag the mean.
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{
		"Filamento A": {
			rec("Filamento A", 100000, 0),
			rec("Filamento A", 10, 200),
			rec("Filamento A", 20, 230),
		},
	}}

	snapshot := one(t, Determine(h, 90))
	if snapshot.Price != 15 {
		t.Fatalf("price = %v, want 15 (mean of in-window prices only)", snapshot.Price)
	}
}

func TestDetermineWindowAnchoredGlobally(t *testing.T) {
	// Product B's newest record is older than product A's, but the window
	// anchors to the dataset-wide latest, not per product.
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{
		"Filamento A": {rec("Filamento A", 10, 200)},
		"Resina B":    {rec("Resina B", 50, 40)},
	}}

	snapshots := Determine(h, 90)
	if len(snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1 (stale product excluded)", len(snapshots))
	}
	if snapshots[0].ProductName != "Filamento A" {
		t.Fatalf("snapshot = %+v, want Filamento A", snapshots[0])
	}
}

func TestDetermineExcludesEmptyWindow(t *testing.T) {
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{}}
	if got := Determine(h, 90); got != nil {
		t.Fatalf("empty history = %v, want nil", got)
	}
}

func TestDetermineErrorPricesExcludedFromMean(t *testing.T) {
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{
		"Filamento A": {
			rec("Filamento A", 10, 0),
			errRec("Filamento A", 30),
			rec("Filamento A", 20, 60),
		},
	}}

	snapshot := one(t, Determine(h, 90))
	if snapshot.Price != 15 {
		t.Fatalf("price = %v, want 15 (error-valued record skipped)", snapshot.Price)
	}
}

func TestDetermineFallsBackWhenLatestIsError(t *testing.T) {
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{
		"Filamento A": {
			rec("Filamento A", 10, 0),
			rec("Filamento A", 14, 30),
			errRec("Filamento A", 60),
		},
	}}

	snapshot := one(t, Determine(h, 90))
	if snapshot.Price != 12 {
		t.Fatalf("price = %v, want 12 (fold over the valid records)", snapshot.Price)
	}
	// The snapshot is anchored to the fallback record, not the error one.
	if snapshot.Stock != "5" {
		t.Fatalf("stock = %q, want the latest valid record's stock", snapshot.Stock)
	}
}

func TestDetermineExcludesAllErrorProduct(t *testing.T) {
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{
		"Filamento A": {errRec("Filamento A", 0), errRec("Filamento A", 30)},
		"Resina B":    {rec("Resina B", 100, 30)},
	}}

	snapshots := Determine(h, 90)
	if len(snapshots) != 1 || snapshots[0].ProductName != "Resina B" {
		t.Fatalf("snapshots = %v, want only Resina B", snapshots)
	}
}

func TestDetermineSortsOutOfOrderInput(t *testing.T) {
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{
		"Filamento A": {
			rec("Filamento A", 18, 60),
			rec("Filamento A", 10, 0),
			rec("Filamento A", 14, 30),
		},
	}}

	snapshot := one(t, Determine(h, 90))
	if snapshot.Price != 14 {
		t.Fatalf("price = %v, want 14 (chronological fold)", snapshot.Price)
	}
}

func TestDetermineIsDeterministic(t *testing.T) {
	h := &fakeHistory{products: map[string][]*models.ScrapeRecord{
		"Filamento A": {rec("Filamento A", 10, 0), rec("Filamento A", 14, 30)},
		"Resina B":    {rec("Resina B", 100, 30)},
	}}

	first := Determine(h, 90)
	for i := 0; i < 10; i++ {
		again := Determine(h, 90)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d snapshots, want %d", i, len(again), len(first))
		}
		for j := range first {
			if *again[j] != *first[j] {
				t.Fatalf("run %d: snapshot %d = %+v, want %+v", i, j, again[j], first[j])
			}
		}
	}
}
