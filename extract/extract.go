// Package extract turns a fetched product page into structured fields. The
// store renders the product name in an h1.subheader, the discounted price in
// an h2, and the purchasable quantity as the max attribute of the qty input.
package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DhKDc/precios3d/models"
)

const (
	nameSelector  = "h1.subheader"
	priceSelector = "h2.product-pricing__price--discount"
	stockSelector = "input#input-qty"
)

// Fields holds the raw extraction outcome for one page, before
// classification and timestamping.
type Fields struct {
	ProductName string
	Price       models.PriceValue
	Stock       string
}

// Product extracts the name, price, and stock fields from a parsed page.
// All three elements must be located; if any is absent every field is set to
// its not-found marker. A partial page is data, not an error.
func Product(doc *goquery.Document) Fields {
	name := doc.Find(nameSelector).First()
	price := doc.Find(priceSelector).First()
	stock := doc.Find(stockSelector).First()

	if name.Length() == 0 || price.Length() == 0 || stock.Length() == 0 {
		return Fields{
			ProductName: models.NameNotFound,
			Price:       models.PriceError(models.PriceNotFound),
			Stock:       models.StockNotFound,
		}
	}

	fields := Fields{
		ProductName: strings.TrimSpace(name.Text()),
		Stock:       models.StockNotFound,
	}

	if amount, err := ParsePrice(price.Text()); err != nil {
		fields.Price = models.PriceError(models.PriceNotFound)
	} else {
		fields.Price = models.Price(amount)
	}

	if max, ok := stock.Attr("max"); ok {
		fields.Stock = strings.TrimSpace(max)
	}

	return fields
}

// ParsePrice parses a displayed price. The store prints Chilean pesos with a
// leading "$" and "." as the thousands separator, so both are stripped before
// parsing ("$12.990" parses to 12990).
func ParsePrice(text string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ".", "").Replace(text)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price text %q", text)
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", text, err)
	}
	return amount, nil
}
