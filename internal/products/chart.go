package products

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Palette colours chart slices in order, wrapping around.
var Palette = []string{"#6a1b9a", "#0288d1", "#43a047", "#fb8c00", "#d81b60", "#8d6e63"}

const uncategorizedLabel = "Uncategorized"

// CategoryCount is one row of the category-distribution report.
type CategoryCount struct {
	Category     string `json:"category"`
	ProductCount int    `json:"productCount"`
}

type ChartSlice struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Share    decimal.Decimal `json:"share"`
	Color    string          `json:"color"`
}

// Chart is the render form of the distribution: one slice per category with its
// percentage of all products.
type Chart struct {
	Total  int          `json:"total"`
	Slices []ChartSlice `json:"slices"`
}

// BuildChart turns report rows into chart slices. Shares are percentages rounded to two
// places; they are all zero when there are no products.
func BuildChart(counts []CategoryCount) Chart {
	total := 0
	for _, c := range counts {
		if c.ProductCount > 0 {
			total += c.ProductCount
		}
	}

	hundred := decimal.NewFromInt(100)
	slices := make([]ChartSlice, 0, len(counts))
	for i, c := range counts {
		count := max(c.ProductCount, 0)
		share := decimal.Zero
		if total > 0 {
			share = decimal.NewFromInt(int64(count)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(2)
		}
		label := strings.TrimSpace(c.Category)
		if label == "" {
			label = uncategorizedLabel
		}
		slices = append(slices, ChartSlice{
			Category: label,
			Count:    count,
			Share:    share,
			Color:    Palette[i%len(Palette)],
		})
	}
	return Chart{Total: total, Slices: slices}
}
