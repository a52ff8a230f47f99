package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
)

const (
	// AskForPrice is the placeholder listings use instead of a price.
	AskForPrice = "Ask For Price"
	// DefaultPriceCeiling excludes listings priced at or above it.
	DefaultPriceCeiling = 6000000
	// NameTokens is how many words of the listing name are kept.
	NameTokens = 3
)

// CleanOptions tunes the cleaning pass.
type CleanOptions struct {
	PriceCeiling int
	Sentinel     string
}

// DefaultCleanOptions returns the options used by the training job.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		PriceCeiling: DefaultPriceCeiling,
		Sentinel:     AskForPrice,
	}
}

var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
}

func isMissing(v string) bool {
	_, ok := missingTokens[strings.TrimSpace(v)]
	return ok
}

// Clean turns raw rows into records. Rows that fail any step are dropped
// without being reported. Steps run in this order:
//
//  1. year must coerce to an integer
//  2. price must not be the sentinel and must coerce to an integer once
//     thousands separators are removed
//  3. kms_driven must be present; its leading token (the number before the
//     unit) must coerce to an integer once thousands separators are removed
//  4. fuel_type must be present
//  5. name is cut to its first three words
//  6. price must be below the ceiling
//
// The input is not modified and the result is densely indexed.
func Clean(raw []domain.RawRecord, opts CleanOptions) []domain.Record {
	if opts.PriceCeiling <= 0 {
		opts.PriceCeiling = DefaultPriceCeiling
	}
	if opts.Sentinel == "" {
		opts.Sentinel = AskForPrice
	}

	out := make([]domain.Record, 0, len(raw))
	for _, r := range raw {
		if rec, ok := cleanRow(r, opts); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Every filter looks at a single row, so applying them row by row gives the
// same result as applying them column by column over the whole table.
func cleanRow(r domain.RawRecord, opts CleanOptions) (domain.Record, bool) {
	year, ok := coerceInt(r.Year)
	if !ok {
		return domain.Record{}, false
	}

	if r.Price == opts.Sentinel {
		return domain.Record{}, false
	}
	price, ok := coerceInt(stripThousands(r.Price))
	if !ok {
		return domain.Record{}, false
	}

	if isMissing(r.KmsDriven) {
		return domain.Record{}, false
	}
	kms, ok := coerceInt(stripThousands(leadingToken(r.KmsDriven)))
	if !ok {
		return domain.Record{}, false
	}

	if isMissing(r.FuelType) {
		return domain.Record{}, false
	}

	if isMissing(r.Name) || isMissing(r.Company) {
		return domain.Record{}, false
	}
	name := TruncateName(r.Name, NameTokens)

	if price >= opts.PriceCeiling {
		return domain.Record{}, false
	}

	return domain.Record{
		Name:      name,
		Company:   r.Company,
		Year:      year,
		KmsDriven: kms,
		FuelType:  r.FuelType,
		Price:     price,
	}, true
}

// TruncateName keeps the first n whitespace separated words of name.
func TruncateName(name string, n int) string {
	words := strings.Fields(name)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func leadingToken(v string) string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func stripThousands(v string) string {
	return strings.ReplaceAll(v, ",", "")
}

// coerceInt accepts integer text and decimal text (truncated toward zero).
func coerceInt(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if isMissing(v) {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
