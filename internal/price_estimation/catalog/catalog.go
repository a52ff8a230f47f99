// Package catalog lists the values offered by the prediction form.
package catalog

import (
	"sort"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
)

// Catalog holds the distinct values of a cleaned dataset.
type Catalog struct {
	Companies []string `json:"companies"`
	Names     []string `json:"names"`
	Years     []int    `json:"years"`
	FuelTypes []string `json:"fuel_types"`

	byCompany map[string][]string
}

// Build collects companies and names in ascending order, years newest
// first and fuel types in the order they first appear.
func Build(ds []domain.Record) *Catalog {
	companies := map[string]struct{}{}
	names := map[string]struct{}{}
	years := map[int]struct{}{}
	fuelSeen := map[string]struct{}{}
	pairs := map[string]map[string]struct{}{}

	c := &Catalog{
		Companies: []string{},
		Names:     []string{},
		Years:     []int{},
		FuelTypes: []string{},
		byCompany: map[string][]string{},
	}
	for _, r := range ds {
		companies[r.Company] = struct{}{}
		names[r.Name] = struct{}{}
		years[r.Year] = struct{}{}
		if _, ok := fuelSeen[r.FuelType]; !ok {
			fuelSeen[r.FuelType] = struct{}{}
			c.FuelTypes = append(c.FuelTypes, r.FuelType)
		}
		if pairs[r.Company] == nil {
			pairs[r.Company] = map[string]struct{}{}
		}
		pairs[r.Company][r.Name] = struct{}{}
	}

	c.Companies = sortedKeys(companies)
	c.Names = sortedKeys(names)
	for y := range years {
		c.Years = append(c.Years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(c.Years)))
	for company, set := range pairs {
		c.byCompany[company] = sortedKeys(set)
	}
	return c
}

// NamesFor returns the names listed under company, sorted. An unknown
// company yields an empty list.
func (c *Catalog) NamesFor(company string) []string {
	names := c.byCompany[company]
	if names == nil {
		return []string{}
	}
	return append([]string(nil), names...)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
