// Package catalog holds the pure listing logic behind the browse and detail pages:
// search, facet filtering, sorting and presentation helpers.
package catalog

import (
	"sort"
	"strings"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
)

// FilterAndSort returns the listings matching query and filters, ordered by key.
// The input slice is never modified. Equal sort keys keep their input order.
func FilterAndSort(listings []models.Listing, query string, filters models.Filters, key models.SortKey) []models.Listing {
	needle := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if matchesQuery(&l, needle) && matchesFilters(&l, filters) {
			out = append(out, l)
		}
	}

	sortListings(out, key)
	return out
}

func matchesQuery(l *models.Listing, needle string) bool {
	if needle == "" {
		return true
	}
	if containsFold(l.Title, needle) || (l.Description != nil && containsFold(*l.Description, needle)) {
		return true
	}
	for _, lb := range l.Books {
		b := lb.Book
		if containsFold(b.Title, needle) ||
			(b.Author != nil && containsFold(*b.Author, needle)) ||
			(b.CourseCode != nil && containsFold(*b.CourseCode, needle)) {
			return true
		}
	}
	return false
}

// containsFold expects needle to be lower case already.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}

func matchesFilters(l *models.Listing, f models.Filters) bool {
	if l.Price < f.PriceRange[0] || l.Price > f.PriceRange[1] {
		return false
	}
	if len(f.Quality) > 0 && !containsCondition(f.Quality, l.Condition) {
		return false
	}
	switch f.SetType {
	case models.SetTypeFullSet:
		return l.IsSet
	case models.SetTypeIndividual:
		return !l.IsSet
	}
	return true
}

func containsCondition(set []models.Condition, c models.Condition) bool {
	for _, q := range set {
		if q == c {
			return true
		}
	}
	return false
}

func sortListings(ls []models.Listing, key models.SortKey) {
	var less func(i, j int) bool
	switch key {
	case models.SortPriceLow:
		less = func(i, j int) bool { return ls[i].Price < ls[j].Price }
	case models.SortPriceHigh:
		less = func(i, j int) bool { return ls[i].Price > ls[j].Price }
	default:
		less = func(i, j int) bool { return ls[i].CreatedAt.After(ls[j].CreatedAt) }
	}
	sort.SliceStable(ls, less)
}
