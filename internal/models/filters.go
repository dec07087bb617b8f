package models

import "fmt"

// SetType narrows browsing to sets, single books, or both.
type SetType string

const (
	SetTypeAll        SetType = "all"
	SetTypeFullSet    SetType = "full-set"
	SetTypeIndividual SetType = "individual"
)

// ParseSetType accepts "", "all", "full-set" and "individual". Anything else is an error.
func ParseSetType(s string) (SetType, error) {
	switch SetType(s) {
	case "", SetTypeAll:
		return SetTypeAll, nil
	case SetTypeFullSet, SetTypeIndividual:
		return SetType(s), nil
	}
	return "", fmt.Errorf("unknown set type %q", s)
}

// SortKey selects the catalog ordering.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
)

// ParseSortKey maps unknown or empty keys to SortNewest.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortPriceLow, SortPriceHigh:
		return SortKey(s)
	}
	return SortNewest
}

const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 10000
)

// Filters are the browse-page facets. They are ANDed together.
type Filters struct {
	PriceRange [2]float64  `json:"price_range"`
	Quality    []Condition `json:"quality"`
	SetType    SetType     `json:"set_type"`
}

// DefaultFilters returns the initial browse state: full price range, any quality, any set type.
func DefaultFilters() Filters {
	return Filters{
		PriceRange: [2]float64{DefaultMinPrice, DefaultMaxPrice},
		SetType:    SetTypeAll,
	}
}
