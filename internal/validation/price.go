package validation

import (
	"math"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
)

var conditionMultiplier = map[models.Condition]float64{
	models.ConditionNew:        1.0,
	models.ConditionLikeNew:    0.8,
	models.ConditionGood:       0.6,
	models.ConditionAcceptable: 0.4,
}

// SuggestedPrice is the hint shown next to the price field.
// Unknown or missing conditions price like Good.
func SuggestedPrice(listingType models.ListingType, condition models.Condition) int {
	base := 800.0
	if listingType == models.ListingTypeSet {
		base = 2000
	}
	m, ok := conditionMultiplier[condition]
	if !ok {
		m = 0.6
	}
	return int(math.Round(base * m))
}
