package catalog

import (
	"math"
	"strconv"
	"strings"
)

// CurrencySymbol prefixes every displayed price. There is no multi-currency support.
var CurrencySymbol = "₹"

// FormatPrice renders amount as "₹5,500". Fractions are shown with two digits only when present.
func FormatPrice(amount float64) string {
	neg := amount < 0
	amount = math.Abs(amount)
	cents := int64(math.Round(amount * 100))
	whole, frac := cents/100, cents%100

	digits := strconv.FormatInt(whole, 10)
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	sb.WriteString(CurrencySymbol)
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	if frac != 0 {
		sb.WriteByte('.')
		if frac < 10 {
			sb.WriteByte('0')
		}
		sb.WriteString(strconv.FormatInt(frac, 10))
	}
	return sb.String()
}
