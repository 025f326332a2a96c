package catalog

import (
	"math/big"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mrops-br/hardware-storefront/internal/domain"
)

const currencySymbol = "₹"

var pricePrinter = message.NewPrinter(language.MustParse("en-IN"))

// PriceLabel formats the display price with locale digit grouping.
func PriceLabel(p *domain.Product) string {
	return FormatPrice(DisplayPrice(p))
}

// FormatPrice formats a whole-number amount. Amounts beyond int64 are
// printed without grouping.
func FormatPrice(amount *big.Int) string {
	if amount == nil {
		amount = new(big.Int)
	}
	if !amount.IsInt64() {
		return currencySymbol + amount.String()
	}
	return pricePrinter.Sprintf("%s%d", currencySymbol, amount.Int64())
}

// LineTotal multiplies a unit price by quantity. Quantities below one
// count as one.
func LineTotal(p *domain.Product, quantity int64) *big.Int {
	if quantity < 1 {
		quantity = 1
	}
	return new(big.Int).Mul(DisplayPrice(p), big.NewInt(quantity))
}
