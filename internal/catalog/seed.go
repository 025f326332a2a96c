package catalog

import (
	"fmt"
	"math/big"

	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/domain"
)

// OpenEndWrenchSizes are the stock open end wrench sizes.
var OpenEndWrenchSizes = []string{
	"6x7 mm",
	"8x9 mm",
	"10x11 mm",
	"12x13 mm",
	"14x15 mm",
	"16x17 mm",
	"18x19 mm",
	"20x22 mm",
	"24x27 mm",
	"30x32 mm",
}

const openEndWrenchBasePrice = 150

// OpenEndWrenchProducts builds one input per stock size, all sharing the
// photo at imageURL.
func OpenEndWrenchProducts(imageURL string) []domain.ProductInput {
	inputs := make([]domain.ProductInput, 0, len(OpenEndWrenchSizes))
	for _, size := range OpenEndWrenchSizes {
		inputs = append(inputs, domain.ProductInput{
			Name: "Open End Wrench " + size,
			Description: fmt.Sprintf("Professional quality open end wrench size %s. "+
				"Double-ended design for versatile use. "+
				"Chrome-vanadium steel construction for durability and strength.", size),
			Price:   big.NewInt(openEndWrenchBasePrice),
			Photo:   blob.FromURL(imageURL),
			Gallery: []blob.Blob{},
		})
	}
	return inputs
}
