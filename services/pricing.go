package services

import (
	"pfw-commerce/models"

	"github.com/shopspring/decimal"
)

// ResolvePrice returns the effective unit price for a product, or for one of
// its variants when variant is non-nil. The discounted price wins when it is
// set and lower than the list price; otherwise the list price applies.
// Missing or malformed prices degrade to zero rather than erroring, so a
// badly entered catalog row can never break the cart or checkout path.
//
// Pure function: callers resolve fresh at cart-display time and again at
// order-creation time, and the two results are allowed to differ.
func ResolvePrice(product *models.Product, variant *models.ProductVariant) decimal.Decimal {
	if variant != nil {
		return effectivePrice(variant.SlashedPrice, variant.MRP)
	}
	return effectivePrice(product.SlashedPrice, product.MRP)
}

func effectivePrice(slashed, mrp string) decimal.Decimal {
	list := parsePrice(mrp)
	if slashed == "" {
		return list
	}
	discounted, err := decimal.NewFromString(slashed)
	if err != nil || discounted.IsNegative() {
		return list
	}
	if list.IsZero() || discounted.LessThan(list) {
		return discounted
	}
	return list
}

func parsePrice(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
