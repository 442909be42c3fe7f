package services

import "go-grocery/models"

// ValidateStock fails with KindInsufficientStock when requested exceeds
// the product's live stock.
func ValidateStock(p models.Product, requested int) error {
	if requested > p.Stock {
		return insufficientStock(p.Name, p.Stock)
	}
	return nil
}
