package product

import "github.com/shopspring/decimal"

// Product is the catalogue payload a cart line is built from. Stock is the
// quantity available when the payload was fetched.
type Product struct {
	ID       string          `json:"_id" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock" validate:"gte=0"`
	Unit     string          `json:"unit"`
	Image    string          `json:"image"`
	SellerID string          `json:"seller"`
}
