package domain

import "time"

type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "ACTIVE"
	ProductStatusInactive     ProductStatus = "INACTIVE"
	ProductStatusDiscontinued ProductStatus = "DISCONTINUED"
)

type Product struct {
	ID        int
	SKU       string
	Name      string
	Status    ProductStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Product) IsSellable() bool {
	return p.Status == ProductStatusActive
}
