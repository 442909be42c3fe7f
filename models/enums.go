package models

// Category is the closed set of catalog categories.
type Category string

const (
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategoryBakery     Category = "bakery"
	CategoryBeverages  Category = "beverages"
	CategorySnacks     Category = "snacks"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFruits, CategoryVegetables, CategoryDairy, CategoryMeat,
	CategoryBakery, CategoryBeverages, CategorySnacks,
}

func (c Category) IsValid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Unit is the selling unit of a product.
type Unit string

const (
	UnitKg    Unit = "kg"
	UnitGram  Unit = "gm"
	UnitLiter Unit = "liter"
	UnitMl    Unit = "ml"
	UnitPiece Unit = "piece"
	UnitPack  Unit = "pack"
	UnitDozen Unit = "dozen"
)

func (u Unit) IsValid() bool {
	switch u {
	case UnitKg, UnitGram, UnitLiter, UnitMl, UnitPiece, UnitPack, UnitDozen:
		return true
	default:
		return false
	}
}

// PaymentMethod is recorded on the order; no payment is processed.
type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (p PaymentMethod) IsValid() bool {
	return p == PaymentCard || p == PaymentCashOnDelivery
}

// Role of an authenticated user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)
