package models

import "github.com/shopspring/decimal"

type Store struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"nombre" db:"name"`
}

// Purchase records buying a book. A purchase is linked to exactly one book.
type Purchase struct {
	ID       int64           `json:"id"`
	Price    decimal.Decimal `json:"precio"`
	Referral *string         `json:"referido"`
	StoreID  int64           `json:"idTienda"`
	Store    *Store          `json:"tienda,omitempty"`
}
