package client

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"booktracker/pkg/models"
)

var (
	ErrNoBookSelected  = errors.New("no se sabe qué libro estás comprando")
	ErrPurchaseMissing = errors.New("rellena el precio y la tienda")
	ErrPriceInvalid    = errors.New("el precio debe ser un número mayor que cero")
	ErrBookMissing     = errors.New("título, autor y género son obligatorios")
)

// BookForm buffers the register-book form.
type BookForm struct {
	Title  string
	Author string
	Genre  string
	ISBN   string
	Status string
}

func NewBookForm() BookForm {
	return BookForm{Status: models.StatusWishlist}
}

func (f BookForm) Request() (BookRequest, error) {
	req := BookRequest{
		Title:  strings.TrimSpace(f.Title),
		Author: strings.TrimSpace(f.Author),
		Genre:  strings.TrimSpace(f.Genre),
		ISBN:   strings.TrimSpace(f.ISBN),
		Status: f.Status,
	}
	if req.Title == "" || req.Author == "" || req.Genre == "" {
		return BookRequest{}, ErrBookMissing
	}
	return req, nil
}

// PurchaseForm buffers the purchase form for one wishlist book.
type PurchaseForm struct {
	BookID   int64
	Price    string
	Store    string
	Referral string
}

// Request validates the form the same way the server does before sending it.
func (f PurchaseForm) Request() (PurchaseRequest, error) {
	if f.BookID <= 0 {
		return PurchaseRequest{}, ErrNoBookSelected
	}
	price := strings.TrimSpace(strings.ReplaceAll(f.Price, ",", "."))
	store := strings.TrimSpace(f.Store)
	if price == "" || store == "" {
		return PurchaseRequest{}, ErrPurchaseMissing
	}
	d, err := decimal.NewFromString(price)
	if err != nil || !d.IsPositive() {
		return PurchaseRequest{}, ErrPriceInvalid
	}
	return PurchaseRequest{
		BookID:   f.BookID,
		Price:    d,
		Store:    store,
		Referral: strings.TrimSpace(f.Referral),
	}, nil
}
