package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"booktracker/pkg/models"
)

// NewPurchase is the input for RegisterPurchase.
type NewPurchase struct {
	BookID   int64
	Price    decimal.Decimal
	Store    string
	Referral *string
}

// RegisterPurchase ensures the store, records the purchase and moves the book
// to PENDIENTE LEER, all in one transaction. If the book does not exist
// nothing is committed and ErrBookNotFound is returned.
func (r *Repo) RegisterPurchase(ctx context.Context, np NewPurchase) (*models.Book, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin purchase: %w", err)
	}
	defer tx.Rollback()

	storeID, err := findOrCreateByName(ctx, tx, Stores, np.Store)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (price, referral, store_id)
		VALUES (?, ?, ?)
	`, np.Price.String(), np.Referral, storeID)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	purchaseID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	statusID, err := findOrCreateByName(ctx, tx, Statuses, models.StatusPending)
	if err != nil {
		return nil, err
	}

	if err := updateBook(ctx, tx, `
		UPDATE books SET purchase_id = ?, status_id = ? WHERE id = ?
	`, purchaseID, statusID, np.BookID); err != nil {
		return nil, err
	}

	b, err := getBook(ctx, tx, np.BookID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}
	return b, nil
}
