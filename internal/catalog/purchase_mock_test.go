package catalog

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPurchase_RollsBackWhenBookMissing(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	r := NewRepo(sqlx.NewDb(mockDB, "sqlmock"))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO stores").WithArgs("Amazon").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id FROM stores").WithArgs("Amazon").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("INSERT INTO purchases").WithArgs("15.99", nil, int64(1)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO statuses").WithArgs("PENDIENTE LEER").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectQuery("SELECT id FROM statuses").WithArgs("PENDIENTE LEER").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectExec("UPDATE books SET purchase_id").WithArgs(int64(7), int64(2), int64(55)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = r.RegisterPurchase(context.Background(), NewPurchase{
		BookID: 55,
		Price:  decimal.RequireFromString("15.99"),
		Store:  "Amazon",
	})
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
