// Package catalog is the relational store behind the book lifecycle: lookup
// entities (authors, genres, statuses, stores), books, purchases and ratings.
package catalog

import (
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrBookNotFound is returned when an update targets a book id that does not exist.
var ErrBookNotFound = errors.New("book not found")

type Repo struct {
	DB *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{DB: db}
}
