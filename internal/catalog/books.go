package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"booktracker/pkg/models"
)

// NewBook is the input for CreateBook. Status must already be defaulted by the caller.
type NewBook struct {
	Title  string
	ISBN   *string
	Author string
	Genre  string
	Status string
}

const bookSelect = `
	SELECT b.id, b.title, b.isbn, b.author_id, b.genre_id, b.status_id, b.purchase_id,
	       a.name, g.name, s.name,
	       r.id, r.score,
	       p.price, p.referral, p.store_id, st.name
	FROM books b
	JOIN authors a ON a.id = b.author_id
	JOIN genres g ON g.id = b.genre_id
	JOIN statuses s ON s.id = b.status_id
	LEFT JOIN ratings r ON r.book_id = b.id
	LEFT JOIN purchases p ON p.id = b.purchase_id
	LEFT JOIN stores st ON st.id = p.store_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (models.Book, error) {
	var (
		b          models.Book
		isbn       sql.NullString
		purchaseID sql.NullInt64
		authorName string
		genreName  string
		statusName string
		ratingID   sql.NullInt64
		score      sql.NullInt64
		price      sql.NullString
		referral   sql.NullString
		storeID    sql.NullInt64
		storeName  sql.NullString
	)

	if err := row.Scan(
		&b.ID, &b.Title, &isbn, &b.AuthorID, &b.GenreID, &b.StatusID, &purchaseID,
		&authorName, &genreName, &statusName,
		&ratingID, &score,
		&price, &referral, &storeID, &storeName,
	); err != nil {
		return b, err
	}

	if isbn.Valid {
		b.ISBN = &isbn.String
	}
	b.Author = &models.Author{ID: b.AuthorID, Name: authorName}
	b.Genre = &models.Genre{ID: b.GenreID, Name: genreName}
	b.Status = &models.Status{ID: b.StatusID, Name: statusName}

	if ratingID.Valid {
		b.Rating = &models.Rating{ID: ratingID.Int64, BookID: b.ID, Score: int(score.Int64)}
	}

	if purchaseID.Valid {
		id := purchaseID.Int64
		b.PurchaseID = &id

		p := &models.Purchase{ID: id, StoreID: storeID.Int64}
		if price.Valid {
			d, err := decimal.NewFromString(price.String)
			if err != nil {
				return b, fmt.Errorf("parse price %q: %w", price.String, err)
			}
			p.Price = d
		}
		if referral.Valid {
			p.Referral = &referral.String
		}
		if storeName.Valid {
			p.Store = &models.Store{ID: storeID.Int64, Name: storeName.String}
		}
		b.Purchase = p
	}

	return b, nil
}

func queryBooks(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) ([]models.Book, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	out := make([]models.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func getBook(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Book, error) {
	row := q.QueryRowxContext(ctx, bookSelect+` WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return &b, nil
}

// GetBook returns the book with its relations, or nil if it does not exist.
func (r *Repo) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	return getBook(ctx, r.DB, id)
}

// ListByStatus returns every book whose status is one of names, oldest first.
func (r *Repo) ListByStatus(ctx context.Context, names ...string) ([]models.Book, error) {
	if len(names) == 0 {
		return []models.Book{}, nil
	}
	query, args, err := sqlx.In(bookSelect+` WHERE s.name IN (?) ORDER BY b.id ASC`, names)
	if err != nil {
		return nil, fmt.Errorf("expand status list: %w", err)
	}
	return queryBooks(ctx, r.DB, r.DB.Rebind(query), args...)
}

// AllBooks returns the whole catalogue ordered by id.
func (r *Repo) AllBooks(ctx context.Context) ([]models.Book, error) {
	return queryBooks(ctx, r.DB, bookSelect+` ORDER BY b.id ASC`)
}

// CreateBook resolves the author, genre and status by name and inserts the book.
func (r *Repo) CreateBook(ctx context.Context, nb NewBook) (*models.Book, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create book: %w", err)
	}
	defer tx.Rollback()

	authorID, err := findOrCreateByName(ctx, tx, Authors, nb.Author)
	if err != nil {
		return nil, err
	}
	genreID, err := findOrCreateByName(ctx, tx, Genres, nb.Genre)
	if err != nil {
		return nil, err
	}
	statusID, err := findOrCreateByName(ctx, tx, Statuses, nb.Status)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO books (title, isbn, author_id, genre_id, status_id)
		VALUES (?, ?, ?, ?, ?)
	`, nb.Title, nb.ISBN, authorID, genreID, statusID)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	b, err := getBook(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create book: %w", err)
	}
	return b, nil
}

// SetStatus points the book at the named status, creating the status if needed.
// Any transition is accepted.
func (r *Repo) SetStatus(ctx context.Context, bookID int64, status string) (*models.Book, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin set status: %w", err)
	}
	defer tx.Rollback()

	statusID, err := findOrCreateByName(ctx, tx, Statuses, status)
	if err != nil {
		return nil, err
	}

	if err := updateBook(ctx, tx, `UPDATE books SET status_id = ? WHERE id = ?`, statusID, bookID); err != nil {
		return nil, err
	}

	b, err := getBook(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit set status: %w", err)
	}
	return b, nil
}

func updateBook(ctx context.Context, tx *sqlx.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update book rows: %w", err)
	}
	if affected == 0 {
		return ErrBookNotFound
	}
	return nil
}
