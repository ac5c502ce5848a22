package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"booktracker/pkg/models"
)

func (r *Repo) Authors(ctx context.Context) ([]models.Author, error) {
	out := []models.Author{}
	if err := r.DB.SelectContext(ctx, &out, `SELECT id, name FROM authors ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return out, nil
}

func (r *Repo) Genres(ctx context.Context) ([]models.Genre, error) {
	out := []models.Genre{}
	if err := r.DB.SelectContext(ctx, &out, `SELECT id, name FROM genres ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return out, nil
}

// FinishedRelations returns the (author, genre) pair of every finished book.
// Duplicates are kept; the client deduplicates.
func (r *Repo) FinishedRelations(ctx context.Context) ([]models.Relation, error) {
	query, args, err := sqlx.In(`
		SELECT a.name AS author, g.name AS genre
		FROM books b
		JOIN authors a ON a.id = b.author_id
		JOIN genres g ON g.id = b.genre_id
		JOIN statuses s ON s.id = b.status_id
		WHERE s.name IN (?)
		ORDER BY b.id ASC
	`, models.FinishedStatuses)
	if err != nil {
		return nil, fmt.Errorf("expand status list: %w", err)
	}

	var rows []struct {
		Author string `db:"author"`
		Genre  string `db:"genre"`
	}
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}

	out := make([]models.Relation, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Relation{
			Author: models.NameRef{Name: row.Author},
			Genre:  models.NameRef{Name: row.Genre},
		})
	}
	return out, nil
}
