package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"booktracker/pkg/models"
)

// DefaultPageSize is the finished-listing page size.
const DefaultPageSize = 5

// Sort keys for the finished listing. Anything else sorts by most recent.
const (
	OrderRecent       = "reciente"
	OrderOldest       = "antiguo"
	OrderAlphabetical = "alfabetico"
)

type FinishedQuery struct {
	Author   string // exact author name, optional
	Genre    string // exact genre name, optional
	Order    string
	Page     int // 1-based, not clamped
	PageSize int
}

// ListFinished returns one page of finished books plus the total match count.
// Count and page are read inside one transaction so they agree with each other.
// Pages outside 1..totalPages yield an empty Data slice.
func (r *Repo) ListFinished(ctx context.Context, q FinishedQuery) (models.FinishedPage, error) {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	out := models.FinishedPage{Data: []models.Book{}, Page: q.Page}

	tx, err := r.DB.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return out, fmt.Errorf("begin list finished: %w", err)
	}
	defer tx.Rollback()

	countSQL, countArgs := buildFinishedSQL(q, true)
	if err := tx.QueryRowxContext(ctx, countSQL, countArgs...).Scan(&out.Total); err != nil {
		return out, fmt.Errorf("count finished: %w", err)
	}
	out.TotalPages = (out.Total + q.PageSize - 1) / q.PageSize

	// Out-of-range pages never reach the OFFSET arithmetic, which would overflow.
	if q.Page >= 1 && q.Page <= out.TotalPages {
		listSQL, listArgs := buildFinishedSQL(q, false)
		books, err := queryBooks(ctx, tx, listSQL, listArgs...)
		if err != nil {
			return out, err
		}
		out.Data = books
	}

	if err := tx.Commit(); err != nil {
		return out, fmt.Errorf("commit list finished: %w", err)
	}
	return out, nil
}

// buildFinishedSQL builds either COUNT(*) or the page SELECT for q.
func buildFinishedSQL(q FinishedQuery, countOnly bool) (string, []any) {
	base := bookSelect
	if countOnly {
		base = `
			SELECT COUNT(*)
			FROM books b
			JOIN authors a ON a.id = b.author_id
			JOIN genres g ON g.id = b.genre_id
			JOIN statuses s ON s.id = b.status_id
		`
	}

	placeholders := make([]string, len(models.FinishedStatuses))
	args := make([]any, 0, len(models.FinishedStatuses)+4)
	for i, s := range models.FinishedStatuses {
		placeholders[i] = "?"
		args = append(args, s)
	}
	where := []string{"s.name IN (" + strings.Join(placeholders, ", ") + ")"}

	if q.Author != "" {
		where = append(where, "a.name = ?")
		args = append(args, q.Author)
	}
	if q.Genre != "" {
		where = append(where, "g.name = ?")
		args = append(args, q.Genre)
	}

	sqlStr := base + " WHERE " + strings.Join(where, " AND ")

	if !countOnly {
		sqlStr += " ORDER BY " + orderClause(q.Order)
		sqlStr += " LIMIT ? OFFSET ?"
		args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	}

	return sqlStr, args
}

func orderClause(order string) string {
	switch order {
	case OrderOldest:
		return "b.id ASC"
	case OrderAlphabetical:
		return "b.title ASC, b.id ASC"
	default:
		return "b.id DESC"
	}
}
