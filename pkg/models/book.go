package models

// Lifecycle status names. The catalog accepts any status name; these are the
// ones the dashboard buckets and the client actions know about.
const (
	StatusWishlist = "WISHLIST"
	StatusPending  = "PENDIENTE LEER"
	StatusReading  = "LEYENDO"
	StatusFinished = "TERMINADO"
	StatusRated    = "VALORADO"
)

// FinishedStatuses are the statuses eligible for the finished listing and rating display.
var FinishedStatuses = []string{StatusFinished, StatusRated}

// IsFinished reports whether a status name counts as finished.
func IsFinished(status string) bool {
	for _, s := range FinishedStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Author struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"nombre" db:"name"`
}

type Genre struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"nombre" db:"name"`
}

type Status struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"nombre" db:"name"`
}

// Book is a tracked title with its lookup relations expanded.
type Book struct {
	ID         int64   `json:"id"`
	Title      string  `json:"titulo"`
	ISBN       *string `json:"isbn"`
	AuthorID   int64   `json:"idAutor"`
	GenreID    int64   `json:"idGenero"`
	StatusID   int64   `json:"idStatus"`
	PurchaseID *int64  `json:"idCompra"`

	Author   *Author   `json:"autor,omitempty"`
	Genre    *Genre    `json:"genero,omitempty"`
	Status   *Status   `json:"status,omitempty"`
	Rating   *Rating   `json:"valoracion"`
	Purchase *Purchase `json:"compra,omitempty"`
}

// StatusName returns the current status name, or "" when the relation is not loaded.
func (b Book) StatusName() string {
	if b.Status == nil {
		return ""
	}
	return b.Status.Name
}

// AuthorName returns the author name, or "" when the relation is not loaded.
func (b Book) AuthorName() string {
	if b.Author == nil {
		return ""
	}
	return b.Author.Name
}

// GenreName returns the genre name, or "" when the relation is not loaded.
func (b Book) GenreName() string {
	if b.Genre == nil {
		return ""
	}
	return b.Genre.Name
}
