package models

// Rating is the score attached to a finished book.
type Rating struct {
	ID     int64 `json:"id"`
	BookID int64 `json:"idLibro"`
	Score  int   `json:"puntuacion"`
}
