package sync

import (
	"time"

	"github.com/google/uuid"

	"booktracker/pkg/models"
)

const (
	EventBookCreated   = "book.created"
	EventBookPurchased = "book.purchased"
	EventBookStatus    = "book.status"
)

// BookEvent tells connected clients that a book changed and views should be re-fetched.
type BookEvent struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	BookID int64     `json:"book_id"`
	Title  string    `json:"title,omitempty"`
	Status string    `json:"status,omitempty"`
	At     time.Time `json:"at"`
}

func NewBookEvent(kind string, b models.Book) BookEvent {
	return BookEvent{
		ID:     uuid.NewString(),
		Type:   kind,
		BookID: b.ID,
		Title:  b.Title,
		Status: b.StatusName(),
		At:     time.Now().UTC(),
	}
}
