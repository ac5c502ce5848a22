package models

// Dashboard groups books by lifecycle bucket.
type Dashboard struct {
	Reading  []Book `json:"leyendo"`
	Wishlist []Book `json:"wishlist"`
	Finished []Book `json:"leidos"`
	Pending  []Book `json:"pendientes"`
}

// FinishedPage is one page of the finished-books listing.
type FinishedPage struct {
	Data       []Book `json:"data"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
}

// NameRef is a relation projected down to its name.
type NameRef struct {
	Name string `json:"nombre"`
}

// Relation is the (author, genre) pair of one finished book.
type Relation struct {
	Author NameRef `json:"autor"`
	Genre  NameRef `json:"genero"`
}

// AuxData feeds form suggestions and the cascading filters.
type AuxData struct {
	Authors   []Author   `json:"autores"`
	Genres    []Genre    `json:"generos"`
	Relations []Relation `json:"relaciones"`
}
