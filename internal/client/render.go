package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"booktracker/pkg/models"
)

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "#00AF00", Dark: "#00D700"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#808080"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}

	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleSection  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleMuted    = lipgloss.NewStyle().Foreground(colorGray)
	styleStars    = lipgloss.NewStyle().Foreground(colorAccent)
	styleSelected = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	styleError    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleBox      = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)
)

// Stars renders a rating score as repeated ★.
func Stars(score int) string {
	if score <= 0 {
		return ""
	}
	return strings.Repeat("★", score)
}

// Render draws the whole dashboard for s. It has no side effects.
func Render(s ViewState) string {
	if s.Loading {
		return "Cargando biblioteca...\n"
	}

	var b strings.Builder
	b.WriteString(styleHeader.Render("Mis libros"))
	b.WriteString("\n")
	if s.Err != "" {
		b.WriteString(styleError.Render("Error: " + s.Err))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	selected, hasSelected := s.Selected()
	isSelected := func(book models.Book) bool {
		return hasSelected && book.ID == selected.ID
	}

	b.WriteString(section(fmt.Sprintf("Leyendo Ahora (%d)", len(s.Dashboard.Reading))))
	for _, book := range s.Dashboard.Reading {
		b.WriteString(bookLine(book, isSelected(book), "[f] terminar"))
	}

	b.WriteString(section(fmt.Sprintf("Pendientes de leer (%d)", len(s.Dashboard.Pending))))
	for _, book := range s.Dashboard.Pending {
		b.WriteString(bookLine(book, isSelected(book), "[s] empezar"))
	}

	b.WriteString(section(fmt.Sprintf("Wishlist (%d)", len(s.Dashboard.Wishlist))))
	for _, book := range s.Dashboard.Wishlist {
		line := "  " + book.Title + styleMuted.Render(" · "+book.AuthorName())
		if g := book.GenreName(); g != "" {
			line += styleMuted.Render(" · " + g)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(section(fmt.Sprintf("Leídos (%d)", s.Finished.Total)))
	b.WriteString(renderFilters(s))
	if len(s.Finished.Data) == 0 {
		b.WriteString(styleMuted.Render("  No hay libros con estos filtros") + "\n")
	}
	for _, book := range s.Finished.Data {
		line := "  " + book.Title + styleMuted.Render(" · "+book.AuthorName())
		if book.Rating != nil {
			line += " " + styleStars.Render(Stars(book.Rating.Score))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(renderPager(s) + "\n")

	return b.String()
}

func section(title string) string {
	return "\n" + styleSection.Render(title) + "\n"
}

func bookLine(book models.Book, selected bool, hint string) string {
	prefix := "  "
	title := book.Title
	if selected {
		prefix = "> "
		title = styleSelected.Render(title)
		return prefix + title + styleMuted.Render(" · "+book.AuthorName()+"  "+hint) + "\n"
	}
	return prefix + title + styleMuted.Render(" · "+book.AuthorName()) + "\n"
}

func renderFilters(s ViewState) string {
	opts := DeriveFilterOptions(s.Aux.Relations, s.Filters)
	author := s.Filters.Author
	if author == "" {
		author = "Todos los Autores"
	}
	genre := s.Filters.Genre
	if genre == "" {
		genre = "Todos los Géneros"
	}
	body := fmt.Sprintf("autor: %s (%d)   género: %s (%d)   orden: %s",
		author, len(opts.Authors), genre, len(opts.Genres), orderLabel(s.Filters.Order))
	return styleBox.Render(body) + "\n"
}

func orderLabel(order string) string {
	switch order {
	case OrderOldest:
		return "Antiguo"
	case OrderAlphabetical:
		return "A-Z"
	default:
		return "Reciente"
	}
}

func renderPager(s ViewState) string {
	prev, next := "< Anterior", "Siguiente >"
	if s.Page <= 1 {
		prev = styleMuted.Render(prev)
	}
	if s.Page >= s.Finished.TotalPages {
		next = styleMuted.Render(next)
	}
	total := s.Finished.TotalPages
	if total == 0 {
		total = 1
	}
	return fmt.Sprintf("  %s  Página %d de %d  %s", prev, s.Page, total, next)
}
