package client

import (
	"sort"

	"booktracker/pkg/models"
)

// Finished listing sort keys, mirrored from the server.
const (
	OrderRecent       = "reciente"
	OrderOldest       = "antiguo"
	OrderAlphabetical = "alfabetico"
)

// Orders is the cycle order used by the TUI.
var Orders = []string{OrderRecent, OrderOldest, OrderAlphabetical}

type Filters struct {
	Author string `json:"autor"`
	Genre  string `json:"genero"`
	Order  string `json:"orden"`
}

func DefaultFilters() Filters {
	return Filters{Order: OrderRecent}
}

// ViewState is everything the dashboard shows. It is only changed by Reduce.
type ViewState struct {
	Dashboard models.Dashboard    `json:"dashboard"`
	Finished  models.FinishedPage `json:"finished"`
	Aux       models.AuxData      `json:"aux"`
	Filters   Filters             `json:"filters"`
	Page      int                 `json:"page"`

	// Generation identifies the latest finished-list request; older responses are ignored.
	Generation uint64 `json:"generation"`
	Loading    bool   `json:"loading"`
	Err        string `json:"error,omitempty"`

	// Cursor indexes Actionable(): pending books first, then reading.
	Cursor   int          `json:"cursor"`
	BookForm BookForm     `json:"book_form"`
	Purchase PurchaseForm `json:"purchase"`
}

func NewViewState() ViewState {
	return ViewState{
		Filters:  DefaultFilters(),
		Page:     1,
		Loading:  true,
		BookForm: NewBookForm(),
	}
}

// Actionable lists the books the user can advance from the dashboard.
func (s ViewState) Actionable() []models.Book {
	out := make([]models.Book, 0, len(s.Dashboard.Pending)+len(s.Dashboard.Reading))
	out = append(out, s.Dashboard.Pending...)
	return append(out, s.Dashboard.Reading...)
}

// Selected returns the book under the cursor.
func (s ViewState) Selected() (models.Book, bool) {
	books := s.Actionable()
	if s.Cursor < 0 || s.Cursor >= len(books) {
		return models.Book{}, false
	}
	return books[s.Cursor], true
}

// NextStatus is the forward move offered for b: pending starts reading and
// reading finishes. Other statuses have no shortcut.
func NextStatus(b models.Book) (string, bool) {
	switch b.StatusName() {
	case models.StatusPending:
		return models.StatusReading, true
	case models.StatusReading:
		return models.StatusFinished, true
	}
	return "", false
}

// Action is a state transition request.
type Action interface{ isAction() }

type (
	SetAuthorFilter struct{ Author string }
	SetGenreFilter  struct{ Genre string }
	SetOrder        struct{ Order string }
	ClearFilters    struct{}
	NextPage        struct{}
	PrevPage        struct{}
	MoveCursor      struct{ Delta int }
	Refresh         struct{}

	DashboardLoaded struct{ Dashboard models.Dashboard }
	FinishedLoaded  struct {
		Generation uint64
		Page       models.FinishedPage
	}
	AuxLoaded struct{ Aux models.AuxData }
	// FetchFailed reports a failed request. Generation is set for finished-list
	// fetches so stale failures can be dropped like stale results.
	FetchFailed struct {
		Generation uint64
		Err        string
	}
	// BookMutated follows any successful create, purchase or status change.
	BookMutated struct{}
)

func (SetAuthorFilter) isAction() {}
func (SetGenreFilter) isAction()  {}
func (SetOrder) isAction()        {}
func (ClearFilters) isAction()    {}
func (NextPage) isAction()        {}
func (PrevPage) isAction()        {}
func (MoveCursor) isAction()      {}
func (Refresh) isAction()         {}
func (DashboardLoaded) isAction() {}
func (FinishedLoaded) isAction()  {}
func (AuxLoaded) isAction()       {}
func (FetchFailed) isAction()     {}
func (BookMutated) isAction()     {}

// Effect is a request the caller must perform after a transition.
type Effect interface{ isEffect() }

type (
	FetchDashboard struct{}
	FetchAux       struct{}
	FetchFinished  struct {
		Generation uint64
		Request    FinishedRequest
	}
)

func (FetchDashboard) isEffect() {}
func (FetchAux) isEffect()       {}
func (FetchFinished) isEffect()  {}

// Reduce applies a to s. It never performs I/O; the returned effects say
// which requests to issue next.
func Reduce(s ViewState, a Action) (ViewState, []Effect) {
	switch a := a.(type) {
	case SetAuthorFilter:
		s.Filters.Author = a.Author
		s.Page = 1
		return fetchFinished(s)
	case SetGenreFilter:
		s.Filters.Genre = a.Genre
		s.Page = 1
		return fetchFinished(s)
	case SetOrder:
		s.Filters.Order = a.Order
		return fetchFinished(s)
	case ClearFilters:
		s.Filters = DefaultFilters()
		s.Page = 1
		return fetchFinished(s)
	case NextPage:
		if s.Page >= s.Finished.TotalPages {
			return s, nil
		}
		s.Page++
		return fetchFinished(s)
	case PrevPage:
		if s.Page <= 1 {
			return s, nil
		}
		s.Page--
		return fetchFinished(s)
	case MoveCursor:
		n := len(s.Actionable())
		if n == 0 {
			s.Cursor = 0
			return s, nil
		}
		s.Cursor = ((s.Cursor+a.Delta)%n + n) % n
		return s, nil
	case Refresh:
		return refreshAll(s)
	case BookMutated:
		s.Purchase = PurchaseForm{}
		s.BookForm = NewBookForm()
		return refreshAll(s)
	case DashboardLoaded:
		s.Dashboard = a.Dashboard
		s.Loading = false
		s.Err = ""
		if n := len(s.Actionable()); s.Cursor >= n {
			s.Cursor = max(n-1, 0)
		}
		return s, nil
	case FinishedLoaded:
		if a.Generation != s.Generation {
			return s, nil
		}
		s.Finished = a.Page
		s.Err = ""
		return s, nil
	case AuxLoaded:
		s.Aux = a.Aux
		return s, nil
	case FetchFailed:
		if a.Generation != 0 && a.Generation != s.Generation {
			return s, nil
		}
		s.Loading = false
		s.Err = a.Err
		return s, nil
	}
	return s, nil
}

func refreshAll(s ViewState) (ViewState, []Effect) {
	s, eff := fetchFinished(s)
	return s, append([]Effect{FetchDashboard{}, FetchAux{}}, eff...)
}

func fetchFinished(s ViewState) (ViewState, []Effect) {
	s.Generation++
	return s, []Effect{FetchFinished{
		Generation: s.Generation,
		Request: FinishedRequest{
			Page:   s.Page,
			Author: s.Filters.Author,
			Genre:  s.Filters.Genre,
			Order:  s.Filters.Order,
		},
	}}
}

// FilterOptions are the author and genre choices offered by the finished-list filters.
type FilterOptions struct {
	Authors []string
	Genres  []string
}

// DeriveFilterOptions narrows each facet by the other one's selection:
// authors are drawn from relations matching the chosen genre, genres from
// relations matching the chosen author. Both lists are distinct and sorted.
func DeriveFilterOptions(relations []models.Relation, f Filters) FilterOptions {
	authors := map[string]struct{}{}
	genres := map[string]struct{}{}
	for _, r := range relations {
		if f.Genre == "" || r.Genre.Name == f.Genre {
			authors[r.Author.Name] = struct{}{}
		}
		if f.Author == "" || r.Author.Name == f.Author {
			genres[r.Genre.Name] = struct{}{}
		}
	}
	return FilterOptions{Authors: sortedKeys(authors), Genres: sortedKeys(genres)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// cycle returns the option after current, wrapping to "" (no filter) after the last.
func cycle(options []string, current string) string {
	if len(options) == 0 {
		return ""
	}
	if current == "" {
		return options[0]
	}
	for i, o := range options {
		if o == current && i+1 < len(options) {
			return options[i+1]
		}
	}
	return ""
}

// NextAuthor returns the action selecting the next author option.
func NextAuthor(s ViewState) Action {
	opts := DeriveFilterOptions(s.Aux.Relations, s.Filters)
	return SetAuthorFilter{Author: cycle(opts.Authors, s.Filters.Author)}
}

// NextGenre returns the action selecting the next genre option.
func NextGenre(s ViewState) Action {
	opts := DeriveFilterOptions(s.Aux.Relations, s.Filters)
	return SetGenreFilter{Genre: cycle(opts.Genres, s.Filters.Genre)}
}

// NextOrder returns the action selecting the next sort order.
func NextOrder(s ViewState) Action {
	for i, o := range Orders {
		if o == s.Filters.Order {
			return SetOrder{Order: Orders[(i+1)%len(Orders)]}
		}
	}
	return SetOrder{Order: OrderRecent}
}
