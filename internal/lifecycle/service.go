// Package lifecycle moves books through wishlist, purchase, reading and
// finished, and serves the dashboard views built on top of the catalog.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"booktracker/internal/catalog"
	synchub "booktracker/internal/sync"
	"booktracker/pkg/models"
)

// ErrValidation marks input rejected before reaching the store.
var ErrValidation = errors.New("validation failed")

// Store is the part of the catalog the service needs.
type Store interface {
	ListByStatus(ctx context.Context, names ...string) ([]models.Book, error)
	CreateBook(ctx context.Context, nb catalog.NewBook) (*models.Book, error)
	RegisterPurchase(ctx context.Context, np catalog.NewPurchase) (*models.Book, error)
	SetStatus(ctx context.Context, bookID int64, status string) (*models.Book, error)
	ListFinished(ctx context.Context, q catalog.FinishedQuery) (models.FinishedPage, error)
	Authors(ctx context.Context) ([]models.Author, error)
	Genres(ctx context.Context) ([]models.Genre, error)
	FinishedRelations(ctx context.Context) ([]models.Relation, error)
}

// Publisher receives an event after every successful mutation.
type Publisher interface {
	Publish(ev synchub.BookEvent)
}

// Recorder counts lifecycle activity.
type Recorder interface {
	BookCreated()
	PurchaseRegistered()
	StatusChanged(status string)
	EventPublished(kind string)
}

type CreateBookInput struct {
	Title  string `json:"titulo" validate:"required"`
	Author string `json:"autor" validate:"required"`
	Genre  string `json:"genero" validate:"required"`
	ISBN   string `json:"isbn"`
	Status string `json:"estado"`
}

type PurchaseInput struct {
	BookID   int64           `json:"idLibro" validate:"required,gt=0"`
	Price    decimal.Decimal `json:"precio" validate:"gt=0"`
	Store    string          `json:"tienda" validate:"required"`
	Referral string          `json:"referido"`
}

type StatusInput struct {
	Status string `json:"nuevoStatus" validate:"required"`
}

// FinishedParams are the raw query parameters of the finished listing.
type FinishedParams struct {
	Page   string `form:"page"`
	Author string `form:"autor"`
	Genre  string `form:"genero"`
	Order  string `form:"orden"`
}

type Service struct {
	store    Store
	pub      Publisher
	rec      Recorder
	log      *slog.Logger
	validate *validator.Validate
}

// New builds a Service. pub and rec may be nil.
func New(store Store, pub Publisher, rec Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		pub:      pub,
		rec:      rec,
		log:      logger.With("component", "lifecycle"),
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// compare decimals numerically so gt=0 works on prices
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func (s *Service) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Dashboard reads the four lifecycle buckets concurrently. Any failure fails
// the whole call; buckets are not read in one snapshot.
func (s *Service) Dashboard(ctx context.Context) (models.Dashboard, error) {
	var d models.Dashboard
	g, ctx := errgroup.WithContext(ctx)

	load := func(dst *[]models.Book, names ...string) {
		g.Go(func() error {
			books, err := s.store.ListByStatus(ctx, names...)
			if err != nil {
				return err
			}
			*dst = books
			return nil
		})
	}
	load(&d.Reading, models.StatusReading)
	load(&d.Wishlist, models.StatusWishlist)
	load(&d.Finished, models.FinishedStatuses...)
	load(&d.Pending, models.StatusPending)

	if err := g.Wait(); err != nil {
		return models.Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}
	return d, nil
}

func (s *Service) CreateBook(ctx context.Context, in CreateBookInput) (*models.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Genre = strings.TrimSpace(in.Genre)
	if err := s.check(in); err != nil {
		return nil, err
	}

	nb := catalog.NewBook{
		Title:  in.Title,
		Author: in.Author,
		Genre:  in.Genre,
		Status: strings.TrimSpace(in.Status),
	}
	if nb.Status == "" {
		nb.Status = models.StatusWishlist
	}
	if isbn := strings.TrimSpace(in.ISBN); isbn != "" {
		nb.ISBN = &isbn
	}

	b, err := s.store.CreateBook(ctx, nb)
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	if s.rec != nil {
		s.rec.BookCreated()
	}
	s.emit(synchub.EventBookCreated, *b)
	s.log.Info("book created", "book_id", b.ID, "status", b.StatusName())
	return b, nil
}

// RegisterPurchase records a purchase and moves the book to PENDIENTE LEER.
func (s *Service) RegisterPurchase(ctx context.Context, in PurchaseInput) (*models.Book, error) {
	in.Store = strings.TrimSpace(in.Store)
	if err := s.check(in); err != nil {
		return nil, err
	}

	np := catalog.NewPurchase{
		BookID: in.BookID,
		Price:  in.Price,
		Store:  in.Store,
	}
	if ref := strings.TrimSpace(in.Referral); ref != "" {
		np.Referral = &ref
	}

	b, err := s.store.RegisterPurchase(ctx, np)
	if err != nil {
		return nil, fmt.Errorf("register purchase: %w", err)
	}
	if s.rec != nil {
		s.rec.PurchaseRegistered()
	}
	s.emit(synchub.EventBookPurchased, *b)
	s.log.Info("purchase registered", "book_id", b.ID, "store", in.Store, "price", in.Price.String())
	return b, nil
}

// SetStatus moves a book to any status name. Transitions are not checked.
func (s *Service) SetStatus(ctx context.Context, bookID int64, in StatusInput) (*models.Book, error) {
	in.Status = strings.TrimSpace(in.Status)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if bookID <= 0 {
		return nil, catalog.ErrBookNotFound
	}

	b, err := s.store.SetStatus(ctx, bookID, in.Status)
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	if s.rec != nil {
		s.rec.StatusChanged(in.Status)
	}
	s.emit(synchub.EventBookStatus, *b)
	s.log.Info("status changed", "book_id", b.ID, "status", in.Status)
	return b, nil
}

func (s *Service) ListFinished(ctx context.Context, p FinishedParams) (models.FinishedPage, error) {
	page, err := s.store.ListFinished(ctx, catalog.FinishedQuery{
		Author:   strings.TrimSpace(p.Author),
		Genre:    strings.TrimSpace(p.Genre),
		Order:    p.Order,
		Page:     ParsePage(p.Page),
		PageSize: catalog.DefaultPageSize,
	})
	if err != nil {
		return models.FinishedPage{}, fmt.Errorf("list finished: %w", err)
	}
	return page, nil
}

// Auxiliary returns the form suggestions and the relation snapshot the
// client derives its cascading filters from.
func (s *Service) Auxiliary(ctx context.Context) (models.AuxData, error) {
	var aux models.AuxData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		aux.Authors, err = s.store.Authors(ctx)
		return err
	})
	g.Go(func() (err error) {
		aux.Genres, err = s.store.Genres(ctx)
		return err
	})
	g.Go(func() (err error) {
		aux.Relations, err = s.store.FinishedRelations(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return models.AuxData{}, fmt.Errorf("load auxiliary data: %w", err)
	}
	return aux, nil
}

// ParsePage reads a 1-based page number. Empty, zero or unparsable input
// means page 1; other values pass through unclamped. Numbers too large for
// an int saturate so they still land past the last page.
func ParsePage(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	switch {
	case errors.Is(err, strconv.ErrRange):
		if strings.HasPrefix(raw, "-") {
			return math.MinInt
		}
		return math.MaxInt
	case err != nil || n == 0:
		return 1
	}
	return n
}

func (s *Service) emit(kind string, b models.Book) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(synchub.NewBookEvent(kind, b))
	if s.rec != nil {
		s.rec.EventPublished(kind)
	}
}
