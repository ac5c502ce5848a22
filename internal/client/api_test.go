package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktracker/internal/catalog"
	"booktracker/internal/lifecycle"
	synchub "booktracker/internal/sync"
	"booktracker/pkg/database"
	"booktracker/pkg/models"
)

func newTestServer(t *testing.T) (*API, *synchub.Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "client.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	hub := synchub.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := lifecycle.New(catalog.NewRepo(db), hub, nil, nil)

	r := gin.New()
	lifecycle.NewHandler(svc, nil).RegisterRoutes(r.Group("/api"))
	r.GET("/ws", synchub.WSHandler(hub))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL, err := WebsocketURL(srv.URL, "/ws")
	require.NoError(t, err)
	return NewAPI(srv.URL), hub, wsURL
}

func TestAPI_RoundTrip(t *testing.T) {
	api, _, _ := newTestServer(t)
	ctx := context.Background()

	b, err := api.CreateBook(ctx, BookRequest{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWishlist, b.StatusName())

	req, err := PurchaseForm{BookID: b.ID, Price: "15,99", Store: "Amazon"}.Request()
	require.NoError(t, err)
	b, err = api.RegisterPurchase(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.StatusName())

	_, err = api.SetStatus(ctx, b.ID, models.StatusReading)
	require.NoError(t, err)
	_, err = api.SetStatus(ctx, b.ID, models.StatusFinished)
	require.NoError(t, err)

	d, err := api.Dashboard(ctx)
	require.NoError(t, err)
	require.Len(t, d.Finished, 1)
	assert.Empty(t, d.Pending)

	page, err := api.Finished(ctx, FinishedRequest{Page: 1, Author: "Frank Herbert", Order: OrderRecent})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Sci-Fi", page.Data[0].GenreName())

	aux, err := api.Auxiliary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Relation{rel("Frank Herbert", "Sci-Fi")}, aux.Relations)
}

func TestAPI_ErrorBody(t *testing.T) {
	api, _, _ := newTestServer(t)

	_, err := api.RegisterPurchase(context.Background(), PurchaseRequest{BookID: 9, Price: decimal.NewFromInt(3), Store: "X"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Libro no encontrado", apiErr.Message)
}

func TestPurchaseForm_Request(t *testing.T) {
	tests := []struct {
		name string
		form PurchaseForm
		err  error
	}{
		{"no book", PurchaseForm{Price: "10", Store: "A"}, ErrNoBookSelected},
		{"no price", PurchaseForm{BookID: 1, Store: "A"}, ErrPurchaseMissing},
		{"no store", PurchaseForm{BookID: 1, Price: "10", Store: " "}, ErrPurchaseMissing},
		{"garbage price", PurchaseForm{BookID: 1, Price: "diez", Store: "A"}, ErrPriceInvalid},
		{"zero price", PurchaseForm{BookID: 1, Price: "0", Store: "A"}, ErrPriceInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.Request()
			assert.ErrorIs(t, err, tt.err)
		})
	}

	req, err := PurchaseForm{BookID: 1, Price: " 12.50 ", Store: " Amazon ", Referral: " "}.Request()
	require.NoError(t, err)
	assert.True(t, req.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "Amazon", req.Store)
	assert.Empty(t, req.Referral)
}

func TestBookForm_Request(t *testing.T) {
	_, err := BookForm{Title: "Dune"}.Request()
	assert.ErrorIs(t, err, ErrBookMissing)

	f := NewBookForm()
	f.Title, f.Author, f.Genre = " Dune ", "Frank Herbert", "Sci-Fi"
	req, err := f.Request()
	require.NoError(t, err)
	assert.Equal(t, "Dune", req.Title)
	assert.Equal(t, models.StatusWishlist, req.Status)
}

func TestWebsocketURL(t *testing.T) {
	u, err := WebsocketURL("https://books.example.com/base/", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "wss://books.example.com/base/ws", u)

	u, err = WebsocketURL("http://localhost:3000", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:3000/ws", u)
}

func TestWatch_DeliversBookEvents(t *testing.T) {
	api, hub, wsURL := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan synchub.BookEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, wsURL, func(ev synchub.BookEvent) { events <- ev })
	}()

	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err := api.CreateBook(ctx, BookRequest{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi"})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, synchub.EventBookCreated, ev.Type)
		assert.True(t, strings.HasPrefix(ev.Type, "book."))
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop")
	}
}
