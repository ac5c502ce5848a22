// Package client talks to the book tracker API and holds the dashboard view
// state shared by the CLI and the terminal UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"booktracker/pkg/models"
)

const DefaultBaseURL = "http://localhost:3000"

// APIError is a non-2xx response carrying the server's {"error": ...} message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

type API struct {
	BaseURL string
	HTTP    *http.Client
}

func NewAPI(baseURL string) *API {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type BookRequest struct {
	Title  string `json:"titulo"`
	Author string `json:"autor"`
	Genre  string `json:"genero"`
	ISBN   string `json:"isbn,omitempty"`
	Status string `json:"estado,omitempty"`
}

type PurchaseRequest struct {
	BookID   int64           `json:"idLibro"`
	Price    decimal.Decimal `json:"precio"`
	Store    string          `json:"tienda"`
	Referral string          `json:"referido,omitempty"`
}

type FinishedRequest struct {
	Page   int
	Author string
	Genre  string
	Order  string
}

func (r FinishedRequest) query() string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(r.Page))
	v.Set("autor", r.Author)
	v.Set("genero", r.Genre)
	v.Set("orden", r.Order)
	return v.Encode()
}

func (a *API) Dashboard(ctx context.Context) (models.Dashboard, error) {
	var out models.Dashboard
	err := a.doJSON(ctx, http.MethodGet, "/api/dashboard", nil, &out)
	return out, err
}

func (a *API) CreateBook(ctx context.Context, req BookRequest) (*models.Book, error) {
	var out models.Book
	if err := a.doJSON(ctx, http.MethodPost, "/api/libros", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) RegisterPurchase(ctx context.Context, req PurchaseRequest) (*models.Book, error) {
	var out models.Book
	if err := a.doJSON(ctx, http.MethodPost, "/api/compra", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) SetStatus(ctx context.Context, bookID int64, status string) (*models.Book, error) {
	var out models.Book
	path := fmt.Sprintf("/api/libros/%d/status", bookID)
	if err := a.doJSON(ctx, http.MethodPatch, path, map[string]string{"nuevoStatus": status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Finished(ctx context.Context, req FinishedRequest) (models.FinishedPage, error) {
	var out models.FinishedPage
	err := a.doJSON(ctx, http.MethodGet, "/api/libros/leidos?"+req.query(), nil, &out)
	return out, err
}

func (a *API) Auxiliary(ctx context.Context) (models.AuxData, error) {
	var out models.AuxData
	err := a.doJSON(ctx, http.MethodGet, "/api/datos-generales", nil, &out)
	return out, err
}

func (a *API) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// WebsocketURL turns an http(s) base URL into the ws(s) URL of path.
func WebsocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}
