package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"booktracker/internal/catalog"
	"booktracker/internal/lifecycle"
	"booktracker/internal/logger"
	"booktracker/pkg/database"
	"booktracker/pkg/models"
	"booktracker/pkg/utils"
)

func main() {
	in := flag.String("in", "data/books.csv", "input CSV path")
	flag.Parse()

	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg := logger.New(logger.Config{Environment: cfg.Env, Level: cfg.Log.Level})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := database.MustOpen(cfg.Database())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("open %s: %v", *in, err)
	}
	defer f.Close()

	svc := lifecycle.New(catalog.NewRepo(db), nil, nil, lg)
	n, err := importBooks(ctx, svc, f, lg)
	if err != nil {
		log.Fatalf("import books failed: %v", err)
	}

	log.Printf("✅ imported %d books from %s", n, *in)
}

// importBooks replays each CSV row through the lifecycle: create, then
// purchase when price and store are present, then restore the row's explicit
// status since a purchase leaves the book in PENDIENTE LEER. Ratings are not
// imported.
func importBooks(ctx context.Context, svc *lifecycle.Service, src io.Reader, lg *slog.Logger) (int, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	imported := 0
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, err
		}
		if len(row) == 0 {
			continue
		}

		in := lifecycle.CreateBookInput{
			Title:  valueAt(header, row, "titulo"),
			Author: valueAt(header, row, "autor"),
			Genre:  valueAt(header, row, "genero"),
			ISBN:   valueAt(header, row, "isbn"),
			Status: valueAt(header, row, "estado"),
		}
		if in.Title == "" {
			continue
		}

		b, err := svc.CreateBook(ctx, in)
		if err != nil {
			if errors.Is(err, lifecycle.ErrValidation) {
				lg.Warn("skipping row", "line", line, "error", err)
				continue
			}
			return imported, fmt.Errorf("line %d: %w", line, err)
		}

		price, store := valueAt(header, row, "precio"), valueAt(header, row, "tienda")
		if price != "" && store != "" {
			d, err := decimal.NewFromString(price)
			if err != nil {
				return imported, fmt.Errorf("line %d: parse precio: %w", line, err)
			}
			if _, err := svc.RegisterPurchase(ctx, lifecycle.PurchaseInput{
				BookID:   b.ID,
				Price:    d,
				Store:    store,
				Referral: valueAt(header, row, "referido"),
			}); err != nil {
				return imported, fmt.Errorf("line %d: %w", line, err)
			}

			if in.Status != "" && in.Status != models.StatusPending {
				if _, err := svc.SetStatus(ctx, b.ID, lifecycle.StatusInput{Status: in.Status}); err != nil {
					return imported, fmt.Errorf("line %d: %w", line, err)
				}
			}
		}
		imported++
	}

	return imported, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
