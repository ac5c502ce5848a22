package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"booktracker/internal/catalog"
	"booktracker/pkg/database"
	"booktracker/pkg/models"
	"booktracker/pkg/utils"
)

var csvHeader = []string{"id", "titulo", "autor", "genero", "isbn", "estado", "precio", "tienda", "referido", "puntuacion"}

// bookRecord is one exported book, flat enough for CSV and YAML alike.
type bookRecord struct {
	ID       int64  `yaml:"id"`
	Title    string `yaml:"titulo"`
	Author   string `yaml:"autor"`
	Genre    string `yaml:"genero"`
	ISBN     string `yaml:"isbn,omitempty"`
	Status   string `yaml:"estado"`
	Price    string `yaml:"precio,omitempty"`
	Store    string `yaml:"tienda,omitempty"`
	Referral string `yaml:"referido,omitempty"`
	Rating   int    `yaml:"puntuacion,omitempty"`
}

func main() {
	var (
		out    = flag.String("out", "data/books.csv", "output path")
		format = flag.String("format", "csv", "csv or yaml")
	)
	flag.Parse()

	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(cfg.Database())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	books, err := catalog.NewRepo(db).AllBooks(ctx)
	if err != nil {
		log.Fatalf("load books failed: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()

	if err := exportBooks(f, books, *format); err != nil {
		log.Fatalf("export failed: %v", err)
	}

	log.Printf("✅ exported %d books to %s", len(books), *out)
}

func toRecord(b models.Book) bookRecord {
	rec := bookRecord{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.AuthorName(),
		Genre:  b.GenreName(),
		Status: b.StatusName(),
	}
	if b.ISBN != nil {
		rec.ISBN = *b.ISBN
	}
	if p := b.Purchase; p != nil {
		rec.Price = p.Price.String()
		if p.Store != nil {
			rec.Store = p.Store.Name
		}
		if p.Referral != nil {
			rec.Referral = *p.Referral
		}
	}
	if b.Rating != nil {
		rec.Rating = b.Rating.Score
	}
	return rec
}

func exportBooks(w io.Writer, books []models.Book, format string) error {
	records := make([]bookRecord, 0, len(books))
	for _, b := range books {
		records = append(records, toRecord(b))
	}

	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "csv":
		return writeCSV(w, records)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeCSV(w io.Writer, records []bookRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		rating := ""
		if r.Rating > 0 {
			rating = strconv.Itoa(r.Rating)
		}
		if err := cw.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			r.Author,
			r.Genre,
			r.ISBN,
			r.Status,
			r.Price,
			r.Store,
			r.Referral,
			rating,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
