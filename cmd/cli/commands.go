package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"booktracker/internal/client"
	synchub "booktracker/internal/sync"
	"booktracker/pkg/models"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}

// loadView fetches everything the dashboard needs and folds it into a view
// state the same way the TUI does.
func loadView(ctx context.Context, req client.FinishedRequest) (client.ViewState, error) {
	var (
		dash models.Dashboard
		aux  models.AuxData
		page models.FinishedPage
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { dash, err = api.Dashboard(ctx); return err })
	g.Go(func() (err error) { aux, err = api.Auxiliary(ctx); return err })
	g.Go(func() (err error) { page, err = api.Finished(ctx, req); return err })
	if err := g.Wait(); err != nil {
		return client.ViewState{}, err
	}

	s := client.NewViewState()
	s.Filters = client.Filters{Author: req.Author, Genre: req.Genre, Order: req.Order}
	s.Page = req.Page
	s, _ = client.Reduce(s, client.DashboardLoaded{Dashboard: dash})
	s, _ = client.Reduce(s, client.AuxLoaded{Aux: aux})
	s, _ = client.Reduce(s, client.FinishedLoaded{Generation: s.Generation, Page: page})
	return s, nil
}

func newDashboardCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show reading, pending, wishlist and finished books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				d, err := api.Dashboard(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(d)
			}
			s, err := loadView(cmd.Context(), client.FinishedRequest{Page: 1, Order: client.OrderRecent})
			if err != nil {
				return err
			}
			fmt.Print(client.Render(s))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func newAddCmd() *cobra.Command {
	form := client.NewBookForm()
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a book (defaults to the wishlist)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := form.Request()
			if err != nil {
				return err
			}
			b, err := api.CreateBook(cmd.Context(), req)
			if err != nil {
				return err
			}
			ok("added #%d %s (%s)", b.ID, b.Title, b.StatusName())
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Title, "titulo", "", "Title (required)")
	cmd.Flags().StringVar(&form.Author, "autor", "", "Author (required)")
	cmd.Flags().StringVar(&form.Genre, "genero", "", "Genre (required)")
	cmd.Flags().StringVar(&form.ISBN, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&form.Status, "estado", models.StatusWishlist, "Initial status")
	return cmd
}

func newBuyCmd() *cobra.Command {
	var form client.PurchaseForm
	cmd := &cobra.Command{
		Use:   "buy <book-id>",
		Short: "Register a purchase and move the book to PENDIENTE LEER",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			form.BookID = id
			req, err := form.Request()
			if err != nil {
				return err
			}
			b, err := api.RegisterPurchase(cmd.Context(), req)
			if err != nil {
				return err
			}
			ok("bought #%d %s at %s for %s", b.ID, b.Title, req.Store, req.Price.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Price, "precio", "", "Price (required)")
	cmd.Flags().StringVar(&form.Store, "tienda", "", "Store (required)")
	cmd.Flags().StringVar(&form.Referral, "referido", "", "Referral link")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <book-id> <status>",
		Short: "Set a book's status (LEYENDO, TERMINADO, ...)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := api.SetStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			ok("#%d %s is now %s", b.ID, b.Title, b.StatusName())
			return nil
		},
	}
}

func newFinishedCmd() *cobra.Command {
	var (
		req    = client.FinishedRequest{Page: 1, Order: client.OrderRecent}
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "finished",
		Short: "List finished books, five per page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := api.Finished(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(page)
			}
			for _, b := range page.Data {
				line := fmt.Sprintf("#%-4d %s · %s · %s", b.ID, b.Title, b.AuthorName(), b.GenreName())
				if b.Rating != nil {
					line += " " + color.YellowString(client.Stars(b.Rating.Score))
				}
				fmt.Println(line)
			}
			fmt.Println(color.HiBlackString("page %d of %d (%d books)", page.Page, page.TotalPages, page.Total))
			return nil
		},
	}
	cmd.Flags().IntVar(&req.Page, "page", 1, "Page number")
	cmd.Flags().StringVar(&req.Author, "autor", "", "Exact author filter")
	cmd.Flags().StringVar(&req.Genre, "genero", "", "Exact genre filter")
	cmd.Flags().StringVar(&req.Order, "orden", client.OrderRecent, "reciente, antiguo or alfabetico")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func newAuxCmd() *cobra.Command {
	var filters client.Filters
	cmd := &cobra.Command{
		Use:   "aux",
		Short: "Show authors, genres and the cascading filter options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			aux, err := api.Auxiliary(cmd.Context())
			if err != nil {
				return err
			}
			opts := client.DeriveFilterOptions(aux.Relations, filters)
			return printJSON(map[string]any{
				"autores":            aux.Authors,
				"generos":            aux.Genres,
				"autoresDisponibles": opts.Authors,
				"generosDisponibles": opts.Genres,
			})
		},
	}
	cmd.Flags().StringVar(&filters.Author, "autor", "", "Narrow genre options to this author")
	cmd.Flags().StringVar(&filters.Genre, "genero", "", "Narrow author options to this genre")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print book events as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wsURL, err := client.WebsocketURL(api.BaseURL, "/ws")
			if err != nil {
				return err
			}
			fmt.Println(color.HiBlackString("watching %s", wsURL))
			for {
				err := client.Watch(ctx, wsURL, func(ev synchub.BookEvent) {
					fmt.Printf("%s %s #%d %s %s\n",
						ev.At.Local().Format(time.TimeOnly),
						color.CyanString(ev.Type), ev.BookID, ev.Title, color.YellowString(ev.Status))
				})
				if ctx.Err() != nil {
					return nil
				}
				if err != nil && !errors.Is(err, context.Canceled) {
					fmt.Fprintln(os.Stderr, color.YellowString("!"), "disconnected:", err)
				}
				// reconnect
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}
}

func newTUICmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL := ""
			if !noWatch {
				u, err := client.WebsocketURL(api.BaseURL, "/ws")
				if err != nil {
					return err
				}
				wsURL = u
			}
			return client.RunTUI(cmd.Context(), api, wsURL)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not refresh on server events")
	return cmd
}
