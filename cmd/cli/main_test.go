package main

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktracker/internal/catalog"
	"booktracker/internal/client"
	"booktracker/internal/lifecycle"
	"booktracker/pkg/database"
	"booktracker/pkg/models"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestCommands_AgainstServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "cli.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	r := gin.New()
	lifecycle.NewHandler(lifecycle.New(catalog.NewRepo(db), nil, nil, nil), nil).RegisterRoutes(r.Group("/api"))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	rootCmd.SetArgs([]string{"--api", srv.URL, "--no-color", "add", "--titulo", "Dune", "--autor", "Frank Herbert", "--genero", "Sci-Fi"})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"--api", srv.URL, "buy", "1", "--precio", "15.99", "--tienda", "Amazon"})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"--api", srv.URL, "status", "1", models.StatusFinished})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"--api", srv.URL, "buy", "1", "--precio", "", "--tienda", "Amazon"})
	assert.ErrorIs(t, rootCmd.Execute(), client.ErrPurchaseMissing)

	s, err := loadView(context.Background(), client.FinishedRequest{Page: 1, Order: client.OrderRecent})
	require.NoError(t, err)
	require.Len(t, s.Finished.Data, 1)
	assert.Equal(t, "Dune", s.Finished.Data[0].Title)
	assert.Contains(t, client.Render(s), "Leídos (1)")
}
