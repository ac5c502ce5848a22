package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"booktracker/internal/catalog"
	"booktracker/internal/lifecycle"
	"booktracker/internal/logger"
	"booktracker/internal/metrics"
	synchub "booktracker/internal/sync"
	"booktracker/pkg/database"
	"booktracker/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.New(logger.Config{Environment: cfg.Env, Level: cfg.Log.Level})
	slog.SetDefault(lg)

	dbCfg := cfg.Database()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := synchub.NewHub(lg)
	defer hub.Close()
	m := metrics.New()
	router := newRouter(cfg, db, hub, m, lg)

	httpSrv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORS.Origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", logger.RequestIDHeader},
			ExposedHeaders: []string{logger.RequestIDHeader},
			MaxAge:         300,
		})(router),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	var tcpSrv *synchub.Server
	if cfg.TCP.Addr != "" {
		tcpSrv = synchub.NewServer(cfg.TCP.Addr, hub, lg)
		// bind before serving HTTP so port clashes surface at start-up
		if err := tcpSrv.Listen(); err != nil {
			log.Fatalf("tcp sync: %v", err)
		}
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	if tcpSrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.Serve(); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		lg.Info("HTTP API server listening", "addr", cfg.HTTP.Addr, "db", dbCfg.Path)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		lg.Error("server error", "error", err)
	}

	lg.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown error", "error", err)
	}
	if tcpSrv != nil {
		if err := tcpSrv.Close(); err != nil {
			lg.Error("tcp shutdown error", "error", err)
		}
	}

	wg.Wait()
	lg.Info("servers stopped")
}

func newRouter(cfg *utils.Config, db *sqlx.DB, hub *synchub.Hub, m *metrics.Metrics, lg *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(lg), m.Middleware())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "env": cfg.Env})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.FromContext(c, lg).Error("readiness ping failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db":          "unavailable",
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/ws", synchub.WSHandler(hub))

	svc := lifecycle.New(catalog.NewRepo(db), hub, m, lg)
	lifecycle.NewHandler(svc, lg).RegisterRoutes(router.Group("/api"))

	return router
}
