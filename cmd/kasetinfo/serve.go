package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kasetinfo/internal/auth"
	"kasetinfo/internal/cache"
	"kasetinfo/internal/catalog"
	"kasetinfo/internal/config"
	"kasetinfo/internal/database"
	"kasetinfo/internal/events"
	"kasetinfo/internal/handlers"
	"kasetinfo/internal/imagehost"
	"kasetinfo/internal/metrics"
	"kasetinfo/internal/middleware"
	"kasetinfo/internal/router"
	"kasetinfo/internal/session"
	"kasetinfo/internal/storage"
	"kasetinfo/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr(), "page_size", cfg.PageSize, "home_page_size", cfg.HomePageSize)

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Valkey holds sessions and the response cache.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	// Outside development, cookies are HTTPS-only.
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	responseCache := cache.NewResponseCache(valkeyClient, cache.DefaultTTL)

	userStore := store.NewUserStore(db)
	itemStore := store.NewItemStore(db)

	notifiers := []catalog.Notifier{responseCache, metrics.CatalogObserver{}}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nc.Drain()
		notifiers = append(notifiers, events.NewPublisher(nc))
	} else {
		slog.Info("NATS_URL not set, item events disabled")
	}

	cat := catalog.New(itemStore, catalog.WithNotifiers(notifiers...))
	// A failed first load is kept in the catalog state; list endpoints
	// report it with a retry link until a refresh succeeds.
	fetchErr := cat.FetchAll(ctx)
	metrics.ObserveFetch(fetchErr, len(cat.Items()))
	if fetchErr != nil {
		slog.Warn("initial catalog load failed", "error", fetchErr)
	}

	uploader, err := newUploader(cfg)
	if err != nil {
		return err
	}

	authService := auth.NewService(sessionStore, userStore)
	authService.Subscribe(auth.LogEvent)
	authService.Subscribe(metrics.ObserveAuth)

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()
	refreshLimiter := middleware.NewRateLimiter(6, time.Minute)
	defer refreshLimiter.Stop()

	r := router.New(router.Deps{
		Sessions:       authService,
		Public:         handlers.NewPublic(cat, itemStore, cfg.HomePageSize, cfg.PageSize),
		Admin:          handlers.NewAdmin(cat, itemStore, uploader),
		Auth:           handlers.NewAuth(authService, sessionStore, auth.NewEnroller(userStore)),
		Sitemap:        handlers.NewSitemap(cfg.SiteURL, itemStore, responseCache),
		Metrics:        metrics.Handler(),
		LoginLimiter:   loginLimiter,
		RefreshLimiter: refreshLimiter,
		SecureCookies:  secureCookies,
	})

	// WriteTimeout must cover image uploads relayed to the image host.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newUploader picks the image destination: the image host when accounts
// are configured, else the S3 bucket, else none (uploads answer 503).
func newUploader(cfg *config.Config) (imagehost.Uploader, error) {
	if len(cfg.ImageHostAccounts) > 0 {
		accounts := make([]imagehost.Account, len(cfg.ImageHostAccounts))
		for i, a := range cfg.ImageHostAccounts {
			accounts[i] = imagehost.Account{CloudName: a.CloudName, UploadPreset: a.UploadPreset}
		}
		c, err := imagehost.NewCloudinary(cfg.ImageHostBaseURL, accounts)
		if err != nil {
			return nil, err
		}
		slog.Info("image uploads go to the image host", "accounts", len(accounts))
		return c, nil
	}

	if cfg.HasS3() {
		client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			return nil, fmt.Errorf("initializing S3 storage: %w", err)
		}
		if client != nil {
			slog.Info("image uploads go to object storage", "endpoint", cfg.S3Endpoint, "bucket", client.Bucket())
			return imagehost.NewBucket(client), nil
		}
	}

	slog.Warn("no image host or object storage configured, image uploads disabled")
	return nil, nil
}
