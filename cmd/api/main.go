package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicosauto.com.br/internal/auth"
	"servicosauto.com.br/internal/httpapi"
	"servicosauto.com.br/internal/marketplace"
	"servicosauto.com.br/internal/media"
	"servicosauto.com.br/internal/obs"
	"servicosauto.com.br/internal/store/pg"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

const (
	defaultAddr     = ":8080"
	imgurAPIBase    = "https://api.imgur.com/3"
	imgurTokenURL   = "https://api.imgur.com/oauth2/token"
	shutdownTimeout = 10 * time.Second
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	// A missing signing key or media secret is a configuration error and
	// fatal at startup, never at request time.
	tokens, err := auth.NewTokenService(os.Getenv("SERVAUTO_AUTH_SECRET"))
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	mediaClient, err := media.NewClient(media.Config{
		BaseURL:      imgurAPIBase,
		AuthURL:      imgurTokenURL,
		ClientID:     os.Getenv("SERVAUTO_IMGUR_CLIENT_ID"),
		ClientSecret: os.Getenv("SERVAUTO_IMGUR_CLIENT_SECRET"),
		RefreshToken: os.Getenv("SERVAUTO_IMGUR_REFRESH_TOKEN"),
	}, nil)
	if err != nil {
		log.Fatalf("media client: %v", err)
	}

	dsn := os.Getenv("SERVAUTO_PG_DSN")
	if dsn == "" {
		log.Fatal("missing SERVAUTO_PG_DSN")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	users := marketplace.NewUserService(store.Users())
	providers := marketplace.NewProviderService(store.Providers())
	listings := marketplace.NewListingService(store.Listings(), store.Providers())

	resolver := auth.NewResolver(
		marketplace.UserSource(store.Users()),
		marketplace.ProviderSource(store.Providers()),
	)

	api := httpapi.New(httpapi.ReadyProbe{DB: store.DB()}, version, httpapi.Deps{
		Tokens:    tokens,
		Resolver:  resolver,
		Users:     users,
		Providers: providers,
		Listings:  listings,
		Images:    store.Images(),
		Creds:     media.NewCredentialManager(mediaClient),
		Media:     mediaClient,
	})

	addr := os.Getenv("SERVAUTO_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting servicosauto-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
