package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"places-backend/internal/config"
	"places-backend/internal/database"
	"places-backend/internal/geocode"
	"places-backend/internal/handlers"
	"places-backend/internal/logger"
	"places-backend/internal/server"
	"places-backend/internal/uploads"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.ConnectionURI())
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Warnf("disconnect database: %v", err)
		}
	}()

	db := client.Database(cfg.DBName)
	log.Infof("MongoDB connected to: %s", db.Name())

	store := database.NewStore(db, log)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Warnf("index warning: %v", err)
	}

	var geocoder geocode.Geocoder = geocode.StaticGeocoder{Location: geocode.DefaultLocation}
	if cfg.GoogleAPIKey != "" {
		geocoder = geocode.NewGoogle(cfg.GoogleAPIKey, cfg.GeocodeTimeout)
	} else {
		log.Warn("GOOGLE_API_KEY not set, every address resolves to the default location")
	}

	router := server.NewRouter(server.Deps{
		Store:    store,
		Geocoder: geocoder,
		Images:   uploads.NewStorage(cfg.UploadDir, log),
		Tokens:   handlers.TokenConfig{Secret: cfg.JWTKey, TTL: cfg.TokenTTL},
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	log.Info("bye")
}
