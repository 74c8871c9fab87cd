package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filedrop/internal/api"
	"filedrop/internal/blob"
	"filedrop/internal/catalog"
	"filedrop/internal/config"
	"filedrop/internal/logger"
	"filedrop/internal/metadata"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()
	lg = lg.Named("filedrop")

	records, err := metadata.NewMongoStore(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		lg.Fatalf("failed to connect to mongodb: %v", err)
	}
	lg.Infof("connected to mongodb database %q", cfg.Mongo.Database)

	blobs, err := newBlobStore(cfg.Storage)
	if err != nil {
		lg.Fatalf("failed to init blob store: %v", err)
	}
	lg.Infof("using %s blob backend", cfg.Storage.Backend)

	cat := catalog.New(blobs, records, cfg.Upload.MaxFileSize)

	srv := api.NewServer(api.Config{
		Address:      cfg.Server.Address(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		CORSOrigin:   cfg.Server.CORSOrigin,
	}, cat, lg)

	errCh := make(chan error, 1)
	go func() {
		lg.Infof("listening on %s", cfg.Server.Address())
		errCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Infof("received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			lg.Errorx(err)
		}
	}

	if err := srv.Shutdown(); err != nil {
		lg.Errorx(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := records.Close(ctx); err != nil {
		lg.Errorx(err)
	}

	lg.Info("server stopped")
}

func newBlobStore(cfg config.Storage) (blob.Store, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return blob.NewLocalStore(cfg.Local)
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return blob.NewMinioStore(ctx, cfg.Minio)
	}
}
