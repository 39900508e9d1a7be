package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"smartmirror/album"
	"smartmirror/api"
	"smartmirror/config"
	"smartmirror/feed"
	"smartmirror/fonts"
	"smartmirror/mirror"
	"smartmirror/store"
)

func main() {
	// Get SM_ROOT_PATH from environment
	rootPath := os.Getenv("SM_ROOT_PATH")
	if rootPath == "" {
		log.Fatal("SM_ROOT_PATH environment variable is required")
	}

	defaultAlbum := os.Getenv("SM_ALBUM_URL")

	port := os.Getenv("SM_PORT")
	if port == "" {
		port = "4000"
	}

	// Initialize database
	dbPath := filepath.Join(rootPath, "settings.db")
	database, err := store.NewDatabase(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Regenerate the font catalog from whatever lives under rootPath/fonts
	if _, err := fonts.GenerateCatalog(rootPath); err != nil {
		slog.Warn("failed to generate font catalog", "error", err)
	}

	cfg, err := config.NewStore(database)
	if err != nil {
		log.Fatalf("Failed to load user configuration: %v", err)
	}

	// S3 albums are optional; without a usable AWS configuration the server
	// still serves shared web albums.
	var s3Lister *album.S3Lister
	if profile := os.Getenv("SM_AWS_PROFILE"); profile != "" {
		s3Lister, err = album.NewS3Lister(profile)
		if err != nil {
			slog.Warn("failed to initialize s3 album support", "error", err)
			s3Lister = nil
		}
	}

	// Initialize web server
	webServer := api.NewWebServer(cfg, rootPath, defaultAlbum, s3Lister)

	// The dashboard core talks to its own server for album refreshes
	feedClient := feed.NewClient("http://localhost:" + port)
	m := mirror.New(cfg, feedClient, nil)
	webServer.SetMirror(m)

	go webServer.Start("0.0.0.0:" + port)

	// Mount only once the listener accepts requests, otherwise the first
	// album refresh races server startup and pins the fallback image until
	// the next refetch tick.
	readyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := feedClient.WaitReady(readyCtx); err != nil {
		log.Fatalf("Web server never became ready: %v", err)
	}

	m.Mount()
	defer m.Unmount()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")
}
