package main

import (
	"context"
	"net/http"

	"notesync/config"
	"notesync/config/database"
	"notesync/internal/archive"
	"notesync/internal/note/repository"
	"notesync/pkg/logger"
	"notesync/router"
	"notesync/socket"

	"github.com/joho/godotenv"
)

func main() {
	logger.Init()
	defer logger.Log.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}
	cfg := config.Load()

	db := database.Connect(cfg.DatabaseURL)
	defer db.Close()

	// The hub is the single live-connection registry. It is built here and
	// handed by reference to everything that broadcasts.
	hub := socket.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := archive.NewSweeper(repository.NewNoteRepository(db), cfg.ArchiveInterval, cfg.ArchiveMaxAge)
	go sweeper.Run(ctx)

	handler := router.Setup(cfg, db, hub)

	logger.Sugar.Infof("Backend listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
