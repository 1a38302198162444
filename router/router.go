package router

import (
	"database/sql"
	"net/http"

	"notesync/config"
	"notesync/internal/auth"
	"notesync/internal/fanout"
	"notesync/internal/note"
	"notesync/internal/note/repository"
	"notesync/internal/note/service"
	"notesync/internal/notification"
	"notesync/middleware"
	"notesync/socket"

	"github.com/gorilla/mux"
)

func Setup(cfg config.Config, db *sql.DB, hub *socket.Hub) http.Handler {
	r := mux.NewRouter()

	secret := []byte(cfg.JWTSecret)
	authRequired := middleware.NewAuthMiddleware(secret)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	// WebSocket. Tokens ride the query string, validated by the same
	// middleware as the REST routes.
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		userID := req.Context().Value(middleware.UserIDKey).(string)
		socket.ServeWs(hub, w, req, userID)
	})
	r.Handle("/ws", authRequired(wsHandler))

	// REST API
	noteRepo := repository.NewNoteRepository(db)
	notifRepo := notification.NewRepository(db)
	noteService := service.NewNoteService(noteRepo, notifRepo, fanout.NewEngine(hub))
	noteHandler := note.NewNoteHandler(noteService)
	notifHandler := notification.NewHandler(notifRepo)

	authService := auth.NewService(auth.NewRepository(db), secret, cfg.TokenTTL)
	authHandler := auth.NewHandler(authService)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(limiter.Middleware)

	api.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("Everything is Healthy...!"))
	}).Methods(http.MethodGet)

	api.HandleFunc("/auth/signup", authHandler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	api.Handle("/notes", authRequired(http.HandlerFunc(noteHandler.CreateNote))).Methods(http.MethodPost)
	api.Handle("/notes", authRequired(http.HandlerFunc(noteHandler.GetNotes))).Methods(http.MethodGet)
	api.Handle("/notes/{id}", authRequired(http.HandlerFunc(noteHandler.GetNote))).Methods(http.MethodGet)
	api.Handle("/notes/{id}", authRequired(http.HandlerFunc(noteHandler.UpdateNote))).Methods(http.MethodPut)
	api.Handle("/notes/{id}", authRequired(http.HandlerFunc(noteHandler.DeleteNote))).Methods(http.MethodDelete)
	api.Handle("/notes/{id}/share", authRequired(http.HandlerFunc(noteHandler.ShareNote))).Methods(http.MethodPut)
	api.Handle("/notes/{id}/share/{userId}", authRequired(http.HandlerFunc(noteHandler.UnshareNote))).Methods(http.MethodDelete)

	api.Handle("/notifications", authRequired(http.HandlerFunc(notifHandler.GetNotifications))).Methods(http.MethodGet)

	return middleware.CORSMiddleware(r)
}
