package note

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"notesync/internal/note/model"
	"notesync/internal/note/service"
	"notesync/middleware"
	"notesync/pkg/logger"

	"github.com/gorilla/mux"
)

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: svc}
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.CreateNoteRequest
	// An empty body is fine (everything defaults); a malformed one is not.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.Service.CreateNote(userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(string)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.Service.GetNotes(userID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(string)
	noteID := mux.Vars(r)["id"]

	n, err := h.Service.GetNote(noteID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(string)
	noteID := mux.Vars(r)["id"]

	var req model.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.Service.UpdateNote(noteID, userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(string)
	noteID := mux.Vars(r)["id"]

	if err := h.Service.DeleteNote(noteID, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}

func (h *NoteHandler) ShareNote(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(string)
	noteID := mux.Vars(r)["id"]

	var req model.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, warning, err := h.Service.ShareNote(noteID, userID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	if warning != "" {
		writeJSON(w, http.StatusOK, map[string]any{"note": n, "warning": warning})
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) UnshareNote(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(string)
	vars := mux.Vars(r)

	n, err := h.Service.UnshareNote(vars["id"], userID, vars["userId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Sugar.Errorf("Request failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
