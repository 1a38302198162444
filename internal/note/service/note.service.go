package service

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"notesync/internal/access"
	"notesync/internal/fanout"
	"notesync/internal/note/model"
	"notesync/internal/note/repository"
	"notesync/internal/notification"
	"notesync/pkg/logger"
	"notesync/socket"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = access.ErrForbidden
	ErrInvalidInput = errors.New("invalid input")
)

type NoteService struct {
	Repo          *repository.NoteRepository
	Notifications *notification.Repository
	Fanout        *fanout.Engine
}

func NewNoteService(repo *repository.NoteRepository, notifications *notification.Repository, engine *fanout.Engine) *NoteService {
	return &NoteService{Repo: repo, Notifications: notifications, Fanout: engine}
}

func (s *NoteService) CreateNote(userID string, req model.CreateNoteRequest) (*model.Note, error) {
	if req.Title == "" {
		req.Title = "Untitled Note"
	}
	n := &model.Note{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Content:       req.Content,
		OwnerID:       userID,
		Collaborators: make(map[string]string),
		LastUpdated:   time.Now(),
	}
	if err := s.Repo.Create(n); err != nil {
		return nil, err
	}

	// A fresh note has no collaborators and the owner is the actor, so this
	// reaches nobody today; it exists so a creation path that pre-populates
	// collaborators fans out correctly.
	s.Fanout.Notify(n, socket.EventNoteCreated, n, userID)
	return n, nil
}

func (s *NoteService) GetNote(noteID, userID string) (*model.Note, error) {
	n, err := s.Repo.GetByID(noteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("note %w", ErrNotFound)
		}
		return nil, err
	}
	// A note the caller has no grant on looks exactly like a missing one.
	if err := access.Authorize(n, userID, access.ActionRead); err != nil {
		return nil, fmt.Errorf("note %w", ErrNotFound)
	}
	return n, nil
}

func (s *NoteService) GetNotes(userID string, page, limit int) (*model.NoteList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	notes, err := s.Repo.ListByUser(userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo.CountByUser(userID)
	if err != nil {
		return nil, err
	}

	for i := range notes {
		grants, err := s.Repo.GetCollaborators(notes[i].ID)
		if err != nil {
			return nil, err
		}
		notes[i].Collaborators = grants
	}
	if notes == nil {
		notes = []model.Note{}
	}

	return &model.NoteList{
		Notes: notes,
		Pagination: model.Pagination{
			Total: total,
			Page:  page,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

func (s *NoteService) UpdateNote(noteID, userID string, req model.UpdateNoteRequest) (*model.Note, error) {
	n, err := s.Repo.GetByID(noteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("note %w", ErrNotFound)
		}
		return nil, err
	}
	if err := access.Authorize(n, userID, access.ActionWrite); err != nil {
		return nil, err
	}

	// An omitted field keeps its previous value.
	if req.Title != "" {
		n.Title = req.Title
	}
	if req.Content != "" {
		n.Content = req.Content
	}
	if err := s.Repo.Update(n.ID, n.Title, n.Content); err != nil {
		return nil, err
	}
	n.LastUpdated = time.Now()

	s.Fanout.Notify(n, socket.EventNoteUpdated, n, userID)
	return n, nil
}

func (s *NoteService) DeleteNote(noteID, userID string) error {
	n, err := s.Repo.GetByID(noteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("note %w", ErrNotFound)
		}
		return err
	}
	if err := access.Authorize(n, userID, access.ActionDelete); err != nil {
		return err
	}
	if err := s.Repo.Delete(noteID); err != nil {
		return err
	}

	// Recipients come from the pre-delete grant set; the payload is only the
	// id since the note itself is gone.
	s.Fanout.Notify(n, socket.EventNoteDeleted, noteID, userID)
	return nil
}

// ShareNote grants or updates a collaborator's permission. The returned
// warning is non-empty when the share itself succeeded but the notification
// log could not be written; the grant is never rolled back for that.
func (s *NoteService) ShareNote(noteID, actorID string, req model.ShareRequest) (*model.Note, string, error) {
	// Validate before touching any state.
	if !model.ValidPermission(req.Permission) {
		return nil, "", fmt.Errorf("permission must be read or write: %w", ErrInvalidInput)
	}

	n, err := s.Repo.GetByID(noteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", fmt.Errorf("note %w", ErrNotFound)
		}
		return nil, "", err
	}
	if err := access.Authorize(n, actorID, access.ActionShare); err != nil {
		return nil, "", err
	}

	targetID, err := s.Repo.GetUserIDByEmail(req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", fmt.Errorf("user to share with %w", ErrNotFound)
		}
		return nil, "", err
	}
	if targetID == n.OwnerID {
		return nil, "", fmt.Errorf("cannot share a note with its owner: %w", ErrInvalidInput)
	}

	if err := s.Repo.UpsertCollaborator(noteID, targetID, req.Permission); err != nil {
		return nil, "", err
	}
	n.Collaborators[targetID] = req.Permission

	// Post-mutation recipient set: includes the new collaborator, excludes
	// the sharing owner.
	s.Fanout.Notify(n, socket.EventNoteShared, n, actorID)

	warning := ""
	message := fmt.Sprintf("Note '%s' was shared with you by %s", n.Title, actorID)
	if _, err := s.Notifications.Record(targetID, noteID, message); err != nil {
		// The grant stands; only share history is degraded.
		logger.Sugar.Errorf("Share applied but notification log failed for note %s: %v", noteID, err)
		warning = "share succeeded but the notification could not be recorded"
	}
	return n, warning, nil
}

// UnshareNote removes one collaborator grant server-side. The removed user
// is not notified: they are no longer in the recipient set by the time the
// event fans out.
func (s *NoteService) UnshareNote(noteID, actorID, targetUserID string) (*model.Note, error) {
	n, err := s.Repo.GetByID(noteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("note %w", ErrNotFound)
		}
		return nil, err
	}
	if err := access.Authorize(n, actorID, access.ActionShare); err != nil {
		return nil, err
	}

	removed, err := s.Repo.RemoveCollaborator(noteID, targetUserID)
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		return nil, fmt.Errorf("collaborator %w", ErrNotFound)
	}
	delete(n.Collaborators, targetUserID)

	s.Fanout.Notify(n, socket.EventNoteUpdated, n, actorID)
	return n, nil
}
