package note

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"notesync/internal/fanout"
	"notesync/internal/note/repository"
	"notesync/internal/note/service"
	"notesync/internal/notification"
	"notesync/middleware"
	"notesync/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(roomID, eventType string, payload any) {}

func newTestHandler(t *testing.T) (*NoteHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	svc := service.NewNoteService(
		repository.NewNoteRepository(db),
		notification.NewRepository(db),
		fanout.NewEngine(noopBroadcaster{}),
	)
	return NewNoteHandler(svc), mock, func() { db.Close() }
}

func authedRequest(method, target, body, userID string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func TestCreateNoteRejectsMalformedBody(t *testing.T) {
	handler, mock, done := newTestHandler(t)
	defer done()

	rec := httptest.NewRecorder()
	handler.CreateNote(rec, authedRequest(http.MethodPost, "/api/notes", "{not json", "owner"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "a malformed body must not reach the store")
}

func TestCreateNoteEmptyBodyDefaults(t *testing.T) {
	handler, mock, done := newTestHandler(t)
	defer done()

	mock.ExpectExec("INSERT INTO notes").
		WithArgs(sqlmock.AnyArg(), "Untitled Note", "", "owner").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := httptest.NewRecorder()
	handler.CreateNote(rec, authedRequest(http.MethodPost, "/api/notes", "", "owner"))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Untitled Note")
	assert.NoError(t, mock.ExpectationsWereMet())
}
