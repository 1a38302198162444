package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notesync/internal/fanout"
	"notesync/internal/note/model"
	"notesync/internal/note/repository"
	"notesync/internal/notification"
	"notesync/socket"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Owner edits a shared note; the connected collaborator's room receives
// exactly one note:updated with the new content and the owner's room none.
func TestEditFansOutToCollaboratorRoomOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hub := socket.NewHub()
	go hub.Run()

	svc := NewNoteService(
		repository.NewNoteRepository(db),
		notification.NewRepository(db),
		fanout.NewEngine(hub),
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r, r.URL.Query().Get("user_id"))
	}))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	dial := func(userID string) *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id="+userID, nil)
		require.NoError(t, err)
		cmd, _ := json.Marshal(socket.Command{Type: socket.JoinRoomType, Room: userID})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, cmd))
		return conn
	}

	ownerConn := dial("owner")
	defer ownerConn.Close()
	collabConn := dial("user2")
	defer collabConn.Close()

	require.Eventually(t, func() bool {
		return hub.RoomSize("owner") == 1 && hub.RoomSize("user2") == 1
	}, time.Second, 10*time.Millisecond)

	expectGetByID(mock, "note-1", "Plan", "owner", map[string]string{"user2": model.PermissionWrite})
	mock.ExpectExec("UPDATE notes SET title = \\$1, content = \\$2, last_updated = NOW\\(\\) WHERE id = \\$3").
		WithArgs("Plan", "New agenda", "note-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err = svc.UpdateNote("note-1", "owner", model.UpdateNoteRequest{Content: "New agenda"})
	require.NoError(t, err)

	collabConn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := collabConn.ReadMessage()
	require.NoError(t, err, "collaborator should receive the update")

	var ev socket.Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, socket.EventNoteUpdated, ev.Type)

	var got model.Note
	require.NoError(t, json.Unmarshal(ev.Payload, &got))
	assert.Equal(t, "New agenda", got.Content)
	assert.Equal(t, "Plan", got.Title)

	// Exactly one event: the next read times out.
	collabConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = collabConn.ReadMessage()
	assert.Error(t, err, "collaborator must receive exactly one event")

	// The actor's own room stays silent.
	ownerConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = ownerConn.ReadMessage()
	assert.Error(t, err, "the actor's room must not receive the event")

	assert.NoError(t, mock.ExpectationsWereMet())
}
