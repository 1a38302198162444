package fanout

import (
	"os"
	"testing"

	"notesync/internal/note/model"
	"notesync/pkg/logger"
	"notesync/socket"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type recordedCall struct {
	RoomID string
	Event  string
}

type fakeBroadcaster struct {
	calls []recordedCall
}

func (f *fakeBroadcaster) Broadcast(roomID, eventType string, payload any) {
	f.calls = append(f.calls, recordedCall{RoomID: roomID, Event: eventType})
}

func (f *fakeBroadcaster) rooms() []string {
	var ids []string
	for _, c := range f.calls {
		ids = append(ids, c.RoomID)
	}
	return ids
}

func TestNotifyExcludesActor(t *testing.T) {
	rooms := &fakeBroadcaster{}
	engine := NewEngine(rooms)

	n := &model.Note{
		ID:      "note-1",
		OwnerID: "owner",
		Collaborators: map[string]string{
			"user2": model.PermissionWrite,
			"user3": model.PermissionRead,
		},
	}

	engine.Notify(n, socket.EventNoteUpdated, n, "owner")

	assert.Len(t, rooms.calls, 2)
	assert.ElementsMatch(t, []string{"user2", "user3"}, rooms.rooms())
	for _, c := range rooms.calls {
		assert.Equal(t, socket.EventNoteUpdated, c.Event)
	}
}

func TestNotifyCollaboratorActorStillReachesOwner(t *testing.T) {
	rooms := &fakeBroadcaster{}
	engine := NewEngine(rooms)

	n := &model.Note{
		ID:            "note-1",
		OwnerID:       "owner",
		Collaborators: map[string]string{"user2": model.PermissionWrite},
	}

	engine.Notify(n, socket.EventNoteUpdated, n, "user2")

	assert.Equal(t, []string{"owner"}, rooms.rooms())
}

func TestNotifyFreshNoteIsNoop(t *testing.T) {
	rooms := &fakeBroadcaster{}
	engine := NewEngine(rooms)

	n := &model.Note{ID: "note-1", OwnerID: "owner", Collaborators: map[string]string{}}
	engine.Notify(n, socket.EventNoteCreated, n, "owner")

	assert.Empty(t, rooms.calls)
}

func TestNotifyRemovedCollaboratorGetsNothing(t *testing.T) {
	rooms := &fakeBroadcaster{}
	engine := NewEngine(rooms)

	// user2 was unshared in the same operation: the post-mutation note no
	// longer lists them, so they must not appear in the recipient set.
	n := &model.Note{
		ID:            "note-1",
		OwnerID:       "owner",
		Collaborators: map[string]string{"user3": model.PermissionRead},
	}

	engine.Notify(n, socket.EventNoteUpdated, n, "owner")

	assert.ElementsMatch(t, []string{"user3"}, rooms.rooms())
	assert.NotContains(t, rooms.rooms(), "user2")
}

func TestNotifySharedIncludesNewCollaborator(t *testing.T) {
	rooms := &fakeBroadcaster{}
	engine := NewEngine(rooms)

	n := &model.Note{
		ID:      "note-1",
		OwnerID: "owner",
		Collaborators: map[string]string{
			"existing": model.PermissionRead,
			"newbie":   model.PermissionWrite,
		},
	}

	engine.Notify(n, socket.EventNoteShared, n, "owner")

	assert.ElementsMatch(t, []string{"existing", "newbie"}, rooms.rooms())
}

func TestNotifyNilNote(t *testing.T) {
	rooms := &fakeBroadcaster{}
	NewEngine(rooms).Notify(nil, socket.EventNoteUpdated, nil, "owner")
	assert.Empty(t, rooms.calls)
}
