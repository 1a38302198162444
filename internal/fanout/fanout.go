package fanout

import (
	"notesync/internal/note/model"
	"notesync/pkg/logger"
)

// Broadcaster delivers one event to every connection in a room. The socket
// hub satisfies this; tests substitute a recording fake.
type Broadcaster interface {
	Broadcast(roomID, eventType string, payload any)
}

// Engine computes the recipient set for a note event and pushes it to each
// recipient's identity room. Delivery is best effort: callers never learn
// about fanout failures, and a recipient with no live connection simply
// misses the event.
type Engine struct {
	rooms Broadcaster
}

func NewEngine(rooms Broadcaster) *Engine {
	return &Engine{rooms: rooms}
}

// Notify sends event to every collaborator and the owner of n, skipping the
// actor. The recipient set is derived from the note as it stands after the
// mutation, so a collaborator removed in the same operation never hears
// about it and one just added does.
func (e *Engine) Notify(n *model.Note, event string, payload any, actorID string) {
	if n == nil {
		return
	}
	for userID := range n.Collaborators {
		if userID == actorID {
			continue
		}
		e.rooms.Broadcast(userID, event, payload)
		logger.Sugar.Infof("Emitted %s to user %s for note %s", event, userID, n.ID)
	}
	if n.OwnerID != actorID {
		e.rooms.Broadcast(n.OwnerID, event, payload)
		logger.Sugar.Infof("Emitted %s to owner %s for note %s", event, n.OwnerID, n.ID)
	}
}
