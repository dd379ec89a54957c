package sync

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

// Thread holds the in-memory message list for one open conversation and
// implements the optimistic send path: a provisional entry with a generated
// temporary id is appended before the persist call and rolled back if the
// call fails. Poll snapshots replace the list wholesale; the provisional
// entry is superseded by its authoritative copy on the next poll rather
// than reconciled by id.
type Thread struct {
	ConversationID string

	mu       sync.Mutex
	messages []models.Message
	pending  map[string]bool
}

func NewThread(conversationID string) *Thread {
	return &Thread{
		ConversationID: conversationID,
		pending:        make(map[string]bool),
	}
}

// Messages returns a copy of the current thread in display order.
func (t *Thread) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// AppendPending inserts a provisional agent message and returns it. The
// returned id is temporary and never sent to the backend.
func (t *Thread) AppendPending(content, msgType string) models.Message {
	msg := models.Message{
		ID:             "temp-" + uuid.NewString(),
		ConversationID: t.ConversationID,
		Sender:         models.SenderAgent,
		Content:        content,
		Type:           msgType,
		Status:         models.MessagePending,
		SentAt:         time.Now(),
	}
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.pending[msg.ID] = true
	t.mu.Unlock()
	return msg
}

// RemovePending rolls back a provisional entry after a failed persist call.
func (t *Thread) RemovePending(tempID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.pending[tempID] {
		return
	}
	delete(t.pending, tempID)
	for i, m := range t.messages {
		if m.ID == tempID {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			break
		}
	}
}

// Replace applies an authoritative poll snapshot, dropping any provisional
// entries it supersedes.
func (t *Thread) Replace(msgs []models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = msgs
	t.pending = make(map[string]bool)
}
