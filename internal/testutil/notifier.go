package testutil

import (
	"sync"

	"github.com/google/uuid"

	notifService "github.com/himTresor1/celia-sub001/internal/modules/notification/service"
)

// Notifier records enqueued messages instead of delivering them.
type Notifier struct {
	mu       sync.Mutex
	messages []notifService.Message
}

func (n *Notifier) Enqueue(msg notifService.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return true
}

func (n *Notifier) Messages() []notifService.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifService.Message(nil), n.messages...)
}

// Recipients lists the user of every recorded message in order.
func (n *Notifier) Recipients() []uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(n.messages))
	for _, m := range n.messages {
		ids = append(ids, m.UserID)
	}
	return ids
}
