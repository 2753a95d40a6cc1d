package auth

import (
	"sync"

	"github.com/Dosada05/beach-league/models"
)

type subscription struct {
	sessionID string
	fn        func(*models.Identity)
}

// Broker fans session changes out to subscribers of a user.
// A nil identity means the session signed out.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]subscription
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]subscription)}
}

// Subscribe registers fn for userID and returns a function that removes it.
// A non-empty sessionID limits session-scoped events to that session; user-wide events
// are always delivered. Calling the returned function more than once is safe.
func (b *Broker) Subscribe(userID, sessionID string, fn func(*models.Identity)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[int]subscription)
	}
	b.subs[userID][id] = subscription{sessionID: sessionID, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[userID], id)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
		})
	}
}

// Publish calls the matching subscribers of userID synchronously, outside the lock.
// An empty sessionID makes the event user-wide.
func (b *Broker) Publish(userID, sessionID string, identity *models.Identity) {
	b.mu.RLock()
	fns := make([]func(*models.Identity), 0, len(b.subs[userID]))
	for _, sub := range b.subs[userID] {
		if sessionID == "" || sub.sessionID == "" || sub.sessionID == sessionID {
			fns = append(fns, sub.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		var copied *models.Identity
		if identity != nil {
			c := *identity
			copied = &c
		}
		fn(copied)
	}
}
