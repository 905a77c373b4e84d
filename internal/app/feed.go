package app

import (
	"sync"

	"cybershield-quiz-service/internal/domain"
)

// Feed fans a user's attempt events out to their live connections.
type Feed struct {
	userID      string
	mu          sync.RWMutex
	subscribers map[chan domain.AttemptEvent]struct{}
}

// NewFeed is exported for infrastructure layers that keep feeds.
func NewFeed(userID string) *Feed {
	return &Feed{
		userID:      userID,
		subscribers: make(map[chan domain.AttemptEvent]struct{}),
	}
}

// Subscribe returns a channel of events. The caller must invoke cancel to avoid leaks.
func (f *Feed) Subscribe() (<-chan domain.AttemptEvent, func()) {
	ch := make(chan domain.AttemptEvent, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish never blocks: a full subscriber loses its oldest pending event.
func (f *Feed) Publish(evt domain.AttemptEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- evt:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- evt
		}
	}
}

// IsIdle reports whether nobody is listening.
func (f *Feed) IsIdle() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers) == 0
}
