package memory

import (
	"sync"

	"cybershield-quiz-service/internal/app"
)

// FeedStore is an in-memory implementation of app.FeedRepository.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*app.Feed),
	}
}

func (s *FeedStore) GetOrCreate(userID string) *app.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if feed, ok := s.feeds[userID]; ok {
		return feed
	}
	feed := app.NewFeed(userID)
	s.feeds[userID] = feed
	return feed
}

func (s *FeedStore) Get(userID string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[userID]
	return feed, ok
}

func (s *FeedStore) DeleteIfIdle(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[userID]
	if !ok {
		return
	}
	if feed.IsIdle() {
		delete(s.feeds, userID)
	}
}
