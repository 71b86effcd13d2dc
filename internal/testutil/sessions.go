package testutil

import (
	"context"
	"sync"
)

// Sessions is an in-memory auth.Sessions.
type Sessions struct {
	mu   sync.Mutex
	live map[string]int64
	// Err, if set, is returned by GetUserID.
	Err error
}

func NewSessions() *Sessions {
	return &Sessions{live: make(map[string]int64)}
}

func (s *Sessions) Create(_ context.Context, id string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[id] = userID
	return nil
}

func (s *Sessions) GetUserID(_ context.Context, id string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, false, s.Err
	}
	userID, ok := s.live[id]
	return userID, ok, nil
}

func (s *Sessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, id)
	return nil
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
