// Package notifications keeps the polled notification list and its derived
// unread counter. Read-state changes and deletions are applied as local
// patches mirroring the server call; the periodic refresh replaces the
// whole list.
package notifications

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hqvu/teamtask/internal/models"
)

// API is the slice of the REST client the store needs.
type API interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id int64) error
}

// Store holds the current notification list.
type Store struct {
	api    API
	logger *slog.Logger

	mu     sync.Mutex
	items  []models.Notification
	unread int
}

// NewStore creates a notification store.
func NewStore(a API, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{api: a, logger: logger}
}

// Refresh replaces the list and recomputes the unread counter. Driven by
// the UI's poll tick; a failed poll keeps the previous list.
func (s *Store) Refresh(ctx context.Context) error {
	fetched, err := s.api.ListNotifications(ctx)
	if err != nil {
		return err
	}

	unread := 0
	for _, n := range fetched {
		if !n.IsRead {
			unread++
		}
	}

	s.mu.Lock()
	s.items = fetched
	s.unread = unread
	s.mu.Unlock()
	return nil
}

// Items returns the current list. Callers treat it as read-only.
func (s *Store) Items() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// Unread returns the derived unread count.
func (s *Store) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkRead marks one notification read and patches the list in place.
func (s *Store) MarkRead(ctx context.Context, id int64) error {
	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	patched := make([]models.Notification, len(s.items))
	for i, n := range s.items {
		if n.ID == id && !n.IsRead {
			n.IsRead = true
			if s.unread > 0 {
				s.unread--
			}
		}
		patched[i] = n
	}
	s.items = patched
	return nil
}

// MarkAllRead marks everything read and zeroes the counter.
func (s *Store) MarkAllRead(ctx context.Context) error {
	if err := s.api.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	patched := make([]models.Notification, len(s.items))
	for i, n := range s.items {
		n.IsRead = true
		patched[i] = n
	}
	s.items = patched
	s.unread = 0
	return nil
}

// Delete removes a notification from the list; deleting an unread one
// also decrements the counter.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteNotification(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := make([]models.Notification, 0, len(s.items))
	for _, n := range s.items {
		if n.ID == id {
			if !n.IsRead && s.unread > 0 {
				s.unread--
			}
			continue
		}
		remaining = append(remaining, n)
	}
	s.items = remaining
	return nil
}
