// AngelaMos | 2026
// service.go

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/joborders/internal/core"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Now() time.Time {
	return s.now()
}

// Notify stores a notification for userID. An empty kind leaves the type
// unset.
func (s *Service) Notify(
	ctx context.Context,
	userID, title, body, kind string,
) error {
	n := &Notification{
		ID:     uuid.New().String(),
		UserID: userID,
		Title:  title,
		Body:   body,
	}
	if kind != "" {
		n.Type = &kind
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("notify %s: %w", userID, err)
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Notification{}
	}
	return items, nil
}

// owned loads a notification and refuses it unless userID owns it.
func (s *Service) owned(
	ctx context.Context,
	userID, id string,
) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if userID == "" || n.UserID != userID {
		return nil, fmt.Errorf("notification %s: %w", id, core.ErrForbidden)
	}

	return n, nil
}

func (s *Service) MarkAsRead(ctx context.Context, userID, id string) error {
	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, n.ID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, n.ID)
}

func (s *Service) DeleteAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteAllForUser(ctx, userID)
}
