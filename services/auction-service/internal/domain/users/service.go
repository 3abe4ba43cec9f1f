package users

import (
	"context"
	"strings"

	"github.com/floroz/gavel-live/pkg/domainerr"
)

type Service struct {
	repo    Repository
	mailbox Mailbox
}

func NewService(repo Repository, mailbox Mailbox) *Service {
	return &Service{
		repo:    repo,
		mailbox: mailbox,
	}
}

// Register creates a user. An empty contact is derived from the display name.
func (s *Service) Register(ctx context.Context, displayName, contact string) (*User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrInvalidDisplayName
	}
	contact = strings.TrimSpace(contact)
	if contact == "" {
		contact = DefaultContact(displayName)
	}

	id, err := s.repo.NextUserID(ctx)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "allocate user id", err)
	}

	user := &User{
		ID:          id,
		DisplayName: displayName,
		Contact:     contact,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "save user", err)
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "load user", err)
	}
	return user, nil
}

// DrainMailbox returns and clears the user's pending notifications.
func (s *Service) DrainMailbox(ctx context.Context, userID int64) ([]string, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	messages, err := s.mailbox.Drain(ctx, userID)
	if err != nil {
		return nil, domainerr.Infra(domainerr.ErrStoreUnavailable, "drain mailbox", err)
	}
	if messages == nil {
		messages = []string{}
	}
	return messages, nil
}
