package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/ports"
)

type directoryService struct {
	repo ports.DirectoryRepository
	log  zerolog.Logger
}

// NewDirectoryService returns a DirectoryService implementation.
func NewDirectoryService(repo ports.DirectoryRepository, log zerolog.Logger) ports.DirectoryService {
	return &directoryService{repo: repo, log: log}
}

func (s *directoryService) ListAll(ctx context.Context) ([]*domain.DirectoryUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	return users, nil
}

func (s *directoryService) GetByID(ctx context.Context, id string) (*domain.DirectoryUser, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get directory user %s: %w", id, err)
	}
	return u, nil
}

func (s *directoryService) Create(ctx context.Context, in ports.DirectoryInput) (*domain.DirectoryUser, error) {
	u, err := directoryUserOf(in)
	if err != nil {
		return nil, fmt.Errorf("create directory user: %w", err)
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create directory user: %w", err)
	}
	s.log.Info().Str("id", u.ID).Msg("directory user created")
	return u, nil
}

func (s *directoryService) Update(ctx context.Context, id string, in ports.DirectoryInput) (*domain.DirectoryUser, error) {
	u, err := directoryUserOf(in)
	if err != nil {
		return nil, fmt.Errorf("update directory user %s: %w", id, err)
	}
	u.ID = id
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update directory user %s: %w", id, err)
	}
	s.log.Info().Str("id", id).Msg("directory user updated")
	return u, nil
}

// DeleteByID reports domain.ErrUserNotFound for a missing id, matching the
// admin panel.
func (s *directoryService) DeleteByID(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete directory user %s: %w", id, err)
	}
	s.log.Info().Str("id", id).Msg("directory user deleted")
	return nil
}

// directoryUserOf normalizes in. A name shorter than two characters or a
// blank email once trimmed is domain.ErrInvalidInput.
func directoryUserOf(in ports.DirectoryInput) (*domain.DirectoryUser, error) {
	u := &domain.DirectoryUser{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
	}
	if utf8.RuneCountInString(u.Name) < 2 || u.Email == "" {
		return nil, domain.ErrInvalidInput
	}
	return u, nil
}
