package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"planmatch-backend/internal/shared/server/middleware"
)

// ErrInvalidRole is returned for roles outside client/contractor.
var ErrInvalidRole = errors.New("role must be client or contractor")

// Service manages user accounts.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// UpsertFromIdentity records a sign-in from the identity provider. An
// existing account keeps its chosen role and company; profile fields refresh.
func (s *Service) UpsertFromIdentity(ctx context.Context, id, email, fullName, pictureURL string) (*User, error) {
	now := s.now().UTC()

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	u := &User{
		ID:        id,
		Email:     email,
		FullName:  fullName,
		Role:      middleware.RoleClient,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		u.Role = existing.Role
		u.CompanyName = existing.CompanyName
		u.CreatedAt = existing.CreatedAt
	}
	if pictureURL != "" {
		u.PictureURL = pictureURL
	} else if existing != nil {
		u.PictureURL = existing.PictureURL
	}

	if err := s.repo.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("record sign-in: %w", err)
	}
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// SetRole switches the account between client and contractor.
func (s *Service) SetRole(ctx context.Context, id, role, companyName string) (*User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != middleware.RoleClient && role != middleware.RoleContractor {
		return nil, ErrInvalidRole
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if companyName = strings.TrimSpace(companyName); companyName != "" {
		u.CompanyName = companyName
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.repo.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return u, nil
}
