package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// UserService implements profile reads and updates plus account administration.
type UserService struct {
	users  ports.UserRepository
	hasher PasswordHasher
	log    zerolog.Logger
}

func NewUserService(users ports.UserRepository, hasher PasswordHasher, log zerolog.Logger) *UserService {
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	return &UserService{users: users, hasher: hasher, log: log}
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

func (s *UserService) List(ctx context.Context, in ports.ListUsersInput) ([]*domain.PublicUser, error) {
	if in.Skip < 0 {
		return nil, fmt.Errorf("%w: skip must not be negative", domain.ErrInvalidInput)
	}
	limit := in.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit < 1 || limit > maxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidInput, maxListLimit)
	}

	filter := ports.UserListFilter{Skip: in.Skip, Limit: limit}
	if in.Role != "" {
		role, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		filter.Role = &role
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]*domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// UpdateProfile applies a partial update. Blank identity fields are ignored,
// blank optional fields clear the stored value. Role cannot be changed.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, in ports.UpdateProfileInput) (*domain.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := trimmed(in.Fullname); v != "" {
		user.Fullname = v
	}
	if v := trimmed(in.Username); v != "" {
		user.Username = v
	}
	if v := trimmed(in.Email); v != "" {
		user.Email = strings.ToLower(v)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.NRP != nil {
		user.NRP = strings.TrimSpace(*in.NRP)
	}
	if in.Institution != nil {
		user.Institution = strings.TrimSpace(*in.Institution)
	}
	if in.Biography != nil {
		user.Biography = *in.Biography
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*in.ProfilePicture)
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Msg("profile updated")
	return updated.Public(), nil
}

func (s *UserService) SetActive(ctx context.Context, actor *domain.User, id int64, active bool) (*domain.PublicUser, error) {
	if actor == nil || !actor.IsSuperuser {
		return nil, domain.ErrForbidden
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Int64("actor_id", actor.ID).Bool("active", active).Msg("account status changed")
	return user.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if actor == nil || !actor.IsSuperuser {
		return domain.ErrForbidden
	}
	if actor.ID == id {
		return domain.ErrCannotDeleteSelf
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", id).Int64("actor_id", actor.ID).Msg("account deleted")
	return nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
