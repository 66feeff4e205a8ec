package services

import (
	"context"

	"openbook-server/internal/domain/user"
	"openbook-server/internal/repository"

	"github.com/google/uuid"
)

// UserService is the identity directory: it resolves opaque user ids to
// minimal profiles for the request, chat and notification components.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (user.Profile, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return user.Profile{}, err
	}
	return u.Profile(), nil
}

func (s *UserService) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, error) {
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles := make(map[uuid.UUID]user.Profile, len(users))
	for _, u := range users {
		profiles[u.ID] = u.Profile()
	}
	return profiles, nil
}

func (s *UserService) Search(ctx context.Context, query string, page, limit int) ([]user.Profile, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	users, total, err := s.userRepo.SearchUsers(ctx, query, page, limit)
	if err != nil {
		return nil, 0, err
	}
	profiles := make([]user.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, total, nil
}

func (s *UserService) Friends(ctx context.Context, userID uuid.UUID) ([]user.Profile, error) {
	ids, err := s.userRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles := make([]user.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

// DeleteAccount removes the user and everything cascading from the
// account: requests, conversations with messages, friendships and
// notifications.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.Delete(ctx, userID)
}
