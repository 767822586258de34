package service

import (
	"context"

	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/repository"
)

// UserService backs the administrator user endpoints.
type UserService struct {
	users *repository.UserRepo
	log   *logger.Logger
}

func NewUserService(users *repository.UserRepo, log *logger.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// List returns every account ordered by name.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// Delete removes an account and all of its reservations.  Admins only, and
// never their own account.
func (s *UserService) Delete(ctx context.Context, id uint64, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if id == actor.UserID {
		return ErrSelfDelete
	}
	removed, err := s.users.Delete(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}
	s.log.Info("user deleted", logger.Action("delete_user"), logger.User(id), logger.F("BY", actor.UserID),
		logger.Count(int(removed)))
	return nil
}
