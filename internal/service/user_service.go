package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/storage"
)

type UserService struct {
	users UserStore
	store storage.Store
	log   zerolog.Logger
}

func NewUserService(users UserStore, store storage.Store, log zerolog.Logger) *UserService {
	return &UserService{users: users, store: store, log: log}
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, apperr.Internal(err)
	}
	return user, nil
}

func (s *UserService) Search(ctx context.Context, query string, limit, offset int) ([]models.User, Page, error) {
	if query == "" {
		return nil, Page{}, apperr.Validation("search query required", apperr.FieldError{Field: "q", Message: "required"})
	}
	users, total, err := s.users.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, Page{}, apperr.Internal(err)
	}
	return users, NewPage(total, offset, limit), nil
}

func (s *UserService) Follow(ctx context.Context, followerID, followeeUsername string) error {
	followee, err := s.GetByUsername(ctx, followeeUsername)
	if err != nil {
		return err
	}
	if followee.ID == followerID {
		return apperr.Validation("cannot follow yourself")
	}
	if err := s.users.Follow(ctx, followerID, followee.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *UserService) Unfollow(ctx context.Context, followerID, followeeUsername string) error {
	followee, err := s.GetByUsername(ctx, followeeUsername)
	if err != nil {
		return err
	}
	if err := s.users.Unfollow(ctx, followerID, followee.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *UserService) Followers(ctx context.Context, username string, limit, offset int) ([]models.User, Page, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, Page{}, err
	}
	users, total, err := s.users.ListFollowers(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, Page{}, apperr.Internal(err)
	}
	return users, NewPage(total, offset, limit), nil
}

func (s *UserService) Following(ctx context.Context, username string, limit, offset int) ([]models.User, Page, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, Page{}, err
	}
	users, total, err := s.users.ListFollowing(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, Page{}, apperr.Internal(err)
	}
	return users, NewPage(total, offset, limit), nil
}

// Delete cascades through everything the user owns, then sweeps the stored
// objects. A failed object delete only orphans bytes; the database deletion
// stands.
func (s *UserService) Delete(ctx context.Context, actor models.User, targetID string) error {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(err)
	}

	if actor.ID != target.ID && actor.Role != models.UserRoleAdmin && actor.Role != models.UserRoleSuperAdmin {
		return apperr.Forbidden("not allowed")
	}

	if target.Role == models.UserRoleSuperAdmin {
		count, err := s.users.CountSuperAdmins(ctx)
		if err != nil {
			return apperr.Internal(err)
		}
		if count <= 1 {
			return apperr.Conflict("cannot delete the last super admin")
		}
	}

	keys, err := s.users.Delete(ctx, target.ID)
	if err != nil {
		return apperr.Internal(err)
	}

	if target.AvatarKey != nil {
		keys = append(keys, *target.AvatarKey)
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("orphaned object after user delete")
		}
	}
	return nil
}
