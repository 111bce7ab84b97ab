package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
)

type AdminService struct {
	users  UserStore
	photos PhotoStore
	log    zerolog.Logger
}

func NewAdminService(users UserStore, photos PhotoStore, log zerolog.Logger) *AdminService {
	return &AdminService{users: users, photos: photos, log: log}
}

func (s *AdminService) ListPhotos(ctx context.Context, status models.ModerationStatus, limit, offset int) ([]models.Photo, Page, error) {
	filter := repository.PhotoFilter{
		Moderation: status,
		Sort:       repository.SortOldest, // review queue: oldest first
		Limit:      limit,
		Offset:     offset,
	}
	photos, total, err := s.photos.List(ctx, filter)
	if err != nil {
		return nil, Page{}, apperr.Internal(err)
	}
	return photos, NewPage(total, offset, limit), nil
}

type ModerateInput struct {
	Status models.ModerationStatus
	Reason string
}

func (s *AdminService) Moderate(ctx context.Context, reviewer models.User, photoID string, input ModerateInput) error {
	if input.Status != models.ModerationApproved && input.Status != models.ModerationRejected {
		return apperr.Validation("status must be approved or rejected",
			apperr.FieldError{Field: "status", Message: "approved or rejected"})
	}
	if input.Status == models.ModerationRejected && input.Reason == "" {
		return apperr.Validation("rejection requires a reason",
			apperr.FieldError{Field: "reason", Message: "required when rejecting"})
	}

	if err := s.photos.Moderate(ctx, photoID, input.Status, reviewer.ID, input.Reason); err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return apperr.NotFound("photo not found")
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, Page, error) {
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, Page{}, apperr.Internal(err)
	}
	return users, NewPage(total, offset, limit), nil
}

// ChangeRole reassigns a user's role. Only a super admin may grant or
// revoke admin-level roles, and the last super admin can never be demoted.
func (s *AdminService) ChangeRole(ctx context.Context, actor models.User, targetID string, role models.UserRole) error {
	switch role {
	case models.UserRoleUser, models.UserRoleAdmin, models.UserRoleSuperAdmin:
	default:
		return apperr.Validation("unknown role", apperr.FieldError{Field: "role", Message: "unknown role"})
	}
	if actor.Role != models.UserRoleSuperAdmin {
		return apperr.Forbidden("only a super admin may change roles")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(err)
	}
	if target.Role == role {
		return nil
	}

	if target.Role == models.UserRoleSuperAdmin {
		count, err := s.users.CountSuperAdmins(ctx)
		if err != nil {
			return apperr.Internal(err)
		}
		if count <= 1 {
			return apperr.Conflict("cannot demote the last super admin")
		}
	}

	if err := s.users.UpdateRole(ctx, targetID, role); err != nil {
		return apperr.Internal(err)
	}
	s.log.Info().Str("actor", actor.ID).Str("target", targetID).Str("role", string(role)).Msg("role changed")
	return nil
}

func (s *AdminService) ChangeStatus(ctx context.Context, actor models.User, targetID string, status models.UserStatus) error {
	if status != models.UserStatusActive && status != models.UserStatusSuspended {
		return apperr.Validation("unknown status", apperr.FieldError{Field: "status", Message: "active or suspended"})
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(err)
	}
	if target.Role == models.UserRoleSuperAdmin && actor.Role != models.UserRoleSuperAdmin {
		return apperr.Forbidden("cannot suspend a super admin")
	}

	if err := s.users.UpdateStatus(ctx, targetID, status); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *AdminService) ChangePlan(ctx context.Context, targetID string, plan models.UserPlan) error {
	if plan != models.UserPlanFree && plan != models.UserPlanPro {
		return apperr.Validation("unknown plan", apperr.FieldError{Field: "plan", Message: "free or pro"})
	}
	if err := s.users.UpdatePlan(ctx, targetID, plan); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(err)
	}
	return nil
}

type PlatformStats struct {
	Users          int                             `json:"users"`
	Photos         map[models.ModerationStatus]int `json:"photosByStatus"`
	PendingReviews int                             `json:"pendingReviews"`
}

func (s *AdminService) Stats(ctx context.Context) (PlatformStats, error) {
	_, userTotal, err := s.users.List(ctx, 1, 0)
	if err != nil {
		return PlatformStats{}, apperr.Internal(err)
	}
	counts, err := s.photos.CountByStatus(ctx)
	if err != nil {
		return PlatformStats{}, apperr.Internal(err)
	}
	return PlatformStats{
		Users:          userTotal,
		Photos:         counts,
		PendingReviews: counts[models.ModerationPending],
	}, nil
}
