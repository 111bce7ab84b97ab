package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/ids"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/storage"
)

type PortfolioService struct {
	portfolios PortfolioStore
	views      ViewTracker
	store      storage.Store
	log        zerolog.Logger
}

func NewPortfolioService(portfolios PortfolioStore, views ViewTracker, store storage.Store, log zerolog.Logger) *PortfolioService {
	return &PortfolioService{
		portfolios: portfolios,
		views:      views,
		store:      store,
		log:        log,
	}
}

type PortfolioInput struct {
	Title          string
	Description    string
	IsPublic       *bool
	IsDefault      bool
	Layout         models.PortfolioLayout
	Theme          string
	SEOTitle       string
	SEODescription string
}

func (s *PortfolioService) Create(ctx context.Context, userID string, input PortfolioInput) (models.Portfolio, error) {
	if input.Title == "" {
		return models.Portfolio{}, apperr.Validation("title required", apperr.FieldError{Field: "title", Message: "required"})
	}

	slug, err := uniqueSlug(ctx, s.portfolios, Slugify(input.Title))
	if err != nil {
		return models.Portfolio{}, apperr.Internal(err)
	}

	layout := input.Layout
	if layout == "" {
		layout = models.PortfolioLayoutGrid
	}
	theme := input.Theme
	if theme == "" {
		theme = "light"
	}
	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	portfolio := models.Portfolio{
		ID:             ids.New(),
		UserID:         userID,
		Title:          input.Title,
		Slug:           slug,
		Description:    input.Description,
		IsPublic:       isPublic,
		Layout:         layout,
		Theme:          theme,
		SEOTitle:       input.SEOTitle,
		SEODescription: input.SEODescription,
	}

	if err := s.portfolios.Create(ctx, portfolio); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Portfolio{}, apperr.Conflict("portfolio slug already exists")
		}
		return models.Portfolio{}, apperr.Internal(err)
	}

	if input.IsDefault {
		if err := s.portfolios.SetDefault(ctx, userID, portfolio.ID); err != nil {
			return models.Portfolio{}, apperr.Internal(err)
		}
		portfolio.IsDefault = true
	}
	return portfolio, nil
}

// GetBySlug resolves a portfolio for a viewer. Private portfolios are only
// visible to their owner and admins; everyone else gets a not-found to avoid
// leaking existence. Public fetches record a view.
func (s *PortfolioService) GetBySlug(ctx context.Context, slug string, viewer *models.User, visitorKey string) (models.Portfolio, error) {
	portfolio, err := s.portfolios.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return models.Portfolio{}, apperr.NotFound("portfolio not found")
		}
		return models.Portfolio{}, apperr.Internal(err)
	}

	isOwner := viewer != nil && viewer.ID == portfolio.UserID
	if !portfolio.IsPublic && !isOwner && !isStaff(viewer) {
		return models.Portfolio{}, apperr.NotFound("portfolio not found")
	}

	if !isOwner && visitorKey != "" {
		s.recordView(ctx, portfolio.ID, visitorKey)
	}
	return portfolio, nil
}

func (s *PortfolioService) recordView(ctx context.Context, portfolioID, visitorKey string) {
	unique := false
	if s.views != nil {
		first, err := s.views.FirstSeen(ctx, "portfolio:"+portfolioID, visitorKey)
		if err != nil {
			s.log.Warn().Err(err).Msg("view tracker unavailable")
		} else {
			unique = first
		}
	}
	if err := s.portfolios.RecordView(ctx, portfolioID, unique); err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("record view failed")
	}
}

func (s *PortfolioService) ListByUser(ctx context.Context, userID string, includePrivate bool) ([]models.Portfolio, error) {
	portfolios, err := s.portfolios.ListByUser(ctx, userID, includePrivate)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return portfolios, nil
}

func (s *PortfolioService) ListPublic(ctx context.Context, limit, offset int) ([]models.Portfolio, Page, error) {
	portfolios, total, err := s.portfolios.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, Page{}, apperr.Internal(err)
	}
	return portfolios, NewPage(total, offset, limit), nil
}

func (s *PortfolioService) Update(ctx context.Context, actor models.User, portfolioID string, input PortfolioInput) (models.Portfolio, error) {
	portfolio, err := s.getOwned(ctx, actor, portfolioID)
	if err != nil {
		return models.Portfolio{}, err
	}

	if input.Title != "" {
		portfolio.Title = input.Title
	}
	portfolio.Description = input.Description
	if input.IsPublic != nil {
		portfolio.IsPublic = *input.IsPublic
	}
	if input.Layout != "" {
		portfolio.Layout = input.Layout
	}
	if input.Theme != "" {
		portfolio.Theme = input.Theme
	}
	portfolio.SEOTitle = input.SEOTitle
	portfolio.SEODescription = input.SEODescription

	if err := s.portfolios.Update(ctx, portfolio); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Portfolio{}, apperr.Conflict("portfolio slug already exists")
		}
		return models.Portfolio{}, apperr.Internal(err)
	}

	if input.IsDefault && !portfolio.IsDefault {
		if err := s.portfolios.SetDefault(ctx, portfolio.UserID, portfolio.ID); err != nil {
			return models.Portfolio{}, apperr.Internal(err)
		}
		portfolio.IsDefault = true
	}
	return portfolio, nil
}

func (s *PortfolioService) SetDefault(ctx context.Context, actor models.User, portfolioID string) error {
	portfolio, err := s.getOwned(ctx, actor, portfolioID)
	if err != nil {
		return err
	}
	if err := s.portfolios.SetDefault(ctx, portfolio.UserID, portfolio.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *PortfolioService) Delete(ctx context.Context, actor models.User, portfolioID string) error {
	if _, err := s.getOwned(ctx, actor, portfolioID); err != nil {
		return err
	}

	keys, err := s.portfolios.Delete(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return apperr.NotFound("portfolio not found")
		}
		return apperr.Internal(err)
	}

	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("orphaned object after portfolio delete")
		}
	}
	return nil
}

func (s *PortfolioService) getOwned(ctx context.Context, actor models.User, portfolioID string) (models.Portfolio, error) {
	portfolio, err := s.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return models.Portfolio{}, apperr.NotFound("portfolio not found")
		}
		return models.Portfolio{}, apperr.Internal(err)
	}
	if portfolio.UserID != actor.ID && !isStaff(&actor) {
		return models.Portfolio{}, apperr.Forbidden("not allowed")
	}
	return portfolio, nil
}

func isStaff(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.Role == models.UserRoleAdmin || user.Role == models.UserRoleSuperAdmin
}
