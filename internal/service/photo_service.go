package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/config"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/storage"
)

type PhotoService struct {
	photos PhotoStore
	views  ViewTracker
	store  storage.Store
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewPhotoService(photos PhotoStore, views ViewTracker, store storage.Store, cfg *config.AppConfig, log zerolog.Logger) *PhotoService {
	return &PhotoService{
		photos: photos,
		views:  views,
		store:  store,
		cfg:    cfg,
		log:    log,
	}
}

type PhotoListInput struct {
	Query       string
	Category    string
	Tags        []string
	Owner       string
	PortfolioID string
	Sort        string
	Limit       int
	Offset      int
}

// List returns photos the viewer may see: everything of their own, only
// public approved photos of others.
func (s *PhotoService) List(ctx context.Context, viewer *models.User, input PhotoListInput) ([]models.Photo, Page, error) {
	filter := repository.PhotoFilter{
		Query:       input.Query,
		OwnerID:     input.Owner,
		PortfolioID: input.PortfolioID,
		Sort:        repository.SortOrder(input.Sort),
		Limit:       input.Limit,
		Offset:      input.Offset,
		Tags:        input.Tags,
	}
	if input.Category != "" {
		category := models.PhotoCategory(input.Category)
		if !models.ValidCategory(category) {
			return nil, Page{}, apperr.Validation("unknown category", apperr.FieldError{Field: "category", Message: "unknown category"})
		}
		filter.Category = category
	}

	ownRequest := viewer != nil && input.Owner == viewer.ID
	if !ownRequest && !isStaff(viewer) {
		filter.VisibleOnly = true
	}

	photos, total, err := s.photos.List(ctx, filter)
	if err != nil {
		return nil, Page{}, apperr.Internal(err)
	}
	return photos, NewPage(total, input.Offset, input.Limit), nil
}

// Get fetches one photo, hiding unapproved or private photos from everyone
// but the owner and staff. Public views are counted.
func (s *PhotoService) Get(ctx context.Context, id string, viewer *models.User, visitorKey string) (models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return models.Photo{}, apperr.NotFound("photo not found")
		}
		return models.Photo{}, apperr.Internal(err)
	}

	isOwner := viewer != nil && viewer.ID == photo.UserID
	if !photo.PubliclyVisible() && !isOwner && !isStaff(viewer) {
		return models.Photo{}, apperr.NotFound("photo not found")
	}

	if !isOwner && visitorKey != "" && s.recordView(ctx, photo.ID, visitorKey) {
		photo.ViewCount++
	}
	return photo, nil
}

// recordView counts a view once per visitor within the dedup window and
// reports whether the counter moved. With the tracker down views are
// counted anyway rather than lost.
func (s *PhotoService) recordView(ctx context.Context, photoID, visitorKey string) bool {
	if s.views != nil {
		first, err := s.views.FirstSeen(ctx, "photo:"+photoID, visitorKey)
		if err != nil {
			s.log.Warn().Err(err).Msg("view tracker unavailable")
		} else if !first {
			return false
		}
	}
	if err := s.photos.IncrementCounter(ctx, photoID, repository.CounterViews); err != nil {
		s.log.Warn().Err(err).Str("photo_id", photoID).Msg("record view failed")
		return false
	}
	return true
}

type PhotoUpdateInput struct {
	Title       *string
	Description *string
	Tags        []string
	Category    *string
	IsPublic    *bool
	PortfolioID *string
	Position    *int
	Exif        *models.ExifMeta
}

func (s *PhotoService) Update(ctx context.Context, actor models.User, id string, input PhotoUpdateInput) (models.Photo, error) {
	photo, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return models.Photo{}, err
	}

	if input.Title != nil {
		photo.Title = *input.Title
	}
	if input.Description != nil {
		photo.Description = *input.Description
	}
	if input.Tags != nil {
		photo.Tags = normalizeTags(input.Tags)
	}
	if input.Category != nil {
		category := models.PhotoCategory(*input.Category)
		if !models.ValidCategory(category) {
			return models.Photo{}, apperr.Validation("unknown category", apperr.FieldError{Field: "category", Message: "unknown category"})
		}
		photo.Category = category
	}
	if input.IsPublic != nil {
		photo.IsPublic = *input.IsPublic
	}
	if input.PortfolioID != nil {
		photo.PortfolioID = *input.PortfolioID
	}
	if input.Position != nil {
		photo.Position = *input.Position
	}
	if input.Exif != nil {
		photo.Exif = input.Exif
	}

	if err := s.photos.Update(ctx, photo); err != nil {
		return models.Photo{}, apperr.Internal(err)
	}
	return photo, nil
}

// Delete removes the photo record first, then sweeps the stored objects.
// Object deletion failures are logged, never propagated.
func (s *PhotoService) Delete(ctx context.Context, actor models.User, id string) error {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return err
	}

	photo, err := s.photos.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return apperr.NotFound("photo not found")
		}
		return apperr.Internal(err)
	}

	for _, key := range []string{photo.StorageKey, photo.ThumbKey} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("orphaned object after photo delete")
		}
	}
	return nil
}

type EngagementKind string

const (
	EngagementLike     EngagementKind = "like"
	EngagementDownload EngagementKind = "download"
	EngagementShare    EngagementKind = "share"
)

// Engage bumps a photo's like/download/share counter. Only visible photos
// accept engagement from non-owners.
func (s *PhotoService) Engage(ctx context.Context, id string, viewer *models.User, kind EngagementKind) (models.Photo, error) {
	photo, err := s.Get(ctx, id, viewer, "")
	if err != nil {
		return models.Photo{}, err
	}

	var column repository.CounterColumn
	switch kind {
	case EngagementLike:
		column = repository.CounterLikes
		photo.LikeCount++
	case EngagementDownload:
		column = repository.CounterDownloads
		photo.DownloadCount++
	case EngagementShare:
		column = repository.CounterShares
		photo.ShareCount++
	default:
		return models.Photo{}, apperr.Validation("unknown engagement kind")
	}

	if err := s.photos.IncrementCounter(ctx, id, column); err != nil {
		return models.Photo{}, apperr.Internal(err)
	}
	return photo, nil
}

type PhotoAnalytics struct {
	PhotoID    string                  `json:"photoId"`
	Views      int64                   `json:"views"`
	Likes      int64                   `json:"likes"`
	Downloads  int64                   `json:"downloads"`
	Shares     int64                   `json:"shares"`
	Palette    []models.PaletteColor   `json:"palette"`
	UploadedAt time.Time               `json:"uploadedAt"`
	Moderation models.ModerationStatus `json:"moderation"`
}

func (s *PhotoService) Analytics(ctx context.Context, actor models.User, id string) (PhotoAnalytics, error) {
	photo, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return PhotoAnalytics{}, err
	}
	return PhotoAnalytics{
		PhotoID:    photo.ID,
		Views:      photo.ViewCount,
		Likes:      photo.LikeCount,
		Downloads:  photo.DownloadCount,
		Shares:     photo.ShareCount,
		Palette:    photo.Palette,
		UploadedAt: photo.CreatedAt,
		Moderation: photo.Moderation,
	}, nil
}

func (s *PhotoService) getOwned(ctx context.Context, actor models.User, id string) (models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return models.Photo{}, apperr.NotFound("photo not found")
		}
		return models.Photo{}, apperr.Internal(err)
	}
	if photo.UserID != actor.ID && !isStaff(&actor) {
		return models.Photo{}, apperr.Forbidden("not allowed")
	}
	return photo, nil
}
