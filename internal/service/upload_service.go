package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/config"
	"lensfolio/api/internal/ids"
	"lensfolio/api/internal/imaging"
	"lensfolio/api/internal/media/sniffer"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/storage"
)

type UploadService struct {
	photos     PhotoStore
	portfolios PortfolioStore
	users      UserStore
	store      storage.Store
	processor  *imaging.Processor
	cfg        *config.AppConfig
	log        zerolog.Logger
}

func NewUploadService(
	photos PhotoStore,
	portfolios PortfolioStore,
	users UserStore,
	store storage.Store,
	processor *imaging.Processor,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *UploadService {
	return &UploadService{
		photos:     photos,
		portfolios: portfolios,
		users:      users,
		store:      store,
		processor:  processor,
		cfg:        cfg,
		log:        log,
	}
}

type PhotoMeta struct {
	Title       string
	Description string
	PortfolioID string
	Tags        []string
	Category    string
	IsPublic    *bool
	Exif        *models.ExifMeta
}

// UploadPhoto runs the whole pipeline for one image: quota check, sniff,
// resize + thumbnail + palette, two object writes, then the metadata row.
// Any stage failing aborts the operation; objects already written are
// removed best-effort.
func (s *UploadService) UploadPhoto(ctx context.Context, user models.User, data []byte, meta PhotoMeta) (models.Photo, error) {
	if err := s.checkQuota(ctx, user); err != nil {
		return models.Photo{}, err
	}
	if int64(len(data)) > s.cfg.Upload.MaxSizeBytes {
		return models.Photo{}, apperr.Validation("file too large",
			apperr.FieldError{Field: "file", Message: fmt.Sprintf("exceeds %d bytes", s.cfg.Upload.MaxSizeBytes)})
	}

	sniffed, err := sniffer.DetectHead(head(data))
	if err != nil {
		return models.Photo{}, apperr.Validation("unsupported image format",
			apperr.FieldError{Field: "file", Message: "expected jpeg, png, gif or webp"})
	}

	category := models.CategoryOther
	if meta.Category != "" {
		category = models.PhotoCategory(meta.Category)
		if !models.ValidCategory(category) {
			return models.Photo{}, apperr.Validation("unknown category", apperr.FieldError{Field: "category", Message: "unknown category"})
		}
	}

	portfolio, err := s.resolvePortfolio(ctx, user, meta.PortfolioID)
	if err != nil {
		return models.Photo{}, err
	}

	result, err := s.processor.Process(data)
	if err != nil {
		return models.Photo{}, apperr.Processing("image processing failed", err)
	}

	// Derivatives are always re-encoded as JPEG.
	key := storage.BuildKey(s.cfg.Environment, storage.CategoryPhotos, user.ID, "jpg")
	thumbKey := storage.ThumbKey(key)

	mainInfo, err := s.store.Put(ctx, key, "image/jpeg", result.Main.Data, map[string]string{"owner": user.ID})
	if err != nil {
		return models.Photo{}, apperr.Storage("upload failed", err)
	}
	thumbInfo, err := s.store.Put(ctx, thumbKey, "image/jpeg", result.Thumbnail.Data, map[string]string{"owner": user.ID})
	if err != nil {
		s.cleanup(ctx, key)
		return models.Photo{}, apperr.Storage("thumbnail upload failed", err)
	}

	isPublic := true
	if meta.IsPublic != nil {
		isPublic = *meta.IsPublic
	}
	title := meta.Title
	if title == "" {
		title = "Untitled"
	}

	photo := models.Photo{
		ID:          ids.New(),
		UserID:      user.ID,
		PortfolioID: portfolio.ID,
		Title:       title,
		Description: meta.Description,
		StorageKey:  mainInfo.Key,
		URL:         mainInfo.URL,
		ThumbKey:    thumbInfo.Key,
		ThumbURL:    thumbInfo.URL,
		Width:       result.Main.Width,
		Height:      result.Main.Height,
		Format:      sniffed.MIME,
		SizeBytes:   mainInfo.Size,
		Exif:        meta.Exif,
		Tags:        normalizeTags(meta.Tags),
		Category:    category,
		IsPublic:    isPublic,
		Moderation:  models.ModerationPending,
		Palette:     result.Palette,
	}

	if err := s.photos.Create(ctx, photo); err != nil {
		s.cleanup(ctx, key, thumbKey)
		return models.Photo{}, apperr.Internal(err)
	}
	return photo, nil
}

// UploadAvatar renders a square avatar and swaps it into the profile,
// removing the previous object.
func (s *UploadService) UploadAvatar(ctx context.Context, user models.User, data []byte) (models.User, error) {
	if _, err := sniffer.DetectHead(head(data)); err != nil {
		return models.User{}, apperr.Validation("unsupported image format",
			apperr.FieldError{Field: "file", Message: "expected jpeg, png, gif or webp"})
	}

	avatarProcessor := imaging.NewProcessor(imaging.Options{
		MaxDimension: s.cfg.Upload.ThumbSize,
		Quality:      s.cfg.Upload.Quality,
		ThumbSize:    256,
		ThumbQuality: s.cfg.Upload.Quality,
		PaletteSize:  1,
	})
	result, err := avatarProcessor.Process(data)
	if err != nil {
		return models.User{}, apperr.Processing("avatar processing failed", err)
	}

	key := storage.BuildKey(s.cfg.Environment, storage.CategoryAvatars, user.ID, "jpg")
	info, err := s.store.Put(ctx, key, "image/jpeg", result.Thumbnail.Data, nil)
	if err != nil {
		return models.User{}, apperr.Storage("avatar upload failed", err)
	}

	oldKey := user.AvatarKey
	user.AvatarURL = &info.URL
	user.AvatarKey = &info.Key
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		s.cleanup(ctx, key)
		return models.User{}, apperr.Internal(err)
	}

	if oldKey != nil && *oldKey != "" {
		s.cleanup(ctx, *oldKey)
	}
	return user, nil
}

type PresignedRequest struct {
	Filename    string
	ContentType string
}

type PresignedResult struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	ExpiresIn int    `json:"expiresIn"`
}

// PresignedURL hands the client a time-limited direct upload capability.
// Nothing is tracked server-side; the photo row appears when the client
// registers the finished upload.
func (s *UploadService) PresignedURL(ctx context.Context, user models.User, req PresignedRequest) (PresignedResult, error) {
	if err := s.checkQuota(ctx, user); err != nil {
		return PresignedResult{}, err
	}

	ext := extensionForContentType(req.ContentType)
	if ext == "" {
		ext = strings.TrimPrefix(path.Ext(req.Filename), ".")
	}
	if !allowedExtension(ext) {
		return PresignedResult{}, apperr.Validation("unsupported content type",
			apperr.FieldError{Field: "contentType", Message: "expected an image type"})
	}

	key := storage.BuildKey(s.cfg.Environment, storage.CategoryPhotos, user.ID, ext)
	uploadURL, err := s.store.PresignedUpload(ctx, key, req.ContentType, s.cfg.Upload.PresignedTTL)
	if err != nil {
		return PresignedResult{}, apperr.Storage("presign failed", err)
	}

	return PresignedResult{
		Key:       key,
		UploadURL: uploadURL,
		PublicURL: s.store.PublicURL(key),
		ExpiresIn: int(s.cfg.Upload.PresignedTTL.Seconds()),
	}, nil
}

type RegisterUploadInput struct {
	Key       string
	Width     int
	Height    int
	SizeBytes int64
	Meta      PhotoMeta
}

// RegisterUpload persists the metadata row for an object the client pushed
// through a presigned URL. The key must live in the caller's own namespace.
func (s *UploadService) RegisterUpload(ctx context.Context, user models.User, input RegisterUploadInput) (models.Photo, error) {
	if err := s.checkQuota(ctx, user); err != nil {
		return models.Photo{}, err
	}
	if input.Key == "" {
		return models.Photo{}, apperr.Validation("key required", apperr.FieldError{Field: "key", Message: "required"})
	}
	if !strings.Contains(input.Key, "/"+user.ID+"/") {
		return models.Photo{}, apperr.Forbidden("key outside caller namespace")
	}

	portfolio, err := s.resolvePortfolio(ctx, user, input.Meta.PortfolioID)
	if err != nil {
		return models.Photo{}, err
	}

	category := models.CategoryOther
	if input.Meta.Category != "" {
		category = models.PhotoCategory(input.Meta.Category)
		if !models.ValidCategory(category) {
			return models.Photo{}, apperr.Validation("unknown category", apperr.FieldError{Field: "category", Message: "unknown category"})
		}
	}
	isPublic := true
	if input.Meta.IsPublic != nil {
		isPublic = *input.Meta.IsPublic
	}
	title := input.Meta.Title
	if title == "" {
		title = "Untitled"
	}

	photo := models.Photo{
		ID:          ids.New(),
		UserID:      user.ID,
		PortfolioID: portfolio.ID,
		Title:       title,
		Description: input.Meta.Description,
		StorageKey:  input.Key,
		URL:         s.store.PublicURL(input.Key),
		ThumbKey:    input.Key,
		ThumbURL:    s.store.PublicURL(input.Key),
		Width:       input.Width,
		Height:      input.Height,
		Format:      "image/" + strings.TrimPrefix(path.Ext(input.Key), "."),
		SizeBytes:   input.SizeBytes,
		Exif:        input.Meta.Exif,
		Tags:        normalizeTags(input.Meta.Tags),
		Category:    category,
		IsPublic:    isPublic,
		Moderation:  models.ModerationPending,
	}

	if err := s.photos.Create(ctx, photo); err != nil {
		return models.Photo{}, apperr.Internal(err)
	}
	return photo, nil
}

// DownloadURL issues a short-lived signed URL, falling back to the public
// URL when signing fails.
func (s *UploadService) DownloadURL(ctx context.Context, photo models.Photo) string {
	url, err := s.store.PresignedDownload(ctx, photo.StorageKey, s.cfg.Upload.PresignedTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("key", photo.StorageKey).Msg("presign download failed, using public url")
		return photo.URL
	}
	return url
}

func (s *UploadService) checkQuota(ctx context.Context, user models.User) error {
	limit := s.cfg.Plans.FreePhotoLimit
	if user.Plan == models.UserPlanPro {
		limit = s.cfg.Plans.ProPhotoLimit
	}
	if limit <= 0 {
		return nil // unlimited
	}

	count, err := s.photos.CountByUser(ctx, user.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	if count >= limit {
		return apperr.Forbidden(fmt.Sprintf("photo quota reached (%d on the %s plan)", limit, user.Plan))
	}
	return nil
}

func (s *UploadService) resolvePortfolio(ctx context.Context, user models.User, portfolioID string) (models.Portfolio, error) {
	if portfolioID == "" {
		portfolios, err := s.portfolios.ListByUser(ctx, user.ID, true)
		if err != nil {
			return models.Portfolio{}, apperr.Internal(err)
		}
		for _, p := range portfolios {
			if p.IsDefault {
				return p, nil
			}
		}
		if len(portfolios) > 0 {
			return portfolios[0], nil
		}
		return models.Portfolio{}, apperr.Validation("no portfolio available",
			apperr.FieldError{Field: "portfolioId", Message: "create a portfolio first"})
	}

	portfolio, err := s.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return models.Portfolio{}, apperr.NotFound("portfolio not found")
		}
		return models.Portfolio{}, apperr.Internal(err)
	}
	if portfolio.UserID != user.ID {
		return models.Portfolio{}, apperr.Forbidden("portfolio belongs to another user")
	}
	return portfolio, nil
}

func (s *UploadService) cleanup(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("cleanup delete failed")
		}
	}
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	}
	return ""
}

func allowedExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}
