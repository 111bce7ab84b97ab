package handlers

import (
	"time"

	"lensfolio/api/internal/models"
	"lensfolio/api/internal/service"
)

// Wire representations. Models stay transport-agnostic; only these shapes
// are serialized.

type userResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"displayName"`
	Bio         string     `json:"bio,omitempty"`
	AvatarURL   *string    `json:"avatarUrl,omitempty"`
	Role        string     `json:"role"`
	Plan        string     `json:"plan"`
	Status      string     `json:"status,omitempty"`
	PhotoCount  int        `json:"photoCount"`
	ViewCount   int64      `json:"viewCount"`
	LikeCount   int64      `json:"likeCount"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// renderUser includes private fields; use for the account owner or staff.
func renderUser(u models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		Role:        string(u.Role),
		Plan:        string(u.Plan),
		Status:      string(u.Status),
		PhotoCount:  u.PhotoCount,
		ViewCount:   u.ViewCount,
		LikeCount:   u.LikeCount,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// renderProfile is the public view: no email, no status, no last login.
func renderProfile(u models.User) userResponse {
	out := renderUser(u)
	out.Email = ""
	out.Status = ""
	out.LastLoginAt = nil
	return out
}

func renderProfiles(users []models.User) []userResponse {
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = renderProfile(u)
	}
	return out
}

type portfolioResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description,omitempty"`
	IsPublic       bool      `json:"isPublic"`
	IsDefault      bool      `json:"isDefault"`
	Layout         string    `json:"layout"`
	Theme          string    `json:"theme"`
	SEOTitle       string    `json:"seoTitle,omitempty"`
	SEODescription string    `json:"seoDescription,omitempty"`
	CoverPhotoID   *string   `json:"coverPhotoId,omitempty"`
	ViewCount      int64     `json:"viewCount"`
	UniqueViews    int64     `json:"uniqueViews"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func renderPortfolio(p models.Portfolio) portfolioResponse {
	return portfolioResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		Title:          p.Title,
		Slug:           p.Slug,
		Description:    p.Description,
		IsPublic:       p.IsPublic,
		IsDefault:      p.IsDefault,
		Layout:         string(p.Layout),
		Theme:          p.Theme,
		SEOTitle:       p.SEOTitle,
		SEODescription: p.SEODescription,
		CoverPhotoID:   p.CoverPhotoID,
		ViewCount:      p.ViewCount,
		UniqueViews:    p.UniqueViews,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func renderPortfolios(portfolios []models.Portfolio) []portfolioResponse {
	out := make([]portfolioResponse, len(portfolios))
	for i, p := range portfolios {
		out[i] = renderPortfolio(p)
	}
	return out
}

type photoResponse struct {
	ID            string                `json:"id"`
	UserID        string                `json:"userId"`
	PortfolioID   string                `json:"portfolioId"`
	Title         string                `json:"title"`
	Description   string                `json:"description,omitempty"`
	URL           string                `json:"url"`
	ThumbURL      string                `json:"thumbUrl"`
	Width         int                   `json:"width"`
	Height        int                   `json:"height"`
	Format        string                `json:"format"`
	SizeBytes     int64                 `json:"sizeBytes"`
	Exif          *models.ExifMeta      `json:"exif,omitempty"`
	Tags          []string              `json:"tags,omitempty"`
	Category      string                `json:"category"`
	IsPublic      bool                  `json:"isPublic"`
	Moderation    string                `json:"moderation,omitempty"`
	ReviewReason  string                `json:"reviewReason,omitempty"`
	ViewCount     int64                 `json:"viewCount"`
	LikeCount     int64                 `json:"likeCount"`
	DownloadCount int64                 `json:"downloadCount"`
	ShareCount    int64                 `json:"shareCount"`
	Position      int                   `json:"position"`
	Palette       []models.PaletteColor `json:"palette,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// renderPhoto shows moderation state only to the owner and staff; public
// consumers only ever see approved photos anyway.
func renderPhoto(p models.Photo, includeModeration bool) photoResponse {
	out := photoResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		PortfolioID:   p.PortfolioID,
		Title:         p.Title,
		Description:   p.Description,
		URL:           p.URL,
		ThumbURL:      p.ThumbURL,
		Width:         p.Width,
		Height:        p.Height,
		Format:        p.Format,
		SizeBytes:     p.SizeBytes,
		Exif:          p.Exif,
		Tags:          p.Tags,
		Category:      string(p.Category),
		IsPublic:      p.IsPublic,
		ViewCount:     p.ViewCount,
		LikeCount:     p.LikeCount,
		DownloadCount: p.DownloadCount,
		ShareCount:    p.ShareCount,
		Position:      p.Position,
		Palette:       p.Palette,
		CreatedAt:     p.CreatedAt,
	}
	if includeModeration {
		out.Moderation = string(p.Moderation)
		out.ReviewReason = p.ReviewReason
	}
	return out
}

func renderPhotos(photos []models.Photo, includeModeration bool) []photoResponse {
	out := make([]photoResponse, len(photos))
	for i, p := range photos {
		out[i] = renderPhoto(p, includeModeration)
	}
	return out
}

// canSeeModeration reports whether the viewer owns the photo or is staff.
func canSeeModeration(viewer *models.User, ownerID string) bool {
	if viewer == nil {
		return false
	}
	if viewer.ID == ownerID {
		return true
	}
	return viewer.Role == models.UserRoleAdmin || viewer.Role == models.UserRoleSuperAdmin
}

type pagedResponse[T any] struct {
	Items []T          `json:"items"`
	Page  service.Page `json:"page"`
}
