package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/middleware"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/service"
)

func (h HandlerSet) ListPhotos(c *gin.Context) {
	viewer := viewerOrNil(c)
	limit, offset := pagination(c)

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	photos, page, err := h.photos.List(c.Request.Context(), viewer, service.PhotoListInput{
		Query:       c.Query("q"),
		Category:    c.Query("category"),
		Tags:        tags,
		Owner:       c.Query("owner"),
		PortfolioID: c.Query("portfolioId"),
		Sort:        c.Query("sort"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	includeModeration := canSeeModeration(viewer, c.Query("owner"))
	respondData(c, http.StatusOK, pagedResponse[photoResponse]{
		Items: renderPhotos(photos, includeModeration),
		Page:  page,
	})
}

// RegisterPhoto persists metadata for an object uploaded via a presigned URL.
func (h HandlerSet) RegisterPhoto(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req struct {
		Key         string           `json:"key"`
		Width       int              `json:"width"`
		Height      int              `json:"height"`
		SizeBytes   int64            `json:"sizeBytes"`
		Title       string           `json:"title"`
		Description string           `json:"description"`
		PortfolioID string           `json:"portfolioId"`
		Tags        []string         `json:"tags"`
		Category    string           `json:"category"`
		IsPublic    *bool            `json:"isPublic"`
		Exif        *models.ExifMeta `json:"exif"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	photo, err := h.uploads.RegisterUpload(c.Request.Context(), user, service.RegisterUploadInput{
		Key:       req.Key,
		Width:     req.Width,
		Height:    req.Height,
		SizeBytes: req.SizeBytes,
		Meta: service.PhotoMeta{
			Title:       req.Title,
			Description: req.Description,
			PortfolioID: req.PortfolioID,
			Tags:        req.Tags,
			Category:    req.Category,
			IsPublic:    req.IsPublic,
			Exif:        req.Exif,
		},
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, renderPhoto(photo, true))
}

func (h HandlerSet) GetPhoto(c *gin.Context) {
	viewer := viewerOrNil(c)
	photo, err := h.photos.Get(c.Request.Context(), c.Param("id"), viewer, visitorKey(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, renderPhoto(photo, canSeeModeration(viewer, photo.UserID)))
}

func (h HandlerSet) UpdatePhoto(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req struct {
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		Tags        []string         `json:"tags"`
		Category    *string          `json:"category"`
		IsPublic    *bool            `json:"isPublic"`
		PortfolioID *string          `json:"portfolioId"`
		Position    *int             `json:"position"`
		Exif        *models.ExifMeta `json:"exif"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	photo, err := h.photos.Update(c.Request.Context(), user, c.Param("id"), service.PhotoUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Category:    req.Category,
		IsPublic:    req.IsPublic,
		PortfolioID: req.PortfolioID,
		Position:    req.Position,
		Exif:        req.Exif,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, renderPhoto(photo, true))
}

func (h HandlerSet) DeletePhoto(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.photos.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "photo deleted")
}

func (h HandlerSet) LikePhoto(c *gin.Context) {
	h.engage(c, service.EngagementLike)
}

func (h HandlerSet) SharePhoto(c *gin.Context) {
	h.engage(c, service.EngagementShare)
}

// DownloadPhoto counts the download and hands back a short-lived signed URL.
func (h HandlerSet) DownloadPhoto(c *gin.Context) {
	viewer := viewerOrNil(c)
	photo, err := h.photos.Engage(c.Request.Context(), c.Param("id"), viewer, service.EngagementDownload)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"downloadUrl":   h.uploads.DownloadURL(c.Request.Context(), photo),
		"downloadCount": photo.DownloadCount,
	})
}

func (h HandlerSet) engage(c *gin.Context, kind service.EngagementKind) {
	photo, err := h.photos.Engage(c.Request.Context(), c.Param("id"), viewerOrNil(c), kind)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"likeCount":  photo.LikeCount,
		"shareCount": photo.ShareCount,
	})
}

func (h HandlerSet) PhotoAnalytics(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	analytics, err := h.photos.Analytics(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, analytics)
}
