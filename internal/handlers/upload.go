package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/middleware"
	"lensfolio/api/internal/service"
)

func (h HandlerSet) photoMetaFromForm(c *gin.Context) service.PhotoMeta {
	meta := service.PhotoMeta{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		PortfolioID: c.PostForm("portfolioId"),
		Category:    c.PostForm("category"),
	}
	if raw := c.PostForm("tags"); raw != "" {
		meta.Tags = strings.Split(raw, ",")
	}
	if raw := c.PostForm("isPublic"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			meta.IsPublic = &v
		}
	}
	return meta
}

func (h HandlerSet) readUpload(header *multipart.FileHeader) ([]byte, error) {
	if header.Size > h.cfg.Upload.MaxSizeBytes {
		return nil, apperr.Validation("file too large",
			apperr.FieldError{Field: "file", Message: "exceeds upload size limit"})
	}

	file, err := header.Open()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Upload.MaxSizeBytes+1))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if int64(len(data)) > h.cfg.Upload.MaxSizeBytes {
		return nil, apperr.Validation("file too large",
			apperr.FieldError{Field: "file", Message: "exceeds upload size limit"})
	}
	return data, nil
}

func (h HandlerSet) UploadPhoto(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.log, apperr.Validation("file required", apperr.FieldError{Field: "file", Message: "required"}))
		return
	}
	data, err := h.readUpload(header)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	photo, err := h.uploads.UploadPhoto(c.Request.Context(), user, data, h.photoMetaFromForm(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, renderPhoto(photo, true))
}

type batchItem struct {
	Filename string         `json:"filename"`
	Photo    *photoResponse `json:"photo,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// UploadPhotos runs the pipeline for up to MaxBatch files. Failures are
// reported per file; one bad image does not sink the batch.
func (h HandlerSet) UploadPhotos(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, h.log, apperr.Validation("multipart form required"))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		respondError(c, h.log, apperr.Validation("no files provided", apperr.FieldError{Field: "files", Message: "required"}))
		return
	}
	if len(files) > h.cfg.Upload.MaxBatch {
		respondError(c, h.log, apperr.Validation("too many files",
			apperr.FieldError{Field: "files", Message: "batch limit is " + strconv.Itoa(h.cfg.Upload.MaxBatch)}))
		return
	}

	meta := h.photoMetaFromForm(c)
	results := make([]batchItem, 0, len(files))
	for _, header := range files {
		item := batchItem{Filename: header.Filename}

		data, err := h.readUpload(header)
		if err == nil {
			itemMeta := meta
			if itemMeta.Title == "" {
				itemMeta.Title = header.Filename
			}
			var photo photoResponse
			if p, uploadErr := h.uploads.UploadPhoto(c.Request.Context(), user, data, itemMeta); uploadErr != nil {
				err = uploadErr
			} else {
				photo = renderPhoto(p, true)
				item.Photo = &photo
			}
		}
		if err != nil {
			item.Error = apperr.MessageOf(err)
		}
		results = append(results, item)
	}

	respondData(c, http.StatusOK, results)
}

func (h HandlerSet) UploadAvatar(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.log, apperr.Validation("file required", apperr.FieldError{Field: "file", Message: "required"}))
		return
	}
	data, err := h.readUpload(header)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	updated, err := h.uploads.UploadAvatar(c.Request.Context(), user, data)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, renderUser(updated))
}

func (h HandlerSet) PresignedURL(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	result, err := h.uploads.PresignedURL(c.Request.Context(), user, service.PresignedRequest{
		Filename:    req.Filename,
		ContentType: req.ContentType,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, result)
}
