package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/middleware"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/service"
)

func (h HandlerSet) AdminListPhotos(c *gin.Context) {
	status := models.ModerationStatus(c.DefaultQuery("status", string(models.ModerationPending)))
	switch status {
	case models.ModerationPending, models.ModerationApproved, models.ModerationRejected:
	default:
		respondError(c, h.log, apperr.Validation("unknown status", apperr.FieldError{Field: "status", Message: "pending, approved or rejected"}))
		return
	}

	limit, offset := pagination(c)
	photos, page, err := h.admin.ListPhotos(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, pagedResponse[photoResponse]{
		Items: renderPhotos(photos, true),
		Page:  page,
	})
}

func (h HandlerSet) ModeratePhoto(c *gin.Context) {
	reviewer, _ := middleware.CurrentUser(c)

	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	err := h.admin.Moderate(c.Request.Context(), reviewer, c.Param("id"), service.ModerateInput{
		Status: models.ModerationStatus(req.Status),
		Reason: req.Reason,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "photo moderated")
}

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, page, err := h.admin.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	items := make([]userResponse, len(users))
	for i, u := range users {
		items[i] = renderUser(u)
	}
	respondData(c, http.StatusOK, pagedResponse[userResponse]{Items: items, Page: page})
}

func (h HandlerSet) ChangeUserRole(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	if err := h.admin.ChangeRole(c.Request.Context(), actor, c.Param("id"), models.UserRole(req.Role)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "role updated")
}

func (h HandlerSet) ChangeUserStatus(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	if err := h.admin.ChangeStatus(c.Request.Context(), actor, c.Param("id"), models.UserStatus(req.Status)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "status updated")
}

func (h HandlerSet) ChangeUserPlan(c *gin.Context) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	if err := h.admin.ChangePlan(c.Request.Context(), c.Param("id"), models.UserPlan(req.Plan)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "plan updated")
}

func (h HandlerSet) AdminDeleteUser(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	if err := h.users.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "user deleted")
}

func (h HandlerSet) AdminStats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}
