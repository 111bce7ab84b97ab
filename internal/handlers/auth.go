package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/middleware"
	"lensfolio/api/internal/service"
)

type authPayload struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func (h HandlerSet) renderAuth(c *gin.Context, result service.AuthResult) authPayload {
	// Browser clients get the access token as a cookie too.
	maxAge := int(h.cfg.Security.JWTAccessTTL.Seconds())
	c.SetCookie(middleware.TokenCookie, result.AccessToken, maxAge, "/", "", h.cfg.HTTP.SecureCookies, true)

	return authPayload{
		User:         renderUser(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
}

func (h HandlerSet) Register(c *gin.Context) {
	var req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, h.renderAuth(c, result))
}

func (h HandlerSet) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, h.renderAuth(c, result))
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		respondError(c, h.log, apperr.Validation("refresh token required"))
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, h.renderAuth(c, result))
}

func (h HandlerSet) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		respondError(c, h.log, apperr.Auth("unauthorized"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), claims.SessionID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.cfg.HTTP.SecureCookies, true)
	respondMessage(c, http.StatusOK, "logged out")
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.Auth("unauthorized"))
		return
	}
	respondData(c, http.StatusOK, renderUser(user))
}

func (h HandlerSet) UpdateMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.Auth("unauthorized"))
		return
	}

	var req struct {
		DisplayName *string `json:"displayName"`
		Bio         *string `json:"bio"`
		Email       *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, service.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Email:       req.Email,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, renderUser(updated))
}

func (h HandlerSet) DeleteMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.Auth("unauthorized"))
		return
	}

	if err := h.users.Delete(c.Request.Context(), user, user.ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.cfg.HTTP.SecureCookies, true)
	respondMessage(c, http.StatusOK, "account deleted")
}
