package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/apperr"
	"lensfolio/api/internal/middleware"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/service"
)

type portfolioRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	IsPublic       *bool  `json:"isPublic"`
	IsDefault      bool   `json:"isDefault"`
	Layout         string `json:"layout"`
	Theme          string `json:"theme"`
	SEOTitle       string `json:"seoTitle"`
	SEODescription string `json:"seoDescription"`
}

func (r portfolioRequest) toInput() service.PortfolioInput {
	return service.PortfolioInput{
		Title:          r.Title,
		Description:    r.Description,
		IsPublic:       r.IsPublic,
		IsDefault:      r.IsDefault,
		Layout:         models.PortfolioLayout(r.Layout),
		Theme:          r.Theme,
		SEOTitle:       r.SEOTitle,
		SEODescription: r.SEODescription,
	}
}

func (h HandlerSet) ListPortfolios(c *gin.Context) {
	limit, offset := pagination(c)
	portfolios, page, err := h.portfolios.ListPublic(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, pagedResponse[portfolioResponse]{
		Items: renderPortfolios(portfolios),
		Page:  page,
	})
}

func (h HandlerSet) CreatePortfolio(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	portfolio, err := h.portfolios.Create(c.Request.Context(), user.ID, req.toInput())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, renderPortfolio(portfolio))
}

func (h HandlerSet) GetPortfolio(c *gin.Context) {
	portfolio, err := h.portfolios.GetBySlug(c.Request.Context(), c.Param("slug"), viewerOrNil(c), visitorKey(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, renderPortfolio(portfolio))
}

func (h HandlerSet) UpdatePortfolio(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validation("invalid request body"))
		return
	}

	portfolio, err := h.portfolios.Update(c.Request.Context(), user, c.Param("id"), req.toInput())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, renderPortfolio(portfolio))
}

func (h HandlerSet) SetDefaultPortfolio(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.portfolios.SetDefault(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "default portfolio updated")
}

func (h HandlerSet) DeletePortfolio(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.portfolios.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "portfolio deleted")
}
