package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/middleware"
	"lensfolio/api/internal/service"
)

func (h HandlerSet) SearchUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, page, err := h.users.Search(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, pagedResponse[userResponse]{Items: renderProfiles(users), Page: page})
}

func (h HandlerSet) GetUser(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, renderProfile(user))
}

func (h HandlerSet) UserPortfolios(c *gin.Context) {
	owner, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	viewer := viewerOrNil(c)
	includePrivate := canSeeModeration(viewer, owner.ID)
	portfolios, err := h.portfolios.ListByUser(c.Request.Context(), owner.ID, includePrivate)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, renderPortfolios(portfolios))
}

func (h HandlerSet) UserPhotos(c *gin.Context) {
	owner, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	viewer := viewerOrNil(c)
	limit, offset := pagination(c)
	photos, page, err := h.photos.List(c.Request.Context(), viewer, service.PhotoListInput{
		Owner:    owner.ID,
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	includeModeration := canSeeModeration(viewer, owner.ID)
	respondData(c, http.StatusOK, pagedResponse[photoResponse]{
		Items: renderPhotos(photos, includeModeration),
		Page:  page,
	})
}

func (h HandlerSet) UserFollowers(c *gin.Context) {
	limit, offset := pagination(c)
	users, page, err := h.users.Followers(c.Request.Context(), c.Param("username"), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, pagedResponse[userResponse]{Items: renderProfiles(users), Page: page})
}

func (h HandlerSet) UserFollowing(c *gin.Context) {
	limit, offset := pagination(c)
	users, page, err := h.users.Following(c.Request.Context(), c.Param("username"), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, pagedResponse[userResponse]{Items: renderProfiles(users), Page: page})
}

func (h HandlerSet) FollowUser(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.users.Follow(c.Request.Context(), user.ID, c.Param("username")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "following")
}

func (h HandlerSet) UnfollowUser(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.users.Unfollow(c.Request.Context(), user.ID, c.Param("username")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "unfollowed")
}
