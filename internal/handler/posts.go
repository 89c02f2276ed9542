package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/permission"
	"github.com/gin-gonic/gin"
)

func postIDParam(c *gin.Context) (string, bool) {
	postID := strings.TrimSpace(c.Param("postID"))
	if postID == "" {
		abortBadRequest(c, errInvalidPostID)
		return "", false
	}
	return postID, true
}

func (h *Handler) postsGet(c *gin.Context) {
	user := h.getIdentityFromRequest(c)

	var input dto.GetPostsRequest
	if err := c.ShouldBindQuery(&input); err != nil {
		abortBadRequest(c, err)
		return
	}

	page, err := h.services.Post.List(c.Request.Context(), model.ListOptions{
		Category: input.Category,
		Cursor:   input.Cursor,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := dto.GetPosts{
		Posts:      make([]dto.GetPost, 0, len(page.Items)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for i := range page.Items {
		post := page.Items[i]
		resp.Posts = append(resp.Posts, dto.GetPost{
			Post:       post,
			Permission: h.services.Post.Evaluate(user, &post).String(),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) postsGetByID(c *gin.Context) {
	user := h.getIdentityFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.services.Post.FindByID(c.Request.Context(), postID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GetPost{
		Post:       *post,
		Permission: h.services.Post.Evaluate(user, post).String(),
	})
}

func (h *Handler) postsGetPermission(c *gin.Context) {
	user := h.getIdentityFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	level, err := h.services.Post.Permission(c.Request.Context(), postID, user)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GetPermission{
		PostID:     postID,
		Permission: level.String(),
	})
}

func (h *Handler) postsCreate(c *gin.Context) {
	user := h.getIdentityFromRequest(c)

	var input dto.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortBadRequest(c, errInvalidBody)
		return
	}

	createdPost, err := h.services.Post.Create(c.Request.Context(), input, user)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, *createdPost)
}

func (h *Handler) postsUpdate(c *gin.Context) {
	user := h.getIdentityFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	var input dto.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortBadRequest(c, errInvalidBody)
		return
	}

	// the server has no cached level, the workflow re-checks on the fresh document
	updatedPost, err := h.services.Post.Update(c.Request.Context(), postID, input, user, permission.Unknown)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, *updatedPost)
}

func (h *Handler) postsDelete(c *gin.Context) {
	user := h.getIdentityFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Post.Delete(c.Request.Context(), postID, user, permission.Unknown); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, "post deleted"))
}
