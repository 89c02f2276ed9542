package handler

import (
	"net/http"

	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) messagesCreate(c *gin.Context) {
	var input dto.MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortBadRequest(c, errInvalidBody)
		return
	}

	if _, err := h.services.Message.Send(c.Request.Context(), input); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewBasicResponse(true, "message sent"))
}
