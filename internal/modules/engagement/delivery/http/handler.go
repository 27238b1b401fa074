package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	engagementService "github.com/himTresor1/celia-sub001/internal/modules/engagement/service"
	"github.com/himTresor1/celia-sub001/pkg/response"
)

type EngagementHandler struct {
	service engagementService.EngagementService
}

func NewEngagementHandler(service engagementService.EngagementService) *EngagementHandler {
	return &EngagementHandler{service: service}
}

// TouchActivity records today's visit for the streak.
func (h *EngagementHandler) TouchActivity(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.TouchDailyActivity(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *EngagementHandler) GetHistory(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page := response.QueryInt(c, "page", 1)
	limit := response.QueryInt(c, "limit", 20)

	logs, total, err := h.service.History(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
