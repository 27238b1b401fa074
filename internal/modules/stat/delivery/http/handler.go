package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	statService "github.com/himTresor1/celia-sub001/internal/modules/stat/service"
	"github.com/himTresor1/celia-sub001/pkg/response"
)

type StatHandler struct {
	statService statService.StatService
}

func NewStatHandler(statService statService.StatService) *StatHandler {
	return &StatHandler{statService: statService}
}

// GetUserStats accepts a user id or "me".
func (h *StatHandler) GetUserStats(c *gin.Context) {
	var (
		userID = c.Param("id")
		stats  *statService.UserStats
	)

	id, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if userID != "me" {
		if id, err = response.ParamUUID(c, "id"); err != nil {
			response.ResponseError(c, err)
			return
		}
	}

	stats, err = h.statService.GetUserStats(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
