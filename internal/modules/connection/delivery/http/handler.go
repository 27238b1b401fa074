package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/himTresor1/celia-sub001/internal/modules/connection/dto"
	connService "github.com/himTresor1/celia-sub001/internal/modules/connection/service"
	"github.com/himTresor1/celia-sub001/pkg/apperror"
	"github.com/himTresor1/celia-sub001/pkg/response"
	"github.com/himTresor1/celia-sub001/pkg/validator"
)

type ConnectionHandler struct {
	service connService.ConnectionService
}

func NewConnectionHandler(service connService.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

func (h *ConnectionHandler) SendPulse(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.PulseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindError(err))
		return
	}
	if req.FromUserID != nil && *req.FromUserID != userID {
		response.ResponseError(c, apperror.New(http.StatusForbidden, "from_user_id must be the authenticated user", apperror.ErrForbidden))
		return
	}

	result, err := h.service.SendPulse(c.Request.Context(), userID, req.ToUserID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ConnectionHandler) Unfriend(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	otherID, err := response.ParamUUID(c, "otherUserId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.Unfriend(c.Request.Context(), userID, otherID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ConnectionHandler) GetStatus(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	otherID, err := response.ParamUUID(c, "otherUserId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	state, err := h.service.State(c.Request.Context(), userID, otherID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ConnectionStatusResponse{
		Connected: state == connService.StateActive,
		State:     state,
	})
}

func (h *ConnectionHandler) ListFriends(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	friends, err := h.service.ListFriends(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": friends})
}
