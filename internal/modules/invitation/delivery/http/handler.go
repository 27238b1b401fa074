package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/himTresor1/celia-sub001/internal/entity"
	"github.com/himTresor1/celia-sub001/internal/modules/invitation/dto"
	invService "github.com/himTresor1/celia-sub001/internal/modules/invitation/service"
	"github.com/himTresor1/celia-sub001/pkg/response"
	"github.com/himTresor1/celia-sub001/pkg/validator"
)

type InvitationHandler struct {
	service invService.InvitationService
}

func NewInvitationHandler(service invService.InvitationService) *InvitationHandler {
	return &InvitationHandler{service: service}
}

func (h *InvitationHandler) BulkInvite(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	eventID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	// Host check comes before any body validation.
	if _, err := h.service.AuthorizeHost(c.Request.Context(), userID, eventID); err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.BulkInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindError(err))
		return
	}

	result, err := h.service.BulkInvite(c.Request.Context(), userID, eventID, req.InviteeIDs, req.Message)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *InvitationHandler) ListForEvent(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	eventID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	invitations, err := h.service.ListForEvent(c.Request.Context(), userID, eventID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitations})
}

func (h *InvitationHandler) ListReceived(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page := response.QueryInt(c, "page", 1)
	limit := response.QueryInt(c, "limit", 20)
	status := entity.InvitationStatus(c.Query("status"))

	invitations, total, err := h.service.ListReceived(c.Request.Context(), userID, status, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  invitations,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *InvitationHandler) Respond(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	invitationID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindError(err))
		return
	}

	invitation, err := h.service.Respond(c.Request.Context(), userID, invitationID, entity.InvitationStatus(req.Status))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitation)
}
