package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/himTresor1/celia-sub001/internal/modules/event/dto"
	eventService "github.com/himTresor1/celia-sub001/internal/modules/event/service"
	"github.com/himTresor1/celia-sub001/pkg/response"
	"github.com/himTresor1/celia-sub001/pkg/validator"
)

type EventHandler struct {
	service eventService.EventService
}

func NewEventHandler(service eventService.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindError(err))
		return
	}

	event, err := h.service.Create(c.Request.Context(), userID, eventService.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	event, err := h.service.Get(c.Request.Context(), eventID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}
