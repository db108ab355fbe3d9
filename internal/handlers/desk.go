package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/internal/services"
)

type DeskHandler struct {
	deskService services.DeskService
}

func NewDeskHandler(deskService services.DeskService) *DeskHandler {
	return &DeskHandler{deskService: deskService}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func parseUUID(c *gin.Context, raw, field string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_"+field, err)
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// POST /desk
func (h *DeskHandler) Create(c *gin.Context) {
	var req services.CreateDeskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	desk, err := h.deskService.CreateDesk(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"desk": desk})
}

// GET /desk/:id
func (h *DeskHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	desk, err := h.deskService.GetDesk(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"desk": desk})
}

// GET /desk
func (h *DeskHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	desks, total, err := h.deskService.ListDesks(c.Request.Context(), limit, offset)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"desks": desks, "total": total, "limit": limit, "offset": offset})
}

type updateDeskRequest struct {
	Topic       *string `json:"topic"`
	Context     *string `json:"context"`
	Platform    *string `json:"platform"`
	ContentType *string `json:"content_type"`
}

// PUT /desk/:id
func (h *DeskHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updateDeskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	updates := map[string]interface{}{}
	if req.Topic != nil {
		updates["topic"] = *req.Topic
	}
	if req.Context != nil {
		updates["context"] = *req.Context
	}
	if req.Platform != nil {
		updates["platform"] = *req.Platform
	}
	if req.ContentType != nil {
		updates["content_type"] = *req.ContentType
	}
	if len(updates) == 0 {
		RespondError(c, http.StatusBadRequest, "empty_update", nil)
		return
	}
	desk, err := h.deskService.UpdateDesk(c.Request.Context(), id, updates)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"desk": desk})
}

// DELETE /desk/:id
func (h *DeskHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.deskService.DeleteDesk(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

// GET /desk/:id/content
func (h *DeskHandler) GetContent(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	content, err := h.deskService.GetContentForDesk(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"content": content})
}

// GET /desk/:id/status
func (h *DeskHandler) GetStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	status, err := h.deskService.GetStatus(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": status})
}

// POST /desk/:id/run/content
//
// Kicks off the content phase in the background; the response only says
// the run was accepted, the outcome lands in the desk status.
func (h *DeskHandler) RunContentPhase(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.deskService.TriggerRunContentPhase(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// POST /desk/:id/run
func (h *DeskHandler) Run(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.deskService.TriggerRun(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
