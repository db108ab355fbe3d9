package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/internal/services"
)

type TopicHandler struct {
	topicService services.TopicService
}

func NewTopicHandler(topicService services.TopicService) *TopicHandler {
	return &TopicHandler{topicService: topicService}
}

type createTopicRequest struct {
	Topic   string `json:"topic" binding:"required"`
	Context string `json:"context"`
}

// POST /topic
func (h *TopicHandler) Create(c *gin.Context) {
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	topic, err := h.topicService.CreateTopic(c.Request.Context(), req.Topic, req.Context)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"topic": topic})
}

// GET /topic/:id
func (h *TopicHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	topic, err := h.topicService.GetTopic(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"topic": topic})
}

// GET /topic
func (h *TopicHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	topics, total, err := h.topicService.ListTopics(c.Request.Context(), limit, offset)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"topics": topics, "total": total, "limit": limit, "offset": offset})
}

type updateTopicRequest struct {
	Topic   *string `json:"topic"`
	Context *string `json:"context"`
	DeskID  *string `json:"desk_id"`
}

// PUT /topic/:id
func (h *TopicHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.DeskID != nil {
		deskID, err := uuid.Parse(*req.DeskID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_desk_id", err)
			return
		}
		topic, err := h.topicService.LinkDesk(c.Request.Context(), id, deskID)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"topic": topic})
		return
	}
	updates := map[string]interface{}{}
	if req.Topic != nil {
		updates["topic"] = *req.Topic
	}
	if req.Context != nil {
		updates["context"] = *req.Context
	}
	if len(updates) == 0 {
		RespondError(c, http.StatusBadRequest, "empty_update", nil)
		return
	}
	topic, err := h.topicService.UpdateTopic(c.Request.Context(), id, updates)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"topic": topic})
}

// DELETE /topic/:id
func (h *TopicHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.topicService.DeleteTopic(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}
