package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftdesk/draftdesk-backend/internal/services"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

type PostHandler struct {
	postService services.PostService
}

func NewPostHandler(postService services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

type submitPostRequest struct {
	TopicID string `json:"topic_id" binding:"required,uuid"`
}

// POST /post/submit
func (h *PostHandler) Submit(c *gin.Context) {
	var req submitPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	topicID, ok := parseUUID(c, req.TopicID, "topic_id")
	if !ok {
		return
	}
	post, err := h.postService.SubmitForReview(c.Request.Context(), topicID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GET /post/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	post, err := h.postService.GetPost(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"post": post})
}

// GET /post?status=pending
func (h *PostHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	status := types.PostStatus(c.Query("status"))
	posts, total, err := h.postService.ListPosts(c.Request.Context(), status, limit, offset)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"posts": posts, "total": total, "limit": limit, "offset": offset})
}

// POST /post/:id/approve
func (h *PostHandler) Approve(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	post, err := h.postService.ApprovePost(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"post": post})
}

type rejectPostRequest struct {
	Feedback string `json:"feedback"`
}

// POST /post/:id/reject
func (h *PostHandler) Reject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req rejectPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	post, err := h.postService.RejectPost(c.Request.Context(), id, req.Feedback)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"post": post})
}

// DELETE /post/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.postService.DeletePost(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}
