package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/draftdesk/draftdesk-backend/internal/services"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

// maxUploadSize caps knowledge-base uploads at 25 MB.
const maxUploadSize = 25 << 20

type KnowledgeHandler struct {
	knowledgeService services.KnowledgeService
}

func NewKnowledgeHandler(knowledgeService services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

type addTextRequest struct {
	Name string `json:"name" binding:"required"`
	Text string `json:"text" binding:"required"`
}

// POST /kb/text
func (h *KnowledgeHandler) AddText(c *gin.Context) {
	var req addTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	doc, err := h.knowledgeService.AddText(c.Request.Context(), req.Name, req.Text)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// POST /kb/file (multipart)
func (h *KnowledgeHandler) AddFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	docType, ok := docTypeFromFilename(fileHeader.Filename)
	if !ok {
		RespondError(c, http.StatusBadRequest, "unsupported_file_type", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()

	doc, err := h.knowledgeService.AddFile(c.Request.Context(), fileHeader.Filename, docType, file)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

type addWebsiteRequest struct {
	Name string   `json:"name" binding:"required"`
	URLs []string `json:"urls" binding:"required,min=1"`
}

// POST /kb/website
func (h *KnowledgeHandler) AddWebsite(c *gin.Context) {
	var req addWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	doc, err := h.knowledgeService.AddWebsite(c.Request.Context(), req.Name, req.URLs)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// GET /kb
func (h *KnowledgeHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	docs, total, err := h.knowledgeService.ListDocs(c.Request.Context(), limit, offset)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"documents": docs, "total": total, "limit": limit, "offset": offset})
}

// DELETE /kb/:id
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.knowledgeService.DeleteDoc(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

func docTypeFromFilename(name string) (types.KnowledgeDocType, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return types.KnowledgeDocPDF, true
	case ".docx":
		return types.KnowledgeDocDocx, true
	case ".txt":
		return types.KnowledgeDocTxt, true
	case ".csv":
		return types.KnowledgeDocCSV, true
	default:
		return "", false
	}
}
