package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"creditmemo/internal/app"
	"creditmemo/internal/transport/http/middleware"
	"creditmemo/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
	ingestService   *app.IngestService
	maxUploadBytes  int64
}

type IngestRequest struct {
	DocumentID  string `json:"document_id" binding:"required"`
	PortfolioID string `json:"portfolio_id"`
}

func NewDocumentHandler(documentService *app.DocumentService, ingestService *app.IngestService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		ingestService:   ingestService,
		maxUploadBytes:  maxUploadBytes,
	}
}

// Upload accepts a multipart form with a "file" field.
func (h *DocumentHandler) Upload(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, "file too large")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	doc, err := h.documentService.Upload(c.Request.Context(), app.UploadInput{
		Scope:       scope,
		UserID:      userID,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(c, err, "upload failed", nil)
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	docs, err := h.documentService.List(c.Request.Context(), scope)
	if err != nil {
		writeError(c, err, "list documents failed", nil)
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Ingest(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.ingestService.Ingest(c.Request.Context(), app.IngestInput{
		Scope:       scope,
		DocumentID:  req.DocumentID,
		PortfolioID: req.PortfolioID,
	})
	if err != nil {
		writeError(c, err, "ingest failed", gin.H{
			"document_id":     result.DocumentID,
			"chunks_inserted": result.ChunksInserted,
		})
		return
	}
	response.OK(c, result)
}
