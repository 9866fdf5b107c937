package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"creditmemo/internal/app"
	"creditmemo/internal/model"
	"creditmemo/internal/rag"
	"creditmemo/internal/transport/http/response"
)

type RAGHandler struct {
	retrievalService *app.RetrievalService
}

type SearchRequest struct {
	Query       string `json:"query" binding:"required"`
	PortfolioID string `json:"portfolio_id" binding:"required"`
	TopK        int    `json:"top_k"`
}

type GenerateRequest struct {
	Prompt      string `json:"prompt" binding:"required"`
	PortfolioID string `json:"portfolio_id"`
	UseRAG      bool   `json:"use_rag"`
}

type matchView struct {
	Ref        string  `json:"ref"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content,omitempty"`
}

func NewRAGHandler(retrievalService *app.RetrievalService) *RAGHandler {
	return &RAGHandler{retrievalService: retrievalService}
}

func (h *RAGHandler) Search(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	matches, err := h.retrievalService.Search(c.Request.Context(), app.SearchInput{
		Scope:       scope,
		PortfolioID: req.PortfolioID,
		Query:       req.Query,
		TopK:        req.TopK,
	})
	if err != nil {
		writeError(c, err, "search failed", nil)
		return
	}
	response.OK(c, gin.H{"matches": matchViews(matches, true)})
}

func (h *RAGHandler) Generate(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.retrievalService.Generate(c.Request.Context(), app.GenerateInput{
		Scope:       scope,
		Prompt:      req.Prompt,
		PortfolioID: req.PortfolioID,
		UseRAG:      req.UseRAG,
	})
	if err != nil {
		writeError(c, err, "generate failed", nil)
		return
	}
	response.OK(c, gin.H{
		"result": result.Text,
		"rag": gin.H{
			"used":    result.RAGUsed,
			"matches": matchViews(result.Matches, false),
		},
	})
}

func matchViews(matches []model.QueryMatch, withContent bool) []matchView {
	views := make([]matchView, len(matches))
	for i, m := range matches {
		views[i] = matchView{
			Ref:        rag.Ref(i),
			DocumentID: m.DocumentID,
			ChunkIndex: m.ChunkIndex,
			Similarity: m.Similarity,
		}
		if withContent {
			views[i].Content = m.Content
		}
	}
	return views
}
