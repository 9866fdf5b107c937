package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"creditmemo/internal/app"
	"creditmemo/internal/transport/http/middleware"
	"creditmemo/internal/transport/http/response"
)

type PortfolioHandler struct {
	portfolioService *app.PortfolioService
}

type CreatePortfolioRequest struct {
	Name     string `json:"name" binding:"required,max=256"`
	Ticker   string `json:"ticker" binding:"max=32"`
	Industry string `json:"industry" binding:"max=128"`
	Country  string `json:"country" binding:"max=64"`
	LEI      string `json:"lei" binding:"max=20"`
}

func NewPortfolioHandler(portfolioService *app.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

func (h *PortfolioHandler) List(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	companies, err := h.portfolioService.List(c.Request.Context(), scope)
	if err != nil {
		writeError(c, err, "list portfolio failed", nil)
		return
	}
	response.OK(c, companies)
}

func (h *PortfolioHandler) Create(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	userID, _ := middleware.UserID(c)

	company, err := h.portfolioService.Create(c.Request.Context(), app.CreatePortfolioInput{
		Scope:    scope,
		UserID:   userID,
		Name:     req.Name,
		Ticker:   req.Ticker,
		Industry: req.Industry,
		Country:  req.Country,
		LEI:      req.LEI,
	})
	if err != nil {
		writeError(c, err, "create portfolio company failed", nil)
		return
	}
	response.OK(c, company)
}

func (h *PortfolioHandler) Delete(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.portfolioService.Delete(c.Request.Context(), scope, id); err != nil {
		writeError(c, err, "delete portfolio company failed", nil)
		return
	}
	response.OK(c, gin.H{"deleted_id": id})
}
