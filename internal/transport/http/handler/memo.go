package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"creditmemo/internal/app"
	"creditmemo/internal/transport/http/middleware"
	"creditmemo/internal/transport/http/response"
)

const defaultHistoryLimit = 50

type MemoHandler struct {
	memoService *app.MemoService
}

type SaveMemoRequest struct {
	Text string `json:"text" binding:"required"`
}

func NewMemoHandler(memoService *app.MemoService) *MemoHandler {
	return &MemoHandler{memoService: memoService}
}

func (h *MemoHandler) Save(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	var req SaveMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	userID, _ := middleware.UserID(c)

	memo, err := h.memoService.Save(c.Request.Context(), scope, userID, req.Text)
	if err != nil {
		writeError(c, err, "save memo failed", nil)
		return
	}
	response.OK(c, memo)
}

func (h *MemoHandler) History(c *gin.Context) {
	scope, ok := requireTenant(c)
	if !ok {
		return
	}
	limit := defaultHistoryLimit
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > app.MaxHistory {
		limit = app.MaxHistory
	}

	memos, err := h.memoService.History(c.Request.Context(), scope, limit)
	if err != nil {
		writeError(c, err, "get memo history failed", nil)
		return
	}
	response.OK(c, memos)
}
