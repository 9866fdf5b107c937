package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"creditmemo/internal/app"
	"creditmemo/internal/model"
	"creditmemo/internal/rag"
	"creditmemo/internal/transport/http/response"
)

// statusFor maps service and pipeline errors to an HTTP status and an
// envelope code. Pipeline kinds are checked first because a StageError also
// unwraps to its cause.
func statusFor(err error) (int, int) {
	switch {
	case errors.Is(err, rag.ErrDocumentNotFound):
		return http.StatusNotFound, response.CodeDocumentNotFound
	case errors.Is(err, rag.ErrExtractionFailure),
		errors.Is(err, rag.ErrNoIngestibleContent):
		return http.StatusUnprocessableEntity, response.CodeUnprocessable
	case errors.Is(err, rag.ErrEmbeddingServiceFailure),
		errors.Is(err, rag.ErrCompletionServiceFailure),
		errors.Is(err, rag.ErrStorageReadFailure):
		return http.StatusBadGateway, response.CodeUpstream
	case errors.Is(err, rag.ErrPersistenceFailure):
		return http.StatusInternalServerError, response.CodeInternalServer
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, model.ErrMissingScope),
		errors.Is(err, app.ErrMemoEmpty):
		return http.StatusBadRequest, response.CodeBadRequest
	case errors.Is(err, app.ErrPortfolioNotFound):
		return http.StatusNotFound, response.CodePortfolioNotFound
	case errors.Is(err, app.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, response.CodeFileTooLarge
	case errors.Is(err, app.ErrUploadFailed):
		return http.StatusBadGateway, response.CodeUpstream
	case errors.Is(err, app.ErrMemoEnqueue):
		return http.StatusServiceUnavailable, response.CodeUpstream
	default:
		return http.StatusInternalServerError, response.CodeInternalServer
	}
}

// writeError responds with the mapped status. Pipeline failures carry their
// stage name. Database failures and anything unclassified are logged and
// answered with a fixed message instead of the raw error text.
func writeError(c *gin.Context, err error, fallback string, data gin.H) {
	status, code := statusFor(err)
	message := err.Error()

	stage := rag.Stage(err)
	if stage != "" {
		if data == nil {
			data = gin.H{}
		}
		data["stage"] = stage
	}
	switch {
	case errors.Is(err, rag.ErrPersistenceFailure):
		message = rag.ErrPersistenceFailure.Error()
		slog.Error(fallback, "stage", stage, "error", err)
	case stage == "" && code == response.CodeInternalServer:
		message = fallback
		slog.Error(fallback, "error", err)
	}

	if data == nil {
		response.Error(c, status, code, message)
		return
	}
	response.ErrorWithData(c, status, code, message, data)
}
