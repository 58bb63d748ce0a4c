package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"paper-rag/internal/models"
	"paper-rag/internal/session"
	"paper-rag/internal/transport/http/response"
)

// writeError maps pipeline errors to a status and envelope code.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrInvalidConfiguration):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, models.ErrRetrievalUnavailable):
		response.Error(c, http.StatusConflict, response.CodeNoDocuments, err.Error())
	case errors.Is(err, models.ErrTimeoutExceeded):
		response.Error(c, http.StatusGatewayTimeout, response.CodeTimeout, err.Error())
	case errors.Is(err, models.ErrEmbeddingUnavailable), errors.Is(err, models.ErrGenerationUnavailable):
		response.Error(c, http.StatusBadGateway, response.CodeUpstream, err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal error")
	}
}
