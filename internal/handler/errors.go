package handler

import (
	"errors"
	"net/http"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/cleberrangel/schedule-progress-api/internal/source"
	"github.com/gin-gonic/gin"
)

// respondError mapeia erros sentinela para status HTTP
func respondError(c *gin.Context, err error) {
	status, message := classifyError(err)

	log := logger.FromGin(c)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg(message)
	} else {
		log.Warn().Err(err).Msg(message)
	}

	c.JSON(status, model.ErrorResponse{
		Success: false,
		Error:   message,
		Details: err.Error(),
	})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidDate):
		return http.StatusBadRequest, "data inválida"
	case errors.Is(err, model.ErrInvalidWindow):
		return http.StatusBadRequest, "período inválido"
	case errors.Is(err, model.ErrTaskNotFound):
		return http.StatusNotFound, "tarefa não encontrada"
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "arquivo muito grande"
	case errors.Is(err, source.ErrUnsupportedType):
		return http.StatusBadRequest, "formato não suportado"
	case errors.Is(err, source.ErrEmptyFile):
		return http.StatusBadRequest, "arquivo vazio"
	case errors.Is(err, source.ErrDecode):
		return http.StatusUnprocessableEntity, "não foi possível ler o arquivo"
	case errors.Is(err, model.ErrMalformedRecord):
		return http.StatusUnprocessableEntity, "registro corrompido"
	case errors.Is(err, source.ErrOCRUnavailable):
		return http.StatusServiceUnavailable, "OCR indisponível"
	default:
		return http.StatusInternalServerError, "erro interno"
	}
}

func badRequest(c *gin.Context, message, details string) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}
