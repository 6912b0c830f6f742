package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/cleberrangel/schedule-progress-api/internal/source"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrInvalidDate, http.StatusBadRequest},
		{fmt.Errorf("id 3: %w", model.ErrTaskNotFound), http.StatusNotFound},
		{fmt.Errorf("progress_2026-10-18: %w", model.ErrMalformedRecord), http.StatusUnprocessableEntity},
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{source.ErrEmptyFile, http.StatusBadRequest},
		{fmt.Errorf("pdf: %w", source.ErrDecode), http.StatusUnprocessableEntity},
		{source.ErrOCRUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got, _ := classifyError(tt.err); got != tt.want {
			t.Errorf("classifyError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
