// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	recall "github.com/soundprediction/recall"
	"github.com/soundprediction/recall/pkg/server/dto"
)

// statusForError maps the client sentinels onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, recall.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, recall.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, recall.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, recall.ErrWriteConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), dto.Result{Success: false, Error: err.Error()})
}
