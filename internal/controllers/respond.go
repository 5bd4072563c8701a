package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/secdesk/backend/internal/apperr"
	"github.com/secdesk/backend/internal/logger"
)

// respondError writes the error envelope. Validation and not-found messages
// are passed through; storage failures are logged and replaced by fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := apperr.HTTPStatus(err)

	message := fallback
	var ve *apperr.ValidationError
	var nf *apperr.NotFoundError
	switch {
	case status == http.StatusUnauthorized:
		message = "User not authenticated"
	case errors.As(err, &ve):
		message = ve.Error()
	case errors.As(err, &nf):
		message = nf.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.WithError(err, "controller").WithField("path", c.FullPath()).Error(fallback)
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func respondBadRequest(c *gin.Context, message string, err error) {
	body := gin.H{
		"success": false,
		"message": message,
	}
	if err != nil {
		body["errors"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(c, "Invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}
