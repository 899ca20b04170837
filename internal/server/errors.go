package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/danielolaszy/starburst/internal/jira"
	"github.com/danielolaszy/starburst/internal/logging"
	"github.com/danielolaszy/starburst/internal/traversal"
)

type fieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// writeValidationError answers 400 with one entry per failed field.
func writeValidationError(c *gin.Context, err error) {
	details := []fieldError{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details = append(details, fieldError{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: fe.Error(),
			})
		}
	} else {
		details = append(details, fieldError{Message: err.Error()})
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid query parameters",
		"details": details,
	})
}

// writeError maps a traversal or store failure to a status code: timeouts
// are 504, other store failures 502 and anything else 500.
func writeError(c *gin.Context, err error) {
	log := logging.With("request_id", c.GetString(requestIDKey), "path", c.Request.URL.Path)

	var storeErr *jira.StoreError
	switch {
	case errors.Is(err, traversal.ErrTraversalTimeout):
		log.Warn("Traversal timed out", "error", err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Jira traversal timeout"})
	case errors.As(err, &storeErr):
		status := http.StatusBadGateway
		if storeErr.StatusCode == http.StatusGatewayTimeout {
			status = http.StatusGatewayTimeout
		}
		log.Warn("Jira request failed", "status", storeErr.StatusCode, "error", err)
		c.JSON(status, gin.H{"error": storeErr.Error()})
	default:
		log.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
