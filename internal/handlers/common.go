package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/albertomtferreira/devflow/internal/apperrors"
)

// writeError maps a domain error onto the HTTP response. Access-denied
// errors come out as 404 so callers cannot probe for other users'
// projects.
func writeError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": apperrors.Message(err)})
}
