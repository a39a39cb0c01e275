package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/openedu/registrar-api/pkg/errors"
)

// ErrorBody is the common error response contract. Successful bodies are
// written raw, matching the public API schema (batch results are flat
// student_key → status mappings, not wrapped).
type ErrorBody struct {
	Error *appErrors.Error `json:"error"`
}

// JSON sends a success response with the payload as the response body.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Accepted responds with HTTP 202 Accepted.
func Accepted(c *gin.Context, data interface{}) {
	JSON(c, http.StatusAccepted, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorBody{Error: appErr})
}

// Redirect issues a 302 to the provided location.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}
