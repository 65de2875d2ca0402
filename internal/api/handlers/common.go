package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribeapp/scribe/internal/utils"
)

type errorBody struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
	Field   string     `json:"field,omitempty"`
}

func writeError(c *gin.Context, err error) {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(utils.HTTPStatus(err), gin.H{"error": errorBody{
			Code:    ae.Code,
			Message: ae.Message,
		}})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": errorBody{
		Code:    utils.CodeInternal,
		Message: "internal error",
	}})
}

// writeFieldError is writeError plus the form field the error belongs to.
func writeFieldError(c *gin.Context, err error, field string) {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(utils.HTTPStatus(err), gin.H{"error": errorBody{
			Code:    ae.Code,
			Message: ae.Message,
			Field:   field,
		}})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": errorBody{
		Code:    utils.CodeInternal,
		Message: "internal error",
		Field:   field,
	}})
}

// requireUserID pulls the identity set by the auth middleware. Writes the
// response itself when missing.
func requireUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	userID, _ := v.(string)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errorBody{
			Code:    utils.CodeUnauthorized,
			Message: "unauthorized",
		}})
		return "", false
	}
	return userID, true
}
