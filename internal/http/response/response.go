package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/edutaxonomy-backend/internal/platform/apierr"
)

type ErrorBody struct {
	Error string `json:"error"`
}

type MessageBody struct {
	Message string `json:"message"`
}

type ListBody struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    any  `json:"data"`
}

func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{Error: message})
}

// RespondAPIError writes ae. Throttling responses use the "message" key that
// clients already show as a toast; everything else uses "error".
func RespondAPIError(c *gin.Context, ae *apierr.Error) {
	if ae.Err != nil {
		_ = c.Error(ae.Err)
	}
	if ae.Status == http.StatusTooManyRequests {
		c.JSON(ae.Status, MessageBody{Message: ae.Message})
		return
	}
	RespondError(c, ae.Status, ae.Message)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondList[T any](c *gin.Context, rows []T) {
	if rows == nil {
		rows = []T{}
	}
	RespondOK(c, ListBody{Success: true, Count: len(rows), Data: rows})
}
