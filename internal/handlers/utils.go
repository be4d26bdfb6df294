package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware
const (
	ctxUserID = "userID"
	ctxClaims = "claims"
)

type HTTPUserInfo struct {
	UserID string
}

func ExtractUserInfo(c *gin.Context) (HTTPUserInfo, bool) {
	userID := c.GetString(ctxUserID) // From JWT middleware
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return HTTPUserInfo{}, false
	}
	return HTTPUserInfo{UserID: userID}, true
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request data",
		Details: err.Error(),
	})
}
