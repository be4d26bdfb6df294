package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/intervox/internal/domains/auth"
	"github.com/xpanvictor/intervox/pkg/Logger"
)

// AuthHandler handles token issuance
type AuthHandler struct {
	authService auth.AuthService
	logger      *Logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService auth.AuthService, logger *Logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      Logger.OrNop(logger),
	}
}

// IssueToken exchanges an API key for an access token
// @Summary Obtain an access token
// @Description Exchange the shared API key for a JWT bound to the given user id
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body auth.TokenRequest true "User id and API key"
// @Success 200 {object} auth.AuthTokens "Token issued"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req auth.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := h.authService.IssueToken(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		default:
			h.logger.Errorf("token issue error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, tokens)
}
