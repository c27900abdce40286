package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	pkgAuth "github.com/polkiloo/kilopos/internal/pkg/auth"
	"github.com/polkiloo/kilopos/internal/server/http/dto"
)

const (
	// OperatorIDContextKey is a gin context key for the authenticated operator.
	OperatorIDContextKey = "operatorID"
	// TerminalIDContextKey is a gin context key for the terminal issuing the request.
	TerminalIDContextKey = "terminalID"
	// TerminalHeader names the terminal that acts as lease holder.
	TerminalHeader = "X-Terminal-ID"

	maxTerminalIDLength = 64
)

// TokenParser resolves operator ids from bearer tokens.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// AuthRequired ensures the request carries a valid operator token and records the
// terminal id when present.
func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortUnauthorized(c, "operator token required")
			return
		}

		operatorID, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) || errors.Is(err, domainErrors.ErrUnauthorized) {
				abortUnauthorized(c, err.Error())
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Status:  string(domainErrors.StatusInternal),
				Message: "internal error",
			})
			return
		}

		terminal := strings.TrimSpace(c.GetHeader(TerminalHeader))
		if len(terminal) > maxTerminalIDLength {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
				Status:  string(domainErrors.StatusValidation),
				Message: "terminal id is too long",
			})
			return
		}

		c.Set(OperatorIDContextKey, operatorID)
		c.Set(TerminalIDContextKey, terminal)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Status:  string(domainErrors.StatusUnauthorized),
		Message: message,
	})
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
