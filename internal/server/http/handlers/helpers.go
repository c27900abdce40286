package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/server/http/dto"
	"github.com/polkiloo/kilopos/internal/server/http/middleware"
)

var statusCodes = map[domainErrors.Status]int{
	domainErrors.StatusValidation:            http.StatusUnprocessableEntity,
	domainErrors.StatusConflict:              http.StatusConflict,
	domainErrors.StatusNotFound:              http.StatusNotFound,
	domainErrors.StatusUnauthorized:          http.StatusUnauthorized,
	domainErrors.StatusCriticalInconsistency: http.StatusInternalServerError,
	domainErrors.StatusInternal:              http.StatusInternalServerError,
}

// CurrentActor extracts the authenticated operator and terminal from context.
func CurrentActor(c *gin.Context) model.Actor {
	return model.Actor{
		OperatorID: c.GetInt64(middleware.OperatorIDContextKey),
		TerminalID: c.GetString(middleware.TerminalIDContextKey),
	}
}

// writeError maps err onto the status code set. Infrastructure failures are
// attached to the context for the request logger and reported without detail.
func writeError(c *gin.Context, err error) {
	status := domainErrors.StatusOf(err)
	body := dto.ErrorResponse{Status: string(status), Message: err.Error()}

	var critical *domainErrors.CriticalInconsistencyError
	switch {
	case errors.As(err, &critical):
		body.OrderID = critical.OrderID
		body.OperatorID = critical.OperatorID
		if critical.AttemptID != uuid.Nil {
			body.AttemptID = critical.AttemptID.String()
		}
		_ = c.Error(err)
	case status == domainErrors.StatusInternal:
		body.Message = "internal error"
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(statusCodes[status], body)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Status: dto.StatusBadRequest, Message: message})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
