package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/server/http/dto"
)

// DrawerHandler manages the cash drawer endpoints.
type DrawerHandler struct {
	facade DrawerFacade
}

// NewDrawerHandler constructs DrawerHandler.
func NewDrawerHandler(facade DrawerFacade) *DrawerHandler {
	return &DrawerHandler{facade: facade}
}

// Open handles POST /api/drawer/open.
func (h *DrawerHandler) Open(c *gin.Context) {
	var req dto.DrawerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed drawer payload")
		return
	}

	op, err := h.facade.OpenDrawer(c.Request.Context(), CurrentActor(c), req.Amount, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOperationResponse(*op))
}

// Close handles POST /api/drawer/close.
func (h *DrawerHandler) Close(c *gin.Context) {
	var req dto.DrawerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed drawer payload")
		return
	}

	op, err := h.facade.CloseDrawer(c.Request.Context(), CurrentActor(c), req.Amount, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOperationResponse(*op))
}

// Status handles GET /api/drawer.
func (h *DrawerHandler) Status(c *gin.Context) {
	status, err := h.facade.DrawerStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DrawerStatusResponse{
		IsOpen:        status.IsOpen,
		Session:       optionalOperation(status.Session),
		LastOperation: optionalOperation(status.LastOperation),
		CashReceived:  model.MoneyString(status.CashReceived),
		Expected:      model.MoneyString(status.Expected),
	})
}

// History handles GET /api/drawer/history?limit=N.
func (h *DrawerHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = v
	}

	ops, err := h.facade.DrawerHistory(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(ops) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	resp := make([]dto.OperationResponse, 0, len(ops))
	for _, op := range ops {
		resp = append(resp, toOperationResponse(op))
	}
	c.JSON(http.StatusOK, resp)
}
