package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/server/http/dto"
	"github.com/polkiloo/kilopos/internal/usecase"
)

// OrderHandler manages tab endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "malformed order payload")
			return
		}
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), CurrentActor(c), req.CustomerName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*order))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.facade.Order(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.OrderDetailsResponse{
		Order:    toOrderResponse(details.Order),
		Items:    make([]dto.ItemResponse, 0, len(details.Items)),
		Payments: make([]dto.PaymentResponse, 0, len(details.Payments)),
	}
	for _, item := range details.Items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	for _, p := range details.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem handles POST /api/orders/:id/items.
func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed item payload")
		return
	}

	item, order, err := h.facade.AddItem(c.Request.Context(), CurrentActor(c), usecase.AddItemInput{
		OrderID:   orderID,
		Type:      model.ItemType(req.Type),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ItemChangeResponse{Item: toItemResponse(*item), Order: toOrderResponse(*order)})
}

// RemoveItem handles DELETE /api/orders/:id/items/:itemId.
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}

	item, order, err := h.facade.RemoveItem(c.Request.Context(), CurrentActor(c), orderID, itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ItemChangeResponse{Item: toItemResponse(*item), Order: toOrderResponse(*order)})
}

// BeginEdit handles POST /api/orders/:id/edit.
func (h *OrderHandler) BeginEdit(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	lease, err := h.facade.BeginEdit(c.Request.Context(), CurrentActor(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LeaseResponse{OrderID: lease.OrderID, Holder: lease.Holder, ExpiresAt: lease.ExpiresAt})
}

// EndEdit handles DELETE /api/orders/:id/edit.
func (h *OrderHandler) EndEdit(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.facade.EndEdit(c.Request.Context(), CurrentActor(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// Close handles POST /api/orders/:id/close.
func (h *OrderHandler) Close(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CloseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed payment payload")
		return
	}

	payment, order, err := h.facade.CloseOrder(c.Request.Context(), CurrentActor(c), usecase.CloseOrderInput{
		OrderID:        orderID,
		Method:         model.PaymentMethod(req.Method),
		TenderedAmount: req.TenderedAmount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CloseOrderResponse{Payment: toPaymentResponse(*payment), Order: toOrderResponse(*order)})
}

// Cancel handles POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.facade.CancelOrder(c.Request.Context(), CurrentActor(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}
