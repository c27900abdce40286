package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/server/http/dto"
)

func toOrderResponse(o model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:             o.ID,
		Number:         o.Number,
		Status:         string(o.Status),
		CustomerName:   o.CustomerName,
		TotalWeight:    model.WeightString(o.TotalWeight),
		FoodTotal:      model.MoneyString(o.FoodTotal),
		ExtrasTotal:    model.MoneyString(o.ExtrasTotal),
		TotalAmount:    model.MoneyString(o.TotalAmount),
		OpenedBy:       o.OpenedBy,
		LeaseHolder:    o.LeaseHolder,
		LeaseExpiresAt: o.LeaseExpiresAt,
		OpenedAt:       o.OpenedAt,
		ClosedAt:       o.ClosedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toItemResponse(i model.OrderItem) dto.ItemResponse {
	quantity := i.Quantity.String()
	if i.Type == model.ItemTypeFoodWeight {
		quantity = model.WeightString(i.Quantity)
	}
	return dto.ItemResponse{
		ID:         i.ID,
		Type:       string(i.Type),
		ProductID:  i.ProductID,
		Quantity:   quantity,
		UnitPrice:  model.MoneyString(i.UnitPrice),
		TotalPrice: model.MoneyString(i.TotalPrice),
		CreatedAt:  i.CreatedAt,
	}
}

func toPaymentResponse(p model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:             p.ID,
		OrderID:        p.OrderID,
		AttemptID:      p.AttemptID.String(),
		Method:         string(p.Method),
		Amount:         model.MoneyString(p.Amount),
		TenderedAmount: model.MoneyString(p.TenderedAmount),
		ChangeAmount:   model.MoneyString(p.ChangeAmount),
		ProcessedBy:    p.ProcessedBy,
		ProcessedAt:    p.ProcessedAt,
	}
}

func optionalMoney(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := model.MoneyString(*d)
	return &s
}

func toOperationResponse(op model.CashRegisterOperation) dto.OperationResponse {
	return dto.OperationResponse{
		ID:              op.ID,
		Seq:             op.Seq,
		Type:            string(op.Type),
		Amount:          model.MoneyString(op.Amount),
		OpeningBalance:  optionalMoney(op.OpeningBalance),
		ClosingBalance:  optionalMoney(op.ClosingBalance),
		ExpectedBalance: optionalMoney(op.ExpectedBalance),
		Difference:      optionalMoney(op.Difference),
		OperatorID:      op.OperatorID,
		Notes:           op.Notes,
		CreatedAt:       op.CreatedAt,
	}
}

func optionalOperation(op *model.CashRegisterOperation) *dto.OperationResponse {
	if op == nil {
		return nil
	}
	resp := toOperationResponse(*op)
	return &resp
}

func toSummaryResponse(s model.DailySummary) dto.DailySummaryResponse {
	byMethod := make([]dto.MethodTotalResponse, 0, len(s.ByMethod))
	for _, t := range s.ByMethod {
		byMethod = append(byMethod, dto.MethodTotalResponse{
			Method:       string(t.Method),
			Orders:       t.Orders,
			Amount:       model.MoneyString(t.Amount),
			ChangeAmount: model.MoneyString(t.ChangeAmount),
		})
	}
	return dto.DailySummaryResponse{
		From:            s.From,
		To:              s.To,
		Orders:          s.Orders,
		Total:           model.MoneyString(s.Total),
		ByMethod:        byMethod,
		CashTotal:       model.MoneyString(s.CashTotal),
		DrawerOpen:      s.DrawerOpen,
		DrawerCash:      model.MoneyString(s.DrawerCash),
		CashDiscrepancy: model.MoneyString(s.CashDiscrepancy),
	}
}
