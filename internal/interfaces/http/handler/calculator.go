package handler

import (
	"context"

	billingapp "github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// CalculatorHandler exposes the stateless billing calculator
type CalculatorHandler struct {
	BaseHandler
	calculator *billingapp.CalculatorService
}

// NewCalculatorHandler creates a new CalculatorHandler
func NewCalculatorHandler(calculator *billingapp.CalculatorService) *CalculatorHandler {
	return &CalculatorHandler{calculator: calculator}
}

// RegisterRoutes registers the calculator routes under /billing
func (h *CalculatorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	calc := rg.Group("/billing")
	calc.POST("/allowable-amount", calculate(h, h.calculator.AllowableAmount))
	calc.POST("/billable-amount", calculate(h, h.calculator.BillableAmount))
	calc.POST("/schedule", calculate(h, h.calculator.Schedule))
	calc.POST("/multiplier", calculate(h, h.calculator.Multiplier))
	calc.POST("/amount-multiplier", calculate(h, h.calculator.AmountMultiplier))
	calc.POST("/quantity-multiplier", calculate(h, h.calculator.QuantityMultiplier))
	calc.POST("/modifier", calculate(h, h.calculator.ApplyModifier))
}

// calculate adapts a calculator method to a JSON in, JSON out handler
func calculate[Req, Resp any](h *CalculatorHandler, fn func(context.Context, Req) (*Resp, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Req
		if !h.bindJSON(c, &req) {
			return
		}
		resp, err := fn(c.Request.Context(), req)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
	}
}

