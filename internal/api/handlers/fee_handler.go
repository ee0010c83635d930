package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"vehicle-auction/internal/services"
	"vehicle-auction/pkg/logger"
)

type FeeHandler struct {
	fees *services.FeeCalculator
	log  logger.Logger
}

type CalculateFeesRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func NewFeeHandler(fees *services.FeeCalculator, log logger.Logger) *FeeHandler {
	return &FeeHandler{
		fees: fees,
		log:  log,
	}
}

// CalculateFees quotes the buyer-side cost of winning at an amount. The
// quote is non-binding; settlement runs the same calculator.
func (h *FeeHandler) CalculateFees(c echo.Context) error {
	var req CalculateFeesRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, h.fees.Calculate(req.Amount))
}
