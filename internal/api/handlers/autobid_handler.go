package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"vehicle-auction/internal/domain"
	"vehicle-auction/internal/services"
	"vehicle-auction/pkg/logger"
)

type AutoBidHandler struct {
	autoBids *services.AutoBidService
	log      logger.Logger
}

type AutoBidRequest struct {
	AuctionID       string  `json:"auction_id" validate:"required"`
	MaxAmount       float64 `json:"max_amount" validate:"required,gt=0"`
	Strategy        string  `json:"strategy" validate:"required,oneof=snipe incremental"`
	TriggerMinutes  int     `json:"trigger_minutes"`
	IncrementAmount float64 `json:"increment_amount"`
}

type AutoBidResponse struct {
	ID              string    `json:"id"`
	AuctionID       string    `json:"auction_id"`
	MaxAmount       float64   `json:"max_amount"`
	Strategy        string    `json:"strategy"`
	TriggerMinutes  int       `json:"trigger_minutes,omitempty"`
	IncrementAmount float64   `json:"increment_amount,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewAutoBidHandler(autoBids *services.AutoBidService, log logger.Logger) *AutoBidHandler {
	return &AutoBidHandler{
		autoBids: autoBids,
		log:      log,
	}
}

func (h *AutoBidHandler) CreateAutoBid(c echo.Context) error {
	userID := bidderID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "X-User-ID header required"})
	}

	var req AutoBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	autoBid, err := h.autoBids.CreateAutoBid(c.Request().Context(), userID, toParams(req))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, toResponse(autoBid))
}

func (h *AutoBidHandler) UpdateAutoBid(c echo.Context) error {
	userID := bidderID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "X-User-ID header required"})
	}
	autoBidID := c.Param("id")

	var req AutoBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	autoBid, err := h.autoBids.UpdateAutoBid(c.Request().Context(), userID, autoBidID, toParams(req))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, toResponse(autoBid))
}

func (h *AutoBidHandler) DeleteAutoBid(c echo.Context) error {
	userID := bidderID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "X-User-ID header required"})
	}
	autoBidID := c.Param("id")

	if err := h.autoBids.DeleteAutoBid(c.Request().Context(), userID, autoBidID); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func toParams(req AutoBidRequest) services.AutoBidParams {
	return services.AutoBidParams{
		AuctionID:       req.AuctionID,
		MaxAmount:       req.MaxAmount,
		Strategy:        domain.AutoBidStrategy(req.Strategy),
		TriggerMinutes:  req.TriggerMinutes,
		IncrementAmount: req.IncrementAmount,
	}
}

func toResponse(autoBid *domain.AutoBid) AutoBidResponse {
	return AutoBidResponse{
		ID:              autoBid.ID,
		AuctionID:       autoBid.AuctionID,
		MaxAmount:       autoBid.MaxAmount,
		Strategy:        string(autoBid.Strategy),
		TriggerMinutes:  autoBid.TriggerMinutes,
		IncrementAmount: autoBid.IncrementAmount,
		IsActive:        autoBid.IsActive,
		CreatedAt:       autoBid.CreatedAt,
		UpdatedAt:       autoBid.UpdatedAt,
	}
}
