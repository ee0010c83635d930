package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"vehicle-auction/internal/services"
	"vehicle-auction/pkg/logger"
)

type AuctionHandler struct {
	lifecycle *services.AuctionLifecycle
	log       logger.Logger
}

type CreateAuctionRequest struct {
	StartingPrice float64   `json:"starting_price" validate:"required,gt=0"`
	ReservePrice  float64   `json:"reserve_price"` // 0 means no reserve
	StartAt       time.Time `json:"start_at" validate:"required"`
	EndAt         time.Time `json:"end_at" validate:"required"`
}

type CreateAuctionResponse struct {
	AuctionID     string    `json:"auction_id"`
	StartingPrice float64   `json:"starting_price"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	Status        string    `json:"status"`
}

func NewAuctionHandler(lifecycle *services.AuctionLifecycle, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		lifecycle: lifecycle,
		log:       log,
	}
}

type auctionListEntry struct {
	AuctionID      string    `json:"auction_id"`
	CurrentPrice   float64   `json:"current_price"`
	EndAt          time.Time `json:"end_at"`
	ExtensionCount int       `json:"extension_count"`
	ReserveState   string    `json:"reserve_state"`
}

// ListAuctions returns the auctions currently open for bidding. The
// reserve price itself never leaves the server, only its state.
func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	auctions, err := h.lifecycle.ListPublished(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to list auctions", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list auctions"})
	}

	entries := make([]auctionListEntry, 0, len(auctions))
	for _, auction := range auctions {
		entries = append(entries, auctionListEntry{
			AuctionID:      auction.ID,
			CurrentPrice:   auction.CurrentPrice,
			EndAt:          auction.EndAt,
			ExtensionCount: auction.ExtensionCount,
			ReserveState:   string(auction.ReserveState()),
		})
	}
	return c.JSON(http.StatusOK, entries)
}

// CreateAuction registers a draft listing for the calling seller. The
// reserve price is accepted here and never echoed back.
func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	sellerID := bidderID(c)
	if sellerID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "X-User-ID header required"})
	}

	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if !req.EndAt.After(req.StartAt) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "End time must be after start time"})
	}

	auction, err := h.lifecycle.CreateAuction(c.Request().Context(), sellerID,
		req.StartingPrice, req.ReservePrice, req.StartAt, req.EndAt)
	if err != nil {
		h.log.Error("Failed to create auction", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create auction"})
	}

	return c.JSON(http.StatusCreated, CreateAuctionResponse{
		AuctionID:     auction.ID,
		StartingPrice: auction.StartingPrice,
		StartAt:       auction.StartAt,
		EndAt:         auction.EndAt,
		Status:        auction.Status.String(),
	})
}
