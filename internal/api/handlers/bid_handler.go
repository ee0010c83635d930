package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"vehicle-auction/internal/domain"
	"vehicle-auction/internal/services"
	"vehicle-auction/pkg/logger"
)

type BidHandler struct {
	bids *services.BidService
	log  logger.Logger
}

type PlaceBidRequest struct {
	AuctionID string  `json:"auction_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

type PlaceBidResponse struct {
	AuctionID      string    `json:"auction_id"`
	CurrentPrice   float64   `json:"current_price"`
	MinimumBid     float64   `json:"minimum_bid"`
	EndAt          time.Time `json:"end_at"`
	ExtensionCount int       `json:"extension_count"`
	ReserveState   string    `json:"reserve_state"`
}

func NewBidHandler(bids *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bids: bids,
		log:  log,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	userID := bidderID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "X-User-ID header required"})
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	snapshot, err := h.bids.SubmitBid(c.Request().Context(), req.AuctionID, userID, req.Amount, domain.OriginHuman)
	if err != nil {
		return h.respondBidError(c, req.AuctionID, err)
	}

	return c.JSON(http.StatusCreated, PlaceBidResponse{
		AuctionID:      snapshot.AuctionID,
		CurrentPrice:   snapshot.CurrentPrice,
		MinimumBid:     snapshot.MinimumBid,
		EndAt:          snapshot.EndAt,
		ExtensionCount: snapshot.ExtensionCount,
		ReserveState:   string(snapshot.ReserveState),
	})
}

func (h *BidHandler) GetSnapshot(c echo.Context) error {
	auctionID := c.Param("id")

	snapshot, err := h.bids.GetSnapshot(c.Request().Context(), auctionID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, PlaceBidResponse{
		AuctionID:      snapshot.AuctionID,
		CurrentPrice:   snapshot.CurrentPrice,
		MinimumBid:     snapshot.MinimumBid,
		EndAt:          snapshot.EndAt,
		ExtensionCount: snapshot.ExtensionCount,
		ReserveState:   string(snapshot.ReserveState),
	})
}

type bidHistoryEntry struct {
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	Origin    string    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *BidHandler) GetBidHistory(c echo.Context) error {
	auctionID := c.Param("id")

	bids, err := h.bids.History(c.Request().Context(), auctionID)
	if err != nil {
		return respondError(c, err)
	}

	entries := make([]bidHistoryEntry, 0, len(bids))
	for _, bid := range bids {
		entries = append(entries, bidHistoryEntry{
			BidderID:  bid.BidderID,
			Amount:    bid.Amount,
			Origin:    string(bid.Origin),
			CreatedAt: bid.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, entries)
}

type auditTrailEntry struct {
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	Origin    string    `json:"origin"`
	Outcome   string    `json:"outcome"`
	Kind      string    `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GetAuditTrail serves the dispute-resolution record of every attempt.
func (h *BidHandler) GetAuditTrail(c echo.Context) error {
	auctionID := c.Param("id")

	records, err := h.bids.AuditTrail(c.Request().Context(), auctionID)
	if err != nil {
		return respondError(c, err)
	}

	entries := make([]auditTrailEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, auditTrailEntry{
			BidderID:  record.BidderID,
			Amount:    record.Amount,
			Origin:    string(record.Origin),
			Outcome:   string(record.Outcome),
			Kind:      record.Kind,
			CreatedAt: record.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, entries)
}

// respondBidError enriches BidTooLow rejections with the amount that
// would currently be accepted, so clients can rebid without a second
// round trip.
func (h *BidHandler) respondBidError(c echo.Context, auctionID string, err error) error {
	if !errors.Is(err, domain.ErrBidTooLow) {
		return respondError(c, err)
	}

	body := ErrorResponse{
		Kind:      domain.KindBidTooLow,
		Message:   err.Error(),
		Retryable: false,
	}
	if snapshot, snapErr := h.bids.GetSnapshot(c.Request().Context(), auctionID); snapErr == nil {
		body.MinimumBid = snapshot.MinimumBid
	}
	return c.JSON(http.StatusUnprocessableEntity, body)
}
