package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"vehicle-auction/internal/domain"
)

// ErrorResponse is the uniform rejection body. Kind is a stable
// machine-readable discriminator; Retryable tells clients whether an
// immediate resubmit can succeed.
type ErrorResponse struct {
	Kind       string  `json:"kind"`
	Message    string  `json:"message"`
	Retryable  bool    `json:"retryable"`
	MinimumBid float64 `json:"minimum_bid,omitempty"`
}

func statusForKind(kind string) int {
	switch kind {
	case domain.KindBidTooLow, domain.KindSelfBidNotAllowed,
		domain.KindInvalidAutoBidConfig, domain.KindAutoBidExceedsCapacity:
		return http.StatusUnprocessableEntity
	case domain.KindAuctionNotAcceptingBids:
		return http.StatusConflict
	case domain.KindBusy:
		return http.StatusServiceUnavailable
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c echo.Context, err error) error {
	kind := domain.ErrorKind(err)
	body := ErrorResponse{
		Kind:      kind,
		Message:   err.Error(),
		Retryable: domain.Retryable(err),
	}
	if kind == domain.KindInternal {
		// Internal details stay in the logs.
		body.Message = "internal error"
	}
	return c.JSON(statusForKind(kind), body)
}

// bidderID pulls the authenticated caller from the X-User-ID header.
// Authentication itself happens at the gateway; the engine only needs
// the identity it forwards.
func bidderID(c echo.Context) string {
	return c.Request().Header.Get("X-User-ID")
}
