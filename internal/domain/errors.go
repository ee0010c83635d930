package domain

import "errors"

// Rejection kinds for bid and auto-bid operations. Every rejection is
// surfaced to the caller with a stable kind string and recorded in the
// audit log; ErrBusy is the only kind safe for automatic retry.
var (
	ErrAuctionNotFound         = errors.New("auction not found")
	ErrAuctionNotAcceptingBids = errors.New("auction is not accepting bids")
	ErrBidTooLow               = errors.New("bid amount below minimum bid")
	ErrSelfBidNotAllowed       = errors.New("sellers may not bid on their own listing")
	ErrAutoBidExceedsCapacity  = errors.New("auto-bid maximum can no longer produce a legal bid")
	ErrBusy                    = errors.New("auction is busy, retry")
	ErrInvalidAutoBidConfig    = errors.New("invalid auto-bid configuration")
	ErrAutoBidNotFound         = errors.New("auto-bid not found")
	ErrAutoBidExists           = errors.New("auto-bid already exists for this auction")
)

const (
	KindAuctionNotAcceptingBids = "AuctionNotAcceptingBids"
	KindBidTooLow               = "BidTooLow"
	KindSelfBidNotAllowed       = "SelfBidNotAllowed"
	KindAutoBidExceedsCapacity  = "AutoBidExceedsCapacity"
	KindBusy                    = "Busy"
	KindInvalidAutoBidConfig    = "InvalidAutoBidConfig"
	KindNotFound                = "NotFound"
	KindInternal                = "Internal"
)

// ErrorKind maps an error chain to its wire/audit kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrAuctionNotAcceptingBids):
		return KindAuctionNotAcceptingBids
	case errors.Is(err, ErrBidTooLow):
		return KindBidTooLow
	case errors.Is(err, ErrSelfBidNotAllowed):
		return KindSelfBidNotAllowed
	case errors.Is(err, ErrAutoBidExceedsCapacity):
		return KindAutoBidExceedsCapacity
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.Is(err, ErrInvalidAutoBidConfig), errors.Is(err, ErrAutoBidExists):
		return KindInvalidAutoBidConfig
	case errors.Is(err, ErrAuctionNotFound), errors.Is(err, ErrAutoBidNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Retryable reports whether a client may immediately resubmit.
func Retryable(err error) bool {
	return errors.Is(err, ErrBusy)
}
