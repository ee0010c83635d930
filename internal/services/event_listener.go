package services

import (
	"context"
	"fmt"

	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
)

// EventListener bridges the post-commit event stream to WebSocket
// subscribers. Prices and end times ride as full replacements, so
// at-least-once delivery is safe for clients to apply idempotently.
type EventListener struct {
	broadcaster       domain.AuctionBroadcaster
	connectionManager domain.ConnectionManager
	log               logger.Logger
}

func NewEventListener(connectionManager domain.ConnectionManager,
	broadcaster domain.AuctionBroadcaster, log logger.Logger) *EventListener {
	return &EventListener{
		broadcaster:       broadcaster,
		connectionManager: connectionManager,
		log:               log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToAuctionEvents(ctx, el.handleAuctionEvent)
}

func (el *EventListener) handleAuctionEvent(event *domain.AuctionEvent) error {
	el.log.Debug("Handling auction event", "type", event.Type, "auction_id", event.AuctionID)

	switch event.Type {
	case domain.EventBidPlaced:
		return el.handleBidPlaced(event)
	case domain.EventAuctionExtended:
		return el.handleAuctionExtended(event)
	case domain.EventAuctionEnded:
		return el.handleAuctionEnded(event)
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}

func (el *EventListener) handleBidPlaced(event *domain.AuctionEvent) error {
	return el.broadcaster.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
		"type":          string(domain.EventBidPlaced),
		"current_price": event.CurrentPrice,
		"bidder_id":     event.BidderID,
		"end_at":        event.EndAt,
		"timestamp":     event.Timestamp,
	})
}

func (el *EventListener) handleAuctionExtended(event *domain.AuctionEvent) error {
	return el.broadcaster.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
		"type":            string(domain.EventAuctionExtended),
		"end_at":          event.EndAt,
		"extension_count": event.ExtensionCount,
		"timestamp":       event.Timestamp,
	})
}

func (el *EventListener) handleAuctionEnded(event *domain.AuctionEvent) error {
	if err := el.broadcaster.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
		"type":      string(domain.EventAuctionEnded),
		"timestamp": event.Timestamp,
	}); err != nil {
		el.log.Error("Failed to broadcast auction ended event", "auction_id", event.AuctionID, "error", err)
		return err
	}

	if err := el.connectionManager.CloseAndUnregisterConnections(event.AuctionID); err != nil {
		el.log.Error("Failed to finalize connections for auction",
			"auction_id", event.AuctionID, "error", err)
		return err
	}
	return nil
}
