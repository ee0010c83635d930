package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin checks belong to the edge proxy
	},
}

// SubscriptionHandler upgrades a client onto an auction's realtime
// channel. The channel is read-only for clients: bids go through the
// HTTP API, events come back here. The only inbound frames honoured are
// pings.
type SubscriptionHandler struct {
	auctionRepo domain.AuctionRepository
	stateCache  domain.AuctionStateCache
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewSubscriptionHandler(auctionRepo domain.AuctionRepository,
	stateCache domain.AuctionStateCache,
	connManager domain.ConnectionManager, log logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		auctionRepo: auctionRepo,
		stateCache:  stateCache,
		connManager: connManager,
		log:         log,
	}
}

func (h *SubscriptionHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auctionID := vars["auctionID"]

	// Ended is terminal and cached at close; a hit refuses the
	// subscription without touching the database.
	if status, err := h.stateCache.GetAuctionStatus(r.Context(), auctionID); err == nil && status == domain.AuctionEnded {
		http.Error(w, "auction has already ended", http.StatusForbidden)
		return
	}

	auction, err := h.auctionRepo.GetAuction(r.Context(), auctionID)
	if err != nil {
		h.log.Error("Failed to find auction", "auction_id", auctionID, "error", err)
		http.Error(w, "auction not found", http.StatusNotFound)
		return
	}

	if auction.Status == domain.AuctionEnded || time.Now().After(auction.EndAt) {
		http.Error(w, "auction has already ended", http.StatusForbidden)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewConnection(conn, userID, auctionID)

	if err := h.connManager.RegisterConnection(userID, auctionID, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		conn.Close()
		return
	}

	go h.readLoop(wsConn, userID, auctionID)
}

// readLoop drains client frames until the peer goes away, answering
// pings and ignoring everything else.
func (h *SubscriptionHandler) readLoop(conn *Connection, userID, auctionID string) {
	defer func() {
		h.connManager.UnregisterConnection(userID, auctionID)
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			return
		}

		if msgType, ok := msg["type"].(string); ok && msgType == "ping" {
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}

// Connection wraps one gorilla connection with its subscription
// identity. WriteJSON is not safe for concurrent writers, so Send
// serializes writes with a mutex.
type Connection struct {
	conn      *websocket.Conn
	userID    string
	auctionID string
	writeMu   sync.Mutex
}

func NewConnection(conn *websocket.Conn, userID, auctionID string) *Connection {
	return &Connection{
		conn:      conn,
		userID:    userID,
		auctionID: auctionID,
	}
}

func (c *Connection) Send(message interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(message)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) UserID() string {
	return c.userID
}

func (c *Connection) AuctionID() string {
	return c.auctionID
}
