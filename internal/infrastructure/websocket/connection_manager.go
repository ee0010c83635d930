package websocket

import (
	"encoding/json"
	"sync"

	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
)

// ConnectionManager tracks live WebSocket subscriptions, indexed both
// by auction (for broadcasts) and by user (for direct notifications).
type ConnectionManager struct {
	connections map[string]map[string]domain.WebSocketConnection // auctionID -> userID -> connection
	userConns   map[string][]domain.WebSocketConnection          // userID -> connections
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		userConns:   make(map[string][]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(userID, auctionID string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[auctionID][userID] = conn
	cm.userConns[userID] = append(cm.userConns[userID], conn)

	cm.log.Debug("Connection registered", "user_id", userID, "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(userID, auctionID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if auctionConns, exists := cm.connections[auctionID]; exists {
		delete(auctionConns, userID)
		if len(auctionConns) == 0 {
			delete(cm.connections, auctionID)
		}
	}
	cm.dropUserConn(userID, auctionID)

	cm.log.Debug("Connection unregistered", "user_id", userID, "auction_id", auctionID)
	return nil
}

// CloseAndUnregisterConnections tears down every subscription for an
// ended auction.
func (cm *ConnectionManager) CloseAndUnregisterConnections(auctionID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	auctionConns, exists := cm.connections[auctionID]
	if !exists {
		return nil
	}

	for userID, conn := range auctionConns {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close connection", "user_id", userID,
				"auction_id", auctionID, "error", err)
		}
		cm.dropUserConn(userID, auctionID)
	}
	delete(cm.connections, auctionID)

	cm.log.Info("Connections closed for auction", "auction_id", auctionID)
	return nil
}

// dropUserConn must run under the write lock.
func (cm *ConnectionManager) dropUserConn(userID, auctionID string) {
	userConnections, exists := cm.userConns[userID]
	if !exists {
		return
	}

	var remaining []domain.WebSocketConnection
	for _, conn := range userConnections {
		if conn.AuctionID() != auctionID {
			remaining = append(remaining, conn)
		}
	}

	if len(remaining) == 0 {
		delete(cm.userConns, userID)
	} else {
		cm.userConns[userID] = remaining
	}
}

func (cm *ConnectionManager) GetConnectionsForAuction(auctionID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for _, conn := range cm.connections[auctionID] {
		connections = append(connections, conn)
	}
	return connections
}

func (cm *ConnectionManager) GetConnectionsForUser(userID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	return cm.userConns[userID]
}

func (cm *ConnectionManager) BroadcastToAuction(auctionID string, message interface{}) error {
	connections := cm.GetConnectionsForAuction(auctionID)

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		if err := conn.Send(messageBytes); err != nil {
			// Keep going; a dead connection must not starve the rest.
			cm.log.Error("Failed to send message", "user_id", conn.UserID(),
				"auction_id", auctionID, "error", err)
		}
	}

	return nil
}

func (cm *ConnectionManager) NotifyUser(userID string, message interface{}) error {
	connections := cm.GetConnectionsForUser(userID)

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		if err := conn.Send(messageBytes); err != nil {
			cm.log.Error("Failed to send message", "user_id", userID, "error", err)
		}
	}

	return nil
}
