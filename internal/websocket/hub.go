// internal/websocket/hub.go
package websocket

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	sf "crmsync-service/internal/domain/salesforce"
	wstypes "crmsync-service/internal/domain/websocket"
	"crmsync-service/internal/pkg/jwt"
)

// syncRoles may open a sync event stream.
var syncRoles = []string{"admin", "sync"}

type Hub struct {
	// Registered clients by token subject
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	jwtVerifier *jwt.Verifier
	logger      *zap.Logger
}

type BroadcastMessage struct {
	Channel wstypes.ChannelType
	Message *wstypes.WSMessage
}

func NewHub(jwtVerifier *jwt.Verifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client, 64),
		broadcast:   make(chan *BroadcastMessage, 256),
		done:        make(chan struct{}),
		jwtVerifier: jwtVerifier,
		logger:      logger,
	}
}

// AuthenticateClient validates the JWT and checks for a sync role
func (h *Hub) AuthenticateClient(token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !claims.HasAnyRole(syncRoles...) {
		return nil, ErrForbidden
	}

	return &ClientAuth{
		Subject: claims.Subject,
		TokenID: claims.ID,
		Roles:   claims.Roles,
	}, nil
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.subject] == nil {
		h.clients[client.subject] = make(map[*Client]bool)
	}
	h.clients[client.subject][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("subject", client.subject),
		zap.String("token_id", client.tokenID),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"subject":  client.subject,
		"roles":    client.roles,
		"channels": client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.clients[client.subject]
	if !ok || !clients[client] {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.subject)
	}
	total := h.totalClients()
	h.mu.Unlock()

	client.Close()
	h.logger.Info("websocket client disconnected",
		zap.String("subject", client.subject),
		zap.Int("total", total),
	)
}

// BroadcastMessage delivers msg to every client subscribed to its channel.
// Clients whose send buffer is full are dropped.
func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	data, err := msg.Message.ToJSON()
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for _, clients := range h.clients {
		for client := range clients {
			if !client.IsSubscribed(msg.Channel) {
				continue
			}
			if !client.enqueue(data) {
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("dropping slow websocket client", zap.String("subject", client.subject))
		h.unregisterClient(client)
	}
}

// PublishSyncEvent broadcasts a finished sync on the entity's channel. It
// never blocks the caller; events are dropped when the queue is full.
func (h *Hub) PublishSyncEvent(result *sf.SyncResult) {
	if result == nil {
		return
	}

	channel := wstypes.ChannelContacts
	if result.EntityType == sf.EntityOrder {
		channel = wstypes.ChannelOrders
	}

	msg := &BroadcastMessage{
		Channel: channel,
		Message: wstypes.NewMessage(wstypes.EventTypeSyncCompleted, result),
	}

	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("sync event queue full, event dropped",
			zap.String("sync_id", result.SyncID),
			zap.String("entity_type", string(result.EntityType)),
			zap.Int64("entity_id", result.EntityID),
		)
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// Add hands a connected client to the hub. It returns false once the hub
// has shut down.
func (h *Hub) Add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave is called by a client's read pump when its connection ends.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for subject, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, subject)
	}
}
