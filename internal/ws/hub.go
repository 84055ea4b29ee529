package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/goroutine"
	"github.com/openwitness/witness-backend/internal/logger"
)

// Hub управляет всеми WebSocket клиентами и рассылает им события.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	ctx        context.Context
}

// NewHub создаёт новый хаб. Хаб останавливается вместе с ctx.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		ctx:        ctx,
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Broadcast отправляет событие всем подключённым клиентам.
// Сообщение следует контракту WebSocket API: "type" — имя события, "data" — полезная нагрузка.
// Если очередь переполнена, событие отбрасывается: клиенты перечитают данные по следующему.
func (h *Hub) Broadcast(event string, data any) error {
	raw, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	select {
	case h.broadcast <- raw:
	default:
		logger.Component("ws").WithField("event", event).Warn("очередь рассылки переполнена, событие отброшено")
	}
	return nil
}

// NotifyChange реализует repository.ChangeNotifier.
func (h *Hub) NotifyChange(ctx context.Context, event repository.ChangeEvent) {
	if err := h.Broadcast(event.Type, event); err != nil {
		logger.Component("ws").WithError(err).Error("не удалось разослать изменение")
	}
}

// ClientCount возвращает число подключённых клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// медленный клиент отключается
			c := client
			goroutine.SafeGo(c.Close)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.conn.Close()
		delete(h.clients, client)
	}
}
