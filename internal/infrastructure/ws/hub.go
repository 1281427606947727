// Package ws difunde los eventos del ledger a los tableros conectados por WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.EventPublisher = (*Hub)(nil)

// Conn lo que el hub necesita de una conexión; *websocket.Conn lo cumple.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

const (
	// writeWait plazo de cada escritura; un cliente que no lee se descarta al vencer.
	writeWait = 10 * time.Second
	// clientBuffer mensajes pendientes por cliente antes de descartarlo.
	clientBuffer = 16
)

// deadliner lo cumple *websocket.Conn; los dobles de prueba pueden omitirlo.
type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// client conexión con su cola de salida; una goroutine por cliente escribe en el socket.
type client struct {
	conn Conn
	send chan []byte
}

// Hub registro de clientes y difusión serializada en una sola goroutine (Run).
// Run nunca escribe en un socket: encola en cada cliente sin bloquear.
type Hub struct {
	clients    map[Conn]*client
	register   chan Conn
	unregister chan Conn
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.Mutex
	log        zerolog.Logger
}

// NewHub crea el hub. Llamar Run en una goroutine propia.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[Conn]*client),
		register:   make(chan Conn),
		unregister: make(chan Conn),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "ws_hub").Logger(),
	}
}

// Run atiende altas, bajas y difusiones hasta que ctx termina; entonces cierra los clientes.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				h.drop(conn)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
			h.mu.Lock()
			h.clients[conn] = c
			n := len(h.clients)
			h.mu.Unlock()
			go h.writePump(c)
			h.log.Debug().Int("clients", n).Msg("cliente WS conectado")

		case conn := <-h.unregister:
			h.mu.Lock()
			h.drop(conn)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn, c := range h.clients {
				select {
				case c.send <- message:
				default:
					h.log.Debug().Msg("cliente WS lento descartado")
					h.drop(conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop retira y cierra la conexión. Requiere h.mu.
func (h *Hub) drop(conn Conn) {
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(c.send)
	_ = conn.Close()
}

// writePump vacía la cola del cliente hasta que el hub la cierra o una escritura falla.
func (h *Hub) writePump(c *client) {
	for message := range c.send {
		if d, ok := c.conn.(deadliner); ok {
			_ = d.SetWriteDeadline(time.Now().Add(writeWait))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.log.Debug().Err(err).Msg("cliente WS descartado")
			h.Unregister(c.conn)
			return
		}
	}
}

// Register agrega una conexión. Si el hub ya terminó, la cierra.
func (h *Hub) Register(conn Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		_ = conn.Close()
	}
}

// Unregister retira y cierra una conexión.
func (h *Hub) Unregister(conn Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Clients número de conexiones activas.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish serializa el evento y lo encola para difusión. No bloquea si el buffer está lleno:
// el audit trail sigue siendo la fuente de verdad.
func (h *Hub) Publish(ctx context.Context, event inventory.MovementEvent) error {
	payload, err := json.Marshal(dto.ToMovementEventMessage(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	select {
	case h.broadcast <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("ws: buffer de difusión lleno, evento %s descartado", event.Type)
	}
}
