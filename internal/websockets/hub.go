package websockets

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/metrics"
	"github.com/timetidy/timetidy-service/internal/models"
)

const deliveryBuffer = 256

type delivery struct {
	message    []byte
	recipients map[string]struct{}
	broadcast  bool
}

// Hub fans lifecycle events out to connected clients. Managers and admins
// receive every event, other users only events addressed to them.
type Hub struct {
	clients map[*Client]bool

	register chan *Client

	unregister chan *Client

	deliveries chan delivery

	// closed when Run returns
	done chan struct{}

	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		deliveries: make(chan delivery, deliveryBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

// Publish queues event for delivery. It never blocks a request: when the
// queue is full the event is dropped and logged.
func (h *Hub) Publish(event models.Event) {
	message, err := json.Marshal(Message{Type: MessageType(event.Type), Data: event.Data, At: event.At})
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	d := delivery{message: message, broadcast: event.Broadcast}
	if len(event.Recipients) > 0 {
		d.recipients = make(map[string]struct{}, len(event.Recipients))
		for _, id := range event.Recipients {
			d.recipients[id] = struct{}{}
		}
	}

	select {
	case h.deliveries <- d:
		if h.metrics != nil {
			h.metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
		}
	default:
		h.logger.Warn("Event queue full, dropping event", zap.String("type", string(event.Type)))
	}
}

// Run serves registrations and deliveries until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.track()
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
			}
		case d := <-h.deliveries:
			for client := range h.clients {
				if !client.wants(d) {
					continue
				}
				select {
				case client.send <- d.message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.track()
}

func (h *Hub) track() {
	if h.metrics != nil {
		h.metrics.WebSocketClients.Set(float64(len(h.clients)))
	}
}
