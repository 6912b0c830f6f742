package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/metrics"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients, grouped by the day they watch
type Hub struct {
	// Registered clients by record date (YYYY-MM-DD)
	clients map[string]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mutex sync.RWMutex

	logger *zerolog.Logger
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	conn *websocket.Conn

	// Buffered channel of outbound messages
	Send chan []byte

	// Day this client watches
	Date     string
	ClientIP string

	Hub *Hub

	ConnectedAt time.Time
	LastPing    time.Time
}

// Extraction status values
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ExtractionUpdate reports the progress of a file extraction for a day
type ExtractionUpdate struct {
	Type           string    `json:"type"`
	Date           string    `json:"date"`
	Status         string    `json:"status"`
	FileName       string    `json:"file_name,omitempty"`
	TaskCount      int       `json:"task_count,omitempty"`
	DiscardedLines int       `json:"discarded_lines,omitempty"`
	Cached         bool      `json:"cached,omitempty"`
	Message        string    `json:"message,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// RecordUpdate is pushed whenever the day's record changes
type RecordUpdate struct {
	Type           string    `json:"type"`
	Date           string    `json:"date"`
	CompletedCount int       `json:"completed"`
	TotalCount     int       `json:"total"`
	Percentage     int       `json:"percentage"`
	Cleared        bool      `json:"cleared,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Message represents a generic WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Token já é validado pelo BearerAuth antes do upgrade
		return true
	},
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.Global(),
	}
}

// Run starts the hub's main loop until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.clients[client.Date] == nil {
		h.clients[client.Date] = make(map[*Client]bool)
	}
	h.clients[client.Date][client] = true

	metrics.Get().IncrementWSConnection()

	h.logger.Info().
		Str("record_date", client.Date).
		Str("client_ip", client.ClientIP).
		Int("date_connections", len(h.clients[client.Date])).
		Msg("WebSocket client registered")

	client.SendMessage(Message{
		Type:      "connection",
		Data:      map[string]string{"status": "connected", "date": client.Date},
		Timestamp: time.Now(),
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.removeLocked(client)
}

// removeLocked drops a client; callers hold the write lock
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.Date]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.Send)
	metrics.Get().DecrementWSConnection()

	if len(clients) == 0 {
		delete(h.clients, client.Date)
	}

	h.logger.Info().
		Str("record_date", client.Date).
		Int("remaining_connections", len(clients)).
		Msg("WebSocket client unregistered")
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// SendToDate sends a message to every connection watching date.
// Slow clients whose buffer is full are disconnected.
func (h *Hub) SendToDate(date string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("record_date", date).
			Msg("Failed to marshal message for date")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients, exists := h.clients[date]
	if !exists {
		h.logger.Debug().
			Str("record_date", date).
			Msg("No WebSocket connections found for date")
		return
	}

	for client := range clients {
		select {
		case client.Send <- data:
			metrics.Get().IncrementWSMessageOut()
		default:
			h.logger.Warn().
				Str("record_date", date).
				Msg("Client send buffer full, closing connection")
			h.removeLocked(client)
		}
	}
}

// SendExtraction pushes an extraction status change
func (h *Hub) SendExtraction(update ExtractionUpdate) {
	update.Type = "extraction"
	update.Timestamp = time.Now()
	h.SendToDate(update.Date, update)
}

// SendRecord pushes the new totals of a day; a nil record means it was cleared
func (h *Hub) SendRecord(date string, record *model.DailyRecord) {
	update := RecordUpdate{
		Type:      "record",
		Date:      date,
		Timestamp: time.Now(),
	}
	if record == nil {
		update.Cleared = true
	} else {
		update.CompletedCount = record.CompletedCount
		update.TotalCount = record.TotalCount
		update.Percentage = record.Percentage
	}
	h.SendToDate(date, update)
}

// GetWatchedDates returns the dates with at least one connection
func (h *Hub) GetWatchedDates() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	dates := make([]string, 0, len(h.clients))
	for date := range h.clients {
		dates = append(dates, date)
	}
	return dates
}

// GetConnectionCount returns the total number of active connections
func (h *Hub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

// GetDateConnectionCount returns the number of connections watching date
func (h *Hub) GetDateConnectionCount(date string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients[date])
}
