package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"iot-dashboard/entities"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var ErrNotConnected = errors.New("sensor not connected")

const (
	writeWait = 5 * time.Second
	// sendQueue is how many live events a subscriber may lag behind
	// before it is dropped.
	sendQueue = 64
)

// peer serialises writes to one connection.
type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *peer) write(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteMessage(websocket.TextMessage, payload)
}

// subscriber is a live feed socket with its own outgoing queue.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Manager keeps track of sensor ingest sockets and live feed subscribers.
type Manager struct {
	mu          sync.RWMutex
	sensors     map[string]*peer // sensorID -> conn
	subscribers map[*websocket.Conn]*subscriber
}

func NewManager() *Manager {
	return &Manager{
		sensors:     make(map[string]*peer),
		subscribers: make(map[*websocket.Conn]*subscriber),
	}
}

// Register registers a sensor connection, replacing any existing one.
func (m *Manager) Register(sensorID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sensors[sensorID]; ok && old.conn != conn {
		_ = old.conn.Close()
	}
	m.sensors[sensorID] = &peer{conn: conn}
}

// Unregister removes a sensor connection if conn is still the registered one.
func (m *Manager) Unregister(sensorID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.sensors[sensorID]; ok && p.conn == conn {
		_ = p.conn.Close()
		delete(m.sensors, sensorID)
	}
}

// SendToSensor sends a text message to a sensor if connected.
func (m *Manager) SendToSensor(sensorID string, payload []byte) error {
	m.mu.RLock()
	p, ok := m.sensors[sensorID]
	m.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	return p.write(payload)
}

func (m *Manager) IsConnected(sensorID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sensors[sensorID]
	return ok
}

// Sensors returns the ids of the connected sensors.
func (m *Manager) Sensors() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sensors))
	for id := range m.sensors {
		ids = append(ids, id)
	}
	return ids
}

// Subscribe adds conn to the live feed. Events are written by a goroutine
// owned by the subscriber.
func (m *Manager) Subscribe(conn *websocket.Conn) {
	sub := &subscriber{conn: conn, send: make(chan []byte, sendQueue)}
	m.mu.Lock()
	m.subscribers[conn] = sub
	m.mu.Unlock()
	go m.writePump(sub)
}

func (m *Manager) writePump(sub *subscriber) {
	for payload := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			m.Unsubscribe(sub.conn)
			return
		}
	}
}

func (m *Manager) Unsubscribe(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subscribers[conn]; ok {
		close(sub.send)
		_ = conn.Close()
		delete(m.subscribers, conn)
	}
}

func (m *Manager) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// Broadcast queues payload for every subscriber without waiting for the
// writes. Subscribers whose queue is full are dropped. It returns the
// number of subscribers the payload was queued for.
func (m *Manager) Broadcast(payload []byte) int {
	var slow []*websocket.Conn
	queued := 0
	m.mu.RLock()
	for conn, sub := range m.subscribers {
		select {
		case sub.send <- payload:
			queued++
		default:
			slow = append(slow, conn)
		}
	}
	m.mu.RUnlock()

	for _, conn := range slow {
		m.Unsubscribe(conn)
	}
	return queued
}

// Event is the envelope of live feed messages.
type Event struct {
	Type    string            `json:"type"`
	Measure *entities.Measure `json:"measure,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// PublishMeasure pushes a stored measure to the live feed.
func (m *Manager) PublishMeasure(_ context.Context, measure entities.Measure) error {
	payload, err := json.Marshal(Event{Type: "measure", Measure: &measure})
	if err != nil {
		return err
	}
	m.Broadcast(payload)
	return nil
}
