package handlers

import (
	"net/http"
	"time"

	"iot-dashboard/entities"
	"iot-dashboard/logger"
	"iot-dashboard/services"
	"iot-dashboard/ws"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// incomingMessage is the envelope sensors send over their socket.
type incomingMessage struct {
	Type string          `json:"type"` // measure | heartbeat
	Data json.RawMessage `json:"data"`
}

type measurePayload struct {
	Type         entities.MeasureType `json:"type"`
	Value        *float64             `json:"value"`
	CreationDate *time.Time           `json:"creationDate"`
}

// WSHandler groups dependencies for websocket flows
type WSHandler struct {
	mgr       *ws.Manager
	processor *services.DataProcessor
}

func NewWSHandler(mgr *ws.Manager, processor *services.DataProcessor) *WSHandler {
	return &WSHandler{mgr: mgr, processor: processor}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (h *WSHandler) reject(log *logrus.Entry, sensorID, reason string) {
	log.Warn(reason)
	payload, _ := json.Marshal(ws.Event{Type: "error", Error: reason})
	if err := h.mgr.SendToSensor(sensorID, payload); err != nil {
		log.WithError(err).Debug("could not report error to sensor")
	}
}

// toMeasure turns a socket payload into a measure of sensorID. Readings
// without a date are stamped with the time they arrived.
func toMeasure(sensorID string, raw json.RawMessage, received time.Time) (entities.Measure, string) {
	var p measurePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return entities.Measure{}, "invalid measure payload"
	}
	if !p.Type.Valid() {
		return entities.Measure{}, "measure type must be one of humidity, temperature, airPollution"
	}
	if p.Value == nil {
		return entities.Measure{}, "measure value is required"
	}
	at := received
	if p.CreationDate != nil {
		at = *p.CreationDate
	}
	return entities.Measure{Type: p.Type, Value: *p.Value, CreationDate: at.UTC(), SensorID: sensorID}, ""
}

// HandleSensorWS upgrades to websocket and buffers the readings of a sensor
// GET /ws/sensors?id=<sensor_id>
func (h *WSHandler) HandleSensorWS(c *gin.Context) {
	sensorID := c.Query("id")
	if sensorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sensor id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.FromContext(c.Request.Context()).WithError(err).Error("websocket upgrade failed")
		return
	}
	log := logger.FromContext(c.Request.Context()).WithField("sensorID", sensorID)
	h.mgr.Register(sensorID, conn)
	log.Info("sensor connected")

	defer func() {
		h.mgr.Unregister(sensorID, conn)
		log.Info("sensor disconnected")
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("sensor closed connection")
			} else {
				log.WithError(err).Warn("read error")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var base incomingMessage
		if err := json.Unmarshal(message, &base); err != nil {
			h.reject(log, sensorID, "invalid json")
			continue
		}

		switch base.Type {
		case "measure":
			m, problem := toMeasure(sensorID, base.Data, time.Now())
			if problem != "" {
				h.reject(log, sensorID, problem)
				continue
			}
			h.processor.AddMeasure(m)
			log.WithField("type", m.Type).Debug("measure buffered")
		case "heartbeat":
		default:
			h.reject(log, sensorID, "unknown message type "+base.Type)
		}
	}
}

// HandleLiveWS streams every stored measure to the caller
// GET /ws/live
func (h *WSHandler) HandleLiveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.FromContext(c.Request.Context()).WithError(err).Error("websocket upgrade failed")
		return
	}
	h.mgr.Subscribe(conn)
	defer h.mgr.Unsubscribe(conn)

	// Subscribers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// GetConnectedSensors GET /ingest/sensors
func (h *WSHandler) GetConnectedSensors(c *gin.Context) {
	sensors := h.mgr.Sensors()
	c.JSON(http.StatusOK, gin.H{"sensors": sensors, "count": len(sensors), "subscribers": h.mgr.Subscribers()})
}
