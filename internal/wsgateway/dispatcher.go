package wsgateway

import (
	"encoding/json"

	"github.com/mohamedkhairy/chatts-server/pkg/logger"
)

// Dispatcher delivers named events to connections. Delivery is
// fire-and-forget: a connection that has closed, or whose send buffer is
// full, is skipped without affecting delivery to the other targets.
// The dispatcher never touches registry or presence state.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over the given registry
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// EmitToConnections delivers the event to exactly the given connections
func (d *Dispatcher) EmitToConnections(connIDs []string, event string, data interface{}) {
	payload, err := marshalEvent(event, data)
	if err != nil {
		return
	}
	for _, connID := range connIDs {
		conn, ok := d.registry.Get(connID)
		if !ok {
			continue
		}
		d.deliver(conn, event, payload)
	}
}

// EmitToOne delivers the event to a single connection; a no-op if the
// connection is already gone.
func (d *Dispatcher) EmitToOne(connID string, event string, data interface{}) {
	d.EmitToConnections([]string{connID}, event, data)
}

// EmitToAllExcept broadcasts the event to every open connection other than
// the sender's.
func (d *Dispatcher) EmitToAllExcept(senderConnID string, event string, data interface{}) {
	payload, err := marshalEvent(event, data)
	if err != nil {
		return
	}
	for _, conn := range d.registry.AllExcept(senderConnID) {
		d.deliver(conn, event, payload)
	}
}

func (d *Dispatcher) deliver(conn *Connection, event string, payload []byte) {
	err := conn.Enqueue(payload)
	if err == nil {
		eventsDispatched.WithLabelValues(event).Inc()
		return
	}
	dispatchFailures.Inc()
	logger.Debug("Dropped event for connection",
		logger.String("event", event),
		logger.String("connection_id", conn.ID),
		logger.String("user_id", conn.UserID),
		logger.ErrorField(err),
	)
}

func marshalEvent(event string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		logger.Error("Failed to marshal event",
			logger.String("event", event),
			logger.ErrorField(err),
		)
		return nil, err
	}
	return payload, nil
}
