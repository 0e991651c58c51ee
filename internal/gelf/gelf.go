package gelf

import (
	"encoding/json"
	"net"
	"os"
	"time"
)

// Syslog severities used in the GELF "level" field.
const (
	LevelCritical      = 2
	LevelError         = 3
	LevelWarning       = 4
	LevelInformational = 6
	LevelDebug         = 7
)

// Message is one GELF 1.1 payload. Extra holds additional fields; keys are
// prefixed with "_" on the wire.
type Message struct {
	Short     string
	Level     int
	Timestamp time.Time
	Extra     map[string]any
}

// Writer sends GELF messages over UDP.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service + "-server"
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// Encode renders m as a GELF JSON document.
func (w *Writer) Encode(m Message) ([]byte, error) {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	doc := map[string]any{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": m.Short,
		"timestamp":     float64(ts.UnixNano()) / 1e9,
		"level":         m.Level,
		"_service":      w.service,
	}
	for k, v := range m.Extra {
		if k == "id" {
			// GELF reserves "_id".
			k = "field_id"
		}
		doc["_"+k] = v
	}
	return json.Marshal(doc)
}

// Send writes one message. Delivery is fire-and-forget; only encoding
// failures are reported.
func (w *Writer) Send(m Message) error {
	payload, err := w.Encode(m)
	if err != nil {
		return err
	}
	w.conn.Write(payload)
	return nil
}

// Close releases the UDP socket.
func (w *Writer) Close() error {
	return w.conn.Close()
}
