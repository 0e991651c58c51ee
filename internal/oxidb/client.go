// Package oxidb talks to oxidb-server over TCP.
//
// Every frame is a little-endian uint32 length followed by that many bytes of
// JSON. Replies look like {"ok":true,"data":...} or {"ok":false,"error":"..."}.
package oxidb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// maxFrame caps the size of a reply we are willing to buffer.
const maxFrame = 256 << 20

// Client owns one connection. Calls are serialised.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	timeout time.Duration
	hdr     [4]byte
}

// Connect dials host:port. timeout bounds the dial and each later round
// trip; zero means no deadline.
func Connect(host string, port int, timeout time.Duration) (*Client, error) {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("oxidb: connect to %s: %w", addr, err)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// command is the request envelope. Unused fields are left out of the frame.
type command struct {
	Cmd        string           `json:"cmd"`
	Collection string           `json:"collection,omitempty"`
	Doc        map[string]any   `json:"doc,omitempty"`
	Docs       []map[string]any `json:"docs,omitempty"`
	Query      any              `json:"query,omitempty"`
	Update     map[string]any   `json:"update,omitempty"`
	Sort       map[string]any   `json:"sort,omitempty"`
	Skip       *int             `json:"skip,omitempty"`
	Limit      *int             `json:"limit,omitempty"`
	Field      string           `json:"field,omitempty"`
	Fields     []string         `json:"fields,omitempty"`
	Text       string           `json:"-"`
}

// MarshalJSON renames Text to "query" for text_search, whose query is a
// string rather than a filter document.
func (cm command) MarshalJSON() ([]byte, error) {
	type plain command
	if cm.Text != "" {
		cm.Query = cm.Text
	}
	return json.Marshal(plain(cm))
}

type reply struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (c *Client) writeFrame(body []byte) error {
	binary.LittleEndian.PutUint32(c.hdr[:], uint32(len(body)))
	if _, err := c.conn.Write(c.hdr[:]); err != nil {
		return err
	}
	_, err := c.conn.Write(body)
	return err
}

func (c *Client) readFrame() ([]byte, error) {
	if _, err := io.ReadFull(c.conn, c.hdr[:]); err != nil {
		return nil, fmt.Errorf("oxidb: read length: %w", err)
	}
	n := binary.LittleEndian.Uint32(c.hdr[:])
	if n > maxFrame {
		return nil, fmt.Errorf("oxidb: frame of %d bytes exceeds limit", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return nil, fmt.Errorf("oxidb: read payload: %w", err)
	}
	return body, nil
}

func (c *Client) roundTrip(cmd command) (*reply, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("oxidb: marshal %s: %w", cmd.Cmd, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
		defer c.conn.SetDeadline(time.Time{})
	}
	if err := c.writeFrame(body); err != nil {
		return nil, fmt.Errorf("oxidb: send %s: %w", cmd.Cmd, err)
	}
	raw, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("oxidb: decode %s reply: %w", cmd.Cmd, err)
	}
	return &r, nil
}

// do runs cmd and decodes the reply's data into out, which may be nil.
func (c *Client) do(cmd command, out any) error {
	r, err := c.roundTrip(cmd)
	if err != nil {
		return err
	}
	if !r.OK {
		msg := r.Error
		if msg == "" {
			msg = "unknown error"
		}
		if strings.Contains(strings.ToLower(msg), "conflict") {
			return &TransactionConflictError{Msg: msg}
		}
		return &Error{Msg: msg}
	}
	if out == nil || len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return fmt.Errorf("oxidb: decode %s data: %w", cmd.Cmd, err)
	}
	return nil
}

// stats decodes replies that are usually an object. Inside a transaction
// the server answers a bare status string instead.
func (c *Client) stats(cmd command) (map[string]any, error) {
	var data any
	if err := c.do(cmd, &data); err != nil {
		return nil, err
	}
	if m, ok := data.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"status": data}, nil
}

func (c *Client) docs(cmd command) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.do(cmd, &out); err != nil {
		return nil, err
	}
	kept := make([]map[string]any, 0, len(out))
	for _, d := range out {
		if d != nil {
			kept = append(kept, d)
		}
	}
	return kept, nil
}

func filter(q map[string]any) map[string]any {
	if q == nil {
		return map[string]any{}
	}
	return q
}

// Ping returns the server's "pong".
func (c *Client) Ping() (string, error) {
	var s string
	err := c.do(command{Cmd: "ping"}, &s)
	return s, err
}

// Insert stores doc and returns the reply, which carries the new "id".
func (c *Client) Insert(collection string, doc map[string]any) (map[string]any, error) {
	return c.stats(command{Cmd: "insert", Collection: collection, Doc: doc})
}

func (c *Client) InsertMany(collection string, docs []map[string]any) error {
	return c.do(command{Cmd: "insert_many", Collection: collection, Docs: docs}, nil)
}

// FindOptions narrows a Find. Nil pointers are not sent.
type FindOptions struct {
	Sort  map[string]any
	Skip  *int
	Limit *int
}

func (c *Client) Find(collection string, query map[string]any, opts *FindOptions) ([]map[string]any, error) {
	cmd := command{Cmd: "find", Collection: collection, Query: filter(query)}
	if opts != nil {
		cmd.Sort, cmd.Skip, cmd.Limit = opts.Sort, opts.Skip, opts.Limit
	}
	return c.docs(cmd)
}

// FindOne returns the first match, or nil when nothing matches.
func (c *Client) FindOne(collection string, query map[string]any) (map[string]any, error) {
	var doc map[string]any
	if err := c.do(command{Cmd: "find_one", Collection: collection, Query: filter(query)}, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) Update(collection string, query, update map[string]any) (map[string]any, error) {
	return c.stats(command{Cmd: "update", Collection: collection, Query: filter(query), Update: update})
}

func (c *Client) UpdateOne(collection string, query, update map[string]any) (map[string]any, error) {
	return c.stats(command{Cmd: "update_one", Collection: collection, Query: filter(query), Update: update})
}

func (c *Client) Delete(collection string, query map[string]any) (map[string]any, error) {
	return c.stats(command{Cmd: "delete", Collection: collection, Query: filter(query)})
}

func (c *Client) DeleteOne(collection string, query map[string]any) (map[string]any, error) {
	return c.stats(command{Cmd: "delete_one", Collection: collection, Query: filter(query)})
}

func (c *Client) Count(collection string, query map[string]any) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.do(command{Cmd: "count", Collection: collection, Query: filter(query)}, &out)
	return out.Count, err
}

func (c *Client) CreateIndex(collection, field string) error {
	return c.do(command{Cmd: "create_index", Collection: collection, Field: field}, nil)
}

func (c *Client) CreateUniqueIndex(collection, field string) error {
	return c.do(command{Cmd: "create_unique_index", Collection: collection, Field: field}, nil)
}

func (c *Client) CreateCompositeIndex(collection string, fields []string) error {
	return c.do(command{Cmd: "create_composite_index", Collection: collection, Fields: fields}, nil)
}

func (c *Client) CreateTextIndex(collection string, fields []string) error {
	return c.do(command{Cmd: "create_text_index", Collection: collection, Fields: fields}, nil)
}

func (c *Client) ListIndexes(collection string) ([]map[string]any, error) {
	return c.docs(command{Cmd: "list_indexes", Collection: collection})
}

// TextSearch queries the collection's text index.
func (c *Client) TextSearch(collection, query string, limit int) ([]map[string]any, error) {
	return c.docs(command{Cmd: "text_search", Collection: collection, Text: query, Limit: &limit})
}

// Compact rewrites a collection's storage. The reply reports old_size,
// new_size and docs_kept.
func (c *Client) Compact(collection string) (map[string]any, error) {
	return c.stats(command{Cmd: "compact", Collection: collection})
}
