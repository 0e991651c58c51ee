// Package oxidbtest runs an in-memory oxidb-server speaking the real wire
// protocol, so repositories and handlers can be tested without a database.
//
// Only the commands the client package exposes are implemented. Queries are
// top-level equality matches; updates understand $set.
package oxidbtest

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
)

// Server is a fake oxidb-server bound to a loopback port.
type Server struct {
	ln net.Listener

	mu          sync.Mutex
	collections map[string]*collection
	conns       map[net.Conn]struct{}
	closed      bool

	wg sync.WaitGroup
}

type collection struct {
	nextID  float64
	docs    []map[string]any
	unique  []string
	text    []string
	indexes []map[string]any
}

// New starts a server and registers Close with tb.Cleanup.
func New(tb testing.TB) *Server {
	tb.Helper()
	s, err := Start()
	if err != nil {
		tb.Fatalf("oxidbtest: %v", err)
	}
	tb.Cleanup(s.Close)
	return s
}

// Start starts a server on 127.0.0.1 with an ephemeral port.
func Start() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	s := &Server{
		ln:          ln,
		collections: map[string]*collection{},
		conns:       map[net.Conn]struct{}{},
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Host returns the listening host.
func (s *Server) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Docs returns a copy of every document in a collection, in insertion order.
func (s *Server) Docs(name string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[name]
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(col.docs))
	for _, d := range col.docs {
		out = append(out, clone(d))
	}
	return out
}

// DropConnections closes every open client connection while keeping the
// listener up, which is what a server restart looks like to a pool.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
}

// Close stops the listener, closes open connections and waits for handlers.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.ln.Close()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(conn, lenBuf); err != nil {
			return
		}
		payload := make([]byte, binary.LittleEndian.Uint32(lenBuf))
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}

		var req map[string]any
		resp := map[string]any{"ok": true}
		if err := json.Unmarshal(payload, &req); err != nil {
			resp = map[string]any{"ok": false, "error": "bad request: " + err.Error()}
		} else if data, err := s.dispatch(req); err != nil {
			resp = map[string]any{"ok": false, "error": err.Error()}
		} else {
			resp["data"] = data
		}

		out, _ := json.Marshal(resp)
		frame := make([]byte, 4+len(out))
		binary.LittleEndian.PutUint32(frame, uint32(len(out)))
		copy(frame[4:], out)
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req map[string]any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, _ := req["cmd"].(string)
	if cmd == "ping" {
		return "pong", nil
	}

	name, _ := req["collection"].(string)
	if name == "" {
		return nil, fmt.Errorf("%s: collection is required", cmd)
	}
	col := s.collection(name)
	query, _ := req["query"].(map[string]any)

	switch cmd {
	case "insert":
		doc, _ := req["doc"].(map[string]any)
		id, err := col.insert(doc)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": id}, nil

	case "insert_many":
		docs, _ := req["docs"].([]any)
		for _, d := range docs {
			doc, _ := d.(map[string]any)
			if _, err := col.insert(doc); err != nil {
				return nil, err
			}
		}
		return map[string]any{"inserted": float64(len(docs))}, nil

	case "find":
		matched := col.match(query)
		if sortSpec, ok := req["sort"].(map[string]any); ok {
			sortDocs(matched, sortSpec)
		}
		if skip, ok := req["skip"].(float64); ok {
			if int(skip) >= len(matched) {
				matched = nil
			} else if skip > 0 {
				matched = matched[int(skip):]
			}
		}
		if limit, ok := req["limit"].(float64); ok && limit > 0 && int(limit) < len(matched) {
			matched = matched[:int(limit)]
		}
		out := make([]any, 0, len(matched))
		for _, d := range matched {
			out = append(out, clone(d))
		}
		return out, nil

	case "find_one":
		matched := col.match(query)
		if len(matched) == 0 {
			return nil, nil
		}
		return clone(matched[0]), nil

	case "update", "update_one":
		update, _ := req["update"].(map[string]any)
		set, _ := update["$set"].(map[string]any)
		matched := col.match(query)
		if cmd == "update_one" && len(matched) > 1 {
			matched = matched[:1]
		}
		for _, d := range matched {
			if err := col.checkUnique(set, d); err != nil {
				return nil, err
			}
		}
		for _, d := range matched {
			for k, v := range set {
				if k == "_id" {
					continue
				}
				d[k] = v
			}
		}
		return map[string]any{"modified": float64(len(matched))}, nil

	case "delete", "delete_one":
		deleted := 0
		kept := col.docs[:0]
		for _, d := range col.docs {
			if matches(d, query) && (cmd == "delete" || deleted == 0) {
				deleted++
				continue
			}
			kept = append(kept, d)
		}
		col.docs = kept
		return map[string]any{"deleted": float64(deleted)}, nil

	case "count":
		return map[string]any{"count": float64(len(col.match(query)))}, nil

	case "create_index", "create_unique_index":
		field, _ := req["field"].(string)
		unique := cmd == "create_unique_index"
		if unique && !contains(col.unique, field) {
			col.unique = append(col.unique, field)
		}
		col.addIndex(map[string]any{"name": field, "fields": []any{field}, "unique": unique})
		return "ok", nil

	case "create_composite_index":
		fields := toStrings(req["fields"])
		col.addIndex(map[string]any{"name": strings.Join(fields, "_"), "fields": toAny(fields), "unique": false})
		return "ok", nil

	case "create_text_index":
		fields := toStrings(req["fields"])
		for _, f := range fields {
			if !contains(col.text, f) {
				col.text = append(col.text, f)
			}
		}
		col.addIndex(map[string]any{"name": "_text", "fields": toAny(fields), "text": true})
		return "ok", nil

	case "list_indexes":
		out := make([]any, 0, len(col.indexes))
		for _, idx := range col.indexes {
			out = append(out, clone(idx))
		}
		return out, nil

	case "text_search":
		q, _ := req["query"].(string)
		limit, _ := req["limit"].(float64)
		return col.search(q, int(limit)), nil

	case "compact":
		return map[string]any{"docs_kept": float64(len(col.docs))}, nil
	}
	return nil, fmt.Errorf("unknown command: %s", cmd)
}

func (s *Server) collection(name string) *collection {
	col, ok := s.collections[name]
	if !ok {
		col = &collection{nextID: 1}
		s.collections[name] = col
	}
	return col
}

func (c *collection) insert(doc map[string]any) (float64, error) {
	if doc == nil {
		return 0, errors.New("insert: doc is required")
	}
	if err := c.checkUnique(doc, nil); err != nil {
		return 0, err
	}
	d := clone(doc)
	id := c.nextID
	c.nextID++
	d["_id"] = id
	c.docs = append(c.docs, d)
	return id, nil
}

// checkUnique rejects values that collide with another document on a unique
// field. self is skipped so updates can rewrite their own value.
func (c *collection) checkUnique(fields map[string]any, self map[string]any) error {
	for _, f := range c.unique {
		v, ok := fields[f]
		if !ok {
			continue
		}
		for _, d := range c.docs {
			if self != nil && reflect.DeepEqual(d["_id"], self["_id"]) {
				continue
			}
			if reflect.DeepEqual(d[f], v) {
				return fmt.Errorf("unique constraint violated on %s", f)
			}
		}
	}
	return nil
}

func (c *collection) addIndex(idx map[string]any) {
	for i, existing := range c.indexes {
		if existing["name"] == idx["name"] {
			c.indexes[i] = idx
			return
		}
	}
	c.indexes = append(c.indexes, idx)
}

func (c *collection) match(query map[string]any) []map[string]any {
	var out []map[string]any
	for _, d := range c.docs {
		if matches(d, query) {
			out = append(out, d)
		}
	}
	return out
}

func (c *collection) search(q string, limit int) []any {
	terms := strings.Fields(strings.ToLower(q))
	out := []any{}
	if len(terms) == 0 {
		return out
	}
	for _, d := range c.docs {
		var hay strings.Builder
		for _, f := range c.text {
			if s, ok := d[f].(string); ok {
				hay.WriteString(strings.ToLower(s))
				hay.WriteByte(' ')
			}
		}
		text := hay.String()
		for _, t := range terms {
			if strings.Contains(text, t) {
				out = append(out, clone(d))
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// matches supports top-level equality, $and, and the $eq/$ne/$gt/$gte/$lt/$lte
// operators on scalar fields.
func matches(doc, query map[string]any) bool {
	for k, want := range query {
		if k == "$and" {
			clauses, _ := want.([]any)
			for _, cl := range clauses {
				sub, _ := cl.(map[string]any)
				if !matches(doc, sub) {
					return false
				}
			}
			continue
		}
		if ops, ok := operators(want); ok {
			for op, arg := range ops {
				if !compare(doc[k], op, arg) {
					return false
				}
			}
			continue
		}
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

func operators(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func compare(have any, op string, arg any) bool {
	switch op {
	case "$eq":
		return reflect.DeepEqual(have, arg)
	case "$ne":
		return !reflect.DeepEqual(have, arg)
	}
	if have == nil || reflect.TypeOf(have) != reflect.TypeOf(arg) {
		return false
	}
	switch op {
	case "$gt":
		return lessValue(arg, have)
	case "$gte":
		return !lessValue(have, arg)
	case "$lt":
		return lessValue(have, arg)
	case "$lte":
		return !lessValue(arg, have)
	}
	return false
}

func sortDocs(docs []map[string]any, spec map[string]any) {
	for field, dir := range spec {
		desc := false
		if n, ok := dir.(float64); ok && n < 0 {
			desc = true
		}
		sort.SliceStable(docs, func(i, j int) bool {
			less := lessValue(docs[i][field], docs[j][field])
			if desc {
				return lessValue(docs[j][field], docs[i][field])
			}
			return less
		})
		return
	}
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case nil:
		return b != nil
	}
	return false
}

func clone(doc map[string]any) map[string]any {
	data, _ := json.Marshal(doc)
	var out map[string]any
	json.Unmarshal(data, &out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toStrings(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, x := range arr {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
