package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fleet-dashboard-service/internal/ports"
)

const (
	// writeWait bounds a single control/data write.
	writeWait = 10 * time.Second
	// pongWait is the read deadline; a peer that stops answering pings
	// within it is considered dead.
	pongWait = 60 * time.Second
	// pingInterval must be shorter than pongWait.
	pingInterval = 30 * time.Second
	// maxMessageSize caps a single change event frame.
	maxMessageSize = 65536
)

// Client implements the RealtimeFeed port over a websocket backend. Each
// subscription holds its own connection, so tearing one down cannot stall
// the others and the whole-group resubscription policy stays trivial.
type Client struct {
	url    string
	dialer *websocket.Dialer
}

func NewClient(url string) *Client {
	return &Client{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

type subscribeFrame struct {
	Action     string            `json:"action"`
	Collection string            `json:"collection"`
	Filter     map[string]string `json:"filter,omitempty"`
}

type eventFrame struct {
	Kind     string          `json:"kind"`
	Document json.RawMessage `json:"document"`
}

// Subscribe dials the backend, registers the collection filter and starts
// delivering change events to onChange until the subscription is closed or
// the connection dies. A dead connection stops delivery silently; the
// health monitor recovers it by staleness.
func (c *Client) Subscribe(ctx context.Context, collection string, filter map[string]string, onChange ports.ChangeHandler) (ports.Subscription, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("realtime subscribe: dial %q: %w", c.url, err)
	}

	frame := subscribeFrame{Action: "subscribe", Collection: collection, Filter: filter}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("realtime subscribe: set write deadline: %w", err)
	}
	if err := conn.WriteJSON(frame); err != nil {
		conn.Close()
		return nil, fmt.Errorf("realtime subscribe: send subscribe frame: %w", err)
	}

	sub := &subscription{
		collection: collection,
		conn:       conn,
		done:       make(chan struct{}),
	}
	go sub.readLoop(onChange)
	go sub.pingLoop()

	return sub, nil
}

type subscription struct {
	collection string
	conn       *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
}

func (s *subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *subscription) readLoop(onChange ports.ChangeHandler) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				log.Printf("realtime read failed: collection=%s err=%v", s.collection, err)
			}
			return
		}

		var frame eventFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("realtime decode failed: collection=%s err=%v", s.collection, err)
			continue
		}

		kind := ports.EventKind(frame.Kind)
		switch kind {
		case ports.EventInsert, ports.EventUpdate, ports.EventDelete:
		default:
			log.Printf("realtime unknown event kind: collection=%s kind=%q", s.collection, frame.Kind)
			continue
		}

		onChange(ports.ChangeEvent{Kind: kind, Document: frame.Document})
	}
}

func (s *subscription) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
