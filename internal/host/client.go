// Package host implements the WebSocket client for the process host: a
// JSON-RPC 2.0 request/response surface plus the inbound notification stream
// that carries terminal events.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/termsync/internal/domain"
	"github.com/brianly1003/termsync/internal/domain/events"
	"github.com/brianly1003/termsync/internal/domain/ports"
	"github.com/brianly1003/termsync/internal/rpc/message"
	"github.com/brianly1003/termsync/internal/session"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultMaxMessageSize   = 512 * 1024

	pingInterval = 30 * time.Second
	pongTimeout  = 60 * time.Second

	// eventBufferSize bounds the inbound event channel. The dispatcher
	// drains it continuously; overflow drops the event with a warning.
	eventBufferSize = 256
)

// RPC methods exposed by the process host.
const (
	methodCreate      = "session/create"
	methodWrite       = "session/write"
	methodResize      = "session/resize"
	methodClose       = "session/close"
	methodRestart     = "session/restart"
	methodHistory     = "session/history"
	methodMarkStopped = "session/markStopped"
	methodSwitchAgent = "session/switchAgent"
	methodList        = "session/list"
)

// Client is the WebSocket connection to the process host. It implements
// ports.Host and ports.EventSource.
type Client struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex

	idMu   sync.Mutex
	nextID int64

	pendingMu sync.RWMutex
	pending   map[int64]chan *message.Response

	events  chan events.Event
	closeCh chan struct{}
	once    sync.Once
}

// Dial connects to the process host at the given WebSocket URL.
func Dial(url string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: defaultHandshakeTimeout,
	}

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	conn.SetReadLimit(defaultMaxMessageSize)
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	c := &Client{
		id:      uuid.New().String(),
		conn:    conn,
		nextID:  1,
		pending: make(map[int64]chan *message.Response),
		events:  make(chan events.Event, eventBufferSize),
		closeCh: make(chan struct{}),
	}

	go c.readLoop()
	go c.pingLoop()

	log.Info().Str("client_id", c.id).Str("url", url).Msg("connected to process host")
	return c, nil
}

// ID returns the client's connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Events returns the inbound terminal event stream. The channel closes when
// the connection drops or Close is called.
func (c *Client) Events() <-chan events.Event {
	return c.events
}

// Done returns a channel closed when the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.closeCh
}

// Shutdown tears the connection down, failing pending calls and closing the
// event stream.
func (c *Client) Shutdown() error {
	err := c.conn.Close()
	c.shutdown()
	return err
}

// shutdown fails all pending calls and closes the event stream. Safe to call
// more than once.
func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.closeCh)

		c.pendingMu.Lock()
		for _, ch := range c.pending {
			close(ch)
		}
		c.pending = make(map[int64]chan *message.Response)
		c.pendingMu.Unlock()

		close(c.events)
	})
}

// call issues a JSON-RPC request and decodes the result into out (when out is
// non-nil). Remote errors come back as *domain.HostError carrying the host's
// error code; transport failures map to the connection-closed class.
func (c *Client) call(ctx context.Context, method string, params, out interface{}) error {
	c.idMu.Lock()
	id := c.nextID
	c.nextID++
	c.idMu.Unlock()

	req, err := message.NewRequest(message.NumberID(id), method, params)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	respCh := make(chan *message.Response, 1)
	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	err = c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.dropPending(id)
		return domain.WrapHostError(method, err)
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			return domain.WrapHostError(method, fmt.Errorf("connection closed"))
		}
		if resp.IsError() {
			return domain.NewHostError(method, resp.Error.Code, resp.Error.Message)
		}
		if out != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, out); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", method, err)
			}
		}
		return nil

	case <-ctx.Done():
		c.dropPending(id)
		return ctx.Err()

	case <-c.closeCh:
		return domain.WrapHostError(method, fmt.Errorf("connection closed"))
	}
}

func (c *Client) dropPending(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// readLoop reads inbound frames, routing responses to waiting callers and
// notifications onto the event stream.
func (c *Client) readLoop() {
	defer c.shutdown()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Warn().Err(err).Msg("host connection read failed")
			return
		}

		msg, err := message.ParseInbound(data)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed host frame")
			continue
		}

		if msg.IsNotification() {
			c.handleNotification(msg)
			continue
		}

		id := msg.ID.Int64()
		if id < 0 {
			log.Warn().Str("id", msg.ID.String()).Msg("dropping response with non-numeric id")
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[id]
		if ok {
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()

		if ok {
			ch <- msg.AsResponse()
		}
	}
}

// handleNotification converts a server-pushed notification into a terminal
// event and queues it for the dispatcher.
func (c *Client) handleNotification(msg *message.Inbound) {
	ev, err := events.FromNotification(msg.Method, msg.Params)
	if err != nil {
		log.Warn().Str("method", msg.Method).Err(err).Msg("dropping unknown notification")
		return
	}

	select {
	case c.events <- ev:
	default:
		log.Warn().
			Str("event_type", string(ev.Type())).
			Str("session_id", ev.GetSessionID()).
			Msg("event dropped: inbound buffer full")
	}
}

// pingLoop keeps the connection alive.
func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCh:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// --- ports.Host implementation ---

type sessionIDParams struct {
	SessionID string `json:"session_id"`
}

// Create spawns a new terminal session on the host.
func (c *Client) Create(ctx context.Context, spec ports.SessionSpec) (*session.Info, error) {
	var info session.Info
	if err := c.call(ctx, methodCreate, spec, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Write sends raw input bytes to a session.
func (c *Client) Write(ctx context.Context, sessionID string, data []byte) error {
	params := struct {
		SessionID string `json:"session_id"`
		Data      string `json:"data"`
	}{SessionID: sessionID, Data: string(data)}
	return c.call(ctx, methodWrite, params, nil)
}

// Resize changes a session's terminal dimensions.
func (c *Client) Resize(ctx context.Context, sessionID string, cols, rows int) error {
	params := struct {
		SessionID string `json:"session_id"`
		Cols      int    `json:"cols"`
		Rows      int    `json:"rows"`
	}{SessionID: sessionID, Cols: cols, Rows: rows}
	return c.call(ctx, methodResize, params, nil)
}

// Close destroys a session on the host.
func (c *Client) Close(ctx context.Context, sessionID string) error {
	return c.call(ctx, methodClose, sessionIDParams{SessionID: sessionID}, nil)
}

// Restart re-establishes a session's process.
func (c *Client) Restart(ctx context.Context, sessionID string) (*session.Info, error) {
	var info session.Info
	if err := c.call(ctx, methodRestart, sessionIDParams{SessionID: sessionID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// History fetches a session's durable output history.
func (c *Client) History(ctx context.Context, sessionID string) ([]string, error) {
	var result struct {
		Chunks []string `json:"chunks"`
	}
	if err := c.call(ctx, methodHistory, sessionIDParams{SessionID: sessionID}, &result); err != nil {
		return nil, err
	}
	return result.Chunks, nil
}

// MarkStopped records a session as stopped on the host.
func (c *Client) MarkStopped(ctx context.Context, sessionID string) (*session.Info, error) {
	var info session.Info
	if err := c.call(ctx, methodMarkStopped, sessionIDParams{SessionID: sessionID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SwitchAgent switches a session to a different underlying command.
func (c *Client) SwitchAgent(ctx context.Context, sessionID, agentID string) (*session.Info, error) {
	params := struct {
		SessionID string `json:"session_id"`
		AgentID   string `json:"agent_id"`
	}{SessionID: sessionID, AgentID: agentID}

	var info session.Info
	if err := c.call(ctx, methodSwitchAgent, params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// List returns all sessions known to the host.
func (c *Client) List(ctx context.Context) ([]*session.Info, error) {
	var result struct {
		Sessions []*session.Info `json:"sessions"`
	}
	if err := c.call(ctx, methodList, nil, &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// Ensure Client satisfies the host-facing ports.
var (
	_ ports.Host        = (*Client)(nil)
	_ ports.EventSource = (*Client)(nil)
)
