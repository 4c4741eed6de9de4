package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wcnotify/internal/domain"
)

// Relay RPC method names. The dialect is part of the deployed relay's
// contract; this client round-trips it faithfully.
const (
	rpcPublish     = "relay_publish"
	rpcSubscribe   = "relay_subscribe"
	rpcUnsubscribe = "relay_unsubscribe"
	rpcMessage     = "relay_message"
)

const writeTimeout = 10 * time.Second

type rpcFrame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type publishParams struct {
	Topic   string `json:"topic"`
	Message string `json:"message"` // base64 envelope bytes
	TTL     int64  `json:"ttl"`
	Tag     int    `json:"tag"`
	Prompt  bool   `json:"prompt"`
}

type subscribeParams struct {
	Topic string `json:"topic"`
}

type messageParams struct {
	Topic       string `json:"topic"`
	Message     string `json:"message"`
	PublishedAt int64  `json:"publishedAt"`
}

// WebSocket is a relay client over a single WebSocket connection.
type WebSocket struct {
	conn   *websocket.Conn
	logger zerolog.Logger

	writeMu sync.Mutex // gorilla allows one concurrent writer
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan *rpcFrame
	handler func(domain.RelayEvent)
	closed  chan struct{}
}

// Dial connects to the relay and starts the read loop.
func Dial(ctx context.Context, url string, logger zerolog.Logger) (*WebSocket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrRelayFailure, url, err)
	}
	ws := &WebSocket{
		conn:    conn,
		logger:  logger.With().Str("component", "relay_ws").Logger(),
		pending: make(map[uint64]chan *rpcFrame),
		closed:  make(chan struct{}),
	}
	go ws.readLoop()
	return ws, nil
}

// Close tears the connection down. In-flight calls fail with ErrRelayFailure.
func (ws *WebSocket) Close() error {
	err := ws.conn.Close()
	return err
}

func (ws *WebSocket) Publish(ctx context.Context, topic domain.Topic, payload []byte, opts domain.PublishOptions) error {
	params := publishParams{
		Topic:   topic.String(),
		Message: base64.StdEncoding.EncodeToString(payload),
		TTL:     int64(opts.TTL / time.Second),
		Tag:     opts.Tag,
		Prompt:  opts.Prompt,
	}
	return ws.call(ctx, rpcPublish, params)
}

func (ws *WebSocket) Subscribe(ctx context.Context, topic domain.Topic) error {
	return ws.call(ctx, rpcSubscribe, subscribeParams{Topic: topic.String()})
}

func (ws *WebSocket) Unsubscribe(ctx context.Context, topic domain.Topic) error {
	return ws.call(ctx, rpcUnsubscribe, subscribeParams{Topic: topic.String()})
}

func (ws *WebSocket) RegisterHandler(fn func(domain.RelayEvent)) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.handler = fn
}

// call sends one request and waits for its response or ctx cancellation.
func (ws *WebSocket) call(ctx context.Context, method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRelayFailure, err)
	}
	id := ws.nextID.Add(1)
	frame := rpcFrame{JSONRPC: domain.JSONRPCVersion, ID: id, Method: method, Params: raw}

	wait := make(chan *rpcFrame, 1)
	ws.mu.Lock()
	ws.pending[id] = wait
	ws.mu.Unlock()
	defer func() {
		ws.mu.Lock()
		delete(ws.pending, id)
		ws.mu.Unlock()
	}()

	if err := ws.writeFrame(&frame); err != nil {
		return err
	}

	select {
	case resp := <-wait:
		if resp.Error != nil {
			return fmt.Errorf("%w: %s: %s", domain.ErrRelayFailure, method, resp.Error.Message)
		}
		return nil
	case <-ws.closed:
		return fmt.Errorf("%w: connection closed", domain.ErrRelayFailure)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrRelayFailure, ctx.Err())
	}
}

func (ws *WebSocket) writeFrame(frame *rpcFrame) error {
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	ws.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := ws.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRelayFailure, err)
	}
	return nil
}

func (ws *WebSocket) readLoop() {
	defer close(ws.closed)
	for {
		var frame rpcFrame
		if err := ws.conn.ReadJSON(&frame); err != nil {
			ws.logger.Debug().Err(err).Msg("read loop ended")
			return
		}
		switch {
		case frame.Method == rpcMessage:
			ws.dispatchMessage(&frame)
		case frame.Method == "":
			ws.mu.Lock()
			wait, ok := ws.pending[frame.ID]
			ws.mu.Unlock()
			if ok {
				wait <- &frame
			}
		default:
			ws.logger.Debug().Str("method", frame.Method).Msg("ignoring unknown relay method")
		}
	}
}

func (ws *WebSocket) dispatchMessage(frame *rpcFrame) {
	var params messageParams
	if err := json.Unmarshal(frame.Params, &params); err != nil {
		ws.logger.Warn().Err(err).Msg("bad relay message params")
		return
	}
	payload, err := base64.StdEncoding.DecodeString(params.Message)
	if err != nil {
		ws.logger.Warn().Err(err).Msg("bad relay message encoding")
		return
	}
	ws.mu.Lock()
	handler := ws.handler
	ws.mu.Unlock()
	if handler != nil {
		handler(domain.RelayEvent{
			Topic:       domain.Topic(params.Topic),
			Payload:     payload,
			PublishedAt: params.PublishedAt,
		})
	}
}

// Compile-time assertion that WebSocket implements domain.Relay.
var _ domain.Relay = (*WebSocket)(nil)
