package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/types"
)

// Session is one realtime room connection. It implements the emitter side of
// a board machine and pumps inbound wire messages into it.
type Session struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	done    chan struct{}
}

// Dial opens the websocket of a room. serverURL is the http(s) base url of
// the server, credentials may be zero for guest access.
func Dial(serverURL, roomId string, credentials Credentials) (*Session, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/board/" + roomId
	if credentials.Address != "" {
		q := u.Query()
		q.Set("address", credentials.Address)
		q.Set("signature", credentials.Signature)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", u.String(), err)
	}
	return &Session{conn: conn, done: make(chan struct{})}, nil
}

// WireHandler consumes inbound wire messages; a board machine's HandleWire
// satisfies it.
type WireHandler interface {
	HandleWire(msg *types.WebsocketMessage) error
}

// Run pumps inbound messages into the handler until the connection closes.
func (s *Session) Run(handler WireHandler) error {
	defer close(s.done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return err
			}
			return nil
		}
		msg := types.WebsocketMessage{}
		if err := json.Unmarshal(data, &msg); err != nil {
			globals.AppLogger.Warn("could not decode wire message", "error", err)
			continue
		}
		if err := handler.HandleWire(&msg); err != nil {
			globals.AppLogger.Warn("could not handle wire message", "event", msg.Event, "error", err)
		}
	}
}

// Done is closed once the read pump ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) write(event string, payload interface{}) error {
	msg, err := types.NewWebsocketMessage(event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// EmitEnvelope sends a relay envelope to the room.
func (s *Session) EmitEnvelope(envelope *types.Envelope) error {
	return s.write(types.WireEventRelay, envelope)
}

// EmitCursor sends a throttled cursor position as viewport fractions.
func (s *Session) EmitCursor(x, y float64) error {
	return s.write(types.WireEventCursorMove, types.CursorMessage{X: x, Y: y})
}

// Close sends a clean close frame and tears the connection down.
func (s *Session) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()
	return s.conn.Close()
}
