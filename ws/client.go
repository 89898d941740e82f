package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/folkengine/goname"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/types"
)

const sendChannelSize = 1000

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// Connection id, the presence key of this connection.
	Id string

	// per-connection presence state, mutated field-by-field by relay events
	profile types.UserProfile
	cursor  types.CursorMessage
	mu      sync.RWMutex

	doneChan chan struct{}

	// WaitGroup which keeps track of running read/write loops and write
	// access to Send. If the WaitGroup is done, it is safe to close all
	// channels (all loops are done and there are no more write operations on
	// the channels)
	sync.WaitGroup
}

func NewClient(hub *Hub, conn *websocket.Conn, wallet string, doneChan chan struct{}) *Client {
	name := wallet
	if name == "" {
		name = goname.New(goname.FantasyMap).FirstLast() + " (guest)"
	}
	return &Client{
		hub:  hub,
		conn: conn,
		Send: make(chan []byte, sendChannelSize),
		Id:   uuid.New().String(),
		profile: types.UserProfile{
			Name:        name,
			CurrentRoom: hub.RoomId,
		},
		doneChan: doneChan,
	}
}

func (c *Client) Profile() types.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

func (c *Client) updateProfile(update func(profile *types.UserProfile)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	update(&c.profile)
}

// Cursor returns the last cursor position received on this connection. The
// second return is false until the first cursor move.
func (c *Client) Cursor() (types.CursorMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor, c.cursor.ConnectionId != ""
}

// SendConnect tells the client its connection id and the room it landed in.
// It is called from the hub's register path, after the client became a room
// member.
func (c *Client) SendConnect() {
	c.sendWire(types.WireEventConnect, types.ConnectMessage{
		ConnectionId: c.Id,
		RoomId:       c.hub.RoomId,
	})
}

// SendWaterfall replays the room transcript to a late joiner.
func (c *Client) SendWaterfall() {
	wf := c.hub.Waterfall()
	if len(wf.Messages) == 0 {
		return
	}
	c.sendWire(types.WireEventRelay, types.NewEnvelope(types.KeyMessages, wf.Messages))
}

// SendPresence replays the current presence of the room to a late joiner:
// every peer's profile and its last cursor position. Profiles arrive as the
// same relay envelopes the peers originally sent, so the receiving state
// machine needs no extra wire event.
func (c *Client) SendPresence() {
	for id, profile := range c.hub.Presence() {
		if id == c.Id {
			continue
		}
		envelopes := []*types.Envelope{
			types.NewEnvelope(types.KeyUsername, profile.Name).WithField("id", id),
		}
		if profile.Avatar != "" {
			envelopes = append(envelopes, types.NewEnvelope(types.KeyAvatar, profile.Avatar).WithField("id", id))
		}
		if profile.CurrentRoom != "" {
			envelopes = append(envelopes, types.NewEnvelope(types.KeyCurrentRoom, profile.CurrentRoom).WithField("id", id))
		}
		for _, envelope := range envelopes {
			c.sendWire(types.WireEventRelay, envelope)
		}
	}
	for _, cursor := range c.hub.Cursors() {
		if cursor.ConnectionId == c.Id {
			continue
		}
		c.sendWire(types.WireEventCursorMove, cursor)
	}
}

func (c *Client) sendWire(event string, payload interface{}) {
	msg, err := types.NewWebsocketMessage(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal wire message", "event", event, "error", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		globals.AppLogger.Error("could not marshal wire message", "event", event, "error", err)
		return
	}
	c.Send <- data
}

// ReadLoop pumps messages from the websocket connection to the hub.
//
// The application runs ReadLoop in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadLoop() {
	defer func() {
		c.conn.Close()
		close(c.doneChan)
		c.Done()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				globals.AppLogger.Debug("ws closed unexpected", "error", err)
			}
			return
		}

		message := types.WebsocketMessage{}
		err = json.Unmarshal(raw, &message)
		if err != nil {
			globals.AppLogger.Warn("could not unmarshal ws message", "error", err)
			return
		}

		switch message.Event {
		case types.WireEventRelay:
			envelope := &types.Envelope{}
			if err := json.Unmarshal(message.Data, envelope); err != nil {
				globals.AppLogger.Warn("could not unmarshal envelope", "error", err)
				continue
			}
			c.hub.handleEnvelope(c, envelope)

		case types.WireEventCursorMove:
			cursor := types.CursorMessage{}
			if err := json.Unmarshal(message.Data, &cursor); err != nil {
				globals.AppLogger.Warn("could not unmarshal cursor message", "error", err)
				continue
			}
			cursor.ConnectionId = c.Id
			c.mu.Lock()
			c.cursor = cursor
			c.mu.Unlock()
			msg, err := types.NewWebsocketMessage(types.WireEventCursorMove, cursor)
			if err != nil {
				continue
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			c.hub.Broadcast <- broadcastMessage{data: data, sender: c}
		}
	}
}

// WriteLoop pumps messages from the hub to the websocket connection.
//
// A goroutine running WriteLoop is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.Done()
	}()
	for {
		select {
		case <-c.doneChan:
			return
		default:
		}
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.doneChan:
			return
		}
	}
}
