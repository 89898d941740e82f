package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/tcriess/lightspeed-board/config"
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/types"
)

const (
	maxMessageSize       = 65536
	pongWait             = 2 * time.Minute
	pingPeriod           = time.Minute
	writeWait            = 10 * time.Second
	broadcastChannelSize = 1000
	defaultWaterfallSize = 50
)

// broadcastMessage is one outbound fan-out: the raw frame, the sender (which
// is excluded from delivery) and, for relay envelopes, the envelope itself so
// target filters can be evaluated per receiving client.
type broadcastMessage struct {
	data     []byte
	sender   *Client
	envelope *types.Envelope
}

type Hub struct {
	// there is one hub per room
	RoomId string

	// Registered clients.
	clients map[*Client]struct{}

	// Broadcast messages to the room.
	Broadcast chan broadcastMessage

	// Register a new client to the hub.
	Register chan *Client

	// Unregister a client from the hub.
	Unregister chan *Client

	// the per-room transcript mirrored to late joiners
	waterfall     types.WaterfallChat
	waterfallSize int

	// global configuration
	Cfg *config.Config

	// mutex for manipulating the clients and the waterfall
	sync.RWMutex
}

func NewHub(roomId string, cfg *config.Config) *Hub {
	waterfallSize := defaultWaterfallSize
	if cfg != nil && cfg.HistoryConfig.WaterfallSize > 0 {
		waterfallSize = cfg.HistoryConfig.WaterfallSize
	}
	return &Hub{
		RoomId:        roomId,
		clients:       make(map[*Client]struct{}),
		Broadcast:     make(chan broadcastMessage, broadcastChannelSize),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		waterfallSize: waterfallSize,
		Cfg:           cfg,
	}
}

// NoClients returns the number of clients registered
func (h *Hub) NoClients() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}

// Presence returns the current profiles of all connections in the room.
func (h *Hub) Presence() map[string]types.UserProfile {
	h.RLock()
	defer h.RUnlock()
	profiles := make(map[string]types.UserProfile, len(h.clients))
	for client := range h.clients {
		profiles[client.Id] = client.Profile()
	}
	return profiles
}

// Cursors returns the last known cursor position of every connection that
// has moved its cursor at least once.
func (h *Hub) Cursors() []types.CursorMessage {
	h.RLock()
	defer h.RUnlock()
	cursors := make([]types.CursorMessage, 0, len(h.clients))
	for client := range h.clients {
		if cursor, ok := client.Cursor(); ok {
			cursors = append(cursors, cursor)
		}
	}
	return cursors
}

// Waterfall returns a copy of the room transcript.
func (h *Hub) Waterfall() types.WaterfallChat {
	h.RLock()
	defer h.RUnlock()
	wf := h.waterfall
	wf.Messages = append([]types.WaterfallMessage(nil), h.waterfall.Messages...)
	return wf
}

func (h *Hub) appendWaterfall(msg types.WaterfallMessage) {
	h.Lock()
	defer h.Unlock()
	h.waterfall.Messages = append(h.waterfall.Messages, msg)
	if overflow := len(h.waterfall.Messages) - h.waterfallSize; overflow > 0 {
		h.waterfall.Messages = h.waterfall.Messages[overflow:]
	}
}

// Run is the main hub event loop handling register, unregister and broadcast events.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			globals.AppLogger.Debug("register new client", "room", h.RoomId, "id", client.Id)
			h.Lock()
			h.clients[client] = struct{}{}
			h.Unlock()
			// the joiner is a room member now, replay what it missed
			client.SendConnect()
			client.SendWaterfall()
			client.SendPresence()

		case client := <-h.Unregister:
			h.RLock()
			_, ok := h.clients[client]
			h.RUnlock()
			if !ok {
				continue
			}
			globals.AppLogger.Debug("unregister client", "room", h.RoomId, "id", client.Id)
			h.Lock()
			delete(h.clients, client)
			client.conn.Close()
			// wait for all loops and write operations to be finished, then it
			// is safe to close the send channel
			client.Wait()
			close(client.Send)
			h.Unlock()
			// peers prune the presence state of the departed connection
			h.sendDisconnect(client.Id)

		case message := <-h.Broadcast:
			go h.fanOut(message)
		}
	}
}

func (h *Hub) fanOut(message broadcastMessage) {
	var wg sync.WaitGroup
	h.RLock()
	for client := range h.clients {
		if client == message.sender {
			continue
		}
		if message.envelope != nil && !h.RunFilterEnvelope(message.envelope, message.sender, client) {
			continue
		}
		wg.Add(1)
		client.Add(1)
		go func(c *Client) {
			defer wg.Done()
			defer c.Done()
			c.Send <- message.data
		}(client)
	}
	wg.Wait()
	h.RUnlock()
}

func (h *Hub) sendDisconnect(connectionId string) {
	msg, err := types.NewWebsocketMessage(types.WireEventRoommateDisconnect, types.DisconnectMessage{ConnectionId: connectionId})
	if err != nil {
		globals.AppLogger.Error("could not marshal disconnect message", "error", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		globals.AppLogger.Error("could not marshal disconnect message", "error", err)
		return
	}
	h.Broadcast <- broadcastMessage{data: data}
}

// RelayEnvelope fans a relay envelope out to every other room member.
func (h *Hub) RelayEnvelope(sender *Client, envelope *types.Envelope) {
	msg, err := types.NewWebsocketMessage(types.WireEventRelay, envelope)
	if err != nil {
		globals.AppLogger.Error("could not marshal envelope", "error", err, "key", envelope.Key)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		globals.AppLogger.Error("could not marshal envelope", "error", err, "key", envelope.Key)
		return
	}
	h.Broadcast <- broadcastMessage{data: data, sender: sender, envelope: envelope}
}
