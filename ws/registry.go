package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/tcriess/lightspeed-board/auth"
	"github.com/tcriess/lightspeed-board/config"
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Registry owns the per-room hubs for the process lifetime. It is created at
// server start and passed into every handler, there is no ambient singleton.
type Registry struct {
	cfg  *config.Config
	hubs map[string]*Hub
	mu   sync.RWMutex
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		cfg:  cfg,
		hubs: make(map[string]*Hub),
	}
}

// GetOrCreate returns the hub of a room, creating and starting it on first
// use. Hubs are never torn down, an empty room keeps its transcript.
func (r *Registry) GetOrCreate(roomId string) *Hub {
	r.mu.RLock()
	hub, ok := r.hubs[roomId]
	r.mu.RUnlock()
	if ok {
		return hub
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if hub, ok = r.hubs[roomId]; ok {
		return hub
	}
	hub = NewHub(roomId, r.cfg)
	r.hubs[roomId] = hub
	go hub.Run()
	return hub
}

// Handler upgrades an incoming connection and joins it to the room named in
// the route. Wallet credentials are optional, anonymous connections get a
// guest identity.
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		roomId := mux.Vars(req)["room"]
		if roomId == "" {
			roomId = types.DefaultRoomId
		}

		vals := req.URL.Query()
		wallet, err := auth.Authenticate(vals.Get("address"), vals.Get("signature"))
		if err != nil {
			globals.AppLogger.Debug("wallet authentication failed, joining as guest", "error", err)
			wallet = ""
		}

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			globals.AppLogger.Error("websocket upgrade error", "error", err)
			return
		}
		// When this frame returns close the Websocket
		defer conn.Close() //nolint

		hub := r.GetOrCreate(roomId)
		doneChan := make(chan struct{})
		client := NewClient(hub, conn, wallet, doneChan)

		// the hub sends the connect message and the transcript/presence
		// replay once the registration is processed
		hub.Register <- client

		client.Add(2)
		go client.WriteLoop()
		go client.ReadLoop()

		<-doneChan

		hub.Unregister <- client
	}
}
