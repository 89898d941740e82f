package types

import "encoding/json"

const (
	// WireEventConnect is sent by the server right after a successful join,
	// carrying the connection id and the room id.
	WireEventConnect = "connect"

	// WireEventRelay carries a relay Envelope in both directions.
	WireEventRelay = "event"

	// WireEventCursorMove carries throttled cursor positions.
	WireEventCursorMove = "cursor move"

	// WireEventRoommateDisconnect tells peers to prune the presence state of
	// a departed connection.
	WireEventRoommateDisconnect = "roommate disconnect"
)

// JSON-serialized WebsocketMessage is what is actually sent via the Websocket connection
type WebsocketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ConnectMessage is the payload of a WireEventConnect message.
type ConnectMessage struct {
	ConnectionId string `json:"id"`
	RoomId       string `json:"roomId"`
}

// CursorMessage is the payload of a WireEventCursorMove message. Coordinates
// are viewport fractions so every peer can place the cursor on its own screen.
type CursorMessage struct {
	ConnectionId string  `json:"id" mapstructure:"id"`
	X            float64 `json:"x" mapstructure:"x"`
	Y            float64 `json:"y" mapstructure:"y"`
}

// DisconnectMessage is the payload of a WireEventRoommateDisconnect message.
type DisconnectMessage struct {
	ConnectionId string `json:"id"`
}

func NewWebsocketMessage(event string, payload interface{}) (*WebsocketMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &WebsocketMessage{Event: event, Data: data}, nil
}
