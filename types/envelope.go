package types

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"
)

// Envelope discriminator keys. Every realtime feature shares the same
// envelope shape, distinguished only by its key. Unknown keys must be
// ignored by receivers so that adding a key stays an additive change.
const (
	KeySound           = "sound"
	KeyYouTube         = "youtube"
	KeyEmoji           = "emoji"
	KeyChat            = "chat"
	KeyChatPin         = "chat-pin"
	KeyGif             = "gif"
	KeyImage           = "image"
	KeyTowerDefense    = "tower defense"
	KeyBackground      = "background"
	KeyMessages        = "messages"
	KeyWhiteboard      = "whiteboard"
	KeyAnimation       = "animation"
	KeyIsTyping        = "isTyping"
	KeyUsername        = "username"
	KeyAvatar          = "avatar"
	KeyCurrentRoom     = "currentRoom"
	KeyWeather         = "weather"
	KeyMap             = "map"
	KeySettingsURL     = "settings-url"
	KeyPinItem         = "pin-item"
	KeyUnpinItem       = "unpin-item"
	KeyMoveItem        = "move-item"
	KeySendEmail       = "send-email"
	KeyPoem            = "poem"
)

// Envelope is the uniform relay message. "key" discriminates the feature,
// "value" is the free-form payload, any remaining fields ride along at the
// top level of the serialized object (f.e. "tower" on a tower-defense
// select, "targetFilter" for filtered delivery).
type Envelope struct {
	Key          string
	Value        interface{}
	TargetFilter string
	Fields       map[string]interface{}
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(e.Fields)+3)
	for k, v := range e.Fields {
		m[k] = v
	}
	m["key"] = e.Key
	if e.Value != nil {
		m["value"] = e.Value
	}
	if e.TargetFilter != "" {
		m["targetFilter"] = e.TargetFilter
	}
	return json.Marshal(m)
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	m := make(map[string]interface{})
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if key, ok := m["key"].(string); ok {
		e.Key = key
	}
	e.Value = m["value"]
	if tf, ok := m["targetFilter"].(string); ok {
		e.TargetFilter = tf
	}
	delete(m, "key")
	delete(m, "value")
	delete(m, "targetFilter")
	if len(m) > 0 {
		e.Fields = m
	} else {
		e.Fields = nil
	}
	return nil
}

// DecodeValue weakly decodes the free-form value payload into a typed struct.
func (e *Envelope) DecodeValue(out interface{}) error {
	return mapstructure.WeakDecode(e.Value, out)
}

// DecodeField weakly decodes one of the extra top-level fields.
func (e *Envelope) DecodeField(name string, out interface{}) error {
	if e.Fields == nil {
		return mapstructure.WeakDecode(nil, out)
	}
	return mapstructure.WeakDecode(e.Fields[name], out)
}

// StringValue returns the value payload if it is a plain string.
func (e *Envelope) StringValue() string {
	if s, ok := e.Value.(string); ok {
		return s
	}
	return ""
}

// StringField returns the named extra field if it is a plain string.
func (e *Envelope) StringField(name string) string {
	if e.Fields == nil {
		return ""
	}
	if s, ok := e.Fields[name].(string); ok {
		return s
	}
	return ""
}

func NewEnvelope(key string, value interface{}) *Envelope {
	return &Envelope{Key: key, Value: value}
}

// WithField returns the envelope with an extra top-level field attached.
func (e *Envelope) WithField(name string, value interface{}) *Envelope {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[name] = value
	return e
}
