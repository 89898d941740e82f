package ws

import (
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/types"
)

// EnvelopeHandler applies the server-side side effect of one relay
// discriminator before the envelope is fanned out.
type EnvelopeHandler func(h *Hub, c *Client, envelope *types.Envelope)

// The broker never interprets payloads beyond presence bookkeeping and the
// waterfall transcript: every envelope, handled or not, is rebroadcast to
// the sender's room peers. Keys without an entry here are pure relay, which
// keeps new discriminators an additive change.
var envelopeHandlers = map[string]EnvelopeHandler{
	types.KeyUsername: func(h *Hub, c *Client, envelope *types.Envelope) {
		c.updateProfile(func(profile *types.UserProfile) {
			profile.Name = envelope.StringValue()
		})
	},
	types.KeyAvatar: func(h *Hub, c *Client, envelope *types.Envelope) {
		c.updateProfile(func(profile *types.UserProfile) {
			profile.Avatar = envelope.StringValue()
		})
	},
	types.KeyCurrentRoom: func(h *Hub, c *Client, envelope *types.Envelope) {
		c.updateProfile(func(profile *types.UserProfile) {
			profile.CurrentRoom = envelope.StringValue()
		})
	},
	types.KeyIsTyping: func(h *Hub, c *Client, envelope *types.Envelope) {
		isTyping := false
		if b, ok := envelope.Value.(bool); ok {
			isTyping = b
		}
		c.updateProfile(func(profile *types.UserProfile) {
			profile.IsTyping = isTyping
		})
	},
	types.KeySound: func(h *Hub, c *Client, envelope *types.Envelope) {
		c.updateProfile(func(profile *types.UserProfile) {
			profile.SoundType = envelope.StringValue()
		})
	},
	types.KeyWeather: func(h *Hub, c *Client, envelope *types.Envelope) {
		weather := types.Weather{}
		if err := envelope.DecodeValue(&weather); err != nil {
			globals.AppLogger.Debug("could not decode weather", "error", err)
			return
		}
		c.updateProfile(func(profile *types.UserProfile) {
			profile.Weather = &weather
		})
	},
	types.KeyYouTube: func(h *Hub, c *Client, envelope *types.Envelope) {
		metadata := types.MusicMetadata{}
		if err := envelope.DecodeField("metadata", &metadata); err != nil {
			globals.AppLogger.Debug("could not decode music metadata", "error", err)
			return
		}
		c.updateProfile(func(profile *types.UserProfile) {
			profile.MusicMetadata = &metadata
		})
	},
	types.KeySendEmail: func(h *Hub, c *Client, envelope *types.Envelope) {
		c.updateProfile(func(profile *types.UserProfile) {
			profile.Email = envelope.StringValue()
		})
	},
	types.KeyChat: appendChatToWaterfall,
	types.KeyPoem: appendChatToWaterfall,
}

func appendChatToWaterfall(h *Hub, c *Client, envelope *types.Envelope) {
	message := envelope.StringValue()
	if message == "" {
		return
	}
	h.appendWaterfall(types.WaterfallMessage{
		Avatar:  c.Profile().Avatar,
		Message: message,
	})
}

// handleEnvelope runs the per-key side effect and rebroadcasts the envelope
// to the room. The sender's connection id is attached so peers can associate
// presence updates with a connection.
func (h *Hub) handleEnvelope(c *Client, envelope *types.Envelope) {
	if envelope.Key == "" {
		globals.AppLogger.Debug("dropping envelope without key")
		return
	}
	if handler, ok := envelopeHandlers[envelope.Key]; ok {
		handler(h, c, envelope)
	} else {
		globals.AppLogger.Debug("no handler for envelope key, relaying as-is", "key", envelope.Key)
	}
	if envelope.StringField("id") == "" {
		envelope.WithField("id", c.Id)
	}
	h.RelayEnvelope(c, envelope)
}
