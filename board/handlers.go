package board

import (
	"time"

	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/types"
)

// envelopeHandler applies one inbound relay envelope to local state. The
// machine lock is already held.
type envelopeHandler func(m *Machine, envelope *types.Envelope)

// envelopeHandlers is the reducer dispatch table, one entry per envelope
// key. Keys without an entry are ignored so unknown features degrade
// silently.
var envelopeHandlers = map[string]envelopeHandler{
	types.KeySound:        (*Machine).applySound,
	types.KeyYouTube:      (*Machine).applyYouTube,
	types.KeyEmoji:        (*Machine).applyEmoji,
	types.KeyChat:         (*Machine).applyChat,
	types.KeyPoem:         (*Machine).applyChat,
	types.KeyChatPin:      (*Machine).applyChatPin,
	types.KeyGif:          (*Machine).applyGif,
	types.KeyImage:        (*Machine).applyImage,
	types.KeyTowerDefense: (*Machine).applyTowerDefense,
	types.KeyBackground:   (*Machine).applyBackground,
	types.KeyMessages:     (*Machine).applyMessages,
	types.KeyWhiteboard:   (*Machine).applyWhiteboard,
	types.KeyAnimation:    (*Machine).applyAnimation,
	types.KeyIsTyping:     (*Machine).applyIsTyping,
	types.KeyUsername:     (*Machine).applyUsername,
	types.KeyAvatar:       (*Machine).applyAvatar,
	types.KeyCurrentRoom:  (*Machine).applyCurrentRoom,
	types.KeyWeather:      (*Machine).applyWeather,
	types.KeyMap:          (*Machine).applyMap,
	types.KeySettingsURL:  (*Machine).applySettingsURL,
	types.KeyPinItem:      (*Machine).applyPinItem,
	types.KeyUnpinItem:    (*Machine).applyUnpinItem,
	types.KeyMoveItem:     (*Machine).applyMoveItem,
	types.KeySendEmail:    (*Machine).applySendEmail,
}

func (m *Machine) applyEnvelope(envelope *types.Envelope) {
	handler, ok := envelopeHandlers[envelope.Key]
	if !ok {
		globals.AppLogger.Debug("ignoring unknown envelope key", "key", envelope.Key)
		return
	}
	handler(m, envelope)
}

// senderId is the connection id the broker attached to the envelope.
func (m *Machine) senderId(envelope *types.Envelope) string {
	return envelope.StringField("id")
}

func (m *Machine) applySound(envelope *types.Envelope) {
	soundType := envelope.StringValue()
	m.setProfile(m.senderId(envelope), func(p *types.UserProfile) {
		p.SoundType = soundType
	})
	x, y := m.placer.randomXY(false)
	m.state.MusicNotes = append(m.state.MusicNotes, types.MusicNote{
		Top:       y,
		Left:      x,
		Key:       m.keyFunc(),
		ExpiresAt: m.clock().Add(noteTimeout),
	})
}

func (m *Machine) applyYouTube(envelope *types.Envelope) {
	m.state.VideoId = envelope.StringValue()
	metadata := types.MusicMetadata{}
	if err := envelope.DecodeField("metadata", &metadata); err == nil && metadata.Url != "" {
		m.setProfile(m.senderId(envelope), func(p *types.UserProfile) {
			p.MusicMetadata = &metadata
		})
	}
}

func (m *Machine) applyEmoji(envelope *types.Envelope) {
	dict := types.EmojiDict{}
	if err := envelope.DecodeValue(&dict); err != nil {
		globals.AppLogger.Debug("could not decode emoji dict", "error", err)
		return
	}
	timeout := emojiTimeout
	if dict.Speed > 0 {
		timeout = time.Duration(dict.Speed) * time.Millisecond
	}
	x, y := m.placer.randomXY(false)
	m.state.Emojis = append(m.state.Emojis, types.Emoji{
		Top:       y,
		Left:      x,
		Key:       m.keyFunc(),
		Dict:      dict,
		ExpiresAt: m.clock().Add(timeout),
	})
}

func (m *Machine) applyChat(envelope *types.Envelope) {
	text := envelope.StringValue()
	if text == "" {
		return
	}
	senderId := m.senderId(envelope)
	x, y := m.placer.randomXY(true)
	m.state.ChatMessages = append(m.state.ChatMessages, types.ChatMessage{
		Top:        y,
		Left:       x,
		Key:        m.keyFunc(),
		Value:      text,
		IsCentered: true,
		ExpiresAt:  m.clock().Add(chatTimeout),
	})
	m.appendWaterfall(senderId, text)
	m.state.AvatarMessages[senderId] = append(m.state.AvatarMessages[senderId], text)
}

func (m *Machine) appendWaterfall(senderId, text string) {
	avatar := m.profile(senderId).Avatar
	m.state.Waterfall.Messages = append(m.state.Waterfall.Messages, types.WaterfallMessage{
		Avatar:  avatar,
		Message: text,
	})
}

func (m *Machine) applyChatPin(envelope *types.Envelope) {
	item := types.PinnedItem{}
	if err := envelope.DecodeField("item", &item); err != nil {
		globals.AppLogger.Debug("could not decode pinned chat", "error", err)
		return
	}
	item.Type = types.PinTypeChat
	item.IsPinned = true
	item.Top, item.Left = m.viewport.Denormalize(item.Top, item.Left)
	m.state.PinnedText[item.StoreKey()] = item
}

func (m *Machine) applyGif(envelope *types.Envelope) {
	data, _ := envelope.Fields["gif"].(map[string]interface{})
	if data == nil {
		globals.AppLogger.Debug("gif envelope without gif field")
		return
	}
	x, y := m.placer.randomGifXY()
	m.state.Gifs = append(m.state.Gifs, types.BoardGif{
		Top:       y,
		Left:      x,
		Key:       gifKey(data),
		Data:      data,
		ExpiresAt: m.clock().Add(gifTimeout),
	})
}

func (m *Machine) applyImage(envelope *types.Envelope) {
	url := envelope.StringValue()
	if url == "" {
		return
	}
	x, y := m.placer.randomXY(true)
	m.state.Images = append(m.state.Images, types.BoardImage{
		Top:       y,
		Left:      x,
		Key:       m.keyFunc(),
		Url:       url,
		ExpiresAt: m.clock().Add(imageTimeout),
	})
}

func (m *Machine) applyBackground(envelope *types.Envelope) {
	background := types.BackgroundState{SubType: types.SubTypeImage, Name: envelope.StringValue()}
	if envelope.StringField("subType") == types.SubTypeMap {
		mapData := types.MapData{}
		if err := envelope.DecodeField("mapData", &mapData); err == nil {
			background = types.BackgroundState{SubType: types.SubTypeMap, MapData: &mapData}
		}
	}
	m.state.Background = background
}

func (m *Machine) applyMessages(envelope *types.Envelope) {
	messages := []types.WaterfallMessage{}
	if err := envelope.DecodeValue(&messages); err != nil {
		globals.AppLogger.Debug("could not decode waterfall replay", "error", err)
		return
	}
	m.state.Waterfall.Messages = messages
}

func (m *Machine) applyWhiteboard(envelope *types.Envelope) {
	stroke := types.WhiteboardStroke{}
	if err := envelope.DecodeValue(&stroke); err != nil {
		globals.AppLogger.Debug("could not decode whiteboard stroke", "error", err)
		return
	}
	m.state.Whiteboard = append(m.state.Whiteboard, stroke)
}

func (m *Machine) applyAnimation(envelope *types.Envelope) {
	animation := types.Animation{}
	if err := envelope.DecodeValue(&animation); err != nil {
		globals.AppLogger.Debug("could not decode animation", "error", err)
		return
	}
	animation.ExpiresAt = m.clock().Add(animTimeout)
	m.state.Animations = append(m.state.Animations, animation)
}

func (m *Machine) applyIsTyping(envelope *types.Envelope) {
	isTyping, _ := envelope.Value.(bool)
	m.setProfile(m.senderId(envelope), func(p *types.UserProfile) {
		p.IsTyping = isTyping
	})
}

func (m *Machine) applyUsername(envelope *types.Envelope) {
	name := envelope.StringValue()
	m.setProfile(m.senderId(envelope), func(p *types.UserProfile) {
		p.Name = name
	})
}

func (m *Machine) applyAvatar(envelope *types.Envelope) {
	avatar := envelope.StringValue()
	m.setProfile(m.senderId(envelope), func(p *types.UserProfile) {
		p.Avatar = avatar
	})
}

func (m *Machine) applyCurrentRoom(envelope *types.Envelope) {
	room := envelope.StringValue()
	m.setProfile(m.senderId(envelope), func(p *types.UserProfile) {
		p.CurrentRoom = room
	})
}

func (m *Machine) applyWeather(envelope *types.Envelope) {
	weather := types.Weather{}
	if err := envelope.DecodeValue(&weather); err != nil {
		globals.AppLogger.Debug("could not decode weather", "error", err)
		return
	}
	m.setProfile(m.senderId(envelope), func(p *types.UserProfile) {
		p.Weather = &weather
	})
}

func (m *Machine) applyMap(envelope *types.Envelope) {
	mapData := types.MapData{}
	if err := envelope.DecodeValue(&mapData); err != nil {
		globals.AppLogger.Debug("could not decode map data", "error", err)
		return
	}
	m.state.Background.SubType = types.SubTypeMap
	m.state.Background.MapData = &mapData
}

func (m *Machine) applySettingsURL(envelope *types.Envelope) {
	m.state.SettingsURL = envelope.StringValue()
}

func (m *Machine) applySendEmail(envelope *types.Envelope) {
	email := envelope.StringValue()
	m.setProfile(m.senderId(envelope), func(p *types.UserProfile) {
		p.Email = email
	})
}

// applyPinItem marks the referenced local item pinned so it survives its
// display timeout on every peer, not only on the pinning one.
func (m *Machine) applyPinItem(envelope *types.Envelope) {
	item := types.PinnedItem{}
	if err := envelope.DecodeField("item", &item); err != nil {
		globals.AppLogger.Debug("could not decode pin item", "error", err)
		return
	}
	docKey := item.StoreKey()
	switch item.Type {
	case types.PinTypeGif:
		for i := range m.state.Gifs {
			if m.state.Gifs[i].Key == item.Key {
				m.state.Gifs[i].IsPinned = true
				return
			}
		}
	case types.PinTypeImage:
		for i := range m.state.Images {
			if m.state.Images[i].Key == item.Key {
				m.state.Images[i].IsPinned = true
				return
			}
		}
	case types.PinTypeNFT:
		for i := range m.state.NFTs {
			if m.state.NFTs[i].Key == item.Key || (item.Order != nil && m.state.NFTs[i].Order.Id == item.Order.Id) {
				m.state.NFTs[i].IsPinned = true
				return
			}
		}
	case types.PinTypeText, types.PinTypeChat:
		item.IsPinned = true
		item.Top, item.Left = m.viewport.Denormalize(item.Top, item.Left)
		m.state.PinnedText[docKey] = item
	case types.PinTypeBackground:
		m.state.Background.IsPinned = true
	}
}

func (m *Machine) applyUnpinItem(envelope *types.Envelope) {
	docKey := envelope.StringValue()
	if docKey == "" {
		return
	}
	if docKey == types.BackgroundKey {
		m.state.Background.IsPinned = false
		return
	}
	delete(m.state.PinnedText, docKey)
	for i := range m.state.Gifs {
		if m.state.Gifs[i].Key == docKey {
			m.state.Gifs[i].IsPinned = false
		}
	}
	for i := range m.state.Images {
		if m.state.Images[i].Key == docKey {
			m.state.Images[i].IsPinned = false
		}
	}
	for i := range m.state.NFTs {
		if m.state.NFTs[i].Key == docKey || m.state.NFTs[i].Order.Id == docKey {
			m.state.NFTs[i].IsPinned = false
		}
	}
}

func (m *Machine) applyMoveItem(envelope *types.Envelope) {
	item := types.PinnedItem{}
	if err := envelope.DecodeField("item", &item); err != nil {
		globals.AppLogger.Debug("could not decode move item", "error", err)
		return
	}
	docKey := item.StoreKey()
	top, left := m.viewport.Denormalize(item.Top, item.Left)
	if pinned, ok := m.state.PinnedText[docKey]; ok {
		pinned.Top, pinned.Left = top, left
		m.state.PinnedText[docKey] = pinned
		return
	}
	for i := range m.state.Gifs {
		if m.state.Gifs[i].Key == docKey {
			m.state.Gifs[i].Top, m.state.Gifs[i].Left = top, left
			return
		}
	}
	for i := range m.state.Images {
		if m.state.Images[i].Key == docKey {
			m.state.Images[i].Top, m.state.Images[i].Left = top, left
			return
		}
	}
	for i := range m.state.NFTs {
		if m.state.NFTs[i].Key == docKey || m.state.NFTs[i].Order.Id == docKey {
			m.state.NFTs[i].Top, m.state.NFTs[i].Left = top, left
			return
		}
	}
}

// tdHandlers dispatches the tower-defense sub-commands carried in the value
// of a tower-defense envelope.
var tdHandlers = map[string]envelopeHandler{
	types.TDCommandStart:       (*Machine).applyTDStart,
	types.TDCommandEnd:         (*Machine).applyTDEnd,
	types.TDCommandSpawnEnemy:  (*Machine).applyTDSpawnEnemy,
	types.TDCommandSelectTower: (*Machine).applyTDSelectTower,
	types.TDCommandAddTower:    (*Machine).applyTDAddTower,
	types.TDCommandFireTowers:  (*Machine).applyTDFireTowers,
	types.TDCommandHitUnit:     (*Machine).applyTDHitUnit,
}

func (m *Machine) applyTowerDefense(envelope *types.Envelope) {
	handler, ok := tdHandlers[envelope.StringValue()]
	if !ok {
		globals.AppLogger.Debug("ignoring unknown tower-defense command", "command", envelope.Value)
		return
	}
	handler(m, envelope)
}

func (m *Machine) applyTDStart(envelope *types.Envelope) {
	m.td.Start()
	m.startGameAnimations()
}

// startGameAnimations triggers the two-phase start banner: the start-game
// splash followed by the info banner.
func (m *Machine) startGameAnimations() {
	now := m.clock()
	m.state.Animations = append(m.state.Animations,
		types.Animation{Type: types.AnimationStartGame, ExpiresAt: now.Add(animTimeout)},
		types.Animation{Type: types.AnimationInfo, Text: "Defend the board!", ExpiresAt: now.Add(2 * animTimeout)},
	)
}

func (m *Machine) applyTDEnd(envelope *types.Envelope) {
	m.td.End()
	m.waves.Stop()
	m.state.PendingTowers = make(map[string]types.Tower)
	m.state.Animations = append(m.state.Animations, types.Animation{
		Type:      types.AnimationEndGame,
		ExpiresAt: m.clock().Add(animTimeout),
	})
}

func (m *Machine) applyTDSpawnEnemy(envelope *types.Envelope) {
	unit := types.Unit{}
	if err := envelope.DecodeField("enemy", &unit); err != nil {
		globals.AppLogger.Debug("could not decode enemy", "error", err)
		return
	}
	unit.Top, unit.Left = m.viewport.Denormalize(unit.Top, unit.Left)
	m.td.AddUnit(unit)
}

// applyTDSelectTower records a peer's pending tower for presence rendering.
// Tower selection is cursor-bound and local, it never arms placement on a
// receiving machine.
func (m *Machine) applyTDSelectTower(envelope *types.Envelope) {
	sender := m.senderId(envelope)
	if sender == "" || sender == m.connectionId {
		return
	}
	tower := types.Tower{}
	if err := envelope.DecodeField("tower", &tower); err != nil {
		globals.AppLogger.Debug("could not decode tower selection", "error", err)
		return
	}
	if pending, ok := m.state.PendingTowers[sender]; ok && pending.Type == tower.Type {
		// selecting the same type again cancels the selection
		delete(m.state.PendingTowers, sender)
		return
	}
	m.state.PendingTowers[sender] = tower
}

func (m *Machine) applyTDAddTower(envelope *types.Envelope) {
	tower := types.Tower{}
	if err := envelope.DecodeField("tower", &tower); err != nil {
		globals.AppLogger.Debug("could not decode tower", "error", err)
		return
	}
	// the placement consumes the sender's pending selection
	delete(m.state.PendingTowers, m.senderId(envelope))
	m.td.AddTower(tower)
}

func (m *Machine) applyTDFireTowers(envelope *types.Envelope) {
	towerTypes := []string{}
	if err := envelope.DecodeField("towerTypes", &towerTypes); err != nil {
		globals.AppLogger.Debug("could not decode fire command", "error", err)
		return
	}
	m.td.FireTowers(towerTypes)
}

func (m *Machine) applyTDHitUnit(envelope *types.Envelope) {
	m.td.HitUnit(envelope.StringField("towerKey"), envelope.StringField("unitKey"))
}
