package board

import (
	"encoding/json"
	"errors"

	"github.com/tcriess/lightspeed-board/towerdefense"
	"github.com/tcriess/lightspeed-board/types"
)

// relay applies a locally initiated envelope through the same reducer the
// remote envelopes go through, then broadcasts it. The broker does not echo
// messages back to the sender, so applying locally first is what keeps the
// initiating peer in sync.
func (m *Machine) relay(envelope *types.Envelope) {
	if m.senderId(envelope) == "" {
		envelope.WithField("id", m.connectionId)
	}
	m.applyEnvelope(envelope)
	m.emit(envelope)
}

func (m *Machine) SetName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyUsername, name))
}

func (m *Machine) SetAvatar(avatar string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyAvatar, avatar))
}

func (m *Machine) SetCurrentRoom(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyCurrentRoom, room))
}

func (m *Machine) SetIsTyping(isTyping bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyIsTyping, isTyping))
}

func (m *Machine) SetWeather(weather types.Weather) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyWeather, weather))
}

func (m *Machine) SetEmail(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeySendEmail, email))
}

func (m *Machine) PlaySound(soundType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeySound, soundType))
}

func (m *Machine) ShareVideo(videoId string, metadata *types.MusicMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	envelope := types.NewEnvelope(types.KeyYouTube, videoId)
	if metadata != nil {
		envelope.WithField("metadata", metadata)
	}
	m.relay(envelope)
}

func (m *Machine) SendEmoji(dict types.EmojiDict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyEmoji, dict))
}

func (m *Machine) SendChat(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyChat, text))
}

// SendPoem relays generated verse; it rides the chat reducer on every peer.
func (m *Machine) SendPoem(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyPoem, text))
}

func (m *Machine) SendGif(data map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyGif, nil).WithField("gif", data))
}

func (m *Machine) SendImage(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyImage, url))
}

func (m *Machine) AddStroke(stroke types.WhiteboardStroke) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyWhiteboard, stroke))
}

func (m *Machine) ShowAnimation(animation types.Animation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyAnimation, animation))
}

// SetBackground switches the room background to a catalog name or an
// external image url. The change is ephemeral until pinned.
func (m *Machine) SetBackground(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyBackground, name))
}

func (m *Machine) SetMapBackground(mapData types.MapData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeyMap, mapData))
}

func (m *Machine) SetSettingsURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay(types.NewEnvelope(types.KeySettingsURL, url))
}

// commitPin persists a normalized item and broadcasts the pin to the room.
func (m *Machine) commitPin(item *types.PinnedItem) error {
	if m.store == nil {
		return errors.New("no room store configured")
	}
	if err := m.store.PinItem(m.roomId, item); err != nil {
		return err
	}
	m.relay(types.NewEnvelope(types.KeyPinItem, nil).WithField("item", item))
	return nil
}

// PinGif pins an on-screen gif before its display timeout removes it.
func (m *Machine) PinGif(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.state.Gifs {
		if m.state.Gifs[i].Key != key {
			continue
		}
		gif := &m.state.Gifs[i]
		wasPinned := gif.IsPinned
		data, err := json.Marshal(gif.Data)
		if err != nil {
			return err
		}
		top, left := m.viewport.Normalize(gif.Top, gif.Left)
		item := &types.PinnedItem{
			Key:  gif.Key,
			Type: types.PinTypeGif,
			Top:  top, Left: left,
			Data: data,
		}
		return m.runOptimistic(command{
			apply:  func() { gif.IsPinned = true },
			revert: func() { gif.IsPinned = wasPinned },
		}, func() error { return m.commitPin(item) })
	}
	return errors.New("gif is no longer on the board")
}

func (m *Machine) PinImage(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.state.Images {
		if m.state.Images[i].Key != key {
			continue
		}
		image := &m.state.Images[i]
		wasPinned := image.IsPinned
		top, left := m.viewport.Normalize(image.Top, image.Left)
		item := &types.PinnedItem{
			Key:  image.Key,
			Type: types.PinTypeImage,
			Top:  top, Left: left,
			URL: image.Url,
		}
		return m.runOptimistic(command{
			apply:  func() { image.IsPinned = true },
			revert: func() { image.IsPinned = wasPinned },
		}, func() error { return m.commitPin(item) })
	}
	return errors.New("image is no longer on the board")
}

func (m *Machine) PinNFT(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.state.NFTs {
		if m.state.NFTs[i].Key != key {
			continue
		}
		nft := &m.state.NFTs[i]
		wasPinned := nft.IsPinned
		order := nft.Order
		top, left := m.viewport.Normalize(nft.Top, nft.Left)
		item := &types.PinnedItem{
			Key:  nft.Key,
			Type: types.PinTypeNFT,
			Top:  top, Left: left,
			Order: &order,
		}
		return m.runOptimistic(command{
			apply:  func() { nft.IsPinned = true },
			revert: func() { nft.IsPinned = wasPinned },
		}, func() error { return m.commitPin(item) })
	}
	return errors.New("NFT is no longer on the board")
}

// PinChat pins a floating chat message as a permanent text decoration.
func (m *Machine) PinChat(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chat := range m.state.ChatMessages {
		if chat.Key != key {
			continue
		}
		top, left := m.viewport.Normalize(chat.Top, chat.Left)
		item := &types.PinnedItem{
			Key:  chat.Key,
			Type: types.PinTypeChat,
			Top:  top, Left: left,
			Text:     chat.Value,
			IsPinned: true,
		}
		local := *item
		local.Top, local.Left = chat.Top, chat.Left
		return m.runOptimistic(command{
			apply:  func() { m.state.PinnedText[item.StoreKey()] = local },
			revert: func() { delete(m.state.PinnedText, item.StoreKey()) },
		}, func() error {
			if m.store == nil {
				return errors.New("no room store configured")
			}
			if err := m.store.PinItem(m.roomId, item); err != nil {
				return err
			}
			m.relay(types.NewEnvelope(types.KeyChatPin, nil).WithField("item", item))
			return nil
		})
	}
	return errors.New("chat message is no longer on the board")
}

// PinBackground persists the current background under the room's single
// background slot.
func (m *Machine) PinBackground() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	background := m.state.Background
	if background.SubType == "" {
		return errors.New("no background to pin")
	}
	wasPinned := background.IsPinned
	item := &types.PinnedItem{
		Type:    types.PinTypeBackground,
		SubType: background.SubType,
		Name:    background.Name,
		MapData: background.MapData,
	}
	return m.runOptimistic(command{
		apply:  func() { m.state.Background.IsPinned = true },
		revert: func() { m.state.Background.IsPinned = wasPinned },
	}, func() error { return m.commitPin(item) })
}

// UnpinItem removes the persisted pin; the local item falls back to its
// display timeout on the next prune.
func (m *Machine) UnpinItem(docKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	revert := m.captureUnpinRevert(docKey)
	unpin := types.NewEnvelope(types.KeyUnpinItem, docKey)
	return m.runOptimistic(command{
		apply:  func() { m.applyUnpinItem(unpin) },
		revert: revert,
	}, func() error {
		if m.store == nil {
			return errors.New("no room store configured")
		}
		if err := m.store.UnpinItem(m.roomId, docKey); err != nil {
			return err
		}
		m.emit(unpin.WithField("id", m.connectionId))
		return nil
	})
}

func (m *Machine) captureUnpinRevert(docKey string) func() {
	if docKey == types.BackgroundKey {
		wasPinned := m.state.Background.IsPinned
		return func() { m.state.Background.IsPinned = wasPinned }
	}
	if pinned, ok := m.state.PinnedText[docKey]; ok {
		return func() { m.state.PinnedText[docKey] = pinned }
	}
	for i := range m.state.Gifs {
		if m.state.Gifs[i].Key == docKey {
			i, wasPinned := i, m.state.Gifs[i].IsPinned
			return func() { m.state.Gifs[i].IsPinned = wasPinned }
		}
	}
	for i := range m.state.Images {
		if m.state.Images[i].Key == docKey {
			i, wasPinned := i, m.state.Images[i].IsPinned
			return func() { m.state.Images[i].IsPinned = wasPinned }
		}
	}
	for i := range m.state.NFTs {
		if m.state.NFTs[i].Key == docKey || m.state.NFTs[i].Order.Id == docKey {
			i, wasPinned := i, m.state.NFTs[i].IsPinned
			return func() { m.state.NFTs[i].IsPinned = wasPinned }
		}
	}
	return func() {}
}

// MoveItem drags a pinned item to a new pixel position. The store only
// receives the new normalized position, never the full item.
func (m *Machine) MoveItem(docKey string, x, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	top, left := m.viewport.Normalize(y, x)
	moved := types.NewEnvelope(types.KeyMoveItem, nil).
		WithField("item", &types.PinnedItem{Key: docKey, Top: top, Left: left})
	revert := m.captureMoveRevert(docKey)
	return m.runOptimistic(command{
		apply:  func() { m.applyMoveItem(moved) },
		revert: revert,
	}, func() error {
		if m.store == nil {
			return errors.New("no room store configured")
		}
		if err := m.store.MoveItem(m.roomId, docKey, top, left); err != nil {
			return err
		}
		m.emit(moved.WithField("id", m.connectionId))
		return nil
	})
}

func (m *Machine) captureMoveRevert(docKey string) func() {
	if pinned, ok := m.state.PinnedText[docKey]; ok {
		return func() { m.state.PinnedText[docKey] = pinned }
	}
	for i := range m.state.Gifs {
		if m.state.Gifs[i].Key == docKey {
			i, top, left := i, m.state.Gifs[i].Top, m.state.Gifs[i].Left
			return func() { m.state.Gifs[i].Top, m.state.Gifs[i].Left = top, left }
		}
	}
	for i := range m.state.Images {
		if m.state.Images[i].Key == docKey {
			i, top, left := i, m.state.Images[i].Top, m.state.Images[i].Left
			return func() { m.state.Images[i].Top, m.state.Images[i].Left = top, left }
		}
	}
	for i := range m.state.NFTs {
		if m.state.NFTs[i].Key == docKey || m.state.NFTs[i].Order.Id == docKey {
			i, top, left := i, m.state.NFTs[i].Top, m.state.NFTs[i].Left
			return func() { m.state.NFTs[i].Top, m.state.NFTs[i].Left = top, left }
		}
	}
	return func() {}
}

// StartTowerDefense starts the mini-game; only the starting session runs the
// wave spawner, the other peers apply the spawn broadcasts.
func (m *Machine) StartTowerDefense() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.td.Start()
	m.startGameAnimations()
	m.emit(types.NewEnvelope(types.KeyTowerDefense, types.TDCommandStart).WithField("id", m.connectionId))
	return m.waves.Start()
}

func (m *Machine) EndTowerDefense() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waves.Stop()
	m.td.End()
	m.state.Animations = append(m.state.Animations, types.Animation{
		Type:      types.AnimationEndGame,
		ExpiresAt: m.clock().Add(animTimeout),
	})
	m.emit(types.NewEnvelope(types.KeyTowerDefense, types.TDCommandEnd).WithField("id", m.connectionId))
}

// SelectTower toggles the placement-pending tower.
func (m *Machine) SelectTower(towerType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.td.SelectTower(towerType)
	tower := types.Tower{Type: towerType, Cost: towerdefense.TowerCosts[towerType]}
	m.emit(types.NewEnvelope(types.KeyTowerDefense, types.TDCommandSelectTower).
		WithField("tower", tower).
		WithField("id", m.connectionId))
}

// ClickBoard handles a board click in pixels. With a tower placement pending
// it attempts the placement and shows a transient message when gold is
// insufficient.
func (m *Machine) ClickBoard(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	placed, pending := m.td.TryPlaceTower(x, y)
	if pending && !placed {
		m.state.ChatMessages = append(m.state.ChatMessages, types.ChatMessage{
			Top:       y,
			Left:      x,
			Key:       m.keyFunc(),
			Value:     "Not Enough Gold",
			ExpiresAt: m.clock().Add(chatTimeout),
		})
	}
}

// FireTowers resolves hits locally and broadcasts the fire command so every
// peer resolves against its own unit list.
func (m *Machine) FireTowers(towerTypes []string) []towerdefense.Hit {
	m.mu.Lock()
	defer m.mu.Unlock()
	hits := m.td.FireTowers(towerTypes)
	m.emit(types.NewEnvelope(types.KeyTowerDefense, types.TDCommandFireTowers).
		WithField("towerTypes", towerTypes).
		WithField("id", m.connectionId))
	return hits
}
