package board

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tcriess/lightspeed-board/types"
)

type fakeEmitter struct {
	envelopes []*types.Envelope
	cursors   []types.CursorMessage
}

func (e *fakeEmitter) EmitEnvelope(envelope *types.Envelope) error {
	e.envelopes = append(e.envelopes, envelope)
	return nil
}

func (e *fakeEmitter) EmitCursor(x, y float64) error {
	e.cursors = append(e.cursors, types.CursorMessage{X: x, Y: y})
	return nil
}

type fakeStore struct {
	items   map[string]*types.PinnedItem
	failAll bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]*types.PinnedItem)}
}

func (s *fakeStore) PinItem(roomId string, item *types.PinnedItem) error {
	if s.failAll {
		return errors.New("store unavailable")
	}
	copied := *item
	s.items[item.StoreKey()] = &copied
	return nil
}

func (s *fakeStore) UnpinItem(roomId, docKey string) error {
	if s.failAll {
		return errors.New("store unavailable")
	}
	delete(s.items, docKey)
	return nil
}

func (s *fakeStore) MoveItem(roomId, docKey string, top, left float64) error {
	if s.failAll {
		return errors.New("store unavailable")
	}
	item, ok := s.items[docKey]
	if !ok {
		return errors.New("pinned item does not exist")
	}
	item.Top, item.Left = top, left
	return nil
}

func (s *fakeStore) PinnedItems(roomId string) ([]*types.PinnedItem, error) {
	items := make([]*types.PinnedItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	return items, nil
}

func newTestMachine(t *testing.T, store StoreClient) (*Machine, *fakeEmitter) {
	t.Helper()
	emitter := &fakeEmitter{}
	now := time.Unix(1000, 0)
	m := NewMachine(MachineConfig{
		RoomId:   "alpha",
		Viewport: Viewport{Width: 1000, Height: 800},
		Emitter:  emitter,
		Store:    store,
		Rand:     rand.New(rand.NewSource(1)),
		Clock:    func() time.Time { return now },
	})
	m.connectionId = "me"
	return m, emitter
}

func TestConnectMessageSetsIdentity(t *testing.T) {
	m, _ := newTestMachine(t, nil)
	data, _ := json.Marshal(types.ConnectMessage{ConnectionId: "conn-9", RoomId: "beta"})
	err := m.HandleWire(&types.WebsocketMessage{Event: types.WireEventConnect, Data: data})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "conn-9", m.ConnectionId())
	assert.Equal(t, "beta", m.RoomId())
}

func TestChatMessageExpires(t *testing.T) {
	m, emitter := newTestMachine(t, nil)
	m.SendChat("hello")

	assert.Len(t, emitter.envelopes, 1)
	assert.Equal(t, types.KeyChat, emitter.envelopes[0].Key)

	state := m.Snapshot()
	assert.Len(t, state.ChatMessages, 1)
	assert.Equal(t, "hello", state.ChatMessages[0].Value)
	assert.Len(t, state.Waterfall.Messages, 1)

	// jump past the display timeout
	m.clock = func() time.Time { return time.Unix(1000, 0).Add(8 * time.Second) }
	state = m.Snapshot()
	assert.Len(t, state.ChatMessages, 0)
	// the waterfall transcript does not expire
	assert.Len(t, state.Waterfall.Messages, 1)
}

func TestPlacementRanges(t *testing.T) {
	p := placer{rng: rand.New(rand.NewSource(42)), viewport: Viewport{Width: 1000, Height: 800}}
	for i := 0; i < 1000; i++ {
		x, y := p.randomXY(false)
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1000.0)
		assert.GreaterOrEqual(t, y, 0.0)
		assert.Less(t, y, 800.0)
	}
	for i := 0; i < 1000; i++ {
		// centered draws stay in the middle half of each axis
		x, y := p.randomXY(true)
		assert.GreaterOrEqual(t, x, 250.0)
		assert.Less(t, x, 750.0)
		assert.GreaterOrEqual(t, y, 200.0)
		assert.Less(t, y, 600.0)
	}
	for i := 0; i < 1000; i++ {
		_, y := p.randomGifXY()
		assert.GreaterOrEqual(t, y, 0.0)
		assert.Less(t, y, 600.0)
	}
}

func TestNormalizationRoundTrip(t *testing.T) {
	v := Viewport{Width: 1600, Height: 900}
	top, left := v.Normalize(450, 400)
	assert.Equal(t, 0.5, top)
	assert.Equal(t, 0.25, left)

	other := Viewport{Width: 800, Height: 600}
	otherTop, otherLeft := other.Denormalize(top, left)
	assert.Equal(t, 300.0, otherTop)
	assert.Equal(t, 200.0, otherLeft)
}

func TestHydrateDenormalizes(t *testing.T) {
	store := newFakeStore()
	store.items["img-1"] = &types.PinnedItem{
		Key: "img-1", Type: types.PinTypeImage, URL: "u", Top: 0.5, Left: 0.25,
	}
	store.items[types.BackgroundKey] = &types.PinnedItem{
		Type: types.PinTypeBackground, SubType: types.SubTypeImage, Name: "nature",
	}
	m, _ := newTestMachine(t, store)
	if err := m.Hydrate(); err != nil {
		t.Fatal(err)
	}
	state := m.Snapshot()
	assert.Len(t, state.Images, 1)
	assert.Equal(t, 400.0, state.Images[0].Top)
	assert.Equal(t, 250.0, state.Images[0].Left)
	assert.True(t, state.Images[0].IsPinned)
	assert.Equal(t, "nature", state.Background.Name)
	assert.True(t, state.Background.IsPinned)

	// pinned items survive pruning indefinitely
	m.clock = func() time.Time { return time.Unix(1000, 0).Add(time.Hour) }
	state = m.Snapshot()
	assert.Len(t, state.Images, 1)
}

func TestPinImagePersistsNormalized(t *testing.T) {
	store := newFakeStore()
	m, emitter := newTestMachine(t, store)
	m.SendImage("https://example.com/a.png")
	key := m.Snapshot().Images[0].Key

	if err := m.PinImage(key); err != nil {
		t.Fatal(err)
	}
	stored := store.items[key]
	if stored == nil {
		t.Fatal("image was not stored")
	}
	image := m.Snapshot().Images[0]
	assert.Equal(t, image.Top/800, stored.Top)
	assert.Equal(t, image.Left/1000, stored.Left)
	assert.True(t, image.IsPinned)

	// image envelope plus pin envelope
	assert.Len(t, emitter.envelopes, 2)
	assert.Equal(t, types.KeyPinItem, emitter.envelopes[1].Key)
}

func TestPinRollsBackOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	m, _ := newTestMachine(t, store)
	m.SendImage("https://example.com/a.png")
	key := m.Snapshot().Images[0].Key

	store.failAll = true
	err := m.PinImage(key)
	assert.Error(t, err)

	state := m.Snapshot()
	assert.False(t, state.Images[0].IsPinned)
	assert.NotEmpty(t, state.ErrorMessage)
}

func TestMoveRollsBackOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	m, _ := newTestMachine(t, store)
	m.SendImage("https://example.com/a.png")
	key := m.Snapshot().Images[0].Key
	if err := m.PinImage(key); err != nil {
		t.Fatal(err)
	}
	before := m.Snapshot().Images[0]

	store.failAll = true
	err := m.MoveItem(key, 123, 456)
	assert.Error(t, err)

	after := m.Snapshot().Images[0]
	assert.Equal(t, before.Top, after.Top)
	assert.Equal(t, before.Left, after.Left)
	assert.NotEmpty(t, m.Snapshot().ErrorMessage)
}

func TestMoveUpdatesPosition(t *testing.T) {
	store := newFakeStore()
	m, _ := newTestMachine(t, store)
	m.SendImage("https://example.com/a.png")
	key := m.Snapshot().Images[0].Key
	if err := m.PinImage(key); err != nil {
		t.Fatal(err)
	}
	if err := m.MoveItem(key, 500, 400); err != nil {
		t.Fatal(err)
	}
	image := m.Snapshot().Images[0]
	assert.Equal(t, 400.0, image.Top)
	assert.Equal(t, 500.0, image.Left)
	assert.Equal(t, 0.5, store.items[key].Top)
	assert.Equal(t, 0.5, store.items[key].Left)
}

func TestCursorThrottle(t *testing.T) {
	m, emitter := newTestMachine(t, nil)
	now := time.Unix(1000, 0)
	m.clock = func() time.Time { return now }

	m.MoveCursor(100, 100)
	m.MoveCursor(200, 200)
	m.MoveCursor(300, 300)
	assert.Len(t, emitter.cursors, 1)

	now = now.Add(250 * time.Millisecond)
	m.MoveCursor(400, 400)
	assert.Len(t, emitter.cursors, 2)
	// cursor positions cross the wire as viewport fractions
	assert.Equal(t, 0.4, emitter.cursors[1].X)
	assert.Equal(t, 0.5, emitter.cursors[1].Y)
}

func TestRoommateDisconnectPrunesPresence(t *testing.T) {
	m, _ := newTestMachine(t, nil)
	relay := func(envelope *types.Envelope) {
		data, _ := json.Marshal(envelope)
		err := m.HandleWire(&types.WebsocketMessage{Event: types.WireEventRelay, Data: data})
		if err != nil {
			t.Fatal(err)
		}
	}
	relay(types.NewEnvelope(types.KeyUsername, "peer").WithField("id", "conn-2"))
	relay(types.NewEnvelope(types.KeyAvatar, "cat").WithField("id", "conn-2"))
	relay(types.NewEnvelope(types.KeyChat, "hi there").WithField("id", "conn-2"))

	state := m.Snapshot()
	assert.Equal(t, "peer", state.UserProfiles["conn-2"].Name)
	assert.Equal(t, "cat", state.UserProfiles["conn-2"].Avatar)
	assert.Equal(t, []string{"hi there"}, state.AvatarMessages["conn-2"])
	// the chat line landed in the waterfall with the sender's avatar
	assert.Equal(t, "cat", state.Waterfall.Messages[0].Avatar)

	data, _ := json.Marshal(types.DisconnectMessage{ConnectionId: "conn-2"})
	err := m.HandleWire(&types.WebsocketMessage{Event: types.WireEventRoommateDisconnect, Data: data})
	if err != nil {
		t.Fatal(err)
	}
	state = m.Snapshot()
	_, ok := state.UserProfiles["conn-2"]
	assert.False(t, ok)
	_, ok = state.AvatarMessages["conn-2"]
	assert.False(t, ok)
}

func TestUnknownEnvelopeKeyIsIgnored(t *testing.T) {
	m, _ := newTestMachine(t, nil)
	data, _ := json.Marshal(types.NewEnvelope("future-feature", "whatever"))
	err := m.HandleWire(&types.WebsocketMessage{Event: types.WireEventRelay, Data: data})
	assert.NoError(t, err)
}

func TestNotEnoughGold(t *testing.T) {
	m, _ := newTestMachine(t, nil)
	if err := m.StartTowerDefense(); err != nil {
		t.Fatal(err)
	}
	defer m.EndTowerDefense()

	// drain the gold with towers that cost more than the balance
	m.SelectTower("flame")
	m.ClickBoard(100, 100)
	state := m.TowerDefense()
	assert.Equal(t, 10, state.Gold)
	assert.Len(t, state.Towers, 1)

	m.SelectTower("flame")
	m.ClickBoard(200, 200)
	state = m.TowerDefense()
	assert.Len(t, state.Towers, 1)
	assert.Equal(t, 10, state.Gold)

	found := false
	for _, chat := range m.Snapshot().ChatMessages {
		if chat.Value == "Not Enough Gold" && chat.Left == 200.0 && chat.Top == 200.0 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRemoteTowerSelectionStaysRemote(t *testing.T) {
	m, emitter := newTestMachine(t, nil)
	if err := m.StartTowerDefense(); err != nil {
		t.Fatal(err)
	}
	defer m.EndTowerDefense()
	sent := len(emitter.envelopes)

	// a peer picks a tower at its own cursor
	envelope := types.NewEnvelope(types.KeyTowerDefense, types.TDCommandSelectTower).
		WithField("tower", types.Tower{Type: "basic", Cost: 30}).
		WithField("id", "peer-1")
	data, _ := json.Marshal(envelope)
	if err := m.HandleWire(&types.WebsocketMessage{Event: types.WireEventRelay, Data: data}); err != nil {
		t.Fatal(err)
	}

	// the selection shows up next to the peer's cursor only
	assert.Equal(t, "basic", m.Snapshot().PendingTowers["peer-1"].Type)

	// a local click must not place the peer's tower or spend gold
	m.ClickBoard(100, 100)
	state := m.TowerDefense()
	assert.Len(t, state.Towers, 0)
	assert.Equal(t, 100, state.Gold)
	assert.Len(t, emitter.envelopes, sent)

	// selecting the same type again cancels the peer's selection
	if err := m.HandleWire(&types.WebsocketMessage{Event: types.WireEventRelay, Data: data}); err != nil {
		t.Fatal(err)
	}
	assert.NotContains(t, m.Snapshot().PendingTowers, "peer-1")
}

func TestPeerPlacementConsumesPendingTower(t *testing.T) {
	m, _ := newTestMachine(t, nil)
	if err := m.StartTowerDefense(); err != nil {
		t.Fatal(err)
	}
	defer m.EndTowerDefense()

	selected := types.NewEnvelope(types.KeyTowerDefense, types.TDCommandSelectTower).
		WithField("tower", types.Tower{Type: "cannon", Cost: 60}).
		WithField("id", "peer-1")
	data, _ := json.Marshal(selected)
	if err := m.HandleWire(&types.WebsocketMessage{Event: types.WireEventRelay, Data: data}); err != nil {
		t.Fatal(err)
	}
	assert.Contains(t, m.Snapshot().PendingTowers, "peer-1")

	placed := types.NewEnvelope(types.KeyTowerDefense, types.TDCommandAddTower).
		WithField("tower", types.Tower{Key: "t-1", Type: "cannon", Cost: 60, Top: 0.5, Left: 0.5}).
		WithField("id", "peer-1")
	data, _ = json.Marshal(placed)
	if err := m.HandleWire(&types.WebsocketMessage{Event: types.WireEventRelay, Data: data}); err != nil {
		t.Fatal(err)
	}
	assert.NotContains(t, m.Snapshot().PendingTowers, "peer-1")
	assert.Len(t, m.TowerDefense().Towers, 1)
}

func TestRehydrateDoesNotDuplicate(t *testing.T) {
	store := newFakeStore()
	store.items["img-1"] = &types.PinnedItem{
		Key: "img-1", Type: types.PinTypeImage, URL: "u", Top: 0.5, Left: 0.25,
	}
	store.items["text-1"] = &types.PinnedItem{
		Key: "text-1", Type: types.PinTypeText, Text: "note", Top: 0.1, Left: 0.1,
	}
	store.items[types.BackgroundKey] = &types.PinnedItem{
		Type: types.PinTypeBackground, SubType: types.SubTypeImage, Name: "nature",
	}
	m, _ := newTestMachine(t, store)
	if err := m.Hydrate(); err != nil {
		t.Fatal(err)
	}
	// a reconnect hydrates again from the same store
	if err := m.Hydrate(); err != nil {
		t.Fatal(err)
	}
	state := m.Snapshot()
	assert.Len(t, state.Images, 1)
	assert.Len(t, state.PinnedText, 1)
	assert.Equal(t, "nature", state.Background.Name)
}
