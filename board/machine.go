package board

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/towerdefense"
	"github.com/tcriess/lightspeed-board/types"
)

const defaultCursorInterval = 200 * time.Millisecond

// Emitter sends outbound realtime traffic to the room. Relay envelopes are
// fire-and-forget, there is no failure path beyond the returned error.
type Emitter interface {
	EmitEnvelope(envelope *types.Envelope) error
	EmitCursor(x, y float64) error
}

// StoreClient is the room store surface the machine commits pinned state
// through. Positions cross this boundary as viewport fractions.
type StoreClient interface {
	PinItem(roomId string, item *types.PinnedItem) error
	UnpinItem(roomId, docKey string) error
	MoveItem(roomId, docKey string, top, left float64) error
	PinnedItems(roomId string) ([]*types.PinnedItem, error)
}

// MachineConfig carries the wiring of one room session.
type MachineConfig struct {
	RoomId         string
	Viewport       Viewport
	Emitter        Emitter
	Store          StoreClient
	InitialGold    int
	CursorInterval time.Duration
	Rand           *rand.Rand
	Clock          func() time.Time
}

// Machine is the per-session room state machine: it applies remote relay
// envelopes and local user actions to its State with synchronous
// reducer-style updates. All exported methods take the machine lock, the
// caller never sees a half-applied transition.
type Machine struct {
	mu sync.Mutex

	roomId       string
	connectionId string
	viewport     Viewport
	placer       placer
	clock        func() time.Time
	keyFunc      func() string

	emitter Emitter
	store   StoreClient

	state State
	td    *towerdefense.Engine
	waves *towerdefense.Spawner

	cursorInterval time.Duration
	lastCursorSent time.Time
}

func NewMachine(cfg MachineConfig) *Machine {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.CursorInterval <= 0 {
		cfg.CursorInterval = defaultCursorInterval
	}
	m := &Machine{
		roomId:         cfg.RoomId,
		viewport:       cfg.Viewport,
		placer:         placer{rng: cfg.Rand, viewport: cfg.Viewport},
		clock:          cfg.Clock,
		keyFunc:        func() string { return uuid.New().String() },
		emitter:        cfg.Emitter,
		store:          cfg.Store,
		state:          newState(),
		cursorInterval: cfg.CursorInterval,
	}
	m.td = towerdefense.NewEngine(cfg.InitialGold, cfg.Viewport.Width, cfg.Viewport.Height, m.emitTowerDefense)
	m.waves = towerdefense.NewSpawner(m.spawnWave)
	return m
}

// spawnWave is the spawner tick: create the next enemy locally and broadcast
// it with normalized coordinates.
func (m *Machine) spawnWave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.td.IsPlaying() {
		return
	}
	unitType := towerdefense.UnitTypes[m.placer.rng.Intn(len(towerdefense.UnitTypes))]
	unit := m.td.NewEnemy(unitType)
	m.td.AddUnit(unit)
	broadcast := unit
	broadcast.Top, broadcast.Left = m.viewport.Normalize(unit.Top, unit.Left)
	m.emitTowerDefense(types.TDCommandSpawnEnemy, map[string]interface{}{"enemy": broadcast})
}

// ConnectionId is the id assigned by the broker on connect, empty before the
// connect message arrived.
func (m *Machine) ConnectionId() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectionId
}

func (m *Machine) RoomId() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomId
}

// Snapshot returns a copy of the current state after pruning expired
// ephemeral items. The view layer renders from it.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Prune(m.clock())
	return m.state
}

// TowerDefense exposes the embedded mini-game state for rendering.
func (m *Machine) TowerDefense() types.TowerDefenseState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.td.State()
}

// ClearError clears the modal error message once the user dismissed it.
func (m *Machine) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ErrorMessage = ""
}

// HandleWire applies one inbound websocket message.
func (m *Machine) HandleWire(msg *types.WebsocketMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch msg.Event {
	case types.WireEventConnect:
		connect := types.ConnectMessage{}
		if err := json.Unmarshal(msg.Data, &connect); err != nil {
			return fmt.Errorf("could not decode connect message: %w", err)
		}
		m.connectionId = connect.ConnectionId
		if connect.RoomId != "" {
			m.roomId = connect.RoomId
		}
		globals.AppLogger.Debug("connected", "id", m.connectionId, "room", m.roomId)
		return nil

	case types.WireEventRelay:
		envelope := types.Envelope{}
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			return fmt.Errorf("could not decode relay envelope: %w", err)
		}
		m.applyEnvelope(&envelope)
		return nil

	case types.WireEventCursorMove:
		cursor := types.CursorMessage{}
		if err := json.Unmarshal(msg.Data, &cursor); err != nil {
			return fmt.Errorf("could not decode cursor message: %w", err)
		}
		top, left := m.viewport.Denormalize(cursor.Y, cursor.X)
		m.state.UserLocations[cursor.ConnectionId] = types.Position{X: left, Y: top}
		return nil

	case types.WireEventRoommateDisconnect:
		disconnect := types.DisconnectMessage{}
		if err := json.Unmarshal(msg.Data, &disconnect); err != nil {
			return fmt.Errorf("could not decode disconnect message: %w", err)
		}
		delete(m.state.UserProfiles, disconnect.ConnectionId)
		delete(m.state.UserLocations, disconnect.ConnectionId)
		delete(m.state.AvatarMessages, disconnect.ConnectionId)
		delete(m.state.PendingTowers, disconnect.ConnectionId)
		return nil
	}

	globals.AppLogger.Debug("unknown wire event", "event", msg.Event)
	return nil
}

// Hydrate loads the persisted pinned items of the room and materializes them
// in local state, denormalized onto this viewport.
func (m *Machine) Hydrate() error {
	if m.store == nil {
		return nil
	}
	items, err := m.store.PinnedItems(m.roomId)
	if err != nil {
		return fmt.Errorf("could not load pinned items: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropHydrated()
	for _, item := range items {
		top, left := m.viewport.Denormalize(item.Top, item.Left)
		switch item.Type {
		case types.PinTypeGif:
			data := map[string]interface{}{}
			if len(item.Data) > 0 {
				if err := json.Unmarshal(item.Data, &data); err != nil {
					globals.AppLogger.Warn("could not decode pinned gif data", "key", item.Key, "error", err)
					continue
				}
			}
			m.state.Gifs = append(m.state.Gifs, types.BoardGif{
				Top: top, Left: left, Key: item.Key, Data: data, IsPinned: true,
			})

		case types.PinTypeImage:
			m.state.Images = append(m.state.Images, types.BoardImage{
				Top: top, Left: left, Key: item.Key, Url: item.URL, IsPinned: true,
			})

		case types.PinTypeNFT:
			nft := types.BoardNFT{Top: top, Left: left, Key: item.Key, IsPinned: true}
			if item.Order != nil {
				nft.Order = *item.Order
				if nft.Key == "" {
					nft.Key = item.Order.Id
				}
			}
			m.state.NFTs = append(m.state.NFTs, nft)

		case types.PinTypeText, types.PinTypeChat:
			pinned := *item
			pinned.Top, pinned.Left = top, left
			m.state.PinnedText[item.StoreKey()] = pinned

		case types.PinTypeBackground:
			m.state.Background = types.BackgroundState{
				SubType:  item.SubType,
				Name:     item.Name,
				IsPinned: true,
				MapData:  item.MapData,
			}
		}
	}
	return nil
}

// dropHydrated removes all pinned items from local state so a re-hydrate
// after a reconnect does not duplicate them. Ephemeral items survive.
func (m *Machine) dropHydrated() {
	gifs := m.state.Gifs[:0]
	for _, g := range m.state.Gifs {
		if !g.IsPinned {
			gifs = append(gifs, g)
		}
	}
	m.state.Gifs = gifs

	images := m.state.Images[:0]
	for _, i := range m.state.Images {
		if !i.IsPinned {
			images = append(images, i)
		}
	}
	m.state.Images = images

	nfts := m.state.NFTs[:0]
	for _, n := range m.state.NFTs {
		if !n.IsPinned {
			nfts = append(nfts, n)
		}
	}
	m.state.NFTs = nfts

	m.state.PinnedText = make(map[string]types.PinnedItem)
	if m.state.Background.IsPinned {
		m.state.Background = types.BackgroundState{}
	}
}

func (m *Machine) emit(envelope *types.Envelope) {
	if m.emitter == nil {
		return
	}
	if err := m.emitter.EmitEnvelope(envelope); err != nil {
		globals.AppLogger.Warn("could not emit envelope", "key", envelope.Key, "error", err)
	}
}

func (m *Machine) emitTowerDefense(command string, fields map[string]interface{}) {
	envelope := types.NewEnvelope(types.KeyTowerDefense, command)
	for name, value := range fields {
		envelope.WithField(name, value)
	}
	m.emit(envelope)
}

// MoveCursor broadcasts the local cursor position, throttled to one message
// per interval. Coordinates are broadcast as viewport fractions.
func (m *Machine) MoveCursor(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	if now.Sub(m.lastCursorSent) < m.cursorInterval {
		return
	}
	m.lastCursorSent = now
	if m.emitter == nil {
		return
	}
	if err := m.emitter.EmitCursor(x/m.viewport.Width, y/m.viewport.Height); err != nil {
		globals.AppLogger.Warn("could not emit cursor", "error", err)
	}
}

// gifKey derives a stable key from the provider gif object so replays of the
// same gif map to the same board item.
func gifKey(data map[string]interface{}) string {
	h, err := hashstructure.Hash(data, hashstructure.FormatV2, nil)
	if err != nil {
		return uuid.New().String()
	}
	return fmt.Sprintf("gif-%d", h)
}

func (m *Machine) profile(connectionId string) types.UserProfile {
	return m.state.UserProfiles[connectionId]
}

func (m *Machine) setProfile(connectionId string, fn func(p *types.UserProfile)) {
	p := m.state.UserProfiles[connectionId]
	fn(&p)
	m.state.UserProfiles[connectionId] = p
}
