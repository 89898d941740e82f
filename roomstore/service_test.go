package roomstore

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tcriess/lightspeed-board/config"
	"github.com/tcriess/lightspeed-board/persistence"
	"github.com/tcriess/lightspeed-board/types"
)

type fakeChecker struct {
	balance *big.Int
	err     error
}

func (c *fakeChecker) TokenBalance(ctx context.Context, contractAddress, walletAddress string) (*big.Int, error) {
	return c.balance, c.err
}

func newTestService(t *testing.T, checker *fakeChecker) *Service {
	t.Helper()
	cfg := &config.Config{
		Production: true,
		PersistenceConfig: config.PersistenceConfig{
			Type: "sqlite",
			DSN:  filepath.Join(t.TempDir(), "test.db"),
		},
	}
	persister, err := persistence.NewPersister(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { persister.Close() })
	var service *Service
	if checker != nil {
		service, err = NewService(cfg, persister, checker, nil)
	} else {
		service, err = NewService(cfg, persister, nil, nil)
	}
	if err != nil {
		t.Fatal(err)
	}
	return service
}

func TestCreateRoomConflict(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	err := s.CreateRoom(ctx, "alpha", false, "", "")
	if err != nil {
		t.Fatal(err)
	}
	err = s.CreateRoom(ctx, "alpha", true, "", "0xAbc")
	assert.True(t, errors.Is(err, ErrConflict))

	// the room document is unchanged from the first creation
	room, err := s.GetRoom(ctx, "alpha", "")
	if err != nil {
		t.Fatal(err)
	}
	assert.False(t, room.IsLocked)
	assert.Equal(t, "", room.LockedOwnerAddress)
}

func TestCreateLockedRoomRequiresWallet(t *testing.T) {
	s := newTestService(t, nil)
	err := s.CreateRoom(context.Background(), "locked", true, "", "")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestGetRoomNotFound(t *testing.T) {
	s := newTestService(t, nil)
	_, err := s.GetRoom(context.Background(), "missing", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTokenGatedRoom(t *testing.T) {
	checker := &fakeChecker{balance: big.NewInt(0)}
	s := newTestService(t, checker)
	ctx := context.Background()

	err := s.CreateRoom(ctx, "gated", false, "0xdeadbeef", "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.GetRoom(ctx, "gated", "0xvisitor")
	assert.True(t, errors.Is(err, ErrForbidden))

	checker.balance = big.NewInt(1)
	room, err := s.GetRoom(ctx, "gated", "0xvisitor")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "gated", room.Id)

	checker.err = errors.New("rpc down")
	_, err = s.GetRoom(ctx, "gated", "0xvisitor")
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestLockedRoomMutations(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	err := s.CreateRoom(ctx, "locked", true, "", "0xOwner")
	if err != nil {
		t.Fatal(err)
	}

	item := types.PinnedItem{Key: "img-1", Type: types.PinTypeImage, URL: "https://example.com/a.png", Top: 0.1, Left: 0.2}
	err = s.PinItem(ctx, "locked", "0xother", item)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	// the owner check is case insensitive on the wallet address
	err = s.PinItem(ctx, "locked", "0xOWNER", item)
	if err != nil {
		t.Fatal(err)
	}

	err = s.MoveItem(ctx, "locked", "0xother", "img-1", 0.3, 0.4)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	err = s.MoveItem(ctx, "locked", "0xowner", "img-1", 0.3, 0.4)
	if err != nil {
		t.Fatal(err)
	}
	items, err := s.ListPinnedItems(ctx, "locked")
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, items, 1)
	assert.Equal(t, 0.3, items[0].Top)
	assert.Equal(t, 0.4, items[0].Left)
	// a move updates only the position
	assert.Equal(t, "https://example.com/a.png", items[0].URL)
}

func TestUnpinIsIdempotent(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	err := s.CreateRoom(ctx, "alpha", false, "", "")
	if err != nil {
		t.Fatal(err)
	}
	err = s.UnpinItem(ctx, "alpha", "", "never-pinned")
	if err != nil {
		t.Fatal(err)
	}

	item := types.PinnedItem{Key: "txt-1", Type: types.PinTypeText, Text: "hi"}
	err = s.PinItem(ctx, "alpha", "", item)
	if err != nil {
		t.Fatal(err)
	}
	err = s.UnpinItem(ctx, "alpha", "", "txt-1")
	if err != nil {
		t.Fatal(err)
	}
	items, err := s.ListPinnedItems(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, items, 0)
}

func TestMoveMissingItem(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	err := s.CreateRoom(ctx, "alpha", false, "", "")
	if err != nil {
		t.Fatal(err)
	}
	err = s.MoveItem(ctx, "alpha", "", "nope", 0.5, 0.5)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBackgroundIsSingleton(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	err := s.CreateRoom(ctx, "alpha", false, "", "")
	if err != nil {
		t.Fatal(err)
	}

	first := types.PinnedItem{Type: types.PinTypeBackground, SubType: types.SubTypeImage, Name: "nature"}
	if err := s.PinItem(ctx, "alpha", "", first); err != nil {
		t.Fatal(err)
	}
	second := types.PinnedItem{Type: types.PinTypeBackground, SubType: types.SubTypeImage, Name: "night_sky"}
	if err := s.PinItem(ctx, "alpha", "", second); err != nil {
		t.Fatal(err)
	}

	items, err := s.ListPinnedItems(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, items, 1)

	background, err := s.PinnedBackground(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "night_sky", background)
}

func TestPinnedBackgroundMap(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	err := s.CreateRoom(ctx, "alpha", false, "", "")
	if err != nil {
		t.Fatal(err)
	}
	item := types.PinnedItem{
		Type:    types.PinTypeBackground,
		SubType: types.SubTypeMap,
		MapData: &types.MapData{Coordinates: types.LatLng{Lat: 52.52, Lng: 13.405}, Zoom: 10},
	}
	if err := s.PinItem(ctx, "alpha", "", item); err != nil {
		t.Fatal(err)
	}
	background, err := s.PinnedBackground(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	mapData, ok := background.(*types.MapData)
	assert.True(t, ok)
	assert.Equal(t, 52.52, mapData.Coordinates.Lat)
}

func TestFixturesOutsideProduction(t *testing.T) {
	cfg := &config.Config{}
	service, err := NewService(cfg, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	room, err := service.GetRoom(context.Background(), "anything", "")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, types.DefaultRoomId, room.Id)

	rooms, err := service.ListRooms(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, rooms, 1)
	assert.Equal(t, "test", rooms[0].Id)
}

func TestLockOwnerCacheIsNotInvalidated(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	err := s.CreateRoom(ctx, "locked", true, "", "0xowner")
	if err != nil {
		t.Fatal(err)
	}
	// warm the cache
	err = s.PinItem(ctx, "locked", "0xowner", types.PinnedItem{Key: "a", Type: types.PinTypeText})
	if err != nil {
		t.Fatal(err)
	}
	// rewrite the room behind the service's back
	err = s.persister.StoreRoom(types.Room{Id: "locked", IsLocked: true, LockedOwnerAddress: "0xnewowner"})
	if err != nil {
		t.Fatal(err)
	}
	// the cached owner keeps winning for the process lifetime
	err = s.PinItem(ctx, "locked", "0xowner", types.PinnedItem{Key: "b", Type: types.PinTypeText})
	if err != nil {
		t.Fatal(err)
	}
	err = s.PinItem(ctx, "locked", "0xnewowner", types.PinnedItem{Key: "c", Type: types.PinTypeText})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestNoPersisterConfigured(t *testing.T) {
	cfg := &config.Config{Production: true}
	service, err := NewService(cfg, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	err = service.CreateRoom(ctx, "alpha", false, "", "")
	assert.True(t, errors.Is(err, ErrUpstream))
	_, err = service.GetRoom(ctx, "alpha", "")
	assert.True(t, errors.Is(err, ErrUpstream))
	_, err = service.ListRooms(ctx)
	assert.True(t, errors.Is(err, ErrUpstream))
	err = service.PinItem(ctx, "alpha", "", types.PinnedItem{Key: "k", Type: types.PinTypeImage})
	assert.True(t, errors.Is(err, ErrUpstream))
	err = service.UnpinItem(ctx, "alpha", "", "k")
	assert.True(t, errors.Is(err, ErrUpstream))
	err = service.MoveItem(ctx, "alpha", "", "k", 0.1, 0.2)
	assert.True(t, errors.Is(err, ErrUpstream))
	_, err = service.ListPinnedItems(ctx, "alpha")
	assert.True(t, errors.Is(err, ErrUpstream))
	_, err = service.PinnedBackground(ctx, "alpha")
	assert.True(t, errors.Is(err, ErrUpstream))
}

type fakeNotifier struct {
	announced []types.Room
	err       error
}

func (n *fakeNotifier) AnnounceRoom(ctx context.Context, room types.Room) error {
	n.announced = append(n.announced, room)
	return n.err
}

func TestRoomCreationIsAnnounced(t *testing.T) {
	service := newTestService(t, nil)
	notifier := &fakeNotifier{}
	service.notifier = notifier
	ctx := context.Background()

	if err := service.CreateRoom(ctx, "alpha", false, "", ""); err != nil {
		t.Fatal(err)
	}
	assert.Len(t, notifier.announced, 1)
	assert.Equal(t, "alpha", notifier.announced[0].Id)

	// a conflicting create announces nothing
	err := service.CreateRoom(ctx, "alpha", false, "", "")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Len(t, notifier.announced, 1)

	// a failing announcement does not fail the creation
	notifier.err = errors.New("announcement endpoint down")
	if err := service.CreateRoom(ctx, "beta", false, "", ""); err != nil {
		t.Fatal(err)
	}
	assert.Len(t, notifier.announced, 2)
}
