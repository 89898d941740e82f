package roomstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tcriess/lightspeed-board/chain"
	"github.com/tcriess/lightspeed-board/config"
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/persistence"
	"github.com/tcriess/lightspeed-board/types"
)

const lockedRoomCacheSize = 1024

// Service is the room store: CRUD over room documents and their pinned-item
// sub-collections, with locked-room ownership checks and token-gated reads.
type Service struct {
	persister persistence.Persister
	checker   chain.BalanceChecker
	notifier  Notifier

	// lockedRooms memoizes the lock owner address per room id for the
	// process lifetime. There is no invalidation: a room's lock, once
	// observed, is assumed immutable. Known staleness, kept on purpose.
	lockedRooms *lru.Cache

	production bool
}

func NewService(cfg *config.Config, persister persistence.Persister, checker chain.BalanceChecker, notifier Notifier) (*Service, error) {
	cache, err := lru.New(lockedRoomCacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{
		persister:   persister,
		checker:     checker,
		notifier:    notifier,
		lockedRooms: cache,
		production:  cfg.Production,
	}, nil
}

// ensureStore fails operations that need the persister when the process runs
// without one. Non-production reads never get here, they are served from
// fixtures.
func (s *Service) ensureStore() error {
	if s.persister == nil {
		return fmt.Errorf("no persistence configured: %w", ErrUpstream)
	}
	return nil
}

// GetRoom returns the room document. It fails with ErrNotFound for absent
// rooms and with ErrForbidden when the room is token-gated and the caller's
// balance of the gating token is zero.
func (s *Service) GetRoom(ctx context.Context, roomId, wallet string) (*types.Room, error) {
	if !s.production {
		return fixtureRoom(roomId), nil
	}
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	room := &types.Room{Id: roomId}
	err := s.persister.GetRoom(room)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, fmt.Errorf("room does not exist: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if room.ContractAddress != "" {
		if s.checker == nil {
			return nil, fmt.Errorf("no chain endpoint configured: %w", ErrUpstream)
		}
		balance, err := s.checker.TokenBalance(ctx, room.ContractAddress, wallet)
		if err != nil {
			return nil, fmt.Errorf("balance check failed: %v: %w", err, ErrUpstream)
		}
		if balance.Sign() == 0 {
			return nil, fmt.Errorf("to view this room visitors need a token with contract address %s: %w", room.ContractAddress, ErrForbidden)
		}
	}
	return room, nil
}

// ListRooms is an unauthenticated read of all room documents.
func (s *Service) ListRooms(ctx context.Context) ([]*types.Room, error) {
	if !s.production {
		return fixtureRooms(), nil
	}
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	return s.persister.GetRooms()
}

// CreateRoom creates the room document. Locking a room requires an
// authenticated wallet, which becomes the immutable lock owner.
func (s *Service) CreateRoom(ctx context.Context, roomId string, isLocked bool, contractAddress, wallet string) error {
	if err := s.ensureStore(); err != nil {
		return err
	}
	if isLocked && wallet == "" {
		return fmt.Errorf("user not authenticated to lock room: %w", ErrUnauthorized)
	}
	existing := &types.Room{Id: roomId}
	err := s.persister.GetRoom(existing)
	if err == nil {
		return fmt.Errorf("room already exists: %w", ErrConflict)
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return err
	}
	room := types.Room{
		Id:              roomId,
		IsLocked:        isLocked,
		ContractAddress: contractAddress,
	}
	if isLocked {
		room.LockedOwnerAddress = strings.ToLower(wallet)
	}
	globals.AppLogger.Info("creating room", "room", roomId, "locked", isLocked)
	if err := s.persister.StoreRoom(room); err != nil {
		return err
	}
	if s.notifier != nil {
		if err := s.notifier.AnnounceRoom(ctx, room); err != nil {
			globals.AppLogger.Warn("could not announce room", "room", roomId, "error", err)
		}
	}
	return nil
}

// PinItem upserts a pinned item: by the fixed background key for
// backgrounds, by the order id for NFTs, by the item key otherwise.
func (s *Service) PinItem(ctx context.Context, roomId, wallet string, item types.PinnedItem) error {
	if err := s.ensureStore(); err != nil {
		return err
	}
	if err := s.verifyLockedOwner(roomId, wallet); err != nil {
		return err
	}
	room := &types.Room{Id: roomId}
	if err := s.persister.GetRoom(room); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("room does not exist: %w", ErrNotFound)
		}
		return err
	}
	item.RoomId = roomId
	item.IsPinned = true
	return s.persister.StorePinnedItem(item)
}

// UnpinItem deletes a pinned item by key. Deleting an absent key is a no-op.
func (s *Service) UnpinItem(ctx context.Context, roomId, wallet, itemKey string) error {
	if err := s.ensureStore(); err != nil {
		return err
	}
	if err := s.verifyLockedOwner(roomId, wallet); err != nil {
		return err
	}
	return s.persister.DeletePinnedItem(roomId, itemKey)
}

// MoveItem updates only the normalized position of an existing pinned item.
func (s *Service) MoveItem(ctx context.Context, roomId, wallet, itemKey string, top, left float64) error {
	if err := s.ensureStore(); err != nil {
		return err
	}
	if err := s.verifyLockedOwner(roomId, wallet); err != nil {
		return err
	}
	err := s.persister.UpdatePinnedItemPosition(roomId, itemKey, top, left)
	if errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("pinned item does not exist: %w", ErrNotFound)
	}
	return err
}

// ListPinnedItems is an unauthenticated read of a room's pinned items.
func (s *Service) ListPinnedItems(ctx context.Context, roomId string) ([]*types.PinnedItem, error) {
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	return s.persister.GetPinnedItems(roomId)
}

// PinnedBackground returns the displayable payload of the room background:
// the image name for image backgrounds, the map payload for map backgrounds,
// an empty string when nothing is pinned.
func (s *Service) PinnedBackground(ctx context.Context, roomId string) (interface{}, error) {
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	items, err := s.persister.GetPinnedItems(roomId)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Type != types.PinTypeBackground {
			continue
		}
		switch item.SubType {
		case types.SubTypeImage:
			return item.Name, nil
		case types.SubTypeMap:
			return item.MapData, nil
		}
	}
	return "", nil
}

func (s *Service) verifyLockedOwner(roomId, wallet string) error {
	owner, err := s.lockedOwnerAddress(roomId)
	if err != nil {
		return err
	}
	if owner != "" && owner != strings.ToLower(wallet) {
		return fmt.Errorf("unauthorized user for locked room: %w", ErrUnauthorized)
	}
	return nil
}

func (s *Service) lockedOwnerAddress(roomId string) (string, error) {
	if owner, ok := s.lockedRooms.Get(roomId); ok {
		return owner.(string), nil
	}
	room := &types.Room{Id: roomId}
	err := s.persister.GetRoom(room)
	if errors.Is(err, persistence.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if room.IsLocked && room.LockedOwnerAddress != "" {
		owner := strings.ToLower(room.LockedOwnerAddress)
		s.lockedRooms.Add(roomId, owner)
		return owner, nil
	}
	return "", nil
}
