package persistence

import (
	"errors"
	"fmt"

	"github.com/tcriess/lightspeed-board/config"
	"github.com/tcriess/lightspeed-board/types"
)

// ErrNotFound is returned for lookups of absent rooms or pinned items,
// regardless of the backend.
var ErrNotFound = errors.New("not found")

type Persister interface {
	StoreRoom(types.Room) error
	GetRoom(*types.Room) error
	GetRooms() ([]*types.Room, error)
	StorePinnedItem(types.PinnedItem) error
	GetPinnedItem(roomId, docKey string) (*types.PinnedItem, error)
	GetPinnedItems(roomId string) ([]*types.PinnedItem, error)
	DeletePinnedItem(roomId, docKey string) error
	UpdatePinnedItemPosition(roomId, docKey string, top, left float64) error
	Close() error
}

// NewPersister picks the backend from the configuration. A nil persister
// (no configuration) is valid, the caller then runs without persistence.
func NewPersister(cfg *config.Config) (Persister, error) {
	switch cfg.PersistenceConfig.Type {
	case "":
		return nil, nil

	case "sqlite", "postgres":
		return NewGormPersister(cfg)

	case "buntdb":
		return NewBuntPersister(cfg)

	default:
		return nil, fmt.Errorf("unknown persistence type %q", cfg.PersistenceConfig.Type)
	}
}
