package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tcriess/lightspeed-board/config"
	"github.com/tcriess/lightspeed-board/types"
	"github.com/tidwall/buntdb"
)

// BuntDBPersist is a lightweight single-file alternative to the gorm
// backends. Rooms are stored under "room:<id>", pinned items under
// "pin:<roomId>:<docKey>".
type BuntDBPersist struct {
	db *buntdb.DB
}

func NewBuntPersister(cfg *config.Config) (Persister, error) {
	if cfg.PersistenceConfig.DSN == "" {
		return nil, nil // no or wrong configuration, ignore the persister
	}
	db, err := buntdb.Open(cfg.PersistenceConfig.DSN)
	if err != nil {
		return nil, err
	}
	return &BuntDBPersist{db}, nil
}

func pinKey(roomId, docKey string) string {
	return "pin:" + roomId + ":" + docKey
}

func (p *BuntDBPersist) StoreRoom(room types.Room) error {
	r, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set("room:"+room.Id, string(r), nil)
		return err
	})
}

func (p *BuntDBPersist) GetRoom(room *types.Room) error {
	if room.Id == "" {
		return fmt.Errorf("no room id")
	}
	return p.db.View(func(tx *buntdb.Tx) error {
		r, err := tx.Get("room:" + room.Id)
		if errors.Is(err, buntdb.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(r), room)
	})
}

func (p *BuntDBPersist) GetRooms() ([]*types.Room, error) {
	rooms := make([]*types.Room, 0)
	err := p.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("room:*", func(key, val string) bool {
			room := &types.Room{}
			if err := json.Unmarshal([]byte(val), room); err == nil {
				rooms = append(rooms, room)
			}
			return true
		})
	})
	return rooms, err
}

func (p *BuntDBPersist) StorePinnedItem(item types.PinnedItem) error {
	item.DocKey = item.StoreKey()
	i, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(pinKey(item.RoomId, item.DocKey), string(i), nil)
		return err
	})
}

func (p *BuntDBPersist) GetPinnedItem(roomId, docKey string) (*types.PinnedItem, error) {
	item := &types.PinnedItem{}
	err := p.db.View(func(tx *buntdb.Tx) error {
		i, err := tx.Get(pinKey(roomId, docKey))
		if errors.Is(err, buntdb.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(i), item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (p *BuntDBPersist) GetPinnedItems(roomId string) ([]*types.PinnedItem, error) {
	items := make([]*types.PinnedItem, 0)
	prefix := pinKey(roomId, "")
	err := p.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(key, val string) bool {
			if !strings.HasPrefix(key, prefix) {
				return true
			}
			item := &types.PinnedItem{}
			if err := json.Unmarshal([]byte(val), item); err == nil {
				items = append(items, item)
			}
			return true
		})
	})
	return items, err
}

func (p *BuntDBPersist) DeletePinnedItem(roomId, docKey string) error {
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(pinKey(roomId, docKey))
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil // idempotent
		}
		return err
	})
}

func (p *BuntDBPersist) UpdatePinnedItemPosition(roomId, docKey string, top, left float64) error {
	return p.db.Update(func(tx *buntdb.Tx) error {
		i, err := tx.Get(pinKey(roomId, docKey))
		if errors.Is(err, buntdb.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		item := types.PinnedItem{}
		if err := json.Unmarshal([]byte(i), &item); err != nil {
			return err
		}
		item.Top = top
		item.Left = left
		updated, err := json.Marshal(item)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(pinKey(roomId, docKey), string(updated), nil)
		return err
	})
}

func (p *BuntDBPersist) Close() error {
	return p.db.Close()
}
