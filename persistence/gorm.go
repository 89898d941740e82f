package persistence

import (
	"errors"
	"fmt"

	"github.com/tcriess/lightspeed-board/config"
	"github.com/tcriess/lightspeed-board/types"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormPersist struct {
	db *gorm.DB
}

func NewGormPersister(cfg *config.Config) (Persister, error) {
	db, err := setupGormDB(cfg)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, nil // no or wrong configuration, ignore the persister
	}
	p := GormPersist{db: db}
	return &p, nil
}

func setupGormDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.PersistenceConfig.DSN == "" {
		return nil, nil
	}
	var dial gorm.Dialector
	switch cfg.PersistenceConfig.Type {
	case "postgres":
		dial = postgres.Open(cfg.PersistenceConfig.DSN)

	case "sqlite":
		dial = sqlite.Open(cfg.PersistenceConfig.DSN)

	default:
		return nil, fmt.Errorf("invalid gorm configuration")
	}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	err = db.Migrator().AutoMigrate(&types.Room{}, &types.PinnedItem{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p *GormPersist) StoreRoom(room types.Room) error {
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&room).Error
}

func (p *GormPersist) GetRoom(room *types.Room) error {
	err := p.db.First(room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (p *GormPersist) GetRooms() ([]*types.Room, error) {
	rooms := make([]*types.Room, 0)
	err := p.db.Find(&rooms).Error
	return rooms, err
}

func (p *GormPersist) StorePinnedItem(item types.PinnedItem) error {
	item.DocKey = item.StoreKey()
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&item).Error
}

func (p *GormPersist) GetPinnedItem(roomId, docKey string) (*types.PinnedItem, error) {
	item := types.PinnedItem{}
	err := p.db.Where(&types.PinnedItem{RoomId: roomId, DocKey: docKey}).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (p *GormPersist) GetPinnedItems(roomId string) ([]*types.PinnedItem, error) {
	items := make([]*types.PinnedItem, 0)
	err := p.db.Where(&types.PinnedItem{RoomId: roomId}).Find(&items).Error
	return items, err
}

// DeletePinnedItem is idempotent, deleting an absent key is not an error.
func (p *GormPersist) DeletePinnedItem(roomId, docKey string) error {
	return p.db.Delete(&types.PinnedItem{RoomId: roomId, DocKey: docKey}).Error
}

func (p *GormPersist) UpdatePinnedItemPosition(roomId, docKey string, top, left float64) error {
	res := p.db.Model(&types.PinnedItem{RoomId: roomId, DocKey: docKey}).
		Updates(map[string]interface{}{"top": top, "left": left})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *GormPersist) Close() error {
	return nil
}
