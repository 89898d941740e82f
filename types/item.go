package types

import (
	"time"

	"gorm.io/datatypes"
)

// Pin types of board items. Background is a singleton per room, every other
// type is keyed individually.
const (
	PinTypeGif        = "gif"
	PinTypeImage      = "image"
	PinTypeText       = "text"
	PinTypeBackground = "background"
	PinTypeNFT        = "NFT"
	PinTypeChat       = "chat"
)

// Background sub types.
const (
	SubTypeImage = "image"
	SubTypeMap   = "map"
)

// BackgroundKey is the fixed document key under which the single background
// item of a room is upserted.
const BackgroundKey = "background"

// Order is a marketplace order attached to a pinned NFT.
type Order struct {
	Id              string `json:"id" mapstructure:"id"`
	OwnerAddress    string `json:"ownerAddress" mapstructure:"ownerAddress"`
	PriceEth        string `json:"priceEth" mapstructure:"priceEth"`
	TokenId         int64  `json:"tokenId" mapstructure:"tokenId"`
	ContractAddress string `json:"contractAddress" mapstructure:"contractAddress"`
	IsPartnered     bool   `json:"isPartnered" mapstructure:"isPartnered"`
}

// PinnedItem is a room decoration persisted per room and visible to all
// future visitors. Top/Left are viewport fractions, never pixels; the
// display layer denormalizes per viewer.
type PinnedItem struct {
	RoomId   string         `json:"-" gorm:"primaryKey" mapstructure:"-"`
	DocKey   string         `json:"-" gorm:"primaryKey" mapstructure:"-"`
	Key      string         `json:"key,omitempty" mapstructure:"key"`
	Type     string         `json:"type" mapstructure:"type"`
	Top      float64        `json:"top" mapstructure:"top"`
	Left     float64        `json:"left" mapstructure:"left"`
	IsPinned bool           `json:"isPinned" mapstructure:"isPinned"`
	Data     datatypes.JSON `json:"data,omitempty" mapstructure:"-"`       // gif: raw provider gif object
	URL      string         `json:"url,omitempty" mapstructure:"url"`      // image
	Text     string         `json:"text,omitempty" mapstructure:"text"`    // text
	Name     string         `json:"name,omitempty" mapstructure:"name"`    // background image name or url
	SubType  string         `json:"subType,omitempty" mapstructure:"subType"`
	MapData  *MapData       `json:"mapData,omitempty" mapstructure:"mapData"`
	Order    *Order         `json:"order,omitempty" gorm:"embedded;embeddedPrefix:order_" mapstructure:"order"`

	CreatedAt time.Time `json:"-" mapstructure:"-"`
	UpdatedAt time.Time `json:"-" mapstructure:"-"`
}

// StoreKey returns the document key an item is upserted under: the fixed
// background key for backgrounds, the order id for NFTs, the item key
// otherwise.
func (i *PinnedItem) StoreKey() string {
	switch i.Type {
	case PinTypeBackground:
		return BackgroundKey
	case PinTypeNFT:
		if i.Order != nil && i.Order.Id != "" {
			return i.Order.Id
		}
	}
	return i.Key
}
