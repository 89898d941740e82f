package types

import (
	"time"
)

// this is basically identified with one hub, it is just a logical separation
type Room struct {
	Id                 string    `json:"name" gorm:"primaryKey"`
	IsLocked           bool      `json:"isLocked"`
	LockedOwnerAddress string    `json:"lockedOwnerAddress,omitempty"`
	ContractAddress    string    `json:"contractAddress,omitempty"`
	CreatedAt          time.Time `json:"-"`
	UpdatedAt          time.Time `json:"-"`
}

// DefaultRoomId is the room every connection lands in when no room is named.
const DefaultRoomId = "default"
