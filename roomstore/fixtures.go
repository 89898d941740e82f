package roomstore

import "github.com/tcriess/lightspeed-board/types"

// Canned fixture data served on the room read/list paths outside production
// mode, so local development works without a persister or chain endpoint.

func fixtureRoom(roomId string) *types.Room {
	return &types.Room{Id: types.DefaultRoomId}
}

func fixtureRooms() []*types.Room {
	return []*types.Room{{Id: "test"}}
}
