package credentials

import (
	"fmt"

	"partyrooms/internal/game"
)

// RoomCodeSpace is the number of distinct room codes
const RoomCodeSpace = 1000

// GenerateRoomCode draws a zero-padded 3-digit room code
func GenerateRoomCode(r game.Rand) string {
	return fmt.Sprintf("%03d", r.IntN(RoomCodeSpace))
}
