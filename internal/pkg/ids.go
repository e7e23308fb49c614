package pkg

import "github.com/google/uuid"

const (
	roomCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	RoomCodeLength  = 4
)

// GenerateRoomCode - generates a 4 uppercase letter room code. Collisions are checked by the caller.
func GenerateRoomCode(src Source) string {
	code := make([]byte, RoomCodeLength)
	for i := range code {
		code[i] = roomCodeLetters[src.IntN(len(roomCodeLetters))]
	}

	return string(code)
}

// GenerateSessionID - generates an opaque participant handle.
func GenerateSessionID() string {
	return uuid.NewString()
}
