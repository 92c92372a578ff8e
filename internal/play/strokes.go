package play

import "sync"

// StrokeBoard tracks which client of a room is drawing. Only one stroke may
// be in flight per room.
type StrokeBoard struct {
	mu       sync.RWMutex
	clientID string
	playerID string
}

func NewStrokeBoard() *StrokeBoard {
	return &StrokeBoard{}
}

// Claim gives the stroke to clientID unless another client holds it.
func (sb *StrokeBoard) Claim(clientID, playerID string) bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.clientID != "" && sb.clientID != clientID {
		return false
	}
	sb.clientID = clientID
	sb.playerID = playerID
	return true
}

// Owns reports whether clientID holds the stroke.
func (sb *StrokeBoard) Owns(clientID string) bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.clientID != "" && sb.clientID == clientID
}

// Release frees the stroke if clientID holds it and reports whether it did.
func (sb *StrokeBoard) Release(clientID string) bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.clientID != clientID {
		return false
	}
	sb.clientID = ""
	sb.playerID = ""
	return true
}

// Reset frees the stroke whoever holds it.
func (sb *StrokeBoard) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.clientID = ""
	sb.playerID = ""
}

// Owner returns the player drawing, or an empty string.
func (sb *StrokeBoard) Owner() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.playerID
}
