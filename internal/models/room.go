package models

// Game identifiers used in keys and events
const (
	GameCrocodile = "crocodile"
	GameSpy       = "spy"
)

// Player is a member of a room
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// Roster is the stored membership of a room, in join order
type Roster struct {
	Players []Player `json:"players"`
}

// Upsert inserts the player or overwrites an existing entry with the same id in place.
// It reports whether the player was newly added.
func (r *Roster) Upsert(p Player) bool {
	for i := range r.Players {
		if r.Players[i].ID == p.ID {
			r.Players[i] = p
			return false
		}
	}
	r.Players = append(r.Players, p)
	return true
}

// Remove drops the player with the given id and reports whether it was present
func (r *Roster) Remove(playerID string) bool {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the player with the given id
func (r *Roster) Find(playerID string) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// IsValidGame reports whether id names a supported game
func IsValidGame(id string) bool {
	return id == GameCrocodile || id == GameSpy
}
