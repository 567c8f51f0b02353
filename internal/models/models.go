package models

import "time"

// Connection statuses. Rejection removes the record instead of storing a
// terminal status, so these two values are the only ones ever persisted.
const (
	ConnectionStatusPending   = "pending"
	ConnectionStatusConnected = "connected"
)

// Connection records a relationship between two users: a directed request from
// the requester and, once accepted, a bidirectional link. The field tags match
// the persisted collection layout.
type Connection struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requester_id"`
	RecipientID string     `json:"recipient_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
}

// Pairs reports whether the connection links the two given users, in either
// role ordering.
func (c Connection) Pairs(a, b string) bool {
	return (c.RequesterID == a && c.RecipientID == b) ||
		(c.RequesterID == b && c.RecipientID == a)
}

// Involves reports whether the user participates in the connection.
func (c Connection) Involves(userID string) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}

// Peer returns the identifier of the other participant.
func (c Connection) Peer(userID string) string {
	if c.RequesterID == userID {
		return c.RecipientID
	}
	return c.RequesterID
}

// User is the slice of a directory account the connection subsystem reads.
type User struct {
	ID          string
	DisplayName string
}

// Profile carries the display attributes looked up for listing enrichment.
type Profile struct {
	UserID    string
	AvatarRef string
}

// Skill is a single named skill attached to a user.
type Skill struct {
	Name string
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken     string
	AccessExpiresAt time.Time
}
