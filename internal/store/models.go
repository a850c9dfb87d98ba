package store

import "time"

type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// DraftRecord is one queued-but-unsaved entity, snapshotted so a gateway
// restart does not lose a user's unsaved work.
type DraftRecord struct {
	EntityID   string
	UserID     string
	Collection string
	Position   int
	Fields     map[string]string
	Media      []DraftMedia
	UpdatedAt  time.Time
}

type DraftMedia struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// SyncEvent is one line of the sync audit log: a create/update/delete
// attempt against the upstream backend and its outcome.
type SyncEvent struct {
	ID         string
	UserID     string
	Collection string
	EntityID   string
	Action     string
	Outcome    string
	Message    string
	CreatedAt  time.Time
}
