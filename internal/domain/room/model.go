package room

import (
	"time"

	"github.com/google/uuid"
)

// Status reflects staff availability for a room, independent of queue
// content.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusPaused Status = "PAUSED"
	StatusClosed Status = "CLOSED"
)

// ValidStatus reports whether s is one of the known room states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusPaused, StatusClosed:
		return true
	}
	return false
}

// Room maps to the room table.
type Room struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ClinicID    uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
