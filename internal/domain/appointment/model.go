package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is an appointment's lifecycle state.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

// transitions is the allowed lifecycle graph. Terminal states have no entry.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusCheckedIn, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && ValidStatus(s)
}

// CanTransitionTo reports whether the lifecycle graph allows moving from s
// to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Waiting reports whether an appointment in this state occupies a room queue.
func (s Status) Waiting() bool {
	return s == StatusScheduled || s == StatusCheckedIn
}

// Source records how an appointment was booked.
type Source string

const (
	SourceWalkIn Source = "WALK_IN"
	SourcePhone  Source = "PHONE"
	SourceOnline Source = "ONLINE"
	SourceApp    Source = "APP"
)

// ValidSource reports whether src is one of the known booking sources.
func ValidSource(src Source) bool {
	switch src {
	case SourceWalkIn, SourcePhone, SourceOnline, SourceApp:
		return true
	}
	return false
}

// Appointment maps to the appointment table. Status only changes through the
// transition operation; checkin_time, start_time and end_time are each set
// once, on first entry into the corresponding state.
type Appointment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ClinicID          uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID          *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	RoomID            *uuid.UUID `db:"room_id" json:"room_id,omitempty"`
	AppointmentNumber *int       `db:"appointment_number" json:"appointment_number,omitempty"`
	AppointmentTime   *time.Time `db:"appointment_time" json:"appointment_time,omitempty"`
	CheckinTime       *time.Time `db:"checkin_time" json:"checkin_time,omitempty"`
	StartTime         *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime           *time.Time `db:"end_time" json:"end_time,omitempty"`
	Status            Status     `db:"status" json:"status"`
	Source            Source     `db:"source" json:"source"`
	Note              *string    `db:"note" json:"note,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
