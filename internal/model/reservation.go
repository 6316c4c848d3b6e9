package model

import "time"

// Reservation statuses. PENDING is the tentative hold created at
// admission time; CONFIRMED is the terminal-success state reached via
// the email confirmation handshake; CANCELLED and EXPIRED are
// terminal. No transition leads out of a terminal state.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

// Reservation records a request for SeatCount seats at one schedule
// by one requester. Reservations are never physically deleted;
// terminal records remain for auditing and duplicate checks.
//
// Fields:
//  ID               – primary key identifier (UUID string).
//  PerformanceID    – performance the schedule belongs to.
//  ScheduleID       – schedule being reserved.
//  RequesterName    – name of the person reserving.
//  RequesterEmail   – email address used for the confirmation
//                     handshake and duplicate checks.
//  SeatCount        – number of seats requested; immutable once set.
//  Note             – free-text note from the requester.
//  Status           – state machine value (see constants above).
//  ConfirmationCode – short human-readable code returned to the
//                     requester out of band; not part of the
//                     cryptographic handshake.
//  ReminderSent     – idempotency flag for the entry reminder email.
//  SurveySent       – idempotency flag for the post-show survey email.
//  CreatedAt        – creation timestamp; drives hold expiration.
//  UpdatedAt        – last transition timestamp.
type Reservation struct {
	ID               string    // reservations.id
	PerformanceID    string    // reservations.performance_id
	ScheduleID       string    // reservations.schedule_id
	RequesterName    string    // reservations.requester_name
	RequesterEmail   string    // reservations.requester_email
	SeatCount        int       // reservations.seat_count
	Note             string    // reservations.note
	Status           string    // reservations.status
	ConfirmationCode string    // reservations.confirmation_code
	ReminderSent     bool      // reservations.reminder_sent
	SurveySent       bool      // reservations.survey_sent
	CreatedAt        time.Time // reservations.created_at
	UpdatedAt        time.Time // reservations.updated_at
}

// Active reports whether the reservation occupies seats, i.e. is in a
// non-terminal state counted against schedule capacity.
func (r Reservation) Active() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}
