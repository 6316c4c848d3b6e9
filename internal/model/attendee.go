package model

import "time"

// Attendee is one seat occupant derived from a confirmed reservation.
// Attendees are materialized in bulk exactly once per reservation and
// deleted in bulk when the owning reservation is cancelled. The
// checked-in flag is flipped by the door check-in operation.
//
// Fields:
//  ID            – primary key identifier (UUID string).
//  ReservationID – owning reservation.
//  PerformanceID – denormalized performance reference.
//  ScheduleID    – denormalized schedule reference.
//  DisplayName   – requester name for the first occupant, a derived
//                  companion label for the rest.
//  Note          – requester note, copied to the first occupant only.
//  CheckedIn     – whether the attendee has entered the venue.
//  CreatedAt     – creation timestamp.
type Attendee struct {
	ID            string    // attendees.id
	ReservationID string    // attendees.reservation_id
	PerformanceID string    // attendees.performance_id
	ScheduleID    string    // attendees.schedule_id
	DisplayName   string    // attendees.display_name
	Note          string    // attendees.note
	CheckedIn     bool      // attendees.checked_in
	CreatedAt     time.Time // attendees.created_at
}
