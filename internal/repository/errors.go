// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers to
// distinguish between failure scenarios without inspecting SQL errors:
// per-entity not-found values, ErrDuplicateID for a violated
// create-if-absent write, and ErrSeatShortage when the atomic seat
// grab finds insufficient capacity.
package repository

import "errors"

// ErrPerformanceNotFound indicates that no performance row matched.
var ErrPerformanceNotFound = errors.New("performance not found")

// ErrScheduleNotFound indicates that no schedule row matched.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrReservationNotFound indicates that no reservation row matched.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrAttendeeNotFound indicates that no attendee row matched.
var ErrAttendeeNotFound = errors.New("attendee not found")

// ErrDuplicateID is returned when a create-if-absent insert collides
// with an existing primary key. Admission treats this as a retried
// write and aborts without double-counting seats.
var ErrDuplicateID = errors.New("duplicate identifier")

// ErrSeatShortage is returned by ScheduleRepo.GrabSeats when the
// conditional increment of committed seats finds fewer free seats
// than requested. No state is changed in that case.
var ErrSeatShortage = errors.New("insufficient seats")
