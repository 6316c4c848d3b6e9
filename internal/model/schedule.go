package model

import "time"

// Schedule is one dated and timed occurrence of a performance.
// A schedule belongs to exactly one performance, and its total seat
// count never decreases once reservations exist against it.
//
// Fields:
//  ID             – primary key identifier (UUID string).
//  PerformanceID  – owning performance.
//  ShowDate       – calendar date of the show ("2006-01-02").
//  ShowTime       – curtain time of the show ("15:04").
//  TotalSeats     – seats available for sale.
//  CommittedSeats – seats currently counted against capacity, i.e. the
//                   sum of seat counts of PENDING and CONFIRMED
//                   reservations. Maintained atomically alongside
//                   reservation transitions.
//  EntryURL       – optional link telling attendees how to enter;
//                   frozen once entry reminders have gone out.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Schedule struct {
	ID             string    // schedules.id
	PerformanceID  string    // schedules.performance_id
	ShowDate       string    // schedules.show_date
	ShowTime       string    // schedules.show_time
	TotalSeats     int       // schedules.total_seats
	CommittedSeats int       // schedules.committed_seats
	EntryURL       *string   // schedules.entry_url (nullable)
	CreatedAt      time.Time // schedules.created_at
	UpdatedAt      time.Time // schedules.updated_at
}

// RemainingSeats reports how many seats may still be admitted.
func (s Schedule) RemainingSeats() int {
	if s.CommittedSeats >= s.TotalSeats {
		return 0
	}
	return s.TotalSeats - s.CommittedSeats
}
