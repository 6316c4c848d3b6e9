package config

import "time"

// Policy gathers the business constants that used to be scattered
// across handlers: the duplicate-reservation threshold, the hold
// expiration window, the venue capacity ceiling and batch sizes.
// Admission, the capacity guard and the expiration reaper all consume
// the same instance, so changing a rule happens in one place.
type Policy struct {
	// MaxActivePerPerformance caps how many non-terminal reservations
	// one requester may hold across all schedules of a performance.
	MaxActivePerPerformance int
	// HoldTTL is how long a PENDING reservation survives without
	// confirmation before the reaper expires it.
	HoldTTL time.Duration
	// VenueCapacity is the hard ceiling on any schedule's total seats.
	VenueCapacity int
	// AttendeeDeleteBatch bounds bulk attendee deletion chunks.
	AttendeeDeleteBatch int
	// ReaperInterval is how often the expiration sweep runs.
	ReaperInterval time.Duration
	// MailInterval is how often the reminder and survey mailers run.
	MailInterval time.Duration
}

// DefaultPolicy returns the production rule set. The duplicate
// threshold of two and the one-hour hold window are fixed policy, not
// per-performance settings.
func DefaultPolicy() Policy {
	return Policy{
		MaxActivePerPerformance: 2,
		HoldTTL:                 time.Hour,
		VenueCapacity:           500,
		AttendeeDeleteBatch:     25,
		ReaperInterval:          5 * time.Minute,
		MailInterval:            time.Hour,
	}
}
