// Package queue defines message payloads exchanged over the message
// broker: reservation lifecycle events for downstream consumers,
// outbound email for the delivery worker and operator alerts.
package queue

// Queue names. All queues are durable and live on the default
// exchange with the routing key equal to the queue name.
const (
	ReservationConfirmedQueue = "reservation.confirmed"
	ReservationCancelledQueue = "reservation.cancelled"
	EmailOutboundQueue        = "email.outbound"
	OpsAlertQueue             = "ops.alert"
)

// ReservationEvent is published when a reservation is confirmed or
// cancelled. It carries enough information for downstream consumers
// to log, notify or feed analytics without querying the primary
// database.
type ReservationEvent struct {
	ReservationID    string `json:"reservation_id"`
	PerformanceID    string `json:"performance_id"`
	PerformanceTitle string `json:"performance_title,omitempty"`
	ScheduleID       string `json:"schedule_id"`
	ShowDate         string `json:"show_date,omitempty"`
	ShowTime         string `json:"show_time,omitempty"`
	RequesterName    string `json:"requester_name"`
	RequesterEmail   string `json:"requester_email"`
	SeatCount        int    `json:"seat_count"`
	Status           string `json:"status"`
	OccurredAt       string `json:"occurred_at"`
}

// EmailEvent is one outbound email handed to the delivery worker.
type EmailEvent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// AlertEvent is one operator alert.
type AlertEvent struct {
	Component string `json:"component"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	RaisedAt  string `json:"raised_at"`
}
