package model

import "time"

// Performance represents a production for which scheduled shows are
// sold. Performances are provisioned out of band and are never
// deleted by this service; administrative edits flow through the
// capacity guard only.
//
// Fields:
//  ID                 – primary key identifier (UUID string).
//  Title              – public title of the production.
//  ReservationOpensAt – instant from which admissions are accepted.
//  MaxActive          – per-requester cap on non-terminal reservations
//                       across all schedules of this performance.
//  AdminSecretHash    – bcrypt hash of the shared administrative secret.
//  SurveyURL          – optional post-show survey link.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Performance struct {
	ID                 string    // performances.id
	Title              string    // performances.title
	ReservationOpensAt time.Time // performances.reservation_opens_at
	MaxActive          int       // performances.max_active
	AdminSecretHash    string    // performances.admin_secret_hash
	SurveyURL          *string   // performances.survey_url (nullable)
	CreatedAt          time.Time // performances.created_at
	UpdatedAt          time.Time // performances.updated_at
}
