package booking

import (
	"context"
	"crypto/rand"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stagedoor/theatre-ticket-reservation/internal/alert"
	"github.com/stagedoor/theatre-ticket-reservation/internal/config"
	"github.com/stagedoor/theatre-ticket-reservation/internal/mail"
	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
	"github.com/stagedoor/theatre-ticket-reservation/internal/token"
)

// AdmissionRequest carries one reservation attempt.
type AdmissionRequest struct {
	PerformanceID string
	ScheduleID    string
	Name          string
	Email         string
	SeatCount     int
	Note          string
}

// AdmissionResult is returned to the requester on success. The
// confirmation code is a human-readable reference communicated out of
// band; it plays no part in the cryptographic handshake.
type AdmissionResult struct {
	ReservationID    string
	ConfirmationCode string
}

// Admission admits or rejects new reservations. Checks run in order
// and the first failure short-circuits: performance exists, sales are
// open, the duplicate/cap policy passes, and the seats fit. The seat
// check is an atomic conditional grab on the schedule's committed
// counter, so two interleaved admissions can never oversell.
type Admission struct {
	performances PerformanceStore
	schedules    ScheduleStore
	reservations ReservationStore
	policy       config.Policy
	signer       *token.Signer
	templates    mail.TemplateSource
	sender       mail.Sender
	alerts       alert.Sink
	confirmBase  string
	now          func() time.Time
}

// NewAdmission wires an Admission. confirmBase is the external URL
// the confirmation link is built on.
func NewAdmission(
	performances PerformanceStore,
	schedules ScheduleStore,
	reservations ReservationStore,
	policy config.Policy,
	signer *token.Signer,
	templates mail.TemplateSource,
	sender mail.Sender,
	alerts alert.Sink,
	confirmBase string,
) *Admission {
	return &Admission{
		performances: performances,
		schedules:    schedules,
		reservations: reservations,
		policy:       policy,
		signer:       signer,
		templates:    templates,
		sender:       sender,
		alerts:       alerts,
		confirmBase:  confirmBase,
		now:          time.Now,
	}
}

// Admit runs the admission pipeline and persists a PENDING
// reservation. On success one reservation row exists, the schedule's
// committed counter includes its seats, and a confirmation email with
// the HMAC link has been handed to the sender.
func (a *Admission) Admit(ctx context.Context, req AdmissionRequest) (*AdmissionResult, error) {
	if err := validateAdmission(req); err != nil {
		return nil, err
	}

	perf, err := a.performances.GetByID(ctx, req.PerformanceID)
	if err != nil {
		return nil, notFoundOr(err, "performance not found")
	}
	if a.now().Before(perf.ReservationOpensAt) {
		return nil, E(CodeNotOpen, "reservations are not open yet")
	}

	sched, err := a.schedules.GetByID(ctx, req.ScheduleID)
	if err != nil {
		return nil, notFoundOr(err, "schedule not found")
	}
	if sched.PerformanceID != perf.ID {
		return nil, E(CodeNotFound, "schedule does not belong to performance")
	}

	// Duplicate/cap policy: per-schedule first, then the
	// per-performance threshold. Both count non-terminal rows only.
	dup, err := a.reservations.HasActiveForSchedule(ctx, sched.ID, req.Email)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, E(CodeDuplicateSchedule, "an active reservation for this schedule already exists")
	}
	active, err := a.reservations.CountActiveByRequester(ctx, perf.ID, req.Email)
	if err != nil {
		return nil, err
	}
	if active >= a.policy.MaxActivePerPerformance {
		return nil, E(CodeCapReached, "reservation limit for this performance reached")
	}

	// Atomic seat grab. From here on any failure must release.
	if err := a.schedules.GrabSeats(ctx, sched.ID, req.SeatCount); err != nil {
		return nil, seatOr(err)
	}

	code, err := confirmationCode()
	if err != nil {
		a.release(ctx, sched.ID, req.SeatCount)
		return nil, err
	}
	rec := &model.Reservation{
		ID:               uuid.NewString(),
		PerformanceID:    perf.ID,
		ScheduleID:       sched.ID,
		RequesterName:    req.Name,
		RequesterEmail:   req.Email,
		SeatCount:        req.SeatCount,
		Note:             req.Note,
		Status:           model.StatusPending,
		ConfirmationCode: code,
	}
	if err := a.reservations.Create(ctx, rec); err != nil {
		a.release(ctx, sched.ID, req.SeatCount)
		return nil, err
	}

	a.sendConfirmRequest(perf, sched, rec)

	slog.Info("reservation admitted",
		"reservation", rec.ID, "schedule", sched.ID, "seats", req.SeatCount)
	return &AdmissionResult{ReservationID: rec.ID, ConfirmationCode: code}, nil
}

func (a *Admission) release(ctx context.Context, scheduleID string, n int) {
	if err := a.schedules.ReleaseSeats(ctx, scheduleID, n); err != nil {
		// The reconciliation sweep will repair the counter.
		a.alerts.Alert("admission", alert.SeverityCritical,
			"failed to release seats after aborted admission on schedule "+scheduleID+": "+err.Error())
	}
}

// sendConfirmRequest hands the confirmation mail to the sender.
// Delivery is fire-and-forget; a failure is logged and alerted but
// never fails the admission.
func (a *Admission) sendConfirmRequest(perf *model.Performance, sched *model.Schedule, rec *model.Reservation) {
	text, err := a.templates.Template("confirm_request")
	if err != nil {
		a.alerts.Alert("admission", alert.SeverityWarning, "confirm template unavailable: "+err.Error())
		return
	}
	rendered := mail.Render(text, map[string]string{
		"name":        rec.RequesterName,
		"title":       perf.Title,
		"date":        sched.ShowDate,
		"time":        sched.ShowTime,
		"seats":       strconv.Itoa(rec.SeatCount),
		"code":        rec.ConfirmationCode,
		"confirmLink": a.signer.ConfirmLink(a.confirmBase, rec.ID, rec.RequesterEmail),
	})
	subject, body := mail.Subject(rendered)
	if err := a.sender.Send(mail.Message{To: rec.RequesterEmail, Subject: subject, Body: body}); err != nil {
		slog.Error("confirmation mail send failed", "reservation", rec.ID, "error", err)
		a.alerts.Alert("admission", alert.SeverityWarning, "confirmation mail failed for "+rec.ID)
	}
}

func validateAdmission(req AdmissionRequest) error {
	switch {
	case strings.TrimSpace(req.PerformanceID) == "" || strings.TrimSpace(req.ScheduleID) == "":
		return E(CodeInvalidInput, "performance and schedule are required")
	case strings.TrimSpace(req.Name) == "":
		return E(CodeInvalidInput, "name is required")
	case !strings.Contains(req.Email, "@"):
		return E(CodeInvalidInput, "a valid email address is required")
	case req.SeatCount < 1:
		return E(CodeInvalidInput, "seat count must be at least 1")
	}
	return nil
}

// confirmationCode returns an 8-character code over an alphabet with
// the ambiguous characters removed, suitable for reading out loud at
// the box office.
func confirmationCode() (string, error) {
	const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b), nil
}
