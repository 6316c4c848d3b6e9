// Package worker wires the periodic background tasks onto asynq:
// the expiration reaper, the attendee/counter reconciliation sweep
// and the reminder and survey mailers. All tasks are idempotent, so
// an at-least-once redelivery is harmless.
package worker

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stagedoor/theatre-ticket-reservation/internal/alert"
	"github.com/stagedoor/theatre-ticket-reservation/internal/booking"
	"github.com/stagedoor/theatre-ticket-reservation/internal/mail"
	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
)

// Task type names registered with the scheduler.
const (
	TypeReaperSweep       = "reaper:sweep"
	TypeAttendeeReconcile = "attendee:reconcile"
	TypeReminderMail      = "mail:reminder"
	TypeSurveyMail        = "mail:survey"
)

// PerformanceSource is the slice of the performance repository the
// mailers read from.
type PerformanceSource interface {
	GetByID(ctx context.Context, id string) (*model.Performance, error)
	ListWithSurvey(ctx context.Context) ([]model.Performance, error)
}

// ScheduleSource is the slice of the schedule repository the sweeps
// need, including the drift audit's conditional repair.
type ScheduleSource interface {
	ListOccurringOn(ctx context.Context, day string) ([]model.Schedule, error)
	ListEndedBefore(ctx context.Context, performanceID string, t time.Time) ([]model.Schedule, error)
	ListCounterDrift(ctx context.Context) ([]repository.DriftRow, error)
	RepairCommitted(ctx context.Context, id string, from, to int) (bool, error)
}

// ReservationSource is the slice of the reservation repository the
// mailers and the reconciliation sweep need.
type ReservationSource interface {
	ListConfirmedWithoutAttendees(ctx context.Context) ([]model.Reservation, error)
	ListConfirmedNeedingReminder(ctx context.Context, scheduleID string) ([]model.Reservation, error)
	ListConfirmedNeedingSurvey(ctx context.Context, scheduleID string) ([]model.Reservation, error)
	MarkReminderSent(ctx context.Context, id string) error
	MarkSurveySent(ctx context.Context, id string) error
}

// Handlers bundles the collaborators the background tasks need. The
// source interfaces are satisfied by the repository types.
type Handlers struct {
	Reaper       *booking.Reaper
	Materializer *booking.Materializer
	Performances PerformanceSource
	Schedules    ScheduleSource
	Reservations ReservationSource
	Templates    mail.TemplateSource
	Sender       mail.Sender
	Alerts       alert.Sink
}

// HandleReaperSweep expires stale tentative holds.
func (h *Handlers) HandleReaperSweep(ctx context.Context, _ *asynq.Task) error {
	n, err := h.Reaper.Sweep(ctx)
	if err != nil {
		h.Alerts.Alert("reaper", alert.SeverityCritical, "sweep failed: "+err.Error())
		return err
	}
	slog.Debug("reaper sweep done", "expired", n)
	return nil
}

// HandleAttendeeReconcile catches up materialization for confirmed
// reservations that have no attendee rows (a crash between the status
// flip and the expansion) and audits the committed-seats counters.
func (h *Handlers) HandleAttendeeReconcile(ctx context.Context, _ *asynq.Task) error {
	missing, err := h.Reservations.ListConfirmedWithoutAttendees(ctx)
	if err != nil {
		h.Alerts.Alert("reconcile", alert.SeverityCritical, "listing unmaterialized reservations failed: "+err.Error())
		return err
	}
	for i := range missing {
		if _, err := h.Materializer.Materialize(ctx, &missing[i]); err != nil {
			h.Alerts.Alert("reconcile", alert.SeverityCritical,
				"catch-up materialization failed for "+missing[i].ID+": "+err.Error())
		}
	}

	drift, err := h.Schedules.ListCounterDrift(ctx)
	if err != nil {
		return err
	}
	for _, d := range drift {
		repaired, err := h.Schedules.RepairCommitted(ctx, d.ScheduleID, d.Committed, d.ActualSum)
		if err != nil {
			return err
		}
		h.Alerts.Alert("reconcile", alert.SeverityWarning,
			"committed-seats drift on schedule "+d.ScheduleID+
				": counter="+strconv.Itoa(d.Committed)+" actual="+strconv.Itoa(d.ActualSum)+
				" repaired="+strconv.FormatBool(repaired))
	}
	return nil
}

// HandleReminderMail sends the entry reminder to confirmed
// reservations on tomorrow's schedules. The reminder-sent flag makes
// each reservation receive at most one reminder; sending the first
// reminder freezes the schedule's entry link.
func (h *Handlers) HandleReminderMail(ctx context.Context, _ *asynq.Task) error {
	tomorrow := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02")
	scheds, err := h.Schedules.ListOccurringOn(ctx, tomorrow)
	if err != nil {
		return err
	}
	for i := range scheds {
		if err := h.remindSchedule(ctx, &scheds[i]); err != nil {
			h.Alerts.Alert("reminder", alert.SeverityWarning,
				"reminder sweep failed for schedule "+scheds[i].ID+": "+err.Error())
		}
	}
	return nil
}

func (h *Handlers) remindSchedule(ctx context.Context, sched *model.Schedule) error {
	perf, err := h.Performances.GetByID(ctx, sched.PerformanceID)
	if err != nil {
		return err
	}
	pending, err := h.Reservations.ListConfirmedNeedingReminder(ctx, sched.ID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	text, err := h.Templates.Template("reminder")
	if err != nil {
		return err
	}
	entry := ""
	if sched.EntryURL != nil {
		entry = *sched.EntryURL
	}
	for _, rec := range pending {
		rendered := mail.Render(text, map[string]string{
			"name":      rec.RequesterName,
			"title":     perf.Title,
			"date":      sched.ShowDate,
			"time":      sched.ShowTime,
			"seats":     strconv.Itoa(rec.SeatCount),
			"entryLink": entry,
		})
		subject, body := mail.Subject(rendered)
		if err := h.Sender.Send(mail.Message{To: rec.RequesterEmail, Subject: subject, Body: body}); err != nil {
			slog.Error("reminder send failed", "reservation", rec.ID, "error", err)
			continue
		}
		// Flag only after a successful hand-off so a failed send is retried
		// on the next sweep.
		if err := h.Reservations.MarkReminderSent(ctx, rec.ID); err != nil {
			return err
		}
	}
	slog.Info("reminders sent", "schedule", sched.ID, "count", len(pending))
	return nil
}

// HandleSurveyMail sends the post-show survey to confirmed
// reservations of ended schedules, for performances that have a
// survey link configured.
func (h *Handlers) HandleSurveyMail(ctx context.Context, _ *asynq.Task) error {
	perfs, err := h.Performances.ListWithSurvey(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range perfs {
		if err := h.surveyPerformance(ctx, &perfs[i], now); err != nil {
			h.Alerts.Alert("survey", alert.SeverityWarning,
				"survey sweep failed for performance "+perfs[i].ID+": "+err.Error())
		}
	}
	return nil
}

func (h *Handlers) surveyPerformance(ctx context.Context, perf *model.Performance, now time.Time) error {
	scheds, err := h.Schedules.ListEndedBefore(ctx, perf.ID, now)
	if err != nil {
		return err
	}
	if len(scheds) == 0 {
		return nil
	}
	text, err := h.Templates.Template("survey")
	if err != nil {
		return err
	}
	surveyURL := ""
	if perf.SurveyURL != nil {
		surveyURL = *perf.SurveyURL
	}
	for _, sched := range scheds {
		pending, err := h.Reservations.ListConfirmedNeedingSurvey(ctx, sched.ID)
		if err != nil {
			return err
		}
		for _, rec := range pending {
			rendered := mail.Render(text, map[string]string{
				"name":       rec.RequesterName,
				"title":      perf.Title,
				"date":       sched.ShowDate,
				"surveyLink": surveyURL,
			})
			subject, body := mail.Subject(rendered)
			if err := h.Sender.Send(mail.Message{To: rec.RequesterEmail, Subject: subject, Body: body}); err != nil {
				slog.Error("survey send failed", "reservation", rec.ID, "error", err)
				continue
			}
			if err := h.Reservations.MarkSurveySent(ctx, rec.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
