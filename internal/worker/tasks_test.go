package worker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
)

func tomorrow() string {
	return time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02")
}

func yesterday() string {
	return time.Now().UTC().Add(-24 * time.Hour).Format("2006-01-02")
}

func TestReminderSentAtMostOnce(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.addPerformance("perf-1", "Hamlet", nil)
	f.addSchedule("sched-1", "perf-1", tomorrow(), "19:30", 10, 4, strptr("https://door.example/e1"))
	f.addReservation(model.Reservation{
		ID: "res-a", PerformanceID: "perf-1", ScheduleID: "sched-1",
		RequesterName: "Ada", RequesterEmail: "ada@example.com",
		SeatCount: 2, Status: model.StatusConfirmed,
	})
	f.addReservation(model.Reservation{
		ID: "res-b", PerformanceID: "perf-1", ScheduleID: "sched-1",
		RequesterName: "Ben", RequesterEmail: "ben@example.com",
		SeatCount: 2, Status: model.StatusConfirmed, ReminderSent: true,
	})

	if err := f.h.HandleReminderMail(context.Background(), nil); err != nil {
		t.Fatalf("HandleReminderMail: %v", err)
	}

	msgs := f.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d reminders, want 1", len(msgs))
	}
	if msgs[0].To != "ada@example.com" {
		t.Errorf("reminder went to %s, want ada@example.com", msgs[0].To)
	}
	if !strings.Contains(msgs[0].Body, "https://door.example/e1") {
		t.Errorf("reminder body missing entry link: %q", msgs[0].Body)
	}
	if !f.store.reservations["res-a"].ReminderSent {
		t.Error("res-a reminder flag not set after successful send")
	}

	// A second sweep finds no unsent reservations.
	if err := f.h.HandleReminderMail(context.Background(), nil); err != nil {
		t.Fatalf("second HandleReminderMail: %v", err)
	}
	if n := len(f.sender.messages()); n != 1 {
		t.Errorf("sent %d reminders after second sweep, want 1", n)
	}
}

func TestReminderRetriesFailedSend(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.addPerformance("perf-1", "Hamlet", nil)
	f.addSchedule("sched-1", "perf-1", tomorrow(), "19:30", 10, 4, nil)
	f.addReservation(model.Reservation{
		ID: "res-a", PerformanceID: "perf-1", ScheduleID: "sched-1",
		RequesterName: "Ada", RequesterEmail: "ada@example.com",
		SeatCount: 2, Status: model.StatusConfirmed,
	})
	f.addReservation(model.Reservation{
		ID: "res-b", PerformanceID: "perf-1", ScheduleID: "sched-1",
		RequesterName: "Ben", RequesterEmail: "ben@example.com",
		SeatCount: 2, Status: model.StatusConfirmed,
	})
	fs := &flakySender{failTo: "ada@example.com"}
	f.h.Sender = fs

	if err := f.h.HandleReminderMail(context.Background(), nil); err != nil {
		t.Fatalf("HandleReminderMail: %v", err)
	}

	// The failed delivery must not flip the flag; the delivered one must.
	if f.store.reservations["res-a"].ReminderSent {
		t.Error("res-a flagged although its send failed")
	}
	if !f.store.reservations["res-b"].ReminderSent {
		t.Error("res-b not flagged after successful send")
	}

	// Once delivery recovers the next sweep picks res-a up again.
	fs.failTo = ""
	if err := f.h.HandleReminderMail(context.Background(), nil); err != nil {
		t.Fatalf("second HandleReminderMail: %v", err)
	}
	if !f.store.reservations["res-a"].ReminderSent {
		t.Error("res-a not flagged after retried send")
	}
	if n := len(fs.messages()); n != 2 {
		t.Errorf("delivered %d reminders in total, want 2", n)
	}
}

func TestSurveyTargetsEndedSchedulesWithLink(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.addPerformance("perf-1", "Hamlet", strptr("https://survey.example/h"))
	f.addPerformance("perf-2", "Macbeth", nil)
	f.addSchedule("sched-ended", "perf-1", yesterday(), "19:30", 10, 2, nil)
	f.addSchedule("sched-future", "perf-1", tomorrow(), "19:30", 10, 2, nil)
	f.addSchedule("sched-nolink", "perf-2", yesterday(), "19:30", 10, 2, nil)
	for _, r := range []model.Reservation{
		{ID: "res-ended", PerformanceID: "perf-1", ScheduleID: "sched-ended",
			RequesterName: "Ada", RequesterEmail: "ada@example.com", SeatCount: 2, Status: model.StatusConfirmed},
		{ID: "res-future", PerformanceID: "perf-1", ScheduleID: "sched-future",
			RequesterName: "Ben", RequesterEmail: "ben@example.com", SeatCount: 2, Status: model.StatusConfirmed},
		{ID: "res-nolink", PerformanceID: "perf-2", ScheduleID: "sched-nolink",
			RequesterName: "Cleo", RequesterEmail: "cleo@example.com", SeatCount: 2, Status: model.StatusConfirmed},
	} {
		f.addReservation(r)
	}

	if err := f.h.HandleSurveyMail(context.Background(), nil); err != nil {
		t.Fatalf("HandleSurveyMail: %v", err)
	}

	msgs := f.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d surveys, want 1", len(msgs))
	}
	if msgs[0].To != "ada@example.com" {
		t.Errorf("survey went to %s, want ada@example.com", msgs[0].To)
	}
	if !strings.Contains(msgs[0].Body, "https://survey.example/h") {
		t.Errorf("survey body missing link: %q", msgs[0].Body)
	}
	if !f.store.reservations["res-ended"].SurveySent {
		t.Error("res-ended survey flag not set")
	}
	if f.store.reservations["res-future"].SurveySent || f.store.reservations["res-nolink"].SurveySent {
		t.Error("survey flag set outside the ended-with-link scope")
	}

	if err := f.h.HandleSurveyMail(context.Background(), nil); err != nil {
		t.Fatalf("second HandleSurveyMail: %v", err)
	}
	if n := len(f.sender.messages()); n != 1 {
		t.Errorf("sent %d surveys after second sweep, want 1", n)
	}
}

func TestReconcileMaterializesMissedConfirmations(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.addPerformance("perf-1", "Hamlet", nil)
	f.addSchedule("sched-1", "perf-1", tomorrow(), "19:30", 10, 3, nil)
	f.addReservation(model.Reservation{
		ID: "res-1", PerformanceID: "perf-1", ScheduleID: "sched-1",
		RequesterName: "Ada", RequesterEmail: "ada@example.com",
		SeatCount: 3, Status: model.StatusConfirmed,
	})

	if err := f.h.HandleAttendeeReconcile(context.Background(), nil); err != nil {
		t.Fatalf("HandleAttendeeReconcile: %v", err)
	}

	got := f.store.attendees["res-1"]
	if len(got) != 3 {
		t.Fatalf("materialized %d attendees, want 3", len(got))
	}
	if got[0].DisplayName != "Ada" {
		t.Errorf("first occupant = %q, want Ada", got[0].DisplayName)
	}

	// Running again must not duplicate the rows.
	if err := f.h.HandleAttendeeReconcile(context.Background(), nil); err != nil {
		t.Fatalf("second HandleAttendeeReconcile: %v", err)
	}
	if n := len(f.store.attendees["res-1"]); n != 3 {
		t.Errorf("attendees after second sweep = %d, want 3", n)
	}
}

func TestReconcileRepairsCounterDrift(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.addPerformance("perf-1", "Hamlet", nil)
	f.addSchedule("sched-1", "perf-1", tomorrow(), "19:30", 10, 7, nil)
	f.addReservation(model.Reservation{
		ID: "res-1", PerformanceID: "perf-1", ScheduleID: "sched-1",
		RequesterName: "Ada", RequesterEmail: "ada@example.com",
		SeatCount: 4, Status: model.StatusConfirmed,
	})
	f.store.attendees["res-1"] = []model.Attendee{{ID: "att-1", ReservationID: "res-1"}}

	if err := f.h.HandleAttendeeReconcile(context.Background(), nil); err != nil {
		t.Fatalf("HandleAttendeeReconcile: %v", err)
	}

	if got := f.store.schedules["sched-1"].CommittedSeats; got != 4 {
		t.Fatalf("committed after repair = %d, want 4", got)
	}
	alerts := f.alerts.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %v", len(alerts), alerts)
	}
	if !strings.Contains(alerts[0], "repaired=true") {
		t.Errorf("drift alert = %q, want repaired=true", alerts[0])
	}
}

func TestReconcileLeavesMovedCounterAlone(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.addPerformance("perf-1", "Hamlet", nil)
	f.addSchedule("sched-1", "perf-1", tomorrow(), "19:30", 10, 7, nil)
	f.addReservation(model.Reservation{
		ID: "res-1", PerformanceID: "perf-1", ScheduleID: "sched-1",
		RequesterName: "Ada", RequesterEmail: "ada@example.com",
		SeatCount: 4, Status: model.StatusConfirmed,
	})
	f.store.attendees["res-1"] = []model.Attendee{{ID: "att-1", ReservationID: "res-1"}}
	f.h.Schedules = &driftingStore{sweepStore: f.store, bump: 1}

	if err := f.h.HandleAttendeeReconcile(context.Background(), nil); err != nil {
		t.Fatalf("HandleAttendeeReconcile: %v", err)
	}

	// The counter moved between audit and repair; the compare-and-swap
	// must leave it for the next sweep.
	if got := f.store.schedules["sched-1"].CommittedSeats; got != 8 {
		t.Fatalf("committed after skipped repair = %d, want 8", got)
	}
	alerts := f.alerts.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %v", len(alerts), alerts)
	}
	if !strings.Contains(alerts[0], "repaired=false") {
		t.Errorf("drift alert = %q, want repaired=false", alerts[0])
	}
}
