package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stagedoor/theatre-ticket-reservation/internal/alert"
	"github.com/stagedoor/theatre-ticket-reservation/internal/booking"
	"github.com/stagedoor/theatre-ticket-reservation/internal/mail"
	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
)

// sweepStore is an in-memory implementation of the task source
// interfaces plus the attendee store the materializer needs. The
// drift audit and repair mirror the SQL semantics: the audit compares
// each counter against the aggregated seat sum, and the repair is a
// compare-and-swap on the audited value.
type sweepStore struct {
	mu           sync.Mutex
	performances map[string]*model.Performance
	schedules    map[string]*model.Schedule
	reservations map[string]*model.Reservation
	attendees    map[string][]model.Attendee // keyed by reservation id
}

func newSweepStore() *sweepStore {
	return &sweepStore{
		performances: map[string]*model.Performance{},
		schedules:    map[string]*model.Schedule{},
		reservations: map[string]*model.Reservation{},
		attendees:    map[string][]model.Attendee{},
	}
}

func (s *sweepStore) GetByID(ctx context.Context, id string) (*model.Performance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.performances[id]
	if !ok {
		return nil, repository.ErrPerformanceNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *sweepStore) ListWithSurvey(ctx context.Context) ([]model.Performance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Performance
	for _, p := range s.performances {
		if p.SurveyURL != nil && *p.SurveyURL != "" {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *sweepStore) ListOccurringOn(ctx context.Context, day string) ([]model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Schedule
	for _, sc := range s.schedules {
		if sc.ShowDate == day {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (s *sweepStore) ListEndedBefore(ctx context.Context, performanceID string, t time.Time) ([]model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := t.UTC().Format("2006-01-02 15:04")
	var out []model.Schedule
	for _, sc := range s.schedules {
		if sc.PerformanceID == performanceID && sc.ShowDate+" "+sc.ShowTime < cutoff {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (s *sweepStore) ListCounterDrift(ctx context.Context) ([]repository.DriftRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.DriftRow
	for id, sc := range s.schedules {
		actual := 0
		for _, rec := range s.reservations {
			if rec.ScheduleID == id && rec.Active() {
				actual += rec.SeatCount
			}
		}
		if sc.CommittedSeats != actual {
			out = append(out, repository.DriftRow{ScheduleID: id, Committed: sc.CommittedSeats, ActualSum: actual})
		}
	}
	return out, nil
}

func (s *sweepStore) RepairCommitted(ctx context.Context, id string, from, to int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok || sc.CommittedSeats != from {
		return false, nil
	}
	sc.CommittedSeats = to
	return true, nil
}

func (s *sweepStore) ListConfirmedWithoutAttendees(ctx context.Context) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, rec := range s.reservations {
		if rec.Status == model.StatusConfirmed && len(s.attendees[rec.ID]) == 0 {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *sweepStore) ListConfirmedNeedingReminder(ctx context.Context, scheduleID string) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, rec := range s.reservations {
		if rec.ScheduleID == scheduleID && rec.Status == model.StatusConfirmed && !rec.ReminderSent {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *sweepStore) ListConfirmedNeedingSurvey(ctx context.Context, scheduleID string) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, rec := range s.reservations {
		if rec.ScheduleID == scheduleID && rec.Status == model.StatusConfirmed && !rec.SurveySent {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *sweepStore) MarkReminderSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	rec.ReminderSent = true
	return nil
}

func (s *sweepStore) MarkSurveySent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	rec.SurveySent = true
	return nil
}

func (s *sweepStore) ExistsForReservation(ctx context.Context, reservationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attendees[reservationID]) > 0, nil
}

func (s *sweepStore) CreateBulk(ctx context.Context, recs []model.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range recs {
		s.attendees[a.ReservationID] = append(s.attendees[a.ReservationID], a)
	}
	return nil
}

func (s *sweepStore) DeleteByReservation(ctx context.Context, reservationID string, batchSize int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.attendees[reservationID])
	delete(s.attendees, reservationID)
	return n, nil
}

// driftingStore reports drift, then moves the counter before the
// repair runs, as a concurrent admission between the audit read and
// the repair write would.
type driftingStore struct {
	*sweepStore
	bump int
}

func (s *driftingStore) ListCounterDrift(ctx context.Context) ([]repository.DriftRow, error) {
	rows, err := s.sweepStore.ListCounterDrift(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range rows {
		s.schedules[d.ScheduleID].CommittedSeats += s.bump
	}
	return rows, nil
}

// recordSender captures outbound mail for assertions.
type recordSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordSender) Send(msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordSender) messages() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}

// flakySender fails delivery to one recipient and records the rest.
type flakySender struct {
	recordSender
	failTo string
}

func (s *flakySender) Send(msg mail.Message) error {
	if msg.To == s.failTo {
		return errors.New("smtp unavailable")
	}
	return s.recordSender.Send(msg)
}

// recordAlerts captures alerts for assertions.
type recordAlerts struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordAlerts) Alert(component string, severity alert.Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, component+"/"+string(severity)+": "+message)
}

func (r *recordAlerts) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

var testTemplates = mail.MapSource{
	"reminder": "Subject: Tomorrow {{title}}\n\nHello {{name}}, {{seats}} seats on {{date}} {{time}}.\n{{entryLink}}",
	"survey":   "Subject: Survey {{title}}\n\nHello {{name}}.\n{{surveyLink}}",
}

// fixture wires a Handlers over the in-memory store.
type fixture struct {
	store  *sweepStore
	sender *recordSender
	alerts *recordAlerts
	h      *Handlers
}

func newFixture() *fixture {
	st := newSweepStore()
	f := &fixture{store: st, sender: &recordSender{}, alerts: &recordAlerts{}}
	f.h = &Handlers{
		Materializer: booking.NewMaterializer(st),
		Performances: st,
		Schedules:    st,
		Reservations: st,
		Templates:    testTemplates,
		Sender:       f.sender,
		Alerts:       f.alerts,
	}
	return f
}

func (f *fixture) addPerformance(id, title string, surveyURL *string) {
	f.store.performances[id] = &model.Performance{ID: id, Title: title, SurveyURL: surveyURL}
}

func (f *fixture) addSchedule(id, performanceID, showDate, showTime string, total, committed int, entryURL *string) {
	f.store.schedules[id] = &model.Schedule{
		ID:             id,
		PerformanceID:  performanceID,
		ShowDate:       showDate,
		ShowTime:       showTime,
		TotalSeats:     total,
		CommittedSeats: committed,
		EntryURL:       entryURL,
	}
}

func (f *fixture) addReservation(rec model.Reservation) {
	cp := rec
	f.store.reservations[rec.ID] = &cp
}

func strptr(s string) *string { return &s }
