package booking

import (
	"context"
	"sync"
	"time"

	"github.com/stagedoor/theatre-ticket-reservation/internal/alert"
	"github.com/stagedoor/theatre-ticket-reservation/internal/config"
	"github.com/stagedoor/theatre-ticket-reservation/internal/mail"
	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
	"github.com/stagedoor/theatre-ticket-reservation/internal/token"
)

// memStore is an in-memory implementation of all four store
// interfaces with the same conditional-write semantics as the SQL
// repositories: GrabSeats is an atomic conditional increment, and the
// transition methods are compare-and-swap.
type memStore struct {
	mu           sync.Mutex
	performances map[string]*model.Performance
	schedules    map[string]*model.Schedule
	reservations map[string]*model.Reservation
	attendees    map[string][]model.Attendee // keyed by reservation id
}

func newMemStore() *memStore {
	return &memStore{
		performances: map[string]*model.Performance{},
		schedules:    map[string]*model.Schedule{},
		reservations: map[string]*model.Reservation{},
		attendees:    map[string][]model.Attendee{},
	}
}

func (s *memStore) GetByID(ctx context.Context, id string) (*model.Performance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.performances[id]
	if !ok {
		return nil, repository.ErrPerformanceNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) UpdateMaxActive(ctx context.Context, id string, maxActive int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.performances[id]
	if !ok {
		return repository.ErrPerformanceNotFound
	}
	p.MaxActive = maxActive
	return nil
}

func (s *memStore) UpdateOpensAt(ctx context.Context, id, opensAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.performances[id]
	if !ok {
		return repository.ErrPerformanceNotFound
	}
	t, err := time.Parse("2006-01-02 15:04:05", opensAt)
	if err != nil {
		return err
	}
	p.ReservationOpensAt = t.UTC()
	return nil
}

func (s *memStore) UpdateSurveyURL(ctx context.Context, id string, surveyURL *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.performances[id]
	if !ok {
		return repository.ErrPerformanceNotFound
	}
	p.SurveyURL = surveyURL
	return nil
}

// scheduleStore wraps memStore so both GetByID methods can coexist.
type scheduleStore struct{ *memStore }

func (s scheduleStore) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return nil, repository.ErrScheduleNotFound
	}
	cp := *sc
	return &cp, nil
}

func (s scheduleStore) CountByPerformance(ctx context.Context, performanceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sc := range s.schedules {
		if sc.PerformanceID == performanceID {
			n++
		}
	}
	return n, nil
}

func (s scheduleStore) GrabSeats(ctx context.Context, id string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return repository.ErrScheduleNotFound
	}
	if sc.CommittedSeats+n > sc.TotalSeats {
		return repository.ErrSeatShortage
	}
	sc.CommittedSeats += n
	return nil
}

func (s scheduleStore) ReleaseSeats(ctx context.Context, id string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return repository.ErrScheduleNotFound
	}
	sc.CommittedSeats -= n
	if sc.CommittedSeats < 0 {
		sc.CommittedSeats = 0
	}
	return nil
}

func (s scheduleStore) UpdateTotalSeats(ctx context.Context, id string, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return repository.ErrScheduleNotFound
	}
	sc.TotalSeats = total
	return nil
}

func (s scheduleStore) UpdateEntryURL(ctx context.Context, id string, entryURL *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return repository.ErrScheduleNotFound
	}
	sc.EntryURL = entryURL
	return nil
}

// reservationStore wraps memStore for the ReservationStore interface.
type reservationStore struct{ *memStore }

func (s reservationStore) Create(ctx context.Context, rec *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[rec.ID]; ok {
		return repository.ErrDuplicateID
	}
	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.reservations[rec.ID] = &cp
	return nil
}

func (s reservationStore) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	cp := *r
	return &cp, nil
}

func (s reservationStore) SumSeats(ctx context.Context, scheduleID string, statuses ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := 0
	for _, r := range s.reservations {
		if r.ScheduleID != scheduleID {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				sum += r.SeatCount
				break
			}
		}
	}
	return sum, nil
}

func (s reservationStore) CountActiveByRequester(ctx context.Context, performanceID, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.PerformanceID == performanceID && r.RequesterEmail == email && r.Active() {
			n++
		}
	}
	return n, nil
}

func (s reservationStore) HasActiveForSchedule(ctx context.Context, scheduleID, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.ScheduleID == scheduleID && r.RequesterEmail == email && r.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s reservationStore) Transition(ctx context.Context, id, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s reservationStore) TransitionRelease(ctx context.Context, id, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	if sc, ok := s.schedules[r.ScheduleID]; ok {
		sc.CommittedSeats -= r.SeatCount
		if sc.CommittedSeats < 0 {
			sc.CommittedSeats = 0
		}
	}
	return true, nil
}

func (s reservationStore) ListStalePending(ctx context.Context, before time.Time) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.Status == model.StatusPending && r.CreatedAt.Before(before) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s reservationStore) AnyReminderSent(ctx context.Context, scheduleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.ScheduleID == scheduleID && r.ReminderSent {
			return true, nil
		}
	}
	return false, nil
}

// attendeeStore wraps memStore for the AttendeeStore interface.
type attendeeStore struct{ *memStore }

func (s attendeeStore) ExistsForReservation(ctx context.Context, reservationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attendees[reservationID]) > 0, nil
}

func (s attendeeStore) CreateBulk(ctx context.Context, recs []model.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range recs {
		s.attendees[a.ReservationID] = append(s.attendees[a.ReservationID], a)
	}
	return nil
}

func (s attendeeStore) DeleteByReservation(ctx context.Context, reservationID string, batchSize int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.attendees[reservationID])
	delete(s.attendees, reservationID)
	return n, nil
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

// fixture bundles a populated store and wired engine components with
// a controllable clock.
type fixture struct {
	store     *memStore
	policy    config.Policy
	signer    *token.Signer
	sender    *recordSender
	alerts    *recordAlerts
	admission *Admission
	confirmer *Confirmer
	canceller *Canceller
	reaper    *Reaper
	guard     *Guard
	now       time.Time
}

var testTemplates = mail.MapSource{
	"confirm_request":  "Subject: Confirm {{title}}\n\n{{name}}: {{seats}} seats, code {{code}}.\n{{confirmLink}}",
	"confirmed_notice": "Subject: Confirmed {{title}}\n\n{{name}}: see you on {{date}} {{time}}.\n{{cancelLink}}",
	"reminder":         "Subject: Tomorrow {{title}}\n\n{{entryLink}}",
	"survey":           "Subject: Survey {{title}}\n\n{{surveyLink}}",
}

func newFixture() *fixture {
	st := newMemStore()
	f := &fixture{
		store:  st,
		policy: config.DefaultPolicy(),
		signer: token.NewSigner(token.StaticSecret("test-secret")),
		sender: &recordSender{},
		alerts: &recordAlerts{},
		now:    time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	perfs := st
	scheds := scheduleStore{st}
	res := reservationStore{st}
	atts := attendeeStore{st}
	inv := NewInventory(res)
	mat := NewMaterializer(atts)

	f.admission = NewAdmission(perfs, scheds, res, f.policy, f.signer,
		testTemplates, f.sender, f.alerts, "https://tickets.example/v1/reservations/confirm")
	f.admission.now = func() time.Time { return f.now }
	f.confirmer = NewConfirmer(perfs, scheds, res, inv, mat, f.signer,
		testTemplates, f.sender, f.alerts, "https://tickets.example/v1/reservations/cancel")
	f.canceller = NewCanceller(res, atts, f.signer, f.policy, f.alerts)
	f.reaper = NewReaper(res, f.policy)
	f.reaper.now = func() time.Time { return f.now }
	f.guard = NewGuard(perfs, scheds, inv, res, f.policy)
	return f
}

// addPerformance seeds a performance whose sales opened an hour ago.
func (f *fixture) addPerformance(id string) *model.Performance {
	p := &model.Performance{
		ID:                 id,
		Title:              "The Tempest",
		ReservationOpensAt: f.now.Add(-time.Hour),
		MaxActive:          2,
	}
	f.store.performances[id] = p
	return p
}

func (f *fixture) addSchedule(id, perfID string, total int) *model.Schedule {
	s := &model.Schedule{
		ID:            id,
		PerformanceID: perfID,
		ShowDate:      "2026-03-20",
		ShowTime:      "19:30",
		TotalSeats:    total,
	}
	f.store.schedules[id] = s
	return s
}

func (f *fixture) addReservation(id, perfID, schedID, email, status string, seats int, createdAt time.Time) *model.Reservation {
	r := &model.Reservation{
		ID:             id,
		PerformanceID:  perfID,
		ScheduleID:     schedID,
		RequesterName:  "Ada",
		RequesterEmail: email,
		SeatCount:      seats,
		Status:         status,
		CreatedAt:      createdAt,
	}
	f.store.reservations[id] = r
	if r.Active() {
		if sc, ok := f.store.schedules[schedID]; ok {
			sc.CommittedSeats += seats
		}
	}
	return r
}
