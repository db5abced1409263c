package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/Freeeeeet/restaurant_booking/internal/repository/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Четверг, полдень по UTC
var testNow = time.Date(2026, 5, 14, 12, 0, 0, 0, time.UTC)

type sentNotification struct {
	UserID int64
	Title  string
	Body   string
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []sentNotification
	admins []string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID int64, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Title: title, Body: body})
	return nil
}

func (n *recordingNotifier) NotifyAdmins(ctx context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admins = append(n.admins, title)
	return nil
}

func (n *recordingNotifier) sentTo(userID int64) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	svc      *ReservationService
	notifier *recordingNotifier
	now      time.Time

	tableID  int64
	table2ID int64
	soupID   int64
	steakID  int64
	clientID int64
	otherID  int64
}

type fixtureOption func(*fixture, *[]Option)

func withPicker(pick func(n int) int) fixtureOption {
	return func(f *fixture, opts *[]Option) { *opts = append(*opts, WithPicker(pick)) }
}

func newFixture(t *testing.T, fopts ...fixtureOption) *fixture {
	t.Helper()

	store := memstore.New()
	f := &fixture{
		store:    store,
		notifier: &recordingNotifier{},
		now:      testNow,
	}

	one, two := 1, 2
	f.tableID = store.AddTable(&one, 4, true)
	f.table2ID = store.AddTable(&two, 2, true)
	f.soupID = store.AddMenuItem("Борщ", 45000)
	f.steakID = store.AddMenuItem("Стейк", 120000)
	f.clientID = store.AddUser("client@example.com", model.RoleClient, nil)
	f.otherID = store.AddUser("other@example.com", model.RoleClient, nil)

	opts := []Option{
		WithClock(func() time.Time { return f.now }),
		WithPicker(func(int) int { return 0 }),
	}
	for _, fo := range fopts {
		fo(f, &opts)
	}

	f.svc = NewReservationService(
		store,
		store.Reservations(),
		store.Tables(),
		store.Menu(),
		store.Staff(),
		f.notifier,
		DefaultPolicy(),
		zap.NewNop(),
		opts...,
	)

	return f
}

// window окно относительно текущего времени фикстуры
func (f *fixture) window(t *testing.T, from, to time.Duration) model.TimeInterval {
	t.Helper()
	w, err := model.NewTimeInterval(f.now.Add(from), f.now.Add(to))
	require.NoError(t, err)
	return w
}

func (f *fixture) create(t *testing.T, tableID int64, from, to time.Duration) *model.Reservation {
	t.Helper()
	r, err := f.svc.CreateReservation(context.Background(), f.clientID, tableID, f.window(t, from, to), nil)
	require.NoError(t, err)
	return r
}

// put сохраняет бронь с произвольным статусом в обход проверок
func (f *fixture) put(t *testing.T, status model.ReservationStatus, from, to time.Duration, staffID *int64) *model.Reservation {
	t.Helper()
	return f.store.PutReservation(&model.Reservation{
		ClientID: f.clientID,
		TableID:  f.tableID,
		StaffID:  staffID,
		Period:   f.window(t, from, to),
		Status:   status,
	})
}

func (f *fixture) status(t *testing.T, id int64) model.ReservationStatus {
	t.Helper()
	r, err := f.svc.GetReservation(context.Background(), id)
	require.NoError(t, err)
	return r.Status
}

func ptr[T any](v T) *T { return &v }
