package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/auth"
	"github.com/Freeeeeet/restaurant_booking/internal/controller/handlers"
	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/Freeeeeet/restaurant_booking/internal/repository/memstore"
	"github.com/Freeeeeet/restaurant_booking/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var apiNow = time.Date(2026, 5, 14, 12, 0, 0, 0, time.UTC)

type apiFixture struct {
	server   *Server
	store    *memstore.Store
	resolver *auth.Resolver

	tableID  int64
	soupID   int64
	clientID int64
	otherID  int64
	adminID  int64
	waiterID int64
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := memstore.New()
	number := 1

	f := &apiFixture{
		store:    store,
		resolver: auth.NewResolver("test-secret"),
		tableID:  store.AddTable(&number, 4, true),
		soupID:   store.AddMenuItem("Борщ", 45000),
		clientID: store.AddUser("client@example.com", model.RoleClient, nil),
		otherID:  store.AddUser("other@example.com", model.RoleClient, nil),
		adminID:  store.AddUser("admin@example.com", model.RoleAdmin, nil),
	}
	f.waiterID = store.AddStaff("Анна", "Смирнова")
	store.AddShift(f.waiterID, model.TimeInterval{Start: apiNow, End: apiNow.Add(10 * time.Hour)})

	svc := service.NewReservationService(
		store,
		store.Reservations(),
		store.Tables(),
		store.Menu(),
		store.Staff(),
		nil,
		service.DefaultPolicy(),
		zap.NewNop(),
		service.WithClock(func() time.Time { return apiNow }),
	)

	f.server = NewServer(svc, f.resolver, zap.NewNop())
	return f
}

func (f *apiFixture) token(t *testing.T, userID int64, role model.Role) string {
	t.Helper()
	token, err := f.resolver.Issue(model.Caller{UserID: userID, Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) createAsClient(t *testing.T, from, to time.Duration) model.Reservation {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/reservations", f.token(t, f.clientID, model.RoleClient), createBody(f.tableID, from, to, f.soupID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var r model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

func createBody(tableID int64, from, to time.Duration, menuItemID int64) map[string]interface{} {
	return map[string]interface{}{
		"table_id": tableID,
		"start":    apiNow.Add(from).Format(time.RFC3339),
		"end":      apiNow.Add(to).Format(time.RFC3339),
		"items":    []map[string]interface{}{{"menu_item_id": menuItemID, "quantity": 2}},
	}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/reservations/my", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/reservations/my", "garbage", nil).Code)

	other := auth.NewResolver("other-secret")
	forged, err := other.Issue(model.Caller{UserID: f.clientID, Role: model.RoleClient}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/reservations/my", forged, nil).Code)
}

func TestCreateReservationEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	client := f.token(t, f.clientID, model.RoleClient)

	r := f.createAsClient(t, time.Hour, 3*time.Hour)
	assert.Equal(t, model.ReservationStatusPending, r.Status)
	assert.Equal(t, f.clientID, r.ClientID)
	require.NotNil(t, r.StaffID)
	assert.Equal(t, f.waiterID, *r.StaffID)
	require.Len(t, r.Items, 1)
	assert.Equal(t, 2, r.Items[0].Quantity)

	tests := []struct {
		name   string
		token  string
		body   interface{}
		status int
	}{
		{name: "overlapping slot", token: client, body: createBody(f.tableID, 2*time.Hour, 4*time.Hour, f.soupID), status: http.StatusConflict},
		{name: "in the past", token: client, body: createBody(f.tableID, -2*time.Hour, -time.Hour, f.soupID), status: http.StatusBadRequest},
		{name: "after hours", token: client, body: createBody(f.tableID, 8*time.Hour, 9*time.Hour, f.soupID), status: http.StatusBadRequest},
		{name: "unknown table", token: client, body: createBody(999, 4*time.Hour, 5*time.Hour, f.soupID), status: http.StatusNotFound},
		{name: "unknown dish", token: client, body: createBody(f.tableID, 4*time.Hour, 5*time.Hour, 999), status: http.StatusNotFound},
		{name: "malformed body", token: client, body: "not an object", status: http.StatusBadRequest},
		{name: "staff cannot book", token: f.token(t, f.waiterID, model.RoleStaff), body: createBody(f.tableID, 4*time.Hour, 5*time.Hour, f.soupID), status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/reservations", tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestReadEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	r := f.createAsClient(t, time.Hour, 2*time.Hour)

	client := f.token(t, f.clientID, model.RoleClient)
	other := f.token(t, f.otherID, model.RoleClient)
	admin := f.token(t, f.adminID, model.RoleAdmin)
	waiter := f.token(t, f.waiterID, model.RoleStaff)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/reservations", client, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/reservations", admin, nil).Code)

	var mine []model.Reservation
	rec := f.do(t, http.MethodGet, "/api/reservations/my", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	rec = f.do(t, http.MethodGet, "/api/reservations/my", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	var assigned []model.Reservation
	rec = f.do(t, http.MethodGet, "/api/reservations/assigned", waiter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assigned))
	require.Len(t, assigned, 1)
	assert.Equal(t, r.ID, assigned[0].ID)

	path := fmt.Sprintf("/api/reservations/%d", r.ID)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, path, client, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, path, waiter, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/reservations/4040", admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/reservations/abc", admin, nil).Code)
}

func TestOccupiedEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.createAsClient(t, time.Hour, 2*time.Hour)
	client := f.token(t, f.clientID, model.RoleClient)

	query := fmt.Sprintf("/api/reservations/occupied?start=%s&end=%s",
		apiNow.Add(90*time.Minute).Format(time.RFC3339), apiNow.Add(3*time.Hour).Format(time.RFC3339))

	rec := f.do(t, http.MethodGet, query, client, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.OccupiedTablesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []int64{f.tableID}, resp.TableIDs)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/reservations/occupied?start=yesterday", client, nil).Code)

	reversed := fmt.Sprintf("/api/reservations/occupied?start=%s&end=%s",
		apiNow.Add(3*time.Hour).Format(time.RFC3339), apiNow.Add(time.Hour).Format(time.RFC3339))
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, reversed, client, nil).Code)
}

func TestStatusEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	r := f.createAsClient(t, time.Hour, 2*time.Hour)

	client := f.token(t, f.clientID, model.RoleClient)
	other := f.token(t, f.otherID, model.RoleClient)
	waiter := f.token(t, f.waiterID, model.RoleStaff)

	base := fmt.Sprintf("/api/reservations/%d", r.ID)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, base+"/status?status=eaten", waiter, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPatch, base+"/status?status=confirmed", client, nil).Code)

	rec := f.do(t, http.MethodPatch, base+"/status?status=CONFIRMED", waiter, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, model.ReservationStatusConfirmed, updated.Status)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPatch, base+"/cancel", other, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPatch, base+"/cancel", waiter, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPatch, base+"/cancel", client, nil).Code)

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPatch, base+"/status?status=confirmed", waiter, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, "/api/reservations/999/cancel", client, nil).Code)
}

func TestAdminEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	r := f.createAsClient(t, time.Hour, 2*time.Hour)

	admin := f.token(t, f.adminID, model.RoleAdmin)
	client := f.token(t, f.clientID, model.RoleClient)
	base := fmt.Sprintf("/api/reservations/%d", r.ID)

	second := f.store.AddStaff("Борис", "Котов")

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, base+"/available-staff", client, nil).Code)

	var staff []model.Staff
	rec := f.do(t, http.MethodGet, base+"/available-staff", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &staff))
	require.Len(t, staff, 1)
	assert.Equal(t, f.waiterID, staff[0].ID)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, base+"/staff?staff_id=x", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, base+"/staff?staff_id=999", admin, nil).Code)

	rec = f.do(t, http.MethodPatch, fmt.Sprintf("%s/staff?staff_id=%d", base, second), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.StaffID)
	assert.Equal(t, second, *updated.StaffID)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, base, client, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, base, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, base, admin, nil).Code)
}

func TestToggleServedEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	r := f.createAsClient(t, time.Hour, 2*time.Hour)

	waiter := f.token(t, f.waiterID, model.RoleStaff)
	stranger := f.token(t, f.store.AddStaff("Пётр", "Зайцев"), model.RoleStaff)

	path := fmt.Sprintf("/api/reservations/%d/items/%d/served", r.ID, r.Items[0].ID)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPatch, path, stranger, nil).Code)

	rec := f.do(t, http.MethodPatch, path, waiter, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var item model.ReservationItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.True(t, item.IsServed)

	missing := fmt.Sprintf("/api/reservations/%d/items/999/served", r.ID)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, missing, waiter, nil).Code)
}

func TestServerStartStops(t *testing.T) {
	f := newAPIFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- f.server.Start(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
