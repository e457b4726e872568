package handler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/calsync"
	"appointment-scheduler/internal/handler"
	"appointment-scheduler/internal/middleware"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/rpc"
	"appointment-scheduler/internal/service"
	"appointment-scheduler/internal/store"
)

var zone = time.FixedZone("CEST", 2*60*60)

// 2030-06-10 08:30 local
var morning = time.Date(2030, 6, 10, 8, 30, 0, 0, zone)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type fakeSyncer struct {
	calls int
	token string
}

func (f *fakeSyncer) CreateEvent(_ context.Context, cred calsync.Credential, _ calsync.Event) (string, error) {
	f.calls++
	f.token = cred.Token
	if cred.Token == "" {
		return "", calsync.ErrNoCredential
	}
	return "evt-1", nil
}

// downStore fails every listing.
type downStore struct{ *store.Memory }

func (downStore) QueryAppointments(context.Context, string) ([]model.Appointment, error) {
	return nil, errors.New("dial tcp: connection refused")
}

// brokenAccounts fails revocation and has lost every user.
type brokenAccounts struct{ *store.Memory }

func (brokenAccounts) RevokeAllRefreshTokens(context.Context, string) error {
	return errors.New("dial tcp: connection refused")
}

func (brokenAccounts) UserByID(context.Context, string) (*model.User, error) {
	return nil, store.ErrNotFound
}

type env struct {
	h     *handler.Handler
	mem   *store.Memory
	sync  *fakeSyncer
	clock *clock
}

func setup(t *testing.T) *env {
	t.Helper()
	mem := store.NewMemory()
	sync := &fakeSyncer{}
	c := &clock{t: morning}
	svc := service.New(mem, sync, zone, zap.NewNop())
	h := handler.New(svc, mem, "test-secret", handler.WithClock(c.Now), handler.WithTTLs(time.Minute, time.Hour))
	return &env{h: h, mem: mem, sync: sync, clock: c}
}

func authed(uid string) context.Context {
	return context.WithValue(context.Background(), middleware.UserIDKey, uid)
}

func withCalendar(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, middleware.CalendarTokenKey, token)
}

func input(name, date, clock string) rpc.AppointmentInput {
	return rpc.AppointmentInput{
		Name:  name,
		Email: "ana@example.com",
		Phone: "+34 600 000 000",
		Date:  date,
		Time:  clock,
		Notes: "first visit",
	}
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", code)
	}
	if s, _ := status.FromError(err); s.Code() != code {
		t.Fatalf("expected %v, got %v (%v)", code, s.Code(), err)
	}
}

func create(t *testing.T, e *env, ctx context.Context, in rpc.AppointmentInput) *rpc.Appointment {
	t.Helper()
	resp, err := e.h.CreateAppointment(ctx, &rpc.CreateAppointmentRequest{AppointmentInput: in})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return resp.Appointment
}

// ----- auth tests -----

func register(t *testing.T, e *env, email string) *rpc.RegisterResponse {
	t.Helper()
	rr, err := e.h.Register(context.Background(), &rpc.RegisterRequest{
		Email: email, Password: "testpass123", Name: "Test User",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return rr
}

func TestRegister(t *testing.T) {
	e := setup(t)
	rr := register(t, e, "test@test.com")
	if rr.UserID == "" {
		t.Fatal("empty user id")
	}
	if rr.Token == "" || rr.RefreshToken == "" {
		t.Fatal("missing tokens")
	}
}

func TestRegisterValidation(t *testing.T) {
	e := setup(t)

	tests := []struct {
		name string
		req  *rpc.RegisterRequest
	}{
		{"empty email", &rpc.RegisterRequest{Email: "", Password: "testpass123", Name: "X"}},
		{"bad email", &rpc.RegisterRequest{Email: "not-an-email", Password: "testpass123", Name: "X"}},
		{"empty password", &rpc.RegisterRequest{Email: "a@b.com", Password: "", Name: "X"}},
		{"short password", &rpc.RegisterRequest{Email: "a@b.com", Password: "short", Name: "X"}},
		{"blank name", &rpc.RegisterRequest{Email: "a@b.com", Password: "testpass123", Name: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.h.Register(context.Background(), tt.req)
			wantCode(t, err, codes.InvalidArgument)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	e := setup(t)
	register(t, e, "dup@test.com")

	_, err := e.h.Register(context.Background(), &rpc.RegisterRequest{
		Email: "DUP@test.com", Password: "testpass123", Name: "Second",
	})
	wantCode(t, err, codes.AlreadyExists)
}

func TestLogin(t *testing.T) {
	e := setup(t)
	rr := register(t, e, "login@test.com")

	lr, err := e.h.Login(context.Background(), &rpc.LoginRequest{Email: "login@test.com", Password: "testpass123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if lr.UserID != rr.UserID || lr.Name != "Test User" || lr.Token == "" {
		t.Errorf("unexpected login response %+v", lr)
	}

	_, err = e.h.Login(context.Background(), &rpc.LoginRequest{Email: "login@test.com", Password: "wrongpassword"})
	wantCode(t, err, codes.Unauthenticated)

	_, err = e.h.Login(context.Background(), &rpc.LoginRequest{Email: "nobody@nowhere.com", Password: "testpass123"})
	wantCode(t, err, codes.Unauthenticated)
}

func TestRefreshRotation(t *testing.T) {
	e := setup(t)
	rr := register(t, e, "refresh@test.com")

	first, err := e.h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if first.RefreshToken == rr.RefreshToken || first.Token == "" {
		t.Fatal("refresh did not rotate")
	}

	// replaying the old token burns the whole family
	_, err = e.h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	wantCode(t, err, codes.Unauthenticated)

	_, err = e.h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: first.RefreshToken})
	wantCode(t, err, codes.Unauthenticated)
}

func TestRefreshFailures(t *testing.T) {
	e := setup(t)
	rr := register(t, e, "broken@test.com")
	svc := service.New(e.mem, e.sync, zone, zap.NewNop())
	h := handler.New(svc, brokenAccounts{e.mem}, "test-secret", handler.WithClock(e.clock.Now))

	// user gone since the token was issued
	_, err := h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	wantCode(t, err, codes.Unauthenticated)

	// reuse detected but the family could not be revoked
	if _, err := e.h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	_, err = h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	wantCode(t, err, codes.Unavailable)
}

func TestEmailCase(t *testing.T) {
	e := setup(t)
	rr := register(t, e, "  Mixed.Case@Test.com ")

	u, err := e.mem.UserByID(context.Background(), rr.UserID)
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if u.Email != "mixed.case@test.com" {
		t.Errorf("stored email = %q", u.Email)
	}
	if _, err := e.h.Login(context.Background(), &rpc.LoginRequest{Email: "MIXED.case@test.COM", Password: "testpass123"}); err != nil {
		t.Errorf("login with other case: %v", err)
	}
}

func TestRefreshExpired(t *testing.T) {
	e := setup(t)
	rr := register(t, e, "expired@test.com")

	e.clock.t = morning.Add(2 * time.Hour)
	_, err := e.h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	wantCode(t, err, codes.Unauthenticated)
}

func TestLogout(t *testing.T) {
	e := setup(t)
	rr := register(t, e, "logout@test.com")

	if _, err := e.h.Logout(authed(rr.UserID), &rpc.Empty{}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err := e.h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	wantCode(t, err, codes.Unauthenticated)
}

// ----- appointment tests -----

func TestCreateAppointment(t *testing.T) {
	e := setup(t)
	ctx := withCalendar(authed("owner-1"), "cal-token")

	a := create(t, e, ctx, input("  Ana  ", "2030-06-10", "09:00"))
	if a.ID == "" {
		t.Fatal("empty id")
	}
	if a.Name != "Ana" {
		t.Errorf("name not trimmed: %q", a.Name)
	}
	if a.OwnerID != "owner-1" {
		t.Errorf("owner = %q", a.OwnerID)
	}
	if a.Status != string(model.StatusToday) {
		t.Errorf("status = %q, want today", a.Status)
	}
	if a.ExternalEventID != "evt-1" {
		t.Errorf("external id = %q", a.ExternalEventID)
	}
	if e.sync.token != "cal-token" {
		t.Errorf("sync got token %q", e.sync.token)
	}
}

func TestCreateAppointmentWithoutCalendar(t *testing.T) {
	e := setup(t)

	a := create(t, e, authed("owner-1"), input("Ana", "2030-06-12", "10:00"))
	if a.ExternalEventID != "" {
		t.Errorf("external id = %q, want empty", a.ExternalEventID)
	}
	if a.Status != string(model.StatusUpcoming) {
		t.Errorf("status = %q, want upcoming", a.Status)
	}
	if e.sync.calls != 1 {
		t.Errorf("sync calls = %d, want 1", e.sync.calls)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	e := setup(t)
	ctx := authed("owner-1")

	tests := []struct {
		name string
		mod  func(*rpc.AppointmentInput)
	}{
		{"blank name", func(in *rpc.AppointmentInput) { in.Name = "   " }},
		{"bad email", func(in *rpc.AppointmentInput) { in.Email = "ana.example.com" }},
		{"blank phone", func(in *rpc.AppointmentInput) { in.Phone = "" }},
		{"bad date", func(in *rpc.AppointmentInput) { in.Date = "10/06/2030" }},
		{"past date", func(in *rpc.AppointmentInput) { in.Date = "2030-06-09" }},
		{"missing time", func(in *rpc.AppointmentInput) { in.Time = "" }},
		{"bad time", func(in *rpc.AppointmentInput) { in.Time = "9am" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input("Ana", "2030-06-11", "10:00")
			tt.mod(&in)
			_, err := e.h.CreateAppointment(ctx, &rpc.CreateAppointmentRequest{AppointmentInput: in})
			wantCode(t, err, codes.InvalidArgument)
		})
	}
	if e.sync.calls != 0 {
		t.Errorf("sync called %d times for invalid input", e.sync.calls)
	}
}

func TestCreateEarlierToday(t *testing.T) {
	e := setup(t)

	// the date check is per day, so a time already gone today is accepted
	a := create(t, e, authed("owner-1"), input("Ana", "2030-06-10", "07:00"))
	if a.Status != string(model.StatusPast) {
		t.Errorf("status = %q, want past", a.Status)
	}
}

func TestUnauthenticated(t *testing.T) {
	e := setup(t)

	_, err := e.h.CreateAppointment(context.Background(), &rpc.CreateAppointmentRequest{AppointmentInput: input("Ana", "2030-06-11", "10:00")})
	wantCode(t, err, codes.Unauthenticated)
	_, err = e.h.ListAppointments(context.Background(), &rpc.ListAppointmentsRequest{})
	wantCode(t, err, codes.Unauthenticated)
}

func TestGetAppointment(t *testing.T) {
	e := setup(t)
	a := create(t, e, authed("owner-1"), input("Ana", "2030-06-11", "10:00"))

	resp, err := e.h.GetAppointment(authed("owner-1"), &rpc.IDRequest{ID: a.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.Appointment.Name != "Ana" {
		t.Errorf("got %+v", resp.Appointment)
	}

	_, err = e.h.GetAppointment(authed("owner-2"), &rpc.IDRequest{ID: a.ID})
	wantCode(t, err, codes.NotFound)
	_, err = e.h.GetAppointment(authed("owner-1"), &rpc.IDRequest{ID: "missing"})
	wantCode(t, err, codes.NotFound)
	_, err = e.h.GetAppointment(authed("owner-1"), &rpc.IDRequest{})
	wantCode(t, err, codes.InvalidArgument)
}

func TestUpdateAppointment(t *testing.T) {
	e := setup(t)
	ctx := withCalendar(authed("owner-1"), "cal-token")
	a := create(t, e, ctx, input("Ana", "2030-06-11", "10:00"))

	in := input("Ana Maria", "2030-06-13", "11:30")
	resp, err := e.h.UpdateAppointment(ctx, &rpc.UpdateAppointmentRequest{ID: a.ID, AppointmentInput: in})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got := resp.Appointment
	if got.Name != "Ana Maria" || got.Date != "2030-06-13" || got.Time != "11:30" {
		t.Errorf("not updated: %+v", got)
	}
	if got.ExternalEventID != "evt-1" {
		t.Errorf("external id lost: %q", got.ExternalEventID)
	}
	if e.sync.calls != 1 {
		t.Errorf("update re-synced: %d calls", e.sync.calls)
	}

	_, err = e.h.UpdateAppointment(authed("owner-2"), &rpc.UpdateAppointmentRequest{ID: a.ID, AppointmentInput: in})
	wantCode(t, err, codes.NotFound)
}

func TestDeleteAppointment(t *testing.T) {
	e := setup(t)
	ctx := authed("owner-1")
	a := create(t, e, ctx, input("Ana", "2030-06-11", "10:00"))

	_, err := e.h.DeleteAppointment(authed("owner-2"), &rpc.IDRequest{ID: a.ID})
	wantCode(t, err, codes.NotFound)

	if _, err := e.h.DeleteAppointment(ctx, &rpc.IDRequest{ID: a.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = e.h.GetAppointment(ctx, &rpc.IDRequest{ID: a.ID})
	wantCode(t, err, codes.NotFound)

	_, err = e.h.DeleteAppointment(ctx, &rpc.IDRequest{ID: a.ID})
	wantCode(t, err, codes.NotFound)
}

func TestListAppointments(t *testing.T) {
	e := setup(t)
	ctx := authed("owner-1")
	create(t, e, ctx, input("Carla", "2030-06-14", "09:00"))
	create(t, e, ctx, input("Ana", "2030-06-10", "18:00"))
	create(t, e, ctx, input("Bea", "2030-06-20", "09:00"))
	create(t, e, authed("owner-2"), input("Other", "2030-06-11", "09:00"))

	names := func(resp *rpc.ListAppointmentsResponse) []string {
		var out []string
		for _, a := range resp.Appointments {
			out = append(out, a.Name)
		}
		return out
	}

	tests := []struct {
		name   string
		search string
		period string
		date   string
		want   []string
	}{
		{"all", "", "", "", []string{"Ana", "Carla", "Bea"}},
		{"today", "", "today", "", []string{"Ana"}},
		{"upcoming", "", "Upcoming", "", []string{"Carla"}},
		{"search", "bea", "", "", []string{"Bea"}},
		{"search and period", "a", "today", "", []string{"Ana"}},
		{"calendar day", "", "", "2030-06-20", []string{"Bea"}},
		{"calendar day and search", "carla", "", "2030-06-20", nil},
		{"empty calendar day", "", "", "2030-06-12", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := e.h.ListAppointments(ctx, &rpc.ListAppointmentsRequest{Search: tt.search, Period: tt.period, Date: tt.date})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			got := names(resp)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}

	_, err := e.h.ListAppointments(ctx, &rpc.ListAppointmentsRequest{Period: "yesterday"})
	wantCode(t, err, codes.InvalidArgument)
	_, err = e.h.ListAppointments(ctx, &rpc.ListAppointmentsRequest{Date: "20/06/2030"})
	wantCode(t, err, codes.InvalidArgument)
}

func TestListNotifications(t *testing.T) {
	e := setup(t)
	ctx := authed("owner-1")
	a := create(t, e, ctx, input("Ana", "2030-06-10", "09:00"))

	resp, err := e.h.ListNotifications(ctx, &rpc.Empty{})
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	kinds := map[string]bool{}
	for _, n := range resp.Notifications {
		if n.AppointmentID != a.ID {
			t.Errorf("notification for %q", n.AppointmentID)
		}
		kinds[n.Kind] = true
	}
	if len(resp.Notifications) != 2 || !kinds[string(model.SameDayReminder)] || !kinds[string(model.OneHourReminder)] {
		t.Errorf("unexpected notifications %+v", resp.Notifications)
	}
}

func TestStoreUnavailable(t *testing.T) {
	mem := store.NewMemory()
	svc := service.New(downStore{mem}, &fakeSyncer{}, zone, zap.NewNop())
	h := handler.New(svc, mem, "test-secret", handler.WithClock(func() time.Time { return morning }))

	_, err := h.ListAppointments(authed("owner-1"), &rpc.ListAppointmentsRequest{})
	wantCode(t, err, codes.Unavailable)
	_, err = h.ListNotifications(authed("owner-1"), &rpc.Empty{})
	wantCode(t, err, codes.Unavailable)
}
