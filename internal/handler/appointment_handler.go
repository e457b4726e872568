package handler

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/calsync"
	"appointment-scheduler/internal/middleware"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/rpc"
	"appointment-scheduler/internal/schedule"
)

func (h *Handler) CreateAppointment(ctx context.Context, req *rpc.CreateAppointmentRequest) (*rpc.AppointmentResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	form := formFrom(req.AppointmentInput)
	if err := check(h.validate, form); err != nil {
		return nil, err
	}

	cred := calsync.Credential{Token: middleware.CalendarToken(ctx)}
	a, err := h.svc.Create(ctx, form.fields(), uid, cred)
	if err != nil {
		return nil, storeStatus(err, "could not save appointment")
	}
	return &rpc.AppointmentResponse{Appointment: h.toRPC(a)}, nil
}

func (h *Handler) GetAppointment(ctx context.Context, req *rpc.IDRequest) (*rpc.AppointmentResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}

	// other owners' appointments are reported as not found
	a, err := h.svc.Get(ctx, req.ID, uid)
	if err != nil {
		return nil, storeStatus(err, "could not load appointment")
	}
	return &rpc.AppointmentResponse{Appointment: h.toRPC(a)}, nil
}

func (h *Handler) UpdateAppointment(ctx context.Context, req *rpc.UpdateAppointmentRequest) (*rpc.AppointmentResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	form := formFrom(req.AppointmentInput)
	if err := check(h.validate, form); err != nil {
		return nil, err
	}

	if err := h.svc.Update(ctx, req.ID, uid, form.fields()); err != nil {
		return nil, storeStatus(err, "could not update appointment")
	}
	a, err := h.svc.Get(ctx, req.ID, uid)
	if err != nil {
		return nil, storeStatus(err, "could not load appointment")
	}
	return &rpc.AppointmentResponse{Appointment: h.toRPC(a)}, nil
}

func (h *Handler) DeleteAppointment(ctx context.Context, req *rpc.IDRequest) (*rpc.Empty, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}

	if err := h.svc.Delete(ctx, req.ID, uid); err != nil {
		return nil, storeStatus(err, "could not delete appointment")
	}
	return &rpc.Empty{}, nil
}

func (h *Handler) ListAppointments(ctx context.Context, req *rpc.ListAppointmentsRequest) (*rpc.ListAppointmentsResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	period, err := schedule.ParsePeriod(req.Period)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	date := strings.TrimSpace(req.Date)
	if date != "" {
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			return nil, status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD")
		}
	}

	apts, err := h.svc.List(ctx, uid)
	if err != nil {
		return nil, storeStatus(err, "could not load appointments")
	}

	apts = schedule.Filter(apts, strings.TrimSpace(req.Search), period, h.clock())
	apts = schedule.OnDate(apts, date)
	out := make([]*rpc.Appointment, len(apts))
	for i := range apts {
		out[i] = h.toRPC(apts[i])
	}
	return &rpc.ListAppointmentsResponse{Appointments: out}, nil
}

func (h *Handler) ListNotifications(ctx context.Context, _ *rpc.Empty) (*rpc.ListNotificationsResponse, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	ns, err := h.svc.Notifications(ctx, uid, h.now())
	if err != nil {
		return nil, storeStatus(err, "could not load appointments")
	}
	out := make([]*rpc.Notification, len(ns))
	for i, n := range ns {
		out[i] = notificationToRPC(n)
	}
	return &rpc.ListNotificationsResponse{Notifications: out}, nil
}

func (h *Handler) toRPC(a model.Appointment) *rpc.Appointment {
	return &rpc.Appointment{
		ID:              a.ID,
		OwnerID:         a.OwnerID,
		Name:            a.Name,
		Email:           a.Email,
		Phone:           a.Phone,
		Date:            a.Date,
		Time:            a.Time,
		Notes:           a.Notes,
		ExternalEventID: a.ExternalEventID,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		Status:          string(schedule.Classify(a, h.clock())),
	}
}

func notificationToRPC(n model.Notification) *rpc.Notification {
	return &rpc.Notification{
		ID:              n.ID,
		Kind:            string(n.Kind),
		AppointmentID:   n.AppointmentID,
		AppointmentName: n.AppointmentName,
		FiresAt:         n.FiresAt.In(time.UTC),
	}
}
