package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestAppointmentWire(t *testing.T) {
	created := time.Date(2030, 6, 10, 6, 30, 0, 123, time.UTC)
	in := &AppointmentResponse{Appointment: &Appointment{
		ID:        "a1",
		OwnerID:   "u1",
		Name:      "Ana",
		Email:     "ana@example.com",
		Date:      "2030-06-10",
		Time:      "09:00",
		CreatedAt: created,
		Status:    "today",
	}}

	var out AppointmentResponse
	if err := out.UnmarshalWire(in.MarshalWire()); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := out.Appointment
	if got == nil || got.ID != "a1" || got.Name != "Ana" || got.Status != "today" || got.Phone != "" {
		t.Fatalf("got %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.IsZero() {
		t.Errorf("updated_at = %v, want zero", got.UpdatedAt)
	}
}

func TestUpdateRequestFieldNumbers(t *testing.T) {
	in := &UpdateAppointmentRequest{ID: "a1", AppointmentInput: AppointmentInput{Name: "Ana", Notes: "n"}}
	b := in.MarshalWire()

	// id=1, name=2, notes=7
	want := []protowire.Number{1, 2, 7}
	for i := 0; len(b) > 0; i++ {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			t.Fatalf("bad tag")
		}
		if i >= len(want) || num != want[i] {
			t.Fatalf("field %d has number %d", i, num)
		}
		b = b[n:]
		b = b[protowire.ConsumeFieldValue(num, typ, b):]
	}

	var out UpdateAppointmentRequest
	if err := out.UnmarshalWire(in.MarshalWire()); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != "a1" || out.Name != "Ana" || out.Notes != "n" {
		t.Errorf("got %+v", out)
	}
}

func TestListRequestDate(t *testing.T) {
	in := &ListAppointmentsRequest{Period: "all", Date: "2030-06-20"}
	var out ListAppointmentsRequest
	if err := out.UnmarshalWire(in.MarshalWire()); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != *in {
		t.Errorf("got %+v", out)
	}

	// period=2 then date=3
	b := in.MarshalWire()
	_, _, n := protowire.ConsumeTag(b)
	b = b[n:]
	b = b[protowire.ConsumeFieldValue(2, protowire.BytesType, b):]
	if num, _, _ := protowire.ConsumeTag(b); num != 3 {
		t.Errorf("date field number %d", num)
	}
}

func TestUnknownFieldsSkipped(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	b = appendString(b, 1, "a1")
	b = protowire.AppendTag(b, 1, protowire.VarintType) // wrong type for id
	b = protowire.AppendVarint(b, 1)

	var req IDRequest
	if err := req.UnmarshalWire(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.ID != "a1" {
		t.Errorf("id = %q", req.ID)
	}
}

func TestMalformed(t *testing.T) {
	var req IDRequest
	if err := req.UnmarshalWire([]byte{0x0a, 0x05, 'a'}); err == nil {
		t.Error("expected error for truncated field")
	}

	// nanos out of range
	var ts []byte
	ts = protowire.AppendTag(ts, 2, protowire.VarintType)
	ts = protowire.AppendVarint(ts, 2_000_000_000)
	var n Notification
	if err := n.UnmarshalWire(appendMessage(nil, 4, ts)); err == nil {
		t.Error("expected error for invalid timestamp")
	}
}

func TestCodec(t *testing.T) {
	c := Codec{}
	if c.Name() != "proto" {
		t.Errorf("name = %q", c.Name())
	}
	if _, err := c.Marshal("not a message"); err == nil {
		t.Error("expected marshal error")
	}
	b, err := c.Marshal(&LoginRequest{Email: "a@b.com"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out LoginRequest
	if err := c.Unmarshal(b, &out); err != nil || out.Email != "a@b.com" {
		t.Errorf("unmarshal = %+v, %v", out, err)
	}
}

// echo implements only what the service test calls.
type echo struct{ ScheduleServiceServer }

func (echo) GetAppointment(_ context.Context, req *IDRequest) (*AppointmentResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	return &AppointmentResponse{Appointment: &Appointment{ID: req.ID, Name: "echo"}}, nil
}

func TestServiceDesc(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	var seen string
	srv := grpc.NewServer(
		grpc.ForceServerCodec(Codec{}),
		grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
			seen = info.FullMethod
			return next(ctx, req)
		}),
	)
	RegisterScheduleServiceServer(srv, echo{})
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var resp AppointmentResponse
	if err := conn.Invoke(context.Background(), MethodGetAppointment, &IDRequest{ID: "a1"}, &resp); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if resp.Appointment == nil || resp.Appointment.ID != "a1" {
		t.Errorf("got %+v", resp.Appointment)
	}
	if seen != MethodGetAppointment {
		t.Errorf("interceptor saw %q", seen)
	}

	err = conn.Invoke(context.Background(), MethodGetAppointment, &IDRequest{}, &resp)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", status.Code(err))
	}
}
