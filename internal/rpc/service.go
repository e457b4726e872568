package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "appointment.v1.ScheduleService"

const (
	MethodRegister          = "/" + ServiceName + "/Register"
	MethodLogin             = "/" + ServiceName + "/Login"
	MethodRefresh           = "/" + ServiceName + "/Refresh"
	MethodLogout            = "/" + ServiceName + "/Logout"
	MethodCreateAppointment = "/" + ServiceName + "/CreateAppointment"
	MethodGetAppointment    = "/" + ServiceName + "/GetAppointment"
	MethodUpdateAppointment = "/" + ServiceName + "/UpdateAppointment"
	MethodDeleteAppointment = "/" + ServiceName + "/DeleteAppointment"
	MethodListAppointments  = "/" + ServiceName + "/ListAppointments"
	MethodListNotifications = "/" + ServiceName + "/ListNotifications"
)

// Codec encodes Message values. It is named "proto" because the bytes are
// ordinary protobuf, so stock gRPC and gRPC-Web clients interoperate.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("rpc: cannot marshal %T", v)
	}
	return m.MarshalWire(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("rpc: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

func (Codec) Name() string { return "proto" }

// ScheduleServiceServer is implemented by the handler package.
type ScheduleServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	CreateAppointment(context.Context, *CreateAppointmentRequest) (*AppointmentResponse, error)
	GetAppointment(context.Context, *IDRequest) (*AppointmentResponse, error)
	UpdateAppointment(context.Context, *UpdateAppointmentRequest) (*AppointmentResponse, error)
	DeleteAppointment(context.Context, *IDRequest) (*Empty, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	ListNotifications(context.Context, *Empty) (*ListNotificationsResponse, error)
}

// unary adapts a typed method to a grpc.MethodDesc handler.
func unary[Req any, PReq interface {
	*Req
	Message
}, Resp Message](fullMethod string, call func(ScheduleServiceServer, context.Context, PReq) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
		}
		s := srv.(ScheduleServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func method(fullMethod string, h grpc.MethodHandler) grpc.MethodDesc {
	return grpc.MethodDesc{MethodName: fullMethod[len(ServiceName)+2:], Handler: h}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScheduleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(MethodRegister, unary(MethodRegister, ScheduleServiceServer.Register)),
		method(MethodLogin, unary(MethodLogin, ScheduleServiceServer.Login)),
		method(MethodRefresh, unary(MethodRefresh, ScheduleServiceServer.Refresh)),
		method(MethodLogout, unary(MethodLogout, ScheduleServiceServer.Logout)),
		method(MethodCreateAppointment, unary(MethodCreateAppointment, ScheduleServiceServer.CreateAppointment)),
		method(MethodGetAppointment, unary(MethodGetAppointment, ScheduleServiceServer.GetAppointment)),
		method(MethodUpdateAppointment, unary(MethodUpdateAppointment, ScheduleServiceServer.UpdateAppointment)),
		method(MethodDeleteAppointment, unary(MethodDeleteAppointment, ScheduleServiceServer.DeleteAppointment)),
		method(MethodListAppointments, unary(MethodListAppointments, ScheduleServiceServer.ListAppointments)),
		method(MethodListNotifications, unary(MethodListNotifications, ScheduleServiceServer.ListNotifications)),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "appointment/v1/appointment.proto",
}

func RegisterScheduleServiceServer(s grpc.ServiceRegistrar, srv ScheduleServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
