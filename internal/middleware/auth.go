package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/auth"
	"appointment-scheduler/internal/rpc"
)

type ctxKey string

const (
	UserIDKey        ctxKey = "uid"
	CalendarTokenKey ctxKey = "calendar-token"
)

// CalendarTokenHeader carries the caller's calendar access token.
const CalendarTokenHeader = "x-calendar-token"

// skip auth for these
var open = map[string]bool{
	rpc.MethodRegister: true,
	rpc.MethodLogin:    true,
	rpc.MethodRefresh:  true,
}

func Auth(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from Authorization: Bearer <jwt>
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = strings.TrimPrefix(vals[0], "Bearer ")
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}

		ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
		if vals := md.Get(CalendarTokenHeader); len(vals) > 0 {
			ctx = context.WithValue(ctx, CalendarTokenKey, vals[0])
		}
		return next(ctx, req)
	}
}

// UserID is the authenticated caller set by Auth.
func UserID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	return uid, ok && uid != ""
}

// CalendarToken is the opaque calendar credential, empty when absent.
func CalendarToken(ctx context.Context) string {
	tok, _ := ctx.Value(CalendarTokenKey).(string)
	return tok
}
