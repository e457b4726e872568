package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/auth"
	"appointment-scheduler/internal/middleware"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/rpc"
	"appointment-scheduler/internal/service"
	"appointment-scheduler/internal/store"
)

// DefaultRefreshTTL is used when New gets a zero refresh ttl.
const DefaultRefreshTTL = 7 * 24 * time.Hour

// Accounts stores users and their refresh tokens.
type Accounts interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*store.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, userID, newHash string, newExpiry time.Time) (string, error)
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

var _ rpc.ScheduleServiceServer = (*Handler)(nil)

type Handler struct {
	svc        *service.Service
	accounts   Accounts
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	validate   *validator.Validate
	now        func() time.Time
}

type Option func(*Handler)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithTTLs sets the access and refresh token lifetimes. Zero keeps the default.
func WithTTLs(access, refresh time.Duration) Option {
	return func(h *Handler) {
		if access > 0 {
			h.accessTTL = access
		}
		if refresh > 0 {
			h.refreshTTL = refresh
		}
	}
}

func New(svc *service.Service, accounts Accounts, secret string, opts ...Option) *Handler {
	h := &Handler{
		svc:        svc,
		accounts:   accounts,
		secret:     secret,
		accessTTL:  auth.DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	h.validate = newValidator(h.today)
	return h
}

// today is local midnight in the service zone.
func (h *Handler) today() time.Time {
	y, m, d := h.clock().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, h.svc.Location())
}

func (h *Handler) clock() time.Time {
	return h.now().In(h.svc.Location())
}

func caller(ctx context.Context) (string, error) {
	uid, ok := middleware.UserID(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "not signed in")
	}
	return uid, nil
}

// storeStatus maps a service error; msg is what the client sees when the
// store is down.
func storeStatus(err error, msg string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "appointment not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, msg)
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
