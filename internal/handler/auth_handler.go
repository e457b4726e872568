package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/auth"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/rpc"
	"appointment-scheduler/internal/store"
)

func (h *Handler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	form := registerForm{
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
	}
	if err := check(h.validate, form); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        form.Email,
		PasswordHash: hash,
		Name:         form.Name,
	}
	if err := h.accounts.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// don't reveal which emails exist
			return nil, status.Error(codes.AlreadyExists, "registration failed")
		}
		return nil, status.Error(codes.Unavailable, "registration failed")
	}

	tok, refresh, err := h.issue(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &rpc.RegisterResponse{UserID: u.ID, Token: tok, RefreshToken: refresh}, nil
}

func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password required")
	}

	u, err := h.accounts.UserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	tok, refresh, err := h.issue(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &rpc.LoginResponse{Token: tok, UserID: u.ID, Name: u.Name, RefreshToken: refresh}, nil
}

// Refresh rotates a refresh token. Presenting one that was already rotated
// revokes every token of that user.
func (h *Handler) Refresh(ctx context.Context, req *rpc.RefreshRequest) (*rpc.RefreshResponse, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token required")
	}

	rt, err := h.accounts.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if rt.Revoked {
		if err := h.accounts.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			return nil, status.Error(codes.Unavailable, "could not revoke refresh tokens")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	now := h.now()
	if now.After(rt.ExpiresAt) {
		return nil, status.Error(codes.Unauthenticated, "refresh token expired")
	}
	if _, err := h.accounts.UserByID(ctx, rt.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
		}
		return nil, status.Error(codes.Unavailable, "refresh failed")
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	if _, err := h.accounts.RotateRefreshToken(ctx, rt.ID, rt.UserID, hash, now.Add(h.refreshTTL)); err != nil {
		// lost a race with another refresh of the same token
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}

	tok, err := auth.MakeToken(rt.UserID, h.secret, h.accessTTL)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return &rpc.RefreshResponse{Token: tok, RefreshToken: raw}, nil
}

func (h *Handler) Logout(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.accounts.RevokeAllRefreshTokens(ctx, uid); err != nil {
		return nil, status.Error(codes.Unavailable, "logout failed")
	}
	return &rpc.Empty{}, nil
}

// issue signs an access token and stores a fresh refresh token for uid.
func (h *Handler) issue(ctx context.Context, uid string) (access, refresh string, err error) {
	access, err = auth.MakeToken(uid, h.secret, h.accessTTL)
	if err != nil {
		return "", "", status.Error(codes.Internal, "internal error")
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return "", "", status.Error(codes.Internal, "internal error")
	}
	if _, err := h.accounts.CreateRefreshToken(ctx, uid, hash, h.now().Add(h.refreshTTL)); err != nil {
		return "", "", status.Error(codes.Unavailable, "could not start session")
	}
	return access, raw, nil
}

// normalizeEmail makes email lookups case-insensitive on every store driver.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
