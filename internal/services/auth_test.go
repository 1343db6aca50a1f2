package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/courseforge-backend/internal/data/repos"
	"github.com/yungbote/courseforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/courseforge-backend/internal/pkg/ctxutil"
	errs "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/types"
)

func newTestAuthService(t *testing.T) AuthService {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	return NewAuthService(tx, log, repos.NewUserRepo(tx, log), repos.NewUserTokenRepo(tx, log), "test-secret", time.Hour, 24*time.Hour)
}

func registerTestUser(t *testing.T, svc AuthService, email string) {
	t.Helper()
	err := svc.RegisterUser(context.Background(), &types.User{
		Email:     email,
		Password:  "hunter22",
		FirstName: "Test",
		LastName:  "Author",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
}

func TestRegisterUser_DuplicateEmailRejected(t *testing.T) {
	svc := newTestAuthService(t)
	registerTestUser(t, svc, "dup@example.com")

	err := svc.RegisterUser(context.Background(), &types.User{
		Email:    "DUP@example.com",
		Password: "other",
	})
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for duplicate email, got %v", err)
	}
}

func TestLoginUser_RoundTripsThroughToken(t *testing.T) {
	svc := newTestAuthService(t)
	registerTestUser(t, svc, "login@example.com")

	access, refresh, err := svc.LoginUser(context.Background(), "login@example.com", "hunter22")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatalf("expected both tokens, got %q / %q", access, refresh)
	}

	ctx, err := svc.SetContextFromToken(context.Background(), access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		t.Fatalf("expected request data with user id")
	}
}

func TestLoginUser_WrongPasswordUnauthorized(t *testing.T) {
	svc := newTestAuthService(t)
	registerTestUser(t, svc, "secure@example.com")

	_, _, err := svc.LoginUser(context.Background(), "secure@example.com", "wrong")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRefreshUser_RotatesTokens(t *testing.T) {
	svc := newTestAuthService(t)
	registerTestUser(t, svc, "rotate@example.com")

	_, refresh, err := svc.LoginUser(context.Background(), "rotate@example.com", "hunter22")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	newAccess, newRefresh, err := svc.RefreshUser(context.Background(), refresh)
	if err != nil {
		t.Fatalf("RefreshUser: %v", err)
	}
	if newAccess == "" || newRefresh == "" || newRefresh == refresh {
		t.Fatalf("expected rotated tokens")
	}

	// The old refresh token is dead after rotation.
	_, _, err = svc.RefreshUser(context.Background(), refresh)
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for stale refresh token, got %v", err)
	}
}

func TestSetContextFromToken_RejectsForgedToken(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.SetContextFromToken(context.Background(), "not.a.token")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
