package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/internal/requestdata"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

func newAuthFixture(t *testing.T) *authService {
	t.Helper()
	return &authService{
		log:          mustTestLogger(t).With("service", "AuthService"),
		jwtSecretKey: "test-secret",
		accessTTL:    time.Hour,
		refreshTTL:   24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	as := newAuthFixture(t)
	user := &types.User{ID: uuid.New()}

	token, err := as.generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	ctx, err := as.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}

	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		t.Fatal("no request data attached")
	}
	if rd.UserID != user.ID {
		t.Fatalf("UserID = %s, want %s", rd.UserID, user.ID)
	}
	if rd.TokenString != token {
		t.Fatal("token string not carried through")
	}
}

func TestSetContextFromTokenEmptyPassesThrough(t *testing.T) {
	as := newAuthFixture(t)

	ctx, err := as.SetContextFromToken(context.Background(), "")
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if requestdata.GetRequestData(ctx) != nil {
		t.Fatal("empty token must not attach identity")
	}
}

func TestSetContextFromTokenRejectsWrongSecret(t *testing.T) {
	as := newAuthFixture(t)

	other := &authService{
		log:          as.log,
		jwtSecretKey: "a-different-secret",
		accessTTL:    time.Hour,
	}
	token, err := other.generateAccessToken(&types.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	if _, err := as.SetContextFromToken(context.Background(), token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestSetContextFromTokenRejectsExpired(t *testing.T) {
	as := newAuthFixture(t)
	as.accessTTL = -time.Minute

	token, err := as.generateAccessToken(&types.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	if _, err := as.SetContextFromToken(context.Background(), token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestSetContextFromTokenRejectsUnexpectedAlg(t *testing.T) {
	as := newAuthFixture(t)

	// "none" tokens must never validate, whatever the payload claims.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := as.SetContextFromToken(context.Background(), token); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}
